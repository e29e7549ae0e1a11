// Package runlog records one CSV row per adapt, load or reconcile run.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the run log's name inside the log directory.
const FileName = "run-log.csv"

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,command,source,written,skipped,manual,ambiguous"

const (
	numFields    = 8
	colTimestamp = 0
	colRunID     = 1
	colCommand   = 2
	colSource    = 3
	colWritten   = 4
	colSkipped   = 5
	colManual    = 6
	colAmbiguous = 7
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Command   string
	Source    string
	Written   int
	Skipped   int
	Manual    int
	Ambiguous int
}

// Path returns the run log location under logDir.
func Path(logDir string) string {
	return filepath.Join(logDir, FileName)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colCommand] = e.Command
	row[colSource] = e.Source
	row[colWritten] = strconv.Itoa(e.Written)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colManual] = strconv.Itoa(e.Manual)
	row[colAmbiguous] = strconv.Itoa(e.Ambiguous)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	e := Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Command:   record[colCommand],
		Source:    record[colSource],
	}
	counts := []struct {
		col int
		dst *int
	}{
		{colWritten, &e.Written},
		{colSkipped, &e.Skipped},
		{colManual, &e.Manual},
		{colAmbiguous, &e.Ambiguous},
	}
	for _, c := range counts {
		n, err := strconv.Atoi(record[c.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[c.col], err)
		}
		*c.dst = n
	}
	return e, nil
}

// Append writes entries to path, writing the header first when the file is
// missing or empty.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		needsHeader = false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from path, or nil when the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") == Header {
		records = records[1:]
	}

	var entries []Entry
	for i, rec := range records {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
