package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/finledger/internal/model"
)

// sampleSize bounds how much of an existing file is inspected for a header.
const sampleSize = 2048

// Append adds txns to the ledger at path in order. A missing or empty file
// gets the header first. A file whose first record is not the header has
// the header prepended. Rows are never de-duplicated; callers appending to
// the same file must serialize.
func Append(path string, txns []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return create(path, txns)
	}
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}
	if info.Size() == 0 {
		return create(path, txns)
	}

	headed, err := HasHeader(path)
	if err != nil {
		return err
	}
	if !headed {
		return prependHeader(path, txns)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	if err := repairNewline(f, info.Size()); err != nil {
		f.Close()
		return err
	}
	if err := appendRows(f, txns); err != nil {
		f.Close()
		return fmt.Errorf("appending rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}
	return nil
}

// HasHeader reports whether the first record of the file is the ledger
// header. Only the first sampleSize bytes are read.
func HasHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading ledger sample: %w", err)
	}
	sample := buf[:n]
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	} else if n == sampleSize {
		return false, nil
	}

	cr := csv.NewReader(bytes.NewReader(sample))
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err != nil {
		return false, nil
	}
	return isHeader(rec), nil
}

func create(path string, txns []model.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}
	if err := WriteCSV(f, txns); err != nil {
		f.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	return f.Close()
}

// prependHeader rewrites a headerless ledger through a temp file so a crash
// leaves the original untouched.
func prependHeader(path string, txns []model.Transaction) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	if err := appendRows(&buf, txns); err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

func repairNewline(f *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("reading ledger tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("repairing trailing newline: %w", err)
	}
	return nil
}

// Read opens and parses the ledger at path.
func Read(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return txns, nil
}

// WriteFile writes txns with a header, replacing any existing file.
func WriteFile(path string, txns []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}
	return create(path, txns)
}
