package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     "0b8f6a8e-4a52-4f0c-9a57-3d8f2a1c9e10",
		Command:   "adapt",
		Source:    "import/hdfc_jan.csv",
		Written:   42,
		Skipped:   2,
		Manual:    5,
		Ambiguous: 1,
	}
}

func TestAppend_NewFile(t *testing.T) {
	path := Path(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, Append(path, []Entry{testEntry()}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_SingleHeader(t *testing.T) {
	path := Path(t.TempDir())
	require.NoError(t, Append(path, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Command = "reconcile"
	e2.Source = "2024-01-01..2024-12-31"
	require.NoError(t, Append(path, []Entry{e2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "adapt", entries[0].Command)
	assert.Equal(t, "reconcile", entries[1].Command)
}

func TestAppend_EmptyFileGetsHeader(t *testing.T) {
	path := Path(t.TempDir())
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, Append(path, []Entry{testEntry()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		errMsg string
	}{
		{"wrong field count", []string{"a", "b"}, "expected 8 fields"},
		{"bad timestamp", []string{"yesterday", "id", "adapt", "x", "1", "0", "0", "0"}, "parsing timestamp"},
		{"bad count", []string{"2025-01-15T10:30:00Z", "id", "adapt", "x", "many", "0", "0", "0"}, "parsing count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.record)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
