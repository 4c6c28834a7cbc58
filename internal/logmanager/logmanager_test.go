package logmanager

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

func TestRecordResultSuccessAdvancesCheckpoint(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	rec := record.New("csv", "file:///a.csv", 1)
	s := &statement.Statement{Template: "insert", OriginalRecord: rec}
	m.RecordResult(statement.NewWriteSuccess(s))

	assert.Equal(t, int64(1), m.Checkpoint("file:///a.csv"))
}

func TestRecordResultFailureWritesBadRecordFile(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	rec := record.New("csv", "file:///a.csv", 1)
	s := &statement.Statement{Template: "insert", OriginalRecord: rec}
	m.RecordResult(statement.NewFailure(statement.KindWrite, s, errors.New("boom")))
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, string(CategoryLoad)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Resource: file:///a.csv\nPosition: 1\nSource: csv\n"))
	assert.Contains(t, string(data), "boom")
	assert.True(t, strings.HasSuffix(string(data), "\n\n"))
}

func TestRecordFailureEscapesMultilineSource(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	rec := record.New("line one\nline two", "file:///a.csv", 1)
	s := &statement.Statement{Template: "insert", OriginalRecord: rec}
	m.RecordResult(statement.NewFailure(statement.KindWrite, s, errors.New("boom")))
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, string(CategoryLoad)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Source: line one line two\n")
}

func TestRecordFailureSeparatesEntriesWithBlankLine(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	for i := int64(1); i <= 2; i++ {
		rec := record.New("csv", "file:///a.csv", i)
		s := &statement.Statement{Template: "insert", OriginalRecord: rec}
		m.RecordResult(statement.NewFailure(statement.KindWrite, s, errors.New("boom")))
	}
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, string(CategoryLoad)))
	require.NoError(t, err)
	entries := strings.Split(strings.TrimSuffix(string(data), "\n\n"), "\n\n")
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e, "Resource: file:///a.csv\nPosition: "))
	}
}

func TestCheckpointHoldsNonContiguousPositions(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	m.checkpoint("r", 2, true)
	assert.Equal(t, int64(0), m.Checkpoint("r"))

	m.checkpoint("r", 1, true)
	assert.Equal(t, int64(2), m.Checkpoint("r"))
}

func TestErrorCeilingAbsoluteEmitsOnce(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir, MaxErrors: 1}, nil)

	for i := int64(1); i <= 3; i++ {
		rec := record.New("csv", "file:///a.csv", i)
		s := &statement.Statement{Template: "insert", OriginalRecord: rec}
		m.RecordResult(statement.NewFailure(statement.KindWrite, s, errors.New("boom")))
	}

	select {
	case err := <-m.AbortSignal():
		assert.NotNil(t, err)
	default:
		t.Fatal("expected abort signal")
	}
	assert.True(t, m.Aborted())

	select {
	case <-m.AbortSignal():
		t.Fatal("abort signal should only be emitted once")
	default:
	}
}

func TestRecordErrorRecordRoutesByCauseType(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{OutputDir: dir}, nil)

	rec := record.NewError("csv", "file:///a.csv", 1, errors.New("bad row"))
	m.RecordErrorRecord(rec)
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, string(CategoryConnector)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Resource: file:///a.csv\nPosition: 1\nSource: csv\n"))
	assert.Contains(t, string(data), "bad row")
}
