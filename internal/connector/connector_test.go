package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/record"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCSVConnectorReadsHeaderAndRows(t *testing.T) {
	path := writeTempFile(t, "in.csv", "country,code\nUS,1\nFR,33\n")

	c := NewCSVConnector(NewFileResourceOpener(nil))
	require.NoError(t, c.Configure(Settings{"url": path, "header": true}, true))

	out, err := c.Read(context.Background())
	require.NoError(t, err)

	var records []*record.Record
	for r := range out {
		records = append(records, r)
	}

	require.Len(t, records, 2)
	v, ok := records[0].Get(record.NameField("country"))
	require.True(t, ok)
	assert.Equal(t, "US", v)
}

func TestCSVConnectorWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	c := NewCSVConnector(NewFileResourceOpener(nil))
	require.NoError(t, c.Configure(Settings{"url": path}, false))

	in, errCh, err := c.Write(context.Background())
	require.NoError(t, err)

	rec := record.New("test", "mem", 1)
	require.NoError(t, rec.Set(record.IndexField(0), "US"))
	in <- rec
	close(in)
	require.NoError(t, <-errCh)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "US")
}

func TestJSONConnectorReadsLines(t *testing.T) {
	path := writeTempFile(t, "in.json", `{"country":"US"}`+"\n"+`{"country":"FR"}`+"\n")

	c := NewJSONConnector(NewFileResourceOpener(nil))
	require.NoError(t, c.Configure(Settings{"url": path}, true))

	out, err := c.Read(context.Background())
	require.NoError(t, err)

	var count int
	for r := range out {
		require.False(t, r.IsError())
		count++
	}
	assert.Equal(t, 2, count)
}
