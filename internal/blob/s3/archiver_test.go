package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

type fakeWriter struct {
	puts map[string][]byte
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{puts: make(map[string][]byte)}
}

func (w *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts[path] = buf
	return nil
}

func (w *fakeWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts[path] = buf
	return nil
}

func TestArchiveRunRecordsPathAndShape(t *testing.T) {
	writer := newFakeWriter()
	archiver := NewArchiver(writer)

	run := domain.SyncRun{
		ID:        "9f0d6a0e-0000-0000-0000-000000000001",
		StartedAt: time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
	}
	records := []domain.MarketRecord{
		{ExternalID: "a", Platform: domain.PlatformPolymarket, Title: "One"},
		{ExternalID: "b", Platform: domain.PlatformPolymarket, Title: "Two"},
	}

	require.NoError(t, archiver.ArchiveRunRecords(context.Background(), run, records))

	wantPath := "sync/polymarket/2025-06-15/" + run.ID + ".jsonl"
	data, ok := writer.puts[wantPath]
	require.True(t, ok, "object stored at the run-partitioned path, got %v", writer.puts)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "one JSON line per record")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"))
	}
}

func TestArchiveRunRecordsSkipsEmptyRun(t *testing.T) {
	writer := newFakeWriter()
	archiver := NewArchiver(writer)

	require.NoError(t, archiver.ArchiveRunRecords(context.Background(), domain.SyncRun{ID: "x"}, nil))
	assert.Empty(t, writer.puts)
}

func TestMarshalJSONLCompactLines(t *testing.T) {
	buf, err := marshalJSONL([]domain.Match{
		{Score: 5, Platform: "polymarket"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(buf, []byte("\n")))
}
