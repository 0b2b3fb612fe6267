package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// multipartCutoff is the payload size above which uploads switch to the
// multipart path.
const multipartCutoff = 8 * 1024 * 1024

// Archiver writes sync-run snapshots and correlation reports to cold
// storage as JSONL, one object per run or report.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver over the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveRunRecords uploads the full record set of a completed sync run to
//
//	sync/{platform}/{YYYY-MM-DD}/{runID}.jsonl
//
// partitioned by run date so per-day listings stay cheap.
func (a *Archiver) ArchiveRunRecords(ctx context.Context, run domain.SyncRun, records []domain.MarketRecord) error {
	if len(records) == 0 {
		return nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.ID, err)
	}

	platform := string(records[0].Platform)
	path := fmt.Sprintf("sync/%s/%s/%s.jsonl", platform, run.StartedAt.Format("2006-01-02"), run.ID)

	if err := a.upload(ctx, path, buf); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.ID, err)
	}
	return nil
}

// ArchiveMatches uploads a correlation report to
//
//	reports/matches/{YYYY-MM-DD}T{HHMMSS}.jsonl
func (a *Archiver) ArchiveMatches(ctx context.Context, at time.Time, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	buf, err := marshalJSONL(matches)
	if err != nil {
		return fmt.Errorf("s3blob: archive matches: %w", err)
	}

	path := fmt.Sprintf("reports/matches/%s.jsonl", at.UTC().Format("2006-01-02T150405"))
	if err := a.upload(ctx, path, buf); err != nil {
		return fmt.Errorf("s3blob: archive matches: %w", err)
	}
	return nil
}

func (a *Archiver) upload(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) > multipartCutoff {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// marshalJSONL serializes a slice of values as newline-delimited JSON, one
// compact line per element.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
