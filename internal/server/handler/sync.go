package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// SourceSyncer triggers ingestion runs.
type SourceSyncer interface {
	SyncSource(ctx context.Context, sourceID int64, syncType string) (domain.SyncResult, error)
	SyncAll(ctx context.Context, syncType string) (map[domain.Platform]domain.SyncResult, error)
}

// SyncLogReader lists recent sync runs from the audit log.
type SyncLogReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

// SyncHandler exposes manual sync triggers and the sync audit log.
type SyncHandler struct {
	syncer  SourceSyncer
	syncLog SyncLogReader
	logger  *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(syncer SourceSyncer, syncLog SyncLogReader, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer:  syncer,
		syncLog: syncLog,
		logger:  logHandler(logger, "sync"),
	}
}

// runResponse is the wire shape of a sync run.
type runResponse struct {
	ID          string  `json:"id"`
	SourceID    int64   `json:"source_id"`
	SyncType    string  `json:"sync_type"`
	Status      string  `json:"status"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Processed   int     `json:"processed"`
	Added       int     `json:"added"`
	Updated     int     `json:"updated"`
	Error       string  `json:"error,omitempty"`
}

func toRunResponse(run domain.SyncRun) runResponse {
	resp := runResponse{
		ID:        run.ID,
		SourceID:  run.SourceID,
		SyncType:  run.SyncType,
		Status:    string(run.Status),
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
		Processed: run.Processed,
		Added:     run.Added,
		Updated:   run.Updated,
		Error:     run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		done := run.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &done
	}
	return resp
}

// TriggerAll runs a manual sync across every active source. Failed sources
// are reported alongside the results of the sources that succeeded.
// POST /api/sync
func (h *SyncHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.syncer.SyncAll(ctx, domain.SyncTypeManual)
	if err != nil && len(results) == 0 {
		h.logger.ErrorContext(ctx, "manual sync failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "sync failed for all sources")
		return
	}

	body := map[string]any{"results": results}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// TriggerSource runs a manual sync for a single source.
// POST /api/sync/{id}
func (h *SyncHandler) TriggerSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	result, err := h.syncer.SyncSource(ctx, id, domain.SyncTypeManual)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "source not found")
		case errors.Is(err, domain.ErrLockHeld):
			writeError(w, http.StatusConflict, "sync already running for this source")
		case errors.Is(err, domain.ErrSourceInactive):
			writeError(w, http.StatusConflict, "source is inactive")
		case errors.Is(err, domain.ErrUnknownPlatform):
			writeError(w, http.StatusUnprocessableEntity, "no adapter registered for this source")
		default:
			h.logger.ErrorContext(ctx, "source sync failed",
				slog.Int64("source_id", id),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "sync failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source_id": id,
		"result":    result,
	})
}

// ListRuns returns the most recent sync runs, newest first.
// GET /api/syncs?limit=50
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts := parseListOpts(r)

	runs, err := h.syncLog.ListRecent(ctx, opts.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list sync runs failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list sync runs")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  out,
		"count": len(out),
	})
}
