package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// MarketReader is the slice of the market service the handler needs.
type MarketReader interface {
	Records(ctx context.Context, opts domain.ListOpts) ([]domain.MarketRecord, error)
}

// MarketsHandler serves the synced market listing.
type MarketsHandler struct {
	markets MarketReader
	logger  *slog.Logger
}

// NewMarketsHandler creates a MarketsHandler.
func NewMarketsHandler(markets MarketReader, logger *slog.Logger) *MarketsHandler {
	return &MarketsHandler{
		markets: markets,
		logger:  logHandler(logger, "markets"),
	}
}

// List returns the current market snapshot, paginated.
// GET /api/markets?limit=50&offset=0
func (h *MarketsHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	records, err := h.markets.Records(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	if records == nil {
		records = []domain.MarketRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"markets": records,
		"count":   len(records),
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}
