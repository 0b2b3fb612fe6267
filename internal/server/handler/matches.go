package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Matcher is the slice of the market service that correlates markets with
// calendar events.
type Matcher interface {
	Matches(ctx context.Context) ([]domain.Match, error)
	MatchesFor(ctx context.Context, query string) ([]domain.Match, error)
}

// MatchesHandler serves event/market correlation results.
type MatchesHandler struct {
	matcher Matcher
	logger  *slog.Logger
}

// NewMatchesHandler creates a MatchesHandler.
func NewMatchesHandler(matcher Matcher, logger *slog.Logger) *MatchesHandler {
	return &MatchesHandler{
		matcher: matcher,
		logger:  logHandler(logger, "matches"),
	}
}

// List correlates the major calendar events against the market snapshot.
// An optional q parameter narrows the calendar to events matching the query.
// GET /api/matches?q=bitcoin
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		matches []domain.Match
		err     error
	)
	if query != "" {
		matches, err = h.matcher.MatchesFor(ctx, query)
	} else {
		matches, err = h.matcher.Matches(ctx)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "correlation failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to correlate markets")
		return
	}

	if matches == nil {
		matches = []domain.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
		"query":   query,
	})
}
