package notify

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Event types emitted by the sync pipeline.
const (
	EventSyncCompleted = "sync_completed"
	EventSyncFailed    = "sync_failed"
)

// SyncReporter formats terminal sync-run summaries and dispatches them
// through a Notifier. It satisfies the pipeline's Reporter contract.
type SyncReporter struct {
	notifier *Notifier
}

// NewSyncReporter creates a SyncReporter over the given notifier.
func NewSyncReporter(n *Notifier) *SyncReporter {
	return &SyncReporter{notifier: n}
}

// RunFinished delivers a summary of the run. Delivery failures are already
// logged by the notifier; they never propagate into the sync path.
func (r *SyncReporter) RunFinished(ctx context.Context, run domain.SyncRun) {
	switch run.Status {
	case domain.SyncStatusCompleted:
		title := "Sync completed"
		message := fmt.Sprintf(
			"Run %s finished: %d processed, %d added, %d updated.",
			run.ID, run.Processed, run.Added, run.Updated,
		)
		_ = r.notifier.Notify(ctx, EventSyncCompleted, title, message)
	case domain.SyncStatusFailed:
		title := "Sync FAILED"
		message := fmt.Sprintf(
			"Run %s failed after %d records: %s",
			run.ID, run.Processed, run.ErrorMessage,
		)
		_ = r.notifier.Notify(ctx, EventSyncFailed, title, message)
	}
}
