// Package notify delivers sync-run alerts to operator channels. A Notifier
// fans each alert out to every configured Sender (Telegram, Discord) and can
// restrict delivery to the event types an operator opted into, so a noisy
// scheduler does not page anyone about routine completed runs.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is one delivery channel for alerts.
type Sender interface {
	// Send delivers an alert with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs and error messages.
	Name() string
}

// Notifier fans alerts out to its senders. Notify drops alerts whose event
// type is not in the configured allow-list; NotifyAll bypasses the filter
// and is reserved for alerts that must always reach operators.
type Notifier struct {
	senders []Sender
	allowed map[string]struct{}
	logger  *slog.Logger
}

// NewNotifier builds a Notifier over the given senders. events is the
// allow-list of event types Notify will forward; an empty list allows
// everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = struct{}{}
		}
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers an alert to every sender, subject to the event allow-list.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.allowed) > 0 {
		if _, ok := n.allowed[event]; !ok {
			n.logger.DebugContext(ctx, "alert filtered out",
				slog.String("event", event),
			)
			return nil
		}
	}
	return n.dispatch(ctx, title, message)
}

// NotifyAll delivers an alert to every sender regardless of event type.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender. One failing channel never blocks the
// others; failures are logged and folded into a single returned error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(failed) > 0 {
		return fmt.Errorf("notify: %d of %d senders failed: %s",
			len(failed), len(n.senders), strings.Join(failed, "; "))
	}
	return nil
}
