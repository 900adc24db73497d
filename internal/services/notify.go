package services

import (
	"context"
	"log/slog"

	"eventlottery/internal/domain"
)

// notify hands recipients to the sink. Failures are logged and never returned: a state
// transition that already committed must not be reported as failed because a message was not sent.
func notify(ctx context.Context, n domain.Notifier, logger *slog.Logger, event *domain.Event, recipients []string, template string) {
	if n == nil || len(recipients) == 0 {
		return
	}
	vars := map[string]string{domain.VarEventName: event.Name}
	if err := n.Notify(context.WithoutCancel(ctx), event.ID, recipients, template, vars); err != nil {
		logger.WarnContext(ctx, "notification not accepted",
			"event_id", event.ID,
			"template", template,
			"recipients", len(recipients),
			"err", err,
		)
	}
}

func entrantIDs(invs []*domain.Invitation) []string {
	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.EntrantID)
	}
	return ids
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}
