package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

// ReplacementPolicy decides which vacancies trigger an immediate replacement run.
// Vacancies are always recorded; a disabled trigger leaves them for an explicit RunReplacement.
type ReplacementPolicy struct {
	// OnDecline covers invitation declines and entrant withdrawals.
	OnDecline bool
	// OnCancel covers organizer cancellation of an ACTIVE registration.
	OnCancel bool
	// OnBulkCancel covers BulkCancelPending.
	OnBulkCancel bool
}

// DefaultReplacementPolicy refills declines and cancellations automatically and leaves
// bulk-cancelled slots vacant until the organizer asks for a replacement run.
var DefaultReplacementPolicy = ReplacementPolicy{OnDecline: true, OnCancel: true}

type replacementCoordinator struct {
	store    domain.Store
	rng      RandSource
	notifier domain.Notifier
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewReplacementCoordinator creates a ReplacementCoordinator. notifier may be nil.
func NewReplacementCoordinator(store domain.Store, rng RandSource, notifier domain.Notifier, retry RetryPolicy, logger *slog.Logger) domain.ReplacementCoordinator {
	return &replacementCoordinator{
		store:    store,
		rng:      rng,
		notifier: notifier,
		retry:    retry,
		logger:   orDiscard(logger),
	}
}

func (s *replacementCoordinator) RunReplacement(ctx context.Context, eventID string) (*domain.ReplacementResult, error) {
	var (
		event  *domain.Event
		result *domain.ReplacementResult
	)
	err := withRetry(ctx, "replacement", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			ev, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			state, err := tx.LotteryState().Get(ctx, eventID)
			if err != nil {
				return fmt.Errorf("get lottery state: %w", err)
			}

			// Vacancies already refilled some other way (a later initial draw) are not owed again.
			open, err := openSlots(ctx, tx, ev)
			if err != nil {
				return err
			}
			res := &domain.ReplacementResult{EventID: eventID, Needed: min(state.Vacancies, open)}
			if res.Needed <= 0 {
				if state.Vacancies > 0 {
					state.Vacancies = 0
					if err := tx.LotteryState().Save(ctx, state); err != nil {
						return fmt.Errorf("save lottery state: %w", err)
					}
				}
				event, result = ev, res
				return nil
			}

			now := time.Now().UTC()
			draw, err := drawTx(ctx, tx, s.rng, ev, domain.SelectionReplacement, res.Needed, now)
			if err != nil {
				return err
			}
			res.Draw = draw
			res.Filled = len(draw.Selected)
			res.Shortfall = res.Needed - res.Filled

			state.Vacancies = res.Shortfall
			state.LastReplacementAt = &now
			if err := tx.LotteryState().Save(ctx, state); err != nil {
				return fmt.Errorf("save lottery state: %w", err)
			}
			event, result = ev, res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Needed > 0 {
		s.logger.InfoContext(ctx, "replacement draw committed",
			"event_id", eventID,
			"needed", result.Needed,
			"filled", result.Filled,
			"shortfall", result.Shortfall,
		)
	}
	if result.Draw != nil {
		notify(ctx, s.notifier, s.logger, event, result.Draw.SelectedIDs(), domain.TemplateReplacementSelected)
	}
	if result.Shortfall > 0 {
		return result, domain.ErrInsufficientPool
	}
	return result, nil
}

// triggerReplacement runs a replacement after a committed vacancy. The vacating operation has
// already succeeded, so failures here are logged rather than returned.
func triggerReplacement(ctx context.Context, rc domain.ReplacementCoordinator, logger *slog.Logger, eventID, reason string) *domain.ReplacementResult {
	if rc == nil {
		return nil
	}
	res, err := rc.RunReplacement(ctx, eventID)
	switch {
	case errors.Is(err, domain.ErrInsufficientPool):
		logger.InfoContext(ctx, "replacement pool exhausted; event runs under capacity",
			"event_id", eventID, "reason", reason, "shortfall", res.Shortfall)
	case err != nil:
		logger.ErrorContext(ctx, "replacement run failed", "event_id", eventID, "reason", reason, "err", err)
	}
	return res
}
