package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

type lotteryEngine struct {
	store    domain.Store
	rng      RandSource
	notifier domain.Notifier
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewLotteryEngine creates a LotteryEngine drawing with rng. notifier may be nil.
func NewLotteryEngine(store domain.Store, rng RandSource, notifier domain.Notifier, retry RetryPolicy, logger *slog.Logger) domain.LotteryEngine {
	return &lotteryEngine{
		store:    store,
		rng:      rng,
		notifier: notifier,
		retry:    retry,
		logger:   orDiscard(logger),
	}
}

func (s *lotteryEngine) Draw(ctx context.Context, eventID string, source domain.SelectionSource, targetCount int) (*domain.DrawResult, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown draw source %q", domain.ErrInvalidInput, source)
	}
	if targetCount <= 0 {
		return &domain.DrawResult{
			EventID:     eventID,
			Source:      source,
			Requested:   targetCount,
			Selected:    []*domain.SelectionRecord{},
			NotSelected: []string{},
			Invitations: []*domain.Invitation{},
		}, nil
	}

	var (
		event  *domain.Event
		result *domain.DrawResult
	)
	err := withRetry(ctx, "draw", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			ev, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			res, err := drawTx(ctx, tx, s.rng, ev, source, targetCount, now)
			if err != nil {
				return err
			}

			state, err := tx.LotteryState().Get(ctx, eventID)
			if err != nil {
				return fmt.Errorf("get lottery state: %w", err)
			}
			if source == domain.SelectionInitial && state.InitialDrawAt == nil {
				state.InitialDrawAt = &now
			}
			if source == domain.SelectionReplacement {
				state.LastReplacementAt = &now
				state.Vacancies -= len(res.Selected)
				if state.Vacancies < 0 {
					state.Vacancies = 0
				}
			}
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

	s.logger.InfoContext(ctx, "lottery draw committed",
		"event_id", eventID,
		"source", source,
		"requested", targetCount,
		"selected", len(result.Selected),
		"not_selected", len(result.NotSelected),
	)

	selectedTemplate := domain.TemplateLotterySelected
	if source == domain.SelectionReplacement {
		selectedTemplate = domain.TemplateReplacementSelected
	}
	notify(ctx, s.notifier, s.logger, event, result.SelectedIDs(), selectedTemplate)
	notify(ctx, s.notifier, s.logger, event, result.NotSelected, domain.TemplateLotteryNotSelected)
	return result, nil
}
