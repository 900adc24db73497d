package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

type waitlistStore struct {
	store  domain.Store
	retry  RetryPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewWaitlistStore creates the entrant-facing WaitlistStore.
func NewWaitlistStore(store domain.Store, retry RetryPolicy, logger *slog.Logger) domain.WaitlistStore {
	return &waitlistStore{
		store:  store,
		retry:  retry,
		logger: orDiscard(logger),
		now:    time.Now,
	}
}

func (s *waitlistStore) Join(ctx context.Context, eventID, entrantID string, geolocation json.RawMessage) (*domain.WaitlistEntry, error) {
	if entrantID == "" {
		return nil, fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	if len(geolocation) > 0 && !json.Valid(geolocation) {
		return nil, fmt.Errorf("%w: geolocation is not valid JSON", domain.ErrInvalidInput)
	}

	var entry *domain.WaitlistEntry
	err := withRetry(ctx, "join waitlist", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			event, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			if !event.RegistrationOpen(now) {
				return domain.ErrRegistrationClosed
			}
			joined, err := hasLotteryRecord(ctx, tx, eventID, entrantID)
			if err != nil {
				return err
			}
			if joined {
				return domain.ErrAlreadyJoined
			}
			e := domain.NewWaitlistEntry(eventID, entrantID, geolocation, now)
			if err := tx.Waitlist().Create(ctx, e); err != nil {
				if errors.Is(err, domain.ErrAlreadyJoined) {
					return err
				}
				return fmt.Errorf("create waitlist entry: %w", err)
			}
			entry = e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "entrant joined waitlist", "event_id", eventID, "entrant_id", entrantID)
	return entry, nil
}

// hasLotteryRecord reports whether the entrant is anywhere in the event's pipeline already.
func hasLotteryRecord(ctx context.Context, tx domain.Repositories, eventID, entrantID string) (bool, error) {
	_, err := tx.Waitlist().Get(ctx, eventID, entrantID)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("get waitlist entry: %w", err)
	}
	notSelected, err := tx.NotSelected().Exists(ctx, eventID, entrantID)
	if err != nil {
		return false, fmt.Errorf("check not selected: %w", err)
	}
	if notSelected {
		return true, nil
	}
	return alreadyInPipeline(ctx, tx, eventID, entrantID)
}

func (s *waitlistStore) Leave(ctx context.Context, eventID, entrantID string) error {
	if entrantID == "" {
		return fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	var removed bool
	err := withRetry(ctx, "leave waitlist", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			if _, err := getEventTx(ctx, tx, eventID); err != nil {
				return err
			}
			fromWaitlist, err := tx.Waitlist().Delete(ctx, eventID, entrantID)
			if err != nil {
				return fmt.Errorf("remove from waitlist: %w", err)
			}
			fromPool, err := tx.NotSelected().Delete(ctx, eventID, entrantID)
			if err != nil {
				return fmt.Errorf("remove from not selected: %w", err)
			}
			removed = fromWaitlist || fromPool
			return nil
		})
	})
	if err != nil {
		return err
	}
	if removed {
		s.logger.InfoContext(ctx, "entrant left waitlist", "event_id", eventID, "entrant_id", entrantID)
	}
	return nil
}

func (s *waitlistStore) Count(ctx context.Context, eventID string) (int, error) {
	var n int
	err := withRetry(ctx, "count waitlist", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			if _, err := getEventTx(ctx, r, eventID); err != nil {
				return err
			}
			var err error
			n, err = r.Waitlist().CountByEventID(ctx, eventID)
			return err
		})
	})
	return n, err
}

func (s *waitlistStore) List(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	var entries []*domain.WaitlistEntry
	err := withRetry(ctx, "list waitlist", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			if _, err := getEventTx(ctx, r, eventID); err != nil {
				return err
			}
			var err error
			entries, err = r.Waitlist().ListByEventID(ctx, eventID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.WaitlistEntry{}
	}
	return entries, nil
}
