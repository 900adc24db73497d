package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

type registrationLedger struct {
	store        domain.Store
	replacements domain.ReplacementCoordinator
	notifier     domain.Notifier
	policy       ReplacementPolicy
	retry        RetryPolicy
	logger       *slog.Logger
}

// NewRegistrationLedger creates a RegistrationLedger. replacements and notifier may be nil.
func NewRegistrationLedger(
	store domain.Store,
	replacements domain.ReplacementCoordinator,
	notifier domain.Notifier,
	policy ReplacementPolicy,
	retry RetryPolicy,
	logger *slog.Logger,
) domain.RegistrationLedger {
	return &registrationLedger{
		store:        store,
		replacements: replacements,
		notifier:     notifier,
		policy:       policy,
		retry:        retry,
		logger:       orDiscard(logger),
	}
}

// upsertRegistrationTx is the only writer of registrations. Moving into ACTIVE is refused with
// ErrCapacityExceeded once the event already holds Capacity ACTIVE registrations.
func upsertRegistrationTx(ctx context.Context, tx domain.Repositories, event *domain.Event, entrantID string, status domain.RegistrationStatus, now time.Time) (*domain.Registration, error) {
	reg, err := tx.Registrations().GetByEventAndEntrant(ctx, event.ID, entrantID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		reg = &domain.Registration{
			EventID:   event.ID,
			EntrantID: entrantID,
			CreatedAt: now,
		}
	case err != nil:
		return nil, fmt.Errorf("get registration: %w", err)
	}

	if reg.Status != status {
		switch {
		case status == domain.RegistrationActive:
			active, err := tx.Registrations().CountByStatus(ctx, event.ID, domain.RegistrationActive)
			if err != nil {
				return nil, fmt.Errorf("count active registrations: %w", err)
			}
			if active >= event.Capacity {
				return nil, domain.ErrCapacityExceeded
			}
			reg.EnrolledAt = &now
			reg.CancelledAt = nil
		case status.Cancelled():
			reg.CancelledAt = &now
		default:
			return nil, fmt.Errorf("%w: unknown registration status %q", domain.ErrInvalidInput, status)
		}
	}
	reg.Status = status
	reg.UpdatedAt = now

	if err := tx.Registrations().Upsert(ctx, reg); err != nil {
		return nil, fmt.Errorf("upsert registration: %w", err)
	}
	return reg, nil
}

func (s *registrationLedger) Upsert(ctx context.Context, eventID, entrantID string, status domain.RegistrationStatus) (*domain.Registration, error) {
	if entrantID == "" {
		return nil, fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	var reg *domain.Registration
	err := withRetry(ctx, "upsert registration", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			event, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			reg, err = upsertRegistrationTx(ctx, tx, event, entrantID, status, time.Now().UTC())
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *registrationLedger) CancelByOrganizer(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	reg, event, err := s.cancelActive(ctx, "cancel registration", eventID, entrantID, domain.RegistrationCancelledByOrganizer)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registration cancelled by organizer", "event_id", eventID, "entrant_id", entrantID)
	notify(ctx, s.notifier, s.logger, event, []string{entrantID}, domain.TemplateRegistrationCancelled)
	if s.policy.OnCancel {
		triggerReplacement(ctx, s.replacements, s.logger, eventID, "organizer_cancel")
	}
	return reg, nil
}

func (s *registrationLedger) Withdraw(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	reg, _, err := s.cancelActive(ctx, "withdraw registration", eventID, entrantID, domain.RegistrationCancelledByEntrant)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registration withdrawn by entrant", "event_id", eventID, "entrant_id", entrantID)
	if s.policy.OnDecline {
		triggerReplacement(ctx, s.replacements, s.logger, eventID, "withdraw")
	}
	return reg, nil
}

// cancelActive moves an ACTIVE registration to status and records the freed slot.
func (s *registrationLedger) cancelActive(ctx context.Context, op, eventID, entrantID string, status domain.RegistrationStatus) (*domain.Registration, *domain.Event, error) {
	var (
		reg   *domain.Registration
		event *domain.Event
	)
	err := withRetry(ctx, op, s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			ev, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			current, err := tx.Registrations().GetByEventAndEntrant(ctx, eventID, entrantID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("get registration: %w", err)
			}
			if current.Status != domain.RegistrationActive {
				return domain.ErrRegistrationNotActive
			}
			updated, err := upsertRegistrationTx(ctx, tx, ev, entrantID, status, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := addVacanciesTx(ctx, tx, eventID, 1); err != nil {
				return err
			}
			reg, event = updated, ev
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, event, nil
}

func (s *registrationLedger) Get(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	var reg *domain.Registration
	err := withRetry(ctx, "get registration", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			var err error
			reg, err = r.Registrations().GetByEventAndEntrant(ctx, eventID, entrantID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *registrationLedger) ListByStatus(ctx context.Context, eventID string, status domain.RegistrationStatus) ([]*domain.Registration, error) {
	return s.list(ctx, eventID, []domain.RegistrationStatus{status})
}

func (s *registrationLedger) ListCancelled(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	return s.list(ctx, eventID, []domain.RegistrationStatus{
		domain.RegistrationCancelledByEntrant,
		domain.RegistrationCancelledByOrganizer,
	})
}

func (s *registrationLedger) list(ctx context.Context, eventID string, statuses []domain.RegistrationStatus) ([]*domain.Registration, error) {
	var regs []*domain.Registration
	err := withRetry(ctx, "list registrations", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			if _, err := getEventTx(ctx, r, eventID); err != nil {
				return err
			}
			var err error
			regs, err = r.Registrations().ListByEventAndStatus(ctx, eventID, statuses)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

func (s *registrationLedger) ListByEntrant(ctx context.Context, entrantID string) ([]*domain.Registration, error) {
	var regs []*domain.Registration
	err := withRetry(ctx, "list registrations", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			var err error
			regs, err = r.Registrations().ListByEntrantID(ctx, entrantID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}
