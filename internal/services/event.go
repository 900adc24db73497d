package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
)

type eventService struct {
	store          domain.Store
	retry          RetryPolicy
	contextTimeout time.Duration
}

func NewEventService(store domain.Store, retry RetryPolicy, timeout time.Duration) domain.EventService {
	return &eventService{
		store:          store,
		retry:          retry,
		contextTimeout: timeout,
	}
}

func (s *eventService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.contextTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.contextTimeout)
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := event.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	return withRetry(ctx, "create event", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, event.ID, func(ctx context.Context, tx domain.Repositories) error {
			if err := tx.Events().Create(ctx, event); err != nil {
				return fmt.Errorf("create event: %w", err)
			}
			return nil
		})
	})
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var event *domain.Event
	err := withRetry(ctx, "get event", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			var err error
			event, err = getEventTx(ctx, r, eventID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Summary counts every stage of the event's pipeline from one consistent snapshot.
func (s *eventService) Summary(ctx context.Context, eventID string) (*domain.EventSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var sum *domain.EventSummary
	err := withRetry(ctx, "event summary", s.retry, func(ctx context.Context) error {
		// WithinEvent rather than View so the counts cannot straddle a draw.
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			event, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			out := &domain.EventSummary{Event: event}
			counters := []struct {
				dst *int
				fn  func() (int, error)
			}{
				{&out.Waitlist, func() (int, error) { return tx.Waitlist().CountByEventID(ctx, eventID) }},
				{&out.NotSelected, func() (int, error) { return tx.NotSelected().CountByEventID(ctx, eventID) }},
				{&out.Selected, func() (int, error) { return tx.Selections().CountByEventID(ctx, eventID) }},
				{&out.PendingInvitations, func() (int, error) {
					return tx.Invitations().CountByStatus(ctx, eventID, domain.InvitationPending)
				}},
				{&out.AcceptedInvitations, func() (int, error) {
					return tx.Invitations().CountByStatus(ctx, eventID, domain.InvitationAccepted)
				}},
				{&out.DeclinedInvitations, func() (int, error) {
					return tx.Invitations().CountByStatus(ctx, eventID, domain.InvitationDeclined)
				}},
				{&out.CancelledInvitations, func() (int, error) {
					return tx.Invitations().CountByStatus(ctx, eventID, domain.InvitationCancelledByOrganizer)
				}},
				{&out.ActiveRegistrations, func() (int, error) {
					return tx.Registrations().CountByStatus(ctx, eventID, domain.RegistrationActive)
				}},
			}
			for _, c := range counters {
				n, err := c.fn()
				if err != nil {
					return fmt.Errorf("summary counts: %w", err)
				}
				*c.dst = n
			}
			for _, st := range []domain.RegistrationStatus{domain.RegistrationCancelledByEntrant, domain.RegistrationCancelledByOrganizer} {
				n, err := tx.Registrations().CountByStatus(ctx, eventID, st)
				if err != nil {
					return fmt.Errorf("summary counts: %w", err)
				}
				out.CancelledRegistrations += n
			}
			state, err := tx.LotteryState().Get(ctx, eventID)
			if err != nil {
				return fmt.Errorf("get lottery state: %w", err)
			}
			out.OpenVacancies = state.Vacancies
			sum = out
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
