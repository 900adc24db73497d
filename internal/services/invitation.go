package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

type invitationManager struct {
	store        domain.Store
	replacements domain.ReplacementCoordinator
	notifier     domain.Notifier
	policy       ReplacementPolicy
	retry        RetryPolicy
	logger       *slog.Logger
}

// NewInvitationManager creates an InvitationManager. replacements and notifier may be nil.
func NewInvitationManager(
	store domain.Store,
	replacements domain.ReplacementCoordinator,
	notifier domain.Notifier,
	policy ReplacementPolicy,
	retry RetryPolicy,
	logger *slog.Logger,
) domain.InvitationManager {
	return &invitationManager{
		store:        store,
		replacements: replacements,
		notifier:     notifier,
		policy:       policy,
		retry:        retry,
		logger:       orDiscard(logger),
	}
}

// issueInvitationTx returns the entrant's invitation for the event, creating a PENDING one if
// none exists. created reports whether a new invitation was written.
func issueInvitationTx(ctx context.Context, tx domain.Repositories, eventID, entrantID string, now time.Time) (*domain.Invitation, bool, error) {
	existing, err := tx.Invitations().GetByEventAndEntrant(ctx, eventID, entrantID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("get invitation: %w", err)
	}
	inv := domain.NewInvitation(eventID, entrantID, now)
	if err := tx.Invitations().Create(ctx, inv); err != nil {
		return nil, false, fmt.Errorf("create invitation: %w", err)
	}
	return inv, true, nil
}

func (s *invitationManager) Invite(ctx context.Context, eventID, entrantID string) (*domain.Invitation, bool, error) {
	if entrantID == "" {
		return nil, false, fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	var (
		inv     *domain.Invitation
		created bool
	)
	err := withRetry(ctx, "invite", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			if _, err := getEventTx(ctx, tx, eventID); err != nil {
				return err
			}
			existing, err := tx.Invitations().GetByEventAndEntrant(ctx, eventID, entrantID)
			if err == nil {
				inv, created = existing, false
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("get invitation: %w", err)
			}
			selected, err := tx.Selections().Exists(ctx, eventID, entrantID)
			if err != nil {
				return fmt.Errorf("check selection: %w", err)
			}
			if !selected {
				return fmt.Errorf("%w: entrant %s has no selection for event %s", domain.ErrNotFound, entrantID, eventID)
			}
			inv, created, err = issueInvitationTx(ctx, tx, eventID, entrantID, time.Now().UTC())
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}
	return inv, created, nil
}

func (s *invitationManager) Respond(ctx context.Context, invitationID string, decision domain.Decision) (*domain.Invitation, error) {
	status, err := decision.Status()
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	eventID := current.EventID

	var inv *domain.Invitation
	err = withRetry(ctx, "respond to invitation", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			event, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			locked, err := tx.Invitations().GetByID(ctx, invitationID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("get invitation: %w", err)
			}
			now := time.Now().UTC()
			if err := locked.Resolve(status, now); err != nil {
				return err
			}
			if err := tx.Invitations().UpdateStatus(ctx, locked); err != nil {
				return fmt.Errorf("update invitation: %w", err)
			}

			regStatus := domain.RegistrationActive
			if status == domain.InvitationDeclined {
				regStatus = domain.RegistrationCancelledByEntrant
			}
			if _, err := upsertRegistrationTx(ctx, tx, event, locked.EntrantID, regStatus, now); err != nil {
				return err
			}
			if _, err := tx.Selections().Delete(ctx, eventID, locked.EntrantID); err != nil {
				return fmt.Errorf("delete selection: %w", err)
			}
			if status == domain.InvitationDeclined {
				if err := addVacanciesTx(ctx, tx, eventID, 1); err != nil {
					return err
				}
			}
			inv = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "invitation resolved",
		"event_id", eventID,
		"invitation_id", invitationID,
		"entrant_id", inv.EntrantID,
		"status", inv.Status,
	)
	if inv.Status == domain.InvitationDeclined && s.policy.OnDecline {
		triggerReplacement(ctx, s.replacements, s.logger, eventID, "decline")
	}
	return inv, nil
}

func (s *invitationManager) BulkCancelPending(ctx context.Context, eventID string) (*domain.BulkCancelResult, error) {
	var (
		event  *domain.Event
		result *domain.BulkCancelResult
	)
	err := withRetry(ctx, "bulk cancel pending", s.retry, func(ctx context.Context) error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
			ev, err := getEventTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			pending, err := tx.Invitations().ListByEventID(ctx, eventID, []domain.InvitationStatus{domain.InvitationPending})
			if err != nil {
				return fmt.Errorf("list pending invitations: %w", err)
			}

			now := time.Now().UTC()
			res := &domain.BulkCancelResult{EventID: eventID, Cancelled: []*domain.Invitation{}}
			for _, inv := range pending {
				if err := inv.Resolve(domain.InvitationCancelledByOrganizer, now); err != nil {
					return err
				}
				if err := tx.Invitations().UpdateStatus(ctx, inv); err != nil {
					return fmt.Errorf("update invitation: %w", err)
				}
				// Only a registration written ahead of the response is touched; none is created.
				_, err := tx.Registrations().GetByEventAndEntrant(ctx, eventID, inv.EntrantID)
				switch {
				case err == nil:
					if _, err := upsertRegistrationTx(ctx, tx, ev, inv.EntrantID, domain.RegistrationCancelledByOrganizer, now); err != nil {
						return err
					}
				case !errors.Is(err, domain.ErrNotFound):
					return fmt.Errorf("get registration: %w", err)
				}
				res.Cancelled = append(res.Cancelled, inv)
			}

			cleared, err := tx.Selections().DeleteByEventID(ctx, eventID)
			if err != nil {
				return fmt.Errorf("clear selections: %w", err)
			}
			res.SelectionsCleared = cleared
			if err := addVacanciesTx(ctx, tx, eventID, len(res.Cancelled)); err != nil {
				return err
			}
			event, result = ev, res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pending invitations cancelled",
		"event_id", eventID,
		"cancelled", len(result.Cancelled),
		"selections_cleared", result.SelectionsCleared,
	)
	notify(ctx, s.notifier, s.logger, event, entrantIDs(result.Cancelled), domain.TemplateInvitationCancelled)
	if len(result.Cancelled) > 0 && s.policy.OnBulkCancel {
		result.Replacement = triggerReplacement(ctx, s.replacements, s.logger, eventID, "bulk_cancel")
	}
	return result, nil
}

func (s *invitationManager) Get(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	var inv *domain.Invitation
	err := withRetry(ctx, "get invitation", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			var err error
			inv, err = r.Invitations().GetByID(ctx, invitationID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invitationManager) ListByEvent(ctx context.Context, eventID string, statuses []domain.InvitationStatus) ([]*domain.Invitation, error) {
	var invs []*domain.Invitation
	err := withRetry(ctx, "list invitations", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			if _, err := getEventTx(ctx, r, eventID); err != nil {
				return err
			}
			var err error
			invs, err = r.Invitations().ListByEventID(ctx, eventID, statuses)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}

func (s *invitationManager) ListByEntrant(ctx context.Context, entrantID string) ([]*domain.Invitation, error) {
	var invs []*domain.Invitation
	err := withRetry(ctx, "list invitations", s.retry, func(ctx context.Context) error {
		return s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
			var err error
			invs, err = r.Invitations().ListByEntrantID(ctx, entrantID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}
