package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// InvitationStatus is the state of an invitation. PENDING is the only non-terminal state.
type InvitationStatus string

const (
	InvitationPending              InvitationStatus = "PENDING"
	InvitationAccepted             InvitationStatus = "ACCEPTED"
	InvitationDeclined             InvitationStatus = "DECLINED"
	InvitationCancelledByOrganizer InvitationStatus = "CANCELLED_BY_ORGANIZER"
)

// Terminal reports whether no further transition is allowed out of s.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

// ParseInvitationStatus parses a status name, case-insensitively.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case InvitationPending, InvitationAccepted, InvitationDeclined, InvitationCancelledByOrganizer:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown invitation status %q", ErrInvalidInput, s)
}

// Decision is an entrant's answer to an invitation.
type Decision string

const (
	DecisionAccept  Decision = "ACCEPT"
	DecisionDecline Decision = "DECLINE"
)

// Status returns the invitation status a decision resolves to.
func (d Decision) Status() (InvitationStatus, error) {
	switch d {
	case DecisionAccept:
		return InvitationAccepted, nil
	case DecisionDecline:
		return InvitationDeclined, nil
	}
	return "", fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, string(d))
}

// Invitation offers a selected entrant a slot pending confirmation.
// swagger:model Invitation
type Invitation struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	EntrantID   string           `json:"entrant_id"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// NewInvitation creates a PENDING invitation. ID is typically set by the repository on create.
func NewInvitation(eventID, entrantID string, createdAt time.Time) *Invitation {
	return &Invitation{
		EventID:   eventID,
		EntrantID: entrantID,
		Status:    InvitationPending,
		CreatedAt: createdAt,
	}
}

// Resolve moves a PENDING invitation to a terminal status.
func (inv *Invitation) Resolve(status InvitationStatus, at time.Time) error {
	if inv.Status != InvitationPending {
		return ErrInvitationNotPending
	}
	if !status.Terminal() {
		return fmt.Errorf("%w: cannot resolve to %s", ErrInvalidInput, status)
	}
	inv.Status = status
	inv.RespondedAt = &at
	return nil
}

// InvitationRepository defines storage operations for invitations.
// At most one invitation exists per (event, entrant).
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*Invitation, error)
	UpdateStatus(ctx context.Context, inv *Invitation) error
	// ListByEventID returns the event's invitations; an empty statuses slice means all statuses.
	ListByEventID(ctx context.Context, eventID string, statuses []InvitationStatus) ([]*Invitation, error)
	ListByEntrantID(ctx context.Context, entrantID string) ([]*Invitation, error)
	CountByStatus(ctx context.Context, eventID string, status InvitationStatus) (int, error)
}

// BulkCancelResult reports a BulkCancelPending call.
// swagger:model BulkCancelResult
type BulkCancelResult struct {
	EventID           string             `json:"event_id"`
	Cancelled         []*Invitation      `json:"cancelled"`
	SelectionsCleared int                `json:"selections_cleared"`
	Replacement       *ReplacementResult `json:"replacement,omitempty"`
}

// InvitationManager issues invitations and processes responses to them.
type InvitationManager interface {
	// Invite creates a PENDING invitation for a selected entrant. Returns (inv, created, err):
	// created is false when an invitation for the entrant already existed.
	Invite(ctx context.Context, eventID, entrantID string) (*Invitation, bool, error)
	// Respond resolves a PENDING invitation; ErrInvitationNotPending otherwise.
	Respond(ctx context.Context, invitationID string, decision Decision) (*Invitation, error)
	// BulkCancelPending voids every PENDING invitation for the event.
	BulkCancelPending(ctx context.Context, eventID string) (*BulkCancelResult, error)
	Get(ctx context.Context, invitationID string) (*Invitation, error)
	ListByEvent(ctx context.Context, eventID string, statuses []InvitationStatus) ([]*Invitation, error)
	ListByEntrant(ctx context.Context, entrantID string) ([]*Invitation, error)
}
