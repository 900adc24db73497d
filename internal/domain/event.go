package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Event is the capacity-constrained resource entrants compete for.
// A zero RegistrationOpensAt or RegistrationClosesAt leaves that side of the window unbounded.
// swagger:model Event
type Event struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Capacity             int       `json:"capacity"`
	RegistrationOpensAt  time.Time `json:"registration_opens_at"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name string, capacity int, opensAt, closesAt, createdAt time.Time) *Event {
	return &Event{
		Name:                 name,
		Capacity:             capacity,
		RegistrationOpensAt:  opensAt,
		RegistrationClosesAt: closesAt,
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
}

// Validate checks the fields an organizer supplies when creating an event.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if e.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	if !e.RegistrationOpensAt.IsZero() && !e.RegistrationClosesAt.IsZero() &&
		!e.RegistrationClosesAt.After(e.RegistrationOpensAt) {
		return fmt.Errorf("%w: registration window closes before it opens", ErrInvalidInput)
	}
	return nil
}

// RegistrationOpen reports whether now falls inside the registration window.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if !e.RegistrationOpensAt.IsZero() && now.Before(e.RegistrationOpensAt) {
		return false
	}
	if !e.RegistrationClosesAt.IsZero() && !now.Before(e.RegistrationClosesAt) {
		return false
	}
	return true
}

// EventSummary is a point-in-time view of an event's lottery pipeline.
// swagger:model EventSummary
type EventSummary struct {
	Event                  *Event `json:"event"`
	Waitlist               int    `json:"waitlist"`
	NotSelected            int    `json:"not_selected"`
	Selected               int    `json:"selected"`
	PendingInvitations     int    `json:"pending_invitations"`
	AcceptedInvitations    int    `json:"accepted_invitations"`
	DeclinedInvitations    int    `json:"declined_invitations"`
	CancelledInvitations   int    `json:"cancelled_invitations"`
	ActiveRegistrations    int    `json:"active_registrations"`
	CancelledRegistrations int    `json:"cancelled_registrations"`
	OpenVacancies          int    `json:"open_vacancies"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	Summary(ctx context.Context, eventID string) (*EventSummary, error)
}
