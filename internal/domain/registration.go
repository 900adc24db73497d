package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RegistrationStatus is an entrant's final relationship to an event.
type RegistrationStatus string

const (
	RegistrationActive               RegistrationStatus = "ACTIVE"
	RegistrationCancelledByEntrant   RegistrationStatus = "CANCELLED_BY_ENTRANT"
	RegistrationCancelledByOrganizer RegistrationStatus = "CANCELLED_BY_ORGANIZER"
)

// Cancelled reports whether s is one of the cancelled states.
func (s RegistrationStatus) Cancelled() bool {
	return s == RegistrationCancelledByEntrant || s == RegistrationCancelledByOrganizer
}

// ParseRegistrationStatus parses a status name, case-insensitively.
func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	switch st := RegistrationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RegistrationActive, RegistrationCancelledByEntrant, RegistrationCancelledByOrganizer:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown registration status %q", ErrInvalidInput, s)
}

// Registration is the durable record of an entrant's outcome for an event.
// At most one exists per (event, entrant).
// swagger:model Registration
type Registration struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	EntrantID   string             `json:"entrant_id"`
	Status      RegistrationStatus `json:"status"`
	EnrolledAt  *time.Time         `json:"enrolled_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// Upsert inserts or replaces the registration for (EventID, EntrantID) and sets reg.ID.
	Upsert(ctx context.Context, reg *Registration) error
	GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*Registration, error)
	ListByEventAndStatus(ctx context.Context, eventID string, statuses []RegistrationStatus) ([]*Registration, error)
	ListByEntrantID(ctx context.Context, entrantID string) ([]*Registration, error)
	CountByStatus(ctx context.Context, eventID string, status RegistrationStatus) (int, error)
}

// RegistrationLedger is the authoritative record of final outcomes. It enforces
// count(ACTIVE) <= Event.Capacity on every write.
type RegistrationLedger interface {
	// Upsert records status for the entrant; ErrCapacityExceeded if it would over-admit.
	Upsert(ctx context.Context, eventID, entrantID string, status RegistrationStatus) (*Registration, error)
	// CancelByOrganizer cancels an ACTIVE registration and opens a vacancy.
	CancelByOrganizer(ctx context.Context, eventID, entrantID string) (*Registration, error)
	// Withdraw lets an entrant cancel their own ACTIVE registration and opens a vacancy.
	Withdraw(ctx context.Context, eventID, entrantID string) (*Registration, error)
	Get(ctx context.Context, eventID, entrantID string) (*Registration, error)
	ListByStatus(ctx context.Context, eventID string, status RegistrationStatus) ([]*Registration, error)
	ListCancelled(ctx context.Context, eventID string) ([]*Registration, error)
	ListByEntrant(ctx context.Context, entrantID string) ([]*Registration, error)
}
