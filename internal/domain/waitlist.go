package domain

import (
	"context"
	"encoding/json"
	"time"
)

// WaitlistEntry is one entrant's interest in an event before any draw.
// Geolocation is carried through untouched.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	EventID     string          `json:"event_id"`
	EntrantID   string          `json:"entrant_id"`
	JoinedAt    time.Time       `json:"joined_at"`
	Geolocation json.RawMessage `json:"geolocation,omitempty" swaggertype:"object"`
}

// NewWaitlistEntry creates a WaitlistEntry joined at joinedAt.
func NewWaitlistEntry(eventID, entrantID string, geolocation json.RawMessage, joinedAt time.Time) *WaitlistEntry {
	return &WaitlistEntry{
		EventID:     eventID,
		EntrantID:   entrantID,
		JoinedAt:    joinedAt,
		Geolocation: geolocation,
	}
}

// NotSelectedRecord is an entrant left over after the initial draw filled capacity.
// It is the pool replacement draws are taken from.
// swagger:model NotSelectedRecord
type NotSelectedRecord struct {
	EventID    string    `json:"event_id"`
	EntrantID  string    `json:"entrant_id"`
	JoinedAt   time.Time `json:"joined_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WaitlistRepository defines storage operations for waitlist entries.
// Create returns ErrAlreadyJoined when the entrant already has an entry for the event.
type WaitlistRepository interface {
	Create(ctx context.Context, entry *WaitlistEntry) error
	Get(ctx context.Context, eventID, entrantID string) (*WaitlistEntry, error)
	Delete(ctx context.Context, eventID, entrantID string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// NotSelectedRepository defines storage operations for not-selected records.
// Create reports false when the record already existed.
type NotSelectedRepository interface {
	Create(ctx context.Context, rec *NotSelectedRecord) (bool, error)
	Exists(ctx context.Context, eventID, entrantID string) (bool, error)
	Delete(ctx context.Context, eventID, entrantID string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*NotSelectedRecord, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// WaitlistStore is the entrant-facing membership API for an event's waitlist.
type WaitlistStore interface {
	// Join adds the entrant to the waitlist. Fails with ErrAlreadyJoined if the entrant already
	// has a lottery record for the event and ErrRegistrationClosed outside the registration window.
	Join(ctx context.Context, eventID, entrantID string, geolocation json.RawMessage) (*WaitlistEntry, error)
	// Leave removes the entrant from the waitlist and the not-selected pool. Absent entries are not an error.
	Leave(ctx context.Context, eventID, entrantID string) error
	Count(ctx context.Context, eventID string) (int, error)
	List(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
}
