package domain

import (
	"context"
	"time"
)

// SelectionSource records which draw produced a SelectionRecord. It also names the pool a draw reads:
// initial draws take from the waitlist, replacement draws from the not-selected pool.
type SelectionSource string

const (
	SelectionInitial     SelectionSource = "initial"
	SelectionReplacement SelectionSource = "replacement"
)

// Valid reports whether s is a known source.
func (s SelectionSource) Valid() bool {
	return s == SelectionInitial || s == SelectionReplacement
}

// SelectionRecord ("chosen") lives from draw time until the entrant's invitation resolves.
// swagger:model SelectionRecord
type SelectionRecord struct {
	EventID    string          `json:"event_id"`
	EntrantID  string          `json:"entrant_id"`
	SelectedAt time.Time       `json:"selected_at"`
	Source     SelectionSource `json:"source"`
}

// SelectionRepository defines storage operations for selection records.
// Create reports false when a record for the entrant already existed.
type SelectionRepository interface {
	Create(ctx context.Context, sel *SelectionRecord) (bool, error)
	Exists(ctx context.Context, eventID, entrantID string) (bool, error)
	Delete(ctx context.Context, eventID, entrantID string) (bool, error)
	DeleteByEventID(ctx context.Context, eventID string) (int, error)
	ListByEventID(ctx context.Context, eventID string) ([]*SelectionRecord, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// DrawResult is everything one draw committed.
// swagger:model DrawResult
type DrawResult struct {
	EventID     string             `json:"event_id"`
	Source      SelectionSource    `json:"source"`
	Requested   int                `json:"requested"`
	Selected    []*SelectionRecord `json:"selected"`
	NotSelected []string           `json:"not_selected"`
	Invitations []*Invitation      `json:"invitations"`
}

// SelectedIDs returns the entrant ids drawn, in draw order.
func (r *DrawResult) SelectedIDs() []string {
	ids := make([]string, 0, len(r.Selected))
	for _, s := range r.Selected {
		ids = append(ids, s.EntrantID)
	}
	return ids
}

// LotteryState tracks per-event draw bookkeeping. Vacancies counts slots vacated
// (declines, cancellations) that no replacement run has filled yet.
// swagger:model LotteryState
type LotteryState struct {
	EventID           string     `json:"event_id"`
	Vacancies         int        `json:"vacancies"`
	InitialDrawAt     *time.Time `json:"initial_draw_at,omitempty"`
	LastReplacementAt *time.Time `json:"last_replacement_at,omitempty"`
}

// LotteryStateRepository defines storage for LotteryState. Get returns a zero state for events
// that have none yet.
type LotteryStateRepository interface {
	Get(ctx context.Context, eventID string) (*LotteryState, error)
	Save(ctx context.Context, state *LotteryState) error
}

// LotteryEngine performs unbiased, capacity-bounded draws.
type LotteryEngine interface {
	// Draw selects up to targetCount entrants from the pool named by source, migrates them to
	// selection records and issues their invitations, all as one atomic unit. Initial draws also
	// move every entrant not drawn into the not-selected pool. targetCount <= 0 is a no-op.
	Draw(ctx context.Context, eventID string, source SelectionSource, targetCount int) (*DrawResult, error)
}

// ReplacementResult reports one replacement run.
// swagger:model ReplacementResult
type ReplacementResult struct {
	EventID   string      `json:"event_id"`
	Needed    int         `json:"needed"`
	Filled    int         `json:"filled"`
	Shortfall int         `json:"shortfall"`
	Draw      *DrawResult `json:"draw"`
}

// ReplacementCoordinator refills vacated slots from the not-selected pool.
type ReplacementCoordinator interface {
	// RunReplacement draws one entrant per open vacancy. When the pool cannot cover every vacancy
	// the partial result is returned together with ErrInsufficientPool.
	RunReplacement(ctx context.Context, eventID string) (*ReplacementResult, error)
}
