package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"eventlottery/internal/domain"
)

// RandSource is the randomness a draw consumes. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandSource returns a RandSource safe for concurrent draws. A zero seed seeds from the clock;
// any other seed makes draws reproducible.
func NewRandSource(seed uint64) RandSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// selectEntrants picks min(k, |pool|) distinct ids uniformly at random without replacement,
// using a Fisher-Yates shuffle stopped after k swaps. Duplicate ids in pool count once.
func selectEntrants(rng RandSource, pool []string, k int) []string {
	seen := make(map[string]struct{}, len(pool))
	ids := make([]string, 0, len(pool))
	for _, id := range pool {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if k > len(ids) {
		k = len(ids)
	}
	if k <= 0 {
		return []string{}
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k]
}

// openSlots is how many more invitations the event can carry: capacity minus ACTIVE
// registrations minus PENDING invitations.
func openSlots(ctx context.Context, tx domain.Repositories, event *domain.Event) (int, error) {
	active, err := tx.Registrations().CountByStatus(ctx, event.ID, domain.RegistrationActive)
	if err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	pending, err := tx.Invitations().CountByStatus(ctx, event.ID, domain.InvitationPending)
	if err != nil {
		return 0, fmt.Errorf("count pending invitations: %w", err)
	}
	open := event.Capacity - active - pending
	if open < 0 {
		open = 0
	}
	return open, nil
}

// alreadyInPipeline reports whether the entrant has been drawn before: a live selection or
// any invitation. Such entrants are never drawn again, which keeps retried draws from duplicating work.
func alreadyInPipeline(ctx context.Context, tx domain.Repositories, eventID, entrantID string) (bool, error) {
	selected, err := tx.Selections().Exists(ctx, eventID, entrantID)
	if err != nil {
		return false, fmt.Errorf("check selection: %w", err)
	}
	if selected {
		return true, nil
	}
	_, err = tx.Invitations().GetByEventAndEntrant(ctx, eventID, entrantID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("check invitation: %w", err)
}

// drawTx runs one draw inside an open unit of work. It reads the pool, selects, migrates the
// drawn entrants to selection records with PENDING invitations and, for initial draws, moves
// the rest to the not-selected pool. Any failure aborts the whole unit.
func drawTx(ctx context.Context, tx domain.Repositories, rng RandSource, event *domain.Event, source domain.SelectionSource, target int, now time.Time) (*domain.DrawResult, error) {
	res := &domain.DrawResult{
		EventID:     event.ID,
		Source:      source,
		Requested:   target,
		Selected:    []*domain.SelectionRecord{},
		NotSelected: []string{},
		Invitations: []*domain.Invitation{},
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown draw source %q", domain.ErrInvalidInput, source)
	}
	if target <= 0 {
		return res, nil
	}

	open, err := openSlots(ctx, tx, event)
	if err != nil {
		return nil, err
	}
	if target > open {
		target = open
	}

	joinedAt := make(map[string]time.Time)
	var candidates []string
	switch source {
	case domain.SelectionInitial:
		entries, err := tx.Waitlist().ListByEventID(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("list waitlist: %w", err)
		}
		for _, e := range entries {
			candidates = append(candidates, e.EntrantID)
			joinedAt[e.EntrantID] = e.JoinedAt
		}
	case domain.SelectionReplacement:
		recs, err := tx.NotSelected().ListByEventID(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("list not selected: %w", err)
		}
		for _, r := range recs {
			candidates = append(candidates, r.EntrantID)
			joinedAt[r.EntrantID] = r.JoinedAt
		}
	}

	pool := make([]string, 0, len(candidates))
	for _, id := range candidates {
		drawn, err := alreadyInPipeline(ctx, tx, event.ID, id)
		if err != nil {
			return nil, err
		}
		if !drawn {
			pool = append(pool, id)
		}
	}

	chosen := selectEntrants(rng, pool, target)
	chosenSet := make(map[string]struct{}, len(chosen))
	for _, id := range chosen {
		chosenSet[id] = struct{}{}
		if err := removeFromPool(ctx, tx, source, event.ID, id); err != nil {
			return nil, err
		}
		sel := &domain.SelectionRecord{
			EventID:    event.ID,
			EntrantID:  id,
			SelectedAt: now,
			Source:     source,
		}
		if _, err := tx.Selections().Create(ctx, sel); err != nil {
			return nil, fmt.Errorf("create selection: %w", err)
		}
		inv, _, err := issueInvitationTx(ctx, tx, event.ID, id, now)
		if err != nil {
			return nil, err
		}
		res.Selected = append(res.Selected, sel)
		res.Invitations = append(res.Invitations, inv)
	}

	if source == domain.SelectionInitial {
		for _, id := range pool {
			if _, ok := chosenSet[id]; ok {
				continue
			}
			if err := removeFromPool(ctx, tx, source, event.ID, id); err != nil {
				return nil, err
			}
			rec := &domain.NotSelectedRecord{
				EventID:    event.ID,
				EntrantID:  id,
				JoinedAt:   joinedAt[id],
				RecordedAt: now,
			}
			if _, err := tx.NotSelected().Create(ctx, rec); err != nil {
				return nil, fmt.Errorf("create not selected: %w", err)
			}
			res.NotSelected = append(res.NotSelected, id)
		}
	}
	return res, nil
}

func removeFromPool(ctx context.Context, tx domain.Repositories, source domain.SelectionSource, eventID, entrantID string) error {
	if source == domain.SelectionInitial {
		if _, err := tx.Waitlist().Delete(ctx, eventID, entrantID); err != nil {
			return fmt.Errorf("remove from waitlist: %w", err)
		}
		return nil
	}
	if _, err := tx.NotSelected().Delete(ctx, eventID, entrantID); err != nil {
		return fmt.Errorf("remove from not selected: %w", err)
	}
	return nil
}

// addVacanciesTx records n newly vacated slots for the next replacement run.
func addVacanciesTx(ctx context.Context, tx domain.Repositories, eventID string, n int) error {
	if n <= 0 {
		return nil
	}
	state, err := tx.LotteryState().Get(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get lottery state: %w", err)
	}
	state.Vacancies += n
	if err := tx.LotteryState().Save(ctx, state); err != nil {
		return fmt.Errorf("save lottery state: %w", err)
	}
	return nil
}

// getEventTx loads the event a unit of work is scoped to.
func getEventTx(ctx context.Context, r domain.Repositories, eventID string) (*domain.Event, error) {
	event, err := r.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
