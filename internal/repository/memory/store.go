// Package memory is an in-process domain.Store. Every event's records live in one partition that
// is replaced wholesale when a unit of work commits, so readers always see a committed snapshot.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"eventlottery/internal/domain"
)

var errReadOnly = errors.New("memory: write attempted in a read-only view")

// Store implements domain.Store in memory. The zero value is not usable; call NewStore.
type Store struct {
	mu       sync.RWMutex
	parts    map[string]*partition
	locks    map[string]*eventLock
	profiles map[string]domain.DisplayAttributes
}

func NewStore() *Store {
	return &Store{
		parts:    make(map[string]*partition),
		locks:    make(map[string]*eventLock),
		profiles: make(map[string]domain.DisplayAttributes),
	}
}

type partition struct {
	event         *domain.Event
	waitlist      map[string]domain.WaitlistEntry
	notSelected   map[string]domain.NotSelectedRecord
	selections    map[string]domain.SelectionRecord
	invitations   map[string]domain.Invitation   // by invitation id
	registrations map[string]domain.Registration // by entrant id
	state         domain.LotteryState
}

func newPartition(eventID string) *partition {
	return &partition{
		waitlist:      make(map[string]domain.WaitlistEntry),
		notSelected:   make(map[string]domain.NotSelectedRecord),
		selections:    make(map[string]domain.SelectionRecord),
		invitations:   make(map[string]domain.Invitation),
		registrations: make(map[string]domain.Registration),
		state:         domain.LotteryState{EventID: eventID},
	}
}

// clone returns a copy whose maps can be written without affecting p. Stored records are
// values and are never modified in place.
func (p *partition) clone() *partition {
	c := &partition{
		waitlist:      maps.Clone(p.waitlist),
		notSelected:   maps.Clone(p.notSelected),
		selections:    maps.Clone(p.selections),
		invitations:   maps.Clone(p.invitations),
		registrations: maps.Clone(p.registrations),
		state:         copyState(p.state),
	}
	if p.event != nil {
		ev := *p.event
		c.event = &ev
	}
	return c
}

// eventLock serializes units of work for one event. refs counts holders and waiters and is
// guarded by Store.mu.
type eventLock struct {
	sync.Mutex
	refs int
}

func (s *Store) lockEvent(eventID string) *eventLock {
	s.mu.Lock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &eventLock{}
		s.locks[eventID] = l
	}
	l.refs++
	s.mu.Unlock()
	l.Lock()
	return l
}

// unlockEvent releases l and forgets it once nobody waits on it and the event was never created.
func (s *Store) unlockEvent(eventID string, l *eventLock) {
	l.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if _, ok := s.parts[eventID]; !ok && l.refs == 0 {
		delete(s.locks, eventID)
	}
}

// WithinEvent runs fn against a private copy of the event's partition and publishes the copy
// only if fn returns nil.
func (s *Store) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.Repositories) error) error {
	if eventID == "" {
		return fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockEvent(eventID)
	defer s.unlockEvent(eventID, lock)

	s.mu.RLock()
	live, ok := s.parts[eventID]
	s.mu.RUnlock()
	var work *partition
	if ok {
		work = live.clone()
	} else {
		work = newPartition(eventID)
	}

	tx := &repos{scope: eventID, parts: map[string]*partition{eventID: work}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if work.event == nil {
		// Nothing can be recorded against an event that does not exist.
		return nil
	}
	s.mu.Lock()
	s.parts[eventID] = work
	s.mu.Unlock()
	return nil
}

// View runs fn against the committed state at the moment View was called.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snap := maps.Clone(s.parts)
	s.mu.RUnlock()
	return fn(ctx, &repos{parts: snap, readOnly: true})
}

func (s *Store) Profiles() domain.ProfileStore {
	return profileDirectory{s: s}
}

// PutProfile seeds the profile directory.
func (s *Store) PutProfile(attrs domain.DisplayAttributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[attrs.EntrantID] = attrs
}

type profileDirectory struct {
	s *Store
}

func (d profileDirectory) Resolve(ctx context.Context, entrantID string) (*domain.DisplayAttributes, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	attrs, ok := d.s.profiles[entrantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &attrs, nil
}

func (d profileDirectory) Upsert(ctx context.Context, attrs *domain.DisplayAttributes) error {
	if attrs.EntrantID == "" {
		return fmt.Errorf("%w: entrant id is required", domain.ErrInvalidInput)
	}
	d.s.PutProfile(*attrs)
	return nil
}

// repos is both the transactional and the read-only view of the store. A transactional repos is
// scoped to a single event and refuses to touch any other.
type repos struct {
	scope    string
	parts    map[string]*partition
	readOnly bool
}

func (r *repos) Events() domain.EventRepository { return eventRepo{r} }
func (r *repos) Waitlist() domain.WaitlistRepository { return waitlistRepo{r} }
func (r *repos) NotSelected() domain.NotSelectedRepository { return notSelectedRepo{r} }
func (r *repos) Selections() domain.SelectionRepository { return selectionRepo{r} }
func (r *repos) Invitations() domain.InvitationRepository { return invitationRepo{r} }
func (r *repos) Registrations() domain.RegistrationRepository { return registrationRepo{r} }
func (r *repos) LotteryState() domain.LotteryStateRepository { return lotteryStateRepo{r} }

// read returns the partition for eventID, or nil when nothing is stored for it.
func (r *repos) read(eventID string) (*partition, error) {
	if r.scope != "" && eventID != r.scope {
		return nil, fmt.Errorf("memory: event %s is outside the unit of work for %s", eventID, r.scope)
	}
	return r.parts[eventID], nil
}

func (r *repos) write(eventID string) (*partition, error) {
	if r.readOnly {
		return nil, errReadOnly
	}
	return r.read(eventID)
}

// all returns the partitions visible to r.
func (r *repos) all() []*partition {
	out := make([]*partition, 0, len(r.parts))
	for _, p := range r.parts {
		out = append(out, p)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyState(st domain.LotteryState) domain.LotteryState {
	st.InitialDrawAt = clonePtr(st.InitialDrawAt)
	st.LastReplacementAt = clonePtr(st.LastReplacementAt)
	return st
}
