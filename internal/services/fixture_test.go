package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
)

type notification struct {
	EventID    string
	Recipients []string
	Template   string
	Vars       map[string]string
}

// recordingNotifier captures notifications instead of sending them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, eventID string, recipientIDs []string, template string, vars map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{
		EventID:    eventID,
		Recipients: append([]string(nil), recipientIDs...),
		Template:   template,
		Vars:       vars,
	})
	return nil
}

func (n *recordingNotifier) byTemplate(template string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, s := range n.sent {
		if s.Template == template {
			out = append(out, s)
		}
	}
	return out
}

var fastRetry = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

type fixture struct {
	t            *testing.T
	store        domain.Store
	notifier     *recordingNotifier
	events       domain.EventService
	waitlist     domain.WaitlistStore
	engine       domain.LotteryEngine
	replacements domain.ReplacementCoordinator
	invitations  domain.InvitationManager
	ledger       domain.RegistrationLedger
	event        *domain.Event
}

func newFixtureWithStore(t *testing.T, store domain.Store, capacity int, policy ReplacementPolicy) *fixture {
	t.Helper()
	rng := NewRandSource(42)
	n := &recordingNotifier{}
	rc := NewReplacementCoordinator(store, rng, n, fastRetry, nil)
	f := &fixture{
		t:            t,
		store:        store,
		notifier:     n,
		events:       NewEventService(store, fastRetry, time.Second),
		waitlist:     NewWaitlistStore(store, fastRetry, nil),
		engine:       NewLotteryEngine(store, rng, n, fastRetry, nil),
		replacements: rc,
		invitations:  NewInvitationManager(store, rc, n, policy, fastRetry, nil),
		ledger:       NewRegistrationLedger(store, rc, n, policy, fastRetry, nil),
	}
	f.event = &domain.Event{Name: "Spring Gala", Capacity: capacity}
	require.NoError(t, f.events.CreateEvent(context.Background(), f.event))
	return f
}

func newFixture(t *testing.T, capacity int, policy ReplacementPolicy) *fixture {
	return newFixtureWithStore(t, memory.NewStore(), capacity, policy)
}

// join adds entrants u1..un to the waitlist.
func (f *fixture) join(n int) []string {
	f.t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("u%d", i)
		_, err := f.waitlist.Join(context.Background(), f.event.ID, id, nil)
		require.NoError(f.t, err)
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) summary() *domain.EventSummary {
	f.t.Helper()
	sum, err := f.events.Summary(context.Background(), f.event.ID)
	require.NoError(f.t, err)
	return sum
}

func (f *fixture) pending() []*domain.Invitation {
	f.t.Helper()
	invs, err := f.invitations.ListByEvent(context.Background(), f.event.ID, []domain.InvitationStatus{domain.InvitationPending})
	require.NoError(f.t, err)
	return invs
}

func (f *fixture) notSelected() []string {
	f.t.Helper()
	var ids []string
	err := f.store.View(context.Background(), func(ctx context.Context, r domain.Repositories) error {
		recs, err := r.NotSelected().ListByEventID(ctx, f.event.ID)
		for _, rec := range recs {
			ids = append(ids, rec.EntrantID)
		}
		return err
	})
	require.NoError(f.t, err)
	return ids
}

// requireInvariants checks the properties that must hold after every operation.
func (f *fixture) requireInvariants() {
	f.t.Helper()
	sum := f.summary()
	require.LessOrEqual(f.t, sum.ActiveRegistrations, f.event.Capacity, "active registrations exceed capacity")
	require.LessOrEqual(f.t, sum.ActiveRegistrations+sum.PendingInvitations, f.event.Capacity, "active plus pending exceed capacity")

	all, err := f.invitations.ListByEvent(context.Background(), f.event.ID, nil)
	require.NoError(f.t, err)
	seen := make(map[string]bool)
	for _, inv := range all {
		require.False(f.t, seen[inv.EntrantID], "entrant %s invited twice", inv.EntrantID)
		seen[inv.EntrantID] = true
	}
}

// flakyStore fails the first failures units of work with a transient error.
type flakyStore struct {
	domain.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakyStore) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.Repositories) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return &domain.TransientError{Err: fmt.Errorf("could not serialize access")}
	}
	return s.Store.WithinEvent(ctx, eventID, fn)
}

func (s *flakyStore) failNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.calls = 0
}

func (s *flakyStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var errWriteFailed = errors.New("disk full")

// failingWriteStore fails the failAt-th repository write of every unit of work; failAt 0 only
// counts writes.
type failingWriteStore struct {
	domain.Store
	failAt int
	writes int
}

func (s *failingWriteStore) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.Repositories) error) error {
	return s.Store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.Repositories) error {
		s.writes = 0
		return fn(ctx, &failingRepos{Repositories: tx, store: s})
	})
}

func (s *failingWriteStore) write() error {
	s.writes++
	if s.failAt > 0 && s.writes == s.failAt {
		return errWriteFailed
	}
	return nil
}

type failingRepos struct {
	domain.Repositories
	store *failingWriteStore
}

func (r *failingRepos) Waitlist() domain.WaitlistRepository {
	return failingWaitlist{r.Repositories.Waitlist(), r.store}
}
func (r *failingRepos) NotSelected() domain.NotSelectedRepository {
	return failingNotSelected{r.Repositories.NotSelected(), r.store}
}
func (r *failingRepos) Selections() domain.SelectionRepository {
	return failingSelections{r.Repositories.Selections(), r.store}
}
func (r *failingRepos) Invitations() domain.InvitationRepository {
	return failingInvitations{r.Repositories.Invitations(), r.store}
}
func (r *failingRepos) LotteryState() domain.LotteryStateRepository {
	return failingState{r.Repositories.LotteryState(), r.store}
}

type failingWaitlist struct {
	domain.WaitlistRepository
	s *failingWriteStore
}

func (w failingWaitlist) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	if err := w.s.write(); err != nil {
		return false, err
	}
	return w.WaitlistRepository.Delete(ctx, eventID, entrantID)
}

type failingNotSelected struct {
	domain.NotSelectedRepository
	s *failingWriteStore
}

func (n failingNotSelected) Create(ctx context.Context, rec *domain.NotSelectedRecord) (bool, error) {
	if err := n.s.write(); err != nil {
		return false, err
	}
	return n.NotSelectedRepository.Create(ctx, rec)
}

func (n failingNotSelected) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	if err := n.s.write(); err != nil {
		return false, err
	}
	return n.NotSelectedRepository.Delete(ctx, eventID, entrantID)
}

type failingSelections struct {
	domain.SelectionRepository
	s *failingWriteStore
}

func (sel failingSelections) Create(ctx context.Context, rec *domain.SelectionRecord) (bool, error) {
	if err := sel.s.write(); err != nil {
		return false, err
	}
	return sel.SelectionRepository.Create(ctx, rec)
}

type failingInvitations struct {
	domain.InvitationRepository
	s *failingWriteStore
}

func (i failingInvitations) Create(ctx context.Context, inv *domain.Invitation) error {
	if err := i.s.write(); err != nil {
		return err
	}
	return i.InvitationRepository.Create(ctx, inv)
}

type failingState struct {
	domain.LotteryStateRepository
	s *failingWriteStore
}

func (st failingState) Save(ctx context.Context, state *domain.LotteryState) error {
	if err := st.s.write(); err != nil {
		return err
	}
	return st.LotteryStateRepository.Save(ctx, state)
}
