package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// newRequest builds a request carrying the caller's identity and path values.
func newRequest(t *testing.T, method, target string, body any, caller *domain.Identity, pathValues map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if caller != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), caller))
	}
	return req
}

// decodeEnvelope decodes the response envelope, unmarshalling data into out when given.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, out any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if out != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Error
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr  error
	getErr     error
	summaryErr error
	event      *domain.Event
	summary    *domain.EventSummary
	lastCreate *domain.Event
	lastID     string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastCreate = event
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-1"
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	f.lastID = eventID
	return f.event, f.getErr
}

func (f *fakeEventService) Summary(ctx context.Context, eventID string) (*domain.EventSummary, error) {
	f.lastID = eventID
	return f.summary, f.summaryErr
}

// fakeWaitlist implements domain.WaitlistStore.
type fakeWaitlist struct {
	joinErr   error
	leaveErr  error
	entries   []*domain.WaitlistEntry
	lastEvent string
	lastJoin  string
	lastGeo   json.RawMessage
}

func (f *fakeWaitlist) Join(ctx context.Context, eventID, entrantID string, geolocation json.RawMessage) (*domain.WaitlistEntry, error) {
	f.lastEvent, f.lastJoin, f.lastGeo = eventID, entrantID, geolocation
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return &domain.WaitlistEntry{EventID: eventID, EntrantID: entrantID, Geolocation: geolocation}, nil
}

func (f *fakeWaitlist) Leave(ctx context.Context, eventID, entrantID string) error {
	f.lastEvent = eventID
	return f.leaveErr
}

func (f *fakeWaitlist) Count(ctx context.Context, eventID string) (int, error) {
	return len(f.entries), nil
}

func (f *fakeWaitlist) List(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	f.lastEvent = eventID
	return f.entries, nil
}

// fakeEngine implements domain.LotteryEngine.
type fakeEngine struct {
	result     *domain.DrawResult
	err        error
	lastSource domain.SelectionSource
	lastCount  int
}

func (f *fakeEngine) Draw(ctx context.Context, eventID string, source domain.SelectionSource, targetCount int) (*domain.DrawResult, error) {
	f.lastSource, f.lastCount = source, targetCount
	return f.result, f.err
}

// fakeReplacements implements domain.ReplacementCoordinator.
type fakeReplacements struct {
	result *domain.ReplacementResult
	err    error
}

func (f *fakeReplacements) RunReplacement(ctx context.Context, eventID string) (*domain.ReplacementResult, error) {
	return f.result, f.err
}

// fakeInvitations implements domain.InvitationManager.
type fakeInvitations struct {
	byID          map[string]*domain.Invitation
	respondErr    error
	bulk          *domain.BulkCancelResult
	bulkErr       error
	list          []*domain.Invitation
	lastStatuses  []domain.InvitationStatus
	lastDecision  domain.Decision
	respondCalled bool
}

func (f *fakeInvitations) Invite(ctx context.Context, eventID, entrantID string) (*domain.Invitation, bool, error) {
	return nil, false, domain.ErrInvalidInput
}

func (f *fakeInvitations) Respond(ctx context.Context, invitationID string, decision domain.Decision) (*domain.Invitation, error) {
	f.respondCalled = true
	f.lastDecision = decision
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	inv := *f.byID[invitationID]
	inv.Status, _ = decision.Status()
	return &inv, nil
}

func (f *fakeInvitations) BulkCancelPending(ctx context.Context, eventID string) (*domain.BulkCancelResult, error) {
	return f.bulk, f.bulkErr
}

func (f *fakeInvitations) Get(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	inv, ok := f.byID[invitationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvitations) ListByEvent(ctx context.Context, eventID string, statuses []domain.InvitationStatus) ([]*domain.Invitation, error) {
	f.lastStatuses = statuses
	return f.list, nil
}

func (f *fakeInvitations) ListByEntrant(ctx context.Context, entrantID string) ([]*domain.Invitation, error) {
	return f.list, nil
}

// fakeLedger implements domain.RegistrationLedger.
type fakeLedger struct {
	regs          []*domain.Registration
	err           error
	lastStatus    domain.RegistrationStatus
	listCancelled bool
	lastEntrant   string
}

func (f *fakeLedger) Upsert(ctx context.Context, eventID, entrantID string, status domain.RegistrationStatus) (*domain.Registration, error) {
	return nil, domain.ErrInvalidInput
}

func (f *fakeLedger) CancelByOrganizer(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	f.lastEntrant = entrantID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{EventID: eventID, EntrantID: entrantID, Status: domain.RegistrationCancelledByOrganizer}, nil
}

func (f *fakeLedger) Withdraw(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	f.lastEntrant = entrantID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{EventID: eventID, EntrantID: entrantID, Status: domain.RegistrationCancelledByEntrant}, nil
}

func (f *fakeLedger) Get(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeLedger) ListByStatus(ctx context.Context, eventID string, status domain.RegistrationStatus) ([]*domain.Registration, error) {
	f.lastStatus = status
	return f.regs, f.err
}

func (f *fakeLedger) ListCancelled(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	f.listCancelled = true
	return f.regs, f.err
}

func (f *fakeLedger) ListByEntrant(ctx context.Context, entrantID string) ([]*domain.Registration, error) {
	f.lastEntrant = entrantID
	return f.regs, f.err
}
