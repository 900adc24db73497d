package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		event   *domain.Event
		wantErr error
	}{
		{name: "valid", event: &domain.Event{Name: "Spring Gala", Capacity: 20}},
		{name: "valid with window", event: &domain.Event{Name: "Gala", Capacity: 5, RegistrationOpensAt: now, RegistrationClosesAt: now.Add(time.Hour)}},
		{name: "missing name", event: &domain.Event{Name: "  ", Capacity: 20}, wantErr: domain.ErrInvalidInput},
		{name: "zero capacity", event: &domain.Event{Name: "Gala"}, wantErr: domain.ErrInvalidInput},
		{name: "inverted window", event: &domain.Event{Name: "Gala", Capacity: 5, RegistrationOpensAt: now, RegistrationClosesAt: now.Add(-time.Hour)}, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEventService(memory.NewStore(), fastRetry, time.Second)
			err := svc.CreateEvent(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.event.ID)
			assert.False(t, tt.event.CreatedAt.IsZero())

			got, err := svc.GetEvent(ctx, tt.event.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.event.Name, got.Name)
			assert.Equal(t, tt.event.Capacity, got.Capacity)
		})
	}
}

func TestEventService_GetEventNotFound(t *testing.T) {
	svc := NewEventService(memory.NewStore(), fastRetry, time.Second)
	_, err := svc.GetEvent(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Summary(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, ReplacementPolicy{})
	f.join(6)
	_, err := f.engine.Draw(ctx, f.event.ID, domain.SelectionInitial, 3)
	require.NoError(t, err)
	invs := f.pending()
	_, err = f.invitations.Respond(ctx, invs[0].ID, domain.DecisionAccept)
	require.NoError(t, err)
	_, err = f.invitations.Respond(ctx, invs[1].ID, domain.DecisionDecline)
	require.NoError(t, err)
	_, err = f.waitlist.Join(ctx, f.event.ID, "late", nil)
	require.NoError(t, err)

	sum := f.summary()
	assert.Equal(t, f.event.ID, sum.Event.ID)
	assert.Equal(t, 1, sum.Waitlist)
	assert.Equal(t, 3, sum.NotSelected)
	assert.Equal(t, 1, sum.Selected)
	assert.Equal(t, 1, sum.PendingInvitations)
	assert.Equal(t, 1, sum.AcceptedInvitations)
	assert.Equal(t, 1, sum.DeclinedInvitations)
	assert.Equal(t, 0, sum.CancelledInvitations)
	assert.Equal(t, 1, sum.ActiveRegistrations)
	assert.Equal(t, 1, sum.CancelledRegistrations)
	assert.Equal(t, 1, sum.OpenVacancies)
}
