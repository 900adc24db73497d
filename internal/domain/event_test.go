package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	opens := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		event   *Event
		wantErr bool
	}{
		{name: "valid", event: NewEvent("Gala", 5, opens, opens.Add(time.Hour), opens)},
		{name: "open ended window", event: NewEvent("Gala", 5, time.Time{}, time.Time{}, opens)},
		{name: "blank name", event: NewEvent("  ", 5, time.Time{}, time.Time{}, opens), wantErr: true},
		{name: "zero capacity", event: NewEvent("Gala", 0, time.Time{}, time.Time{}, opens), wantErr: true},
		{name: "closes at opening", event: NewEvent("Gala", 1, opens, opens, opens), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEvent_RegistrationOpen(t *testing.T) {
	opens := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	closes := opens.Add(48 * time.Hour)
	windowed := NewEvent("Gala", 5, opens, closes, opens)
	unbounded := NewEvent("Gala", 5, time.Time{}, time.Time{}, opens)

	assert.False(t, windowed.RegistrationOpen(opens.Add(-time.Second)))
	assert.True(t, windowed.RegistrationOpen(opens))
	assert.True(t, windowed.RegistrationOpen(closes.Add(-time.Second)))
	assert.False(t, windowed.RegistrationOpen(closes), "the window is half-open")
	assert.True(t, unbounded.RegistrationOpen(time.Time{}.Add(time.Hour)))
}

func TestInvitation_Resolve(t *testing.T) {
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	inv := NewInvitation("ev-1", "u1", at)
	require.Equal(t, InvitationPending, inv.Status)
	require.NoError(t, inv.Resolve(InvitationAccepted, at))
	assert.Equal(t, InvitationAccepted, inv.Status)
	require.NotNil(t, inv.RespondedAt)
	assert.Equal(t, at, *inv.RespondedAt)

	err := inv.Resolve(InvitationDeclined, at.Add(time.Minute))
	require.ErrorIs(t, err, ErrInvitationNotPending)
	assert.Equal(t, InvitationAccepted, inv.Status, "a resolved invitation never changes again")

	fresh := NewInvitation("ev-1", "u2", at)
	require.ErrorIs(t, fresh.Resolve(InvitationPending, at), ErrInvalidInput)
	assert.Nil(t, fresh.RespondedAt)
}

func TestParseStatuses(t *testing.T) {
	st, err := ParseInvitationStatus(" cancelled_by_organizer ")
	require.NoError(t, err)
	assert.Equal(t, InvitationCancelledByOrganizer, st)
	_, err = ParseInvitationStatus("EXPIRED")
	require.ErrorIs(t, err, ErrInvalidInput)

	rs, err := ParseRegistrationStatus("active")
	require.NoError(t, err)
	assert.Equal(t, RegistrationActive, rs)
	_, err = ParseRegistrationStatus("CANCELLED")
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.True(t, RegistrationCancelledByEntrant.Cancelled())
	assert.True(t, RegistrationCancelledByOrganizer.Cancelled())
	assert.False(t, RegistrationActive.Cancelled())
}

func TestDecision_Status(t *testing.T) {
	st, err := DecisionAccept.Status()
	require.NoError(t, err)
	assert.Equal(t, InvitationAccepted, st)

	st, err = DecisionDecline.Status()
	require.NoError(t, err)
	assert.Equal(t, InvitationDeclined, st)

	_, err = Decision("MAYBE").Status()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestErrors(t *testing.T) {
	cause := errors.New("could not serialize access")
	transient := &TransientError{Err: cause}
	assert.ErrorIs(t, transient, ErrTransient)
	assert.ErrorIs(t, transient, cause)

	failed := &OperationFailedError{Op: "draw", Err: transient}
	assert.ErrorIs(t, failed, ErrOperationFailed)
	assert.ErrorIs(t, failed, ErrTransient)
	assert.Contains(t, failed.Error(), "draw: operation failed")

	assert.True(t, IsValidation(ErrAlreadyJoined))
	assert.True(t, IsValidation(errors.Join(errors.New("ctx"), ErrCapacityExceeded)))
	assert.False(t, IsValidation(ErrNotFound))
	assert.False(t, IsValidation(transient))
}

func TestIdentity_HasRole(t *testing.T) {
	var nilIdentity *Identity
	assert.False(t, nilIdentity.HasRole(RoleOrganizer))
	assert.False(t, (&Identity{EntrantID: "u1"}).HasRole(RoleOrganizer))
	assert.True(t, (&Identity{EntrantID: "o1", Roles: []string{"staff", RoleOrganizer}}).HasRole(RoleOrganizer))
}

func TestDrawResult_SelectedIDs(t *testing.T) {
	res := &DrawResult{Selected: []*SelectionRecord{{EntrantID: "b"}, {EntrantID: "a"}}}
	assert.Equal(t, []string{"b", "a"}, res.SelectedIDs())
	assert.Empty(t, (&DrawResult{}).SelectedIDs())
}
