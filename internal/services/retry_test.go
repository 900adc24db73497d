package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	transient := &domain.TransientError{Err: errors.New("deadlock detected")}

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "recovers within budget", failures: 2, failWith: transient, wantCalls: 3},
		{name: "budget spent", failures: 5, failWith: transient, wantCalls: 3, wantErr: domain.ErrOperationFailed},
		{name: "validation is not retried", failures: 5, failWith: domain.ErrCapacityExceeded, wantCalls: 1, wantErr: domain.ErrCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := withRetry(ctx, "test op", fastRetry, func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			require.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ExhaustionKeepsCause(t *testing.T) {
	cause := &domain.TransientError{Err: errors.New("connection reset")}
	err := withRetry(context.Background(), "draw", fastRetry, func(ctx context.Context) error {
		return cause
	})

	var failed *domain.OperationFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "draw", failed.Op)
	require.ErrorIs(t, err, domain.ErrTransient)
	require.False(t, domain.IsValidation(err))
}

func TestDraw_RetriesTransientStoreFailures(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.NewStore()}
	f := newFixtureWithStore(t, store, 3, DefaultReplacementPolicy)
	f.join(5)

	store.failNext(2)
	res, err := f.engine.Draw(ctx, f.event.ID, domain.SelectionInitial, 3)
	require.NoError(t, err)
	require.Len(t, res.Selected, 3)
	require.Equal(t, 3, store.callCount())
	require.Len(t, f.pending(), 3)

	store.failNext(10)
	_, err = f.invitations.Respond(ctx, f.pending()[0].ID, domain.DecisionAccept)
	require.ErrorIs(t, err, domain.ErrOperationFailed)
	require.Len(t, f.pending(), 3, "failed unit of work left no trace")

	store.failNext(0)
	f.requireInvariants()
}
