package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventlottery/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	firstSeen := now.Add(-24 * time.Hour)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO registrations .* ON CONFLICT \(event_id, entrant_id\) DO UPDATE`).
		WithArgs("ev-1", "u1", "ACTIVE", now, nil, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("reg-1", firstSeen))

	reg := &domain.Registration{
		EventID:    "ev-1",
		EntrantID:  "u1",
		Status:     domain.RegistrationActive,
		EnrolledAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, NewRegistrationRepository(db).Upsert(ctx, reg))
	require.Equal(t, "reg-1", reg.ID)
	require.Equal(t, firstSeen, reg.CreatedAt, "created_at of the existing row wins")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_GetByEventAndEntrant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "event_id", "entrant_id", "status", "enrolled_at", "cancelled_at", "created_at", "updated_at"}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Registration
		wantErr error
	}{
		{
			name: "cancelled registration",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM registrations WHERE event_id = \$1 AND entrant_id = \$2`).
					WithArgs("ev-1", "u1").
					WillReturnRows(sqlmock.NewRows(columns).AddRow("reg-1", "ev-1", "u1", "CANCELLED_BY_ORGANIZER", now, now, now, now))
			},
			want: &domain.Registration{
				ID: "reg-1", EventID: "ev-1", EntrantID: "u1",
				Status:     domain.RegistrationCancelledByOrganizer,
				EnrolledAt: &now, CancelledAt: &now, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM registrations`).
					WithArgs("ev-1", "u1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewRegistrationRepository(db).GetByEventAndEntrant(ctx, "ev-1", "u1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_ListByEntrantIDEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM registrations\s+WHERE entrant_id = \$1`).
		WithArgs("u9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "entrant_id", "status", "enrolled_at", "cancelled_at", "created_at", "updated_at"}))

	got, err := NewRegistrationRepository(db).ListByEntrantID(context.Background(), "u9")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestLotteryStateRepository(t *testing.T) {
	ctx := context.Background()
	drawn := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT vacancies, initial_draw_at, last_replacement_at\s+FROM lottery_state`).
		WithArgs("ev-new").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT vacancies, initial_draw_at, last_replacement_at`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"vacancies", "initial_draw_at", "last_replacement_at"}).AddRow(2, drawn, nil))
	mock.ExpectExec(`INSERT INTO lottery_state .* ON CONFLICT \(event_id\) DO UPDATE`).
		WithArgs("ev-1", 1, drawn, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewLotteryStateRepository(db)
	fresh, err := repo.Get(ctx, "ev-new")
	require.NoError(t, err)
	require.Equal(t, &domain.LotteryState{EventID: "ev-new"}, fresh)

	st, err := repo.Get(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, 2, st.Vacancies)
	require.Equal(t, &drawn, st.InitialDrawAt)
	require.Nil(t, st.LastReplacementAt)

	st.Vacancies = 1
	require.NoError(t, repo.Save(ctx, st))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Resolve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT entrant_id, name, email, notifications_enabled\s+FROM profiles`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"entrant_id", "name", "email", "notifications_enabled"}).AddRow("u1", "Ada", "ada@example.com", false))
	mock.ExpectQuery(`FROM profiles`).
		WithArgs("u2").
		WillReturnError(sql.ErrNoRows)

	repo := NewProfileRepository(db)
	got, err := repo.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, &domain.DisplayAttributes{EntrantID: "u1", Name: "Ada", Email: "ada@example.com"}, got)

	_, err = repo.Resolve(context.Background(), "u2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
