package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlottery/internal/domain"
)

type lotteryStateRepository struct {
	DB DBTX
}

func NewLotteryStateRepository(db DBTX) domain.LotteryStateRepository {
	return &lotteryStateRepository{DB: db}
}

func (r *lotteryStateRepository) Get(ctx context.Context, eventID string) (*domain.LotteryState, error) {
	query := `
		SELECT vacancies, initial_draw_at, last_replacement_at
		FROM lottery_state
		WHERE event_id = $1
	`
	st := &domain.LotteryState{EventID: eventID}
	var initialAt, replacedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&st.Vacancies, &initialAt, &replacedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, nil
		}
		return nil, err
	}
	st.InitialDrawAt = timePtr(initialAt)
	st.LastReplacementAt = timePtr(replacedAt)
	return st, nil
}

func (r *lotteryStateRepository) Save(ctx context.Context, st *domain.LotteryState) error {
	query := `
		INSERT INTO lottery_state (event_id, vacancies, initial_draw_at, last_replacement_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE
		SET vacancies = EXCLUDED.vacancies,
			initial_draw_at = EXCLUDED.initial_draw_at,
			last_replacement_at = EXCLUDED.last_replacement_at
	`
	_, err := r.DB.ExecContext(ctx, query, st.EventID, st.Vacancies, nullTime(st.InitialDrawAt), nullTime(st.LastReplacementAt))
	return err
}
