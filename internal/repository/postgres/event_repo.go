package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventlottery/internal/domain"
)

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (id, name, capacity, registration_opens_at, registration_closes_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Name, e.Capacity,
		nullTimeValue(e.RegistrationOpensAt), nullTimeValue(e.RegistrationClosesAt),
		e.CreatedAt, e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: event %s already exists", domain.ErrInvalidInput, e.ID)
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, capacity, registration_opens_at, registration_closes_at, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var opensAt, closesAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.Capacity, &opensAt, &closesAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if opensAt.Valid {
		e.RegistrationOpensAt = opensAt.Time
	}
	if closesAt.Valid {
		e.RegistrationClosesAt = closesAt.Time
	}
	return e, nil
}
