package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type registrationRepository struct {
	DB DBTX
}

func NewRegistrationRepository(db DBTX) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

const registrationColumns = `id, event_id, entrant_id, status, enrolled_at, cancelled_at, created_at, updated_at`

func (r *registrationRepository) Upsert(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, entrant_id, status, enrolled_at, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, entrant_id) DO UPDATE
		SET status = EXCLUDED.status,
			enrolled_at = EXCLUDED.enrolled_at,
			cancelled_at = EXCLUDED.cancelled_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.EntrantID, string(reg.Status),
		nullTime(reg.EnrolledAt), nullTime(reg.CancelledAt),
		reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID, &reg.CreatedAt)
}

func (r *registrationRepository) GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND entrant_id = $2`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, entrantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByEventAndStatus(ctx context.Context, eventID string, statuses []domain.RegistrationStatus) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at, entrant_id
	`
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	return r.list(ctx, query, eventID, pq.Array(names))
}

func (r *registrationRepository) ListByEntrantID(ctx context.Context, entrantID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE entrant_id = $1
		ORDER BY created_at, entrant_id
	`
	return r.list(ctx, query, entrantID)
}

func (r *registrationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

func (r *registrationRepository) CountByStatus(ctx context.Context, eventID string, status domain.RegistrationStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, string(status),
	).Scan(&n)
	return n, err
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status string
	var enrolledAt, cancelledAt sql.NullTime
	err := row.Scan(&reg.ID, &reg.EventID, &reg.EntrantID, &status, &enrolledAt, &cancelledAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.EnrolledAt = timePtr(enrolledAt)
	reg.CancelledAt = timePtr(cancelledAt)
	return reg, nil
}
