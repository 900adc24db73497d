package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlottery/internal/domain"
)

type waitlistRepository struct {
	DB DBTX
}

func NewWaitlistRepository(db DBTX) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

func (r *waitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (event_id, entrant_id, joined_at, geolocation)
		VALUES ($1, $2, $3, $4)
	`
	geo := sql.NullString{String: string(entry.Geolocation), Valid: len(entry.Geolocation) > 0}
	_, err := r.DB.ExecContext(ctx, query, entry.EventID, entry.EntrantID, entry.JoinedAt, geo)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyJoined
	}
	return err
}

func (r *waitlistRepository) Get(ctx context.Context, eventID, entrantID string) (*domain.WaitlistEntry, error) {
	query := `
		SELECT event_id, entrant_id, joined_at, geolocation
		FROM waitlist_entries
		WHERE event_id = $1 AND entrant_id = $2
	`
	e, err := scanWaitlistEntry(r.DB.QueryRowContext(ctx, query, eventID, entrantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *waitlistRepository) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE event_id = $1 AND entrant_id = $2`, eventID, entrantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT event_id, entrant_id, joined_at, geolocation
		FROM waitlist_entries
		WHERE event_id = $1
		ORDER BY joined_at, entrant_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *waitlistRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_entries WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWaitlistEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	e := &domain.WaitlistEntry{}
	var geo sql.NullString
	if err := row.Scan(&e.EventID, &e.EntrantID, &e.JoinedAt, &geo); err != nil {
		return nil, err
	}
	if geo.Valid {
		e.Geolocation = []byte(geo.String)
	}
	return e, nil
}
