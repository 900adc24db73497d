package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlottery/internal/domain"
)

type ProfileRepository struct {
	DB DBTX
}

// NewProfileRepository returns the profile store backed by the profiles table.
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Resolve(ctx context.Context, entrantID string) (*domain.DisplayAttributes, error) {
	query := `
		SELECT entrant_id, name, email, notifications_enabled
		FROM profiles
		WHERE entrant_id = $1
	`
	a := &domain.DisplayAttributes{}
	err := r.DB.QueryRowContext(ctx, query, entrantID).Scan(&a.EntrantID, &a.Name, &a.Email, &a.NotificationsEnabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Upsert stores or replaces an entrant's display attributes.
func (r *ProfileRepository) Upsert(ctx context.Context, a *domain.DisplayAttributes) error {
	query := `
		INSERT INTO profiles (entrant_id, name, email, notifications_enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entrant_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, notifications_enabled = EXCLUDED.notifications_enabled
	`
	_, err := r.DB.ExecContext(ctx, query, a.EntrantID, a.Name, a.Email, a.NotificationsEnabled)
	return err
}
