package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type invitationRepository struct {
	DB DBTX
}

func NewInvitationRepository(db DBTX) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

const invitationColumns = `id, event_id, entrant_id, status, created_at, responded_at`

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (event_id, entrant_id, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.EntrantID, string(inv.Status), inv.CreatedAt, nullTime(inv.RespondedAt),
	).Scan(&inv.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: entrant %s already has an invitation", domain.ErrInvalidInput, inv.EntrantID)
	}
	return err
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	uid, err := parseInvitationID(id)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	return r.getOne(ctx, query, uid.String())
}

// parseInvitationID rejects ids that cannot name a row, so lookups compare against the primary key
// without casting it.
func parseInvitationID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return uid, nil
}

func (r *invitationRepository) GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE event_id = $1 AND entrant_id = $2`
	return r.getOne(ctx, query, eventID, entrantID)
}

func (r *invitationRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, inv *domain.Invitation) error {
	query := `
		UPDATE invitations
		SET status = $1, responded_at = $2
		WHERE id = $3
	`
	uid, err := parseInvitationID(inv.ID)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, string(inv.Status), nullTime(inv.RespondedAt), uid.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string, statuses []domain.InvitationStatus) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM invitations
		WHERE event_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at, id
	`
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	return r.list(ctx, query, eventID, pq.Array(names))
}

func (r *invitationRepository) ListByEntrantID(ctx context.Context, entrantID string) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM invitations
		WHERE entrant_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, entrantID)
}

func (r *invitationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *invitationRepository) CountByStatus(ctx context.Context, eventID string, status domain.InvitationStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invitations WHERE event_id = $1 AND status = $2`,
		eventID, string(status),
	).Scan(&n)
	return n, err
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var status string
	var respondedAt sql.NullTime
	if err := row.Scan(&inv.ID, &inv.EventID, &inv.EntrantID, &status, &inv.CreatedAt, &respondedAt); err != nil {
		return nil, err
	}
	inv.Status = domain.InvitationStatus(status)
	inv.RespondedAt = timePtr(respondedAt)
	return inv, nil
}
