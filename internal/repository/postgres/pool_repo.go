package postgres

import (
	"context"

	"eventlottery/internal/domain"
)

type notSelectedRepository struct {
	DB DBTX
}

func NewNotSelectedRepository(db DBTX) domain.NotSelectedRepository {
	return &notSelectedRepository{DB: db}
}

func (r *notSelectedRepository) Create(ctx context.Context, rec *domain.NotSelectedRecord) (bool, error) {
	query := `
		INSERT INTO not_selected_entries (event_id, entrant_id, joined_at, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, entrant_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, rec.EventID, rec.EntrantID, rec.JoinedAt, rec.RecordedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *notSelectedRepository) Exists(ctx context.Context, eventID, entrantID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM not_selected_entries WHERE event_id = $1 AND entrant_id = $2)`
	var ok bool
	err := r.DB.QueryRowContext(ctx, query, eventID, entrantID).Scan(&ok)
	return ok, err
}

func (r *notSelectedRepository) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM not_selected_entries WHERE event_id = $1 AND entrant_id = $2`, eventID, entrantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *notSelectedRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.NotSelectedRecord, error) {
	query := `
		SELECT event_id, entrant_id, joined_at, recorded_at
		FROM not_selected_entries
		WHERE event_id = $1
		ORDER BY joined_at, entrant_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]*domain.NotSelectedRecord, 0)
	for rows.Next() {
		rec := &domain.NotSelectedRecord{}
		if err := rows.Scan(&rec.EventID, &rec.EntrantID, &rec.JoinedAt, &rec.RecordedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *notSelectedRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM not_selected_entries WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

type selectionRepository struct {
	DB DBTX
}

func NewSelectionRepository(db DBTX) domain.SelectionRepository {
	return &selectionRepository{DB: db}
}

func (r *selectionRepository) Create(ctx context.Context, sel *domain.SelectionRecord) (bool, error) {
	query := `
		INSERT INTO selections (event_id, entrant_id, selected_at, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, entrant_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, sel.EventID, sel.EntrantID, sel.SelectedAt, string(sel.Source))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *selectionRepository) Exists(ctx context.Context, eventID, entrantID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM selections WHERE event_id = $1 AND entrant_id = $2)`
	var ok bool
	err := r.DB.QueryRowContext(ctx, query, eventID, entrantID).Scan(&ok)
	return ok, err
}

func (r *selectionRepository) Delete(ctx context.Context, eventID, entrantID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM selections WHERE event_id = $1 AND entrant_id = $2`, eventID, entrantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *selectionRepository) DeleteByEventID(ctx context.Context, eventID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM selections WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *selectionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.SelectionRecord, error) {
	query := `
		SELECT event_id, entrant_id, selected_at, source
		FROM selections
		WHERE event_id = $1
		ORDER BY selected_at, entrant_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sels := make([]*domain.SelectionRecord, 0)
	for rows.Next() {
		sel := &domain.SelectionRecord{}
		var source string
		if err := rows.Scan(&sel.EventID, &sel.EntrantID, &sel.SelectedAt, &source); err != nil {
			return nil, err
		}
		sel.Source = domain.SelectionSource(source)
		sels = append(sels, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sels, nil
}

func (r *selectionRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM selections WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}
