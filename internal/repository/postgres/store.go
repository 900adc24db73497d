package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"eventlottery/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository works inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

//go:embed schema.sql
var schema string

// Migrate creates the lottery tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store is the PostgreSQL domain.Store. Units of work for one event are serialized with a
// transaction-scoped advisory lock keyed on the event id.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.Repositories) error) (err error) {
	if eventID == "" {
		return fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
		return classify(fmt.Errorf("lock event: %w", err))
	}
	if err = fn(ctx, newRepositories(tx)); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// View runs fn in a read-only REPEATABLE READ transaction so every read sees one snapshot.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(ctx, newRepositories(tx)); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *Store) Profiles() domain.ProfileStore {
	return NewProfileRepository(s.DB)
}

type repositories struct {
	db DBTX
}

func newRepositories(db DBTX) *repositories {
	return &repositories{db: db}
}

func (r *repositories) Events() domain.EventRepository {
	return NewEventRepository(r.db)
}

func (r *repositories) Waitlist() domain.WaitlistRepository {
	return NewWaitlistRepository(r.db)
}

func (r *repositories) NotSelected() domain.NotSelectedRepository {
	return NewNotSelectedRepository(r.db)
}

func (r *repositories) Selections() domain.SelectionRepository {
	return NewSelectionRepository(r.db)
}

func (r *repositories) Invitations() domain.InvitationRepository {
	return NewInvitationRepository(r.db)
}

func (r *repositories) Registrations() domain.RegistrationRepository {
	return NewRegistrationRepository(r.db)
}

func (r *repositories) LotteryState() domain.LotteryStateRepository {
	return NewLotteryStateRepository(r.db)
}
