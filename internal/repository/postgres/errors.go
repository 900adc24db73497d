package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

// SQLSTATE codes that mean the transaction lost a race and can be re-run as is.
var transientCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
}

const uniqueViolation pq.ErrorCode = "23505"

// classify marks failures that are safe to retry as *domain.TransientError.
func classify(err error) error {
	if err == nil || errors.Is(err, domain.ErrTransient) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && transientCodes[pqErr.Code] {
		return &domain.TransientError{Err: err}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return &domain.TransientError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TransientError{Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullTimeValue treats the zero time as NULL.
func nullTimeValue(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
