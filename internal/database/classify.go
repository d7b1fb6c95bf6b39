package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	pq "github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
)

// Classify wraps a driver error with ErrConstraintViolation or
// ErrStorageUnavailable when it belongs to one of those classes. The original
// error stays in the chain. Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if errors.Is(err, apperrors.ErrConstraintViolation) || errors.Is(err, apperrors.ErrStorageUnavailable) {
		return err
	}

	switch {
	case isConstraint(err):
		return fmt.Errorf("%w: %w", apperrors.ErrConstraintViolation, err)
	case isUnavailable(err):
		return fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return err
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		// Class 23: integrity constraint violation
		return pe.Code.Class() == "23"
	}
	return false
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL,
			sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_READONLY,
			sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_PERM:
			return true
		}
		return false
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code.Class() {
		case "08", // connection exception
			"53", // insufficient resources
			"57", // operator intervention
			"58": // system error
			return true
		}
		return false
	}

	var ne net.Error
	return errors.As(err, &ne)
}
