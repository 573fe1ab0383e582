package sqlite

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/arxiv/zero/internal/store"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapError maps a SQLite error to the store package's error values.
// Errors that are already classified are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrStorageUnavailable) ||
		errors.Is(err, store.ErrPersistence) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		store.IsClosedError(err) {
		return fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}

	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY,
			sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_FULL,
			sqlite3.SQLITE_READONLY,
			sqlite3.SQLITE_NOTADB,
			sqlite3.SQLITE_CORRUPT,
			sqlite3.SQLITE_NOMEM:
			return fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
		case sqlite3.SQLITE_CONSTRAINT:
			if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
				return fmt.Errorf("%w: %w: %v", store.ErrPersistence, store.ErrDuplicate, err)
			}
			return fmt.Errorf("%w: constraint violation: %v", store.ErrPersistence, err)
		case sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_MISMATCH:
			return fmt.Errorf("%w: %v", store.ErrPersistence, err)
		}
	}

	return err
}
