// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without depending on
// driver specific errors. ErrNotFound indicates the row keyed by a domain
// id does not exist, while ErrStaleWrite signals that a conditional update
// matched no row because another writer changed the record first.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by domain id matches no row.
var ErrNotFound = errors.New("not found")

// ErrStaleWrite is returned when an UPDATE guarded by the expected current
// status affects zero rows. Services translate it into a precondition
// failure.
var ErrStaleWrite = errors.New("stale write")

// ErrDuplicate is returned when an insert violates a unique key (for
// example a reused domain id or email).
var ErrDuplicate = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the sentinels above.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}
