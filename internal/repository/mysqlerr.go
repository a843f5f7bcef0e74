package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers this service reacts to.
const (
	mysqlDupEntry        = 1062 // ER_DUP_ENTRY
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
)

// IsDuplicate reports whether err is a unique-constraint violation.
// The unique index on (court_id, starts_at, ends_at) uses this as the
// backstop when two generation calls race past the existence check.
func IsDuplicate(err error) bool {
	return mysqlErrNumber(err) == mysqlDupEntry
}

// IsLockContention reports whether err is a lock wait timeout or a
// deadlock.  Both are surfaced to callers as conflicts rather than
// internal failures: the loser re-resolves its slot choice.
func IsLockContention(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlLockWaitTimeout || n == mysqlDeadlock
}

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
