package db

import (
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
// When index is non-empty the violated key must also match it.
func IsDuplicateKey(err error, index string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != erDupEntry {
		return false
	}
	if index == "" {
		return true
	}
	// MySQL 8: "Duplicate entry 'x' for key 'table.index'"
	return strings.Contains(me.Message, index)
}

// IsRetryable: InnoDB がTx全体をロールバックした（やり直せば通りうる）エラー
func IsRetryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == erLockDeadlock || me.Number == erLockWaitTimeout
}
