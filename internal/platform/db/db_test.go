package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-backend/internal/platform/config"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ABC' for key 'certificates.uq_certificates_code'"}

	assert.True(t, IsDuplicateKey(dup, ""))
	assert.True(t, IsDuplicateKey(dup, "uq_certificates_code"))
	assert.False(t, IsDuplicateKey(dup, "uq_certificates_enrollment"))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", dup), "uq_certificates_code"))
	assert.False(t, IsDuplicateKey(errors.New("boom"), ""))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1452}, ""))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsRetryable(fmt.Errorf("upsert attendee: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, IsRetryable(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 9)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
		assert.False(t, strings.HasSuffix(s, ";"))
	}
}

func TestMigrate(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer conn.Close()

	for _, s := range Statements() {
		mock.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendees").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO attendees (email) VALUES (?)", "a@b.c"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRetriesDeadlock(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendees").WillReturnError(deadlock)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendees").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	var id int64
	calls := 0
	err = RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		calls++
		res, err := tx.ExecContext(ctx, "INSERT INTO attendees (email) VALUES (?)", "a@b.c")
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxGivesUpAfterMaxAttempts(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	for i := 0; i < maxTxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE courses").WillReturnError(deadlock)
		mock.ExpectRollback()
	}

	err = RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "UPDATE courses SET name = ? WHERE course_id = ?", "x", 1)
		return err
	})
	assert.True(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOnlyDoesNotRetry(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name").WillReturnError(&mysql.MySQLError{Number: 1205})
	mock.ExpectRollback()

	err = ReadOnly(context.Background(), conn, func(ctx context.Context, tx DBTX) error {
		var name string
		return tx.QueryRowContext(ctx, "SELECT name FROM courses WHERE course_id = ?", 1).Scan(&name)
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 3306, Username: "u", Password: "p", DBName: "training"})
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3306)/training?parseTime=true"))
}
