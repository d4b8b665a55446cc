package certificates

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertClassifiesDuplicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"code", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AAAAAAAAAAAA' for key 'certificates.uq_certificates_code'"}, ErrDuplicateCode},
		{"enrollment", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'certificates.uq_certificates_enrollment'"}, ErrAlreadyIssued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer conn.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).WillReturnError(tt.err)
			err = NewStore(conn).Insert(context.Background(), &Certificate{EnrollmentID: 7, VerificationCode: "AAAAAAAAAAAA"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStoreInsertSetsID(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WithArgs(uint64(7), "completion", "ABCDEFGHJKMN", 5, 5, at).
		WillReturnResult(sqlmock.NewResult(11, 1))

	c := &Certificate{EnrollmentID: 7, CertificateType: "completion", VerificationCode: "ABCDEFGHJKMN", DaysAttended: 5, TotalDays: 5, IssuedAt: at}
	require.NoError(t, NewStore(conn).Insert(context.Background(), c))
	assert.Equal(t, uint64(11), c.CertificateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListUncertified(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("c.certificate_id IS NULL")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "days_attended"}).AddRow(1, 5).AddRow(2, 0))

	got, err := NewStore(conn).ListUncertified(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []enrollmentCount{{1, 5}, {2, 0}}, got)
}

func TestStoreMarkEmailed(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE certificates SET emailed_at = ? WHERE emailed_at IS NULL AND certificate_id IN (?,?)")).
		WithArgs(at, uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewStore(conn)
	require.NoError(t, s.MarkEmailed(context.Background(), []uint64{1, 2}, at))
	require.NoError(t, s.MarkEmailed(context.Background(), nil, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
