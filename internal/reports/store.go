package reports

import (
	"context"
	"database/sql"
	"errors"

	"training-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

// GetReportData はスナップショットを読み取り専用Txでまとめて取る
func (s *Store) GetReportData(ctx context.Context, courseID uint64) (reportData, error) {
	var out reportData
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		c := &out.Course
		err := tx.QueryRowContext(ctx, `
		SELECT course_id, slug, name, description, num_days
		FROM courses WHERE course_id = ?`, courseID).
			Scan(&c.CourseID, &c.Slug, &c.Name, &c.Description, &c.NumDays)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("course not found")
			}
			return err
		}

		if out.Trainers, err = queryAll(ctx, tx, func(r *sql.Rows, t *trainerRow) error {
			return r.Scan(&t.Name, &t.Title)
		}, `SELECT name, title FROM course_trainers WHERE course_id = ? ORDER BY display_order, trainer_id`, courseID); err != nil {
			return err
		}

		if out.Days, err = queryAll(ctx, tx, func(r *sql.Rows, d *dayRow) error {
			return r.Scan(&d.DayNumber, &d.Title, &d.Date, &d.Hours)
		}, `SELECT day_number, title, day_date, hours FROM course_days WHERE course_id = ? ORDER BY day_number`, courseID); err != nil {
			return err
		}

		if out.Attendees, err = queryAll(ctx, tx, func(r *sql.Rows, a *attendeeRow) error {
			return r.Scan(&a.EnrollmentID, &a.FullName, &a.Email, &a.Organization,
				&a.CertificateType, &a.VerificationCode, &a.IssuedAt)
		}, `
		SELECT e.enrollment_id, a.full_name, a.email, a.organization,
		c.certificate_type, c.verification_code, c.issued_at
		FROM enrollments e
		JOIN attendees a ON a.attendee_id = e.attendee_id
		LEFT JOIN certificates c ON c.enrollment_id = e.enrollment_id
		WHERE e.course_id = ?
		ORDER BY a.full_name, a.email`, courseID); err != nil {
			return err
		}

		out.CheckIns, err = queryAll(ctx, tx, func(r *sql.Rows, ci *checkInRow) error {
			return r.Scan(&ci.EnrollmentID, &ci.DayNumber)
		}, `
		SELECT t.enrollment_id, d.day_number
		FROM attendance t
		JOIN course_days d ON d.course_day_id = t.course_day_id
		WHERE d.course_id = ?
		ORDER BY t.enrollment_id, d.day_number`, courseID)
		return err
	})
	if err != nil {
		return reportData{}, err
	}
	return out, nil
}

func queryAll[T any](ctx context.Context, tx db.DBTX, scan func(*sql.Rows, *T) error, q string, args ...any) ([]T, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
