package certificates

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"training-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) CoursePolicy(ctx context.Context, courseID uint64) (coursePolicy, error) {
	const q = `
	SELECT course_id, slug, name, certificate_type, num_days, min_days_for_participation
	FROM courses WHERE course_id = ?`
	var p coursePolicy
	err := s.db.QueryRowContext(ctx, q, courseID).
		Scan(&p.CourseID, &p.Slug, &p.Name, &p.CertificateType, &p.NumDays, &p.MinDaysForParticipation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return coursePolicy{}, ErrNotFound("course not found")
		}
		return coursePolicy{}, err
	}
	return p, nil
}

// ListUncertified: 証明書未発行の受講登録と出席日数。
// num_days を超える日番号の出席（日数を減らした後の残り）は数えない。
func (s *Store) ListUncertified(ctx context.Context, courseID uint64) ([]enrollmentCount, error) {
	const q = `
	SELECT e.enrollment_id, COUNT(d.course_day_id) AS days_attended
	FROM enrollments e
	JOIN courses co ON co.course_id = e.course_id
	LEFT JOIN certificates c ON c.enrollment_id = e.enrollment_id
	LEFT JOIN attendance t ON t.enrollment_id = e.enrollment_id
	LEFT JOIN course_days d ON d.course_day_id = t.course_day_id AND d.day_number <= co.num_days
	WHERE e.course_id = ? AND c.certificate_id IS NULL
	GROUP BY e.enrollment_id
	ORDER BY e.enrollment_id`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []enrollmentCount
	for rows.Next() {
		var e enrollmentCount
		if err := rows.Scan(&e.EnrollmentID, &e.DaysAttended); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Insert は1行を単独で書き込む。一意制約違反はインデックス名で区別する。
func (s *Store) Insert(ctx context.Context, c *Certificate) error {
	const q = `
	INSERT INTO certificates
	(enrollment_id, certificate_type, verification_code, days_attended, total_days, issued_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		c.EnrollmentID, c.CertificateType, c.VerificationCode, c.DaysAttended, c.TotalDays, c.IssuedAt)
	if err != nil {
		switch {
		case db.IsDuplicateKey(err, "uq_certificates_code"):
			return ErrDuplicateCode
		case db.IsDuplicateKey(err, "uq_certificates_enrollment"):
			return ErrAlreadyIssued
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.CertificateID = uint64(id)
	return nil
}

const detailSelect = `
	SELECT c.certificate_id, c.enrollment_id, c.certificate_type, c.verification_code,
	c.days_attended, c.total_days, c.issued_at, c.emailed_at,
	a.full_name, a.email, co.course_id, co.slug, co.name, co.logo_url
	FROM certificates c
	JOIN enrollments e ON e.enrollment_id = c.enrollment_id
	JOIN attendees a ON a.attendee_id = e.attendee_id
	JOIN courses co ON co.course_id = e.course_id`

func scanDetail(sc interface{ Scan(...any) error }, d *certificateDetail) error {
	return sc.Scan(
		&d.CertificateID, &d.EnrollmentID, &d.CertificateType, &d.VerificationCode,
		&d.DaysAttended, &d.TotalDays, &d.IssuedAt, &d.EmailedAt,
		&d.AttendeeName, &d.AttendeeEmail, &d.CourseID, &d.CourseSlug, &d.CourseName, &d.LogoURL,
	)
}

func (s *Store) queryDetails(ctx context.Context, q string, args ...any) ([]certificateDetail, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []certificateDetail
	for rows.Next() {
		var d certificateDetail
		if err := scanDetail(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ViewByCode: 検証ページ/PDF 用。講師名と日程範囲も埋める。
func (s *Store) ViewByCode(ctx context.Context, code string) (certificateDetail, error) {
	var d certificateDetail
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		row := tx.QueryRowContext(ctx, detailSelect+` WHERE c.verification_code = ?`, code)
		if err := scanDetail(row, &d); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("certificate not found")
			}
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT name FROM course_trainers WHERE course_id = ? ORDER BY display_order, trainer_id`, d.CourseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			d.Trainers = append(d.Trainers, name)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, `
		SELECT MIN(day_date), MAX(day_date) FROM course_days
		WHERE course_id = ? AND day_date IS NOT NULL`, d.CourseID).Scan(&d.StartDate, &d.EndDate)
	})
	if err != nil {
		return certificateDetail{}, err
	}
	return d, nil
}

func (s *Store) ListByCourse(ctx context.Context, courseID uint64) ([]certificateDetail, error) {
	return s.queryDetails(ctx, detailSelect+` WHERE co.course_id = ? ORDER BY a.full_name, c.certificate_id`, courseID)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// ListUnsent: 指定IDのうち未送信のもの
func (s *Store) ListUnsent(ctx context.Context, ids []uint64) ([]certificateDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := detailSelect + ` WHERE c.certificate_id IN (` + placeholders(len(ids)) + `) AND c.emailed_at IS NULL ORDER BY c.certificate_id`
	return s.queryDetails(ctx, q, idArgs(ids)...)
}

func (s *Store) MarkEmailed(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE certificates SET emailed_at = ? WHERE emailed_at IS NULL AND certificate_id IN (` + placeholders(len(ids)) + `)`
	_, err := s.db.ExecContext(ctx, q, append([]any{at}, idArgs(ids)...)...)
	return err
}
