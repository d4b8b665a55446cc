package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"training-backend/internal/platform/db"
	"training-backend/internal/survey"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) CourseBySlug(ctx context.Context, slug string) (courseRef, error) {
	const q = `
	SELECT course_id, name, num_days, active, default_organization
	FROM courses WHERE slug = ?`
	var c courseRef
	err := s.db.QueryRowContext(ctx, q, slug).
		Scan(&c.CourseID, &c.Name, &c.NumDays, &c.Active, &c.DefaultOrganization)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return courseRef{}, ErrNotFound("course not found")
		}
		return courseRef{}, err
	}
	return c, nil
}

func (s *Store) CourseByID(ctx context.Context, id uint64) (courseRef, error) {
	const q = `
	SELECT course_id, name, num_days, active, default_organization
	FROM courses WHERE course_id = ?`
	var c courseRef
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&c.CourseID, &c.Name, &c.NumDays, &c.Active, &c.DefaultOrganization)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return courseRef{}, ErrNotFound("course not found")
		}
		return courseRef{}, err
	}
	return c, nil
}

// upsert 系は LAST_INSERT_ID(id) で既存行の id を LastInsertId から取り出す
func lastID(res sql.Result, err error) (uint64, error) {
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DayQuestions: 日程行がまだ無ければ設問も無い
func (s *Store) DayQuestions(ctx context.Context, courseID uint64, dayNumber int) ([]survey.Question, error) {
	const q = `
	SELECT q.question_id, q.course_day_id, q.question_text, q.question_type,
	q.options, q.required, q.display_order
	FROM survey_questions q
	JOIN course_days d ON d.course_day_id = q.course_day_id
	WHERE d.course_id = ? AND d.day_number = ?
	ORDER BY q.display_order, q.question_id`
	rows, err := s.db.QueryContext(ctx, q, courseID, dayNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []survey.Question
	for rows.Next() {
		var (
			sq   survey.Question
			opts []byte
		)
		if err := rows.Scan(&sq.QuestionID, &sq.CourseDayID, &sq.Text, &sq.Type,
			&opts, &sq.Required, &sq.DisplayOrder); err != nil {
			return nil, err
		}
		if sq.Options, err = survey.DecodeOptions(opts); err != nil {
			return nil, err
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

// CheckIn: 日程行・受講者・受講登録を確保して出席を1行追加し、設問回答を保存する。
// 全体を1トランザクションで行い、重複時は ErrAlreadyCheckedIn を返してロールバックする。
func (s *Store) CheckIn(ctx context.Context, in CheckIn) (Record, error) {
	var rec Record
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var err error

		// 1. day
		rec.CourseDayID, err = lastID(tx.ExecContext(ctx, `
		INSERT INTO course_days (course_id, day_number) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE course_day_id = LAST_INSERT_ID(course_day_id)`,
			in.CourseID, in.DayNumber))
		if err != nil {
			return fmt.Errorf("ensure day: %w", err)
		}

		// 2. attendee: 氏名は常に更新、所属は入力があるときだけ更新
		rec.AttendeeID, err = lastID(tx.ExecContext(ctx, `
		INSERT INTO attendees (email, full_name, organization) VALUES (?, ?, COALESCE(?, ?))
		ON DUPLICATE KEY UPDATE
		attendee_id  = LAST_INSERT_ID(attendee_id),
		full_name    = VALUES(full_name),
		organization = COALESCE(?, organization)`,
			in.Email, in.FullName, in.Organization, in.DefaultOrganization, in.Organization))
		if err != nil {
			return fmt.Errorf("upsert attendee: %w", err)
		}

		// 3. enrollment
		rec.EnrollmentID, err = lastID(tx.ExecContext(ctx, `
		INSERT INTO enrollments (attendee_id, course_id) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE enrollment_id = LAST_INSERT_ID(enrollment_id)`,
			rec.AttendeeID, in.CourseID))
		if err != nil {
			return fmt.Errorf("ensure enrollment: %w", err)
		}

		// 4. attendance（上書きしない）
		rec.AttendanceID, err = lastID(tx.ExecContext(ctx, `
		INSERT INTO attendance (enrollment_id, course_day_id, checked_in_at) VALUES (?, ?, ?)`,
			rec.EnrollmentID, rec.CourseDayID, in.At))
		if err != nil {
			if db.IsDuplicateKey(err, "uq_attendance_enrollment_day") {
				return ErrAlreadyCheckedIn
			}
			return fmt.Errorf("insert attendance: %w", err)
		}
		rec.CheckedInAt = in.At

		// 5. survey responses
		for _, qid := range survey.SortedIDs(in.Responses) {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO survey_responses (attendance_id, question_id, response_value) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE response_value = VALUES(response_value)`,
				rec.AttendanceID, qid, in.Responses[qid]); err != nil {
				return fmt.Errorf("save response %d: %w", qid, err)
			}
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) ListByCourse(ctx context.Context, courseID uint64) ([]attendanceRow, error) {
	const q = `
	SELECT e.enrollment_id, a.attendee_id, a.email, a.full_name, a.organization,
	d.day_number, t.checked_in_at
	FROM enrollments e
	JOIN attendees a ON a.attendee_id = e.attendee_id
	LEFT JOIN attendance t ON t.enrollment_id = e.enrollment_id
	LEFT JOIN course_days d ON d.course_day_id = t.course_day_id
	WHERE e.course_id = ?
	ORDER BY a.full_name, a.email, e.enrollment_id, d.day_number`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendanceRow
	for rows.Next() {
		var r attendanceRow
		if err := rows.Scan(&r.EnrollmentID, &r.AttendeeID, &r.Email, &r.FullName, &r.Organization,
			&r.DayNumber, &r.CheckedInAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
