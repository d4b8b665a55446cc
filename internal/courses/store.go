package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"training-backend/internal/platform/db"
	"training-backend/internal/survey"
)

type Store struct {
	db *sql.DB
}

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const courseColumns = `
	course_id, slug, name, description, num_days, certificate_type,
	min_days_for_participation, active, logo_url, default_organization,
	created_at, updated_at`

func scanCourse(sc interface{ Scan(...any) error }, c *Course) error {
	return sc.Scan(
		&c.CourseID, &c.Slug, &c.Name, &c.Description, &c.NumDays, &c.CertificateType,
		&c.MinDaysForParticipation, &c.Active, &c.LogoURL, &c.DefaultOrganization,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

// ensureDaysTx: day 1..numDays の行を作成する（既存行はそのまま）
func ensureDaysTx(ctx context.Context, tx db.DBTX, courseID uint64, numDays int) error {
	const q = `INSERT IGNORE INTO course_days (course_id, day_number) VALUES (?, ?)`
	for n := 1; n <= numDays; n++ {
		if _, err := tx.ExecContext(ctx, q, courseID, n); err != nil {
			return fmt.Errorf("ensure day %d: %w", n, err)
		}
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, c *Course) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		INSERT INTO courses
		(slug, name, description, num_days, certificate_type, min_days_for_participation, active, logo_url, default_organization)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q,
			c.Slug, c.Name, c.Description, c.NumDays, c.CertificateType,
			c.MinDaysForParticipation, c.Active, c.LogoURL, c.DefaultOrganization,
		)
		if err != nil {
			if db.IsDuplicateKey(err, "uq_courses_slug") {
				return ErrSlugTaken
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.CourseID = uint64(id)
		return ensureDaysTx(ctx, tx, c.CourseID, c.NumDays)
	})
}

// Update は既存行を書き換え、num_days が増えた分の日程行を補完する。
// num_days が減っても日程・出席は消さない。受講登録があるコースの slug 変更は ErrSlugLocked。
func (s *Store) Update(ctx context.Context, c *Course) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT slug FROM courses WHERE course_id = ? FOR UPDATE`, c.CourseID).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("course not found")
			}
			return err
		}
		if current != c.Slug {
			var referenced bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = ?)`, c.CourseID).Scan(&referenced); err != nil {
				return err
			}
			if referenced {
				return ErrSlugLocked
			}
		}

		const q = `
		UPDATE courses SET
		slug = ?, name = ?, description = ?, num_days = ?, certificate_type = ?,
		min_days_for_participation = ?, active = ?, logo_url = ?, default_organization = ?
		WHERE course_id = ?`
		_, err = tx.ExecContext(ctx, q,
			c.Slug, c.Name, c.Description, c.NumDays, c.CertificateType,
			c.MinDaysForParticipation, c.Active, c.LogoURL, c.DefaultOrganization,
			c.CourseID,
		)
		if err != nil {
			if db.IsDuplicateKey(err, "uq_courses_slug") {
				return ErrSlugTaken
			}
			return err
		}
		return ensureDaysTx(ctx, tx, c.CourseID, c.NumDays)
	})
}

func (s *Store) Delete(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = ?`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound("course not found")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (Course, error) {
	var c Course
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE course_id = ?`, id)
	if err := scanCourse(row, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound("course not found")
		}
		return Course{}, err
	}
	return c, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (Course, error) {
	var c Course
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE slug = ?`, slug)
	if err := scanCourse(row, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound("course not found")
		}
		return Course{}, err
	}
	return c, nil
}

func (s *Store) List(ctx context.Context) ([]CourseWithCount, error) {
	const q = `
	SELECT c.course_id, c.slug, c.name, c.description, c.num_days, c.certificate_type,
	c.min_days_for_participation, c.active, c.logo_url, c.default_organization,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.course_id) AS enrolled_count
	FROM courses c
	ORDER BY c.created_at DESC, c.course_id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseWithCount
	for rows.Next() {
		var r CourseWithCount
		c := &r.Course
		if err := rows.Scan(
			&c.CourseID, &c.Slug, &c.Name, &c.Description, &c.NumDays, &c.CertificateType,
			&c.MinDaysForParticipation, &c.Active, &c.LogoURL, &c.DefaultOrganization,
			&c.CreatedAt, &c.UpdatedAt, &r.EnrolledCount,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListDays(ctx context.Context, courseID uint64) ([]Day, error) {
	const q = `
	SELECT course_day_id, course_id, day_number, title, day_date, hours
	FROM course_days WHERE course_id = ? ORDER BY day_number`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.CourseDayID, &d.CourseID, &d.DayNumber, &d.Title, &d.Date, &d.Hours); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ListTrainers(ctx context.Context, courseID uint64) ([]Trainer, error) {
	const q = `
	SELECT trainer_id, name, title, display_order
	FROM course_trainers WHERE course_id = ? ORDER BY display_order, trainer_id`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trainer
	for rows.Next() {
		var t Trainer
		if err := rows.Scan(&t.TrainerID, &t.Name, &t.Title, &t.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertDays: day_number 単位で title/date/hours を上書きし、指定があれば設問も同期する
func (s *Store) UpsertDays(ctx context.Context, courseID uint64, edits []DayEdit) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		INSERT INTO course_days (course_id, day_number, title, day_date, hours)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		course_day_id = LAST_INSERT_ID(course_day_id),
		title    = VALUES(title),
		day_date = VALUES(day_date),
		hours    = VALUES(hours)`
		for _, e := range edits {
			var date any
			if e.Date.Valid {
				date = e.Date.Time.Format(DateLayout)
			}
			res, err := tx.ExecContext(ctx, q, courseID, e.DayNumber, e.Title, date, e.Hours)
			if err != nil {
				return fmt.Errorf("upsert day %d: %w", e.DayNumber, err)
			}
			if !e.ReplaceQuestions {
				continue
			}
			dayID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if err := syncQuestionsTx(ctx, tx, uint64(dayID), e.Questions); err != nil {
				return fmt.Errorf("day %d questions: %w", e.DayNumber, err)
			}
		}
		return nil
	})
}

// syncQuestionsTx: qs を正として更新・追加し、qs に無い既存設問（と回答）を削除する
func syncQuestionsTx(ctx context.Context, tx db.DBTX, dayID uint64, qs []survey.Question) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT question_id FROM survey_questions WHERE course_day_id = ? FOR UPDATE`, dayID)
	if err != nil {
		return err
	}
	existing := map[uint64]bool{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = false
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, q := range qs {
		opts, err := survey.EncodeOptions(q.Options)
		if err != nil {
			return err
		}
		if q.QuestionID == 0 {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO survey_questions (course_day_id, question_text, question_type, options, required, display_order)
			VALUES (?, ?, ?, ?, ?, ?)`,
				dayID, q.Text, q.Type, opts, q.Required, q.DisplayOrder); err != nil {
				return err
			}
			continue
		}
		if _, ok := existing[q.QuestionID]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownQuestion, q.QuestionID)
		}
		existing[q.QuestionID] = true
		if _, err := tx.ExecContext(ctx, `
		UPDATE survey_questions SET
		question_text = ?, question_type = ?, options = ?, required = ?, display_order = ?
		WHERE question_id = ?`,
			q.Text, q.Type, opts, q.Required, q.DisplayOrder, q.QuestionID); err != nil {
			return err
		}
	}

	var stale []uint64
	for id, kept := range existing {
		if !kept {
			stale = append(stale, id)
		}
	}
	slices.Sort(stale)
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM survey_questions WHERE question_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

const questionSelect = `
	SELECT q.question_id, q.course_day_id, q.question_text, q.question_type,
	q.options, q.required, q.display_order
	FROM survey_questions q`

func (s *Store) queryQuestions(ctx context.Context, q string, args ...any) ([]survey.Question, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

// ListQuestions: コース全日程の設問（日程順・表示順）
func (s *Store) ListQuestions(ctx context.Context, courseID uint64) ([]survey.Question, error) {
	return s.queryQuestions(ctx, questionSelect+`
	JOIN course_days d ON d.course_day_id = q.course_day_id
	WHERE d.course_id = ?
	ORDER BY d.day_number, q.display_order, q.question_id`, courseID)
}

func (s *Store) DayQuestions(ctx context.Context, courseDayID uint64) ([]survey.Question, error) {
	return s.queryQuestions(ctx, questionSelect+`
	WHERE q.course_day_id = ?
	ORDER BY q.display_order, q.question_id`, courseDayID)
}

// ReplaceTrainers: 講師一覧を丸ごと入れ替える
func (s *Store) ReplaceTrainers(ctx context.Context, courseID uint64, trainers []Trainer) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_trainers WHERE course_id = ?`, courseID); err != nil {
			return err
		}
		const q = `INSERT INTO course_trainers (course_id, name, title, display_order) VALUES (?, ?, ?, ?)`
		for _, t := range trainers {
			if _, err := tx.ExecContext(ctx, q, courseID, t.Name, t.Title, t.DisplayOrder); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDay は日程行が無ければ作成して返す（チェックイン画面からの初回アクセス用）
func (s *Store) EnsureDay(ctx context.Context, courseID uint64, dayNumber int) (Day, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT IGNORE INTO course_days (course_id, day_number) VALUES (?, ?)`, courseID, dayNumber); err != nil {
		return Day{}, err
	}
	const q = `
	SELECT course_day_id, course_id, day_number, title, day_date, hours
	FROM course_days WHERE course_id = ? AND day_number = ?`
	var d Day
	if err := s.db.QueryRowContext(ctx, q, courseID, dayNumber).
		Scan(&d.CourseDayID, &d.CourseID, &d.DayNumber, &d.Title, &d.Date, &d.Hours); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Day{}, ErrInternal("day inserted but not found")
		}
		return Day{}, err
	}
	return d, nil
}
