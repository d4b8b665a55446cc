package courses

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"training-backend/internal/survey"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type courseStore interface {
	Insert(ctx context.Context, c *Course) error
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id uint64) error
	Get(ctx context.Context, id uint64) (Course, error)
	GetBySlug(ctx context.Context, slug string) (Course, error)
	List(ctx context.Context) ([]CourseWithCount, error)
	ListDays(ctx context.Context, courseID uint64) ([]Day, error)
	ListTrainers(ctx context.Context, courseID uint64) ([]Trainer, error)
	UpsertDays(ctx context.Context, courseID uint64, edits []DayEdit) error
	ListQuestions(ctx context.Context, courseID uint64) ([]survey.Question, error)
	DayQuestions(ctx context.Context, courseDayID uint64) ([]survey.Question, error)
	ReplaceTrainers(ctx context.Context, courseID uint64, trainers []Trainer) error
	EnsureDay(ctx context.Context, courseID uint64, dayNumber int) (Day, error)
}

type Service struct {
	store courseStore
}

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn)}
}

func validateCourse(c *Course) error {
	if c.Name == "" {
		return ErrInvalid("name is required")
	}
	if !slugRe.MatchString(c.Slug) {
		return ErrInvalid("slug must be lower-case letters, digits and single hyphens")
	}
	if c.NumDays < 1 {
		return ErrInvalid("num_days must be >= 1")
	}
	switch c.CertificateType {
	case CertCompletion, CertParticipation, CertBoth:
	default:
		return ErrInvalid("certificate_type must be completion, participation or both")
	}
	if c.MinDaysForParticipation < 1 || c.MinDaysForParticipation > c.NumDays {
		return ErrInvalid("min_days_for_participation must be between 1 and num_days")
	}
	return nil
}

// 予期しないエラーはログに残し、呼び出し側には汎用メッセージを返す
func internal(op string, err error) error {
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	log.Printf("[ERROR] courses.%s: %v", op, err)
	return ErrInternal("internal error")
}

// POST /admin/courses
func (s *Service) Create(ctx context.Context, req CreateCourseRequest) (CourseResponse, error) {
	c := Course{
		Slug:                    strings.TrimSpace(req.Slug),
		Name:                    strings.TrimSpace(req.Name),
		Description:             nullStr(req.Description),
		NumDays:                 1,
		CertificateType:         CertCompletion,
		MinDaysForParticipation: 1,
		Active:                  true,
		LogoURL:                 nullStr(req.LogoURL),
		DefaultOrganization:     nullStr(req.DefaultOrganization),
	}
	if req.NumDays != nil {
		c.NumDays = *req.NumDays
	}
	if req.CertificateType != nil {
		c.CertificateType = *req.CertificateType
	}
	if req.MinDaysForParticipation != nil {
		c.MinDaysForParticipation = *req.MinDaysForParticipation
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := validateCourse(&c); err != nil {
		return CourseResponse{}, err
	}

	if err := s.store.Insert(ctx, &c); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return CourseResponse{}, ErrConflict("slug already exists")
		}
		return CourseResponse{}, internal("Create", err)
	}
	log.Printf("[INFO] course created: id=%d slug=%s days=%d", c.CourseID, c.Slug, c.NumDays)

	created, err := s.store.Get(ctx, c.CourseID)
	if err != nil {
		return CourseResponse{}, internal("Create", err)
	}
	return created.toDTO(), nil
}

// PUT /admin/courses/:id
func (s *Service) Update(ctx context.Context, id uint64, req UpdateCourseRequest) (CourseResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return CourseResponse{}, internal("Update", err)
	}

	if req.Slug != nil {
		c.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		c.Description = nullStr(req.Description)
	}
	if req.NumDays != nil {
		c.NumDays = *req.NumDays
	}
	if req.CertificateType != nil {
		c.CertificateType = *req.CertificateType
	}
	if req.MinDaysForParticipation != nil {
		c.MinDaysForParticipation = *req.MinDaysForParticipation
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.LogoURL != nil {
		c.LogoURL = nullStr(req.LogoURL)
	}
	if req.DefaultOrganization != nil {
		c.DefaultOrganization = nullStr(req.DefaultOrganization)
	}
	if err := validateCourse(&c); err != nil {
		return CourseResponse{}, err
	}

	if err := s.store.Update(ctx, &c); err != nil {
		switch {
		case errors.Is(err, ErrSlugTaken):
			return CourseResponse{}, ErrConflict("slug already exists")
		case errors.Is(err, ErrSlugLocked):
			return CourseResponse{}, ErrConflict("slug cannot change once attendees are enrolled")
		}
		return CourseResponse{}, internal("Update", err)
	}
	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return CourseResponse{}, internal("Update", err)
	}
	return updated.toDTO(), nil
}

// DELETE /admin/courses/:id
func (s *Service) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return internal("Delete", err)
	}
	log.Printf("[INFO] course deleted: id=%d", id)
	return nil
}

// GET /admin/courses
func (s *Service) List(ctx context.Context) ([]CourseListItem, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, internal("List", err)
	}
	out := make([]CourseListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, CourseListItem{CourseResponse: r.Course.toDTO(), EnrolledCount: r.EnrolledCount})
	}
	return out, nil
}

// GET /admin/courses/:id
func (s *Service) Get(ctx context.Context, id uint64) (CourseDetailResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return CourseDetailResponse{}, internal("Get", err)
	}
	trainers, err := s.trainers(ctx, id)
	if err != nil {
		return CourseDetailResponse{}, err
	}
	days, err := s.days(ctx, id)
	if err != nil {
		return CourseDetailResponse{}, err
	}
	return CourseDetailResponse{
		CourseResponse: c.toDTO(),
		Trainers:       trainers,
		Days:           days,
	}, nil
}

func (s *Service) days(ctx context.Context, courseID uint64) ([]DayResponse, error) {
	days, err := s.store.ListDays(ctx, courseID)
	if err != nil {
		return nil, internal("days", err)
	}
	qs, err := s.store.ListQuestions(ctx, courseID)
	if err != nil {
		return nil, internal("days", err)
	}
	return dayDTOs(days, qs), nil
}

func (s *Service) trainers(ctx context.Context, courseID uint64) ([]TrainerResponse, error) {
	rows, err := s.store.ListTrainers(ctx, courseID)
	if err != nil {
		return nil, internal("trainers", err)
	}
	out := make([]TrainerResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, t.toDTO())
	}
	return out, nil
}

// PUT /admin/courses/:id/days
func (s *Service) PutDays(ctx context.Context, id uint64, req PutDaysRequest) ([]DayResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, internal("PutDays", err)
	}

	edits := make([]DayEdit, 0, len(req.Days))
	seen := map[int]bool{}
	for _, in := range req.Days {
		if in.DayNumber < 1 || in.DayNumber > c.NumDays {
			return nil, ErrInvalid("day_number must be between 1 and num_days")
		}
		if seen[in.DayNumber] {
			return nil, ErrInvalid("day_number must not repeat")
		}
		seen[in.DayNumber] = true

		e := DayEdit{Day: Day{CourseID: id, DayNumber: in.DayNumber, Title: nullStr(in.Title)}}
		if in.Date != nil && *in.Date != "" {
			t, err := time.ParseInLocation(DateLayout, *in.Date, time.UTC)
			if err != nil {
				return nil, ErrInvalid("date must be YYYY-MM-DD")
			}
			e.Date = sql.NullTime{Time: t, Valid: true}
		}
		if in.Hours != nil {
			if *in.Hours < 0 {
				return nil, ErrInvalid("hours must be >= 0")
			}
			e.Hours = *in.Hours
		}
		if in.Questions != nil {
			qs, err := questionsFromInput(in.Questions)
			if err != nil {
				return nil, err
			}
			e.Questions, e.ReplaceQuestions = qs, true
		}
		edits = append(edits, e)
	}

	if err := s.store.UpsertDays(ctx, id, edits); err != nil {
		if errors.Is(err, ErrUnknownQuestion) {
			return nil, ErrInvalid(err.Error())
		}
		return nil, internal("PutDays", err)
	}
	return s.days(ctx, id)
}

// questionsFromInput: 種別の既定は text、必須の既定は true、表示順の既定は並び順
func questionsFromInput(in []QuestionInput) ([]survey.Question, error) {
	out := make([]survey.Question, 0, len(in))
	seen := map[uint64]bool{}
	for i, qi := range in {
		q := survey.Question{
			Text:         strings.TrimSpace(qi.QuestionText),
			Type:         qi.QuestionType,
			Required:     true,
			DisplayOrder: i,
		}
		for _, o := range qi.Options {
			q.Options = append(q.Options, strings.TrimSpace(o))
		}
		if q.Type == "" {
			q.Type = survey.TypeText
		}
		if q.Type != survey.TypeMultipleChoice {
			q.Options = nil
		}
		if qi.Required != nil {
			q.Required = *qi.Required
		}
		if qi.DisplayOrder != nil {
			q.DisplayOrder = *qi.DisplayOrder
		}
		if qi.QuestionID != nil {
			if seen[*qi.QuestionID] {
				return nil, ErrInvalid("question_id must not repeat")
			}
			seen[*qi.QuestionID] = true
			q.QuestionID = *qi.QuestionID
		}
		if err := q.Check(); err != nil {
			return nil, ErrInvalid(err.Error())
		}
		out = append(out, q)
	}
	return out, nil
}

// PUT /admin/courses/:id/trainers
func (s *Service) PutTrainers(ctx context.Context, id uint64, req PutTrainersRequest) ([]TrainerResponse, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, internal("PutTrainers", err)
	}
	trainers := make([]Trainer, 0, len(req.Trainers))
	for i, in := range req.Trainers {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, ErrInvalid("trainer name is required")
		}
		trainers = append(trainers, Trainer{Name: name, Title: nullStr(in.Title), DisplayOrder: i})
	}
	if err := s.store.ReplaceTrainers(ctx, id, trainers); err != nil {
		return nil, internal("PutTrainers", err)
	}
	return s.trainers(ctx, id)
}

func (s *Service) activeBySlug(ctx context.Context, slug string) (Course, error) {
	c, err := s.store.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return Course{}, internal("activeBySlug", err)
	}
	if !c.Active {
		return Course{}, ErrNotFound("course not found")
	}
	return c, nil
}

// GET /courses/:slug
func (s *Service) PublicCourse(ctx context.Context, slug string) (PublicCourseResponse, error) {
	c, err := s.activeBySlug(ctx, slug)
	if err != nil {
		return PublicCourseResponse{}, err
	}
	trainers, err := s.trainers(ctx, c.CourseID)
	if err != nil {
		return PublicCourseResponse{}, err
	}
	return PublicCourseResponse{
		Slug:                c.Slug,
		Name:                c.Name,
		Description:         strPtr(c.Description),
		NumDays:             c.NumDays,
		LogoURL:             strPtr(c.LogoURL),
		DefaultOrganization: strPtr(c.DefaultOrganization),
		Trainers:            trainers,
	}, nil
}

// GET /courses/:slug/days/:day
func (s *Service) PublicDay(ctx context.Context, slug string, dayNumber int) (PublicDayResponse, error) {
	c, err := s.activeBySlug(ctx, slug)
	if err != nil {
		return PublicDayResponse{}, err
	}
	if dayNumber < 1 || dayNumber > c.NumDays {
		return PublicDayResponse{}, ErrInvalid("day must be between 1 and num_days")
	}
	d, err := s.store.EnsureDay(ctx, c.CourseID, dayNumber)
	if err != nil {
		return PublicDayResponse{}, internal("PublicDay", err)
	}
	qs, err := s.store.DayQuestions(ctx, d.CourseDayID)
	if err != nil {
		return PublicDayResponse{}, internal("PublicDay", err)
	}
	return PublicDayResponse{
		CourseSlug:  c.Slug,
		CourseName:  c.Name,
		NumDays:     c.NumDays,
		DayResponse: dayDTOs([]Day{d}, qs)[0],
	}, nil
}
