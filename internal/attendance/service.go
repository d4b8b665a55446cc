package attendance

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"training-backend/internal/survey"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type attendanceStore interface {
	CourseBySlug(ctx context.Context, slug string) (courseRef, error)
	CourseByID(ctx context.Context, id uint64) (courseRef, error)
	DayQuestions(ctx context.Context, courseID uint64, dayNumber int) ([]survey.Question, error)
	CheckIn(ctx context.Context, in CheckIn) (Record, error)
	ListByCourse(ctx context.Context, courseID uint64) ([]attendanceRow, error)
}

type Service struct {
	store attendanceStore
	clock Clock
}

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn), clock: realClock{}}
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func internal(op string, err error) error {
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	log.Printf("[ERROR] attendance.%s: %v", op, err)
	return ErrInternal("internal error")
}

// POST /attendance
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error) {
	email := NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.FullName)
	slug := strings.ToLower(strings.TrimSpace(req.CourseSlug))
	if slug == "" {
		return CheckInResponse{}, ErrInvalid("course_slug is required")
	}
	if name == "" {
		return CheckInResponse{}, ErrInvalid("full_name is required")
	}
	// "Name <addr>" 形式は受講者キーにならないので素のアドレスだけ通す
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return CheckInResponse{}, ErrInvalid("email is invalid")
	}

	course, err := s.store.CourseBySlug(ctx, slug)
	if err != nil {
		return CheckInResponse{}, internal("CheckIn", err)
	}
	if !course.Active {
		return CheckInResponse{}, ErrNotFound("course not found")
	}
	if req.DayNumber < 1 || req.DayNumber > course.NumDays {
		return CheckInResponse{}, ErrInvalid("day_number must be between 1 and num_days")
	}

	questions, err := s.store.DayQuestions(ctx, course.CourseID, req.DayNumber)
	if err != nil {
		return CheckInResponse{}, internal("CheckIn", err)
	}
	answers, err := survey.Answers(questions, req.Responses)
	if err != nil {
		return CheckInResponse{}, ErrInvalid(err.Error())
	}

	in := CheckIn{
		CourseID:            course.CourseID,
		DayNumber:           req.DayNumber,
		Email:               email,
		FullName:            name,
		DefaultOrganization: course.DefaultOrganization,
		At:                  s.clock.Now(),
		Responses:           answers,
	}
	if req.Organization != nil {
		if org := strings.TrimSpace(*req.Organization); org != "" {
			in.Organization = sql.NullString{String: org, Valid: true}
		}
	}

	rec, err := s.store.CheckIn(ctx, in)
	if err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return CheckInResponse{}, ErrConflict("already checked in")
		}
		return CheckInResponse{}, internal("CheckIn", err)
	}
	log.Printf("[INFO] check-in: course=%d day=%d enrollment=%d", course.CourseID, req.DayNumber, rec.EnrollmentID)

	res := rec.toDTO(course, in)
	res.CourseSlug = slug
	return res, nil
}

// GET /admin/courses/:id/attendance
func (s *Service) ListByCourse(ctx context.Context, courseID uint64) (CourseAttendanceResponse, error) {
	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return CourseAttendanceResponse{}, internal("ListByCourse", err)
	}
	rows, err := s.store.ListByCourse(ctx, courseID)
	if err != nil {
		return CourseAttendanceResponse{}, internal("ListByCourse", err)
	}
	attendees := groupRows(rows)
	return CourseAttendanceResponse{
		CourseID:  course.CourseID,
		NumDays:   course.NumDays,
		Attendees: attendees,
		Total:     len(attendees),
	}, nil
}
