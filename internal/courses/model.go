package courses

import (
	"database/sql"
	"time"

	"training-backend/internal/survey"
)

const (
	CertCompletion    = "completion"
	CertParticipation = "participation"
	CertBoth          = "both"

	DateLayout = "2006-01-02"
)

// DB行に対応
type Course struct {
	CourseID                uint64
	Slug                    string
	Name                    string
	Description             sql.NullString
	NumDays                 int
	CertificateType         string
	MinDaysForParticipation int
	Active                  bool
	LogoURL                 sql.NullString
	DefaultOrganization     sql.NullString
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type CourseWithCount struct {
	Course
	EnrolledCount int
}

type Day struct {
	CourseDayID uint64
	CourseID    uint64
	DayNumber   int
	Title       sql.NullString
	Date        sql.NullTime
	Hours       float64
}

// DayEdit は PUT /days の1日分。ReplaceQuestions が false の日は設問に触れない。
type DayEdit struct {
	Day
	Questions        []survey.Question
	ReplaceQuestions bool
}

type Trainer struct {
	TrainerID    uint64
	Name         string
	Title        sql.NullString
	DisplayOrder int
}

func nullStr(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (c Course) toDTO() CourseResponse {
	return CourseResponse{
		CourseID:                c.CourseID,
		Slug:                    c.Slug,
		Name:                    c.Name,
		Description:             strPtr(c.Description),
		NumDays:                 c.NumDays,
		CertificateType:         c.CertificateType,
		MinDaysForParticipation: c.MinDaysForParticipation,
		Active:                  c.Active,
		LogoURL:                 strPtr(c.LogoURL),
		DefaultOrganization:     strPtr(c.DefaultOrganization),
		CreatedAt:               c.CreatedAt.UTC(),
		UpdatedAt:               c.UpdatedAt.UTC(),
	}
}

func (d Day) toDTO() DayResponse {
	out := DayResponse{
		DayNumber: d.DayNumber,
		Title:     strPtr(d.Title),
		Hours:     d.Hours,
		Questions: []QuestionResponse{},
	}
	if d.Date.Valid {
		s := d.Date.Time.Format(DateLayout)
		out.Date = &s
	}
	return out
}

func (t Trainer) toDTO() TrainerResponse {
	return TrainerResponse{Name: t.Name, Title: strPtr(t.Title), DisplayOrder: t.DisplayOrder}
}

func questionDTO(q survey.Question) QuestionResponse {
	return QuestionResponse{
		QuestionID:   q.QuestionID,
		QuestionText: q.Text,
		QuestionType: q.Type,
		Options:      q.Options,
		Required:     q.Required,
		DisplayOrder: q.DisplayOrder,
	}
}

// dayDTOs: 設問は course_day_id ごとに振り分ける（qs は表示順に並んでいる前提）
func dayDTOs(days []Day, qs []survey.Question) []DayResponse {
	byDay := map[uint64][]QuestionResponse{}
	for _, q := range qs {
		byDay[q.CourseDayID] = append(byDay[q.CourseDayID], questionDTO(q))
	}
	out := make([]DayResponse, 0, len(days))
	for _, d := range days {
		r := d.toDTO()
		if dq := byDay[d.CourseDayID]; dq != nil {
			r.Questions = dq
		}
		out = append(out, r)
	}
	return out
}
