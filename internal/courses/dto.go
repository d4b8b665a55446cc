package courses

import "time"

type CreateCourseRequest struct {
	Slug                    string  `json:"slug" binding:"required"`
	Name                    string  `json:"name" binding:"required"`
	Description             *string `json:"description,omitempty"`
	NumDays                 *int    `json:"num_days,omitempty"`
	CertificateType         *string `json:"certificate_type,omitempty" binding:"omitempty,oneof=completion participation both"`
	MinDaysForParticipation *int    `json:"min_days_for_participation,omitempty"`
	Active                  *bool   `json:"active,omitempty"`
	LogoURL                 *string `json:"logo_url,omitempty"`
	DefaultOrganization     *string `json:"default_organization,omitempty"`
}

// 部分更新: nil のフィールドは変更しない
type UpdateCourseRequest struct {
	Slug                    *string `json:"slug,omitempty"`
	Name                    *string `json:"name,omitempty"`
	Description             *string `json:"description,omitempty"`
	NumDays                 *int    `json:"num_days,omitempty"`
	CertificateType         *string `json:"certificate_type,omitempty" binding:"omitempty,oneof=completion participation both"`
	MinDaysForParticipation *int    `json:"min_days_for_participation,omitempty"`
	Active                  *bool   `json:"active,omitempty"`
	LogoURL                 *string `json:"logo_url,omitempty"`
	DefaultOrganization     *string `json:"default_organization,omitempty"`
}

type DayInput struct {
	DayNumber int      `json:"day_number" binding:"required,min=1"`
	Title     *string  `json:"title,omitempty"`
	Date      *string  `json:"date,omitempty"` // YYYY-MM-DD
	Hours     *float64 `json:"hours,omitempty" binding:"omitempty,min=0,max=24"`
	// nil（キーなし）は設問を変更しない。[] は全削除。
	Questions []QuestionInput `json:"questions" binding:"dive"`
}

// QuestionID なしは新規、ありは既存設問の更新。リストに無い既存設問は削除する。
type QuestionInput struct {
	QuestionID   *uint64  `json:"question_id,omitempty"`
	QuestionText string   `json:"question_text" binding:"required"`
	QuestionType string   `json:"question_type,omitempty" binding:"omitempty,oneof=text rating multiple_choice yes_no"`
	Options      []string `json:"options,omitempty"`
	Required     *bool    `json:"required,omitempty"`
	DisplayOrder *int     `json:"display_order,omitempty"`
}

type PutDaysRequest struct {
	Days []DayInput `json:"days" binding:"required,dive"`
}

type TrainerInput struct {
	Name  string  `json:"name" binding:"required"`
	Title *string `json:"title,omitempty"`
}

type PutTrainersRequest struct {
	Trainers []TrainerInput `json:"trainers" binding:"dive"`
}

type CourseResponse struct {
	CourseID                uint64    `json:"course_id"`
	Slug                    string    `json:"slug"`
	Name                    string    `json:"name"`
	Description             *string   `json:"description,omitempty"`
	NumDays                 int       `json:"num_days"`
	CertificateType         string    `json:"certificate_type"`
	MinDaysForParticipation int       `json:"min_days_for_participation"`
	Active                  bool      `json:"active"`
	LogoURL                 *string   `json:"logo_url,omitempty"`
	DefaultOrganization     *string   `json:"default_organization,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type CourseListItem struct {
	CourseResponse
	EnrolledCount int `json:"enrolled_count"`
}

type DayResponse struct {
	DayNumber int                `json:"day_number"`
	Title     *string            `json:"title,omitempty"`
	Date      *string            `json:"date,omitempty"`
	Hours     float64            `json:"hours"`
	Questions []QuestionResponse `json:"questions"`
}

type QuestionResponse struct {
	QuestionID   uint64   `json:"question_id"`
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options,omitempty"`
	Required     bool     `json:"required"`
	DisplayOrder int      `json:"display_order"`
}

type TrainerResponse struct {
	Name         string  `json:"name"`
	Title        *string `json:"title,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

type CourseDetailResponse struct {
	CourseResponse
	Trainers []TrainerResponse `json:"trainers"`
	Days     []DayResponse     `json:"days"`
}

// 公開ページ（チェックイン画面）向け
type PublicCourseResponse struct {
	Slug                string            `json:"slug"`
	Name                string            `json:"name"`
	Description         *string           `json:"description,omitempty"`
	NumDays             int               `json:"num_days"`
	LogoURL             *string           `json:"logo_url,omitempty"`
	DefaultOrganization *string           `json:"default_organization,omitempty"`
	Trainers            []TrainerResponse `json:"trainers"`
}

type PublicDayResponse struct {
	CourseSlug string `json:"course_slug"`
	CourseName string `json:"course_name"`
	NumDays    int    `json:"num_days"`
	DayResponse
}
