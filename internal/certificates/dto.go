package certificates

import "time"

type GenerateResponse struct {
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	RunID     string `json:"run_id"`
}

type VerificationResponse struct {
	VerificationCode string     `json:"verification_code"`
	CertificateType  string     `json:"certificate_type"`
	AttendeeName     string     `json:"attendee_name"`
	CourseName       string     `json:"course_name"`
	CourseSlug       string     `json:"course_slug"`
	DaysAttended     int        `json:"days_attended"`
	TotalDays        int        `json:"total_days"`
	IssuedAt         time.Time  `json:"issued_at"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Trainers         []string   `json:"trainers"`
	LogoURL          *string    `json:"logo_url,omitempty"`
}

type CertificateListItem struct {
	CertificateID    uint64     `json:"certificate_id"`
	EnrollmentID     uint64     `json:"enrollment_id"`
	CertificateType  string     `json:"certificate_type"`
	VerificationCode string     `json:"verification_code"`
	AttendeeName     string     `json:"attendee_name"`
	AttendeeEmail    string     `json:"attendee_email"`
	DaysAttended     int        `json:"days_attended"`
	TotalDays        int        `json:"total_days"`
	IssuedAt         time.Time  `json:"issued_at"`
	EmailedAt        *time.Time `json:"emailed_at,omitempty"`
}

type SendRequest struct {
	CertificateIDs []uint64 `json:"certificate_ids" binding:"required,min=1"`
}

type SendResponse struct {
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
	RunID  string `json:"run_id,omitempty"`
}
