package attendance

import "time"

type CheckInRequest struct {
	CourseSlug   string  `json:"course_slug" binding:"required"`
	DayNumber    int     `json:"day_number" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	FullName     string  `json:"full_name" binding:"required"`
	Organization *string `json:"organization,omitempty"`
	// 設問ID → 回答。値は文字列（数値・真偽値も受け付ける）
	Responses map[uint64]any `json:"responses,omitempty"`
}

type CheckInResponse struct {
	AttendanceID uint64    `json:"attendance_id"`
	EnrollmentID uint64    `json:"enrollment_id"`
	CourseSlug   string    `json:"course_slug"`
	CourseName   string    `json:"course_name"`
	DayNumber    int       `json:"day_number"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	Responses    int       `json:"responses_saved"`
}

type DayCheckIn struct {
	DayNumber   int       `json:"day_number"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

type AttendeeAttendance struct {
	EnrollmentID uint64       `json:"enrollment_id"`
	AttendeeID   uint64       `json:"attendee_id"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Organization *string      `json:"organization,omitempty"`
	DaysAttended int          `json:"days_attended"`
	Days         []DayCheckIn `json:"days"`
}

type CourseAttendanceResponse struct {
	CourseID  uint64               `json:"course_id"`
	NumDays   int                  `json:"num_days"`
	Attendees []AttendeeAttendance `json:"attendees"`
	Total     int                  `json:"total"`
}
