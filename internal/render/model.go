package render

import (
	"time"
	"unicode/utf8"
)

const (
	TypeCompletion    = "completion"
	TypeParticipation = "participation"

	dateLayout = "January 2, 2006"
)

// CertificateView is the snapshot a certificate PDF is rendered from.
type CertificateView struct {
	CertificateType  string
	VerificationCode string
	DaysAttended     int
	TotalDays        int
	IssuedAt         time.Time

	AttendeeName string
	CourseName   string
	LogoURL      string
	Trainers     []string
	StartDate    *time.Time
	EndDate      *time.Time
}

type Trainer struct {
	Name  string
	Title string
}

type ReportCourse struct {
	Slug        string
	Name        string
	Description string
	NumDays     int
}

type ReportDay struct {
	DayNumber int
	Title     string
	Date      *time.Time
	Hours     float64
}

type ReportCertificate struct {
	Type     string
	Code     string
	IssuedAt time.Time
}

type ReportAttendee struct {
	FullName      string
	Email         string
	Organization  string
	DaysAttended  int
	HoursAttended float64
	AttendedDays  []int
	Certificate   *ReportCertificate
}

// Attended reports whether the attendee checked in on the given day number.
func (a ReportAttendee) Attended(day int) bool {
	for _, d := range a.AttendedDays {
		if d == day {
			return true
		}
	}
	return false
}

// ReportView is the snapshot a training report (PDF or CSV) is rendered from.
type ReportView struct {
	Course         ReportCourse
	Trainers       []Trainer
	Days           []ReportDay
	Attendees      []ReportAttendee
	TotalHours     float64
	CompletedCount int
	GeneratedAt    time.Time
}

func (r ReportView) CompletionRate() int {
	if len(r.Attendees) == 0 {
		return 0
	}
	return int(float64(r.CompletedCount)/float64(len(r.Attendees))*100 + 0.5)
}

// DateRange returns the first and last non-null day dates in day order.
func DateRange(days []ReportDay) (start, end *time.Time) {
	for i := range days {
		if days[i].Date == nil {
			continue
		}
		if start == nil {
			start = days[i].Date
		}
		end = days[i].Date
	}
	return start, end
}

func formatDateRange(start, end *time.Time) string {
	if start == nil {
		return ""
	}
	s := start.Format(dateLayout)
	if end == nil {
		return s
	}
	e := end.Format(dateLayout)
	if s == e {
		return s
	}
	return s + " – " + e
}

// truncate cuts s to keep runes plus "..." when it is longer than max runes.
func truncate(s string, max, keep int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:keep]) + "..."
}
