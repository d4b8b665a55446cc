package reports

import (
	"database/sql"
	"time"
)

type courseRow struct {
	CourseID    uint64
	Slug        string
	Name        string
	Description sql.NullString
	NumDays     int
}

type trainerRow struct {
	Name  string
	Title sql.NullString
}

type dayRow struct {
	DayNumber int
	Title     sql.NullString
	Date      sql.NullTime
	Hours     float64
}

type attendeeRow struct {
	EnrollmentID     uint64
	FullName         string
	Email            string
	Organization     sql.NullString
	CertificateType  sql.NullString
	VerificationCode sql.NullString
	IssuedAt         sql.NullTime
}

type checkInRow struct {
	EnrollmentID uint64
	DayNumber    int
}

// reportData: 1コース分のレポート元データ
type reportData struct {
	Course    courseRow
	Trainers  []trainerRow
	Days      []dayRow
	Attendees []attendeeRow
	CheckIns  []checkInRow
}

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

type Report struct {
	Filename    string
	ContentType string
	Body        []byte
	GeneratedAt time.Time
}
