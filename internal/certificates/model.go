package certificates

import (
	"database/sql"
	"time"

	"training-backend/internal/render"
)

type coursePolicy struct {
	CourseID uint64
	Slug     string
	Name     string
	Policy
}

// 未発行の受講登録と出席日数
type enrollmentCount struct {
	EnrollmentID uint64
	DaysAttended int
}

type Certificate struct {
	CertificateID    uint64
	EnrollmentID     uint64
	CertificateType  string
	VerificationCode string
	DaysAttended     int
	TotalDays        int
	IssuedAt         time.Time
	EmailedAt        sql.NullTime
}

// 証明書 + 受講者/コースの表示用情報
type certificateDetail struct {
	Certificate
	AttendeeName  string
	AttendeeEmail string
	CourseID      uint64
	CourseSlug    string
	CourseName    string
	LogoURL       sql.NullString
	Trainers      []string
	StartDate     sql.NullTime
	EndDate       sql.NullTime
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func (d certificateDetail) view() render.CertificateView {
	return render.CertificateView{
		CertificateType:  d.CertificateType,
		VerificationCode: d.VerificationCode,
		DaysAttended:     d.DaysAttended,
		TotalDays:        d.TotalDays,
		IssuedAt:         d.IssuedAt.UTC(),
		AttendeeName:     d.AttendeeName,
		CourseName:       d.CourseName,
		LogoURL:          d.LogoURL.String,
		Trainers:         d.Trainers,
		StartDate:        timePtr(d.StartDate),
		EndDate:          timePtr(d.EndDate),
	}
}

func (d certificateDetail) toVerification() VerificationResponse {
	out := VerificationResponse{
		VerificationCode: d.VerificationCode,
		CertificateType:  d.CertificateType,
		AttendeeName:     d.AttendeeName,
		CourseName:       d.CourseName,
		CourseSlug:       d.CourseSlug,
		DaysAttended:     d.DaysAttended,
		TotalDays:        d.TotalDays,
		IssuedAt:         d.IssuedAt.UTC(),
		StartDate:        timePtr(d.StartDate),
		EndDate:          timePtr(d.EndDate),
		Trainers:         d.Trainers,
	}
	if out.Trainers == nil {
		out.Trainers = []string{}
	}
	if d.LogoURL.Valid {
		u := d.LogoURL.String
		out.LogoURL = &u
	}
	return out
}

func (d certificateDetail) toListItem() CertificateListItem {
	return CertificateListItem{
		CertificateID:    d.CertificateID,
		EnrollmentID:     d.EnrollmentID,
		CertificateType:  d.CertificateType,
		VerificationCode: d.VerificationCode,
		AttendeeName:     d.AttendeeName,
		AttendeeEmail:    d.AttendeeEmail,
		DaysAttended:     d.DaysAttended,
		TotalDays:        d.TotalDays,
		IssuedAt:         d.IssuedAt.UTC(),
		EmailedAt:        timePtr(d.EmailedAt),
	}
}
