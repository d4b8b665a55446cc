package reports

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"training-backend/internal/render"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type reportStore interface {
	GetReportData(ctx context.Context, courseID uint64) (reportData, error)
}

type pdfRenderer interface {
	ReportPDF(ctx context.Context, rep render.ReportView) ([]byte, error)
}

type Options struct {
	CSVBOM bool
}

type Service struct {
	store reportStore
	pdf   pdfRenderer
	clock Clock
	opts  Options
}

func NewService(conn *sql.DB, pdf *render.Renderer, opts Options) *Service {
	return &Service{store: NewStore(conn), pdf: pdf, clock: realClock{}, opts: opts}
}

func internal(op string, err error) error {
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	log.Printf("[ERROR] reports.%s: %v", op, err)
	return ErrInternal("internal error")
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// buildView: 出席は 1..num_days の日だけを数える
func buildView(d reportData, now time.Time) render.ReportView {
	numDays := d.Course.NumDays
	v := render.ReportView{
		Course: render.ReportCourse{
			Slug:        d.Course.Slug,
			Name:        d.Course.Name,
			Description: d.Course.Description.String,
			NumDays:     numDays,
		},
		Trainers:    make([]render.Trainer, 0, len(d.Trainers)),
		Days:        make([]render.ReportDay, 0, len(d.Days)),
		Attendees:   make([]render.ReportAttendee, 0, len(d.Attendees)),
		GeneratedAt: now,
	}
	for _, t := range d.Trainers {
		v.Trainers = append(v.Trainers, render.Trainer{Name: t.Name, Title: t.Title.String})
	}

	hours := map[int]float64{}
	for _, day := range d.Days {
		if day.DayNumber < 1 || day.DayNumber > numDays {
			continue
		}
		hours[day.DayNumber] = day.Hours
		v.TotalHours += day.Hours
		v.Days = append(v.Days, render.ReportDay{
			DayNumber: day.DayNumber,
			Title:     day.Title.String,
			Date:      nullTime(day.Date),
			Hours:     day.Hours,
		})
	}

	attended := map[uint64][]int{}
	for _, ci := range d.CheckIns {
		if ci.DayNumber >= 1 && ci.DayNumber <= numDays {
			attended[ci.EnrollmentID] = append(attended[ci.EnrollmentID], ci.DayNumber)
		}
	}

	for _, a := range d.Attendees {
		ra := render.ReportAttendee{
			FullName:     a.FullName,
			Email:        a.Email,
			Organization: a.Organization.String,
			AttendedDays: attended[a.EnrollmentID],
		}
		ra.DaysAttended = len(ra.AttendedDays)
		for _, n := range ra.AttendedDays {
			ra.HoursAttended += hours[n]
		}
		if a.VerificationCode.Valid {
			ra.Certificate = &render.ReportCertificate{
				Type:     a.CertificateType.String,
				Code:     a.VerificationCode.String,
				IssuedAt: a.IssuedAt.Time.UTC(),
			}
		}
		if ra.DaysAttended >= numDays {
			v.CompletedCount++
		}
		v.Attendees = append(v.Attendees, ra)
	}
	return v
}

// GET /admin/courses/:id/report/:format
func (s *Service) Render(ctx context.Context, courseID uint64, format string) (Report, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPDF && format != FormatCSV {
		return Report{}, ErrInvalid("format must be pdf or csv")
	}

	data, err := s.store.GetReportData(ctx, courseID)
	if err != nil {
		return Report{}, internal("Render", err)
	}
	now := s.clock.Now()
	view := buildView(data, now)
	base := "training-report-" + data.Course.Slug

	switch format {
	case FormatPDF:
		body, err := s.pdf.ReportPDF(ctx, view)
		if err != nil {
			return Report{}, internal("Render", err)
		}
		return Report{Filename: base + ".pdf", ContentType: "application/pdf", Body: body, GeneratedAt: now}, nil
	default:
		var buf bytes.Buffer
		if err := render.ReportCSV(&buf, view, s.opts.CSVBOM); err != nil {
			return Report{}, internal("Render", err)
		}
		return Report{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8", Body: buf.Bytes(), GeneratedAt: now}, nil
	}
}
