package render

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

func certificateTitle(certType string) string {
	if certType == TypeCompletion {
		return "Certificate of Completion"
	}
	return "Certificate of Participation"
}

func certificateAction(certType string) string {
	if certType == TypeCompletion {
		return "has successfully completed"
	}
	return "has participated in"
}

// courseNameStyle shrinks long course names so they stay inside the border.
func courseNameStyle(base textStyle, name string) textStyle {
	if utf8.RuneCountInString(name) > certificateGeometry.LongCourseName {
		base.Font.Size = certificateGeometry.LongCourseSize
	}
	return base
}

func (r *Renderer) certificateTexts(v CertificateView) map[certField]string {
	texts := map[certField]string{
		fieldTitle:     certificateTitle(v.CertificateType),
		fieldCertifies: "This certifies that",
		fieldAttendee:  v.AttendeeName,
		fieldAction:    certificateAction(v.CertificateType),
		fieldCourse:    v.CourseName,
		fieldDays:      fmt.Sprintf("Attended %d of %d days", v.DaysAttended, v.TotalDays),
		fieldIssued:    "Issued: " + v.IssuedAt.Format(dateLayout),
		fieldCompany:   r.opts.CompanyName,
		fieldCode:      "Verification Code: " + v.VerificationCode,
	}
	if dr := formatDateRange(v.StartDate, v.EndDate); dr != "" {
		texts[fieldDates] = "Course Dates: " + dr
	}

	var names []string
	for _, t := range v.Trainers {
		if t = strings.TrimSpace(t); t != "" {
			names = append(names, t)
		}
	}
	switch len(names) {
	case 0:
	case 1:
		texts[fieldInstructor] = "Instructor: " + names[0]
	default:
		texts[fieldInstructor] = "Instructors: " + strings.Join(names, ", ")
	}
	return texts
}

// CertificatePDF renders a single landscape certificate page.
func (r *Renderer) CertificatePDF(ctx context.Context, v CertificateView) ([]byte, error) {
	g := certificateGeometry
	d := newDoc("L", v.IssuedAt, r.opts.Compress)
	d.SetTitle(certificateTitle(v.CertificateType), true)
	d.SetSubject(v.VerificationCode, true)
	d.AddPage()

	// 二重枠
	for _, fr := range []frame{g.Outer, g.Inner} {
		d.SetDrawColor(fr.Color.R, fr.Color.G, fr.Color.B)
		d.SetLineWidth(fr.Width)
		d.Rect(fr.Inset, fr.Inset, g.PageW-2*fr.Inset, g.PageH-2*fr.Inset, "D")
	}

	if logo, ok := r.loadLogo(ctx, d, v.LogoURL); ok {
		// 透かし: 全テキストより先に描く
		w, h := fit(logo.width, logo.height, g.WatermarkBox)
		d.SetAlpha(g.WatermarkOpacity, "Normal")
		d.image(logo, (g.PageW-w)/2, (g.PageH-h)/2, w, h)
		d.SetAlpha(1, "Normal")

		sw := logo.width * g.LogoHeight / logo.height
		d.image(logo, (g.PageW-sw)/2, g.LogoTop, sw, g.LogoHeight)
	}

	d.line(g.PageW/2-g.RuleHalfWidth, g.RuleY, g.PageW/2+g.RuleHalfWidth, g.RuleY, g.RuleWidth, colorGold)

	texts := r.certificateTexts(v)
	for _, ln := range certificateLines {
		s, ok := texts[ln.Field]
		if !ok || s == "" {
			continue
		}
		style := ln.Style
		if ln.Field == fieldCourse {
			style = courseNameStyle(style, s)
		}
		d.centered(g.PageW, ln.Baseline, style, s)
	}

	return d.bytes()
}
