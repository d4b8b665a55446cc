package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const placeholder = "—"

var titleCaser = cases.Title(language.English)

// CertificateLabel returns "Completion" / "Participation" for a stored type.
func CertificateLabel(certType string) string {
	return titleCaser.String(certType)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// wrapText splits text into lines of at most width characters on word boundaries.
func wrapText(text string, width int) []string {
	var (
		lines []string
		cur   string
	)
	for _, word := range strings.Fields(text) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if len([]rune(next)) <= width {
			cur = next
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func pageCount(rows, perPage int) int {
	n := (rows + perPage - 1) / perPage
	if n == 0 {
		return 1
	}
	return n
}

// ReportPDF renders the paginated attendee report followed by a signature page.
func (r *Renderer) ReportPDF(ctx context.Context, rep ReportView) ([]byte, error) {
	g := reportGeometry
	st := reportStyles
	d := newDoc("P", rep.GeneratedAt, r.opts.Compress)
	d.SetTitle("Training Report - "+rep.Course.Name, true)

	perPage := r.opts.RowsPerPage
	total := pageCount(len(rep.Attendees), perPage)
	dateRange := formatDateRange(DateRange(rep.Days))
	generated := rep.GeneratedAt.Format(dateLayout)

	for page := 0; page < total; page++ {
		d.AddPage()
		y := g.Top

		if page == 0 {
			d.text(g.Left, y, st.Title, "Training Report")
			y += 30
			d.text(g.Left, y, st.Course, rep.Course.Name)
			y += 20

			if rep.Course.Description != "" {
				lines := wrapText(rep.Course.Description, g.DescWidth)
				if len(lines) > g.DescLines {
					lines = lines[:g.DescLines]
				}
				for _, ln := range lines {
					d.text(g.Left, y, st.Body, ln)
					y += 14
				}
			}
			y += 10

			dates := "Dates not set"
			if dateRange != "" {
				dates = "Dates: " + dateRange
			}
			d.text(g.Left, y, st.Body, dates)
			y += 14
			d.text(g.Left, y, st.Body, fmt.Sprintf("Duration: %d days (%s hours)", rep.Course.NumDays, formatHours(rep.TotalHours)))
			y += 14

			if len(rep.Trainers) > 0 {
				names := make([]string, 0, len(rep.Trainers))
				for _, t := range rep.Trainers {
					if t.Title != "" {
						names = append(names, t.Name+", "+t.Title)
					} else {
						names = append(names, t.Name)
					}
				}
				d.text(g.Left, y, st.Body, "Instructor(s): "+strings.Join(names, "; "))
				y += 14
			}

			y += 10
			d.text(g.Left, y, st.Summary, fmt.Sprintf("Total Enrolled: %d", len(rep.Attendees)))
			d.text(200, y, st.Summary, fmt.Sprintf("Completed: %d", rep.CompletedCount))
			d.text(320, y, st.Summary, fmt.Sprintf("Completion Rate: %d%%", rep.CompletionRate()))
			y += 30
		} else {
			d.text(g.Left, y, st.Continued, fmt.Sprintf("Training Report - %s (continued)", rep.Course.Name))
			y += 30
		}

		cols := reportColumns
		for _, c := range []reportColumn{cols.Name, cols.Org, cols.Days, cols.Hours, cols.Cert, cols.Code} {
			d.text(c.X, y, st.ColHeader, c.Header)
		}
		y += 5
		d.line(g.Left, y, g.Right, y, 1, colorPrimary)
		y += 15

		start := page * perPage
		end := start + perPage
		if end > len(rep.Attendees) {
			end = len(rep.Attendees)
		}
		for _, a := range rep.Attendees[start:end] {
			org := placeholder
			if a.Organization != "" {
				org = truncate(a.Organization, g.OrgMax, g.OrgKeep)
			}
			certType, certCode := placeholder, placeholder
			if a.Certificate != nil {
				certType = CertificateLabel(a.Certificate.Type)
				certCode = a.Certificate.Code
			}

			d.text(cols.Name.X, y, st.Cell, truncate(a.FullName, g.NameMax, g.NameKeep))
			d.text(cols.Org.X, y, st.CellMuted, org)
			d.text(cols.Days.X, y, st.Cell, fmt.Sprintf("%d/%d", a.DaysAttended, rep.Course.NumDays))
			d.text(cols.Hours.X, y, st.Cell, formatHours(a.HoursAttended))
			d.text(cols.Cert.X, y, st.Cell, certType)
			d.text(cols.Code.X, y, st.Code, certCode)
			y += g.RowHeight
		}

		d.text(g.PageW/2-30, g.Footer, st.Footer, fmt.Sprintf("Page %d of %d", page+1, total))
		d.text(g.Left, g.Footer, st.Footer, "Generated: "+generated)
		d.text(g.PageW-120, g.Footer, st.Footer, r.opts.CompanyName)
	}

	r.signaturePage(d, rep, dateRange)
	return d.bytes()
}

func (r *Renderer) signaturePage(d *pdfDoc, rep ReportView, dateRange string) {
	g := reportGeometry
	st := reportStyles

	d.AddPage()
	y := g.Top
	d.text(g.Left, y, st.SigTitle, "Training Verification")
	y += 40
	d.text(g.Left, y, st.SigBody, "Course: "+rep.Course.Name)
	y += 20
	if dateRange != "" {
		d.text(g.Left, y, st.SigBody, "Date(s): "+dateRange)
	}
	y += 20
	d.text(g.Left, y, st.SigBody, fmt.Sprintf("Total Attendees: %d", len(rep.Attendees)))
	y += 20
	d.text(g.Left, y, st.SigBody, fmt.Sprintf("Completed: %d", rep.CompletedCount))
	y += 60

	d.text(g.Left, y, st.SigLabel, "Instructor Signature:")
	y += 40
	d.line(g.Left, y, 300, y, 1, colorBlack)
	y += 20
	if len(rep.Trainers) > 0 {
		d.text(g.Left, y, st.SigName, rep.Trainers[0].Name)
	}
	y += 40
	d.text(g.Left, y, st.SigLabel, "Date:")
	y += 40
	d.line(g.Left, y, 200, y, 1, colorBlack)
}
