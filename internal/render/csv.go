package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReportCSV writes the spreadsheet form of the report. Lines starting with
// "#" carry course metadata ahead of the header row. When bom is true the
// output is prefixed with a UTF-8 BOM so Excel detects the encoding.
func ReportCSV(w io.Writer, rep ReportView, bom bool) (err error) {
	if bom {
		tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		defer func() {
			if cerr := tw.Close(); err == nil {
				err = cerr
			}
		}()
		w = tw
	}

	meta := []string{
		"# Training Report: " + rep.Course.Name,
	}
	if rep.Course.Description != "" {
		desc := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(rep.Course.Description)
		meta = append(meta, "# Description: "+desc)
	}
	meta = append(meta, fmt.Sprintf("# Days: %d, Total Hours: %s", rep.Course.NumDays, formatHours(rep.TotalHours)))
	if len(rep.Trainers) > 0 {
		names := make([]string, 0, len(rep.Trainers))
		for _, t := range rep.Trainers {
			names = append(names, t.Name)
		}
		meta = append(meta, "# Instructor(s): "+strings.Join(names, ", "))
	}
	meta = append(meta, "# Generated: "+rep.GeneratedAt.UTC().Format(time.RFC3339), "")

	for _, m := range meta {
		if _, err := io.WriteString(w, m+"\n"); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"Full Name", "Email", "Organization", "Days Attended", "Hours Attended"}
	for day := 1; day <= rep.Course.NumDays; day++ {
		header = append(header, "Day "+strconv.Itoa(day))
	}
	header = append(header, "Certificate Type", "Verification Code", "Issued Date")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, a := range rep.Attendees {
		row := []string{
			a.FullName,
			a.Email,
			a.Organization,
			strconv.Itoa(a.DaysAttended),
			formatHours(a.HoursAttended),
		}
		for day := 1; day <= rep.Course.NumDays; day++ {
			if a.Attended(day) {
				row = append(row, "Y")
			} else {
				row = append(row, "N")
			}
		}
		if c := a.Certificate; c != nil {
			row = append(row, c.Type, c.Code, c.IssuedAt.UTC().Format("2006-01-02"))
		} else {
			row = append(row, "", "", "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
