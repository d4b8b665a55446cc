package attendance

import (
	"database/sql"
	"time"
)

// チェックイン対象コースの最小情報
type courseRef struct {
	CourseID            uint64
	Name                string
	NumDays             int
	Active              bool
	DefaultOrganization sql.NullString
}

// Store.CheckIn への入力（正規化済み）
type CheckIn struct {
	CourseID            uint64
	DayNumber           int
	Email               string
	FullName            string
	Organization        sql.NullString
	DefaultOrganization sql.NullString
	At                  time.Time
	// 検証済みの設問回答（設問ID → 値）
	Responses map[uint64]string
}

type Record struct {
	AttendanceID uint64
	EnrollmentID uint64
	AttendeeID   uint64
	CourseDayID  uint64
	CheckedInAt  time.Time
}

// 一覧用の行（enrollment × attendance の LEFT JOIN）
type attendanceRow struct {
	EnrollmentID uint64
	AttendeeID   uint64
	Email        string
	FullName     string
	Organization sql.NullString
	DayNumber    sql.NullInt64
	CheckedInAt  sql.NullTime
}

func (r Record) toDTO(c courseRef, in CheckIn) CheckInResponse {
	return CheckInResponse{
		AttendanceID: r.AttendanceID,
		EnrollmentID: r.EnrollmentID,
		CourseName:   c.Name,
		DayNumber:    in.DayNumber,
		Email:        in.Email,
		FullName:     in.FullName,
		CheckedInAt:  r.CheckedInAt.UTC(),
		Responses:    len(in.Responses),
	}
}

// groupRows: 行は enrollment 単位で連続している前提
func groupRows(rows []attendanceRow) []AttendeeAttendance {
	out := make([]AttendeeAttendance, 0)
	for _, r := range rows {
		if n := len(out); n == 0 || out[n-1].EnrollmentID != r.EnrollmentID {
			a := AttendeeAttendance{
				EnrollmentID: r.EnrollmentID,
				AttendeeID:   r.AttendeeID,
				Email:        r.Email,
				FullName:     r.FullName,
				Days:         []DayCheckIn{},
			}
			if r.Organization.Valid {
				org := r.Organization.String
				a.Organization = &org
			}
			out = append(out, a)
		}
		if !r.DayNumber.Valid {
			continue
		}
		cur := &out[len(out)-1]
		cur.Days = append(cur.Days, DayCheckIn{DayNumber: int(r.DayNumber.Int64), CheckedInAt: r.CheckedInAt.Time.UTC()})
		cur.DaysAttended++
	}
	return out
}
