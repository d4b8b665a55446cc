package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-backend/internal/survey"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type pair struct {
	enrollment uint64
	day        int
}

// fakeStore は (enrollment, day) の一意制約だけを再現する
type fakeStore struct {
	courses     map[string]courseRef
	attendees   map[string]uint64
	orgs        map[uint64]sql.NullString
	names       map[uint64]string
	enrollments map[[2]uint64]uint64
	rows        map[pair]time.Time
	questions   map[pair][]survey.Question // (course_id, day) ごと
	responses   map[uint64]map[uint64]string
	seq         uint64
}

func newFakeStore(courses ...courseRef) *fakeStore {
	f := &fakeStore{
		courses:     map[string]courseRef{},
		attendees:   map[string]uint64{},
		orgs:        map[uint64]sql.NullString{},
		names:       map[uint64]string{},
		enrollments: map[[2]uint64]uint64{},
		rows:        map[pair]time.Time{},
		questions:   map[pair][]survey.Question{},
		responses:   map[uint64]map[uint64]string{},
	}
	for _, c := range courses {
		f.courses[c.Name] = c
	}
	return f
}

func (f *fakeStore) CourseBySlug(_ context.Context, slug string) (courseRef, error) {
	c, ok := f.courses[slug]
	if !ok {
		return courseRef{}, ErrNotFound("course not found")
	}
	return c, nil
}

func (f *fakeStore) CourseByID(_ context.Context, id uint64) (courseRef, error) {
	for _, c := range f.courses {
		if c.CourseID == id {
			return c, nil
		}
	}
	return courseRef{}, ErrNotFound("course not found")
}

func (f *fakeStore) DayQuestions(_ context.Context, courseID uint64, day int) ([]survey.Question, error) {
	return f.questions[pair{courseID, day}], nil
}

func (f *fakeStore) CheckIn(_ context.Context, in CheckIn) (Record, error) {
	aid, ok := f.attendees[in.Email]
	if !ok {
		f.seq++
		aid = f.seq
		f.attendees[in.Email] = aid
		f.orgs[aid] = in.DefaultOrganization
	}
	if in.Organization.Valid {
		f.orgs[aid] = in.Organization
	}
	f.names[aid] = in.FullName

	key := [2]uint64{aid, in.CourseID}
	eid, ok := f.enrollments[key]
	if !ok {
		f.seq++
		eid = f.seq
		f.enrollments[key] = eid
	}
	p := pair{eid, in.DayNumber}
	if _, dup := f.rows[p]; dup {
		return Record{}, ErrAlreadyCheckedIn
	}
	f.rows[p] = in.At
	f.seq++
	if len(in.Responses) > 0 {
		f.responses[f.seq] = in.Responses
	}
	return Record{AttendanceID: f.seq, EnrollmentID: eid, AttendeeID: aid, CheckedInAt: in.At}, nil
}

func (f *fakeStore) ListByCourse(context.Context, uint64) ([]attendanceRow, error) {
	return nil, nil
}

var now = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newTestService(f *fakeStore) *Service {
	return &Service{store: f, clock: fixedClock{now}}
}

// slug をキーに引けるよう Name に slug を入れている
var bio = courseRef{CourseID: 1, Name: "bio", NumDays: 3, Active: true}

func TestCheckInDuplicateIsConflict(t *testing.T) {
	f := newFakeStore(bio)
	svc := newTestService(f)
	ctx := context.Background()
	req := CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "Jane@Example.com ", FullName: "Jane Doe"}

	res, err := svc.CheckIn(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.Email)
	assert.Equal(t, now, res.CheckedInAt)

	_, err = svc.CheckIn(ctx, req)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
	assert.Equal(t, "already checked in", api.Message)
	assert.Len(t, f.rows, 1)

	// 別の日は受け付ける
	req.DayNumber = 2
	_, err = svc.CheckIn(ctx, req)
	require.NoError(t, err)
	assert.Len(t, f.rows, 2)
	assert.Len(t, f.enrollments, 1)
}

func TestCheckInValidation(t *testing.T) {
	inactive := courseRef{CourseID: 2, Name: "old", NumDays: 1}
	tests := []struct {
		name string
		req  CheckInRequest
		code Code
	}{
		{"day zero", CheckInRequest{CourseSlug: "bio", DayNumber: 0, Email: "a@b.co", FullName: "A"}, CodeInvalidArgument},
		{"day beyond course", CheckInRequest{CourseSlug: "bio", DayNumber: 4, Email: "a@b.co", FullName: "A"}, CodeInvalidArgument},
		{"bad email", CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "not-an-email", FullName: "A"}, CodeInvalidArgument},
		{"display-name email", CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "jane <jane@example.com>", FullName: "A"}, CodeInvalidArgument},
		{"blank name", CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "a@b.co", FullName: "  "}, CodeInvalidArgument},
		{"unknown course", CheckInRequest{CourseSlug: "nope", DayNumber: 1, Email: "a@b.co", FullName: "A"}, CodeNotFound},
		{"inactive course", CheckInRequest{CourseSlug: "old", DayNumber: 1, Email: "a@b.co", FullName: "A"}, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore(bio, inactive)
			_, err := newTestService(f).CheckIn(context.Background(), tt.req)
			var api *APIError
			require.ErrorAs(t, err, &api)
			assert.Equal(t, tt.code, api.Code)
			assert.Empty(t, f.rows)
		})
	}
}

func TestCheckInKeepsOrganization(t *testing.T) {
	f := newFakeStore(bio)
	svc := newTestService(f)
	ctx := context.Background()
	org := "Acme Labs"

	_, err := svc.CheckIn(ctx, CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "a@b.co", FullName: "Al", Organization: &org})
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, CheckInRequest{CourseSlug: "bio", DayNumber: 2, Email: "a@b.co", FullName: "Al Smith"})
	require.NoError(t, err)

	aid := f.attendees["a@b.co"]
	assert.Equal(t, "Acme Labs", f.orgs[aid].String)
	assert.Equal(t, "Al Smith", f.names[aid])
}

func TestCheckInHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFakeStore(bio)
	r := gin.New()
	api := r.Group("/api/v1")
	RegisterRoutes(api, api.Group("/admin"), newTestService(f))

	body := `{"course_slug":"bio","day_number":1,"email":"jane@example.com","full_name":"Jane"}`
	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, post().Code)

	w := post()
	assert.Equal(t, http.StatusConflict, w.Code)
	var e errorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, CodeConflict, e.Error.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", bytes.NewBufferString(`{"course_slug":"bio"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

var day1Questions = []survey.Question{
	{QuestionID: 1, CourseDayID: 10, Text: "Rate today", Type: survey.TypeRating, Required: true},
	{QuestionID: 2, CourseDayID: 10, Text: "Comments", Type: survey.TypeText},
}

func TestCheckInSavesResponses(t *testing.T) {
	f := newFakeStore(bio)
	f.questions[pair{1, 1}] = day1Questions
	svc := newTestService(f)
	ctx := context.Background()

	req := CheckInRequest{CourseSlug: "bio", DayNumber: 1, Email: "a@b.co", FullName: "A",
		Responses: map[uint64]any{1: "5", 2: "  "}}
	res, err := svc.CheckIn(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Responses)
	assert.Equal(t, map[uint64]string{1: "5"}, f.responses[res.AttendanceID])

	// 重複チェックインでは回答も保存されない
	req.Responses = map[uint64]any{1: "1"}
	_, err = svc.CheckIn(ctx, req)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
	assert.Len(t, f.responses, 1)
	assert.Equal(t, "5", f.responses[res.AttendanceID][1])
}

func TestCheckInRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name      string
		responses map[uint64]any
	}{
		{"required question unanswered", nil},
		{"rating out of range", map[uint64]any{1: "9"}},
		{"question of another day", map[uint64]any{1: "4", 77: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore(bio)
			f.questions[pair{1, 1}] = day1Questions
			_, err := newTestService(f).CheckIn(context.Background(), CheckInRequest{
				CourseSlug: "bio", DayNumber: 1, Email: "a@b.co", FullName: "A", Responses: tt.responses,
			})
			var api *APIError
			require.ErrorAs(t, err, &api)
			assert.Equal(t, CodeInvalidArgument, api.Code)
			assert.Empty(t, f.rows)
		})
	}
}

func TestCheckInHandlerDecodesResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFakeStore(bio)
	f.questions[pair{1, 1}] = day1Questions
	r := gin.New()
	api := r.Group("/api/v1")
	RegisterRoutes(api, api.Group("/admin"), newTestService(f))

	body := `{"course_slug":"bio","day_number":1,"email":"jane@example.com","full_name":"Jane","responses":{"1":"4","2":"Great day"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var res CheckInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Responses)
	assert.Equal(t, map[uint64]string{1: "4", 2: "Great day"}, f.responses[res.AttendanceID])
}

func TestGroupRows(t *testing.T) {
	t1 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	rows := []attendanceRow{
		{EnrollmentID: 1, AttendeeID: 10, Email: "a@b.co", FullName: "A", DayNumber: sql.NullInt64{Int64: 1, Valid: true}, CheckedInAt: sql.NullTime{Time: t1, Valid: true}},
		{EnrollmentID: 1, AttendeeID: 10, Email: "a@b.co", FullName: "A", DayNumber: sql.NullInt64{Int64: 3, Valid: true}, CheckedInAt: sql.NullTime{Time: t1, Valid: true}},
		{EnrollmentID: 2, AttendeeID: 11, Email: "b@b.co", FullName: "B", Organization: sql.NullString{String: "Lab", Valid: true}},
	}
	got := groupRows(rows)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].DaysAttended)
	assert.Equal(t, []int{1, 3}, []int{got[0].Days[0].DayNumber, got[0].Days[1].DayNumber})
	assert.Equal(t, 0, got[1].DaysAttended)
	assert.Empty(t, got[1].Days)
	assert.Equal(t, "Lab", *got[1].Organization)
}
