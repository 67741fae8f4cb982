package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/middleware"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/service"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

type attendanceServiceStub struct {
	identity models.ClassIdentity
	date     string
	actor    string
	saveErr  error
}

func (s *attendanceServiceStub) Sheet(ctx context.Context, identity models.ClassIdentity, date string) (*dto.AttendanceSheet, error) {
	s.identity, s.date = identity, date
	return &dto.AttendanceSheet{Class: identity, Date: date, Source: service.SourceNone, Rows: []dto.SheetRow{}}, nil
}

func (s *attendanceServiceStub) Window(ctx context.Context, identity models.ClassIdentity, date string) (models.EditWindow, error) {
	s.identity, s.date = identity, date
	return models.EditWindow{State: models.EditOpen, Date: date}, nil
}

func (s *attendanceServiceStub) Save(ctx context.Context, identity models.ClassIdentity, req dto.SaveAttendanceRequest, actor string) (*models.AttendanceRecord, error) {
	s.identity, s.date, s.actor = identity, req.Date, actor
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return &models.AttendanceRecord{ID: models.AttendanceDocID(identity.Canon, req.Date), ClassCanon: identity.Canon, Date: req.Date, Marks: req.Marks}, nil
}

func (s *attendanceServiceStub) ToggleMark(ctx context.Context, identity models.ClassIdentity, req dto.ToggleMarkRequest, actor string) (*dto.AttendanceSheet, error) {
	s.identity, s.date, s.actor = identity, req.Date, actor
	return &dto.AttendanceSheet{Class: identity, Date: req.Date}, nil
}

func (s *attendanceServiceStub) BulkMark(ctx context.Context, identity models.ClassIdentity, req dto.BulkMarkRequest, actor string) (*dto.AttendanceSheet, error) {
	s.identity, s.date, s.actor = identity, req.Date, actor
	return &dto.AttendanceSheet{Class: identity, Date: req.Date}, nil
}

func (s *attendanceServiceStub) SetLock(ctx context.Context, identity models.ClassIdentity, req dto.SetLockRequest) (*models.AttendanceRecord, error) {
	s.identity, s.date = identity, req.Date
	return &models.AttendanceRecord{ID: models.AttendanceDocID(identity.Canon, req.Date), IsLocked: true}, nil
}

func newContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleMentor, Email: "Mentor@College.test"})
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAttendanceSheetResolvesDisplay(t *testing.T) {
	stub := &attendanceServiceStub{}
	h := NewAttendanceHandler(stub, "CSE")
	c, w := newContext(http.MethodGet, "/attendance?class=CSE-A%20(Year%202)&date=2025-01-15", nil)

	h.Sheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CSE-A-Y2", stub.identity.Canon)
	assert.Equal(t, "CSE-A", stub.identity.LegacyCanon)
	assert.Equal(t, "2025-01-15", stub.date)
}

func TestAttendanceSheetRejectsBadQuery(t *testing.T) {
	cases := map[string]string{
		"missing class": "/attendance?date=2025-01-15",
		"bad date":      "/attendance?canon=CSE-A-Y2&date=15-01-2025",
		"bad year":      "/attendance?canon=CSE-A&year=9&date=2025-01-15",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewAttendanceHandler(&attendanceServiceStub{}, "CSE")
			c, w := newContext(http.MethodGet, target, nil)
			h.Sheet(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, w))
		})
	}
}

func TestAttendanceSavePassesActor(t *testing.T) {
	stub := &attendanceServiceStub{}
	h := NewAttendanceHandler(stub, "CSE")
	c, w := newContext(http.MethodPut, "/attendance", map[string]interface{}{
		"canon": "CSE-B", "year": 3, "date": "2025-01-15",
		"marks": map[string]interface{}{"23CS1": map[string]bool{"present": true}},
	})

	h.Save(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CSE-B-Y3", stub.identity.Canon)
	assert.Equal(t, "mentor@college.test", stub.actor)

	var body struct {
		Data dto.AttendanceRecordResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CSE-B-Y3__2025-01-15", body.Data.ID)
	assert.True(t, body.Data.Marks["23CS1"].Present)
}

func TestAttendanceSaveMapsClosedWindow(t *testing.T) {
	stub := &attendanceServiceStub{saveErr: appErrors.Clone(appErrors.ErrAttendanceLocked, "locked")}
	h := NewAttendanceHandler(stub, "CSE")
	c, w := newContext(http.MethodPut, "/attendance", map[string]interface{}{
		"canon": "CSE-A-Y2", "date": "2025-01-15", "marks": map[string]interface{}{},
	})

	h.Save(c)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, appErrors.ErrAttendanceLocked.Code, decodeError(t, w))
}

func TestAttendanceInvalidJSON(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceStub{}, "CSE")
	for name, call := range map[string]func(*gin.Context){
		"save":   h.Save,
		"toggle": h.ToggleMark,
		"bulk":   h.BulkMark,
		"lock":   h.SetLock,
	} {
		t.Run(name, func(t *testing.T) {
			c, w := newContext(http.MethodPost, "/attendance", "invalid")
			call(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAttendanceLockAndMutations(t *testing.T) {
	stub := &attendanceServiceStub{}
	h := NewAttendanceHandler(stub, "CSE")

	c, w := newContext(http.MethodPut, "/attendance/lock", map[string]interface{}{"class": "CSE-C", "date": "2025-01-15", "hhmm": "10:30"})
	h.SetLock(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CSE-C", stub.identity.Canon)

	c, w = newContext(http.MethodPost, "/attendance/marks", map[string]interface{}{"canon": "CSE-C-Y1", "date": "2025-01-15", "roll_no": "23CS1", "status": "late"})
	h.ToggleMark(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *stub.identity.Year)

	c, w = newContext(http.MethodPost, "/attendance/bulk", map[string]interface{}{"canon": "CSE-C-Y1", "date": "2025-01-15", "status": "clear"})
	h.BulkMark(c)
	require.Equal(t, http.StatusOK, w.Code)
}

type rosterServiceStub struct {
	students []models.Student
	added    dto.StudentInput
	mentor   string
}

func (s *rosterServiceStub) Resolve(ctx context.Context, identity models.ClassIdentity) ([]models.Student, error) {
	return s.students, nil
}

func (s *rosterServiceStub) Replace(ctx context.Context, identity models.ClassIdentity, req dto.ReplaceRosterRequest, mentor string) ([]models.Student, error) {
	s.mentor = mentor
	out := make([]models.Student, 0, len(req.Students))
	for _, in := range req.Students {
		out = append(out, models.Student{Name: in.Name, RollNo: in.RollNo, Email: in.Email, ClassCanon: identity.Canon})
	}
	return out, nil
}

func (s *rosterServiceStub) AddStudent(ctx context.Context, identity models.ClassIdentity, req dto.StudentInput, mentor string) (*models.Student, error) {
	s.added, s.mentor = req, mentor
	return &models.Student{ID: "s1", Name: req.Name, RollNo: req.RollNo, ClassCanon: identity.Canon}, nil
}

func TestRosterHandler(t *testing.T) {
	stub := &rosterServiceStub{students: []models.Student{{ID: "s1", RollNo: "23CS1"}, {ID: "s2", RollNo: "23CS2"}}}
	h := NewRosterHandler(stub, "CSE")

	c, w := newContext(http.MethodGet, "/roster?canon=CSE-A-Y2", nil)
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data dto.RosterResponse        `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Students, 2)
	assert.Equal(t, "CSE-A-Y2", body.Data.Class.Canon)
	assert.EqualValues(t, 2, body.Meta["total"])

	c, w = newContext(http.MethodPut, "/roster", map[string]interface{}{
		"canon":    "CSE-A-Y2",
		"students": []map[string]string{{"name": "A", "roll_no": "23CS1", "email": "a@college.test"}},
	})
	h.Replace(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentor@college.test", stub.mentor)

	c, w = newContext(http.MethodPost, "/roster/students", map[string]interface{}{
		"canon": "CSE-A-Y2", "name": "B", "roll_no": "23CS9", "email": "b@college.test",
	})
	h.AddStudent(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "23CS9", stub.added.RollNo)

	c, w = newContext(http.MethodGet, "/roster", nil)
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type classServiceStub struct {
	mineEmail string
	createErr error
}

func (s *classServiceStub) Dept() string { return "CSE" }

func (s *classServiceStub) List(ctx context.Context, year *int) ([]models.ClassDoc, error) {
	return []models.ClassDoc{{ID: "c1", Dept: "CSE", Section: "A", Year: models.YearOf(year)}}, nil
}

func (s *classServiceStub) Mine(ctx context.Context, email string) ([]models.ClassDoc, error) {
	s.mineEmail = email
	return []models.ClassDoc{}, nil
}

func (s *classServiceStub) Create(ctx context.Context, req dto.CreateClassRequest) (*models.ClassDoc, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	year := req.Year
	return &models.ClassDoc{ID: "c2", Dept: "CSE", Section: req.Section, Year: models.YearOf(&year)}, nil
}

func TestClassHandler(t *testing.T) {
	stub := &classServiceStub{}
	h := NewClassHandler(stub)

	c, w := newContext(http.MethodGet, "/classes/resolve?class=CSE-A%20(Year%203)", nil)
	h.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved struct {
		Data models.ClassIdentity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, "CSE-A-Y3", resolved.Data.Canon)
	assert.Equal(t, "CSE-A (Year 3)", resolved.Data.Display)

	c, w = newContext(http.MethodGet, "/classes?year=2", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []dto.ClassResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "CSE-A-Y2", listed.Data[0].Canon)

	c, w = newContext(http.MethodGet, "/classes/mine", nil)
	h.Mine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentor@college.test", stub.mineEmail)

	c, w = newContext(http.MethodPost, "/classes", map[string]interface{}{"year": 1, "section": "B"})
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	stub.createErr = appErrors.Clone(appErrors.ErrConflict, "section exists")
	c, w = newContext(http.MethodPost, "/classes", map[string]interface{}{"year": 1, "section": "B"})
	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClassMineRequiresEmail(t *testing.T) {
	h := NewClassHandler(&classServiceStub{})
	c, w := newContext(http.MethodGet, "/classes/mine", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleMentor})
	h.Mine(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type scheduleServiceStub struct {
	state     models.ScheduleState
	updateErr error
}

func (s *scheduleServiceStub) Current() models.ScheduleState { return s.state }

func (s *scheduleServiceStub) Update(ctx context.Context, req dto.UpdateScheduleRequest) (models.ScheduleState, error) {
	if s.updateErr != nil {
		return models.ScheduleState{}, s.updateErr
	}
	s.state.Schedule = models.AttendanceSchedule{Enabled: true, StartHHMM: req.StartHHMM, EndHHMM: req.EndHHMM}
	return s.state, nil
}

func (s *scheduleServiceStub) Toggle(ctx context.Context) (models.ScheduleState, error) {
	s.state.Schedule.Enabled = !s.state.Schedule.Enabled
	return s.state, nil
}

func TestScheduleHandler(t *testing.T) {
	stub := &scheduleServiceStub{state: models.ScheduleState{Schedule: models.AttendanceSchedule{Enabled: true, StartHHMM: "06:00", EndHHMM: "08:20"}}}
	h := NewScheduleHandler(stub)

	c, w := newContext(http.MethodGet, "/settings/schedule", nil)
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodPut, "/settings/schedule", dto.UpdateScheduleRequest{StartHHMM: "07:00", EndHHMM: "09:00"})
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "07:00", stub.state.Schedule.StartHHMM)

	c, w = newContext(http.MethodPost, "/settings/schedule/toggle", nil)
	h.Toggle(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, stub.state.Schedule.Enabled)

	stub.updateErr = appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	c, w = newContext(http.MethodPut, "/settings/schedule", dto.UpdateScheduleRequest{StartHHMM: "09:00", EndHHMM: "07:00"})
	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type overviewServiceStub struct {
	date string
	year *int
}

func (s *overviewServiceStub) Overview(ctx context.Context, date string, year *int) (*models.Overview, error) {
	s.date, s.year = date, year
	return &models.Overview{Date: date}, nil
}

func TestOverviewHandler(t *testing.T) {
	stub := &overviewServiceStub{}
	h := NewOverviewHandler(stub)

	c, w := newContext(http.MethodGet, "/hod/overview?date=2025-01-15&year=2", nil)
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-15", stub.date)
	require.NotNil(t, stub.year)
	assert.Equal(t, 2, *stub.year)

	c, w = newContext(http.MethodGet, "/hod/overview?year=7", nil)
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"docstore": func(ctx context.Context) error { return nil },
	})
	c, w := newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
