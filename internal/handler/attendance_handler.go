package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/response"
)

type attendanceService interface {
	Sheet(ctx context.Context, identity models.ClassIdentity, date string) (*dto.AttendanceSheet, error)
	Window(ctx context.Context, identity models.ClassIdentity, date string) (models.EditWindow, error)
	Save(ctx context.Context, identity models.ClassIdentity, req dto.SaveAttendanceRequest, actor string) (*models.AttendanceRecord, error)
	ToggleMark(ctx context.Context, identity models.ClassIdentity, req dto.ToggleMarkRequest, actor string) (*dto.AttendanceSheet, error)
	BulkMark(ctx context.Context, identity models.ClassIdentity, req dto.BulkMarkRequest, actor string) (*dto.AttendanceSheet, error)
	SetLock(ctx context.Context, identity models.ClassIdentity, req dto.SetLockRequest) (*models.AttendanceRecord, error)
}

// AttendanceHandler exposes the daily attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
	dept    string
}

// NewAttendanceHandler constructs an attendance handler for dept.
func NewAttendanceHandler(svc attendanceService, dept string) *AttendanceHandler {
	return &AttendanceHandler{service: svc, dept: dept}
}

// Sheet godoc
// @Summary Attendance sheet for a class-day
// @Tags Attendance
// @Produce json
// @Param class query string false "Class display (e.g. CSE-A (Year 2))"
// @Param canon query string false "Class canon (e.g. CSE-A-Y2)"
// @Param year query int false "Year 1-4"
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	var q dto.AttendanceQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, q.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	sheet, err := h.service.Sheet(c.Request.Context(), identity, q.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sheet)
}

// Window godoc
// @Summary Edit-window state for a class-day
// @Tags Attendance
// @Produce json
// @Param class query string false "Class display"
// @Param canon query string false "Class canon"
// @Param year query int false "Year 1-4"
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/window [get]
func (h *AttendanceHandler) Window(c *gin.Context) {
	var q dto.AttendanceQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, q.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	window, err := h.service.Window(c.Request.Context(), identity, q.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, window)
}

// Save godoc
// @Summary Save a class-day's marks
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SaveAttendanceRequest true "Marks keyed by roll number"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Save(c *gin.Context) {
	var req dto.SaveAttendanceRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	rec, err := h.service.Save(c.Request.Context(), identity, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAttendanceRecordResponse(rec))
}

// ToggleMark godoc
// @Summary Toggle one student's mark
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.ToggleMarkRequest true "Student and status"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /attendance/marks [post]
func (h *AttendanceHandler) ToggleMark(c *gin.Context) {
	var req dto.ToggleMarkRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	sheet, err := h.service.ToggleMark(c.Request.Context(), identity, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sheet)
}

// BulkMark godoc
// @Summary Mark or clear every student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.BulkMarkRequest true "present, absent, late or clear"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req dto.BulkMarkRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	sheet, err := h.service.BulkMark(c.Request.Context(), identity, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sheet)
}

// SetLock godoc
// @Summary Set the lock time for a class-day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SetLockRequest true "Lock time HH:MM (defaults to 15:00)"
// @Success 200 {object} response.Envelope
// @Router /attendance/lock [put]
func (h *AttendanceHandler) SetLock(c *gin.Context) {
	var req dto.SetLockRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	rec, err := h.service.SetLock(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAttendanceRecordResponse(rec))
}
