package dto

import (
	"github.com/noah-isme/dept-attendance-api/internal/models"
)

// ClassQuery is the loose class reference accepted by every class-scoped endpoint.
type ClassQuery struct {
	Display string `form:"class" json:"class"`
	Canon   string `form:"canon" json:"canon"`
	Year    *int   `form:"year" json:"year" validate:"omitempty,min=1,max=4"`
}

// Ref converts the query into a class reference.
func (q ClassQuery) Ref() models.ClassRef {
	return models.ClassRef{Display: q.Display, Canon: q.Canon, Year: q.Year}
}

// AttendanceQuery selects a class-day.
type AttendanceQuery struct {
	ClassQuery
	Date string `form:"date" json:"date" validate:"required,datekey"`
}

// SaveAttendanceRequest persists the marks for a class-day.
type SaveAttendanceRequest struct {
	ClassQuery
	Date  string                 `json:"date" validate:"required,datekey"`
	Marks map[string]models.Mark `json:"marks" validate:"required"`
}

// ToggleMarkRequest flips one student's status.
type ToggleMarkRequest struct {
	ClassQuery
	Date   string `json:"date" validate:"required,datekey"`
	RollNo string `json:"roll_no" validate:"required"`
	Status string `json:"status" validate:"required,mark_status"`
}

// BulkMarkRequest marks every student at once. Status "clear" unmarks all.
type BulkMarkRequest struct {
	ClassQuery
	Date   string `json:"date" validate:"required,datekey"`
	Status string `json:"status" validate:"required,bulk_status"`
}

// BulkStatusClear is the bulk status that removes every mark.
const BulkStatusClear = "clear"

// SetLockRequest sets the per-class lock time for a day.
type SetLockRequest struct {
	ClassQuery
	Date string `json:"date" validate:"required,datekey"`
	HHMM string `json:"hhmm" validate:"omitempty,hhmm"`
}

// SheetRow is one student on the attendance sheet.
type SheetRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	RollNo  string `json:"roll_no"`
	Email   string `json:"email"`
	Class   string `json:"class"`
	Present bool   `json:"present"`
	Absent  bool   `json:"absent"`
	Late    bool   `json:"late"`
}

// AttendanceSheet is the roster joined with a day's marks.
type AttendanceSheet struct {
	Class    models.ClassIdentity `json:"class"`
	Date     string               `json:"date"`
	RecordID string               `json:"record_id,omitempty"`
	Source   string               `json:"source"`
	Window   models.EditWindow    `json:"window"`
	Counts   models.Counts        `json:"counts"`
	Rows     []SheetRow           `json:"rows"`
}

// AttendanceRecordResponse describes a persisted class-day.
type AttendanceRecordResponse struct {
	ID           string                 `json:"id"`
	ClassCanon   string                 `json:"class_canon"`
	ClassDisplay string                 `json:"class_display"`
	Date         string                 `json:"date"`
	Dept         string                 `json:"dept"`
	Section      string                 `json:"section"`
	Year         *int                   `json:"year"`
	Mentor       string                 `json:"mentor,omitempty"`
	Counts       models.Counts          `json:"counts"`
	Marks        map[string]models.Mark `json:"marks"`
	LockUntil    string                 `json:"lock_until,omitempty"`
	IsLocked     bool                   `json:"is_locked"`
}

// NewAttendanceRecordResponse maps a stored record.
func NewAttendanceRecordResponse(rec *models.AttendanceRecord) *AttendanceRecordResponse {
	if rec == nil {
		return nil
	}
	marks := rec.Marks
	if marks == nil {
		marks = map[string]models.Mark{}
	}
	return &AttendanceRecordResponse{
		ID:           rec.ID,
		ClassCanon:   rec.ClassCanon,
		ClassDisplay: rec.ClassDisplay,
		Date:         rec.Date,
		Dept:         rec.Dept,
		Section:      rec.Section,
		Year:         rec.Year.Int(),
		Mentor:       rec.Mentor,
		Counts:       rec.Counts,
		Marks:        marks,
		LockUntil:    rec.LockUntil,
		IsLocked:     rec.IsLocked,
	}
}

// OverviewQuery filters the HOD overview.
type OverviewQuery struct {
	Date string `form:"date" validate:"omitempty,datekey"`
	Year *int   `form:"year" validate:"omitempty,min=1,max=4"`
}
