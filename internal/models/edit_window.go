package models

// EditState is the result of evaluating the attendance edit window.
type EditState string

const (
	EditOpen           EditState = "OPEN"
	EditClosedWindow   EditState = "CLOSED_WINDOW"
	EditClosedNotToday EditState = "CLOSED_NOT_TODAY"
	EditClosedLocked   EditState = "CLOSED_LOCKED"
)

// Editable reports whether mutations are allowed.
func (s EditState) Editable() bool { return s == EditOpen }

// EditWindow explains an edit-window decision.
type EditWindow struct {
	State           EditState          `json:"state"`
	Date            string             `json:"date"`
	Today           string             `json:"today"`
	Schedule        AttendanceSchedule `json:"schedule"`
	ScheduleLoading bool               `json:"schedule_loading"`
	CutoffAt        string             `json:"cutoff_at"`
	LockUntil       string             `json:"lock_until,omitempty"`
	Reason          string             `json:"reason,omitempty"`
}
