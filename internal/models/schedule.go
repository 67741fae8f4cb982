package models

import "time"

// ScheduleDocID is the settings document holding the attendance window.
const ScheduleDocID = "attendanceSchedule"

// AttendanceSchedule is the department-wide daily edit window in IST.
type AttendanceSchedule struct {
	Enabled   bool       `json:"enabled"`
	StartHHMM string     `json:"startHHMM"`
	EndHHMM   string     `json:"endHHMM"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ScheduleState is the cached schedule as seen by the process.
type ScheduleState struct {
	Schedule AttendanceSchedule `json:"schedule"`
	Loading  bool               `json:"loading"`
	// Stored is false while defaults stand in for a missing document.
	Stored bool `json:"stored"`
}
