package models

// ClassTile summarises one class on the HOD overview.
type ClassTile struct {
	Canon         string `json:"canon"`
	Display       string `json:"display"`
	Section       string `json:"section"`
	Year          *int   `json:"year"`
	Present       int    `json:"present"`
	Absent        int    `json:"absent"`
	Late          int    `json:"late"`
	TotalStudents int    `json:"total_students"`
	Marked        bool   `json:"marked"`
	AttendanceID  string `json:"attendance_id,omitempty"`
	LockUntil     string `json:"lock_until,omitempty"`
	IsLocked      bool   `json:"is_locked"`
}

// YearTotals aggregates present and absent per academic year.
type YearTotals struct {
	Year    int `json:"year"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

// OverviewTotals are the department KPIs for a day.
type OverviewTotals struct {
	Classes       int     `json:"classes"`
	TotalStudents int     `json:"total_students"`
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Late          int     `json:"late"`
	Marked        int     `json:"marked"`
	CoveragePct   float64 `json:"coverage_pct"`
	PresentPct    float64 `json:"present_pct"`
}

// Overview is the HOD daily dashboard.
type Overview struct {
	Date     string             `json:"date"`
	Year     *int               `json:"year,omitempty"`
	Tiles    []ClassTile        `json:"tiles"`
	Totals   OverviewTotals     `json:"totals"`
	ByYear   []YearTotals       `json:"by_year"`
	Schedule AttendanceSchedule `json:"schedule"`
}
