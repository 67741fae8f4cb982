package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// MarkStatus names one of the three exclusive per-day marks.
type MarkStatus string

const (
	MarkPresent MarkStatus = "present"
	MarkAbsent  MarkStatus = "absent"
	MarkLate    MarkStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s MarkStatus) Valid() bool {
	switch s {
	case MarkPresent, MarkAbsent, MarkLate:
		return true
	default:
		return false
	}
}

// Mark is a student's tri-state for one day.
type Mark struct {
	Present bool `json:"present"`
	Absent  bool `json:"absent"`
	Late    bool `json:"late"`
}

// MarkFor builds the exclusive mark for status. An empty status clears it.
func MarkFor(status MarkStatus) Mark {
	switch status {
	case MarkPresent:
		return Mark{Present: true}
	case MarkAbsent:
		return Mark{Absent: true}
	case MarkLate:
		return Mark{Late: true}
	default:
		return Mark{}
	}
}

// Status reports the effective status, preferring present over absent over late.
func (m Mark) Status() MarkStatus {
	switch {
	case m.Present:
		return MarkPresent
	case m.Absent:
		return MarkAbsent
	case m.Late:
		return MarkLate
	default:
		return ""
	}
}

// Exclusive collapses a mark with several flags set to its effective status.
func (m Mark) Exclusive() Mark {
	return MarkFor(m.Status())
}

// Toggle flips status. Turning a status on clears the other two.
func (m Mark) Toggle(status MarkStatus) Mark {
	if m.Status() == status {
		return Mark{}
	}
	return MarkFor(status)
}

// IsMarked reports whether any status is set.
func (m Mark) IsMarked() bool { return m.Status() != "" }

// UnmarshalJSON accepts "P", "A", "L", null and the object form.
func (m *Mark) UnmarshalJSON(data []byte) error {
	*m = Mark{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var code string
		if err := json.Unmarshal(trimmed, &code); err != nil {
			return err
		}
		switch code {
		case "P":
			m.Present = true
		case "A":
			m.Absent = true
		case "L":
			m.Late = true
		}
		return nil
	}
	if trimmed[0] != '{' {
		return nil
	}
	var raw struct {
		Present interface{} `json:"present"`
		Absent  interface{} `json:"absent"`
		Late    interface{} `json:"late"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	m.Present, m.Absent, m.Late = truthy(raw.Present), truthy(raw.Absent), truthy(raw.Late)
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Counts aggregates marks for a class-day.
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

// Marked is the number of students with any mark.
func (c Counts) Marked() int { return c.Present + c.Absent + c.Late }

// CountMarks tallies marks by effective status.
func CountMarks(marks map[string]Mark) Counts {
	var c Counts
	for _, m := range marks {
		switch m.Status() {
		case MarkPresent:
			c.Present++
		case MarkAbsent:
			c.Absent++
		case MarkLate:
			c.Late++
		}
	}
	return c
}

// AttendanceRecord is one class-day document keyed "{canon}__{date}".
type AttendanceRecord struct {
	ID           string          `json:"-"`
	ClassCanon   string          `json:"CLASS_CANON,omitempty"`
	ClassDisplay string          `json:"CLASS_DISPLAY,omitempty"`
	Class        string          `json:"CLASS,omitempty"`
	Date         string          `json:"DATE"`
	Dept         string          `json:"dept,omitempty"`
	Section      string          `json:"section,omitempty"`
	Year         *FlexYear       `json:"year"`
	Mentor       string          `json:"mentor,omitempty"`
	Marks        map[string]Mark `json:"marks,omitempty"`
	Counts       Counts          `json:"counts"`
	LockUntil    string          `json:"lockUntil,omitempty"`
	LockUntilTs  *time.Time      `json:"lockUntilTs,omitempty"`
	IsLocked     bool            `json:"isLocked"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
}

// LockInstant returns the per-class lock, preferring the timestamp field.
func (r *AttendanceRecord) LockInstant() *time.Time {
	if r == nil {
		return nil
	}
	if r.LockUntilTs != nil && !r.LockUntilTs.IsZero() {
		t := *r.LockUntilTs
		return &t
	}
	if r.LockUntil == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, r.LockUntil)
	if err != nil {
		return nil
	}
	return &t
}

// MarkFor returns the decoded mark for a roll number.
func (r *AttendanceRecord) MarkFor(roll string) Mark {
	if r == nil {
		return Mark{}
	}
	return r.Marks[NormalizeRoll(roll)]
}

// AttendanceDocID composes the document id for a class-day.
func AttendanceDocID(canon, date string) string {
	return canon + "__" + date
}
