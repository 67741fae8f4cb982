package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDecodesBothEncodings(t *testing.T) {
	var marks map[string]Mark
	payload := `{"23CS1":"P","23CS2":"A","23CS3":"L","23CS4":{"present":false,"absent":false,"late":true},"23CS5":null,"23CS6":"X"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &marks))

	assert.Equal(t, Mark{Present: true}, marks["23CS1"])
	assert.Equal(t, Mark{Absent: true}, marks["23CS2"])
	assert.Equal(t, Mark{Late: true}, marks["23CS3"])
	assert.Equal(t, Mark{Late: true}, marks["23CS4"])
	assert.Equal(t, Mark{}, marks["23CS5"])
	assert.Equal(t, Mark{}, marks["23CS6"])
}

func TestMarkToggleIsExclusive(t *testing.T) {
	late := Mark{Late: true}
	assert.Equal(t, Mark{Present: true}, late.Toggle(MarkPresent))
	assert.Equal(t, Mark{}, Mark{Present: true}.Toggle(MarkPresent))
	assert.Equal(t, Mark{Present: true}, Mark{Present: true, Late: true}.Exclusive())
}

func TestCountMarks(t *testing.T) {
	marks := map[string]Mark{
		"A": {Present: true},
		"B": {Present: true},
		"C": {Absent: true},
		"D": {Late: true},
		"E": {},
	}
	assert.Equal(t, Counts{Present: 2, Absent: 1, Late: 1}, CountMarks(marks))
	assert.Equal(t, 4, CountMarks(marks).Marked())
}

func TestFlexYear(t *testing.T) {
	var doc struct {
		Year *FlexYear `json:"year"`
	}
	for payload, want := range map[string]*int{
		`{"year":3}`:    intPtr(3),
		`{"year":"2"}`:  intPtr(2),
		`{"year":""}`:   nil,
		`{"year":null}`: nil,
		`{}`:            nil,
		`{"year":0}`:    nil,
	} {
		doc.Year = nil
		require.NoError(t, json.Unmarshal([]byte(payload), &doc), payload)
		assert.Equal(t, want, doc.Year.Int(), payload)
	}
	raw, err := json.Marshal(struct {
		Year *FlexYear `json:"year"`
	}{YearOf(intPtr(4))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":4}`, string(raw))
}

func TestAttendanceRecordLockInstant(t *testing.T) {
	rec := &AttendanceRecord{LockUntil: "2025-01-15T15:00:00+05:30"}
	lock := rec.LockInstant()
	require.NotNil(t, lock)
	assert.Equal(t, time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC), lock.UTC())

	ts := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	rec.LockUntilTs = &ts
	assert.Equal(t, ts, *rec.LockInstant())

	var nilRec *AttendanceRecord
	assert.Nil(t, nilRec.LockInstant())
	assert.Equal(t, "CSE-C-Y3__2025-01-15", AttendanceDocID("CSE-C-Y3", "2025-01-15"))
}

func TestStudentNormalize(t *testing.T) {
	s := Student{Name: " Ann ", RollNo: " 23cs103 ", Email: " a@x.edu "}.Normalize()
	assert.Equal(t, "Ann", s.Name)
	assert.Equal(t, "23CS103", s.RollNo)
	assert.Equal(t, "a@x.edu", s.Email)
}

func intPtr(v int) *int { return &v }
