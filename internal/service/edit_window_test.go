package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

func TestEvaluateEditWindow(t *testing.T) {
	enabled := models.AttendanceSchedule{Enabled: true, StartHHMM: "06:00", EndHHMM: "08:20"}
	disabled := models.AttendanceSchedule{Enabled: false, StartHHMM: "06:00", EndHHMM: "08:20"}
	pastLock := ist(6, 30)
	futureLock := ist(15, 0)

	cases := []struct {
		name     string
		input    EditWindowInput
		expected models.EditState
	}{
		{"inside window", EditWindowInput{Now: ist(7, 0), Date: testDate, CutoffHour: 21, Schedule: enabled}, models.EditOpen},
		{"window start inclusive", EditWindowInput{Now: ist(6, 0), Date: testDate, CutoffHour: 21, Schedule: enabled}, models.EditOpen},
		{"window end inclusive", EditWindowInput{Now: ist(8, 20), Date: testDate, CutoffHour: 21, Schedule: enabled}, models.EditOpen},
		{"after window", EditWindowInput{Now: ist(8, 21), Date: testDate, CutoffHour: 21, Schedule: enabled}, models.EditClosedWindow},
		{"before window", EditWindowInput{Now: ist(5, 59), Date: testDate, CutoffHour: 21, Schedule: enabled}, models.EditClosedWindow},
		{"other day", EditWindowInput{Now: ist(7, 0), Date: "2025-01-14", CutoffHour: 21, Schedule: enabled}, models.EditClosedNotToday},
		{"past cutoff", EditWindowInput{Now: ist(21, 1), Date: testDate, CutoffHour: 21, Schedule: disabled}, models.EditClosedLocked},
		{"class lock passed", EditWindowInput{Now: ist(7, 0), Date: testDate, CutoffHour: 21, Schedule: enabled, LockUntil: &pastLock}, models.EditClosedLocked},
		{"lock beats disabled schedule", EditWindowInput{Now: ist(7, 0), Date: testDate, CutoffHour: 21, Schedule: disabled, LockUntil: &pastLock}, models.EditClosedLocked},
		{"future lock is ignored", EditWindowInput{Now: ist(7, 0), Date: testDate, CutoffHour: 21, Schedule: enabled, LockUntil: &futureLock}, models.EditOpen},
		{"schedule loading", EditWindowInput{Now: ist(7, 0), Date: testDate, CutoffHour: 21, Schedule: enabled, ScheduleLoading: true}, models.EditClosedWindow},
		{"schedule disabled", EditWindowInput{Now: ist(12, 0), Date: testDate, CutoffHour: 21, Schedule: disabled}, models.EditOpen},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := EvaluateEditWindow(tc.input)
			assert.Equal(t, tc.expected, w.State)
			assert.Equal(t, testDate, w.Today)
		})
	}
}

func TestEditWindowNotTodayOverridesDisabledSchedule(t *testing.T) {
	disabled := models.AttendanceSchedule{Enabled: false, StartHHMM: "06:00", EndHHMM: "08:20"}
	w := EvaluateEditWindow(EditWindowInput{Now: ist(7, 0), Date: "2025-01-14", CutoffHour: 21, Schedule: disabled})
	assert.Equal(t, models.EditClosedNotToday, w.State)
	assert.False(t, w.State.Editable())
}

func TestEditWindowLockTightensOpenWindow(t *testing.T) {
	enabled := models.AttendanceSchedule{Enabled: true, StartHHMM: "06:00", EndHHMM: "08:20"}
	now := ist(7, 0)

	open := EvaluateEditWindow(EditWindowInput{Now: now, Date: testDate, CutoffHour: 21, Schedule: enabled})
	assert.Equal(t, models.EditOpen, open.State)

	lock := now.Add(-2 * time.Hour)
	w := EvaluateEditWindow(EditWindowInput{Now: now, Date: testDate, CutoffHour: 21, Schedule: enabled, LockUntil: &lock})
	assert.Equal(t, models.EditClosedLocked, w.State)
	assert.Equal(t, "2025-01-15T05:00:00+05:30", w.LockUntil)
}

func TestEvaluateEditWindowUsesISTCalendarDay(t *testing.T) {
	// 20:00 UTC on the 14th is already 01:30 IST on the 15th.
	now := time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC)
	w := EvaluateEditWindow(EditWindowInput{Now: now, Date: testDate, CutoffHour: 21, Schedule: models.AttendanceSchedule{}})
	assert.Equal(t, models.EditOpen, w.State)
	assert.Equal(t, "2025-01-15T21:00:00+05:30", w.CutoffAt)
}

func TestEditWindowError(t *testing.T) {
	assert.NoError(t, EditWindowError(models.EditWindow{State: models.EditOpen}))
	assert.True(t, errors.Is(EditWindowError(models.EditWindow{State: models.EditClosedNotToday}), appErrors.ErrNotToday))
	assert.True(t, errors.Is(EditWindowError(models.EditWindow{State: models.EditClosedLocked}), appErrors.ErrAttendanceLocked))
	assert.True(t, errors.Is(EditWindowError(models.EditWindow{State: models.EditClosedWindow, Reason: "closed"}), appErrors.ErrEditWindowClosed))
}
