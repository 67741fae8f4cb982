package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
)

// EditWindowInput carries everything the edit-window decision depends on.
type EditWindowInput struct {
	Now             time.Time
	Date            string
	CutoffHour      int
	Schedule        models.AttendanceSchedule
	ScheduleLoading bool
	// LockUntil is the per-class override set by the HOD.
	LockUntil *time.Time
}

// EvaluateEditWindow decides whether attendance for Date may be changed at Now.
// Precedence: not today, past cutoff, past class lock, schedule loading,
// schedule disabled, outside the window.
func EvaluateEditWindow(in EditWindowInput) models.EditWindow {
	w := models.EditWindow{
		Date:            in.Date,
		Today:           istclock.DateKey(in.Now),
		Schedule:        in.Schedule,
		ScheduleLoading: in.ScheduleLoading,
	}
	if in.LockUntil != nil {
		w.LockUntil = istclock.Format(*in.LockUntil)
	}

	if !istclock.IsToday(in.Date, in.Now) {
		w.State = models.EditClosedNotToday
		w.Reason = "only today's attendance can be edited"
		return w
	}

	cutoff, err := istclock.At(in.Date, in.CutoffHour, 0)
	if err == nil {
		w.CutoffAt = istclock.Format(cutoff)
		if in.Now.After(cutoff) {
			w.State = models.EditClosedLocked
			w.Reason = fmt.Sprintf("edits closed after %02d:00 IST", in.CutoffHour)
			return w
		}
	}

	if in.LockUntil != nil && in.Now.After(*in.LockUntil) {
		w.State = models.EditClosedLocked
		w.Reason = "locked by HOD at " + w.LockUntil
		return w
	}

	if in.ScheduleLoading {
		w.State = models.EditClosedWindow
		w.Reason = "attendance schedule is still loading"
		return w
	}

	if !in.Schedule.Enabled {
		w.State = models.EditOpen
		return w
	}

	nowMin := istclock.MinuteOfDay(in.Now)
	startMin := istclock.LenientMinutes(in.Schedule.StartHHMM)
	endMin := istclock.LenientMinutes(in.Schedule.EndHHMM)
	if nowMin < startMin || nowMin > endMin {
		w.State = models.EditClosedWindow
		w.Reason = fmt.Sprintf("allowed only between %s and %s IST", in.Schedule.StartHHMM, in.Schedule.EndHHMM)
		return w
	}

	w.State = models.EditOpen
	return w
}

// EditWindowError maps a closed window onto the typed rejection.
func EditWindowError(w models.EditWindow) error {
	var base *appErrors.Error
	switch w.State {
	case models.EditOpen:
		return nil
	case models.EditClosedNotToday:
		base = appErrors.ErrNotToday
	case models.EditClosedLocked:
		base = appErrors.ErrAttendanceLocked
	default:
		base = appErrors.ErrEditWindowClosed
	}
	return appErrors.Clone(base, w.Reason)
}
