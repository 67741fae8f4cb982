// Package istclock does Indian Standard Time arithmetic with a fixed +05:30
// offset. The department runs in a single zone without DST, so no timezone
// database is consulted.
package istclock

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Offset is the fixed IST offset from UTC.
const Offset = 5*time.Hour + 30*time.Minute

// DateLayout is the YYYY-MM-DD layout used for attendance date keys.
const DateLayout = "2006-01-02"

// Zone is the fixed IST location.
var Zone = time.FixedZone("IST", int(Offset/time.Second))

var hhmmPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// shift moves an instant by +05:30 and drops the zone, so the UTC fields
// read as IST wall-clock fields.
func shift(t time.Time) time.Time {
	return t.UTC().Add(Offset)
}

// DateKey returns the IST calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return shift(t).Format(DateLayout)
}

// MinuteOfDay returns minutes since IST midnight for t.
func MinuteOfDay(t time.Time) int {
	s := shift(t)
	return s.Hour()*60 + s.Minute()
}

// IsToday reports whether dateKey is the IST date of now.
func IsToday(dateKey string, now time.Time) bool {
	return dateKey == DateKey(now)
}

// ValidDateKey reports whether s is a well-formed YYYY-MM-DD date.
func ValidDateKey(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// At returns the instant of hour:minute IST on dateKey.
func At(dateKey string, hour, minute int) (time.Time, error) {
	day, err := time.Parse(DateLayout, dateKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateKey, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, Zone), nil
}

// AtHHMM is At with a "HH:MM" string.
func AtHHMM(dateKey, hhmm string) (time.Time, error) {
	mins, err := ParseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return At(dateKey, mins/60, mins%60)
}

// ValidHHMM reports whether s is a 24-hour "HH:MM" value.
func ValidHHMM(s string) bool {
	_, err := ParseHHMM(s)
	return err == nil
}

// ParseHHMM converts a strict "HH:MM" value to minutes since midnight.
func ParseHHMM(s string) (int, error) {
	if !hhmmPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// LenientMinutes parses "H:MM"-ish values the way stored schedules have been
// written historically; missing parts count as zero.
func LenientMinutes(s string) int {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		if _, err := fmt.Sscanf(s, "%d", &h); err != nil {
			return 0
		}
	}
	return h*60 + m
}

// Format renders t as an ISO-8601 string carrying the +05:30 offset.
func Format(t time.Time) string {
	return t.In(Zone).Format("2006-01-02T15:04:05-07:00")
}
