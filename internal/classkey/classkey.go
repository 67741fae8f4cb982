// Package classkey builds and parses the two class-key encodings stored
// side by side: legacy "DEPT-SECTION" and yearful "DEPT-SECTION-Y<n>".
// Every function is total and tolerant of malformed input.
package classkey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	displayYearPattern = regexp.MustCompile(`(?i)\(\s*year\s*(\d+)\s*\)`)
	yearTokenPattern   = regexp.MustCompile(`(?i)^Y(\d+)$`)
)

// CanonicalClassKey normalises a key or display label such as
// "cse-c (Year 2)" into the legacy form "CSE-C".
func CanonicalClassKey(input string) string {
	s := displayYearPattern.ReplaceAllString(input, " ")
	s = strings.ToUpper(strings.TrimSpace(s))
	segs := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || unicode.IsSpace(r) })
	return strings.Join(trimYearTokens(segs), "-")
}

// trimYearTokens drops trailing Y<n> segments while a DEPT-SECTION pair remains.
func trimYearTokens(segs []string) []string {
	for len(segs) > 2 && yearTokenPattern.MatchString(segs[len(segs)-1]) {
		segs = segs[:len(segs)-1]
	}
	return segs
}

// MakeKey joins department and section.
func MakeKey(dept, section string) string {
	dept, section = strings.TrimSpace(dept), strings.TrimSpace(section)
	switch {
	case dept == "":
		return section
	case section == "":
		return dept
	}
	return dept + "-" + section
}

// YearfulCanon returns DEPT-SECTION-Y<year>, or the legacy key when year is
// unknown or not positive.
func YearfulCanon(dept, section string, year *int) string {
	legacy := CanonicalClassKey(MakeKey(dept, section))
	if !validYear(year) || legacy == "" {
		return legacy
	}
	return fmt.Sprintf("%s-Y%d", legacy, *year)
}

// LegacyCanonFromYearful strips the -Y<n> suffix. Legacy keys map to themselves.
func LegacyCanonFromYearful(key string) string {
	key = strings.TrimSpace(key)
	segs := strings.Split(key, "-")
	trimmed := trimYearTokens(segs)
	if len(trimmed) == len(segs) {
		return key
	}
	return strings.Join(trimmed, "-")
}

// ExtractSectionFromCanon returns the section of a legacy or yearful key.
func ExtractSectionFromCanon(key, dept string) string {
	legacy := CanonicalClassKey(key)
	dept = strings.ToUpper(strings.TrimSpace(dept))
	if dept != "" {
		if rest, ok := strings.CutPrefix(legacy, dept+"-"); ok {
			return rest
		}
	}
	if _, rest, ok := strings.Cut(legacy, "-"); ok {
		return rest
	}
	return legacy
}

// ClassDisplayFromCanon renders "CSE-C" or "CSE-C (Year 3)".
func ClassDisplayFromCanon(legacyCanon string, year *int) string {
	legacyCanon = strings.TrimSpace(legacyCanon)
	if !validYear(year) {
		return legacyCanon
	}
	return fmt.Sprintf("%s (Year %d)", legacyCanon, *year)
}

// YearFromDisplay reads the N of a "(Year N)" token.
func YearFromDisplay(display string) *int {
	m := displayYearPattern.FindStringSubmatch(display)
	if m == nil {
		return nil
	}
	return positive(m[1])
}

// YearFromCanon reads the year carried by a yearful key.
func YearFromCanon(key string) *int {
	segs := strings.FieldsFunc(strings.TrimSpace(key), func(r rune) bool { return r == '-' || unicode.IsSpace(r) })
	if len(segs) < 3 {
		return nil
	}
	m := yearTokenPattern.FindStringSubmatch(segs[len(segs)-1])
	if m == nil {
		return nil
	}
	return positive(m[1])
}

// IntPtr is a convenience for optional years.
func IntPtr(v int) *int { return &v }

func validYear(year *int) bool {
	return year != nil && *year > 0
}

func positive(digits string) *int {
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
