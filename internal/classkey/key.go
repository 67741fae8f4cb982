package classkey

import "strings"

// Key is a parsed class identity. A nil Year makes it a legacy key.
type Key struct {
	Dept    string
	Section string
	Year    *int
}

// New builds a normalised key.
func New(dept, section string, year *int) Key {
	k := Key{
		Dept:    strings.ToUpper(strings.TrimSpace(dept)),
		Section: strings.ToUpper(strings.TrimSpace(section)),
	}
	if validYear(year) {
		y := *year
		k.Year = &y
	}
	return k
}

// Parse reads a key or display label once. The year comes from a
// "(Year N)" token or a -Y<n> suffix when present.
func Parse(s, dept string) Key {
	year := YearFromDisplay(s)
	if year == nil {
		year = YearFromCanon(s)
	}
	legacy := CanonicalClassKey(s)
	d := strings.ToUpper(strings.TrimSpace(dept))
	if d == "" || !strings.HasPrefix(legacy, d+"-") {
		if head, _, ok := strings.Cut(legacy, "-"); ok {
			d = head
		} else if d == "" {
			d = legacy
		}
	}
	return New(d, ExtractSectionFromCanon(legacy, d), year)
}

// IsYearful reports whether the key carries a year.
func (k Key) IsYearful() bool { return validYear(k.Year) }

// Legacy renders DEPT-SECTION.
func (k Key) Legacy() string { return CanonicalClassKey(MakeKey(k.Dept, k.Section)) }

// Yearful renders DEPT-SECTION-Y<n>, degrading to Legacy without a year.
func (k Key) Yearful() string { return YearfulCanon(k.Dept, k.Section, k.Year) }

// String is the authoritative lookup key.
func (k Key) String() string { return k.Yearful() }

// LegacyProjection drops the year.
func (k Key) LegacyProjection() Key { return Key{Dept: k.Dept, Section: k.Section} }

// WithYear returns a copy carrying year.
func (k Key) WithYear(year *int) Key { return New(k.Dept, k.Section, year) }

// Display renders the human label.
func (k Key) Display() string { return ClassDisplayFromCanon(k.Legacy(), k.Year) }
