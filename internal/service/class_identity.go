package service

import (
	"strings"

	"github.com/noah-isme/dept-attendance-api/internal/classkey"
	"github.com/noah-isme/dept-attendance-api/internal/models"
)

// ResolveClassIdentity derives the lookup keys for a loose class reference.
// Year comes from the explicit value, then a "(Year N)" display token, then a
// yearful canon parameter.
func ResolveClassIdentity(dept string, ref models.ClassRef) models.ClassIdentity {
	display := strings.TrimSpace(ref.Display)
	canonParam := strings.TrimSpace(ref.Canon)

	year := ref.Year
	if year == nil || *year <= 0 {
		year = classkey.YearFromDisplay(display)
	}
	if year == nil {
		year = classkey.YearFromCanon(canonParam)
	}

	source := canonParam
	if source == "" {
		source = display
	}
	key := classkey.Parse(source, dept).WithYear(year)
	if source == "" {
		key = classkey.Key{}
	}

	legacy := key.Legacy()
	return models.ClassIdentity{
		Key:         key,
		Year:        key.Year,
		Section:     key.Section,
		Canon:       key.String(),
		LegacyCanon: legacy,
		Display:     classkey.ClassDisplayFromCanon(legacy, key.Year),
		DisplayRaw:  display,
	}
}
