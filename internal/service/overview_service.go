package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-attendance-api/internal/classkey"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
)

type overviewClassSource interface {
	ListByDept(ctx context.Context, dept string, year *int) ([]models.ClassDoc, error)
}

type overviewAttendanceSource interface {
	ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error)
}

// OverviewService builds the HOD daily dashboard.
type OverviewService struct {
	classes    overviewClassSource
	attendance overviewAttendanceSource
	roster     rosterResolver
	schedule   scheduleSource
	dept       string
	logger     *zap.Logger
	now        func() time.Time
}

// NewOverviewService constructs the service.
func NewOverviewService(classes overviewClassSource, attendance overviewAttendanceSource, roster rosterResolver, schedule scheduleSource, dept string, logger *zap.Logger) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{
		classes:    classes,
		attendance: attendance,
		roster:     roster,
		schedule:   schedule,
		dept:       strings.ToUpper(strings.TrimSpace(dept)),
		logger:     logger,
		now:        time.Now,
	}
}

// Overview summarises every class of the department for date. An empty date
// means today in IST; year limits tiles and totals to one cohort.
func (s *OverviewService) Overview(ctx context.Context, date string, year *int) (*models.Overview, error) {
	if date == "" {
		date = istclock.DateKey(s.now())
	}
	if !istclock.ValidDateKey(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	classes, err := s.classes.ListByDept(ctx, s.dept, nil)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list classes")
	}
	records, err := s.attendance.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list attendance")
	}

	yearByCanon := make(map[string]*int, len(classes))
	for _, c := range classes {
		yearByCanon[classkey.CanonicalClassKey(classkey.MakeKey(s.dept, c.Section))] = c.Year.Int()
	}
	byKey := s.indexRecords(records, yearByCanon)

	tiles := make([]models.ClassTile, 0, len(classes))
	for _, c := range classes {
		legacy := classkey.CanonicalClassKey(classkey.MakeKey(s.dept, c.Section))
		cy := c.Year.Int()
		if cy == nil {
			cy = yearByCanon[legacy]
		}
		if year != nil && (cy == nil || *cy != *year) {
			continue
		}
		section := c.Section
		if section == "" {
			section = classkey.ExtractSectionFromCanon(legacy, s.dept)
		}
		canon := classkey.YearfulCanon(s.dept, section, cy)

		tile := models.ClassTile{
			Canon:   canon,
			Display: classkey.ClassDisplayFromCanon(legacy, cy),
			Section: strings.ToUpper(section),
			Year:    cy,
		}
		rec, ok := byKey[canon]
		if !ok {
			rec, ok = byKey[legacy]
		}
		if ok {
			tile.Present, tile.Absent, tile.Late = rec.Counts.Present, rec.Counts.Absent, rec.Counts.Late
			tile.Marked = rec.Counts.Marked() > 0
			tile.AttendanceID = rec.ID
			tile.LockUntil = rec.LockUntil
			tile.IsLocked = rec.IsLocked
		}
		tile.TotalStudents = s.countStudents(ctx, canon, cy)
		tiles = append(tiles, tile)
	}

	sort.SliceStable(tiles, func(i, j int) bool {
		if tiles[i].Section != tiles[j].Section {
			return SectionLess(tiles[i].Section, tiles[j].Section)
		}
		return yearOrZero(tiles[i].Year) < yearOrZero(tiles[j].Year)
	})

	return &models.Overview{
		Date:     date,
		Year:     year,
		Tiles:    tiles,
		Totals:   overviewTotals(tiles),
		ByYear:   yearTotals(tiles),
		Schedule: s.schedule.Current().Schedule,
	}, nil
}

// indexRecords keys each attendance document by its reconciled class key:
// yearful when a year is known from the document or the class list,
// legacy otherwise.
func (s *OverviewService) indexRecords(records []models.AttendanceRecord, yearByCanon map[string]*int) map[string]models.AttendanceRecord {
	out := make(map[string]models.AttendanceRecord, len(records))
	for _, r := range records {
		dept := r.Dept
		if dept == "" {
			dept = s.dept
		}
		legacy := classkey.CanonicalClassKey(firstNonEmpty(r.ClassCanon, r.ClassDisplay, r.Class, classkey.MakeKey(dept, r.Section)))
		if legacy == "" {
			continue
		}
		rowYear := r.Year.Int()
		if rowYear == nil {
			rowYear = yearByCanon[legacy]
		}
		key := legacy
		if rowYear != nil {
			section := classkey.ExtractSectionFromCanon(legacy, s.dept)
			if section == "" {
				section = r.Section
			}
			key = classkey.YearfulCanon(s.dept, section, rowYear)
		}
		out[key] = r
	}
	return out
}

func (s *OverviewService) countStudents(ctx context.Context, canon string, year *int) int {
	identity := ResolveClassIdentity(s.dept, models.ClassRef{Canon: canon, Year: year})
	students, err := s.roster.Resolve(ctx, identity)
	if err != nil {
		s.logger.Warn("overview roster count failed", zap.String("canon", canon), zap.Error(err))
		return 0
	}
	return len(students)
}

func overviewTotals(tiles []models.ClassTile) models.OverviewTotals {
	t := models.OverviewTotals{Classes: len(tiles)}
	for _, tile := range tiles {
		t.TotalStudents += tile.TotalStudents
		t.Present += tile.Present
		t.Absent += tile.Absent
		t.Late += tile.Late
	}
	t.Marked = t.Present + t.Absent + t.Late
	if t.TotalStudents > 0 {
		t.CoveragePct = percent(t.Marked, t.TotalStudents)
	}
	t.PresentPct = percent(t.Present, max(1, t.Marked))
	return t
}

func yearTotals(tiles []models.ClassTile) []models.YearTotals {
	out := make([]models.YearTotals, 4)
	for i := range out {
		out[i].Year = i + 1
	}
	for _, tile := range tiles {
		if tile.Year == nil || *tile.Year < 1 || *tile.Year > 4 {
			continue
		}
		y := &out[*tile.Year-1]
		y.Present += tile.Present
		y.Absent += tile.Absent
		y.Late += tile.Late
	}
	return out
}

func percent(n, d int) float64 {
	return math.Round(float64(n)/float64(d)*1000) / 10
}

var sectionOrderPattern = regexp.MustCompile(`^([A-Z]+)(\d*)$`)

// sectionOrderKey renders "B2" as "0002-B" so that A..Z sort before A1..Z1.
func sectionOrderKey(section string) string {
	upper := strings.ToUpper(section)
	letters, num := upper, 0
	if m := sectionOrderPattern.FindStringSubmatch(upper); m != nil {
		letters = m[1]
		if m[2] != "" {
			num, _ = strconv.Atoi(m[2])
		}
	}
	return fmt.Sprintf("%04d-%s", num, letters)
}

// SectionLess orders sections A..Z, then A1..Z1, and so on.
func SectionLess(a, b string) bool {
	return sectionOrderKey(a) < sectionOrderKey(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
