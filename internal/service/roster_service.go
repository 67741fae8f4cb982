package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

type rosterRepository interface {
	Find(ctx context.Context, q docstore.Query) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Replace(ctx context.Context, staleIDs []string, fresh []models.Student) error
}

// RosterStrategy builds the roster queries for one lookup step. The results
// of every query in a step are merged.
type RosterStrategy = Strategy[models.ClassIdentity, []docstore.Query]

// Roster strategy names, also used as metric labels.
const (
	RosterByCanon      = "canon"
	RosterByLegacyYear = "legacy_year"
	RosterByDisplayRaw = "display_raw"
)

func studentsQuery() docstore.Query { return docstore.Collection("students") }

// RosterStrategies lists roster lookups in priority order.
func RosterStrategies() []RosterStrategy {
	return []RosterStrategy{
		{Name: RosterByCanon, Build: func(id models.ClassIdentity) ([]docstore.Query, bool) {
			return []docstore.Query{studentsQuery().Where(docstore.Eq("CLASS_CANON", id.Canon))}, id.Canon != ""
		}},
		{Name: RosterByLegacyYear, Build: func(id models.ClassIdentity) ([]docstore.Query, bool) {
			if id.Year == nil || id.LegacyCanon == "" {
				return nil, false
			}
			// Older rows store the year as text.
			return []docstore.Query{
				studentsQuery().Where(docstore.Eq("CLASS_CANON", id.LegacyCanon), docstore.Eq("year", *id.Year)),
				studentsQuery().Where(docstore.Eq("CLASS_CANON", id.LegacyCanon), docstore.Eq("year", strconv.Itoa(*id.Year))),
			}, true
		}},
		{Name: RosterByDisplayRaw, Build: func(id models.ClassIdentity) ([]docstore.Query, bool) {
			return []docstore.Query{studentsQuery().Where(docstore.Eq("CLASS", id.DisplayRaw))}, id.DisplayRaw != ""
		}},
	}
}

// rosterCleanupQueries lists every stored variant a full replace must remove.
func rosterCleanupQueries(id models.ClassIdentity) []docstore.Query {
	queries := []docstore.Query{
		studentsQuery().Where(docstore.Eq("CLASS_CANON", id.Canon)),
	}
	if id.HasLegacyVariant() {
		queries = append(queries, studentsQuery().Where(docstore.Eq("CLASS_CANON", id.LegacyCanon)))
	}
	if id.Display != "" {
		queries = append(queries, studentsQuery().Where(docstore.Eq("CLASS", id.Display)))
	}
	if id.DisplayRaw != "" && id.DisplayRaw != id.Display {
		queries = append(queries, studentsQuery().Where(docstore.Eq("CLASS", id.DisplayRaw)))
	}
	return queries
}

// DedupeByRoll keeps the first entry per normalised roll number and drops
// entries without one.
func DedupeByRoll(students []models.Student) []models.Student {
	seen := make(map[string]struct{}, len(students))
	out := make([]models.Student, 0, len(students))
	for _, s := range students {
		roll := models.NormalizeRoll(s.RollNo)
		if roll == "" {
			continue
		}
		if _, dup := seen[roll]; dup {
			continue
		}
		seen[roll] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SortByRoll orders students by natural roll number comparison.
func SortByRoll(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return NaturalLess(students[i].RollNo, students[j].RollNo)
	})
}

// RosterService resolves and rewrites class rosters.
type RosterService struct {
	repo      rosterRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &RosterService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// Resolve finds the roster for identity. An empty roster is not an error.
func (s *RosterService) Resolve(ctx context.Context, identity models.ClassIdentity) ([]models.Student, error) {
	return s.resolve(ctx, identity, false)
}

func (s *RosterService) resolve(ctx context.Context, identity models.ClassIdentity, strict bool) ([]models.Student, error) {
	students, used, err := runFallback(ctx, identity, RosterStrategies(),
		func(ctx context.Context, queries []docstore.Query) ([]models.Student, bool, error) {
			var list []models.Student
			for _, q := range queries {
				found, err := s.repo.Find(ctx, q)
				if err != nil {
					return nil, false, err
				}
				list = append(list, found...)
			}
			list = DedupeByRoll(normalizeStudents(list, identity))
			return list, len(list) > 0, nil
		},
		func(strategy string, err error) {
			s.logger.Warn("roster lookup failed", zap.String("strategy", strategy), zap.String("canon", identity.Canon), zap.Error(err))
		}, strict)
	s.metrics.RecordLookup("roster", used)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load roster")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Replace rewrites the class roster atomically: every stored variant is
// deleted and the deduplicated list is inserted under the yearful key.
func (s *RosterService) Replace(ctx context.Context, identity models.ClassIdentity, req dto.ReplaceRosterRequest, mentor string) ([]models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid roster payload")
	}
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}

	stale, err := s.staleIDs(ctx, identity)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load existing roster")
	}

	fresh := make([]models.Student, 0, len(req.Students))
	for _, in := range req.Students {
		fresh = append(fresh, s.newStudent(identity, in, mentor))
	}
	fresh = DedupeByRoll(fresh)

	if err := s.repo.Replace(ctx, stale, fresh); err != nil {
		return nil, appErrors.Unavailable(err, "failed to save roster")
	}
	s.logger.Info("roster replaced",
		zap.String("canon", identity.Canon),
		zap.Int("deleted", len(stale)),
		zap.Int("inserted", len(fresh)))
	return fresh, nil
}

// AddStudent appends one student to the resolved roster.
func (s *RosterService) AddStudent(ctx context.Context, identity models.ClassIdentity, req dto.StudentInput, mentor string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid student payload")
	}
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	current, err := s.resolve(ctx, identity, true)
	if err != nil {
		return nil, err
	}
	roll := models.NormalizeRoll(req.RollNo)
	for _, existing := range current {
		if models.NormalizeRoll(existing.RollNo) == roll {
			return nil, appErrors.Clone(appErrors.ErrValidation, "that roll number already exists")
		}
	}
	student := s.newStudent(identity, req, mentor)
	if err := s.repo.Create(ctx, &student); err != nil {
		return nil, appErrors.Unavailable(err, "failed to add student")
	}
	return &student, nil
}

func (s *RosterService) newStudent(identity models.ClassIdentity, in dto.StudentInput, mentor string) models.Student {
	return models.Student{
		Name:       in.Name,
		RollNo:     in.RollNo,
		Email:      in.Email,
		Class:      identity.Display,
		ClassCanon: identity.Canon,
		Year:       models.YearOf(identity.Year),
		Mentor:     mentor,
	}.Normalize()
}

// staleIDs collects ids of every stored roster variant. Legacy entries that
// carry a different known year belong to another cohort and are kept.
func (s *RosterService) staleIDs(ctx context.Context, identity models.ClassIdentity) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, q := range rosterCleanupQueries(identity) {
		list, err := s.repo.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, st := range list {
			if identity.Year != nil {
				if y := st.Year.Int(); y != nil && *y != *identity.Year {
					continue
				}
			}
			if _, dup := seen[st.ID]; dup {
				continue
			}
			seen[st.ID] = struct{}{}
			ids = append(ids, st.ID)
		}
	}
	return ids, nil
}

func normalizeStudents(list []models.Student, identity models.ClassIdentity) []models.Student {
	out := make([]models.Student, 0, len(list))
	for _, st := range list {
		st = st.Normalize()
		if st.Class == "" {
			st.Class = identity.Display
		}
		if st.ClassCanon == "" {
			st.ClassCanon = identity.Canon
		}
		out = append(out, st)
	}
	return out
}

// NaturalLess compares roll numbers so that "23CS2" sorts before "23CS10".
func NaturalLess(a, b string) bool {
	ta, tb := splitNatural(strings.ToUpper(a)), splitNatural(strings.ToUpper(b))
	for i := 0; i < len(ta) || i < len(tb); i++ {
		var x, y string
		if i < len(ta) {
			x = ta[i]
		}
		if i < len(tb) {
			y = tb[i]
		}
		nx, ny := isDigits(x), isDigits(y)
		if nx && ny {
			if cmp := compareDigits(x, y); cmp != 0 {
				return cmp < 0
			}
			continue
		}
		if x != y {
			return x < y
		}
	}
	return false
}

func splitNatural(s string) []string {
	var tokens []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || class(s[i]) != class(s[start]) {
			tokens = append(tokens, s[start:i])
			start = i
		}
	}
	if len(s) == 0 {
		return nil
	}
	return tokens
}

func class(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
		return 1
	default:
		return 2
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func compareDigits(a, b string) int {
	a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
