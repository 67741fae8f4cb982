package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

type classRepository interface {
	ListByDept(ctx context.Context, dept string, year *int) ([]models.ClassDoc, error)
	FindBySection(ctx context.Context, dept, section string) ([]models.ClassDoc, error)
	ListByMentor(ctx context.Context, email string) ([]models.ClassDoc, error)
	Create(ctx context.Context, class *models.ClassDoc) error
}

// ClassService manages department sections and the cached section metadata.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	dept      string
	metaTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewClassService constructs the service for one department.
func NewClassService(repo classRepository, cache *CacheService, validate *validator.Validate, dept string, metaTTL time.Duration, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ClassService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		dept:      strings.ToUpper(strings.TrimSpace(dept)),
		metaTTL:   metaTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Dept returns the department the service is scoped to.
func (s *ClassService) Dept() string { return s.dept }

// List returns the department's classes ordered by year then section.
func (s *ClassService) List(ctx context.Context, year *int) ([]models.ClassDoc, error) {
	classes, err := s.repo.ListByDept(ctx, s.dept, year)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list classes")
	}
	sortClasses(classes)
	return classes, nil
}

// Mine returns the classes mentored by email.
func (s *ClassService) Mine(ctx context.Context, email string) ([]models.ClassDoc, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []models.ClassDoc{}, nil
	}
	classes, err := s.repo.ListByMentor(ctx, email)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list mentor classes")
	}
	sortClasses(classes)
	return classes, nil
}

// Create adds a section to a year after checking section and mentor uniqueness.
func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (*models.ClassDoc, error) {
	req.Section = strings.ToUpper(strings.TrimSpace(req.Section))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid class payload")
	}

	mentors, emails, err := s.normalizeMentors(req.Mentors)
	if err != nil {
		return nil, err
	}

	year := req.Year
	existing, err := s.repo.ListByDept(ctx, s.dept, &year)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load classes")
	}
	used := make(map[string]string)
	for _, c := range existing {
		if strings.EqualFold(c.Section, req.Section) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s already exists in year %d", req.Section, year))
		}
		for _, e := range c.MentorEmails {
			used[strings.ToLower(e)] = c.Section
		}
	}
	for _, e := range emails {
		if section, taken := used[e]; taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s already mentors section %s in year %d", e, section, year))
		}
	}

	now := s.now().UTC()
	class := &models.ClassDoc{
		Dept:         s.dept,
		Year:         models.YearOf(&year),
		Section:      req.Section,
		Mentors:      mentors,
		MentorEmails: emails,
		Status:       models.ClassStatusActive,
		CreatedAt:    &now,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Unavailable(err, "failed to create class")
	}
	s.cache.Forget(ctx, s.metaBucket(), req.Section)

	s.logger.Info("class created", zap.String("dept", s.dept), zap.Int("year", year), zap.String("section", req.Section))
	return class, nil
}

// Meta looks up the year and section recorded for a section letter. The
// first matching class wins. A nil result means the section is unknown.
func (s *ClassService) Meta(ctx context.Context, section string) (*models.ClassMeta, error) {
	section = strings.ToUpper(strings.TrimSpace(section))
	if section == "" {
		return nil, nil
	}
	var cached models.ClassMeta
	if s.cache.Lookup(ctx, s.metaBucket(), section, &cached) {
		return &cached, nil
	}

	classes, err := s.repo.FindBySection(ctx, s.dept, section)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, nil
	}
	meta := &models.ClassMeta{Year: classes[0].Year.Int(), Section: classes[0].Section}
	s.cache.Store(ctx, s.metaBucket(), section, meta, s.metaTTL)
	return meta, nil
}

// metaBucket holds every section of the department.
func (s *ClassService) metaBucket() string {
	return "classmeta:" + s.dept
}

func (s *ClassService) normalizeMentors(in []dto.MentorInput) ([]models.Mentor, []string, error) {
	mentors := make([]models.Mentor, 0, len(in))
	emails := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, m := range in {
		name := strings.TrimSpace(m.Name)
		email := strings.ToLower(strings.TrimSpace(m.Email))
		if name == "" && email == "" {
			continue
		}
		if email != "" {
			if err := s.validator.Var(email, "email"); err != nil {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid mentor email: "+email)
			}
			if _, dup := seen[email]; dup {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "mentor emails must be different")
			}
			seen[email] = struct{}{}
			emails = append(emails, email)
		}
		mentors = append(mentors, models.Mentor{Name: name, Email: email})
	}
	return mentors, emails, nil
}

func sortClasses(classes []models.ClassDoc) {
	sort.SliceStable(classes, func(i, j int) bool {
		yi, yj := yearOrZero(classes[i].Year.Int()), yearOrZero(classes[j].Year.Int())
		if yi != yj {
			return yi < yj
		}
		return SectionLess(classes[i].Section, classes[j].Section)
	})
}

func yearOrZero(y *int) int {
	if y == nil {
		return 0
	}
	return *y
}
