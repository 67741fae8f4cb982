package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-attendance-api/internal/classkey"
	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
	"github.com/noah-isme/dept-attendance-api/pkg/jobs"
)

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error)
	Merge(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type classMetaLookup interface {
	Meta(ctx context.Context, section string) (*models.ClassMeta, error)
}

type scheduleSource interface {
	Current() models.ScheduleState
}

type rosterResolver interface {
	Resolve(ctx context.Context, identity models.ClassIdentity) ([]models.Student, error)
}

type cleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// Record sources reported alongside a resolved attendance document.
const (
	SourceCanon  = "canon"
	SourceLegacy = "legacy"
	SourceNone   = StrategyNone
)

// LegacyCleanupJob is the job type for deleting superseded legacy documents.
const LegacyCleanupJob = "attendance.legacy_cleanup"

// Legacy cleanup outcomes, used as metric labels.
const (
	cleanupDeleted = "deleted"
	cleanupAbsent  = "absent"
	cleanupFailed  = "failed"
	cleanupQueued  = "queued"
)

type attendanceKey struct {
	identity models.ClassIdentity
	date     string
}

// AttendanceStrategy builds one document id from a class-day.
type AttendanceStrategy = Strategy[attendanceKey, string]

func attendanceStrategies() []AttendanceStrategy {
	return []AttendanceStrategy{
		{Name: SourceCanon, Build: func(k attendanceKey) (string, bool) {
			return models.AttendanceDocID(k.identity.Canon, k.date), k.identity.Canon != ""
		}},
		{Name: SourceLegacy, Build: func(k attendanceKey) (string, bool) {
			return models.AttendanceDocID(k.identity.LegacyCanon, k.date), k.identity.HasLegacyVariant()
		}},
	}
}

// AttendanceConfig carries the department rules the service enforces.
type AttendanceConfig struct {
	Dept            string
	CutoffHour      int
	DefaultLockHHMM string
	LegacyCleanup   bool
}

// AttendanceService resolves, saves and locks class-day attendance.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterResolver
	meta      classMetaLookup
	schedule  scheduleSource
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       AttendanceConfig
	now       func() time.Time
	cleanup   cleanupQueue
}

// NewAttendanceService constructs the service.
func NewAttendanceService(
	repo attendanceRepository,
	roster rosterResolver,
	meta classMetaLookup,
	schedule scheduleSource,
	validate *validator.Validate,
	metrics *MetricsService,
	cfg AttendanceConfig,
	logger *zap.Logger,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.DefaultLockHHMM == "" {
		cfg.DefaultLockHHMM = "15:00"
	}
	cfg.Dept = strings.ToUpper(strings.TrimSpace(cfg.Dept))
	return &AttendanceService{
		repo:      repo,
		roster:    roster,
		meta:      meta,
		schedule:  schedule,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// UseCleanupQueue routes legacy deletions through q instead of running them inline.
func (s *AttendanceService) UseCleanupQueue(q cleanupQueue) {
	s.cleanup = q
}

// Resolve returns the class-day document, trying the canonical id before the
// legacy id. A nil record with SourceNone means the day is unmarked.
func (s *AttendanceService) Resolve(ctx context.Context, identity models.ClassIdentity, date string) (*models.AttendanceRecord, string, error) {
	return s.resolve(ctx, identity, date, false)
}

// resolveForWrite is Resolve without skipping failed reads, so a write never
// proceeds on a document it could not see.
func (s *AttendanceService) resolveForWrite(ctx context.Context, identity models.ClassIdentity, date string) (*models.AttendanceRecord, string, error) {
	return s.resolve(ctx, identity, date, true)
}

func (s *AttendanceService) resolve(ctx context.Context, identity models.ClassIdentity, date string, strict bool) (*models.AttendanceRecord, string, error) {
	rec, used, err := runFallback(ctx, attendanceKey{identity: identity, date: date}, attendanceStrategies(),
		func(ctx context.Context, id string) (*models.AttendanceRecord, bool, error) {
			rec, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return nil, false, err
			}
			return rec, rec != nil, nil
		},
		func(strategy string, err error) {
			s.logger.Warn("attendance lookup failed", zap.String("strategy", strategy), zap.String("canon", identity.Canon), zap.String("date", date), zap.Error(err))
		}, strict)
	s.metrics.RecordLookup("attendance", used)
	if err != nil {
		return nil, SourceNone, appErrors.Unavailable(err, "failed to load attendance")
	}
	return rec, used, nil
}

// Window evaluates the edit window for a class-day.
func (s *AttendanceService) Window(ctx context.Context, identity models.ClassIdentity, date string) (models.EditWindow, error) {
	if !istclock.ValidDateKey(date) {
		return models.EditWindow{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	rec, _, err := s.Resolve(ctx, identity, date)
	if err != nil {
		return models.EditWindow{}, err
	}
	return s.evaluate(date, rec), nil
}

func (s *AttendanceService) evaluate(date string, rec *models.AttendanceRecord) models.EditWindow {
	state := s.schedule.Current()
	return EvaluateEditWindow(EditWindowInput{
		Now:             s.now(),
		Date:            date,
		CutoffHour:      s.cfg.CutoffHour,
		Schedule:        state.Schedule,
		ScheduleLoading: state.Loading,
		LockUntil:       rec.LockInstant(),
	})
}

// checkEditable resolves the current document and rejects the mutation when
// the window is closed.
func (s *AttendanceService) checkEditable(ctx context.Context, identity models.ClassIdentity, date string) (*models.AttendanceRecord, models.EditWindow, error) {
	rec, _, err := s.resolveForWrite(ctx, identity, date)
	if err != nil {
		return nil, models.EditWindow{}, err
	}
	window := s.evaluate(date, rec)
	if !window.State.Editable() {
		s.metrics.RecordEditRejection(string(window.State))
		s.logger.Info("attendance edit rejected",
			zap.String("canon", identity.Canon),
			zap.String("date", date),
			zap.String("state", string(window.State)))
		return rec, window, EditWindowError(window)
	}
	return rec, window, nil
}

// Save persists a full set of marks for a class-day.
func (s *AttendanceService) Save(ctx context.Context, identity models.ClassIdentity, req dto.SaveAttendanceRequest, actor string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid attendance payload")
	}
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	marks, err := normalizeMarks(req.Marks)
	if err != nil {
		return nil, err
	}

	existing, _, err := s.checkEditable(ctx, identity, req.Date)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, identity, req.Date, marks, actor, existing)
}

func normalizeMarks(in map[string]models.Mark) (map[string]models.Mark, error) {
	out := make(map[string]models.Mark, len(in))
	for roll, m := range in {
		key := models.NormalizeRoll(roll)
		if key == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "marks must be keyed by roll number")
		}
		set := 0
		for _, flag := range []bool{m.Present, m.Absent, m.Late} {
			if flag {
				set++
			}
		}
		if set > 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("roll %s has more than one status", key))
		}
		out[key] = m
	}
	return out, nil
}

// persist writes the canonical document and schedules removal of the legacy one.
func (s *AttendanceService) persist(ctx context.Context, identity models.ClassIdentity, date string, marks map[string]models.Mark, actor string, existing *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := s.now()
	section, year := s.classFields(ctx, identity)

	lock, err := istclock.At(date, s.cfg.CutoffHour, 0)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if prior := existing.LockInstant(); prior != nil && prior.Before(lock) {
		lock = *prior
	}

	rec := &models.AttendanceRecord{
		ID:           models.AttendanceDocID(identity.Canon, date),
		ClassCanon:   identity.Canon,
		ClassDisplay: identity.Display,
		Class:        identity.Canon,
		Date:         date,
		Dept:         s.cfg.Dept,
		Section:      section,
		Year:         models.YearOf(year),
		Mentor:       actor,
		Marks:        marks,
		Counts:       models.CountMarks(marks),
		LockUntil:    istclock.Format(lock),
		IsLocked:     now.After(lock),
	}
	lockTs := lock.UTC()
	updated := now.UTC()
	rec.LockUntilTs = &lockTs
	rec.UpdatedAt = &updated

	fields := map[string]interface{}{
		"CLASS_CANON":   rec.ClassCanon,
		"CLASS_DISPLAY": rec.ClassDisplay,
		"CLASS":         rec.Class,
		"DATE":          rec.Date,
		"dept":          rec.Dept,
		"section":       rec.Section,
		"year":          year,
		"mentor":        rec.Mentor,
		"updatedAt":     updated,
		"lockUntil":     rec.LockUntil,
		"lockUntilTs":   lockTs,
		"isLocked":      rec.IsLocked,
		"counts":        rec.Counts,
		"marks":         marks,
	}

	start := time.Now()
	err = s.repo.Merge(ctx, rec.ID, fields)
	s.metrics.ObserveBackend("attendance_save", time.Since(start))
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to save attendance")
	}
	s.logger.Info("attendance saved",
		zap.String("id", rec.ID),
		zap.String("mentor", actor),
		zap.Int("present", rec.Counts.Present),
		zap.Int("absent", rec.Counts.Absent),
		zap.Int("late", rec.Counts.Late))

	if identity.HasLegacyVariant() && s.cfg.LegacyCleanup {
		s.scheduleLegacyCleanup(ctx, models.AttendanceDocID(identity.LegacyCanon, date))
	}
	return rec, nil
}

// classFields fills section and year from the identity, then the class
// lookup, then the canonical key itself.
func (s *AttendanceService) classFields(ctx context.Context, identity models.ClassIdentity) (string, *int) {
	section := identity.Section
	year := identity.Year

	if s.meta != nil && (section == "" || year == nil) {
		lookup := section
		if lookup == "" {
			lookup = classkey.ExtractSectionFromCanon(identity.Canon, s.cfg.Dept)
		}
		meta, err := s.meta.Meta(ctx, lookup)
		if err != nil {
			s.logger.Warn("class meta lookup failed", zap.String("section", lookup), zap.Error(err))
		} else if meta != nil {
			if section == "" {
				section = meta.Section
			}
			if year == nil {
				year = meta.Year
			}
		}
	}
	if section == "" {
		section = classkey.ExtractSectionFromCanon(identity.Canon, s.cfg.Dept)
	}
	return section, year
}

func (s *AttendanceService) scheduleLegacyCleanup(ctx context.Context, legacyID string) {
	if s.cleanup != nil {
		err := s.cleanup.Enqueue(jobs.Job{ID: legacyID, Type: LegacyCleanupJob, Payload: legacyID})
		if err == nil {
			s.metrics.RecordLegacyCleanup(cleanupQueued)
			return
		}
		s.logger.Warn("legacy cleanup enqueue failed, running inline", zap.String("id", legacyID), zap.Error(err))
	}
	if err := s.CleanupLegacy(ctx, legacyID); err != nil {
		s.logger.Warn("legacy attendance cleanup failed", zap.String("id", legacyID), zap.Error(err))
	}
}

// CleanupLegacy deletes a superseded legacy document if it is still present.
func (s *AttendanceService) CleanupLegacy(ctx context.Context, legacyID string) error {
	rec, err := s.repo.FindByID(ctx, legacyID)
	if err != nil {
		s.metrics.RecordLegacyCleanup(cleanupFailed)
		return err
	}
	if rec == nil {
		s.metrics.RecordLegacyCleanup(cleanupAbsent)
		return nil
	}
	if err := s.repo.Delete(ctx, legacyID); err != nil {
		s.metrics.RecordLegacyCleanup(cleanupFailed)
		return err
	}
	s.metrics.RecordLegacyCleanup(cleanupDeleted)
	s.logger.Info("legacy attendance removed", zap.String("id", legacyID))
	return nil
}

// HandleCleanupJob is the queue handler for LegacyCleanupJob.
func (s *AttendanceService) HandleCleanupJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		return fmt.Errorf("unexpected payload for %s: %T", job.Type, job.Payload)
	}
	return s.CleanupLegacy(ctx, id)
}

// SetLock records the per-class lock time for a day. The canonical document
// is preferred, then the legacy one; a zero-count placeholder is created
// when the day has no document yet.
func (s *AttendanceService) SetLock(ctx context.Context, identity models.ClassIdentity, req dto.SetLockRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid lock payload")
	}
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	hhmm := req.HHMM
	if hhmm == "" {
		hhmm = s.cfg.DefaultLockHHMM
	}
	lock, err := istclock.AtHHMM(req.Date, hhmm)
	if err != nil {
		return nil, appErrors.Invalid(err, "invalid lock time")
	}

	existing, source, err := s.resolveForWrite(ctx, identity, req.Date)
	if err != nil {
		return nil, err
	}

	target := models.AttendanceDocID(identity.Canon, req.Date)
	fields := map[string]interface{}{
		"lockUntil":   istclock.Format(lock),
		"lockUntilTs": lock.UTC(),
		"isLocked":    s.now().After(lock),
	}
	switch source {
	case SourceLegacy:
		target = existing.ID
	case SourceNone:
		section, year := s.classFields(ctx, identity)
		fields["CLASS_CANON"] = identity.Canon
		fields["CLASS_DISPLAY"] = identity.Display
		fields["CLASS"] = identity.Canon
		fields["DATE"] = req.Date
		fields["dept"] = s.cfg.Dept
		fields["section"] = section
		fields["year"] = year
		fields["counts"] = models.Counts{}
	}

	if err := s.repo.Merge(ctx, target, fields); err != nil {
		return nil, appErrors.Unavailable(err, "failed to set lock")
	}
	s.logger.Info("attendance lock set", zap.String("id", target), zap.String("lock_until", istclock.Format(lock)), zap.String("source", source))

	rec, err := s.repo.FindByID(ctx, target)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to reload attendance")
	}
	return rec, nil
}
