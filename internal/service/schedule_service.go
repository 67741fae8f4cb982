package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/repository"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
)

type scheduleRepository interface {
	Subscribe(ctx context.Context, fn docstore.Listener) (docstore.Unsubscribe, error)
	GetSchedule(ctx context.Context) (*docstore.Document, error)
	SetWindow(ctx context.Context, start, end string, now time.Time) error
	SetEnabled(ctx context.Context, enabled bool, now time.Time) error
	SetSchedule(ctx context.Context, sched models.AttendanceSchedule, now time.Time) error
}

// ScheduleDefaults is applied while the settings document is missing or malformed.
type ScheduleDefaults struct {
	Enabled   bool
	StartHHMM string
	EndHHMM   string
}

// ScheduleService caches the department attendance window for the process.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	defaults  ScheduleDefaults
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.RWMutex
	state       models.ScheduleState
	unsubscribe docstore.Unsubscribe
	// gen numbers subscriptions; snapshots from an older one are dropped.
	gen Generation
}

// NewScheduleService constructs the service in the loading state.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, defaults ScheduleDefaults, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if defaults.StartHHMM == "" {
		defaults.StartHHMM = "06:00"
	}
	if defaults.EndHHMM == "" {
		defaults.EndHHMM = "08:20"
	}
	s := &ScheduleService{
		repo:      repo,
		validator: validate,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
	s.state = models.ScheduleState{Schedule: s.defaultSchedule(), Loading: true}
	return s
}

func (s *ScheduleService) defaultSchedule() models.AttendanceSchedule {
	return models.AttendanceSchedule{Enabled: s.defaults.Enabled, StartHHMM: s.defaults.StartHHMM, EndHHMM: s.defaults.EndHHMM}
}

// Start subscribes to the settings document. The first snapshot clears the
// loading flag.
func (s *ScheduleService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	unsub, err := s.repo.Subscribe(ctx, s.listener(s.gen.Next()))
	if err != nil {
		return appErrors.Unavailable(err, "failed to subscribe to schedule")
	}

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
	return nil
}

// Stop ends the subscription. The cached value is kept.
func (s *ScheduleService) Stop() {
	s.gen.Next()
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// listener applies snapshots while subscription gen is the latest one.
func (s *ScheduleService) listener(gen uint64) docstore.Listener {
	return func(doc *docstore.Document) {
		if !s.gen.IsCurrent(gen) {
			return
		}
		s.apply(doc)
	}
}

func (s *ScheduleService) decode(doc *docstore.Document) (models.AttendanceSchedule, bool) {
	sched, ok := repository.DecodeSchedule(doc)
	if !ok {
		sched = s.defaultSchedule()
	}
	if doc != nil {
		var stamp struct {
			UpdatedAt *time.Time `json:"updatedAt"`
		}
		if err := doc.Decode(&stamp); err == nil {
			sched.UpdatedAt = stamp.UpdatedAt
		}
	}
	return sched, ok
}

func (s *ScheduleService) apply(doc *docstore.Document) {
	sched, ok := s.decode(doc)

	s.mu.Lock()
	wasLoading := s.state.Loading
	s.state = models.ScheduleState{Schedule: sched, Loading: false, Stored: ok}
	s.mu.Unlock()

	if wasLoading {
		s.logger.Info("attendance schedule loaded",
			zap.Bool("enabled", sched.Enabled),
			zap.String("start", sched.StartHHMM),
			zap.String("end", sched.EndHHMM),
			zap.Bool("stored", ok))
	}
}

// Current returns the cached schedule.
func (s *ScheduleService) Current() models.ScheduleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update validates and stores a new window, enabling the schedule.
func (s *ScheduleService) Update(ctx context.Context, req dto.UpdateScheduleRequest) (models.ScheduleState, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ScheduleState{}, appErrors.Invalid(err, "times must be HH:MM")
	}
	start, _ := istclock.ParseHHMM(req.StartHHMM)
	end, _ := istclock.ParseHHMM(req.EndHHMM)
	if end <= start {
		return models.ScheduleState{}, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	if err := s.repo.SetWindow(ctx, req.StartHHMM, req.EndHHMM, s.now()); err != nil {
		return models.ScheduleState{}, appErrors.Unavailable(err, "failed to save schedule")
	}
	s.logger.Info("attendance schedule updated", zap.String("start", req.StartHHMM), zap.String("end", req.EndHHMM))
	return s.optimistic(func(sched *models.AttendanceSchedule) {
		sched.Enabled = true
		sched.StartHHMM = req.StartHHMM
		sched.EndHHMM = req.EndHHMM
	}), nil
}

// Toggle flips the enabled flag against the cached value, or the stored one
// while the first snapshot is pending. When only defaults are in effect the
// full window is written so the flag survives the reload.
func (s *ScheduleService) Toggle(ctx context.Context) (models.ScheduleState, error) {
	current := s.Current()
	if current.Loading {
		stored, err := s.read(ctx)
		if err != nil {
			return models.ScheduleState{}, appErrors.Unavailable(err, "failed to load schedule")
		}
		current = stored
		s.mu.Lock()
		if s.state.Loading {
			s.state.Schedule = stored.Schedule
			s.state.Stored = stored.Stored
		}
		s.mu.Unlock()
	}
	next := !current.Schedule.Enabled
	var err error
	if current.Stored {
		err = s.repo.SetEnabled(ctx, next, s.now())
	} else {
		sched := current.Schedule
		sched.Enabled = next
		err = s.repo.SetSchedule(ctx, sched, s.now())
	}
	if err != nil {
		return models.ScheduleState{}, appErrors.Unavailable(err, "failed to toggle schedule")
	}
	s.logger.Info("attendance schedule toggled", zap.Bool("enabled", next))
	return s.optimistic(func(sched *models.AttendanceSchedule) { sched.Enabled = next }), nil
}

// read fetches the stored schedule directly, for use before the first
// snapshot has arrived.
func (s *ScheduleService) read(ctx context.Context) (models.ScheduleState, error) {
	doc, err := s.repo.GetSchedule(ctx)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return models.ScheduleState{}, err
	}
	if err != nil {
		doc = nil
	}
	sched, ok := s.decode(doc)
	return models.ScheduleState{Schedule: sched, Stored: ok}, nil
}

// optimistic applies a successful write to the cache ahead of the change
// notification, which replays the same values.
func (s *ScheduleService) optimistic(fn func(*models.AttendanceSchedule)) models.ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched := s.state.Schedule
	fn(&sched)
	now := s.now().UTC()
	sched.UpdatedAt = &now
	s.state.Schedule = sched
	s.state.Stored = true
	return s.state
}
