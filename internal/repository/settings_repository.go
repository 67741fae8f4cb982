package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
)

// SettingsRepository reads and writes the schedule singleton.
type SettingsRepository struct {
	store docstore.Store
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(store docstore.Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// DecodeSchedule parses a settings snapshot. ok is false when the document is
// missing or lacks the window fields.
func DecodeSchedule(doc *docstore.Document) (models.AttendanceSchedule, bool) {
	if doc == nil {
		return models.AttendanceSchedule{}, false
	}
	var raw struct {
		Enabled   bool        `json:"enabled"`
		StartHHMM interface{} `json:"startHHMM"`
		EndHHMM   interface{} `json:"endHHMM"`
	}
	if err := json.Unmarshal(doc.Data, &raw); err != nil {
		return models.AttendanceSchedule{}, false
	}
	start, okStart := raw.StartHHMM.(string)
	end, okEnd := raw.EndHHMM.(string)
	if !okStart || !okEnd {
		return models.AttendanceSchedule{}, false
	}
	return models.AttendanceSchedule{Enabled: raw.Enabled, StartHHMM: start, EndHHMM: end}, true
}

// Subscribe streams schedule snapshots to fn.
func (r *SettingsRepository) Subscribe(ctx context.Context, fn docstore.Listener) (docstore.Unsubscribe, error) {
	return r.store.Subscribe(ctx, CollectionSettings, models.ScheduleDocID, fn)
}

// GetSchedule fetches the stored schedule.
func (r *SettingsRepository) GetSchedule(ctx context.Context) (*docstore.Document, error) {
	return r.store.Get(ctx, CollectionSettings, models.ScheduleDocID)
}

// SetWindow enables the schedule with a new window.
func (r *SettingsRepository) SetWindow(ctx context.Context, start, end string, now time.Time) error {
	fields := map[string]interface{}{"enabled": true, "startHHMM": start, "endHHMM": end, "updatedAt": now.UTC()}
	if err := r.store.Set(ctx, CollectionSettings, models.ScheduleDocID, fields, docstore.Merge()); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}

// SetEnabled flips only the enabled flag.
func (r *SettingsRepository) SetEnabled(ctx context.Context, enabled bool, now time.Time) error {
	fields := map[string]interface{}{"enabled": enabled, "updatedAt": now.UTC()}
	if err := r.store.Set(ctx, CollectionSettings, models.ScheduleDocID, fields, docstore.Merge()); err != nil {
		return fmt.Errorf("toggle schedule: %w", err)
	}
	return nil
}

// SetSchedule writes the whole schedule, keeping unrelated fields.
func (r *SettingsRepository) SetSchedule(ctx context.Context, sched models.AttendanceSchedule, now time.Time) error {
	fields := map[string]interface{}{
		"enabled":   sched.Enabled,
		"startHHMM": sched.StartHHMM,
		"endHHMM":   sched.EndHHMM,
		"updatedAt": now.UTC(),
	}
	if err := r.store.Set(ctx, CollectionSettings, models.ScheduleDocID, fields, docstore.Merge()); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}
