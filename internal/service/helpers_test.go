package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/repository"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
)

const testDate = "2025-01-15"

// ist builds an instant on testDate.
func ist(hour, minute int) time.Time {
	return time.Date(2025, 1, 15, hour, minute, 0, 0, istclock.Zone)
}

func intPtr(v int) *int { return &v }

type testEnv struct {
	store      *docstore.MemoryStore
	metrics    *MetricsService
	schedule   *ScheduleService
	roster     *RosterService
	classes    *ClassService
	attendance *AttendanceService
	overview   *OverviewService
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	store := docstore.NewMemoryStore()
	validate := NewValidator()
	metrics := NewMetricsService()
	clock := func() time.Time { return now }

	schedule := NewScheduleService(repository.NewSettingsRepository(store), validate,
		ScheduleDefaults{Enabled: true, StartHHMM: "06:00", EndHHMM: "08:20"}, nil)
	schedule.now = clock
	require.NoError(t, schedule.Start(context.Background()))
	t.Cleanup(schedule.Stop)

	roster := NewRosterService(repository.NewStudentRepository(store), validate, metrics, nil)

	classes := NewClassService(repository.NewClassRepository(store), nil, validate, "CSE", time.Minute, nil)
	classes.now = clock

	attendance := NewAttendanceService(repository.NewAttendanceRepository(store), roster, classes, schedule, validate, metrics,
		AttendanceConfig{Dept: "CSE", CutoffHour: 21, LegacyCleanup: true}, nil)
	attendance.now = clock

	overview := NewOverviewService(repository.NewClassRepository(store), repository.NewAttendanceRepository(store), roster, schedule, "CSE", nil)
	overview.now = clock

	return &testEnv{
		store:      store,
		metrics:    metrics,
		schedule:   schedule,
		roster:     roster,
		classes:    classes,
		attendance: attendance,
		overview:   overview,
	}
}

func (e *testEnv) put(t *testing.T, collection, id string, data map[string]interface{}) {
	t.Helper()
	require.NoError(t, e.store.Set(context.Background(), collection, id, data))
}

func (e *testEnv) get(t *testing.T, collection, id string) map[string]interface{} {
	t.Helper()
	doc, err := e.store.Get(context.Background(), collection, id)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, doc.Decode(&out))
	return out
}

func (e *testEnv) exists(collection, id string) bool {
	_, err := e.store.Get(context.Background(), collection, id)
	return err == nil
}

func (e *testEnv) seedStudent(t *testing.T, id, roll, canon string, year interface{}) {
	t.Helper()
	data := map[string]interface{}{
		"NAME":        "Student " + roll,
		"ROLLNO":      roll,
		"EMAIL":       roll + "@college.test",
		"CLASS":       canon,
		"CLASS_CANON": canon,
	}
	if year != nil {
		data["year"] = year
	}
	e.put(t, repository.CollectionStudents, id, data)
}

func identityFor(display string, year *int) models.ClassIdentity {
	return ResolveClassIdentity("CSE", models.ClassRef{Display: display, Year: year})
}
