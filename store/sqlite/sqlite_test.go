package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/store/sqlite"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// CALCULATION RUNS
// =============================================================================

func TestRuns_SaveGetList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	older := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{
		ID: "run-1", EmployeeID: "emp-1", Period: "2025-05", Mode: "timecard",
		ResultJSON: `{"processing_mode":"timecard"}`, CreatedAt: older,
	}))
	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{
		ID: "run-2", EmployeeID: "emp-1", Period: "2025-05", Mode: "error", ErrorCode: "EMPTY_INPUT",
		ProfileID: "korean", ResultJSON: `{"processing_mode":"error"}`, CreatedAt: newer,
	}))
	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{
		ID: "run-3", EmployeeID: "emp-2", Period: "2025-05", Mode: "attendance", ResultJSON: `{}`, CreatedAt: newer,
	}))

	got, err := store.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, "EMPTY_INPUT", got.ErrorCode)
	assert.Equal(t, "korean", got.ProfileID)
	assert.Equal(t, newer, got.CreatedAt)

	runs, err := store.ListRuns(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Empty(t, runs[1].ErrorCode)

	all, err := store.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRuns_NotFound(t *testing.T) {
	_, err := newTestStore(t).GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, worktime.ErrNotFound)
}

func TestRuns_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	run := sqlite.CalculationRun{ID: "run-1", EmployeeID: "e", Period: "2025-05", Mode: "timecard", ResultJSON: "{}"}

	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}

// =============================================================================
// SIMULATIONS
// =============================================================================

func TestSimulations_SaveGetList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveSimulation(ctx, sqlite.SimulationRun{
		ID: "sim-1", EmployeeID: "emp-1", Period: "2025-05", Baseline: "standard",
		VariantCount: 3, ReportJSON: `{"id":"sim-1"}`,
	}))

	got, err := store.GetSimulation(ctx, "sim-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.VariantCount)
	assert.Equal(t, `{"id":"sim-1"}`, got.ReportJSON)
	assert.False(t, got.CreatedAt.IsZero())

	list, err := store.ListSimulations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].ReportJSON)

	_, err = store.GetSimulation(ctx, "sim-2")
	assert.True(t, worktime.IsNotFound(err))
}

// =============================================================================
// PROFILES
// =============================================================================

func TestProfiles_UpsertBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p1", Name: "korean", Format: "yaml", Body: "a: 1"}))
	require.NoError(t, store.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p1", Name: "korean", Format: "yaml", Body: "a: 2"}))

	got, err := store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a: 2", got.Body)
	assert.Equal(t, 2, got.Version)

	byName, err := store.GetProfile(ctx, "korean")
	require.NoError(t, err)
	assert.Equal(t, "p1", byName.ID)
}

func TestProfiles_DuplicateName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p1", Name: "korean", Format: "yaml", Body: ""}))
	err := store.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p2", Name: "korean", Format: "yaml", Body: ""})

	assert.ErrorIs(t, err, sqlite.ErrDuplicateProfile)
}

func TestProfiles_DeleteCascadesHolidays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p1", Name: "korean", Format: "yaml", Body: ""}))
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h1", ProfileID: "p1", Date: "2025-06-06", Name: "현충일"}))
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h2", Date: "2025-01-01", Name: "신정"}))

	require.NoError(t, store.DeleteProfile(ctx, "p1"))

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "h2", holidays[0].ID)

	assert.ErrorIs(t, store.DeleteProfile(ctx, "p1"), worktime.ErrNotFound)
	profiles, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_GlobalAndProfileRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "g1", Date: "2025-05-05", Name: "어린이날"}))
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "p1", ProfileID: "plant", Date: "2025-05-01", Name: "근로자의 날"}))
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "p2", ProfileID: "office", Date: "2025-05-02", Name: "창립기념일"}))

	plant, err := store.HolidaysFor(ctx, "plant")
	require.NoError(t, err)
	require.Len(t, plant, 2)
	assert.Equal(t, "2025-05-01", plant[0].Date)
	assert.Equal(t, "2025-05-05", plant[1].Date)

	global, err := store.HolidaysFor(ctx, "")
	require.NoError(t, err)
	assert.Len(t, global, 1)
}

func TestHolidays_SameDateRenames(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h1", Date: "2025-05-05", Name: "old"}))
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h2", Date: "2025-05-05", Name: "new"}))

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "h1", holidays[0].ID)
	assert.Equal(t, "new", holidays[0].Name)
}

func TestHolidays_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h1", Date: "2025-05-05", Name: "어린이날"}))

	require.NoError(t, store.DeleteHoliday(ctx, "h1"))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "h1"), worktime.ErrNotFound)
}

func TestPrune_RemovesOldRunsOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{ID: "old", EmployeeID: "e", Period: "p", Mode: "m", ResultJSON: "{}", CreatedAt: cutoff.Add(-time.Hour)}))
	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{ID: "new", EmployeeID: "e", Period: "p", Mode: "m", ResultJSON: "{}", CreatedAt: cutoff.Add(time.Hour)}))
	require.NoError(t, store.SaveSimulation(ctx, sqlite.SimulationRun{ID: "sim", EmployeeID: "e", Period: "p", Baseline: "b", ReportJSON: "{}", CreatedAt: cutoff.Add(-24 * time.Hour)}))

	res, err := store.Prune(ctx, cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Runs)
	assert.Equal(t, int64(1), res.Simulations)
	runs, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveHoliday(ctx, sqlite.HolidayRecord{ID: "h1", Date: "2025-05-05", Name: "x"}))
	require.NoError(t, store.SaveRun(ctx, sqlite.CalculationRun{ID: "r", EmployeeID: "e", Period: "p", Mode: "m", ResultJSON: "{}"}))

	require.NoError(t, store.Reset(ctx))

	holidays, _ := store.ListHolidays(ctx)
	runs, _ := store.ListRuns(ctx, "", 0)
	assert.Empty(t, holidays)
	assert.Empty(t, runs)
	require.NoError(t, store.Ping(ctx))
}
