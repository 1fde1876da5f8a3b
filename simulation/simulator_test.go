package simulation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/simulation"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestSimulator(opts ...simulation.Option) *simulation.Simulator {
	opts = append([]simulation.Option{simulation.WithClock(func() time.Time { return fixedNow })}, opts...)
	return simulation.NewSimulator(worktime.DefaultPolicy(), opts...)
}

// nightInput is two overnight shifts, which the overlap policies treat
// differently.
func nightInput() worktime.Request {
	return worktime.Request{
		EmployeeID: "emp-001",
		Period:     "2025-05",
		Records: []worktime.RawRecord{
			{"date": "2025-05-06", "start_time": "22:00", "end_time": "08:00", "break_time_minutes": 60},
			{"date": "2025-05-07", "start_time": "22:00", "end_time": "08:00", "break_time_minutes": 60},
		},
	}
}

func overlapVariant(name string, policy worktime.OverlapPolicy) simulation.Variant {
	return simulation.Variant{
		Name:      name,
		Overrides: map[string]any{"policies.work_classification.overlap_policy": string(policy)},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// RUN
// =============================================================================

func TestRun_OutcomesSortedByName(t *testing.T) {
	// GIVEN: Four variants given out of name order
	// WHEN: Run on a pool of two workers
	// THEN: One outcome per variant, sorted by name, each with its own result

	req := simulation.Request{
		Input: nightInput(),
		Variants: []simulation.Variant{
			overlapVariant("d-exclusive", worktime.OverlapExclusiveCategories),
			overlapVariant("a-separate", worktime.OverlapSeparateCounting),
			overlapVariant("c-holiday", worktime.OverlapPrioritizeHoliday),
			overlapVariant("b-night", worktime.OverlapPrioritizeNight),
		},
		Workers: 2,
	}

	report, err := newTestSimulator().Run(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, report.Outcomes, 4)
	names := []string{}
	for _, o := range report.Outcomes {
		names = append(names, o.Variant)
		require.NotNil(t, o.Result, o.Variant)
		assert.Nil(t, o.Result.Error, o.Variant)
		assert.Equal(t, fixedNow, o.Result.ProcessedAt)
	}
	assert.Equal(t, []string{"a-separate", "b-night", "c-holiday", "d-exclusive"}, names)
	assert.Equal(t, "d-exclusive", report.Baseline)
	assert.Equal(t, fixedNow, report.CreatedAt)
	assert.NotEmpty(t, report.ID.String())
}

func TestRun_VariantsDoNotShareState(t *testing.T) {
	req := simulation.Request{
		Input: nightInput(),
		Variants: []simulation.Variant{
			{Name: "standard"},
			{Name: "short-day", Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 360}},
		},
	}
	base := worktime.DefaultPolicy()

	report, err := simulation.NewSimulator(base).Run(context.Background(), req)
	require.NoError(t, err)

	short, ok := report.Outcome("short-day")
	require.True(t, ok)
	standard, ok := report.Outcome("standard")
	require.True(t, ok)
	assert.True(t, short.Result.TimeSummary.OvertimeHours.GreaterThan(standard.Result.TimeSummary.OvertimeHours))
	assert.Equal(t, 480, base.DailyStandardMinutes())
}

func TestRun_FailedVariantDoesNotAbortBatch(t *testing.T) {
	// GIVEN: One variant whose overrides fail strict validation
	// WHEN: Run together with a good variant
	// THEN: The bad variant carries an error, the good one a result

	req := simulation.Request{
		Input: nightInput(),
		Variants: []simulation.Variant{
			{Name: "good"},
			{Name: "bad", Overrides: map[string]any{
				"policies.validation.policy":                   "strict",
				"company_settings.daily_work_minutes_standard": -1,
			}},
		},
		Baseline: "good",
	}

	report, err := newTestSimulator().Run(context.Background(), req)

	require.NoError(t, err)
	bad, _ := report.Outcome("bad")
	assert.Contains(t, bad.Error, "daily_work_minutes_standard")
	assert.Nil(t, bad.Result)
	assert.True(t, bad.Failed())
	good, _ := report.Outcome("good")
	assert.False(t, good.Failed())
	assert.Empty(t, report.Comparisons)
}

func TestRun_CalculationErrorStaysInResult(t *testing.T) {
	req := simulation.Request{
		Input:    worktime.Request{Period: "2025-05"},
		Variants: []simulation.Variant{{Name: "only"}},
	}

	report, err := newTestSimulator().Run(context.Background(), req)

	require.NoError(t, err)
	only, _ := report.Outcome("only")
	assert.Empty(t, only.Error)
	require.NotNil(t, only.Result)
	assert.Equal(t, worktime.CodeEmptyInput, only.Result.Error.ErrorCode)
	assert.Empty(t, report.Metrics)
}

func TestRun_RequestErrors(t *testing.T) {
	sim := newTestSimulator()
	ctx := context.Background()

	_, err := sim.Run(ctx, simulation.Request{Input: nightInput()})
	assert.ErrorIs(t, err, simulation.ErrNoVariants)

	_, err = sim.Run(ctx, simulation.Request{Input: nightInput(), Variants: []simulation.Variant{{Name: "x"}, {Name: "x"}}})
	assert.ErrorIs(t, err, simulation.ErrDuplicateVariant)

	_, err = sim.Run(ctx, simulation.Request{Input: nightInput(), Variants: []simulation.Variant{{}}})
	assert.ErrorIs(t, err, simulation.ErrUnnamedVariant)

	_, err = sim.Run(ctx, simulation.Request{Input: nightInput(), Variants: []simulation.Variant{{Name: "x"}}, Baseline: "y"})
	assert.ErrorIs(t, err, worktime.ErrNotFound)
	assert.True(t, simulation.IsClientError(err))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var variants []simulation.Variant
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		variants = append(variants, simulation.Variant{Name: name})
	}

	report, err := newTestSimulator(simulation.WithWorkers(1)).Run(ctx, simulation.Request{Input: nightInput(), Variants: variants})

	// Either the batch finished before the select or the context won.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, report)
	}
}

func TestRun_ManyVariantsConcurrently(t *testing.T) {
	var variants []simulation.Variant
	for i := 0; i < 40; i++ {
		variants = append(variants, simulation.Variant{
			Name:      fmt.Sprintf("daily-%d", 400+i),
			Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 400 + i},
		})
	}
	report, err := newTestSimulator(simulation.WithWorkers(8)).Run(context.Background(), simulation.Request{
		Input:    nightInput(),
		Variants: variants,
	})

	require.NoError(t, err)
	succeeded := 0
	for _, o := range report.Outcomes {
		if !o.Failed() {
			succeeded++
		}
	}
	assert.Equal(t, 40, succeeded)
	assert.Len(t, report.Comparisons, 39)
}

// =============================================================================
// METRICS
// =============================================================================

func TestSummarize_Metrics(t *testing.T) {
	req := simulation.Request{
		Input: nightInput(),
		Variants: []simulation.Variant{
			{Name: "std-480"},
			{Name: "std-420", Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 420}},
			{Name: "std-360", Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 360}},
		},
	}

	report, err := newTestSimulator().Run(context.Background(), req)
	require.NoError(t, err)

	// 22:00-08:00 less 60 minutes is 9 worked hours a day.
	ot := report.Metrics["overtime_hours"]
	assert.Equal(t, 3, ot.Count)
	assertDecimal(t, "2", ot.Min)
	assertDecimal(t, "6", ot.Max)
	assertDecimal(t, "4", ot.Median)
	assertDecimal(t, "4", ot.Avg)
	assert.Equal(t, []string{"std-480"}, ot.Lowest)

	total := report.Metrics["total_net_work_hours"]
	assertDecimal(t, "18", total.Min)
	assertDecimal(t, "18", total.Max)
	assert.Equal(t, []string{"std-360", "std-420", "std-480"}, total.Lowest)
}
