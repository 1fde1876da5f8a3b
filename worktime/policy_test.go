package worktime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

func traceFor(p *worktime.Policy, key string) (worktime.TraceEntry, bool) {
	for _, e := range p.Trace() {
		if e.Key == key {
			return e, true
		}
	}
	return worktime.TraceEntry{}, false
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestPolicy_Defaults(t *testing.T) {
	p := worktime.DefaultPolicy()

	assert.Equal(t, 480, p.DailyStandardMinutes())
	assert.Equal(t, 2400, p.WeeklyStandardMinutes())
	assert.Equal(t, 720, p.WeeklyOvertimeBufferMinutes())
	assert.Equal(t, 3120, p.WeeklyLimitMinutes())
	start, end := p.NightWindow()
	assert.Equal(t, "22:00", start.String())
	assert.Equal(t, "06:00", end.String())
	assert.Equal(t, []worktime.BreakRule{{ThresholdMinutes: 480, BreakMinutes: 60}, {ThresholdMinutes: 240, BreakMinutes: 30}}, p.BreakRules())
	assert.Equal(t, []time.Weekday{time.Sunday}, p.Holidays().WeeklyHolidays())
	assert.Equal(t, worktime.RuleInclude, p.HireDateRule())
	assert.Equal(t, worktime.RuleInclude, p.ResignationDateRule())
	assert.Equal(t, worktime.OverlapSeparateCounting, p.OverlapPolicy())
	assert.Equal(t, worktime.WarnOnlyIssues, p.WarningPolicy())
	assert.Equal(t, worktime.ValidationLenient, p.ValidationPolicy())

	e, ok := traceFor(p, "company_settings.daily_work_minutes_standard")
	require.True(t, ok)
	assert.Equal(t, worktime.SourceDefault, e.Source)
}

func TestPolicy_Get_DottedLookup(t *testing.T) {
	p := policyWith(t, worktime.Settings{
		"policies": map[string]any{"work_classification": map[string]any{"overlap_policy": "prioritize_night"}},
	})

	assert.Equal(t, "prioritize_night", p.Get("policies.work_classification.overlap_policy", "x"))
	assert.Equal(t, "x", p.Get("policies.work_classification.missing", "x"))
	assert.Equal(t, 7, p.Get("nope.not.here", 7))
}

func TestPolicy_ResolvesSettings(t *testing.T) {
	p := policyWith(t, worktime.Settings{
		"company_settings": map[string]any{
			"daily_work_minutes_standard":  "420",
			"weekly_work_minutes_standard": 2100.0,
			"break_time_rules": []any{
				map[string]any{"threshold_minutes": 240, "break_minutes": 30},
				map[string]any{"threshold_minutes": 600, "break_minutes": 90},
			},
			"weekly_holiday_days": []any{"Saturday", "sun"},
		},
		"policies": map[string]any{
			"working_days": map[string]any{"hire_date": "exclude", "resignation_date": "EXCLUDE"},
			"warnings":     map[string]any{"policy": "only-on-issue"},
		},
	})

	assert.Equal(t, 420, p.DailyStandardMinutes())
	assert.Equal(t, 2100, p.WeeklyStandardMinutes())
	assert.Equal(t, 90, p.RequiredBreak(600))
	assert.Equal(t, 30, p.RequiredBreak(599))
	assert.Equal(t, 0, p.RequiredBreak(239))
	assert.True(t, p.Holidays().IsHoliday(worktime.NewDate(2025, time.May, 3)))
	assert.True(t, p.Holidays().IsHoliday(worktime.NewDate(2025, time.May, 4)))
	assert.Equal(t, worktime.RuleExclude, p.HireDateRule())
	assert.Equal(t, worktime.RuleExclude, p.ResignationDateRule())
	assert.Equal(t, worktime.WarnOnlyIssues, p.WarningPolicy())
}

func TestPolicy_HolidayDates_FromStringsAndTimes(t *testing.T) {
	p := policyWith(t, worktime.Settings{
		"holidays_config": map[string]any{"holidays": []any{
			map[string]any{"date": "2025-05-05", "name": "어린이날"},
			map[string]any{"date": time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), "name": "광복절"},
		}},
	})

	name, ok := p.Holidays().Name(worktime.NewDate(2025, time.May, 5))
	assert.True(t, ok)
	assert.Equal(t, "어린이날", name)
	assert.True(t, p.Holidays().IsHoliday(worktime.NewDate(2025, time.August, 15)))
	assert.Equal(t, []string{"2025-05-05", "2025-08-15"}, p.Holidays().Dates())
}

// =============================================================================
// LENIENT AND STRICT RESOLUTION
// =============================================================================

func TestPolicy_Lenient_UnknownValueFallsBack(t *testing.T) {
	// GIVEN: An overlap policy nobody knows
	// WHEN: Resolved under the default lenient validation
	// THEN: Default is used and the trace says why

	p := policyWith(t, worktime.Settings{
		"policies": map[string]any{"work_classification": map[string]any{"overlap_policy": "night_wins"}},
		"company_settings": map[string]any{
			"night_shift_start_time": "late",
		},
	})

	assert.Equal(t, worktime.OverlapSeparateCounting, p.OverlapPolicy())
	e, ok := traceFor(p, "policies.work_classification.overlap_policy")
	require.True(t, ok)
	assert.Equal(t, worktime.SourceDefault, e.Source)
	assert.Contains(t, e.Note, "night_wins")

	start, _ := p.NightWindow()
	assert.Equal(t, "22:00", start.String())
}

func TestPolicy_Strict_InvalidValueFails(t *testing.T) {
	tests := []struct {
		name     string
		settings worktime.Settings
		key      string
	}{
		{
			name: "unknown overlap policy",
			settings: worktime.Settings{"policies": map[string]any{
				"validation":          map[string]any{"policy": "strict"},
				"work_classification": map[string]any{"overlap_policy": "night_wins"},
			}},
			key: "policies.work_classification.overlap_policy",
		},
		{
			name: "bad clock",
			settings: worktime.Settings{
				"policies":         map[string]any{"validation": map[string]any{"policy": "strict"}},
				"company_settings": map[string]any{"night_shift_end_time": "6am"},
			},
			key: "company_settings.night_shift_end_time",
		},
		{
			name: "paid and unpaid",
			settings: worktime.Settings{
				"policies":                map[string]any{"validation": map[string]any{"policy": "strict"}},
				"attendance_status_codes": map[string]any{"X": map[string]any{"is_paid_leave": true, "is_unpaid_leave": true}},
			},
			key: "attendance_status_codes.X",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := worktime.NewPolicy(tt.settings)

			require.Error(t, err)
			assert.ErrorIs(t, err, worktime.ErrInvalidSetting)
			var settingErr *worktime.SettingError
			require.ErrorAs(t, err, &settingErr)
			assert.Equal(t, tt.key, settingErr.Key)
			assert.True(t, worktime.IsClientError(err))
		})
	}
}

func TestPolicy_Lenient_PaidAndUnpaid_KeepsPaid(t *testing.T) {
	p := policyWith(t, worktime.Settings{
		"attendance_status_codes": map[string]any{"X": map[string]any{
			"work_day_value": 1, "is_paid_leave": true, "is_unpaid_leave": true,
		}},
	})

	def, ok := p.StatusCode("X")
	require.True(t, ok)
	assert.True(t, def.IsPaidLeave)
	assert.False(t, def.IsUnpaidLeave)
}

func TestPolicy_WarningsDisabled_MeansNever(t *testing.T) {
	p := policyWith(t, worktime.Settings{
		"policies": map[string]any{"warnings": map[string]any{"enabled": false, "policy": "always"}},
	})

	assert.Equal(t, worktime.WarnNever, p.WarningPolicy())
	assert.False(t, p.ShouldWarn(true))
}

// =============================================================================
// DERIVED POLICIES
// =============================================================================

func TestPolicy_With_LeavesOriginalUntouched(t *testing.T) {
	settings := worktime.Settings{"company_settings": map[string]any{"daily_work_minutes_standard": 480}}
	base := policyWith(t, settings)

	variant, err := base.With(map[string]any{
		"company_settings.daily_work_minutes_standard":  420,
		"policies.work_classification.overlap_policy": "exclusive_categories",
	})
	require.NoError(t, err)

	assert.Equal(t, 420, variant.DailyStandardMinutes())
	assert.Equal(t, worktime.OverlapExclusiveCategories, variant.OverlapPolicy())
	assert.Equal(t, 480, base.DailyStandardMinutes())
	assert.Equal(t, worktime.OverlapSeparateCounting, base.OverlapPolicy())

	// The caller's map is not shared either.
	settings["company_settings"].(map[string]any)["daily_work_minutes_standard"] = 60
	assert.Equal(t, 480, base.DailyStandardMinutes())
	assert.Equal(t, 480, base.Get("company_settings.daily_work_minutes_standard", 0))
}

func TestPolicy_Clone_Equivalent(t *testing.T) {
	base := policyWith(t, worktime.Settings{"policies": map[string]any{"warnings": map[string]any{"policy": "always"}}})

	clone := base.Clone()

	assert.NotSame(t, base, clone)
	assert.Equal(t, base.WarningPolicy(), clone.WarningPolicy())
	assert.Equal(t, base.Trace(), clone.Trace())
}

func TestParseEnums(t *testing.T) {
	v, ok := worktime.ParseValidationPolicy("auto_fix")
	assert.True(t, ok)
	assert.Equal(t, worktime.ValidationLenient, v)

	o, ok := worktime.ParseOverlapPolicy("Prioritize-Holiday")
	assert.True(t, ok)
	assert.Equal(t, worktime.OverlapPrioritizeHoliday, o)

	_, ok = worktime.ParseWarningPolicy("sometimes")
	assert.False(t, ok)

	r, ok := worktime.ParseDateRule("exclude_resignation_date")
	assert.True(t, ok)
	assert.Equal(t, worktime.RuleExclude, r)
}
