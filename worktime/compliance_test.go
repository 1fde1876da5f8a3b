package worktime_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

func alertsOf(alerts []worktime.ComplianceAlert, code worktime.AlertCode) []worktime.ComplianceAlert {
	var out []worktime.ComplianceAlert
	for _, a := range alerts {
		if a.Code == code {
			out = append(out, a)
		}
	}
	return out
}

func calculateMonth(t *testing.T, policy *worktime.Policy, records ...worktime.TimeRecord) worktime.TimecardOutcome {
	t.Helper()
	out := worktime.NewTimecardCalculator(policy, nil).Calculate(records, "2025-05")
	require.Nil(t, out.Err)
	return out
}

// =============================================================================
// WEEKLY CEILING
// =============================================================================

func TestCompliance_WeeklyCeiling_Exceeded(t *testing.T) {
	// GIVEN: Monday to Friday of ISO week 19, 12 worked hours each
	// WHEN: The month is calculated
	// THEN: 60 hours > 52 hours raises EXCESSIVE_WEEKLY_WORK

	var records []worktime.TimeRecord
	for i := 0; i < 5; i++ {
		records = append(records, worktime.TimeRecord{
			Date: day(t, "2025-05-05").AddDays(i), StartTime: "08:00", EndTime: "21:00", BreakMinutes: breakOf(60),
		})
	}

	out := calculateMonth(t, worktime.DefaultPolicy(), records...)

	weekly := alertsOf(out.Alerts, worktime.AlertExcessiveWeeklyWork)
	require.Len(t, weekly, 1)
	assert.Equal(t, worktime.SeverityError, weekly[0].Severity)
	assert.Equal(t, 19, weekly[0].Details["week"])
	assert.Equal(t, 2025, weekly[0].Details["year"])
	hours, ok := weekly[0].Details["hours"].(decimal.Decimal)
	require.True(t, ok)
	assertHours(t, "60", hours)
}

func TestCompliance_WeeklyCeiling_AtLimitNoAlert(t *testing.T) {
	// 52 hours exactly: 4 x 10h + 1 x 12h
	var records []worktime.TimeRecord
	for i := 0; i < 4; i++ {
		records = append(records, worktime.TimeRecord{
			Date: day(t, "2025-05-12").AddDays(i), StartTime: "08:00", EndTime: "19:00", BreakMinutes: breakOf(60),
		})
	}
	records = append(records, worktime.TimeRecord{
		Date: day(t, "2025-05-16"), StartTime: "08:00", EndTime: "21:00", BreakMinutes: breakOf(60),
	})

	out := calculateMonth(t, worktime.DefaultPolicy(), records...)

	assert.Empty(t, alertsOf(out.Alerts, worktime.AlertExcessiveWeeklyWork))
}

// =============================================================================
// BREAK TIME
// =============================================================================

func TestCompliance_InsufficientBreak_Warning(t *testing.T) {
	// 09:00-14:20 with a 20 minute break: 300 worked minutes.
	out := calculateMonth(t, worktime.DefaultPolicy(), worktime.TimeRecord{
		Date: day(t, tuesday), StartTime: "09:00", EndTime: "14:20", BreakMinutes: breakOf(20),
	})

	breaks := alertsOf(out.Alerts, worktime.AlertInsufficientBreakTime)
	require.Len(t, breaks, 1)
	assert.Equal(t, worktime.SeverityWarning, breaks[0].Severity)
	assert.Equal(t, 300, breaks[0].Details["worked_minutes"])
	assert.Equal(t, 20, breaks[0].Details["break_minutes"])
	assert.Equal(t, tuesday, breaks[0].Details["date"])
}

func TestCompliance_InsufficientBreak_Error(t *testing.T) {
	// 09:00-17:40 with a 40 minute break: 500 worked minutes.
	out := calculateMonth(t, worktime.DefaultPolicy(), worktime.TimeRecord{
		Date: day(t, tuesday), StartTime: "09:00", EndTime: "17:40", BreakMinutes: breakOf(40),
	})

	breaks := alertsOf(out.Alerts, worktime.AlertInsufficientBreakTime)
	require.Len(t, breaks, 1)
	assert.Equal(t, worktime.SeverityError, breaks[0].Severity)
}

func TestCompliance_InsufficientBreak_BothFire(t *testing.T) {
	// 09:00-18:20 with a 20 minute break: 540 worked minutes, under both minimums.
	out := calculateMonth(t, worktime.DefaultPolicy(), worktime.TimeRecord{
		Date: day(t, tuesday), StartTime: "09:00", EndTime: "18:20", BreakMinutes: breakOf(20),
	})

	breaks := alertsOf(out.Alerts, worktime.AlertInsufficientBreakTime)
	require.Len(t, breaks, 2)
	assert.Equal(t, worktime.SeverityWarning, breaks[0].Severity)
	assert.Equal(t, worktime.SeverityError, breaks[1].Severity)
}

// =============================================================================
// HOLIDAY WORK
// =============================================================================

func TestCompliance_HolidayWork_Info(t *testing.T) {
	out := calculateMonth(t, worktime.DefaultPolicy(), worktime.TimeRecord{
		Date: day(t, sunday), StartTime: "09:00", EndTime: "13:00", BreakMinutes: breakOf(30),
	})

	holiday := alertsOf(out.Alerts, worktime.AlertHolidayWork)
	require.Len(t, holiday, 1)
	assert.Equal(t, worktime.SeverityInfo, holiday[0].Severity)
	assert.Equal(t, sunday, holiday[0].Details["date"])
}

func TestCompliance_AlertOrder(t *testing.T) {
	var records []worktime.TimeRecord
	for i := 0; i < 5; i++ {
		records = append(records, worktime.TimeRecord{
			Date: day(t, "2025-05-05").AddDays(i), StartTime: "08:00", EndTime: "21:00", BreakMinutes: breakOf(60),
		})
	}
	records = append(records, worktime.TimeRecord{Date: day(t, "2025-05-11"), StartTime: "09:00", EndTime: "14:20", BreakMinutes: breakOf(20)})

	out := calculateMonth(t, worktime.DefaultPolicy(), records...)

	require.Len(t, out.Alerts, 3)
	assert.Equal(t, worktime.AlertExcessiveWeeklyWork, out.Alerts[0].Code)
	assert.Equal(t, worktime.AlertInsufficientBreakTime, out.Alerts[1].Code)
	assert.Equal(t, worktime.AlertHolidayWork, out.Alerts[2].Code)
}
