package worktime_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

func att(t *testing.T, date, code string) worktime.AttendanceRecord {
	return worktime.AttendanceRecord{Date: day(t, date), StatusCode: code}
}

// =============================================================================
// ACCOUNTING
// =============================================================================

func TestAttendance_LegacyCodes_Accounting(t *testing.T) {
	// GIVEN: May 2025 with one record per legacy code plus an unknown code
	// WHEN: The month is calculated with no status table configured
	// THEN: Credits, leave days and counts follow the legacy table

	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)
	records := []worktime.AttendanceRecord{
		att(t, "2025-05-01", "1"), // present
		att(t, "2025-05-02", "3"), // paid leave
		att(t, "2025-05-05", "2"), // absence, unpaid
		att(t, "2025-05-06", "5"), // half day
		att(t, "2025-05-07", "L"), // late
		att(t, "2025-05-08", "Z"), // unknown
	}

	out := calc.Calculate(records, "2025-05")

	require.Nil(t, out.Err)
	s := out.Summary
	assert.Equal(t, 31, s.TotalDays)
	assert.Equal(t, 22, s.ScheduledWorkDays)
	assertHours(t, "3.5", s.ActualWorkDays, "paid leave counts as worked")
	assertHours(t, "1", s.PaidLeaveDays)
	assertHours(t, "0", s.UnpaidLeaveDays, "unpaid leave adds its own value")
	assert.Equal(t, 3, s.FullWorkDays)
	assert.Equal(t, 1, s.AbsentDays)
	assert.Equal(t, 1, s.LateCount)
	assert.Equal(t, 1, s.EarlyLeaveCount)

	assertHours(t, "4.5", out.SalaryBasis.PaymentTargetDays)
	assertHours(t, "1", out.SalaryBasis.DeductionDays)
	assertHours(t, "36", out.SalaryBasis.PaymentTargetHours)
	assertHours(t, "8", out.SalaryBasis.DeductionHours)
}

func TestAttendance_UnknownCode_WarnsAndContinues(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)
	records := []worktime.AttendanceRecord{
		att(t, "2025-05-01", "Z"),
		att(t, "2025-05-02", "1"),
	}

	out := calc.Calculate(records, "2025-05")

	require.Nil(t, out.Err)
	assertHours(t, "1", out.Summary.ActualWorkDays, "the later day still counts")
	require.NotEmpty(t, out.Warnings)
	assert.Contains(t, out.Warnings[0], `unknown status code "Z"`)
}

func TestAttendance_UnknownCode_StrictFails(t *testing.T) {
	policy := policyWith(t, worktime.Settings{"policies": map[string]any{"validation": map[string]any{"policy": "strict"}}})
	calc := worktime.NewAttendanceCalculator(policy, nil)

	out := calc.Calculate([]worktime.AttendanceRecord{att(t, "2025-05-01", "Z")}, "2025-05")

	require.NotNil(t, out.Err)
	assert.Equal(t, worktime.CodeInputValidation, out.Err.Code)
	assert.ErrorIs(t, out.Err, worktime.ErrUnknownStatusCode)
}

func TestAttendance_ConfiguredTable_OverridesLegacy(t *testing.T) {
	policy := policyWith(t, worktime.Settings{
		"attendance_status_codes": map[string]any{
			"1":  map[string]any{"work_day_value": 1.0, "description": "출근"},
			"HP": map[string]any{"work_day_value": "0.5", "is_paid_leave": true, "description": "반차 유급"},
		},
	})
	calc := worktime.NewAttendanceCalculator(policy, nil)

	out := calc.Calculate([]worktime.AttendanceRecord{
		att(t, "2025-05-01", "1"),
		att(t, "2025-05-02", "HP"),
		att(t, "2025-05-05", "L"), // still resolved through the legacy table
	}, "2025-05")

	require.Nil(t, out.Err)
	assertHours(t, "2.5", out.Summary.ActualWorkDays)
	assertHours(t, "0.5", out.Summary.PaidLeaveDays)
	assert.Equal(t, 1, out.Summary.LateCount)
}

func TestAttendance_PartialDayRatio(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)
	half, full, over, third := 240, 480, 600, 160

	out := calc.Calculate([]worktime.AttendanceRecord{
		{Date: day(t, "2025-05-01"), StatusCode: "5", WorkedMinutes: &half},
		{Date: day(t, "2025-05-02"), StatusCode: "1", WorkedMinutes: &full},
		{Date: day(t, "2025-05-05"), StatusCode: "1", WorkedMinutes: &over},
		{Date: day(t, "2025-05-06"), StatusCode: "5", WorkedMinutes: &third},
	}, "2025-05")

	require.Nil(t, out.Err)
	require.Len(t, out.Summary.PartialWorkDays, 2)
	assertHours(t, "0.5", out.Summary.PartialWorkDays[0])
	// ratios are kept unrounded
	assertHours(t, decimal.NewFromInt(160).Div(decimal.NewFromInt(480)).String(), out.Summary.PartialWorkDays[1])
}

// =============================================================================
// INPUT EDGE CASES
// =============================================================================

func TestAttendance_DuplicateDate_LastWins(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)

	out := calc.Calculate([]worktime.AttendanceRecord{
		att(t, "2025-05-01", "2"),
		att(t, "2025-05-01", "1"),
	}, "2025-05")

	require.Nil(t, out.Err)
	assertHours(t, "1", out.Summary.ActualWorkDays)
	assertHours(t, "0", out.Summary.UnpaidLeaveDays)
	assert.Contains(t, out.Warnings[0], "duplicate")
}

func TestAttendance_RecordOutsidePeriod_Ignored(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)

	out := calc.Calculate([]worktime.AttendanceRecord{
		att(t, "2025-04-30", "1"),
		att(t, "2025-05-02", "1"),
	}, "2025-05")

	require.Nil(t, out.Err)
	assertHours(t, "1", out.Summary.ActualWorkDays)
	assert.Contains(t, out.Warnings[0], "outside period")
}

func TestAttendance_MalformedPeriod(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)

	out := calc.Calculate([]worktime.AttendanceRecord{att(t, "2025-05-01", "1")}, "2025-13")

	require.NotNil(t, out.Err)
	assert.Equal(t, worktime.CodeCalculation, out.Err.Code)
}

func TestAttendance_Idempotent(t *testing.T) {
	calc := worktime.NewAttendanceCalculator(worktime.DefaultPolicy(), nil)
	records := []worktime.AttendanceRecord{
		att(t, "2025-05-01", "1"),
		att(t, "2025-05-02", "5"),
		att(t, "2025-05-05", "3"),
	}

	first := calc.Calculate(records, "2025-05")
	second := calc.Calculate(records, "2025-05")

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.SalaryBasis, second.SalaryBasis)
	assert.Equal(t, first.Warnings, second.Warnings)
}
