/*
Package worktime computes labor-time categorization and payroll aggregates.

PURPOSE:
  Given a month of raw records for one employee and a resolved Policy, the
  engine classifies work into regular/overtime/night/holiday buckets (clock
  records) or work-day credits and leave days (status-coded records), then
  assembles a single Result envelope with warnings and compliance alerts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Mode: which calculator handles a batch (attendance or timecard)
  - TimeRecord / AttendanceRecord: normalized input records
  - WorkDayDetail: one classified day of clock records
  - AttendanceSummary / TimeSummary / SalaryBasis: period aggregates
  - ComplianceAlert / ErrorDetails: alert and error channels of a Result
  - Result: the envelope returned by Processor.Process

DESIGN PRINCIPLES:
  1. Purity: same records + same Policy always give the same Result
  2. Precision: all quantities are decimal.Decimal, rounded half-up to 2 places
  3. In-band errors: Process never panics and never returns a Go error

USAGE:
  policy, _ := worktime.NewPolicy(settings)
  result := worktime.NewProcessor(policy).Process(worktime.Request{
      Records: records,
      Period:  "2025-05",
  })

SEE ALSO:
  - policy.go: Policy resolution from settings
  - processor.go: Mode detection and result assembly
*/
package worktime

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MODE
// =============================================================================

type Mode string

const (
	ModeAttendance Mode = "attendance"
	ModeTimecard   Mode = "timecard"
	ModeUnknown    Mode = "unknown"
	ModeError      Mode = "error"
)

// ParseMode maps a caller-supplied mode. An empty string means auto-detect.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "":
		return "", true
	case ModeAttendance, ModeTimecard:
		return Mode(s), true
	default:
		return Mode(s), false
	}
}

// =============================================================================
// INPUT RECORDS
// =============================================================================

// RawRecord is one record as decoded from JSON or YAML.
type RawRecord map[string]any

// TimeRecord is one day of clock-in/clock-out data. Start and end stay as
// text so a malformed value can be reported against the day it belongs to.
type TimeRecord struct {
	Date         Date
	StartTime    string
	EndTime      string
	BreakMinutes *int
	Notes        string
}

// AttendanceRecord is one day of status-coded attendance.
type AttendanceRecord struct {
	Date          Date
	StatusCode    string
	WorkedMinutes *int
}

// StatusCodeDefinition gives an attendance status code its meaning.
type StatusCodeDefinition struct {
	WorkDayValue       decimal.Decimal `json:"work_day_value"`
	IsPaidLeave        bool            `json:"is_paid_leave"`
	IsUnpaidLeave      bool            `json:"is_unpaid_leave"`
	CountsAsLate       bool            `json:"counts_as_late"`
	CountsAsEarlyLeave bool            `json:"counts_as_early_leave"`
	Description        string          `json:"description"`
}

// =============================================================================
// PER-DAY DETAIL (timecard mode)
// =============================================================================

type WorkDayDetail struct {
	Date                 Date            `json:"date"`
	RegularHours         decimal.Decimal `json:"regular_hours"`
	OvertimeHours        decimal.Decimal `json:"overtime_hours"`
	NightHours           decimal.Decimal `json:"night_hours"`
	HolidayHours         decimal.Decimal `json:"holiday_hours"`
	HolidayOvertimeHours decimal.Decimal `json:"holiday_overtime_hours"`
	ActualWorkMinutes    int             `json:"actual_work_minutes"`
	BreakMinutesApplied  int             `json:"break_minutes_applied"`
	IsHoliday            bool            `json:"is_holiday"`
	Warnings             []string        `json:"warnings"`
}

// dayMinutes holds one day's unrounded buckets.
type dayMinutes struct {
	regular, overtime, night, holiday, holidayOvertime int
}

// =============================================================================
// PERIOD SUMMARIES
// =============================================================================

type AttendanceSummary struct {
	TotalDays         int               `json:"total_days"`
	ScheduledWorkDays int               `json:"scheduled_work_days"`
	ActualWorkDays    decimal.Decimal   `json:"actual_work_days"`
	FullWorkDays      int               `json:"full_work_days"`
	PartialWorkDays   []decimal.Decimal `json:"partial_work_days"`
	AbsentDays        int               `json:"absent_days"`
	PaidLeaveDays     decimal.Decimal   `json:"paid_leave_days"`
	UnpaidLeaveDays   decimal.Decimal   `json:"unpaid_leave_days"`
	LateCount         int               `json:"late_count"`
	EarlyLeaveCount   int               `json:"early_leave_count"`
}

type TimeSummary struct {
	RegularHours         decimal.Decimal `json:"regular_hours"`
	OvertimeHours        decimal.Decimal `json:"overtime_hours"`
	NightHours           decimal.Decimal `json:"night_hours"`
	HolidayHours         decimal.Decimal `json:"holiday_hours"`
	HolidayOvertimeHours decimal.Decimal `json:"holiday_overtime_hours"`
	TotalNetWorkHours    decimal.Decimal `json:"total_net_work_hours"`
	WorkedDays           int             `json:"worked_days"`
}

// SalaryBasis is the bridge to payroll: what is payable and what is deducted.
type SalaryBasis struct {
	PaymentTargetDays  decimal.Decimal `json:"payment_target_days"`
	DeductionDays      decimal.Decimal `json:"deduction_days"`
	PaymentTargetHours decimal.Decimal `json:"payment_target_hours"`
	DeductionHours     decimal.Decimal `json:"deduction_hours"`
}

// =============================================================================
// ALERTS AND ERRORS
// =============================================================================

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type AlertCode string

const (
	AlertExcessiveWeeklyWork   AlertCode = "EXCESSIVE_WEEKLY_WORK"
	AlertInsufficientBreakTime AlertCode = "INSUFFICIENT_BREAK_TIME"
	AlertHolidayWork           AlertCode = "HOLIDAY_WORK"
)

type ComplianceAlert struct {
	Code     AlertCode      `json:"alert_code"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Details  map[string]any `json:"details,omitempty"`
}

// ErrorDetails is a terminal error for one calculation, never process-fatal.
type ErrorDetails struct {
	ErrorCode ErrorCode      `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// =============================================================================
// RESULT ENVELOPE
// =============================================================================

// TraceEntry records one resolved policy value and where it came from.
type TraceEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"` // "settings" or "default"
	Note   string `json:"note,omitempty"`
}

const (
	SourceSettings = "settings"
	SourceDefault  = "default"
)

// Result is built once per Process call and not modified afterwards.
type Result struct {
	EmployeeID        string             `json:"employee_id"`
	Period            string             `json:"period"`
	ProcessingMode    Mode               `json:"processing_mode"`
	AttendanceSummary *AttendanceSummary `json:"attendance_summary,omitempty"`
	TimeSummary       *TimeSummary       `json:"time_summary,omitempty"`
	SalaryBasis       *SalaryBasis       `json:"salary_basis,omitempty"`
	DailyDetails      []WorkDayDetail    `json:"daily_details,omitempty"`
	Warnings          []string           `json:"warnings"`
	ComplianceAlerts  []ComplianceAlert  `json:"compliance_alerts"`
	Error             *ErrorDetails      `json:"error,omitempty"`
	PolicyTrace       []TraceEntry       `json:"policy_trace,omitempty"`
	ProcessedAt       time.Time          `json:"processed_at"`
}

// Failed reports whether the result carries a terminal error.
func (r Result) Failed() bool { return r.Error != nil }

// =============================================================================
// ROUNDING
// =============================================================================

var minutesPerHour = decimal.NewFromInt(60)

// hoursFromMinutes converts and rounds half-up to 2 places. Inputs are never
// negative, so decimal's half-away-from-zero rounding is half-up here.
func hoursFromMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour).Round(2)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
