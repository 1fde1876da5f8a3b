/*
attendance.go - Attendance-based calculation (status-coded days)

PURPOSE:
  Turns one month of status-coded records into work-day credits, leave
  days and a salary basis. Used when exact clock times are not tracked.

ACCOUNTING:
  Each record's status code gives the day a work-day value between 0 and 1.
  Every record adds its value to actual work days, leave included:

    every code          actual work days  += value
                        full work days    += 1 when value is 1
    paid leave code     paid leave days   += value
    unpaid leave code   unpaid leave days += value
    neither leave flag  absent days       += 1 when value is 0

  Payment target days = actual work days + paid leave days.
  Deduction days      = absent days + unpaid leave days.

  Scheduled work days count Monday through Friday only. Company holidays
  are not taken out of that count.

SEE ALSO:
  - policy.go: Status code table and legacy fallback codes
  - processor.go: Normalization and result assembly
*/
package worktime

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

type AttendanceCalculator struct {
	policy *Policy
	logger *slog.Logger
}

func NewAttendanceCalculator(policy *Policy, logger *slog.Logger) *AttendanceCalculator {
	if logger == nil {
		logger = discardLogger
	}
	return &AttendanceCalculator{policy: policy, logger: logger}
}

// AttendanceOutcome is what the calculator hands back to the aggregator.
type AttendanceOutcome struct {
	Summary     *AttendanceSummary
	SalaryBasis *SalaryBasis
	Warnings    []string
	Err         *CalculationError
}

var one = decimal.NewFromInt(1)

// Calculate walks every day of the period and accumulates credits.
func (c *AttendanceCalculator) Calculate(records []AttendanceRecord, period string) (out AttendanceOutcome) {
	w := &warnings{policy: c.policy}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("attendance calculation failed", "period", period, "panic", r)
			out = AttendanceOutcome{Warnings: w.list, Err: newCalcError(CodeCalculation, "attendance calculation failed", fmt.Errorf("%v", r))}
		}
	}()

	p, err := ParseMonth(period)
	if err != nil {
		return AttendanceOutcome{Err: newCalcError(CodeCalculation, "cannot resolve period", err)}
	}
	c.logger.Debug("attendance calculation started", "period", p.String(), "records", len(records))

	byDate := make(map[string]AttendanceRecord, len(records))
	for i, rec := range records {
		if !p.Contains(rec.Date) {
			w.issue("%s: record outside period %s ignored", rec.Date, p)
			continue
		}
		if _, dup := byDate[rec.Date.String()]; dup {
			if c.policy.Strict() {
				return AttendanceOutcome{Warnings: w.list, Err: newCalcError(CodeInputValidation, "duplicate attendance date",
					&RecordError{Index: i, Field: "date", Err: fmt.Errorf("%w: %s", ErrDuplicateDate, rec.Date)})}
			}
			w.issue("%s: duplicate record, the later one is used", rec.Date)
		}
		byDate[rec.Date.String()] = rec
	}

	summary := &AttendanceSummary{
		TotalDays:         p.TotalDays(),
		ScheduledWorkDays: p.Weekdays(),
		ActualWorkDays:    decimal.Zero,
		PartialWorkDays:   []decimal.Decimal{},
		PaidLeaveDays:     decimal.Zero,
		UnpaidLeaveDays:   decimal.Zero,
	}
	daily := decimal.NewFromInt(int64(c.policy.DailyStandardMinutes()))

	for _, day := range p.Days() {
		rec, ok := byDate[day.String()]
		if !ok {
			continue
		}

		def, known := c.policy.StatusCode(rec.StatusCode)
		if !known {
			if c.policy.Strict() {
				return AttendanceOutcome{Warnings: w.list, Err: newCalcError(CodeInputValidation, "unmapped status code",
					fmt.Errorf("%w: %q on %s", ErrUnknownStatusCode, rec.StatusCode, day))}
			}
			c.logger.Warn("unknown attendance status code", "code", rec.StatusCode, "date", day.String())
			w.issue("%s: unknown status code %q, no work-day credit", day, rec.StatusCode)
			def = StatusCodeDefinition{WorkDayValue: decimal.Zero}
		}

		value := def.WorkDayValue
		summary.ActualWorkDays = summary.ActualWorkDays.Add(value)
		if value.Equal(one) {
			summary.FullWorkDays++
		}
		if def.IsPaidLeave {
			summary.PaidLeaveDays = summary.PaidLeaveDays.Add(value)
		}
		if def.IsUnpaidLeave {
			summary.UnpaidLeaveDays = summary.UnpaidLeaveDays.Add(value)
		}
		if value.IsZero() && !def.IsPaidLeave && !def.IsUnpaidLeave {
			summary.AbsentDays++
		}
		if def.CountsAsLate {
			summary.LateCount++
		}
		if def.CountsAsEarlyLeave {
			summary.EarlyLeaveCount++
		}

		if rec.WorkedMinutes != nil {
			ratio := decimal.Min(decimal.NewFromInt(int64(*rec.WorkedMinutes)).Div(daily), one)
			if ratio.IsPositive() && ratio.LessThan(one) {
				summary.PartialWorkDays = append(summary.PartialWorkDays, ratio)
			}
		}
	}

	summary.ActualWorkDays = round2(summary.ActualWorkDays)
	summary.PaidLeaveDays = round2(summary.PaidLeaveDays)
	summary.UnpaidLeaveDays = round2(summary.UnpaidLeaveDays)

	if summary.AbsentDays > 0 {
		w.issue("absent days: %d", summary.AbsentDays)
	}
	if summary.LateCount > 0 {
		w.issue("late arrivals: %d", summary.LateCount)
	}
	if summary.EarlyLeaveCount > 0 {
		w.issue("early leaves: %d", summary.EarlyLeaveCount)
	}

	return AttendanceOutcome{
		Summary:     summary,
		SalaryBasis: attendanceSalaryBasis(summary, c.policy.DailyStandardMinutes()),
		Warnings:    w.list,
	}
}

func attendanceSalaryBasis(s *AttendanceSummary, dailyMinutes int) *SalaryBasis {
	target := s.ActualWorkDays.Add(s.PaidLeaveDays)
	deduction := decimal.NewFromInt(int64(s.AbsentDays)).Add(s.UnpaidLeaveDays)
	hoursPerDay := decimal.NewFromInt(int64(dailyMinutes)).Div(minutesPerHour)
	return &SalaryBasis{
		PaymentTargetDays:  target,
		DeductionDays:      deduction,
		PaymentTargetHours: round2(target.Mul(hoursPerDay)),
		DeductionHours:     round2(deduction.Mul(hoursPerDay)),
	}
}
