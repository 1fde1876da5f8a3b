/*
timecard.go - Timecard-based calculation (clock-in/clock-out days)

PURPOSE:
  Classifies every worked minute of a month of clock records into
  regular, overtime, night, holiday and holiday-overtime buckets, then
  sums the month and runs the compliance checks.

PER DAY:
  1. Parse start/end. A bad value zeroes the day with a warning.
  2. Stay = end - start. An end not after the start is on the next day.
  3. Break = explicit nonzero value, else the break rule for the stay.
  4. Actual = stay - break, clamped at 0.
  5. Holiday = weekly rest day or explicit calendar date.
  6. Split actual at the daily standard: regular/overtime on working
     days, holiday/holiday-overtime on holidays.
  7. Night = overlap of the stay with the night windows, then adjusted by
     the overlap policy.
  8. Minutes to hours, rounded half-up to 2 places.

ROUNDING:
  Per-day hours are rounded for display. Period totals add the unrounded
  per-day minutes and round once per bucket.

SEE ALSO:
  - compliance.go: Weekly and break-time alerts
  - policy.go: Night windows, break rules, holiday calendar
*/
package worktime

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

type TimecardCalculator struct {
	policy *Policy
	logger *slog.Logger
}

func NewTimecardCalculator(policy *Policy, logger *slog.Logger) *TimecardCalculator {
	if logger == nil {
		logger = discardLogger
	}
	return &TimecardCalculator{policy: policy, logger: logger}
}

type TimecardOutcome struct {
	Details     []WorkDayDetail
	Summary     *TimeSummary
	SalaryBasis *SalaryBasis
	Alerts      []ComplianceAlert
	Warnings    []string
	Err         *CalculationError
}

// =============================================================================
// PERIOD CALCULATION
// =============================================================================

func (c *TimecardCalculator) Calculate(records []TimeRecord, period string) (out TimecardOutcome) {
	w := &warnings{policy: c.policy}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("timecard calculation failed", "period", period, "panic", r)
			out = TimecardOutcome{Warnings: w.list, Err: newCalcError(CodeCalculation, "timecard calculation failed", fmt.Errorf("%v", r))}
		}
	}()

	if len(records) == 0 {
		return TimecardOutcome{Err: newCalcError(CodeEmptyRecords, "no timecard records to calculate", nil)}
	}
	p, err := ParseMonth(period)
	if err != nil {
		return TimecardOutcome{Err: newCalcError(CodeCalculation, "cannot resolve period", err)}
	}
	c.logger.Debug("timecard calculation started", "period", p.String(), "records", len(records))

	details := make([]WorkDayDetail, 0, len(records))
	for _, rec := range records {
		if !p.Contains(rec.Date) {
			w.issue("%s: record outside period %s ignored", rec.Date, p)
			continue
		}
		detail := c.calculateDaySafely(rec)
		for _, msg := range detail.Warnings {
			w.list = append(w.list, fmt.Sprintf("%s: %s", rec.Date, msg))
		}
		details = append(details, detail)
	}

	summary := summarize(details)
	return TimecardOutcome{
		Details:     details,
		Summary:     summary,
		SalaryBasis: timecardSalaryBasis(summary),
		Alerts:      CheckCompliance(details, c.policy),
		Warnings:    w.list,
	}
}

// calculateDaySafely keeps one bad day from aborting the month.
func (c *TimecardCalculator) calculateDaySafely(rec TimeRecord) (detail WorkDayDetail) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("day calculation failed", "date", rec.Date.String(), "panic", r)
			detail = zeroDetail(rec.Date)
			w := &warnings{policy: c.policy}
			w.issue("calculation failed: %v", r)
			detail.Warnings = append(detail.Warnings, w.list...)
		}
	}()
	return c.CalculateDay(rec)
}

// summarize adds up the rounded daily hours, so the buckets always equal the
// sum of the details. Only total net hours are rounded from raw minutes.
func summarize(details []WorkDayDetail) *TimeSummary {
	s := &TimeSummary{
		RegularHours:         decimal.Zero,
		OvertimeHours:        decimal.Zero,
		NightHours:           decimal.Zero,
		HolidayHours:         decimal.Zero,
		HolidayOvertimeHours: decimal.Zero,
	}
	actual := 0
	for _, d := range details {
		s.RegularHours = s.RegularHours.Add(d.RegularHours)
		s.OvertimeHours = s.OvertimeHours.Add(d.OvertimeHours)
		s.NightHours = s.NightHours.Add(d.NightHours)
		s.HolidayHours = s.HolidayHours.Add(d.HolidayHours)
		s.HolidayOvertimeHours = s.HolidayOvertimeHours.Add(d.HolidayOvertimeHours)
		actual += d.ActualWorkMinutes
		if d.ActualWorkMinutes > 0 {
			s.WorkedDays++
		}
	}
	s.TotalNetWorkHours = hoursFromMinutes(actual)
	return s
}

func timecardSalaryBasis(s *TimeSummary) *SalaryBasis {
	return &SalaryBasis{
		PaymentTargetDays:  decimal.NewFromInt(int64(s.WorkedDays)),
		DeductionDays:      decimal.Zero,
		PaymentTargetHours: s.TotalNetWorkHours,
		DeductionHours:     decimal.Zero,
	}
}

// =============================================================================
// DAY CALCULATION
// =============================================================================

// CalculateDay classifies one record. It never fails: unusable input gives
// an all-zero detail carrying a warning.
func (c *TimecardCalculator) CalculateDay(rec TimeRecord) WorkDayDetail {
	w := &warnings{policy: c.policy}
	detail := zeroDetail(rec.Date)

	start, errStart := ParseClock(rec.StartTime)
	end, errEnd := ParseClock(rec.EndTime)
	if errStart != nil || errEnd != nil {
		w.issue("cannot parse shift %q-%q, day counted as zero", rec.StartTime, rec.EndTime)
		detail.Warnings = append(detail.Warnings, w.list...)
		return detail
	}

	stay := ShiftInterval(rec.Date, start, end)
	stayMinutes := stay.Minutes()

	breakMinutes := 0
	if rec.BreakMinutes != nil && *rec.BreakMinutes > 0 {
		breakMinutes = *rec.BreakMinutes
	} else {
		breakMinutes = c.policy.RequiredBreak(stayMinutes)
		if breakMinutes > 0 {
			w.note("break of %d minutes applied for a %d minute stay", breakMinutes, stayMinutes)
		}
	}

	actual := stayMinutes - breakMinutes
	if actual < 0 {
		w.issue("break of %d minutes exceeds the %d minute stay, worked time set to 0", breakMinutes, stayMinutes)
		actual = 0
	}

	holiday := c.policy.Holidays().IsHoliday(rec.Date)
	daily := c.policy.DailyStandardMinutes()
	base, over := actual, 0
	if actual > daily {
		base, over = daily, actual-daily
	}

	var m dayMinutes
	if holiday {
		m.holiday, m.holidayOvertime = base, over
	} else {
		m.regular, m.overtime = base, over
	}

	night := 0
	for _, window := range c.policy.NightWindows(rec.Date) {
		night += stay.OverlapMinutes(window)
	}
	m.night = night
	applyOverlapPolicy(&m, c.policy.OverlapPolicy(), holiday, actual)

	if over > 0 {
		w.note("%d overtime minutes", over)
	}
	if holiday && actual > 0 {
		w.note("holiday work of %d minutes", actual)
	}
	if m.night > 0 {
		w.note("%d night minutes", m.night)
	}

	detail.RegularHours = hoursFromMinutes(m.regular)
	detail.OvertimeHours = hoursFromMinutes(m.overtime)
	detail.NightHours = hoursFromMinutes(m.night)
	detail.HolidayHours = hoursFromMinutes(m.holiday)
	detail.HolidayOvertimeHours = hoursFromMinutes(m.holidayOvertime)
	detail.ActualWorkMinutes = actual
	detail.BreakMinutesApplied = breakMinutes
	detail.IsHoliday = holiday
	detail.Warnings = append(detail.Warnings, w.list...)
	return detail
}

// applyOverlapPolicy resolves minutes that are both night and something
// else. Under the exclusive rules night can never exceed the worked time.
func applyOverlapPolicy(m *dayMinutes, policy OverlapPolicy, holiday bool, actual int) {
	switch policy {
	case OverlapPrioritizeHoliday:
		if holiday {
			m.night = 0
		}
	case OverlapExclusiveCategories:
		if holiday {
			m.night = 0
			return
		}
		moveNightOut(m, actual)
	case OverlapPrioritizeNight:
		moveNightOut(m, actual)
	}
}

// moveNightOut takes night minutes from the overtime-side bucket first and
// then from the base bucket.
func moveNightOut(m *dayMinutes, actual int) {
	if m.night > actual {
		m.night = actual
	}
	remaining := m.night
	take := func(bucket *int) {
		n := min(*bucket, remaining)
		*bucket -= n
		remaining -= n
	}
	take(&m.holidayOvertime)
	take(&m.overtime)
	take(&m.holiday)
	take(&m.regular)
}

func zeroDetail(d Date) WorkDayDetail {
	return WorkDayDetail{
		Date:                 d,
		RegularHours:         decimal.Zero,
		OvertimeHours:        decimal.Zero,
		NightHours:           decimal.Zero,
		HolidayHours:         decimal.Zero,
		HolidayOvertimeHours: decimal.Zero,
		Warnings:             []string{},
	}
}
