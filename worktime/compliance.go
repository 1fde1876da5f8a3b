package worktime

import (
	"fmt"
	"sort"
)

// Statutory break minimums. These are fixed by law and do not follow the
// configurable break rules used to derive a missing break.
const (
	shortDayWorkMinutes  = 240
	shortDayBreakMinutes = 30
	longDayWorkMinutes   = 480
	longDayBreakMinutes  = 60
)

type isoWeek struct {
	year, week int
}

// CheckCompliance runs the weekly ceiling, break-time and holiday checks.
// Alerts come out as weekly alerts by week, then break alerts by date, then
// holiday notices by date.
func CheckCompliance(details []WorkDayDetail, policy *Policy) []ComplianceAlert {
	alerts := []ComplianceAlert{}
	alerts = append(alerts, weeklyAlerts(details, policy.WeeklyLimitMinutes())...)

	ordered := make([]WorkDayDetail, len(details))
	copy(ordered, details)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	alerts = append(alerts, breakAlerts(ordered)...)
	alerts = append(alerts, holidayAlerts(ordered, policy.Holidays())...)
	return alerts
}

func weeklyAlerts(details []WorkDayDetail, limitMinutes int) []ComplianceAlert {
	totals := map[isoWeek]int{}
	for _, d := range details {
		y, w := d.Date.ISOWeek()
		totals[isoWeek{y, w}] += d.ActualWorkMinutes
	}

	weeks := make([]isoWeek, 0, len(totals))
	for k := range totals {
		weeks = append(weeks, k)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].year != weeks[j].year {
			return weeks[i].year < weeks[j].year
		}
		return weeks[i].week < weeks[j].week
	})

	var alerts []ComplianceAlert
	for _, wk := range weeks {
		minutes := totals[wk]
		if minutes <= limitMinutes {
			continue
		}
		hours := hoursFromMinutes(minutes)
		alerts = append(alerts, ComplianceAlert{
			Code:     AlertExcessiveWeeklyWork,
			Severity: SeverityError,
			Message: fmt.Sprintf("week %d-W%02d: %s hours worked, above the %s hour weekly limit",
				wk.year, wk.week, hours, hoursFromMinutes(limitMinutes)),
			Details: map[string]any{"week": wk.week, "year": wk.year, "hours": hours},
		})
	}
	return alerts
}

func breakAlerts(details []WorkDayDetail) []ComplianceAlert {
	var alerts []ComplianceAlert
	for _, d := range details {
		if d.ActualWorkMinutes > shortDayWorkMinutes && d.BreakMinutesApplied < shortDayBreakMinutes {
			alerts = append(alerts, breakAlert(d, SeverityWarning, shortDayWorkMinutes, shortDayBreakMinutes))
		}
		if d.ActualWorkMinutes > longDayWorkMinutes && d.BreakMinutesApplied < longDayBreakMinutes {
			alerts = append(alerts, breakAlert(d, SeverityError, longDayWorkMinutes, longDayBreakMinutes))
		}
	}
	return alerts
}

func breakAlert(d WorkDayDetail, severity Severity, workMinutes, breakMinutes int) ComplianceAlert {
	return ComplianceAlert{
		Code:     AlertInsufficientBreakTime,
		Severity: severity,
		Message: fmt.Sprintf("%s: %d minute break for %d worked minutes, at least %d required above %d minutes",
			d.Date, d.BreakMinutesApplied, d.ActualWorkMinutes, breakMinutes, workMinutes),
		Details: map[string]any{
			"date":           d.Date.String(),
			"break_minutes":  d.BreakMinutesApplied,
			"worked_minutes": d.ActualWorkMinutes,
		},
	}
}

func holidayAlerts(details []WorkDayDetail, calendar HolidayCalendar) []ComplianceAlert {
	var alerts []ComplianceAlert
	for _, d := range details {
		if !d.IsHoliday || d.ActualWorkMinutes == 0 {
			continue
		}
		info := map[string]any{
			"date":  d.Date.String(),
			"hours": hoursFromMinutes(d.ActualWorkMinutes),
		}
		if name, ok := calendar.Name(d.Date); ok && name != "" {
			info["holiday"] = name
		}
		alerts = append(alerts, ComplianceAlert{
			Code:     AlertHolidayWork,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%s: holiday work of %s hours", d.Date, hoursFromMinutes(d.ActualWorkMinutes)),
			Details:  info,
		})
	}
	return alerts
}
