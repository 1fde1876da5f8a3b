/*
scenarios.go - Sample inputs for demos and smoke tests

PURPOSE:

	Provides ready-made calculation inputs covering both processing modes.
	The API runs them by name, the CLI prints them, and the tests use them
	as realistic fixtures.

AVAILABLE SCENARIOS:

	office-month:     Weekday 09:00-18:00 timecards for May 2025
	night-shift:      Overnight 22:00-06:00 timecards
	overtime-week:    13 hour days, trips the weekly ceiling
	holiday-work:     Shifts on Children's Day and a Sunday
	attendance-month: Status codes with leave, lateness and a half day
	mid-month-hire:   Attendance codes for an employee hired on May 12

SEE ALSO:
  - api/scenarios.go: ListScenarios, RunScenario handlers
  - presets.go: Settings documents the scenarios run against
*/
package factory

import (
	"fmt"
	"time"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// Scenario is a named calculation input.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Category    string
	Preset      string
	Request     worktime.Request
}

const scenarioPeriod = "2025-05"

// Scenarios returns every sample scenario in display order.
func Scenarios() []Scenario {
	hire := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

	return []Scenario{
		{
			ID:          "office-month",
			Name:        "Office Month",
			Description: "Weekday 09:00-18:00 timecards with a one hour break",
			Category:    "timecard",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-office",
				Period:     scenarioPeriod,
				Records:    weekdayShifts("09:00", "18:00", 60),
			},
		},
		{
			ID:          "night-shift",
			Name:        "Night Shift",
			Description: "Overnight 22:00-06:00 shifts with the break derived from the stay",
			Category:    "timecard",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-night",
				Period:     scenarioPeriod,
				Records: []worktime.RawRecord{
					{"date": "2025-05-12", "start_time": "22:00", "end_time": "06:00"},
					{"date": "2025-05-13", "start_time": "22:00", "end_time": "06:00"},
					{"date": "2025-05-14", "start_time": "22:00", "end_time": "07:30", "break_time_minutes": 60},
				},
			},
		},
		{
			ID:          "overtime-week",
			Name:        "Overtime Week",
			Description: "Five 13 hour days in one week, over the 52 hour ceiling",
			Category:    "timecard",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-overtime",
				Period:     scenarioPeriod,
				Records: []worktime.RawRecord{
					shiftRecord("2025-05-19", "08:00", "21:00", 60),
					shiftRecord("2025-05-20", "08:00", "21:00", 60),
					shiftRecord("2025-05-21", "08:00", "21:00", 60),
					shiftRecord("2025-05-22", "08:00", "21:00", 60),
					shiftRecord("2025-05-23", "08:00", "21:00", 60),
				},
			},
		},
		{
			ID:          "holiday-work",
			Name:        "Holiday Work",
			Description: "Shifts on Children's Day and on a Sunday",
			Category:    "timecard",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-holiday",
				Period:     scenarioPeriod,
				Records: []worktime.RawRecord{
					shiftRecord("2025-05-05", "09:00", "20:00", 60),
					shiftRecord("2025-05-11", "10:00", "15:00", 30),
					shiftRecord("2025-05-12", "09:00", "18:00", 60),
				},
			},
		},
		{
			ID:          "attendance-month",
			Name:        "Attendance Month",
			Description: "Status codes with paid leave, absence, lateness and a half day",
			Category:    "attendance",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-attendance",
				Period:     scenarioPeriod,
				Records:    attendanceMonth(),
			},
		},
		{
			ID:          "mid-month-hire",
			Name:        "Mid-Month Hire",
			Description: "Attendance for the whole month, employee hired on May 12",
			Category:    "attendance",
			Preset:      PresetKoreanStandard,
			Request: worktime.Request{
				EmployeeID: "emp-new-hire",
				Period:     scenarioPeriod,
				Records:    attendanceMonth(),
				HireDate:   &hire,
			},
		},
	}
}

// FindScenario looks up a scenario by ID.
func FindScenario(id string) (Scenario, error) {
	for _, s := range Scenarios() {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("scenario %q: %w", id, worktime.ErrNotFound)
}

// =============================================================================
// RECORD BUILDERS
// =============================================================================

func shiftRecord(date, start, end string, breakMinutes int) worktime.RawRecord {
	return worktime.RawRecord{
		"date":               date,
		"start_time":         start,
		"end_time":           end,
		"break_time_minutes": breakMinutes,
	}
}

// weekdayShifts builds one shift per working day of the scenario month,
// skipping weekends and the preset's holidays.
func weekdayShifts(start, end string, breakMinutes int) []worktime.RawRecord {
	holidays := map[string]bool{}
	for _, h := range KoreanHolidays2025 {
		holidays[h.Date] = true
	}

	period, _ := worktime.ParseMonth(scenarioPeriod)
	var records []worktime.RawRecord
	for _, d := range period.Days() {
		if d.IsWeekend() || holidays[d.String()] {
			continue
		}
		records = append(records, shiftRecord(d.String(), start, end, breakMinutes))
	}
	return records
}

// attendanceMonth marks every weekday with a status code. A handful of days
// carry leave, lateness and a half day.
func attendanceMonth() []worktime.RawRecord {
	special := map[string]string{
		"2025-05-05": "3",
		"2025-05-08": "L",
		"2025-05-15": "5",
		"2025-05-20": "2",
		"2025-05-27": "4",
		"2025-05-29": "E",
	}

	period, _ := worktime.ParseMonth(scenarioPeriod)
	var records []worktime.RawRecord
	for _, d := range period.Days() {
		if d.IsWeekend() {
			continue
		}
		code, ok := special[d.String()]
		if !ok {
			code = "1"
		}
		records = append(records, worktime.RawRecord{"date": d.String(), "status_code": code})
	}
	return records
}
