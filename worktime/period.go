package worktime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - The calendar month a calculation covers
// =============================================================================

// Period is an inclusive span of days [Start, End]. Calculations always run
// over one calendar month, written "YYYY-MM".
type Period struct {
	Start Date
	End   Date
}

// ParseMonth turns "YYYY-MM" into the period covering that month.
func ParseMonth(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) < 1 || len(parts[1]) > 2 {
		return Period{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidPeriod, s)
	}
	return MonthPeriod(year, time.Month(month)), nil
}

func MonthPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	return Period{Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period in order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) TotalDays() int {
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// Weekdays counts Monday through Friday. Company holidays are not excluded.
func (p Period) Weekdays() int {
	n := 0
	for _, d := range p.Days() {
		if d.IsWeekday() {
			n++
		}
	}
	return n
}

// String returns the "YYYY-MM" form.
func (p Period) String() string {
	return p.Start.Time.Format("2006-01")
}
