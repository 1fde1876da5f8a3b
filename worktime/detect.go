package worktime

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MODE DETECTION
// =============================================================================

// DetectMode classifies a batch by its first record: a status_code field
// means attendance, a start_time or end_time field means timecard.
func DetectMode(records []RawRecord) Mode {
	if len(records) == 0 {
		return ModeUnknown
	}
	return recordShape(records[0])
}

func recordShape(r RawRecord) Mode {
	if _, ok := r["status_code"]; ok {
		return ModeAttendance
	}
	_, hasStart := r["start_time"]
	_, hasEnd := r["end_time"]
	if hasStart || hasEnd {
		return ModeTimecard
	}
	return ModeUnknown
}

// =============================================================================
// WARNINGS
// =============================================================================

// warnings collects messages in production order, filtered by the
// policy's warning rule at the point they are raised.
type warnings struct {
	policy *Policy
	list   []string
}

// issue records a problem with the input.
func (w *warnings) issue(format string, args ...any) {
	if w.policy.ShouldWarn(true) {
		w.list = append(w.list, fmt.Sprintf(format, args...))
	}
}

// note records an informational message.
func (w *warnings) note(format string, args ...any) {
	if w.policy.ShouldWarn(false) {
		w.list = append(w.list, fmt.Sprintf(format, args...))
	}
}

func (w *warnings) merge(other []string) {
	w.list = append(w.list, other...)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeTimecard converts raw records to TimeRecords. Under strict
// validation the first structural problem is returned as an error; under
// lenient validation the record is skipped with a warning. Malformed clock
// values pass through leniently so the calculator can zero that day.
func NormalizeTimecard(raw []RawRecord, policy *Policy) ([]TimeRecord, []string, error) {
	w := &warnings{policy: policy}
	out := make([]TimeRecord, 0, len(raw))

	for i, r := range raw {
		if recordShape(r) != ModeTimecard {
			return nil, w.list, &RecordError{Index: i, Err: ErrMixedRecords}
		}

		date, err := recordDate(r)
		if err != nil {
			if policy.Strict() {
				return nil, w.list, &RecordError{Index: i, Field: "date", Err: err}
			}
			w.issue("record %d skipped: %v", i, err)
			continue
		}

		start, okStart := r["start_time"].(string)
		end, okEnd := r["end_time"].(string)
		if !okStart || !okEnd {
			err := fmt.Errorf("%w: start_time and end_time are required", ErrInvalidRecord)
			if policy.Strict() {
				return nil, w.list, &RecordError{Index: i, Err: err}
			}
			w.issue("%s: record skipped: start_time and end_time are required", date)
			continue
		}
		if policy.Strict() {
			if _, err := ParseClock(start); err != nil {
				return nil, w.list, &RecordError{Index: i, Field: "start_time", Err: err}
			}
			if _, err := ParseClock(end); err != nil {
				return nil, w.list, &RecordError{Index: i, Field: "end_time", Err: err}
			}
		}

		rec := TimeRecord{Date: date, StartTime: start, EndTime: end}
		if v, ok := r["break_time_minutes"]; ok && v != nil {
			n, okInt := toInt(v)
			if !okInt || n < 0 {
				if policy.Strict() {
					return nil, w.list, &RecordError{Index: i, Field: "break_time_minutes",
						Err: fmt.Errorf("%w: expected a non-negative whole number, got %v", ErrInvalidRecord, v)}
				}
				w.issue("%s: ignoring break_time_minutes %v", date, v)
			} else {
				rec.BreakMinutes = &n
			}
		}
		if notes, ok := r["notes"].(string); ok {
			rec.Notes = notes
		}
		out = append(out, rec)
	}
	return out, w.list, nil
}

// NormalizeAttendance converts raw records to AttendanceRecords.
func NormalizeAttendance(raw []RawRecord, policy *Policy) ([]AttendanceRecord, []string, error) {
	w := &warnings{policy: policy}
	out := make([]AttendanceRecord, 0, len(raw))

	for i, r := range raw {
		if recordShape(r) != ModeAttendance {
			return nil, w.list, &RecordError{Index: i, Err: ErrMixedRecords}
		}

		date, err := recordDate(r)
		if err != nil {
			if policy.Strict() {
				return nil, w.list, &RecordError{Index: i, Field: "date", Err: err}
			}
			w.issue("record %d skipped: %v", i, err)
			continue
		}

		code := statusCodeString(r["status_code"])
		if code == "" {
			err := fmt.Errorf("%w: status_code is empty", ErrInvalidRecord)
			if policy.Strict() {
				return nil, w.list, &RecordError{Index: i, Field: "status_code", Err: err}
			}
			w.issue("%s: record skipped: status_code is empty", date)
			continue
		}

		rec := AttendanceRecord{Date: date, StatusCode: code}
		if v, ok := r["worked_minutes"]; ok && v != nil {
			n, okInt := toInt(v)
			if !okInt || n < 0 {
				if policy.Strict() {
					return nil, w.list, &RecordError{Index: i, Field: "worked_minutes",
						Err: fmt.Errorf("%w: expected a non-negative whole number, got %v", ErrInvalidRecord, v)}
				}
				w.issue("%s: ignoring worked_minutes %v", date, v)
			} else {
				rec.WorkedMinutes = &n
			}
		}
		out = append(out, rec)
	}
	return out, w.list, nil
}

func recordDate(r RawRecord) (Date, error) {
	switch v := r["date"].(type) {
	case string:
		return ParseDate(v)
	case time.Time:
		return DateOf(v), nil
	case nil:
		return Date{}, fmt.Errorf("%w: date is required", ErrInvalidDate)
	default:
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, v)
	}
}

// statusCodeString accepts numeric codes as well ("1" and 1 are the same code).
func statusCodeString(v any) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case nil:
		return ""
	default:
		if n, ok := toInt(c); ok {
			return fmt.Sprint(n)
		}
		return fmt.Sprint(c)
	}
}

// =============================================================================
// EMPLOYMENT WINDOW
// =============================================================================

// Employment bounds the days an employee can be credited with.
type Employment struct {
	HireDate        *Date
	ResignationDate *Date
}

// Allows applies the hire and resignation inclusion rules to one day.
func (e Employment) Allows(d Date, policy *Policy) bool {
	if e.HireDate != nil {
		if policy.HireDateRule() == RuleExclude {
			if !d.After(*e.HireDate) {
				return false
			}
		} else if d.Before(*e.HireDate) {
			return false
		}
	}
	if e.ResignationDate != nil {
		if policy.ResignationDateRule() == RuleExclude {
			if !d.Before(*e.ResignationDate) {
				return false
			}
		} else if d.After(*e.ResignationDate) {
			return false
		}
	}
	return true
}

func (e Employment) bounded() bool {
	return e.HireDate != nil || e.ResignationDate != nil
}
