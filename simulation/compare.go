package simulation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// SignificantPercent is the change above which a summary field difference
// counts as significant.
var SignificantPercent = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// COMPARISON TYPES
// =============================================================================

// FieldDiff is one numeric field that differs between two results.
// PercentChange is nil when the baseline value is zero.
type FieldDiff struct {
	Field         string           `json:"field"`
	A             decimal.Decimal  `json:"a"`
	B             decimal.Decimal  `json:"b"`
	Diff          decimal.Decimal  `json:"diff"`
	PercentChange *decimal.Decimal `json:"percent_change"`
}

// Significant reports a change above SignificantPercent. A change from zero
// is always significant.
func (d FieldDiff) Significant() bool {
	if d.PercentChange == nil {
		return true
	}
	return d.PercentChange.Abs().GreaterThan(SignificantPercent)
}

type SetDiff struct {
	OnlyInA []string `json:"only_in_a"`
	OnlyInB []string `json:"only_in_b"`
	Common  []string `json:"common"`
}

func (d SetDiff) Changed() bool { return len(d.OnlyInA) > 0 || len(d.OnlyInB) > 0 }

type SeverityChange struct {
	A worktime.Severity `json:"a"`
	B worktime.Severity `json:"b"`
}

type AlertDiff struct {
	SetDiff
	SeverityDiff map[string]SeverityChange `json:"severity_diff"`
}

type ErrorDiff struct {
	HasDiff bool                   `json:"has_diff"`
	A       *worktime.ErrorDetails `json:"a,omitempty"`
	B       *worktime.ErrorDetails `json:"b,omitempty"`
}

type DailyDiff struct {
	OnlyInA []string               `json:"only_in_a"`
	OnlyInB []string               `json:"only_in_b"`
	Days    map[string][]FieldDiff `json:"days"`
}

// TraceChange is a policy key resolved to different values.
type TraceChange struct {
	Key string `json:"key"`
	A   string `json:"a"`
	B   string `json:"b"`
}

// Difference is one line of a comparison summary.
type Difference struct {
	Field         string           `json:"field"`
	Diff          *decimal.Decimal `json:"diff,omitempty"`
	PercentChange *decimal.Decimal `json:"percent_change,omitempty"`
	OnlyInA       int              `json:"only_in_a_count,omitempty"`
	OnlyInB       int              `json:"only_in_b_count,omitempty"`
	Count         int              `json:"count,omitempty"`
}

type DiffSummary struct {
	HasDifferences bool         `json:"has_differences"`
	Significant    []Difference `json:"significant_differences"`
	Minor          []Difference `json:"minor_differences"`
}

// Comparison describes how variant B differs from baseline A.
type Comparison struct {
	Baseline    string        `json:"baseline"`
	Variant     string        `json:"variant"`
	Summary     []FieldDiff   `json:"summary_diff"`
	Warnings    SetDiff       `json:"warnings_diff"`
	Alerts      AlertDiff     `json:"compliance_alerts_diff"`
	ModeChanged bool          `json:"processing_mode_diff"`
	Error       ErrorDiff     `json:"error_diff"`
	Daily       DailyDiff     `json:"daily_details_diff"`
	Trace       []TraceChange `json:"trace_diff"`
	Result      DiffSummary   `json:"summary"`
}

// =============================================================================
// COMPARE
// =============================================================================

// Compare diffs result b against baseline a.
func Compare(a, b worktime.Result) Comparison {
	c := Comparison{
		Summary:     diffFields(summaryFields(a), summaryFields(b), true),
		Warnings:    diffSets(a.Warnings, b.Warnings),
		Alerts:      diffAlerts(a.ComplianceAlerts, b.ComplianceAlerts),
		ModeChanged: a.ProcessingMode != b.ProcessingMode,
		Error:       diffErrors(a.Error, b.Error),
		Daily:       diffDaily(a.DailyDetails, b.DailyDetails),
		Trace:       diffTrace(a.PolicyTrace, b.PolicyTrace),
	}
	c.Result = summarizeDiff(c)
	return c
}

// compareAll compares every successful outcome against the baseline.
func compareAll(r *Report) []Comparison {
	base, ok := r.Outcome(r.Baseline)
	if !ok || base.Result == nil {
		return []Comparison{}
	}
	out := []Comparison{}
	for _, o := range r.Outcomes {
		if o.Variant == r.Baseline || o.Result == nil {
			continue
		}
		c := Compare(*base.Result, *o.Result)
		c.Baseline = r.Baseline
		c.Variant = o.Variant
		out = append(out, c)
	}
	return out
}

type namedValue struct {
	name  string
	value decimal.Decimal
}

// summaryFields flattens whichever summary a result carries, in a fixed order.
func summaryFields(r worktime.Result) []namedValue {
	var out []namedValue
	if s := r.TimeSummary; s != nil {
		out = append(out,
			namedValue{"regular_hours", s.RegularHours},
			namedValue{"overtime_hours", s.OvertimeHours},
			namedValue{"night_hours", s.NightHours},
			namedValue{"holiday_hours", s.HolidayHours},
			namedValue{"holiday_overtime_hours", s.HolidayOvertimeHours},
			namedValue{"total_net_work_hours", s.TotalNetWorkHours},
		)
	}
	if s := r.AttendanceSummary; s != nil {
		out = append(out,
			namedValue{"actual_work_days", s.ActualWorkDays},
			namedValue{"paid_leave_days", s.PaidLeaveDays},
			namedValue{"unpaid_leave_days", s.UnpaidLeaveDays},
			namedValue{"absent_days", decimal.NewFromInt(int64(s.AbsentDays))},
			namedValue{"late_count", decimal.NewFromInt(int64(s.LateCount))},
			namedValue{"early_leave_count", decimal.NewFromInt(int64(s.EarlyLeaveCount))},
		)
	}
	if s := r.SalaryBasis; s != nil {
		out = append(out,
			namedValue{"payment_target_days", s.PaymentTargetDays},
			namedValue{"payment_target_hours", s.PaymentTargetHours},
			namedValue{"deduction_days", s.DeductionDays},
			namedValue{"deduction_hours", s.DeductionHours},
		)
	}
	return out
}

// diffFields pairs fields by name. A field missing on one side counts as zero.
func diffFields(a, b []namedValue, withPercent bool) []FieldDiff {
	bByName := make(map[string]decimal.Decimal, len(b))
	for _, f := range b {
		bByName[f.name] = f.value
	}
	seen := map[string]bool{}
	var order []string
	aByName := make(map[string]decimal.Decimal, len(a))
	for _, f := range a {
		aByName[f.name] = f.value
		order = append(order, f.name)
		seen[f.name] = true
	}
	for _, f := range b {
		if !seen[f.name] {
			order = append(order, f.name)
		}
	}

	out := []FieldDiff{}
	for _, name := range order {
		va, vb := aByName[name], bByName[name]
		if va.Equal(vb) {
			continue
		}
		d := FieldDiff{Field: name, A: va, B: vb, Diff: vb.Sub(va)}
		if withPercent && !va.IsZero() {
			pct := d.Diff.Div(va).Mul(hundred).Round(2)
			d.PercentChange = &pct
		}
		out = append(out, d)
	}
	return out
}

func diffSets(a, b []string) SetDiff {
	inA := toSet(a)
	inB := toSet(b)
	d := SetDiff{OnlyInA: []string{}, OnlyInB: []string{}, Common: []string{}}
	for s := range inA {
		if inB[s] {
			d.Common = append(d.Common, s)
		} else {
			d.OnlyInA = append(d.OnlyInA, s)
		}
	}
	for s := range inB {
		if !inA[s] {
			d.OnlyInB = append(d.OnlyInB, s)
		}
	}
	sort.Strings(d.OnlyInA)
	sort.Strings(d.OnlyInB)
	sort.Strings(d.Common)
	return d
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// diffAlerts compares alert codes. For a code on both sides the first alert
// of each side decides the severity.
func diffAlerts(a, b []worktime.ComplianceAlert) AlertDiff {
	codes := func(alerts []worktime.ComplianceAlert) ([]string, map[string]worktime.Severity) {
		var list []string
		first := map[string]worktime.Severity{}
		for _, al := range alerts {
			code := string(al.Code)
			list = append(list, code)
			if _, ok := first[code]; !ok {
				first[code] = al.Severity
			}
		}
		return list, first
	}
	codesA, sevA := codes(a)
	codesB, sevB := codes(b)

	d := AlertDiff{SetDiff: diffSets(codesA, codesB), SeverityDiff: map[string]SeverityChange{}}
	for _, code := range d.Common {
		if sevA[code] != sevB[code] {
			d.SeverityDiff[code] = SeverityChange{A: sevA[code], B: sevB[code]}
		}
	}
	return d
}

func diffErrors(a, b *worktime.ErrorDetails) ErrorDiff {
	switch {
	case a == nil && b == nil:
		return ErrorDiff{}
	case a == nil || b == nil:
		return ErrorDiff{HasDiff: true, A: a, B: b}
	default:
		return ErrorDiff{
			HasDiff: a.ErrorCode != b.ErrorCode || a.Message != b.Message,
			A:       a,
			B:       b,
		}
	}
}

func diffDaily(a, b []worktime.WorkDayDetail) DailyDiff {
	byDate := func(details []worktime.WorkDayDetail) map[string]worktime.WorkDayDetail {
		m := make(map[string]worktime.WorkDayDetail, len(details))
		for _, d := range details {
			m[d.Date.String()] = d
		}
		return m
	}
	da, db := byDate(a), byDate(b)

	out := DailyDiff{OnlyInA: []string{}, OnlyInB: []string{}, Days: map[string][]FieldDiff{}}
	for date, dayA := range da {
		dayB, ok := db[date]
		if !ok {
			out.OnlyInA = append(out.OnlyInA, date)
			continue
		}
		if diffs := diffFields(dayFields(dayA), dayFields(dayB), false); len(diffs) > 0 {
			out.Days[date] = diffs
		}
	}
	for date := range db {
		if _, ok := da[date]; !ok {
			out.OnlyInB = append(out.OnlyInB, date)
		}
	}
	sort.Strings(out.OnlyInA)
	sort.Strings(out.OnlyInB)
	return out
}

func dayFields(d worktime.WorkDayDetail) []namedValue {
	return []namedValue{
		{"regular_hours", d.RegularHours},
		{"overtime_hours", d.OvertimeHours},
		{"night_hours", d.NightHours},
		{"holiday_hours", d.HolidayHours},
		{"holiday_overtime_hours", d.HolidayOvertimeHours},
	}
}

func diffTrace(a, b []worktime.TraceEntry) []TraceChange {
	valuesB := make(map[string]string, len(b))
	for _, e := range b {
		valuesB[e.Key] = e.Value
	}
	out := []TraceChange{}
	for _, e := range a {
		if vb, ok := valuesB[e.Key]; ok && vb != e.Value {
			out = append(out, TraceChange{Key: e.Key, A: e.Value, B: vb})
		}
	}
	return out
}

// summarizeDiff sorts differences into significant and minor. Summary fields
// use the percent threshold; alert, mode and error changes are always
// significant; warning changes are always minor.
func summarizeDiff(c Comparison) DiffSummary {
	s := DiffSummary{Significant: []Difference{}, Minor: []Difference{}}

	for _, f := range c.Summary {
		diff := f.Diff
		line := Difference{Field: f.Field, Diff: &diff, PercentChange: f.PercentChange}
		if f.Significant() {
			s.Significant = append(s.Significant, line)
		} else {
			s.Minor = append(s.Minor, line)
		}
	}

	if c.Warnings.Changed() {
		s.Minor = append(s.Minor, Difference{
			Field:   "warnings",
			OnlyInA: len(c.Warnings.OnlyInA),
			OnlyInB: len(c.Warnings.OnlyInB),
		})
	}
	if c.Alerts.Changed() {
		s.Significant = append(s.Significant, Difference{
			Field:   "compliance_alerts",
			OnlyInA: len(c.Alerts.OnlyInA),
			OnlyInB: len(c.Alerts.OnlyInB),
		})
	}
	if len(c.Alerts.SeverityDiff) > 0 {
		s.Significant = append(s.Significant, Difference{
			Field: "compliance_alerts_severity",
			Count: len(c.Alerts.SeverityDiff),
		})
	}
	if c.ModeChanged {
		s.Significant = append(s.Significant, Difference{Field: "processing_mode"})
	}
	if c.Error.HasDiff {
		s.Significant = append(s.Significant, Difference{Field: "error"})
	}
	if len(c.Daily.OnlyInA) > 0 || len(c.Daily.OnlyInB) > 0 || len(c.Daily.Days) > 0 {
		s.Minor = append(s.Minor, Difference{
			Field:   "daily_details",
			OnlyInA: len(c.Daily.OnlyInA),
			OnlyInB: len(c.Daily.OnlyInB),
			Count:   len(c.Daily.Days),
		})
	}

	s.HasDifferences = len(s.Significant) > 0 || len(s.Minor) > 0
	return s
}
