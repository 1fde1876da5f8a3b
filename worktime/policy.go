/*
policy.go - Policy resolution from a settings tree

PURPOSE:
  A Policy is every configurable rule the calculators need, resolved once
  from a nested settings structure (decoded YAML or JSON). After NewPolicy
  returns, a Policy is never modified: calculators read it, the simulator
  derives variants from it with With.

RESOLUTION:
  Every key is optional. A missing key takes its documented default. An
  unusable value (wrong type, unknown enum, out of range) also takes the
  default under lenient validation, and the trace notes what happened.
  Under strict validation the same value is a *SettingError.

  The trace lists every resolved value with its source ("settings" or
  "default") so a caller can audit what a calculation actually used.

KEYS:
  company_settings.daily_work_minutes_standard       480
  company_settings.weekly_work_minutes_standard      2400
  company_settings.weekly_overtime_limit_buffer      720
  company_settings.night_shift_start_time            "22:00"
  company_settings.night_shift_end_time              "06:00"
  company_settings.break_time_rules[]                [{240, 30}, {480, 60}]
  company_settings.weekly_holiday_days[]             ["Sunday"]
  attendance_status_codes{code: {...}}               legacy table only
  holidays_config.holidays[]{date, name}             none
  policies.working_days.hire_date                    include
  policies.working_days.resignation_date             include
  policies.work_classification.overlap_policy        separate_counting
  policies.warnings.policy                           only_issues
  policies.warnings.enabled                          true
  policies.validation.policy                         lenient

SEE ALSO:
  - factory/settings.go: Decodes settings files into a Settings tree
  - simulation/simulator.go: Builds one Policy per variant with With
*/
package worktime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings is a nested settings tree. Nested maps are map[string]any.
type Settings map[string]any

// =============================================================================
// ENUM POLICIES
// =============================================================================

type ValidationPolicy string

const (
	ValidationLenient ValidationPolicy = "lenient"
	ValidationStrict  ValidationPolicy = "strict"
)

// ParseValidationPolicy accepts "strict" and "lenient". The older names
// "warning" and "auto_fix" both mean lenient.
func ParseValidationPolicy(s string) (ValidationPolicy, bool) {
	switch normalizeEnum(s) {
	case "strict":
		return ValidationStrict, true
	case "lenient", "warning", "auto_fix":
		return ValidationLenient, true
	}
	return ValidationLenient, false
}

// OverlapPolicy decides how night minutes interact with the other buckets.
type OverlapPolicy string

const (
	// OverlapSeparateCounting reports night minutes alongside the other buckets.
	OverlapSeparateCounting OverlapPolicy = "separate_counting"

	// OverlapPrioritizeNight moves night minutes out of the work buckets.
	OverlapPrioritizeNight OverlapPolicy = "prioritize_night"

	// OverlapPrioritizeHoliday reports no night minutes on holidays.
	OverlapPrioritizeHoliday OverlapPolicy = "prioritize_holiday"

	// OverlapExclusiveCategories counts every minute in exactly one bucket.
	OverlapExclusiveCategories OverlapPolicy = "exclusive_categories"
)

func ParseOverlapPolicy(s string) (OverlapPolicy, bool) {
	switch p := OverlapPolicy(normalizeEnum(s)); p {
	case OverlapSeparateCounting, OverlapPrioritizeNight, OverlapPrioritizeHoliday, OverlapExclusiveCategories:
		return p, true
	}
	return OverlapSeparateCounting, false
}

type WarningPolicy string

const (
	WarnAlways     WarningPolicy = "always"
	WarnOnlyIssues WarningPolicy = "only_issues"
	WarnNever      WarningPolicy = "never"
)

func ParseWarningPolicy(s string) (WarningPolicy, bool) {
	switch normalizeEnum(s) {
	case "always":
		return WarnAlways, true
	case "only_issues", "only_on_issue", "only_on_issues":
		return WarnOnlyIssues, true
	case "never":
		return WarnNever, true
	}
	return WarnOnlyIssues, false
}

// DateRule says whether a hire or resignation date itself is a working day.
type DateRule string

const (
	RuleInclude DateRule = "include"
	RuleExclude DateRule = "exclude"
)

// ParseDateRule accepts "include"/"exclude" and longer forms such as
// "exclude_hire_date".
func ParseDateRule(s string) (DateRule, bool) {
	n := normalizeEnum(s)
	switch {
	case strings.Contains(n, "exclude"):
		return RuleExclude, true
	case strings.Contains(n, "include"):
		return RuleInclude, true
	}
	return RuleInclude, false
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// =============================================================================
// BREAK RULES AND HOLIDAYS
// =============================================================================

// BreakRule requires BreakMinutes of break once a stay reaches ThresholdMinutes.
type BreakRule struct {
	ThresholdMinutes int `json:"threshold_minutes"`
	BreakMinutes     int `json:"break_minutes"`
}

var defaultBreakRules = []BreakRule{
	{ThresholdMinutes: 480, BreakMinutes: 60},
	{ThresholdMinutes: 240, BreakMinutes: 30},
}

// HolidayCalendar holds explicit holiday dates plus the weekly rest days.
type HolidayCalendar struct {
	dates   map[string]string
	weekend map[time.Weekday]bool
}

func NewHolidayCalendar(weekend []time.Weekday) HolidayCalendar {
	c := HolidayCalendar{dates: map[string]string{}, weekend: map[time.Weekday]bool{}}
	for _, wd := range weekend {
		c.weekend[wd] = true
	}
	return c
}

// Add returns a calendar with one more explicit holiday.
func (c HolidayCalendar) Add(d Date, name string) HolidayCalendar {
	out := NewHolidayCalendar(c.WeeklyHolidays())
	for k, v := range c.dates {
		out.dates[k] = v
	}
	out.dates[d.String()] = name
	return out
}

func (c HolidayCalendar) IsHoliday(d Date) bool {
	if c.weekend[d.Weekday()] {
		return true
	}
	_, ok := c.dates[d.String()]
	return ok
}

// Name returns the explicit holiday name, if the date has one.
func (c HolidayCalendar) Name(d Date) (string, bool) {
	name, ok := c.dates[d.String()]
	return name, ok
}

// Dates returns the explicit holiday dates in order.
func (c HolidayCalendar) Dates() []string {
	out := make([]string, 0, len(c.dates))
	for k := range c.dates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c HolidayCalendar) WeeklyHolidays() []time.Weekday {
	var out []time.Weekday
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if c.weekend[wd] {
			out = append(out, wd)
		}
	}
	return out
}

// =============================================================================
// POLICY
// =============================================================================

type Policy struct {
	settings Settings

	dailyStandard  int
	weeklyStandard int
	weeklyBuffer   int
	nightStart     Clock
	nightEnd       Clock
	breakRules     []BreakRule
	holidays       HolidayCalendar
	statusCodes    map[string]StatusCodeDefinition
	hireRule       DateRule
	resignRule     DateRule
	overlap        OverlapPolicy
	warnings       WarningPolicy
	validation     ValidationPolicy

	trace []TraceEntry
}

// DefaultPolicy resolves an empty settings tree.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(nil)
	return p
}

// NewPolicy resolves every rule from settings. The tree is copied, so later
// changes by the caller do not reach the Policy. Only strict validation can
// make it fail.
func NewPolicy(settings Settings) (*Policy, error) {
	tree := deepCopySettings(settings)

	r := &resolver{settings: tree}
	validation := r.enumValue("policies.validation.policy", string(ValidationLenient), func(s string) (string, bool) {
		v, ok := ParseValidationPolicy(s)
		return string(v), ok
	})
	p := &Policy{settings: tree, validation: ValidationPolicy(validation)}
	r.strict = p.validation == ValidationStrict

	p.dailyStandard = r.minutes("company_settings.daily_work_minutes_standard", 480, 1)
	p.weeklyStandard = r.minutes("company_settings.weekly_work_minutes_standard", 2400, 1)
	p.weeklyBuffer = r.minutes("company_settings.weekly_overtime_limit_buffer", 720, 0)
	p.nightStart = r.clock("company_settings.night_shift_start_time", MustParseClock("22:00"))
	p.nightEnd = r.clock("company_settings.night_shift_end_time", MustParseClock("06:00"))
	p.breakRules = r.breakRules("company_settings.break_time_rules")
	p.holidays = r.holidayCalendar()
	p.statusCodes = r.statusCodes()

	p.hireRule = DateRule(r.enumValue("policies.working_days.hire_date", string(RuleInclude), func(s string) (string, bool) {
		v, ok := ParseDateRule(s)
		return string(v), ok
	}))
	p.resignRule = DateRule(r.enumValue("policies.working_days.resignation_date", string(RuleInclude), func(s string) (string, bool) {
		v, ok := ParseDateRule(s)
		return string(v), ok
	}))
	p.overlap = OverlapPolicy(r.enumValue("policies.work_classification.overlap_policy", string(OverlapSeparateCounting), func(s string) (string, bool) {
		v, ok := ParseOverlapPolicy(s)
		return string(v), ok
	}))
	p.warnings = r.warningPolicy()

	if r.err != nil {
		return nil, r.err
	}
	p.trace = r.trace
	return p, nil
}

// With returns a new Policy built from a copy of this Policy's settings
// with dotted-key overrides applied.
func (p *Policy) With(overrides map[string]any) (*Policy, error) {
	tree := deepCopySettings(p.settings)
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		setPath(tree, k, deepCopyValue(overrides[k]))
	}
	return NewPolicy(tree)
}

// Clone returns an independent deep copy.
func (p *Policy) Clone() *Policy {
	c, err := NewPolicy(p.settings)
	if err != nil {
		// p itself resolved from the same tree, so this cannot fail.
		panic(err)
	}
	return c
}

// Get looks up a dotted key in the settings tree, returning def when any
// path segment is missing.
func (p *Policy) Get(key string, def any) any {
	if v, ok := lookup(p.settings, key); ok {
		return deepCopyValue(v)
	}
	return def
}

// Settings returns a copy of the settings tree the Policy was built from.
func (p *Policy) Settings() Settings { return deepCopySettings(p.settings) }

// Trace returns the resolved values in resolution order.
func (p *Policy) Trace() []TraceEntry {
	out := make([]TraceEntry, len(p.trace))
	copy(out, p.trace)
	return out
}

// Accessors
func (p *Policy) DailyStandardMinutes() int        { return p.dailyStandard }
func (p *Policy) WeeklyStandardMinutes() int       { return p.weeklyStandard }
func (p *Policy) WeeklyOvertimeBufferMinutes() int { return p.weeklyBuffer }
func (p *Policy) WeeklyLimitMinutes() int          { return p.weeklyStandard + p.weeklyBuffer }
func (p *Policy) NightWindow() (start, end Clock)  { return p.nightStart, p.nightEnd }
func (p *Policy) Holidays() HolidayCalendar        { return p.holidays }
func (p *Policy) HireDateRule() DateRule           { return p.hireRule }
func (p *Policy) ResignationDateRule() DateRule    { return p.resignRule }
func (p *Policy) OverlapPolicy() OverlapPolicy     { return p.overlap }
func (p *Policy) WarningPolicy() WarningPolicy     { return p.warnings }
func (p *Policy) ValidationPolicy() ValidationPolicy {
	return p.validation
}
func (p *Policy) Strict() bool { return p.validation == ValidationStrict }

// BreakRules returns the rules ordered from the highest threshold down.
func (p *Policy) BreakRules() []BreakRule {
	out := make([]BreakRule, len(p.breakRules))
	copy(out, p.breakRules)
	return out
}

// RequiredBreak returns the break owed for a stay of the given length: the
// first rule, highest threshold first, whose threshold the stay reaches.
func (p *Policy) RequiredBreak(stayMinutes int) int {
	for _, rule := range p.breakRules {
		if stayMinutes >= rule.ThresholdMinutes {
			return rule.BreakMinutes
		}
	}
	return 0
}

// NightWindows returns the night windows that can touch a shift starting on
// day: those opening the day before, the day itself and the day after.
func (p *Policy) NightWindows(day Date) []Interval {
	if p.nightStart == p.nightEnd {
		return nil
	}
	windows := make([]Interval, 0, 3)
	for offset := -1; offset <= 1; offset++ {
		windows = append(windows, ShiftInterval(day.AddDays(offset), p.nightStart, p.nightEnd))
	}
	return windows
}

// StatusCode resolves a code against the configured table, then the legacy table.
func (p *Policy) StatusCode(code string) (StatusCodeDefinition, bool) {
	if def, ok := p.statusCodes[code]; ok {
		return def, true
	}
	def, ok := legacyStatusCodes[code]
	return def, ok
}

// ShouldWarn says whether a warning is emitted. Issue warnings report
// something wrong with the input; the rest are informational notes.
func (p *Policy) ShouldWarn(issue bool) bool {
	switch p.warnings {
	case WarnNever:
		return false
	case WarnAlways:
		return true
	default:
		return issue
	}
}

// =============================================================================
// LEGACY STATUS CODES
// =============================================================================

var legacyStatusCodes = map[string]StatusCodeDefinition{
	"1": {WorkDayValue: decimal.NewFromInt(1), Description: "정상 출근"},
	"2": {WorkDayValue: decimal.Zero, IsUnpaidLeave: true, Description: "결근"},
	"3": {WorkDayValue: decimal.NewFromInt(1), IsPaidLeave: true, Description: "유급 휴가"},
	"4": {WorkDayValue: decimal.Zero, IsUnpaidLeave: true, Description: "무급 휴가"},
	"5": {WorkDayValue: decimal.RequireFromString("0.5"), CountsAsEarlyLeave: true, Description: "반차"},
	"L": {WorkDayValue: decimal.NewFromInt(1), CountsAsLate: true, Description: "지각"},
	"E": {WorkDayValue: decimal.NewFromInt(1), CountsAsEarlyLeave: true, Description: "조퇴"},
}

// =============================================================================
// RESOLVER
// =============================================================================

type resolver struct {
	settings Settings
	strict   bool
	trace    []TraceEntry
	err      error
}

func (r *resolver) record(key string, value any, source, note string) {
	r.trace = append(r.trace, TraceEntry{Key: key, Value: fmt.Sprint(value), Source: source, Note: note})
}

// invalid keeps the first strict failure. Lenient resolution only traces it.
func (r *resolver) invalid(key string, value any, reason string) string {
	if r.strict && r.err == nil {
		r.err = &SettingError{Key: key, Value: value, Reason: reason}
	}
	return fmt.Sprintf("ignored %v: %s", value, reason)
}

func (r *resolver) minutes(key string, def, floor int) int {
	raw, ok := lookup(r.settings, key)
	if !ok {
		r.record(key, def, SourceDefault, "")
		return def
	}
	n, ok := toInt(raw)
	if !ok || n < floor {
		note := r.invalid(key, raw, fmt.Sprintf("expected a whole number >= %d", floor))
		r.record(key, def, SourceDefault, note)
		return def
	}
	r.record(key, n, SourceSettings, "")
	return n
}

func (r *resolver) clock(key string, def Clock) Clock {
	raw, ok := lookup(r.settings, key)
	if !ok {
		r.record(key, def, SourceDefault, "")
		return def
	}
	s, isString := raw.(string)
	c, err := ParseClock(s)
	if !isString || err != nil {
		note := r.invalid(key, raw, "expected HH:MM")
		r.record(key, def, SourceDefault, note)
		return def
	}
	r.record(key, c, SourceSettings, "")
	return c
}

func (r *resolver) enumValue(key, def string, parse func(string) (string, bool)) string {
	raw, ok := lookup(r.settings, key)
	if !ok {
		r.record(key, def, SourceDefault, "")
		return def
	}
	s, isString := raw.(string)
	v, known := parse(s)
	if !isString || !known {
		note := r.invalid(key, raw, "unknown value")
		r.record(key, def, SourceDefault, note)
		return def
	}
	r.record(key, v, SourceSettings, "")
	return v
}

func (r *resolver) warningPolicy() WarningPolicy {
	const enabledKey = "policies.warnings.enabled"
	if raw, ok := lookup(r.settings, enabledKey); ok {
		enabled, isBool := toBool(raw)
		if !isBool {
			note := r.invalid(enabledKey, raw, "expected true or false")
			r.record(enabledKey, true, SourceDefault, note)
		} else if !enabled {
			r.record(enabledKey, false, SourceSettings, "")
			r.record("policies.warnings.policy", WarnNever, SourceSettings, "warnings disabled")
			return WarnNever
		}
	}
	return WarningPolicy(r.enumValue("policies.warnings.policy", string(WarnOnlyIssues), func(s string) (string, bool) {
		v, ok := ParseWarningPolicy(s)
		return string(v), ok
	}))
}

func (r *resolver) breakRules(key string) []BreakRule {
	raw, ok := lookup(r.settings, key)
	if !ok {
		r.record(key, formatBreakRules(defaultBreakRules), SourceDefault, "")
		return append([]BreakRule(nil), defaultBreakRules...)
	}
	items, isList := raw.([]any)
	if !isList {
		note := r.invalid(key, raw, "expected a list of {threshold_minutes, break_minutes}")
		r.record(key, formatBreakRules(defaultBreakRules), SourceDefault, note)
		return append([]BreakRule(nil), defaultBreakRules...)
	}

	var rules []BreakRule
	var notes []string
	for i, item := range items {
		m, isMap := asMap(item)
		threshold, okT := toInt(m["threshold_minutes"])
		brk, okB := toInt(m["break_minutes"])
		if !isMap || !okT || !okB || threshold < 0 || brk < 0 {
			notes = append(notes, r.invalid(fmt.Sprintf("%s[%d]", key, i), item, "expected non-negative threshold_minutes and break_minutes"))
			continue
		}
		rules = append(rules, BreakRule{ThresholdMinutes: threshold, BreakMinutes: brk})
	}
	if len(rules) == 0 && len(items) > 0 {
		r.record(key, formatBreakRules(defaultBreakRules), SourceDefault, strings.Join(notes, "; "))
		return append([]BreakRule(nil), defaultBreakRules...)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ThresholdMinutes > rules[j].ThresholdMinutes })
	r.record(key, formatBreakRules(rules), SourceSettings, strings.Join(notes, "; "))
	return rules
}

func formatBreakRules(rules []BreakRule) string {
	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = fmt.Sprintf("%d>=%d", rule.ThresholdMinutes, rule.BreakMinutes)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (r *resolver) holidayCalendar() HolidayCalendar {
	const weekendKey = "company_settings.weekly_holiday_days"
	weekend := []time.Weekday{time.Sunday}
	if raw, ok := lookup(r.settings, weekendKey); ok {
		items, isList := raw.([]any)
		var parsed []time.Weekday
		var notes []string
		if isList {
			for _, item := range items {
				s, _ := item.(string)
				wd, known := ParseWeekday(s)
				if !known {
					notes = append(notes, r.invalid(weekendKey, item, "unknown day name"))
					continue
				}
				parsed = append(parsed, wd)
			}
		} else {
			notes = append(notes, r.invalid(weekendKey, raw, "expected a list of day names"))
		}
		if isList && (len(parsed) > 0 || len(items) == 0) {
			weekend = parsed
			r.record(weekendKey, weekdayList(weekend), SourceSettings, strings.Join(notes, "; "))
		} else {
			r.record(weekendKey, weekdayList(weekend), SourceDefault, strings.Join(notes, "; "))
		}
	} else {
		r.record(weekendKey, weekdayList(weekend), SourceDefault, "")
	}

	cal := NewHolidayCalendar(weekend)

	const holidaysKey = "holidays_config.holidays"
	raw, ok := lookup(r.settings, holidaysKey)
	if !ok {
		r.record(holidaysKey, 0, SourceDefault, "")
		return cal
	}
	items, isList := raw.([]any)
	if !isList {
		note := r.invalid(holidaysKey, raw, "expected a list of {date, name}")
		r.record(holidaysKey, 0, SourceDefault, note)
		return cal
	}
	var notes []string
	for i, item := range items {
		var dateRaw any = item
		name := ""
		if m, isMap := asMap(item); isMap {
			dateRaw = m["date"]
			name, _ = m["name"].(string)
		}
		d, okDate := toDate(dateRaw)
		if !okDate {
			notes = append(notes, r.invalid(fmt.Sprintf("%s[%d]", holidaysKey, i), item, "expected a YYYY-MM-DD date"))
			continue
		}
		cal.dates[d.String()] = name
	}
	r.record(holidaysKey, len(cal.dates), SourceSettings, strings.Join(notes, "; "))
	return cal
}

func weekdayList(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, wd := range days {
		names[i] = wd.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func (r *resolver) statusCodes() map[string]StatusCodeDefinition {
	key := "attendance_status_codes"
	raw, ok := lookup(r.settings, key)
	if !ok {
		key = "company_settings.attendance_status_codes"
		raw, ok = lookup(r.settings, key)
	}
	table := map[string]StatusCodeDefinition{}
	if !ok {
		r.record("attendance_status_codes", len(legacyStatusCodes), SourceDefault, "legacy codes only")
		return table
	}
	m, isMap := asMap(raw)
	if !isMap {
		note := r.invalid(key, raw, "expected a map of code definitions")
		r.record(key, len(legacyStatusCodes), SourceDefault, note)
		return table
	}

	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var notes []string
	for _, code := range codes {
		entryKey := key + "." + code
		fields, isMap := asMap(m[code])
		if !isMap {
			notes = append(notes, r.invalid(entryKey, m[code], "expected a code definition"))
			continue
		}
		def, note := r.statusCode(entryKey, fields)
		if note != "" {
			notes = append(notes, note)
		}
		table[code] = def
	}
	r.record(key, len(table), SourceSettings, strings.Join(notes, "; "))
	return table
}

func (r *resolver) statusCode(key string, fields map[string]any) (StatusCodeDefinition, string) {
	var notes []string
	def := StatusCodeDefinition{}
	def.Description, _ = fields["description"].(string)
	def.IsPaidLeave, _ = toBool(fields["is_paid_leave"])
	def.IsUnpaidLeave, _ = toBool(fields["is_unpaid_leave"])
	def.CountsAsLate, _ = toBool(fields["counts_as_late"])
	def.CountsAsEarlyLeave, _ = toBool(fields["counts_as_early_leave"])

	if v, present := fields["work_day_value"]; present {
		value, ok := toDecimal(v)
		switch {
		case !ok:
			notes = append(notes, r.invalid(key+".work_day_value", v, "expected a number"))
		case value.IsNegative() || value.GreaterThan(decimal.NewFromInt(1)):
			notes = append(notes, r.invalid(key+".work_day_value", v, "expected a value between 0 and 1"))
			value = decimal.Max(decimal.Zero, decimal.Min(value, decimal.NewFromInt(1)))
			def.WorkDayValue = value
		default:
			def.WorkDayValue = value
		}
	}

	if def.IsPaidLeave && def.IsUnpaidLeave {
		notes = append(notes, r.invalid(key, "paid+unpaid", "a code cannot be both paid and unpaid leave; treated as paid leave"))
		def.IsUnpaidLeave = false
	}
	return def, strings.Join(notes, "; ")
}

// =============================================================================
// SETTINGS TREE HELPERS
// =============================================================================

func lookup(tree Settings, key string) (any, bool) {
	var cur any = map[string]any(tree)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(tree Settings, key string, value any) {
	parts := strings.Split(key, ".")
	cur := map[string]any(tree)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			next = map[string]any{}
		}
		cur[part] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Settings:
		return map[string]any(m), true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func deepCopySettings(s Settings) Settings {
	out := Settings{}
	for k, v := range s {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopyValue(val)
		}
		return out
	case Settings:
		return map[string]any(deepCopySettings(t))
	case map[any]any:
		m, _ := asMap(t)
		return deepCopyValue(m)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return v
	}
}

// =============================================================================
// VALUE COERCION
// =============================================================================

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case decimal.Decimal:
		return n, true
	}
	return decimal.Zero, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}

// toDate accepts "YYYY-MM-DD" strings and time.Time (YAML decodes bare
// timestamps into time.Time).
func toDate(v any) (Date, bool) {
	switch d := v.(type) {
	case string:
		parsed, err := ParseDate(d)
		return parsed, err == nil
	case time.Time:
		return DateOf(d), true
	case Date:
		return d, true
	}
	return Date{}, false
}
