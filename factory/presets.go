package factory

import (
	"fmt"
	"strings"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// KoreanHolidays2025 are the national holidays shipped with the standard preset.
var KoreanHolidays2025 = []Holiday{
	{Date: "2025-01-01", Name: "신정"},
	{Date: "2025-02-01", Name: "설날"},
	{Date: "2025-03-01", Name: "삼일절"},
	{Date: "2025-05-05", Name: "어린이날"},
	{Date: "2025-08-15", Name: "광복절"},
	{Date: "2025-10-03", Name: "개천절"},
	{Date: "2025-12-25", Name: "크리스마스"},
}

// Preset names accepted by PresetYAML.
const (
	PresetKoreanStandard = "korean-standard"
	PresetStrictAudit    = "strict-audit"
	PresetNightPriority  = "night-priority"
)

// PresetNames lists the built-in presets in display order.
func PresetNames() []string {
	return []string{PresetKoreanStandard, PresetStrictAudit, PresetNightPriority}
}

// PresetYAML returns a built-in settings document by name.
func PresetYAML(name string) (string, error) {
	switch name {
	case PresetKoreanStandard, "":
		return KoreanStandardYAML(KoreanHolidays2025), nil
	case PresetStrictAudit:
		return StrictAuditYAML(), nil
	case PresetNightPriority:
		return NightPriorityYAML(), nil
	default:
		return "", fmt.Errorf("preset %q: %w", name, worktime.ErrNotFound)
	}
}

// KoreanStandardYAML returns the standard Korean statutory settings: an
// 8 hour day, a 40 hour week with a 12 hour overtime buffer, night work
// from 22:00 to 06:00 and the legacy attendance codes.
func KoreanStandardYAML(holidays []Holiday) string {
	var b strings.Builder
	b.WriteString(`company_settings:
  daily_work_minutes_standard: 480
  weekly_work_minutes_standard: 2400
  weekly_overtime_limit_buffer: 720
  night_shift_start_time: "22:00"
  night_shift_end_time: "06:00"
  break_time_rules:
    - {threshold_minutes: 240, break_minutes: 30}
    - {threshold_minutes: 480, break_minutes: 60}
  weekly_holiday_days: [Sunday]
attendance_status_codes:
  "1": {work_day_value: 1.0, description: 정상 출근}
  "2": {work_day_value: 0.0, is_unpaid_leave: true, description: 결근}
  "3": {work_day_value: 1.0, is_paid_leave: true, description: 유급 휴가}
  "4": {work_day_value: 0.0, is_unpaid_leave: true, description: 무급 휴가}
  "5": {work_day_value: 0.5, counts_as_early_leave: true, description: 반차}
  "L": {work_day_value: 1.0, counts_as_late: true, description: 지각}
  "E": {work_day_value: 1.0, counts_as_early_leave: true, description: 조퇴}
policies:
  working_days: {hire_date: include, resignation_date: include}
  work_classification: {overlap_policy: separate_counting}
  warnings: {policy: only_issues}
  validation: {policy: lenient}
`)
	if len(holidays) == 0 {
		b.WriteString("holidays_config:\n  holidays: []\n")
		return b.String()
	}
	b.WriteString("holidays_config:\n  holidays:\n")
	for _, h := range holidays {
		fmt.Fprintf(&b, "    - {date: %q, name: %q}\n", h.Date, h.Name)
	}
	return b.String()
}

// StrictAuditYAML rejects anything questionable and reports every warning.
func StrictAuditYAML() string {
	return `policies:
  validation: {policy: strict}
  warnings: {policy: always}
  working_days: {hire_date: include, resignation_date: exclude}
`
}

// NightPriorityYAML counts night minutes first and trims the other buckets.
func NightPriorityYAML() string {
	return `policies:
  work_classification: {overlap_policy: prioritize_night}
`
}

// Preset decodes a built-in settings document.
func (f *SettingsFactory) Preset(name string) (worktime.Settings, error) {
	doc, err := PresetYAML(name)
	if err != nil {
		return nil, err
	}
	return f.ParseSettings([]byte(doc), FormatYAML)
}
