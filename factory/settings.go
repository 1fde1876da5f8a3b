/*
Package factory turns settings documents into worktime policies.

PURPOSE:
  Companies keep their work-time rules in YAML or JSON settings files. The
  factory decodes those documents into a worktime.Settings tree, merges
  overlays (stored holiday rows, inline request settings) and builds the
  resolved worktime.Policy.

WHY A SETTINGS TREE?
  - HR edits one file, no code changes
  - Dotted-key overrides drive the policy simulator
  - Stored profiles round-trip through the database unchanged

YAML SCHEMA (all keys optional):
  company_settings:
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
  holidays_config:
    holidays:
      - {date: "2025-01-01", name: 신정}
  policies:
    working_days: {hire_date: include, resignation_date: include}
    work_classification: {overlap_policy: separate_counting}
    warnings: {policy: only_issues}
    validation: {policy: lenient}

USAGE:
  f := factory.NewSettingsFactory()
  settings, err := f.ParseSettings(data, factory.FormatYAML)
  policy, err := f.Policy(settings)

SEE ALSO:
  - worktime/policy.go: Resolution of the tree into a Policy
  - presets.go: Built-in settings documents
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// =============================================================================
// FORMATS
// =============================================================================

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat maps a format name or file extension. Unknown values are YAML,
// which also accepts JSON documents.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

// SettingsFactory decodes settings documents.
type SettingsFactory struct{}

// NewSettingsFactory creates a new settings factory.
func NewSettingsFactory() *SettingsFactory {
	return &SettingsFactory{}
}

// ParseSettings decodes a document into a settings tree.
func (f *SettingsFactory) ParseSettings(data []byte, format Format) (worktime.Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return worktime.Settings{}, nil
	}

	var tree map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
		}
	}
	return worktime.Settings(normalize(tree).(map[string]any)), nil
}

// LoadSettingsFile reads a settings file, choosing the format by extension.
func (f *SettingsFactory) LoadSettingsFile(path string) (worktime.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return f.ParseSettings(data, ParseFormat(filepath.Ext(path)))
}

// LoadBase returns the settings tree a process starts from: the file at
// path when set, else the named preset, else an empty tree (engine
// defaults).
func (f *SettingsFactory) LoadBase(path, preset string) (worktime.Settings, error) {
	switch {
	case path != "":
		return f.LoadSettingsFile(path)
	case preset != "":
		return f.Preset(preset)
	default:
		return worktime.Settings{}, nil
	}
}

// Policy resolves a settings tree.
func (f *SettingsFactory) Policy(settings worktime.Settings) (*worktime.Policy, error) {
	policy, err := worktime.NewPolicy(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy: %w", err)
	}
	return policy, nil
}

// ParsePolicy decodes a document and resolves it in one step.
func (f *SettingsFactory) ParsePolicy(data []byte, format Format) (*worktime.Policy, error) {
	settings, err := f.ParseSettings(data, format)
	if err != nil {
		return nil, err
	}
	return f.Policy(settings)
}

// MarshalSettings encodes a settings tree, for storing a profile.
func (f *SettingsFactory) MarshalSettings(settings worktime.Settings, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(settings, "", "  ")
	}
	return yaml.Marshal(map[string]any(settings))
}

// =============================================================================
// MERGING
// =============================================================================

// Merge overlays settings onto base. Maps merge key by key, every other value
// (lists included) is replaced. Neither input is modified.
func Merge(base, overlay worktime.Settings) worktime.Settings {
	out := normalize(map[string]any(base)).(map[string]any)
	mergeInto(out, normalize(map[string]any(overlay)).(map[string]any))
	return worktime.Settings(out)
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// Holiday is one calendar row merged into holidays_config.
type Holiday struct {
	Date string `json:"date" yaml:"date"`
	Name string `json:"name" yaml:"name"`
}

// WithHolidays appends holiday rows to holidays_config.holidays. A row for a
// date already listed replaces the listed name.
func WithHolidays(settings worktime.Settings, holidays []Holiday) worktime.Settings {
	out := Merge(settings, nil)
	if len(holidays) == 0 {
		return out
	}

	byDate := map[string]string{}
	cfg, _ := out["holidays_config"].(map[string]any)
	if cfg == nil {
		cfg = map[string]any{}
	}
	existing, _ := cfg["holidays"].([]any)
	var passthrough []any
	for _, item := range existing {
		m, ok := item.(map[string]any)
		if !ok {
			passthrough = append(passthrough, item)
			continue
		}
		date := fmt.Sprint(m["date"])
		if t, isTime := m["date"].(time.Time); isTime {
			date = t.Format("2006-01-02")
		}
		name, _ := m["name"].(string)
		byDate[date] = name
	}
	for _, h := range holidays {
		byDate[h.Date] = h.Name
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	list := append([]any{}, passthrough...)
	for _, d := range dates {
		list = append(list, map[string]any{"date": d, "name": byDate[d]})
	}
	cfg["holidays"] = list
	out["holidays_config"] = cfg
	return out
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// normalize deep-copies a decoded document into map[string]any / []any form.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case worktime.Settings:
		return normalize(map[string]any(t))
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case nil:
		return nil
	default:
		return v
	}
}
