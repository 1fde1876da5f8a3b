package simulation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seojaehong/hr-mvp-app/simulation"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

func matrixCategories() []simulation.Category {
	return []simulation.Category{
		{Name: "overlap", Options: []simulation.Variant{
			{Name: "separate", Overrides: map[string]any{"policies.work_classification.overlap_policy": "separate_counting"}},
			{Name: "night-first", Overrides: map[string]any{"policies.work_classification.overlap_policy": "prioritize_night"},
				ConflictsWith: []string{"short-day"}},
		}},
		{Name: "daily", Options: []simulation.Variant{
			{Name: "8h", Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 480}},
			{Name: "short-day", Overrides: map[string]any{"company_settings.daily_work_minutes_standard": 420}},
		}},
	}
}

// =============================================================================
// MATRIX
// =============================================================================

func TestMatrix_CartesianProduct(t *testing.T) {
	variants := simulation.Matrix(matrixCategories())

	require.Len(t, variants, 4)
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"separate + 8h", "separate + short-day", "night-first + 8h", "night-first + short-day"}, names)

	last := variants[3]
	assert.Equal(t, "prioritize_night", last.Overrides["policies.work_classification.overlap_policy"])
	assert.Equal(t, 420, last.Overrides["company_settings.daily_work_minutes_standard"])
}

func TestMatrix_EmptyCategoriesSkipped(t *testing.T) {
	cats := append(matrixCategories(), simulation.Category{Name: "empty"})

	assert.Len(t, simulation.Matrix(cats), 4)
	assert.Nil(t, simulation.Matrix(nil))
}

func TestFilterConflicts(t *testing.T) {
	variants := simulation.FilterConflicts(simulation.Matrix(matrixCategories()))

	require.Len(t, variants, 3)
	for _, v := range variants {
		assert.NotEqual(t, "night-first + short-day", v.Name)
	}

	// plain variants carry no parts and are always kept
	plain := []simulation.Variant{{Name: "a", ConflictsWith: []string{"a"}}}
	assert.Len(t, simulation.FilterConflicts(plain), 1)
}

// =============================================================================
// VARIANT FILES
// =============================================================================

const variantYAML = `
baseline: standard
variants:
  - name: standard
  - name: strict
    overrides:
      policies.validation.policy: strict
matrix:
  - category: overlap
    options:
      - {name: separate, overrides: {policies.work_classification.overlap_policy: separate_counting}}
      - {name: night-first, overrides: {policies.work_classification.overlap_policy: prioritize_night}, conflicts_with: [short-day]}
  - category: daily
    options:
      - {name: 8h}
      - {name: short-day, overrides: {company_settings.daily_work_minutes_standard: 420}}
`

func TestLoadVariants(t *testing.T) {
	file, err := simulation.LoadVariants(strings.NewReader(variantYAML))
	require.NoError(t, err)

	assert.Equal(t, "standard", file.Baseline)
	variants := file.Expand()
	require.Len(t, variants, 5)
	assert.Equal(t, "standard", variants[0].Name)
	assert.Equal(t, "strict", variants[1].Name)
	assert.Equal(t, "separate + 8h", variants[2].Name)
}

func TestLoadVariants_Errors(t *testing.T) {
	_, err := simulation.LoadVariants(strings.NewReader(""))
	assert.ErrorIs(t, err, simulation.ErrNoVariants)

	_, err = simulation.LoadVariants(strings.NewReader("baseline: x\n"))
	assert.ErrorIs(t, err, simulation.ErrNoVariants)

	_, err = simulation.LoadVariants(strings.NewReader("variants: {not: a list}"))
	assert.Error(t, err)
}

// =============================================================================
// EXPORT
// =============================================================================

func exportReport(t *testing.T) *simulation.Report {
	t.Helper()
	file, err := simulation.LoadVariants(strings.NewReader(variantYAML))
	require.NoError(t, err)
	input := nightInput()
	input.Records = append(input.Records, worktime.RawRecord{
		"date": "2025-05-08", "start_time": "09:00", "end_time": "14:20", "break_time_minutes": 20,
	})

	report, err := newTestSimulator().Run(context.Background(), simulation.Request{
		Input:    input,
		Variants: file.Expand(),
		Baseline: file.Baseline,
	})
	require.NoError(t, err)
	return report
}

func TestWriteJSON(t *testing.T) {
	report := exportReport(t)
	var buf bytes.Buffer

	require.NoError(t, simulation.WriteJSON(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ID.String(), decoded["id"])
	assert.Len(t, decoded["outcomes"], 5)
	assert.Equal(t, "standard", decoded["baseline"])
}

func TestWriteXLSX(t *testing.T) {
	report := exportReport(t)
	var buf bytes.Buffer

	require.NoError(t, simulation.WriteXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Comparison", "Alerts", "Metrics"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"variant", "mode", "error"}, rows[0][:3])
	assert.Equal(t, report.Outcomes[0].Variant, rows[1][0])

	alerts, err := f.GetRows("Alerts")
	require.NoError(t, err)
	assert.Greater(t, len(alerts), 1)
	assert.Equal(t, "INSUFFICIENT_BREAK_TIME", alerts[1][1])

	metrics, err := f.GetRows("Metrics")
	require.NoError(t, err)
	assert.Equal(t, "regular_hours", metrics[1][0])
}
