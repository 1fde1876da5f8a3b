package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// VARIANT FILES
// =============================================================================

// VariantFile is the YAML layout accepted by LoadVariants:
//
//	baseline: standard
//	variants:
//	  - name: standard
//	  - name: night-first
//	    overrides: {policies.work_classification.overlap_policy: prioritize_night}
//	matrix:
//	  - category: validation
//	    options:
//	      - {name: lenient, overrides: {policies.validation.policy: lenient}}
//	      - {name: strict, overrides: {policies.validation.policy: strict}}
type VariantFile struct {
	Baseline string     `yaml:"baseline"`
	Variants []Variant  `yaml:"variants"`
	Matrix   []Category `yaml:"matrix"`
}

// Expand returns the listed variants followed by the conflict-free matrix
// combinations.
func (f VariantFile) Expand() []Variant {
	out := append([]Variant{}, f.Variants...)
	return append(out, FilterConflicts(Matrix(f.Matrix))...)
}

// LoadVariants decodes a variant file.
func LoadVariants(r io.Reader) (VariantFile, error) {
	var f VariantFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return f, ErrNoVariants
		}
		return f, fmt.Errorf("failed to parse variants: %w", err)
	}
	if len(f.Variants) == 0 && len(f.Matrix) == 0 {
		return f, ErrNoVariants
	}
	return f, nil
}

// =============================================================================
// JSON
// =============================================================================

func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// =============================================================================
// XLSX
// =============================================================================

const (
	sheetSummary    = "Summary"
	sheetComparison = "Comparison"
	sheetAlerts     = "Alerts"
	sheetMetrics    = "Metrics"
)

// WriteXLSX renders the report as a workbook with one sheet each for the
// per-variant summary, the baseline comparison, compliance alerts and the
// metric statistics.
func WriteXLSX(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{sheetComparison, sheetAlerts, sheetMetrics} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	x := &sheetWriter{f: f, header: headerStyle}
	x.summary(report)
	x.comparison(report)
	x.alerts(report)
	x.metrics(report)
	if x.err != nil {
		return x.err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first cell error so the row loops stay readable.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (x *sheetWriter) row(sheet string, row int, values ...any) {
	for i, v := range values {
		if x.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			x.err = err
			return
		}
		x.err = x.f.SetCellValue(sheet, cell, v)
	}
}

func (x *sheetWriter) headerRow(sheet string, titles ...string) {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	x.row(sheet, 1, values...)
	if x.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	x.err = x.f.SetCellStyle(sheet, "A1", last, x.header)
	if x.err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(titles))
		x.err = x.f.SetColWidth(sheet, "A", lastCol, 20)
	}
}

func (x *sheetWriter) summary(r *Report) {
	fields := metricNames(r)
	titles := append([]string{"variant", "mode", "error"}, fields...)
	x.headerRow(sheetSummary, titles...)

	for i, o := range r.Outcomes {
		values := []any{o.Variant, "", o.Error}
		byName := map[string]float64{}
		if o.Result != nil {
			values[1] = string(o.Result.ProcessingMode)
			if o.Result.Error != nil {
				values[2] = string(o.Result.Error.ErrorCode) + ": " + o.Result.Error.Message
			}
			for _, f := range summaryFields(*o.Result) {
				byName[f.name] = f.value.InexactFloat64()
			}
		}
		for _, name := range fields {
			if v, ok := byName[name]; ok {
				values = append(values, v)
			} else {
				values = append(values, "")
			}
		}
		x.row(sheetSummary, i+2, values...)
	}
}

func (x *sheetWriter) comparison(r *Report) {
	x.headerRow(sheetComparison, "variant", "field", "baseline", "value", "diff", "percent_change", "significant")
	row := 2
	for _, c := range r.Comparisons {
		for _, d := range c.Summary {
			pct := any("")
			if d.PercentChange != nil {
				pct = d.PercentChange.InexactFloat64()
			}
			x.row(sheetComparison, row, c.Variant, d.Field,
				d.A.InexactFloat64(), d.B.InexactFloat64(), d.Diff.InexactFloat64(), pct, d.Significant())
			row++
		}
	}
}

func (x *sheetWriter) alerts(r *Report) {
	x.headerRow(sheetAlerts, "variant", "alert_code", "severity", "message")
	row := 2
	for _, o := range r.Outcomes {
		if o.Result == nil {
			continue
		}
		for _, a := range o.Result.ComplianceAlerts {
			x.row(sheetAlerts, row, o.Variant, string(a.Code), string(a.Severity), a.Message)
			row++
		}
	}
}

func (x *sheetWriter) metrics(r *Report) {
	x.headerRow(sheetMetrics, "metric", "min", "max", "avg", "median", "count", "lowest")
	for i, name := range metricNames(r) {
		st := r.Metrics[name]
		x.row(sheetMetrics, i+2, name,
			st.Min.InexactFloat64(), st.Max.InexactFloat64(), st.Avg.InexactFloat64(), st.Median.InexactFloat64(),
			st.Count, strings.Join(st.Lowest, ", "))
	}
}

// metricNames lists metrics in summary-field order, then any remaining
// names sorted.
func metricNames(r *Report) []string {
	var names []string
	seen := map[string]bool{}
	for _, o := range r.Outcomes {
		if o.Failed() {
			continue
		}
		for _, f := range summaryFields(*o.Result) {
			if !seen[f.name] {
				seen[f.name] = true
				names = append(names, f.name)
			}
		}
	}
	var rest []string
	for name := range r.Metrics {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
