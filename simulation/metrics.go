package simulation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Stat summarizes one metric across the successful outcomes. Lowest lists
// the variants that reached Min.
type Stat struct {
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Avg    decimal.Decimal `json:"avg"`
	Median decimal.Decimal `json:"median"`
	Count  int             `json:"count"`
	Lowest []string        `json:"lowest"`
}

// Summarize computes a Stat per summary field over every outcome whose
// calculation succeeded. The median of an even count is the upper middle
// value.
func Summarize(outcomes []Outcome) map[string]Stat {
	type sample struct {
		variant string
		value   decimal.Decimal
	}
	samples := map[string][]sample{}
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		for _, f := range summaryFields(*o.Result) {
			samples[f.name] = append(samples[f.name], sample{o.Variant, f.value})
		}
	}

	stats := make(map[string]Stat, len(samples))
	for name, list := range samples {
		values := make([]decimal.Decimal, len(list))
		sum := decimal.Zero
		for i, s := range list {
			values[i] = s.value
			sum = sum.Add(s.value)
		}
		sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

		st := Stat{
			Min:    values[0],
			Max:    values[len(values)-1],
			Avg:    sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2),
			Median: values[len(values)/2],
			Count:  len(values),
			Lowest: []string{},
		}
		for _, s := range list {
			if s.value.Equal(st.Min) {
				st.Lowest = append(st.Lowest, s.variant)
			}
		}
		sort.Strings(st.Lowest)
		stats[name] = st
	}
	return stats
}
