package engine

import (
	"github.com/montanaflynn/stats"

	"github.com/zalepa/casedash/dataset"
)

// NumericField names a per-record day delta that can be reduced.
type NumericField string

const (
	DaysToFile     NumericField = dataset.DaysToFileField
	DaysFileToSent NumericField = dataset.DaysFileToSentField
)

// NumericFields lists the reducible fields in display order.
var NumericFields = []NumericField{DaysToFile, DaysFileToSent}

// Label returns the display name of f.
func (f NumericField) Label() string {
	switch f {
	case DaysToFile:
		return "Days to File"
	case DaysFileToSent:
		return "Days from Filing to Sentence"
	}
	return PrettyName(string(f))
}

func (f NumericField) delta(r dataset.Record) (dataset.Delta, bool) {
	switch f {
	case DaysToFile:
		return r.DaysToFile, true
	case DaysFileToSent:
		return r.DaysFileToSentence, true
	}
	return dataset.Delta{}, false
}

// MonthlyResult holds seasonal reductions indexed by calendar month, index 0
// being January. A nil entry means the month had no qualifying values.
type MonthlyResult struct {
	Field  NumericField
	Mean   [12]*float64
	Median [12]*float64
	Count  [12]int
	// LatestYear is the most recent year of any record in that month, or 0.
	LatestYear [12]int
}

// MonthlyStats reduces field across all years of ds, per calendar month.
// Absent, zero and negative values are excluded.
func MonthlyStats(ds *dataset.Dataset, field NumericField) MonthlyResult {
	res := MonthlyResult{Field: field}
	var values [12]stats.Float64Data

	for r := range ds.All() {
		if !r.HasDate() {
			continue
		}
		i := r.Month() - 1
		if r.Year() > res.LatestYear[i] {
			res.LatestYear[i] = r.Year()
		}
		d, ok := field.delta(r)
		if !ok || !d.Qualifies() {
			continue
		}
		v, _ := d.Get()
		values[i] = append(values[i], v)
	}

	for i, vals := range values {
		res.Count[i] = len(vals)
		if len(vals) == 0 {
			continue
		}
		if mean, err := stats.Mean(vals); err == nil {
			res.Mean[i] = &mean
		}
		if median, err := stats.Median(vals); err == nil {
			res.Median[i] = &median
		}
	}
	return res
}

// Last returns the value of the latest month that has one, or nil.
func Last(vals [12]*float64) *float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != nil {
			return vals[i]
		}
	}
	return nil
}
