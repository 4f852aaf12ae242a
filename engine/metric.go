package engine

import (
	"strings"
	"unicode"

	"github.com/zalepa/casedash/dataset"
)

// Metric names a quantity plotted per bucket.
type Metric string

const (
	AllCases  Metric = "all_cases"
	Accepted  Metric = "accepted"
	Rejected  Metric = "rejected"
	Sentenced Metric = Metric(dataset.Sentenced)
	Dismissed Metric = Metric(dataset.Dismissed)
	Filed     Metric = Metric(dataset.Filed)
	Open      Metric = Metric(dataset.Open)
)

type derivationKind int

const (
	// directLookup returns a table as aggregated.
	directLookup derivationKind = iota
	// setDifference subtracts a status subset from the overall tables.
	setDifference
)

// derivation says how a metric is computed from Aggregates. An empty status
// with directLookup selects the overall tables.
type derivation struct {
	kind   derivationKind
	status dataset.Status
	label  string
}

var metricOrder = []Metric{AllCases, Accepted, Rejected, Filed, Sentenced, Dismissed, Open}

var derivations = map[Metric]derivation{
	AllCases:  {kind: directLookup, label: "All Cases Received"},
	Accepted:  {kind: setDifference, status: dataset.Rejected, label: "Accepted Cases"},
	Rejected:  {kind: directLookup, status: dataset.Rejected, label: "Rejected Cases"},
	Filed:     {kind: directLookup, status: dataset.Filed, label: "Cases Filed by Prosecutor"},
	Sentenced: {kind: directLookup, status: dataset.Sentenced, label: "Sentenced"},
	Dismissed: {kind: directLookup, status: dataset.Dismissed, label: "Dismissed by Court"},
	Open:      {kind: directLookup, status: dataset.Open, label: "Open Case"},
}

// Metrics returns the recognised metrics in display order.
func Metrics() []Metric {
	out := make([]Metric, len(metricOrder))
	copy(out, metricOrder)
	return out
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, bool) {
	_, ok := derivations[Metric(s)]
	return Metric(s), ok
}

// Label returns the display name of m. Unknown names are title-cased with
// underscores turned into spaces.
func (m Metric) Label() string {
	if d, ok := derivations[m]; ok {
		return d.label
	}
	return PrettyName(string(m))
}

var statusLabels = map[dataset.Status]string{
	dataset.Filed:     "Cases Filed by Prosecutor",
	dataset.Dismissed: "Dismissed by Court",
	dataset.Rejected:  "Declined to Prosecute",
	dataset.Open:      "Open Case",
	dataset.Sentenced: "Sentenced",
}

// GroupLabel returns the display name of a group of dimension. Status values
// have long names; "Rejected" reads "Declined to Prosecute" so it is not
// confused with the rejected metric. Other groups are shown as they are.
func GroupLabel(dimension, group string) string {
	if dimension == dataset.StatusField {
		if l, ok := statusLabels[dataset.Status(group)]; ok {
			return l
		}
	}
	return group
}

// PrettyName turns a field name such as county_res into "County Res".
func PrettyName(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Resolved is a metric's series per bucket and its breakdown per dimension
// value. Both are owned by the caller.
type Resolved struct {
	Metric    Metric
	Series    CountTable
	Breakdown GroupedCountTable
}

// Resolve maps metric onto the tables in a. An unrecognised metric or a
// missing status table resolves to empty tables.
func Resolve(metric Metric, a *Aggregates) Resolved {
	res := Resolved{
		Metric:    metric,
		Series:    make(CountTable),
		Breakdown: make(GroupedCountTable),
	}
	d, ok := derivations[metric]
	if !ok || a == nil {
		return res
	}

	switch d.kind {
	case directLookup:
		if d.status == "" {
			res.Series = a.Overall.clone()
			res.Breakdown = a.ByDimension.clone()
			return res
		}
		if t, ok := a.ByStatus[d.status]; ok {
			res.Series = t.clone()
		}
		if g, ok := a.ByStatusByDimension[d.status]; ok {
			res.Breakdown = g.clone()
		}

	case setDifference:
		sub := a.ByStatus[d.status]
		for k, v := range a.Overall {
			res.Series[k] = clampedDiff(v, sub[k])
		}
		subGroups := a.ByStatusByDimension[d.status]
		for g, t := range a.ByDimension {
			out := make(CountTable, len(t))
			for k, v := range t {
				out[k] = clampedDiff(v, subGroups[g][k])
			}
			res.Breakdown[g] = out
		}
	}
	return res
}

// clampedDiff returns a-b, floored at zero. b only exceeds a when status data
// overlaps, which a consistent dataset never does.
func clampedDiff(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}
