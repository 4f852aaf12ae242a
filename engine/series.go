package engine

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/zalepa/casedash/dataset"
)

// AllSeries is the name of the series carrying the metric total.
const AllSeries = "ALL"

// Point is one labelled value of a series.
type Point struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Series is a named, bucket-aligned list of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Values returns the point values in bucket order.
func (s Series) Values() []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Latest returns the value of the last point, or 0 for an empty series.
func (s Series) Latest() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value
}

func align(name string, buckets []Bucket, t CountTable) Series {
	s := Series{Name: name, Points: make([]Point, len(buckets))}
	for i, b := range buckets {
		s.Points[i] = Point{Key: b.Key, Label: b.Label, Value: t[b.Key]}
	}
	return s
}

// Groups returns the breakdown's group names, sorted.
func (r Resolved) Groups() []string {
	names := make([]string, 0, len(r.Breakdown))
	for g := range r.Breakdown {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// BuildSeries aligns the resolved tables to buckets: the ALL series first,
// then one series per group in name order. Buckets with no count read 0.
func BuildSeries(buckets []Bucket, r Resolved) []Series {
	out := []Series{align(AllSeries, buckets, r.Series)}
	for _, g := range r.Groups() {
		out = append(out, align(g, buckets, r.Breakdown[g]))
	}
	return out
}

// Slice is one group's share of a bucket.
type Slice struct {
	Group string  `json:"group"`
	Value int     `json:"value"`
	Share float64 `json:"share"`
}

// Breakdown returns the non-zero group counts at one bucket key, in name
// order, with each group's percentage of their sum.
func Breakdown(r Resolved, key string) []Slice {
	var slices []Slice
	var counts stats.Float64Data
	for _, g := range r.Groups() {
		v := r.Breakdown[g][key]
		if v == 0 {
			continue
		}
		slices = append(slices, Slice{Group: g, Value: v})
		counts = append(counts, float64(v))
	}
	total, err := stats.Sum(counts)
	if err != nil || total == 0 {
		return slices
	}
	for i := range slices {
		share, _ := stats.Round(float64(slices[i].Value)/total*100, 1)
		slices[i].Share = share
	}
	return slices
}

// MonthLabels labels the twelve entries of a MonthlyResult, annotating each
// month with the latest year that had records in it.
func MonthLabels(res MonthlyResult) [12]string {
	var labels [12]string
	for i := range labels {
		labels[i] = MonthName(i + 1)
		if y := res.LatestYear[i]; y != 0 {
			labels[i] += " " + shortYear(y)
		}
	}
	return labels
}

// Query selects what a view shows.
type Query struct {
	Granularity Granularity
	Metric      Metric
	Dimension   string
}

// View is everything a presentation adapter needs for one query.
type View struct {
	Query    Query    `json:"query"`
	Title    string   `json:"title"`
	Buckets  []Bucket `json:"buckets"`
	Series   []Series `json:"series"`
	Resolved Resolved `json:"-"`
}

// Run plans, aggregates and resolves q against ds.
func Run(ds *dataset.Dataset, q Query) View {
	buckets := Plan(ds, q.Granularity)
	agg := Aggregate(ds, q.Granularity, q.Dimension)
	res := Resolve(q.Metric, agg)
	return View{
		Query:    q,
		Title:    q.Metric.Label() + " by " + PrettyName(q.Dimension),
		Buckets:  buckets,
		Series:   BuildSeries(buckets, res),
		Resolved: res,
	}
}

// BreakdownAt returns the breakdown at bucket index i, or at the last
// bucket when i is out of range. The second result is the bucket used.
func (v View) BreakdownAt(i int) ([]Slice, Bucket, bool) {
	if len(v.Buckets) == 0 {
		return nil, Bucket{}, false
	}
	if i < 0 || i >= len(v.Buckets) {
		i = len(v.Buckets) - 1
	}
	b := v.Buckets[i]
	return Breakdown(v.Resolved, b.Key), b, true
}
