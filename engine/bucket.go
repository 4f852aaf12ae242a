package engine

import (
	"fmt"
	"strconv"

	"github.com/zalepa/casedash/dataset"
)

// Granularity selects how records are bucketed in time.
type Granularity string

const (
	Last12    Granularity = "last12"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Annual    Granularity = "annual"
)

// Granularities lists the valid granularities in display order.
var Granularities = []Granularity{Last12, Monthly, Quarterly, Annual}

var granularityLabels = map[Granularity]string{
	Last12:    "Last 12 Months",
	Monthly:   "Monthly",
	Quarterly: "Quarterly",
	Annual:    "Annual",
}

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, bool) {
	g := Granularity(s)
	_, ok := granularityLabels[g]
	return g, ok
}

// Label returns the display name of g.
func (g Granularity) Label() string {
	if l, ok := granularityLabels[g]; ok {
		return l
	}
	return string(g)
}

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthName returns the three-letter name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// Bucket is one time slot of a series.
type Bucket struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Year    int    `json:"year"`
	Month   int    `json:"month,omitempty"`
	Quarter int    `json:"quarter,omitempty"`
}

// KeyOf derives the bucket key for a year and month (1-12) under g. The
// planner and the aggregator both go through this function; ok is false for
// an unknown granularity or an out-of-range month.
func KeyOf(year, month int, g Granularity) (key string, ok bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	switch g {
	case Monthly, Last12:
		return fmt.Sprintf("%d-%d", year, month), true
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", year, (month-1)/3+1), true
	case Annual:
		return strconv.Itoa(year), true
	}
	return "", false
}

// recordKey derives the bucket key of r, failing for records without a date.
func recordKey(r dataset.Record, g Granularity) (string, bool) {
	if !r.HasDate() {
		return "", false
	}
	return KeyOf(r.Year(), r.Month(), g)
}

// shortYear renders 2024 as '24.
func shortYear(y int) string {
	return fmt.Sprintf("'%02d", y%100)
}

func monthBucket(year, month int) Bucket {
	key, _ := KeyOf(year, month, Monthly)
	return Bucket{
		Key:   key,
		Label: MonthName(month) + " " + shortYear(year),
		Year:  year,
		Month: month,
	}
}

// Plan returns the ordered buckets for ds under g. An empty dataset or an
// unknown granularity yields no buckets.
func Plan(ds *dataset.Dataset, g Granularity) []Bucket {
	switch g {
	case Last12:
		latest, ok := ds.Latest()
		if !ok {
			return nil
		}
		return lastTwelve(latest.Year(), latest.Month())

	case Monthly:
		var buckets []Bucket
		for _, y := range ds.Years() {
			for m := 1; m <= 12; m++ {
				buckets = append(buckets, monthBucket(y, m))
			}
		}
		return buckets

	case Quarterly:
		var buckets []Bucket
		for _, y := range ds.Years() {
			for q := 1; q <= 4; q++ {
				key, _ := KeyOf(y, (q-1)*3+1, Quarterly)
				buckets = append(buckets, Bucket{
					Key:     key,
					Label:   fmt.Sprintf("Q%d %s", q, shortYear(y)),
					Year:    y,
					Quarter: q,
				})
			}
		}
		return buckets

	case Annual:
		var buckets []Bucket
		for _, y := range ds.Years() {
			key, _ := KeyOf(y, 1, Annual)
			buckets = append(buckets, Bucket{Key: key, Label: key, Year: y})
		}
		return buckets
	}
	return nil
}

// lastTwelve returns the 12 monthly buckets ending at year/month, oldest
// first.
func lastTwelve(year, month int) []Bucket {
	buckets := make([]Bucket, 0, 12)
	end := month - 1 // zero-based
	for i := 11; i >= 0; i-- {
		offset := end - i
		y := year + floorDiv(offset, 12)
		m := (offset%12+12)%12 + 1
		buckets = append(buckets, monthBucket(y, m))
	}
	return buckets
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
