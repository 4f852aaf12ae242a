package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func caseRecord(id string, status dataset.Status, date time.Time, county string, toFile float64) dataset.Record {
	return dataset.NewRecord(id, status, date,
		map[string]string{"county_res": county, "gender": "F"},
		dataset.Days(toFile), dataset.Delta{})
}

// fixture holds five dated cases over two months of 2024 and one undated
// case.
func fixture() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		caseRecord("1", dataset.Filed, day(2024, 1, 5), "Ada", 10),
		caseRecord("2", dataset.Rejected, day(2024, 1, 9), "Ada", 0),
		caseRecord("3", dataset.Filed, day(2024, 2, 1), "Canyon", 20),
		caseRecord("4", dataset.Sentenced, day(2024, 2, 14), "Ada", 30),
		caseRecord("5", dataset.Rejected, day(2024, 2, 20), "", 5),
		caseRecord("6", dataset.Open, time.Time{}, "Ada", 1),
	})
}

func TestDefaultDimension(t *testing.T) {
	assert.Equal(t, "status", defaultDimension(fixture()))
	assert.Equal(t, "", defaultDimension(dataset.New(nil)))
}

func TestParseQuery(t *testing.T) {
	ds := fixture()

	q, err := parseQuery(ds, "monthly", "accepted", "")
	require.NoError(t, err)
	assert.Equal(t, engine.Query{Granularity: engine.Monthly, Metric: engine.Accepted, Dimension: "status"}, q)

	q, err = parseQuery(ds, "annual", "all_cases", "county_res")
	require.NoError(t, err)
	assert.Equal(t, "county_res", q.Dimension)

	tests := []struct {
		rng, metric, dimension string
		want                   string
	}{
		{"weekly", "all_cases", "", "invalid --range"},
		{"monthly", "filings", "", "invalid --metric"},
		{"monthly", "all_cases", "case_id", "invalid --dimension"},
		{"monthly", "all_cases", "offense", "invalid --dimension"},
	}
	for _, tt := range tests {
		_, err := parseQuery(ds, tt.rng, tt.metric, tt.dimension)
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.want)
		}
	}
}

func TestLenientQueryFallsBack(t *testing.T) {
	ds := fixture()
	assert.Equal(t,
		engine.Query{Granularity: engine.Last12, Metric: engine.AllCases, Dimension: "status"},
		lenientQuery(ds, "hourly", "nope", "nope"))
	assert.Equal(t,
		engine.Query{Granularity: engine.Quarterly, Metric: engine.Rejected, Dimension: "gender"},
		lenientQuery(ds, "quarterly", "rejected", "gender"))
}
