package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/casedash/dataset"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func rec(id string, status dataset.Status, date time.Time, fields map[string]string) dataset.Record {
	return dataset.NewRecord(id, status, date, fields, dataset.Delta{}, dataset.Delta{})
}

func keys(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Key
	}
	return out
}

func TestKeyOf(t *testing.T) {
	tests := []struct {
		year, month int
		g           Granularity
		want        string
		ok          bool
	}{
		{2024, 3, Monthly, "2024-3", true},
		{2024, 12, Last12, "2024-12", true},
		{2024, 4, Quarterly, "2024-Q2", true},
		{2024, 3, Quarterly, "2024-Q1", true},
		{2024, 12, Quarterly, "2024-Q4", true},
		{2024, 7, Annual, "2024", true},
		{2024, 0, Monthly, "", false},
		{2024, 13, Annual, "", false},
		{2024, 5, Granularity("weekly"), "", false},
	}
	for _, tt := range tests {
		got, ok := KeyOf(tt.year, tt.month, tt.g)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KeyOf(%d, %d, %q) = %q, %v, want %q, %v", tt.year, tt.month, tt.g, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	for _, g := range Granularities {
		got, ok := ParseGranularity(string(g))
		assert.True(t, ok)
		assert.Equal(t, g, got)
	}
	_, ok := ParseGranularity("weekly")
	assert.False(t, ok)
}

func TestPlanLast12(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec("1", dataset.Filed, day(2023, 6, 1), nil),
		rec("2", dataset.Filed, day(2024, 3, 14), nil),
		rec("3", dataset.Filed, time.Time{}, nil),
	})

	buckets := Plan(ds, Last12)
	require.Len(t, buckets, 12)
	assert.Equal(t, []string{
		"2023-4", "2023-5", "2023-6", "2023-7", "2023-8", "2023-9",
		"2023-10", "2023-11", "2023-12", "2024-1", "2024-2", "2024-3",
	}, keys(buckets))
	assert.Equal(t, "Apr '23", buckets[0].Label)
	assert.Equal(t, "Mar '24", buckets[11].Label)

	for i := 1; i < len(buckets); i++ {
		prev := buckets[i-1].Year*12 + buckets[i-1].Month
		cur := buckets[i].Year*12 + buckets[i].Month
		assert.Equal(t, prev+1, cur, "buckets must be consecutive months")
	}
}

func TestPlanLast12EndingInDecember(t *testing.T) {
	ds := dataset.New([]dataset.Record{rec("1", dataset.Open, day(2022, 12, 31), nil)})
	buckets := Plan(ds, Last12)
	require.Len(t, buckets, 12)
	assert.Equal(t, "2022-1", buckets[0].Key)
	assert.Equal(t, "2022-12", buckets[11].Key)
}

func TestPlanLast12EndingInJanuary(t *testing.T) {
	ds := dataset.New([]dataset.Record{rec("1", dataset.Open, day(2025, 1, 2), nil)})
	buckets := Plan(ds, Last12)
	require.Len(t, buckets, 12)
	assert.Equal(t, "2024-2", buckets[0].Key)
	assert.Equal(t, "2025-1", buckets[11].Key)
}

func TestPlanCalendarCoverage(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec("1", dataset.Filed, day(2024, 2, 1), nil),
		rec("2", dataset.Filed, day(2022, 11, 1), nil),
	})

	monthly := Plan(ds, Monthly)
	require.Len(t, monthly, 24)
	assert.Equal(t, "2022-1", monthly[0].Key)
	assert.Equal(t, "Jan '22", monthly[0].Label)
	assert.Equal(t, "2024-12", monthly[23].Key)

	quarterly := Plan(ds, Quarterly)
	assert.Equal(t, []string{
		"2022-Q1", "2022-Q2", "2022-Q3", "2022-Q4",
		"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4",
	}, keys(quarterly))
	assert.Equal(t, "Q3 '22", quarterly[2].Label)

	annual := Plan(ds, Annual)
	assert.Equal(t, []string{"2022", "2024"}, keys(annual))
	assert.Equal(t, "2024", annual[1].Label)
}

func TestPlanKeysUniqueAndShared(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec("1", dataset.Filed, day(2023, 1, 5), nil),
		rec("2", dataset.Rejected, day(2023, 8, 5), nil),
		rec("3", dataset.Sentenced, day(2024, 5, 20), nil),
	})
	for _, g := range Granularities {
		buckets := Plan(ds, g)
		seen := make(map[string]bool)
		for _, b := range buckets {
			assert.False(t, seen[b.Key], "duplicate key %s under %s", b.Key, g)
			seen[b.Key] = true
		}

		// Every aggregated key must be one the planner produced.
		agg := Aggregate(ds, g, "status")
		for k := range agg.Overall {
			if g == Last12 && !seen[k] {
				continue // records older than the window
			}
			assert.True(t, seen[k], "aggregated key %s not planned under %s", k, g)
		}
	}
}

func TestPlanEmpty(t *testing.T) {
	ds := dataset.New(nil)
	for _, g := range Granularities {
		assert.Empty(t, Plan(ds, g), g)
	}
	onlyBadDates := dataset.New([]dataset.Record{rec("1", dataset.Filed, time.Time{}, nil)})
	assert.Empty(t, Plan(onlyBadDates, Last12))
	assert.Empty(t, Plan(onlyBadDates, Monthly))

	full := dataset.New([]dataset.Record{rec("1", dataset.Filed, day(2024, 1, 1), nil)})
	assert.Empty(t, Plan(full, Granularity("weekly")))
}
