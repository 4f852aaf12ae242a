package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/casedash/dataset"
)

// scenario is the three-record example: two January records (one rejected)
// and one February record, all in county X.
func scenario() *dataset.Dataset {
	x := map[string]string{"county": "X"}
	return dataset.New([]dataset.Record{
		rec("1", dataset.Filed, day(2024, 1, 10), x),
		rec("2", dataset.Rejected, day(2024, 1, 20), x),
		rec("3", dataset.Filed, day(2024, 2, 3), x),
	})
}

func TestAggregateScenario(t *testing.T) {
	a := Aggregate(scenario(), Monthly, "county")

	assert.Equal(t, CountTable{"2024-1": 2, "2024-2": 1}, a.Overall)
	assert.Equal(t, CountTable{"2024-1": 1}, a.ByStatus[dataset.Rejected])
	assert.Equal(t, CountTable{"2024-1": 1, "2024-2": 1}, a.ByStatus[dataset.Filed])
	assert.Equal(t, GroupedCountTable{"X": {"2024-1": 2, "2024-2": 1}}, a.ByDimension)
	assert.Equal(t, GroupedCountTable{"X": {"2024-1": 1}}, a.ByStatusByDimension[dataset.Rejected])
}

func mixed() *dataset.Dataset {
	return dataset.New([]dataset.Record{
		rec("1", dataset.Filed, day(2023, 1, 10), map[string]string{"county": "A", "gender": "F"}),
		rec("2", dataset.Rejected, day(2023, 2, 10), map[string]string{"county": "B"}),
		rec("3", dataset.Sentenced, day(2023, 4, 1), map[string]string{"county": ""}),
		rec("4", "", day(2023, 4, 2), map[string]string{"county": "A"}),
		rec("5", dataset.Dismissed, day(2024, 7, 7), map[string]string{"county": "B", "gender": "M"}),
		rec("6", dataset.Rejected, day(2024, 7, 8), map[string]string{"county": "A"}),
		rec("7", dataset.Filed, time.Time{}, map[string]string{"county": "A"}),
	})
}

func TestAggregatePartitionInvariant(t *testing.T) {
	ds := mixed()
	for _, g := range Granularities {
		for _, dim := range []string{"county", "gender", "status"} {
			a := Aggregate(ds, g, dim)
			for k, total := range a.Overall {
				sum := 0
				for _, tbl := range a.ByDimension {
					sum += tbl[k]
				}
				assert.Equal(t, total, sum, "partition %s/%s key %s", g, dim, k)

				statusSum := 0
				for _, tbl := range a.ByStatus {
					statusSum += tbl[k]
				}
				assert.LessOrEqual(t, statusSum, total, "status subset %s key %s", g, k)
			}
		}
	}
}

func TestAggregateStatusSumBelowOverallWhenStatusMissing(t *testing.T) {
	a := Aggregate(mixed(), Quarterly, "county")
	assert.Equal(t, 2, a.Overall["2023-Q2"])
	assert.Equal(t, 1, a.ByStatus[dataset.Sentenced]["2023-Q2"])
	_, hasBlank := a.ByStatus[""]
	assert.False(t, hasBlank)
}

func TestAggregateUnknownDimensionValue(t *testing.T) {
	a := Aggregate(mixed(), Annual, "gender")
	assert.Equal(t, 3, a.ByDimension[dataset.Unknown]["2023"])
	assert.Equal(t, 1, a.ByDimension["F"]["2023"])
	assert.Equal(t, 1, a.ByStatusByDimension[dataset.Sentenced][dataset.Unknown]["2023"])

	a = Aggregate(mixed(), Annual, "county")
	assert.Equal(t, 1, a.ByDimension[dataset.Unknown]["2023"], "empty county counted as Unknown")
}

func TestAggregateSkipsInvalidDates(t *testing.T) {
	a := Aggregate(mixed(), Annual, "county")
	assert.Equal(t, 6, a.Overall.Total())
	assert.Equal(t, 1, a.ByStatus[dataset.Filed].Total())
}

func TestAggregateInvalidDimension(t *testing.T) {
	a := Aggregate(mixed(), Annual, "case_id")
	assert.Empty(t, a.ByDimension)
	assert.Empty(t, a.ByStatusByDimension)
	assert.Equal(t, 6, a.Overall.Total())
	assert.Equal(t, 2, a.ByStatus[dataset.Rejected].Total())
}

func TestAggregateUnknownGranularity(t *testing.T) {
	a := Aggregate(mixed(), Granularity("weekly"), "county")
	assert.Empty(t, a.Overall)
	assert.Empty(t, a.ByStatus)
}

func TestAggregateEmpty(t *testing.T) {
	a := Aggregate(dataset.New(nil), Monthly, "county")
	require.NotNil(t, a)
	assert.Empty(t, a.Overall)
	assert.Empty(t, a.ByDimension)
}

func TestAggregateIsIdempotent(t *testing.T) {
	ds := mixed()
	first := Aggregate(ds, Monthly, "county")
	first.Overall["2023-1"] = 99
	second := Aggregate(ds, Monthly, "county")
	assert.Equal(t, 1, second.Overall["2023-1"])
}
