package cmd

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zalepa/casedash/engine"
)

func annualCountyView() engine.View {
	return engine.Run(fixture(), engine.Query{
		Granularity: engine.Annual,
		Metric:      engine.AllCases,
		Dimension:   "county_res",
	})
}

func TestSeriesTable(t *testing.T) {
	rows := seriesTable(annualCountyView())
	assert.Equal(t, [][]string{
		{"County Res", "2024"},
		{"Ada", "3"},
		{"Canyon", "1"},
		{"Unknown", "1"},
		{"ALL", "5"},
	}, rows)
}

func TestSeriesTableEmptyView(t *testing.T) {
	rows := seriesTable(engine.View{Query: engine.Query{Dimension: "gender"}})
	assert.Equal(t, [][]string{{"Gender"}}, rows)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	want := seriesTable(annualCountyView())
	require.NoError(t, writeCSV(path, want))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteSeriesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeSeriesJSON(path, annualCountyView()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var resp seriesResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "All Cases Received by County Res", resp.Title)
	assert.Equal(t, queryParams{Range: "annual", Metric: "all_cases", Dimension: "county_res"}, resp.Query)
	assert.Equal(t, []string{"2024"}, resp.Buckets)
	require.Len(t, resp.Series, 4)
	assert.Equal(t, seriesData{Name: "ALL", Label: "ALL", Values: []int{5}}, resp.Series[0])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, writeXLSX(path, fixture(), annualCountyView()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{seriesSheet, monthlySheet}, f.GetSheetList())

	rows, err := f.GetRows(seriesSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"County Res", "2024"}, rows[0])
	assert.Equal(t, []string{"ALL", "5"}, rows[len(rows)-1])

	monthly, err := f.GetRows(monthlySheet)
	require.NoError(t, err)
	// header plus twelve months per numeric field
	assert.Len(t, monthly, 1+12*len(engine.NumericFields))
	assert.Equal(t, []string{"Field", "Month", "Mean", "Median", "Cases"}, monthly[0])
	jan := monthly[1]
	assert.Equal(t, "Days to File", jan[0])
	assert.Equal(t, "Jan '24", jan[1])
	assert.Equal(t, "10", jan[2])
	assert.Equal(t, "1", jan[4])
}
