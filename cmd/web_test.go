package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/victims"
)

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestWebIndex(t *testing.T) {
	rec := get(t, newRouter(fixture(), nil), "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/series")
}

// rawField matches a workbook-derived field interpolated into markup without
// going through esc.
var rawField = regexp.MustCompile(`\$\{(?:[a-z]\.(?:name|group|label|value|detail|description|letter)|b|l|m|labels\[i\])\}`)

func TestWebIndexEscapesWorkbookValues(t *testing.T) {
	const hostile = "<img src=x onerror=alert(1)>"
	ds := dataset.New([]dataset.Record{
		caseRecord("1", dataset.Filed, day(2024, 1, 5), hostile, 10),
		caseRecord("2", dataset.Filed, day(2024, 1, 9), "Ada", 3),
		caseRecord("3", dataset.Open, time.Time{}, hostile, 1),
	})
	h := newRouter(ds, nil)

	var resp seriesResponse
	get(t, h, "/api/series?range=monthly&dimension=county_res", &resp)
	assert.Contains(t, seriesNamesOf(resp.Series), hostile, "API returns the value as data")

	page := get(t, h, "/", nil).Body.String()
	assert.Contains(t, page, "const esc = ")
	for _, want := range []string{"${esc(s.label)}", "${esc(b)}", "${esc(o.label)}", "${esc(s.detail)}"} {
		assert.Contains(t, page, want)
	}
	assert.Empty(t, rawField.FindAllString(page, -1), "unescaped interpolation")
}

func seriesNamesOf(series []seriesData) []string {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
	}
	return names
}

func TestWebMetadata(t *testing.T) {
	var meta metadata
	rec := get(t, newRouter(fixture(), nil), "/api/metadata", &meta)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, meta.Cases)
	assert.Equal(t, []int{2024}, meta.Years)
	assert.Equal(t, queryParams{Range: "last12", Metric: "all_cases", Dimension: "status"}, meta.Defaults)
	assert.Len(t, meta.Ranges, 4)
	assert.Equal(t, labelValue{Value: "county_res", Label: "County Res"}, meta.Dimensions[0])
	assert.Equal(t, labelValue{Value: "accepted", Label: "Accepted Cases"}, meta.Metrics[1])
}

func TestWebMetadataEmptyDataset(t *testing.T) {
	var meta metadata
	get(t, newRouter(dataset.New(nil), nil), "/api/metadata", &meta)
	assert.Empty(t, meta.Years)
	assert.Empty(t, meta.Dimensions)
	assert.Equal(t, "", meta.Defaults.Dimension)
}

func TestWebSeries(t *testing.T) {
	var resp seriesResponse
	rec := get(t, newRouter(fixture(), nil), "/api/series?range=annual&metric=accepted&dimension=county_res", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Accepted Cases by County Res", resp.Title)
	assert.Equal(t, []string{"2024"}, resp.Buckets)
	assert.Equal(t, []seriesData{
		{Name: "ALL", Label: "ALL", Values: []int{3}},
		{Name: "Ada", Label: "Ada", Values: []int{2}},
		{Name: "Canyon", Label: "Canyon", Values: []int{1}},
		{Name: "Unknown", Label: "Unknown", Values: []int{0}},
	}, resp.Series)
}

func TestWebStatusLabels(t *testing.T) {
	h := newRouter(fixture(), nil)

	var series seriesResponse
	get(t, h, "/api/series?range=annual&dimension=status", &series)
	labels := map[string]string{}
	for _, s := range series.Series {
		labels[s.Name] = s.Label
	}
	assert.Equal(t, "Declined to Prosecute", labels["Rejected"])
	assert.Equal(t, "Cases Filed by Prosecutor", labels["Filed"])

	var bd breakdownResponse
	get(t, h, "/api/breakdown?range=annual&dimension=status", &bd)
	require.NotEmpty(t, bd.Slices)
	for _, s := range bd.Slices {
		if s.Group == "Rejected" {
			assert.Equal(t, "Declined to Prosecute", s.Label)
		}
	}
}

func TestWebSeriesFallsBackToDefaults(t *testing.T) {
	var resp seriesResponse
	get(t, newRouter(fixture(), nil), "/api/series?range=weekly&metric=bogus&dimension=case_id", &resp)
	assert.Equal(t, queryParams{Range: "last12", Metric: "all_cases", Dimension: "status"}, resp.Query)
	assert.Len(t, resp.Buckets, 12)
	assert.Equal(t, "Feb '24", resp.Buckets[11])
}

func TestWebBreakdown(t *testing.T) {
	h := newRouter(fixture(), nil)

	var resp breakdownResponse
	get(t, h, "/api/breakdown?range=monthly&dimension=county_res", &resp)
	require.NotNil(t, resp.Bucket)
	assert.Equal(t, "2024-12", resp.Bucket.Key)
	assert.Empty(t, resp.Slices)

	get(t, h, "/api/breakdown?range=monthly&dimension=county_res&at=1", &resp)
	require.NotNil(t, resp.Bucket)
	assert.Equal(t, "Feb '24", resp.Bucket.Label)
	require.Len(t, resp.Slices, 3)
	assert.Equal(t, "Ada", resp.Slices[0].Group)
	assert.InDelta(t, 33.3, resp.Slices[0].Share, 0.001)
}

func TestWebBreakdownEmptyDataset(t *testing.T) {
	var resp breakdownResponse
	get(t, newRouter(dataset.New(nil), nil), "/api/breakdown", &resp)
	assert.Nil(t, resp.Bucket)
	assert.NotNil(t, resp.Slices)
	assert.Empty(t, resp.Slices)
}

func TestWebMonthly(t *testing.T) {
	var resp []monthlyData
	get(t, newRouter(fixture(), nil), "/api/monthly", &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "days_to_file", resp[0].Field)
	assert.Equal(t, "Feb '24", resp[0].Months[1])
	require.NotNil(t, resp[0].Mean[1])
	assert.InDelta(t, 55.0/3, *resp[0].Mean[1], 1e-9)
	assert.Nil(t, resp[0].Mean[2])
	assert.Nil(t, resp[1].Median[0])
}

func TestWebVictims(t *testing.T) {
	rec := get(t, newRouter(fixture(), nil), "/api/victims", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sum := victims.Summarize(2024, []victims.Case{{CaseID: 1, Records: 2, Services: []string{"A"}}})
	var got victims.Summary
	rec = get(t, newRouter(fixture(), &sum), "/api/victims", &got)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, 2, got.ServiceRecords)
	assert.Equal(t, 100.0, got.Services[0].Percent)
}
