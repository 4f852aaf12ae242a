package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
	"github.com/zalepa/casedash/internal/logging"
	"github.com/zalepa/casedash/loader"
)

const (
	defaultRange  = string(engine.Last12)
	defaultMetric = string(engine.AllCases)
)

// loadDataset loads every consecutive year of case workbooks in dir, exiting
// on failure the way the other commands report fatal errors.
func loadDataset(cfg *config.Config, dir string) *dataset.Dataset {
	ds, st, err := loader.Load(dir, cfg.ThisYear, cfg.MinYear, logging.Default)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading data: %v\n", err)
		os.Exit(1)
	}
	if ds.Len() == 0 {
		fmt.Fprintf(os.Stderr, "no case workbooks found in %s\n", dir)
		os.Exit(1)
	}
	logging.Default.Infof("loaded %d cases from %d year(s), %d rows skipped", st.Cases, len(st.Years), st.Skipped)
	return ds
}

// defaultDimension prefers status and otherwise the first dimension.
func defaultDimension(ds *dataset.Dataset) string {
	if ds.HasDimension(dataset.StatusField) {
		return dataset.StatusField
	}
	if dims := ds.Dimensions(); len(dims) > 0 {
		return dims[0]
	}
	return ""
}

func granularityNames() []string {
	names := make([]string, len(engine.Granularities))
	for i, g := range engine.Granularities {
		names[i] = string(g)
	}
	return names
}

func metricNames() []string {
	var names []string
	for _, m := range engine.Metrics() {
		names = append(names, string(m))
	}
	return names
}

// parseQuery validates command-line selections against ds. An empty
// dimension selects the default one.
func parseQuery(ds *dataset.Dataset, rng, metric, dimension string) (engine.Query, error) {
	g, ok := engine.ParseGranularity(rng)
	if !ok {
		return engine.Query{}, fmt.Errorf("invalid --range %q; valid options: %s", rng, strings.Join(granularityNames(), ", "))
	}
	m, ok := engine.ParseMetric(metric)
	if !ok {
		return engine.Query{}, fmt.Errorf("invalid --metric %q; valid options: %s", metric, strings.Join(metricNames(), ", "))
	}
	if dimension == "" {
		dimension = defaultDimension(ds)
	}
	if !ds.HasDimension(dimension) {
		return engine.Query{}, fmt.Errorf("invalid --dimension %q; valid options: %s", dimension, strings.Join(ds.Dimensions(), ", "))
	}
	return engine.Query{Granularity: g, Metric: m, Dimension: dimension}, nil
}

// lenientQuery is parseQuery for the dashboard: invalid selections fall back
// to defaults instead of failing.
func lenientQuery(ds *dataset.Dataset, rng, metric, dimension string) engine.Query {
	q := engine.Query{
		Granularity: engine.Last12,
		Metric:      engine.AllCases,
		Dimension:   defaultDimension(ds),
	}
	if g, ok := engine.ParseGranularity(rng); ok {
		q.Granularity = g
	}
	if m, ok := engine.ParseMetric(metric); ok {
		q.Metric = m
	}
	if ds.HasDimension(dimension) {
		q.Dimension = dimension
	}
	return q
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
