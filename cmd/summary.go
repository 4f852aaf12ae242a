package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
)

// Summary implements the "summary" subcommand.
func Summary(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	rng := fs.String("range", defaultRange, "time range: "+strings.Join(granularityNames(), ", "))
	metric := fs.String("metric", defaultMetric, "metric to display")
	dimension := fs.String("dimension", "", "field to break the metric down by (default status)")
	series := fs.String("series", "", "draw one series as a line chart (ALL or a group name)")
	pie := fs.Bool("pie", false, "show the breakdown at the latest bucket instead of trends")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: casedash summary [dir] [flags]

Show case counts over time as a sparkline table.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Metrics: %s

Examples:
  casedash summary ./data --range monthly --dimension offense
  casedash summary --metric accepted --dimension gender --pie
  casedash summary --range annual --series ALL
`, strings.Join(metricNames(), ", "))
	}
	fs.Parse(reorderArgs(args))
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}

	ds := loadDataset(cfg, *dir)
	q, err := parseQuery(ds, *rng, *metric, *dimension)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	view := engine.Run(ds, q)
	if len(view.Buckets) == 0 {
		fmt.Fprintf(os.Stderr, "no dated cases in %s\n", *dir)
		os.Exit(1)
	}

	title := view.Title + " (" + q.Granularity.Label() + ")"
	switch {
	case *pie:
		renderBreakdown(title, view)
	case *series != "":
		s, ok := findSeries(view, *series)
		if !ok {
			fmt.Fprintf(os.Stderr, "no series %q; available: %s\n", *series, strings.Join(seriesNames(view), ", "))
			os.Exit(1)
		}
		renderChart(os.Stdout, title+": "+s.Name, intPoints(bucketLabels(view.Buckets), s.Values()))
	default:
		renderTable(title, view)
	}
}

func bucketLabels(buckets []engine.Bucket) []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	return labels
}

func seriesNames(v engine.View) []string {
	names := make([]string, len(v.Series))
	for i, s := range v.Series {
		names[i] = s.Name
	}
	return names
}

func findSeries(v engine.View, name string) (engine.Series, bool) {
	for _, s := range v.Series {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return engine.Series{}, false
}

// renderTable prints one sparkline row per series with ALL moved to the
// bottom as a total.
func renderTable(title string, v engine.View) {
	maxName := 10
	for _, s := range v.Series {
		maxName = max(maxName, len([]rune(engine.GroupLabel(v.Query.Dimension, s.Name))))
	}

	nPeriods := len(v.Buckets)
	fmt.Println(title)
	fmt.Printf("Trend: %s to %s (%d periods)\n\n", v.Buckets[0].Label, v.Buckets[nPeriods-1].Label, nPeriods)

	rowFmt := fmt.Sprintf("%%-%ds  %%10s   %%s", maxName)
	rule := strings.Repeat("─", maxName+2+10+3+nPeriods)
	fmt.Printf(rowFmt+"\n", columnHeader(v.Query.Dimension), "Latest", "Trend")
	fmt.Println(rule)

	labels := bucketLabels(v.Buckets)
	for _, s := range v.Series[1:] {
		vals := pointValues(intPoints(labels, s.Values()))
		fmt.Printf(rowFmt+"\n", engine.GroupLabel(v.Query.Dimension, s.Name), formatNum(lastNonNaN(vals)), sparkline(vals))
	}
	total := v.Series[0]
	vals := pointValues(intPoints(labels, total.Values()))
	fmt.Println(rule)
	fmt.Printf(rowFmt+"\n", total.Name, formatNum(lastNonNaN(vals)), sparkline(vals))
}

// renderBreakdown prints the group shares at the latest bucket as a bar list.
func renderBreakdown(title string, v engine.View) {
	slices, b, _ := v.BreakdownAt(-1)
	fmt.Printf("%s, %s\n\n", title, b.Label)
	if len(slices) == 0 {
		fmt.Println("(no data)")
		return
	}

	maxName := 10
	for _, s := range slices {
		maxName = max(maxName, len([]rune(engine.GroupLabel(v.Query.Dimension, s.Group))))
	}
	rowFmt := fmt.Sprintf("%%-%ds  %%8s  %%6.1f%%%%  %%s\n", maxName)
	for _, s := range slices {
		bar := strings.Repeat("█", int(s.Share/2+0.5))
		fmt.Printf(rowFmt, engine.GroupLabel(v.Query.Dimension, s.Group), formatInt(int64(s.Value)), s.Share, bar)
	}
}

// columnHeader names a dimension column, or "Entity" when there is none.
func columnHeader(dimension string) string {
	if dimension == "" {
		return "Entity"
	}
	return engine.PrettyName(dimension)
}
