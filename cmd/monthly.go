package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
)

// Monthly implements the "monthly" subcommand.
func Monthly(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("monthly", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	chart := fs.String("chart", "", "draw the monthly mean of one field: "+strings.Join(numericFieldNames(), ", "))

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: casedash monthly [dir] [flags]

Show mean and median processing days per calendar month, pooled across years.

Flags:
`)
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(args))
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}

	ds := loadDataset(cfg, *dir)

	if *chart != "" {
		field, ok := parseNumericField(*chart)
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid --chart %q; valid options: %s\n", *chart, strings.Join(numericFieldNames(), ", "))
			os.Exit(1)
		}
		res := engine.MonthlyStats(ds, field)
		labels := engine.MonthLabels(res)
		renderChart(os.Stdout, "Mean "+field.Label()+" by Month", optionalPoints(labels[:], res.Mean[:]))
		return
	}

	renderMonthly(ds)
}

func numericFieldNames() []string {
	names := make([]string, len(engine.NumericFields))
	for i, f := range engine.NumericFields {
		names[i] = string(f)
	}
	return names
}

func parseNumericField(s string) (engine.NumericField, bool) {
	for _, f := range engine.NumericFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// renderMonthly prints one table per numeric field followed by the latest
// month's values.
func renderMonthly(ds *dataset.Dataset) {
	for i, field := range engine.NumericFields {
		if i > 0 {
			fmt.Println()
		}
		res := engine.MonthlyStats(ds, field)
		labels := engine.MonthLabels(res)

		fmt.Println(field.Label())
		fmt.Printf("%-10s  %14s  %14s  %6s\n", "Month", "Mean", "Median", "Cases")
		fmt.Println(strings.Repeat("─", 10+2+14+2+14+2+6))
		for m := range 12 {
			fmt.Printf("%-10s  %14s  %14s  %6d\n", labels[m], formatDays(res.Mean[m]), formatDays(res.Median[m]), res.Count[m])
		}
		fmt.Printf("Latest mean: %s, latest median: %s\n", formatDays(engine.Last(res.Mean)), formatDays(engine.Last(res.Median)))
	}
}
