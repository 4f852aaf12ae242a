package cmd

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
)

// Export implements the "export" subcommand: write the series of one view as
// CSV, XLSX or JSON, chosen by the output file extension.
func Export(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	out := fs.String("o", "casedash.csv", "output file (.csv, .xlsx or .json)")
	rng := fs.String("range", defaultRange, "time range: "+strings.Join(granularityNames(), ", "))
	metric := fs.String("metric", defaultMetric, "metric to export")
	dimension := fs.String("dimension", "", "field to break the metric down by (default status)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: casedash export [dir] [-o out.csv|out.xlsx|out.json] [flags]

Write one row per series and one column per bucket. XLSX output adds a sheet
with the monthly processing-day statistics.

Flags:
`)
		fs.PrintDefaults()
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

	switch ext := strings.ToLower(filepath.Ext(*out)); ext {
	case ".csv":
		err = writeCSV(*out, seriesTable(view))
	case ".xlsx":
		err = writeXLSX(*out, ds, view)
	case ".json":
		err = writeSeriesJSON(*out, view)
	default:
		fatal("unsupported output extension %q; use .csv, .xlsx or .json", ext)
	}
	if err != nil {
		fatal("writing %s: %v", *out, err)
	}
	fmt.Printf("wrote %s (%d series, %d buckets)\n", *out, len(view.Series), len(view.Buckets))
}

// seriesTable lays out a view with the group series first and ALL last,
// matching the terminal table.
func seriesTable(v engine.View) [][]string {
	header := append([]string{columnHeader(v.Query.Dimension)}, bucketLabels(v.Buckets)...)
	rows := [][]string{header}
	if len(v.Series) == 0 {
		return rows
	}
	ordered := append(append([]engine.Series{}, v.Series[1:]...), v.Series[0])
	for _, s := range ordered {
		row := []string{s.Name}
		for _, n := range s.Values() {
			row = append(row, strconv.Itoa(n))
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeSeriesJSON(path string, v engine.View) error {
	resp := seriesResponse{
		Query:   paramsOf(v.Query),
		Title:   v.Title,
		Buckets: bucketLabels(v.Buckets),
	}
	for _, s := range v.Series {
		resp.Series = append(resp.Series, seriesData{Name: s.Name, Label: engine.GroupLabel(v.Query.Dimension, s.Name), Values: s.Values()})
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

const (
	seriesSheet  = "Series"
	monthlySheet = "Monthly"
)

// writeXLSX writes the series table with numeric cells plus the monthly
// statistics. Months without data are left blank.
func writeXLSX(path string, ds *dataset.Dataset, v engine.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", seriesSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	table := seriesTable(v)
	for i, row := range table {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
			if i > 0 && j > 0 {
				n, _ := strconv.Atoi(c)
				cells[j] = n
			}
		}
		if err := setRow(f, seriesSheet, i+1, cells); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(seriesSheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(seriesSheet, "A", "A", 24); err != nil {
		return err
	}

	if _, err := f.NewSheet(monthlySheet); err != nil {
		return err
	}
	header := []any{"Field", "Month", "Mean", "Median", "Cases"}
	if err := setRow(f, monthlySheet, 1, header); err != nil {
		return err
	}
	row := 2
	for _, field := range engine.NumericFields {
		res := engine.MonthlyStats(ds, field)
		labels := engine.MonthLabels(res)
		for m := range 12 {
			cells := []any{field.Label(), labels[m], nil, nil, res.Count[m]}
			if res.Mean[m] != nil {
				cells[2] = *res.Mean[m]
			}
			if res.Median[m] != nil {
				cells[3] = *res.Median[m]
			}
			if err := setRow(f, monthlySheet, row, cells); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetRowStyle(monthlySheet, 1, 1, bold); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
