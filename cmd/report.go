package cmd

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch
)

var (
	chartBlue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	chartOrange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Report implements the "report" subcommand.
func Report(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	out := fs.String("o", "casedash-report.pdf", "output PDF file path")
	rng := fs.String("range", defaultRange, "time range: "+strings.Join(granularityNames(), ", "))
	metric := fs.String("metric", defaultMetric, "metric to chart")
	dimension := fs.String("dimension", "", "field to break the metric down by (default status)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: casedash report [dir] [flags]

Write a PDF with a summary table, one chart per series, the latest breakdown
and the monthly processing-day charts.

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
	if len(view.Buckets) == 0 {
		fmt.Fprintf(os.Stderr, "no dated cases in %s\n", *dir)
		os.Exit(1)
	}

	pages, err := writeReportFile(*out, ds, view)
	if err != nil {
		fatal("writing PDF: %v", err)
	}
	fmt.Printf("wrote %s (%d pages)\n", *out, pages)
}

// writeReportFile renders the report to path and re-reads it to confirm the
// page count.
func writeReportFile(path string, ds *dataset.Dataset, view engine.View) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	drawn, err := renderReport(f, ds, view)
	if err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	rf, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reopen pdf: %w", err)
	}
	defer rf.Close()
	pages, err := pdfPageCount(rf)
	if err != nil {
		return 0, err
	}
	if pages != drawn {
		return pages, fmt.Errorf("%s has %d pages, drew %d", path, pages, drawn)
	}
	return pages, nil
}

// pdfPageCount reads a PDF with pdfcpu and returns its page count.
func pdfPageCount(rs io.ReadSeeker) (int, error) {
	ctx, err := pdfcpu.Read(rs, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return ctx.PageCount, nil
}

// pdfText replaces dashes the vgpdf fonts do not render.
func pdfText(s string) string {
	s = strings.ReplaceAll(s, "—", "-")
	return strings.ReplaceAll(s, "–", "-")
}

// renderReport writes the whole report to w and returns the number of pages
// drawn.
func renderReport(w io.Writer, ds *dataset.Dataset, view engine.View) (int, error) {
	title := pdfText(view.Title + " (" + view.Query.Granularity.Label() + ")")
	labels := bucketLabels(view.Buckets)

	c := vgpdf.New(pageWidth, pageHeight)
	pages := drawSummaryPages(c, title, view)

	for _, s := range view.Series {
		name := pdfText(engine.GroupLabel(view.Query.Dimension, s.Name))
		c.NextPage()
		pages++
		drawChartPage(c, title+" - "+name, labels, []chartLine{
			{name: name, values: pointValues(intPoints(labels, s.Values())), color: chartBlue},
		})
	}

	c.NextPage()
	pages++
	slices, b, _ := view.BreakdownAt(-1)
	drawBreakdownPage(c, pdfText(view.Title+", "+b.Label), view.Query.Dimension, slices)

	for _, field := range engine.NumericFields {
		res := engine.MonthlyStats(ds, field)
		monthLabels := engine.MonthLabels(res)
		c.NextPage()
		pages++
		drawChartPage(c, pdfText(field.Label()+" by Month"), monthLabels[:], []chartLine{
			{name: "Mean", values: pointValues(optionalPoints(monthLabels[:], res.Mean[:])), color: chartBlue},
			{name: "Median", values: pointValues(optionalPoints(monthLabels[:], res.Median[:])), color: chartOrange},
		})
	}

	if _, err := c.WriteTo(w); err != nil {
		return 0, err
	}
	return pages, nil
}

const (
	summaryRowHeight = 0.30 * vg.Inch
	nameColWidth     = 2.2 * vg.Inch
	valueColWidth    = 0.9 * vg.Inch
)

type summaryRow struct {
	name  string
	vals  []float64
	isSep bool
}

// drawSummaryPages lays out the sparkline table over as many pages as it
// needs and returns that number. The ALL series closes the table.
func drawSummaryPages(c *vgpdf.Canvas, title string, view engine.View) int {
	usableW := pageWidth - 2*pdfMargin
	usableH := pageHeight - 2*pdfMargin
	sparkColWidth := usableW - nameColWidth - valueColWidth

	headerHeight := 1.0 * vg.Inch
	maxRowsPerPage := int((usableH - headerHeight) / summaryRowHeight)

	dateRange := "no dated cases"
	if n := len(view.Buckets); n > 0 {
		dateRange = fmt.Sprintf("%s to %s (%d periods)", view.Buckets[0].Label, view.Buckets[n-1].Label, n)
	}

	labels := bucketLabels(view.Buckets)
	var rows []summaryRow
	for _, s := range view.Series[1:] {
		rows = append(rows, summaryRow{name: pdfText(engine.GroupLabel(view.Query.Dimension, s.Name)), vals: pointValues(intPoints(labels, s.Values()))})
	}
	if len(rows) > 0 {
		rows = append(rows, summaryRow{isSep: true})
	}
	total := view.Series[0]
	rows = append(rows, summaryRow{name: total.Name, vals: pointValues(intPoints(labels, total.Values()))})

	pageNum := 0
	rowIdx := 0
	for rowIdx < len(rows) {
		if pageNum > 0 {
			c.NextPage()
		}
		pageNum++

		dc := draw.New(c)
		area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

		var yTop vg.Length
		if pageNum == 1 {
			yTop = area.Max.Y
			fillText(area, title, vg.Points(14), area.Min.X, yTop-vg.Points(14), color.Black)
			fillText(area, dateRange, vg.Points(10), area.Min.X, yTop-0.35*vg.Inch, color.Gray{Y: 100})

			headerY := yTop - 0.6*vg.Inch
			fillText(area, columnHeader(view.Query.Dimension), vg.Points(10), area.Min.X, headerY, color.Gray{Y: 80})
			fillText(area, "Latest", vg.Points(10), area.Min.X+nameColWidth, headerY, color.Gray{Y: 80})
			fillText(area, "Trend", vg.Points(10), area.Min.X+nameColWidth+valueColWidth, headerY, color.Gray{Y: 80})

			sepY := headerY - vg.Points(6)
			strokeHLine(area, area.Min.X, area.Min.X+usableW, sepY, color.Gray{Y: 180})
			yTop = sepY - vg.Points(4)
		} else {
			yTop = area.Max.Y - vg.Points(8)
			fillText(area, title+" (continued)", vg.Points(10), area.Min.X, yTop, color.Gray{Y: 100})
			yTop -= 0.25 * vg.Inch
		}

		rowsThisPage := maxRowsPerPage
		if pageNum == 1 {
			rowsThisPage = int((yTop - area.Min.Y) / summaryRowHeight)
		}

		drawn := 0
		for rowIdx < len(rows) && drawn < rowsThisPage {
			r := rows[rowIdx]
			rowIdx++
			if r.isSep {
				y := yTop - vg.Length(drawn)*summaryRowHeight - vg.Points(4)
				strokeHLine(area, area.Min.X, area.Min.X+usableW, y, color.Gray{Y: 180})
				continue
			}
			y := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight*0.65
			fillText(area, r.name, vg.Points(9), area.Min.X, y, color.Black)
			fillText(area, formatNum(lastNonNaN(r.vals)), vg.Points(9), area.Min.X+nameColWidth, y, color.Black)

			sparkX := area.Min.X + nameColWidth + valueColWidth
			sparkY := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight + vg.Points(2)
			drawSparkline(draw.Canvas{
				Canvas: area.Canvas,
				Rectangle: vg.Rectangle{
					Min: vg.Point{X: sparkX, Y: sparkY},
					Max: vg.Point{X: sparkX + sparkColWidth, Y: sparkY + summaryRowHeight - vg.Points(3)},
				},
			}, r.vals)
			drawn++
		}
	}
	return pageNum
}

func drawSparkline(c draw.Canvas, vals []float64) {
	pts := xyPoints(vals)
	if len(pts) < 2 {
		return
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

// xyPoints indexes vals by position, skipping gaps.
func xyPoints(vals []float64) plotter.XYs {
	var pts plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
		}
	}
	return pts
}

type chartLine struct {
	name   string
	values []float64
	color  color.Color
}

// drawChartPage plots one or more lines against the category labels. A
// legend is shown when there is more than one line; lines with no values
// are left out.
func drawChartPage(c *vgpdf.Canvas, title string, labels []string, lines []chartLine) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	plotted := 0
	for _, l := range lines {
		pts := xyPoints(l.values)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			continue
		}
		line.Color = l.color
		line.Width = vg.Points(2)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			continue
		}
		scatter.Color = l.color
		scatter.Radius = vg.Points(3)
		scatter.Shape = draw.CircleGlyph{}

		p.Add(line, scatter)
		if len(lines) > 1 {
			p.Legend.Add(pdfText(l.name), line)
		}
		plotted++
	}
	if plotted == 0 {
		return
	}

	p.X.Tick.Marker = labelTicks(labels)
	p.X.Min = -0.5
	p.X.Max = float64(len(labels)) - 0.5
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Y.Tick.Marker = numTicks{}

	dc := draw.New(c)
	p.Draw(draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin))
}

// drawBreakdownPage draws the group counts of one bucket as a bar chart.
func drawBreakdownPage(c *vgpdf.Canvas, title, dimension string, slices []engine.Slice) {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	if len(slices) == 0 {
		fillText(area, title, vg.Points(14), area.Min.X, area.Max.Y-vg.Points(14), color.Black)
		fillText(area, "No data", vg.Points(10), area.Min.X, area.Max.Y-0.5*vg.Inch, color.Gray{Y: 100})
		return
	}

	vals := make(plotter.Values, len(slices))
	names := make([]string, len(slices))
	for i, s := range slices {
		vals[i] = float64(s.Value)
		names[i] = fmt.Sprintf("%s (%.1f%%)", pdfText(engine.GroupLabel(dimension, s.Group)), s.Share)
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White

	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return
	}
	bars.Color = chartBlue
	bars.LineStyle.Width = 0
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	p.Y.Tick.Marker = numTicks{}

	p.Draw(area)
}

// labelTicks labels at most twelve evenly spaced category positions.
type labelTicks []string

func (lt labelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(lt)
	if n == 0 {
		return ticks
	}

	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}
	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = pdfText(lt[i])
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type numTicks struct{}

func (numTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCompact(ticks[i].Value)
		}
	}
	return ticks
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
