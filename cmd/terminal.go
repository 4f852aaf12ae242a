package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// dataPoint is one labelled value handed to the terminal and PDF renderers.
// NaN marks a gap.
type dataPoint struct {
	label string
	value float64
}

func intPoints(labels []string, values []int) []dataPoint {
	pts := make([]dataPoint, len(values))
	for i, v := range values {
		pts[i] = dataPoint{label: labels[i], value: float64(v)}
	}
	return pts
}

func optionalPoints(labels []string, values []*float64) []dataPoint {
	pts := make([]dataPoint, len(values))
	for i, v := range values {
		pts[i] = dataPoint{label: labels[i], value: math.NaN()}
		if v != nil {
			pts[i].value = *v
		}
	}
	return pts
}

func pointValues(pts []dataPoint) []float64 {
	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = p.value
	}
	return vals
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

// valueRange returns the smallest and largest non-NaN values. ok is false
// when there are none.
func valueRange(vals []float64) (lo, hi float64, ok bool) {
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi, ok
}

// level maps v in [lo, hi] onto 0..steps-1. A flat range sits in the middle.
func level(v, lo, hi float64, steps int) int {
	if hi == lo {
		return steps / 2
	}
	i := int(math.Round((v - lo) / (hi - lo) * float64(steps-1)))
	return max(0, min(i, steps-1))
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws one block per value; gaps are blank.
func sparkline(vals []float64) string {
	lo, hi, _ := valueRange(vals)
	out := make([]rune, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = ' '
			continue
		}
		out[i] = sparkBlocks[level(v, lo, hi, len(sparkBlocks))]
	}
	return string(out)
}

const (
	chartRows   = 10
	chartWidth  = 90
	chartMaxCol = 6
)

// renderChart draws points as a dot chart joined by dotted segments. A gap
// breaks the line and leaves its column empty.
func renderChart(w io.Writer, title string, pts []dataPoint) {
	fmt.Fprintln(w, title)
	lo, hi, ok := valueRange(pointValues(pts))
	if !ok {
		fmt.Fprintln(w, "(no data)")
		return
	}
	fmt.Fprintln(w)

	col := max(2, min(chartWidth/len(pts), chartMaxCol))
	width := col * len(pts)
	grid := make([][]rune, chartRows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	prevX, prevRow := -1, 0
	for i, p := range pts {
		if math.IsNaN(p.value) {
			prevX = -1
			continue
		}
		x, row := i*col+col/2, level(p.value, lo, hi, chartRows)
		if prevX >= 0 {
			for c := prevX + 1; c < x; c++ {
				t := float64(c-prevX) / float64(x-prevX)
				r := int(math.Round(float64(prevRow) + t*float64(row-prevRow)))
				grid[r][c] = '·'
			}
		}
		grid[row][x] = '●'
		prevX, prevRow = x, row
	}

	axis := map[int]string{chartRows / 2: formatCompact((lo + hi) / 2)}
	if hi > lo {
		axis[chartRows-1], axis[0] = formatCompact(hi), formatCompact(lo)
	}
	for r := chartRows - 1; r >= 0; r-- {
		fmt.Fprintf(w, "%8s │%s\n", axis[r], string(grid[r]))
	}
	fmt.Fprintf(w, "%8s └%s\n", "", strings.Repeat("─", width))
	fmt.Fprintf(w, "%8s  %s\n", "", xAxisLabels(pts, col, width))
}

// xAxisLabels centres each point's label under its column, skipping labels
// that would run into the previous one.
func xAxisLabels(pts []dataPoint, col, width int) string {
	line := []rune(strings.Repeat(" ", width))
	next := 0
	for i, p := range pts {
		label := []rune(p.label)
		pos := max(0, i*col+col/2-len(label)/2)
		if pos < next || pos+len(label) > width {
			continue
		}
		copy(line[pos:], label)
		next = pos + len(label) + 1
	}
	return strings.TrimRight(string(line), " ")
}

var numPrinter = message.NewPrinter(language.English)

// formatNum prints whole numbers with thousands separators and anything
// else to one decimal place.
func formatNum(v float64) string {
	switch {
	case math.IsNaN(v):
		return "N/A"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return formatInt(int64(v))
	}
	return numPrinter.Sprintf("%.1f", v)
}

func formatInt(v int64) string {
	return numPrinter.Sprintf("%d", v)
}

var compactUnits = []struct {
	size   float64
	suffix string
	prec   int
}{
	{1e6, "M", 1},
	{1e3, "k", 0},
}

// formatCompact shortens an axis value: 2.5M, 12k, 40, 2.5.
func formatCompact(v float64) string {
	for _, u := range compactUnits {
		if math.Abs(v) >= u.size {
			return strconv.FormatFloat(v/u.size, 'f', u.prec, 64) + u.suffix
		}
	}
	if math.Abs(v) < 10 && v != math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// formatDays renders a reduction in days, or N/A when the month had no data.
func formatDays(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + " days"
}

// boolFlags are the flags that never take a separate value argument.
var boolFlags = map[string]bool{"pie": true, "detail": true, "force": true}

// takesValue reports whether flag arg consumes the following argument.
func takesValue(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	return !strings.Contains(name, "=") && !boolFlags[name]
}

// reorderArgs puts flags ahead of the data dir so it may be given first, as
// in "casedash summary ./data --range monthly". Everything after "--" is
// positional.
func reorderArgs(args []string) []string {
	var flags, rest []string
	for len(args) > 0 {
		arg := args[0]
		args = args[1:]
		switch {
		case arg == "--":
			rest = append(rest, args...)
			args = nil
		case !strings.HasPrefix(arg, "-"):
			rest = append(rest, arg)
		default:
			flags = append(flags, arg)
			if takesValue(arg) && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
				flags = append(flags, args[0])
				args = args[1:]
			}
		}
	}
	return append(flags, rest...)
}
