package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/internal/config"
)

// variantSuffixes are trailing designations dropped before comparing values.
// Longer suffixes come first so "COUNTY" is tried before "CO".
var variantSuffixes = []string{"COUNTY", "CNTY", "CO"}

// baseValue uppercases a dimension value, drops punctuation, collapses runs
// of spaces and removes a trailing designation, so "Ada County" and "ADA"
// compare equal.
func baseValue(v string) string {
	v = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, strings.ToUpper(v))
	v = strings.Join(strings.Fields(v), " ")
	for _, suffix := range variantSuffixes {
		if strings.HasSuffix(v, " "+suffix) {
			return v[:len(v)-len(suffix)-1]
		}
	}
	return v
}

type variantCandidate struct {
	dimension  string
	keep       string // more recent, or more frequent when both co-occur
	merge      string
	keepYears  []int
	mergeYears []int
	keepCount  int
	mergeCount int

	// overlap is set when both spellings occur in the same year, which
	// points to inconsistent data entry rather than a rename.
	overlap bool
}

type variantInfo struct {
	years map[int]bool
	count int
}

// findVariants groups the values of each dimension by baseValue and reports
// every pair of spellings that share a base. Unknown values are ignored.
func findVariants(ds *dataset.Dataset) []variantCandidate {
	// dimension -> base -> value -> info
	groups := make(map[string]map[string]map[string]*variantInfo)

	for r := range ds.All() {
		for _, dim := range ds.Dimensions() {
			if dim == dataset.StatusField {
				continue
			}
			v := r.Field(dim)
			if v == dataset.Unknown {
				continue
			}
			base := baseValue(v)
			if groups[dim] == nil {
				groups[dim] = make(map[string]map[string]*variantInfo)
			}
			if groups[dim][base] == nil {
				groups[dim][base] = make(map[string]*variantInfo)
			}
			info := groups[dim][base][v]
			if info == nil {
				info = &variantInfo{years: make(map[int]bool)}
				groups[dim][base][v] = info
			}
			info.count++
			if r.HasDate() {
				info.years[r.Year()] = true
			}
		}
	}

	var candidates []variantCandidate
	for dim, bases := range groups {
		for _, values := range bases {
			if len(values) < 2 {
				continue
			}
			names := make([]string, 0, len(values))
			for n := range values {
				names = append(names, n)
			}
			sort.Strings(names)

			for i := 0; i < len(names); i++ {
				for j := i + 1; j < len(names); j++ {
					a, b := names[i], names[j]
					infoA, infoB := values[a], values[b]

					overlap := false
					for y := range infoA.years {
						if infoB.years[y] {
							overlap = true
							break
						}
					}

					yearsA, yearsB := sortedYears(infoA.years), sortedYears(infoB.years)
					swap := infoB.count > infoA.count
					if !overlap && len(yearsA) > 0 && len(yearsB) > 0 {
						swap = yearsB[len(yearsB)-1] > yearsA[len(yearsA)-1]
					}
					if swap {
						a, b = b, a
						infoA, infoB = infoB, infoA
						yearsA, yearsB = yearsB, yearsA
					}

					candidates = append(candidates, variantCandidate{
						dimension:  dim,
						keep:       a,
						merge:      b,
						keepYears:  yearsA,
						mergeYears: yearsB,
						keepCount:  infoA.count,
						mergeCount: infoB.count,
						overlap:    overlap,
					})
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dimension != candidates[j].dimension {
			return candidates[i].dimension < candidates[j].dimension
		}
		if candidates[i].keep != candidates[j].keep {
			return candidates[i].keep < candidates[j].keep
		}
		return candidates[i].merge < candidates[j].merge
	})
	return candidates
}

func sortedYears(m map[int]bool) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func formatYearRange(years []int) string {
	switch len(years) {
	case 0:
		return "no dated cases"
	case 1:
		return strconv.Itoa(years[0])
	}
	return fmt.Sprintf("%d to %d (%d years)", years[0], years[len(years)-1], len(years))
}

// Audit implements the "audit" subcommand: list dimension values that look
// like spellings of the same thing.
func Audit(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: casedash audit [dir]\n\nList breakdown values that differ only in case, punctuation or a County suffix.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(args))
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}

	ds := loadDataset(cfg, *dir)
	renderVariants(os.Stdout, findVariants(ds))
}

func renderVariants(w io.Writer, candidates []variantCandidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No duplicate value spellings found.")
		return
	}
	fmt.Fprintf(w, "Found %d possible duplicate value spelling(s):\n", len(candidates))
	for i, c := range candidates {
		kind := "renamed"
		if c.overlap {
			kind = "inconsistent"
		}
		fmt.Fprintf(w, "\n[%d] %s, %s\n", i+1, columnHeader(c.dimension), kind)
		fmt.Fprintf(w, "    keep:  %-30s %6s cases, %s\n", c.keep, formatInt(int64(c.keepCount)), formatYearRange(c.keepYears))
		fmt.Fprintf(w, "    merge: %-30s %6s cases, %s\n", c.merge, formatInt(int64(c.mergeCount)), formatYearRange(c.mergeYears))
	}
}
