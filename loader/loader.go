// Package loader discovers yearly case workbooks and normalizes their rows
// into a dataset snapshot.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/internal/logging"
)

// DefaultMinYear is the earliest year probed for workbooks.
const DefaultMinYear = 2015

// CasesFile, DefendantsFile and VictimsFile name a year's workbooks.
func CasesFile(year int) string      { return fmt.Sprintf("cases_%d.xlsx", year) }
func DefendantsFile(year int) string { return fmt.Sprintf("defendants_%d.xlsx", year) }
func VictimsFile(year int) string    { return fmt.Sprintf("victims_%d.xlsx", year) }

// Probe reports whether data for a year exists.
type Probe func(year int) bool

// DiscoverYears probes from thisYear down to minYear and returns the years
// found, newest first. Probing stops at the first missing year after at least
// one year was found, so a run of consecutive years is returned.
func DiscoverYears(probe Probe, thisYear, minYear int) []int {
	var found []int
	for y := thisYear; y >= minYear; y-- {
		if probe(y) {
			found = append(found, y)
		} else if len(found) > 0 {
			break
		}
	}
	return found
}

// FileProbe probes dir for workbooks named by name(year).
func FileProbe(dir string, name func(int) string) Probe {
	return func(year int) bool {
		info, err := os.Stat(filepath.Join(dir, name(year)))
		return err == nil && !info.IsDir()
	}
}

// Stats describes one load.
type Stats struct {
	Years             []int
	Cases             int
	Skipped           int
	Defendants        int
	MissingDefendants []int
}

// maxParallelReads bounds how many years are read at once.
const maxParallelReads = 4

// yearRows is the raw content of one year's workbooks.
type yearRows struct {
	cases, defs []Row
	missingDefs bool
}

// rowReader reads the rows of one workbook.
type rowReader func(ctx context.Context, path string) ([]Row, error)

func readFile(_ context.Context, path string) ([]Row, error) {
	return ReadRows(path)
}

// readYears reads the workbooks of each year concurrently. Results are in
// the order of years. The first error cancels ctx and years not yet started
// are not read.
func readYears(ctx context.Context, dir string, years []int, read rowReader) ([]yearRows, error) {
	out := make([]yearRows, len(years))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, y := range years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cases, err := read(ctx, filepath.Join(dir, CasesFile(y)))
			if err != nil {
				return fmt.Errorf("year %d: %w", y, err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			defs, err := read(ctx, filepath.Join(dir, DefendantsFile(y)))
			switch {
			case errors.Is(err, fs.ErrNotExist):
				out[i].missingDefs = true
			case err != nil:
				return fmt.Errorf("year %d: %w", y, err)
			}
			out[i].cases, out[i].defs = cases, defs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDir reads the cases and defendants workbooks of each year in dir. A
// missing defendants workbook is logged and tolerated; a missing or
// unreadable cases workbook fails the load. Records keep the order of years.
func LoadDir(dir string, years []int, log *logging.Logger) (*dataset.Dataset, Stats, error) {
	st := Stats{Years: years}
	raw, err := readYears(context.Background(), dir, years, readFile)
	if err != nil {
		return nil, st, err
	}

	var records []dataset.Record
	for i, y := range years {
		if raw[i].missingDefs {
			log.Warnf("%s missing, demographics default to %s", DefendantsFile(y), dataset.Unknown)
			st.MissingDefendants = append(st.MissingDefendants, y)
		}

		defs := make(map[string]defendant)
		for _, row := range raw[i].defs {
			id, d, ok := cleanDefRow(row)
			if !ok {
				continue
			}
			// Only the first defendant listed for a case is used.
			if _, seen := defs[id]; !seen {
				defs[id] = d
				st.Defendants++
			}
		}

		before := len(records)
		for _, row := range raw[i].cases {
			c, ok := cleanCaseRow(row)
			if !ok {
				st.Skipped++
				continue
			}
			if c.status == "" && c.rawStatus != "" {
				log.Debugf("%s: case %s has unrecognised status %q", CasesFile(y), c.id, c.rawStatus)
			}
			if c.date.IsZero() {
				log.Debugf("%s: case %s has no usable date", CasesFile(y), c.id)
			}
			records = append(records, c.record(defs[c.id]))
		}
		log.WithField("year", y).Infof("%d cases, %d defendants", len(records)-before, len(defs))
	}

	st.Cases = len(records)
	return dataset.New(records), st, nil
}

// Load discovers the years present in dir and loads them.
func Load(dir string, thisYear, minYear int, log *logging.Logger) (*dataset.Dataset, Stats, error) {
	years := DiscoverYears(FileProbe(dir, CasesFile), thisYear, minYear)
	if len(years) == 0 {
		log.Warnf("no cases_YYYY.xlsx workbooks between %d and %d in %s", minYear, thisYear, dir)
	}
	return LoadDir(dir, years, log)
}
