package cmd

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zalepa/casedash/internal/config"
	"github.com/zalepa/casedash/internal/logging"
	"github.com/zalepa/casedash/loader"
)

// Fetch implements the "fetch" subcommand: probe a base URL for yearly
// workbooks and download the ones that are missing locally.
func Fetch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "output directory for downloaded workbooks")
	baseURL := fs.String("url", cfg.BaseURL, "base URL serving cases_YYYY.xlsx and friends (default $CASEDASH_BASE_URL)")
	force := fs.Bool("force", false, "download files that already exist")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: casedash fetch [-dir path] [-url base]\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *baseURL == "" {
		fatal("no base URL; pass -url or set CASEDASH_BASE_URL")
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		fatal("creating output directory: %v", err)
	}

	f := fetcher{
		client:  &http.Client{Timeout: 2 * time.Minute},
		baseURL: strings.TrimSuffix(*baseURL, "/"),
		dir:     *dir,
		force:   *force,
		log:     logging.Default,
	}
	res, err := f.fetchAll(cfg.ThisYear, cfg.MinYear)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "Done: %d downloaded, %d skipped, %d failed\n", res.downloaded, res.skipped, res.failed)
	if res.failed > 0 {
		os.Exit(1)
	}
}

type fetcher struct {
	client  *http.Client
	baseURL string
	dir     string
	force   bool
	log     *logging.Logger
}

type fetchResult struct {
	downloaded, skipped, failed int
}

func (f fetcher) url(name string) string {
	return f.baseURL + "/" + name
}

// exists answers a HEAD probe for name.
func (f fetcher) exists(name string) bool {
	resp, err := f.client.Head(f.url(name))
	if err != nil {
		f.log.Debugf("probe %s: %v", name, err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// discover applies the loader's year discovery rule to the remote cases
// workbooks.
func (f fetcher) discover(thisYear, minYear int) []int {
	return loader.DiscoverYears(func(y int) bool {
		return f.exists(loader.CasesFile(y))
	}, thisYear, minYear)
}

// latestVictimsYear probes for the newest victims workbook on its own; it
// may belong to a year with no cases workbook.
func (f fetcher) latestVictimsYear(thisYear, minYear int) (int, bool) {
	for y := thisYear; y >= minYear; y-- {
		if f.exists(loader.VictimsFile(y)) {
			return y, true
		}
	}
	return 0, false
}

// fetchAll downloads every discovered year plus the latest victims workbook.
func (f fetcher) fetchAll(thisYear, minYear int) (fetchResult, error) {
	years := f.discover(thisYear, minYear)
	victimsYear, hasVictims := f.latestVictimsYear(thisYear, minYear)
	if len(years) == 0 && !hasVictims {
		return fetchResult{}, fmt.Errorf("no workbooks found under %s between %d and %d", f.baseURL, minYear, thisYear)
	}
	res := f.fetchYears(years)
	if hasVictims && !slices.Contains(years, victimsYear) {
		f.fetchFile(loader.VictimsFile(victimsYear), false, &res)
	}
	return res, nil
}

// fetchYears downloads the cases workbook of each year and, when the server
// has them, its defendants and victims workbooks.
func (f fetcher) fetchYears(years []int) fetchResult {
	var res fetchResult
	for _, y := range years {
		// The cases workbook was already probed during discovery.
		f.fetchFile(loader.CasesFile(y), false, &res)
		f.fetchFile(loader.DefendantsFile(y), true, &res)
		f.fetchFile(loader.VictimsFile(y), true, &res)
	}
	return res
}

// fetchFile downloads name into the output directory unless it is already
// there. With probe set, a name the server does not have is passed over.
func (f fetcher) fetchFile(name string, probe bool, res *fetchResult) {
	outPath := filepath.Join(f.dir, name)
	if _, err := os.Stat(outPath); err == nil && !f.force {
		fmt.Fprintf(os.Stderr, "skip %s (already exists)\n", name)
		res.skipped++
		return
	}
	if probe && !f.exists(name) {
		f.log.Infof("%s not available", name)
		return
	}
	fmt.Fprintf(os.Stderr, "downloading %s -> %s\n", f.url(name), outPath)
	if err := f.download(f.url(name), outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error downloading %s: %v\n", name, err)
		res.failed++
		return
	}
	res.downloaded++
}

// download writes url to dest. dest is only replaced once the whole body has
// been written to a temporary file beside it.
func (f fetcher) download(url, dest string) error {
	resp, err := f.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
