package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zalepa/casedash/internal/config"
	"github.com/zalepa/casedash/victims"
)

// Victims implements the "victims" subcommand.
func Victims(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("victims", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing victims_YYYY.xlsx workbooks")
	detail := fs.Bool("detail", false, "print what each service category covers")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: casedash victims [dir] [--detail]\n\nSummarize victim services for the latest year with data.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(args))
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}

	sum, err := victims.LoadLatest(*dir, cfg.ThisYear, cfg.MinYear)
	if err != nil {
		fatal("%v", err)
	}
	renderVictims(os.Stdout, sum, *detail)
}

func renderVictims(w io.Writer, sum victims.Summary, detail bool) {
	fmt.Fprintf(w, "Victim Services, %d\n", sum.Year)
	fmt.Fprintf(w, "%s cases, %s service records\n\n", formatInt(int64(sum.Cases)), formatInt(int64(sum.ServiceRecords)))

	fmt.Fprintf(w, "%-48s  %8s  %7s\n", "Service", "Cases", "Share")
	fmt.Fprintln(w, strings.Repeat("─", 48+2+8+2+7))
	for _, s := range sum.Services {
		name := s.Letter + ". " + s.Description
		fmt.Fprintf(w, "%-48s  %8s  %6.1f%%\n", name, formatInt(int64(s.Cases)), s.Percent)
		if detail {
			fmt.Fprintf(w, "    %s\n", s.Detail)
		}
	}
}
