package main

import (
	"fmt"
	"os"

	"github.com/zalepa/casedash/cmd"
	"github.com/zalepa/casedash/internal/config"
	"github.com/zalepa/casedash/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.Default.SetLevel(logging.ParseLevel(cfg.LogLevel))

	switch os.Args[1] {
	case "summary":
		cmd.Summary(cfg, os.Args[2:])
	case "monthly":
		cmd.Monthly(cfg, os.Args[2:])
	case "report":
		cmd.Report(cfg, os.Args[2:])
	case "export":
		cmd.Export(cfg, os.Args[2:])
	case "web":
		cmd.Web(cfg, os.Args[2:])
	case "victims":
		cmd.Victims(cfg, os.Args[2:])
	case "audit":
		cmd.Audit(cfg, os.Args[2:])
	case "fetch":
		cmd.Fetch(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: casedash <command>

Commands:
  summary    Show case counts over time as a sparkline table
  monthly    Show mean and median processing days per calendar month
  report     Write a PDF report of one view
  export     Write one view as CSV, XLSX or JSON
  web        Start an interactive web dashboard
  victims    Summarize victim services for the latest year
  audit      List breakdown values that look like duplicate spellings
  fetch      Download yearly workbooks from $CASEDASH_BASE_URL
`)
}
