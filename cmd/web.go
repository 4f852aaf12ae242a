package cmd

import (
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zalepa/casedash/dataset"
	"github.com/zalepa/casedash/engine"
	"github.com/zalepa/casedash/internal/config"
	"github.com/zalepa/casedash/internal/logging"
	"github.com/zalepa/casedash/victims"
)

//go:embed web.html
var htmlContent embed.FS

type labelValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type metadata struct {
	Ranges        []labelValue `json:"ranges"`
	Metrics       []labelValue `json:"metrics"`
	Dimensions    []labelValue `json:"dimensions"`
	NumericFields []labelValue `json:"numericFields"`
	Years         []int        `json:"years"`
	Cases         int          `json:"cases"`
	Defaults      queryParams  `json:"defaults"`
}

type queryParams struct {
	Range     string `json:"range"`
	Metric    string `json:"metric"`
	Dimension string `json:"dimension"`
}

type seriesData struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Values []int  `json:"values"`
}

type sliceData struct {
	engine.Slice
	Label string `json:"label"`
}

type seriesResponse struct {
	Query   queryParams  `json:"query"`
	Title   string       `json:"title"`
	Buckets []string     `json:"buckets"`
	Series  []seriesData `json:"series"`
}

type breakdownResponse struct {
	Query  queryParams    `json:"query"`
	Title  string         `json:"title"`
	Bucket *engine.Bucket `json:"bucket"`
	Slices []sliceData    `json:"slices"`
}

type monthlyData struct {
	Field  string       `json:"field"`
	Label  string       `json:"label"`
	Months [12]string   `json:"months"`
	Mean   [12]*float64 `json:"mean"`
	Median [12]*float64 `json:"median"`
	Count  [12]int      `json:"count"`
}

// Web implements the "web" subcommand.
func Web(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory containing cases_YYYY.xlsx workbooks")
	port := fs.String("port", cfg.Port, "HTTP server port")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: casedash web [dir] [--port 8080]\n\nStart an interactive web dashboard.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(args))
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}

	ds := loadDataset(cfg, *dir)

	var vict *victims.Summary
	if sum, err := victims.LoadLatest(*dir, cfg.ThisYear, cfg.MinYear); err != nil {
		logging.Default.Warnf("victim services unavailable: %v", err)
	} else {
		vict = &sum
	}

	addr := ":" + *port
	fmt.Printf("serving on http://localhost%s\n", addr)
	if err := http.ListenAndServe(addr, newRouter(ds, vict)); err != nil {
		fatal("server: %v", err)
	}
}

// newRouter serves the dashboard page and its JSON API. Each request
// recomputes its view from the immutable dataset.
func newRouter(ds *dataset.Dataset, vict *victims.Summary) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	meta := buildMetadata(ds)
	monthly := buildMonthly(ds)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		data, _ := htmlContent.ReadFile("web.html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, meta)
		})

		r.Get("/series", func(w http.ResponseWriter, r *http.Request) {
			view := engine.Run(ds, requestQuery(ds, r))
			resp := seriesResponse{
				Query:   paramsOf(view.Query),
				Title:   view.Title,
				Buckets: bucketLabels(view.Buckets),
				Series:  make([]seriesData, len(view.Series)),
			}
			for i, s := range view.Series {
				resp.Series[i] = seriesData{Name: s.Name, Label: engine.GroupLabel(view.Query.Dimension, s.Name), Values: s.Values()}
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/breakdown", func(w http.ResponseWriter, r *http.Request) {
			view := engine.Run(ds, requestQuery(ds, r))
			at := -1
			if s := r.URL.Query().Get("at"); s != "" {
				if n, err := strconv.Atoi(s); err == nil {
					at = n
				}
			}
			resp := breakdownResponse{
				Query:  paramsOf(view.Query),
				Title:  view.Title,
				Slices: []sliceData{},
			}
			if slices, b, ok := view.BreakdownAt(at); ok {
				resp.Bucket = &b
				for _, s := range slices {
					resp.Slices = append(resp.Slices, sliceData{Slice: s, Label: engine.GroupLabel(view.Query.Dimension, s.Group)})
				}
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/monthly", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, monthly)
		})

		r.Get("/victims", func(w http.ResponseWriter, r *http.Request) {
			if vict == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no victim data files found"})
				return
			}
			writeJSON(w, http.StatusOK, vict)
		})
	})
	return r
}

func requestQuery(ds *dataset.Dataset, r *http.Request) engine.Query {
	q := r.URL.Query()
	return lenientQuery(ds, q.Get("range"), q.Get("metric"), q.Get("dimension"))
}

func paramsOf(q engine.Query) queryParams {
	return queryParams{Range: string(q.Granularity), Metric: string(q.Metric), Dimension: q.Dimension}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Default.Errorf("encode response: %v", err)
	}
}

func buildMetadata(ds *dataset.Dataset) metadata {
	meta := metadata{
		Years:    ds.Years(),
		Cases:    ds.Len(),
		Defaults: paramsOf(lenientQuery(ds, "", "", "")),
	}
	if meta.Years == nil {
		meta.Years = []int{}
	}
	for _, g := range engine.Granularities {
		meta.Ranges = append(meta.Ranges, labelValue{Value: string(g), Label: g.Label()})
	}
	for _, m := range engine.Metrics() {
		meta.Metrics = append(meta.Metrics, labelValue{Value: string(m), Label: m.Label()})
	}
	meta.Dimensions = []labelValue{}
	for _, d := range ds.Dimensions() {
		meta.Dimensions = append(meta.Dimensions, labelValue{Value: d, Label: engine.PrettyName(d)})
	}
	for _, f := range engine.NumericFields {
		meta.NumericFields = append(meta.NumericFields, labelValue{Value: string(f), Label: f.Label()})
	}
	return meta
}

func buildMonthly(ds *dataset.Dataset) []monthlyData {
	out := make([]monthlyData, len(engine.NumericFields))
	for i, f := range engine.NumericFields {
		res := engine.MonthlyStats(ds, f)
		out[i] = monthlyData{
			Field:  string(f),
			Label:  f.Label(),
			Months: engine.MonthLabels(res),
			Mean:   res.Mean,
			Median: res.Median,
			Count:  res.Count,
		}
	}
	return out
}
