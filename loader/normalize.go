package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zalepa/casedash/dataset"
)

// accessDenied marks rows the export tool redacted.
const accessDenied = "access denied"

// dateLayouts are tried in order for text dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/06",
	"01-02-06",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate reads an Excel serial or one of the common text layouts. The
// zero time and false are returned when nothing matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		// Serial 1 is 1900-01-01; anything below is a count, not a date.
		if serial < 1 || serial > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber reads a possibly comma-grouped number. NaN is returned for
// blank or unparseable cells.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseDelta(s string) dataset.Delta {
	v := parseNumber(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dataset.Delta{}
	}
	return dataset.Days(v)
}

// normalizeID drops a trailing ".0" that numeric id cells pick up.
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.Atoi(strings.TrimSuffix(s, ".0")); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return s
}

func isDenied(row Row) bool {
	for _, v := range row {
		if strings.EqualFold(strings.TrimSpace(v), accessDenied) {
			return true
		}
	}
	return false
}

// caseRow is a cleaned case before defendant fields are merged in.
type caseRow struct {
	id             string
	status         dataset.Status
	rawStatus      string
	date           time.Time
	toFile, toSent dataset.Delta
	fields         map[string]string
}

// cleanCaseRow validates one case row. Rows without an id or with redacted
// cells are rejected; a bad date or status is kept as the zero value.
func cleanCaseRow(row Row) (caseRow, bool) {
	if isDenied(row) {
		return caseRow{}, false
	}
	id := normalizeID(row[dataset.CaseIDField])
	if id == "" {
		return caseRow{}, false
	}

	c := caseRow{
		id:        id,
		rawStatus: row[dataset.StatusField],
		toFile:    parseDelta(row[dataset.DaysToFileField]),
		toSent:    parseDelta(row[dataset.DaysFileToSentField]),
		fields:    make(map[string]string),
	}
	c.status, _ = dataset.ParseStatus(c.rawStatus)
	c.date, _ = ParseDate(row[dataset.DateField])

	for k, v := range row {
		if k == dataset.StatusField || dataset.IsExcludedField(k) {
			continue
		}
		c.fields[k] = v
	}
	return c, true
}

// defendant holds the demographic columns merged onto a case.
type defendant struct {
	ethnicity string
	gender    string
	countyRes string
	age       int
	hasAge    bool
}

func cleanDefRow(row Row) (string, defendant, bool) {
	if isDenied(row) {
		return "", defendant{}, false
	}
	id := normalizeID(row[dataset.CaseIDField])
	if id == "" {
		return "", defendant{}, false
	}
	d := defendant{
		ethnicity: row["ethnicity"],
		gender:    row["gender"],
		countyRes: row["county_res"],
	}
	if age := parseNumber(row[dataset.AgeField]); !math.IsNaN(age) && age >= 0 {
		d.age, d.hasAge = int(age), true
	}
	return id, d, true
}

// AgeGroup buckets an age. A missing age is Unknown.
func AgeGroup(age int, ok bool) string {
	switch {
	case !ok:
		return dataset.Unknown
	case age < 18:
		return "<18"
	case age <= 24:
		return "18–24"
	case age <= 34:
		return "25–34"
	case age <= 49:
		return "35–49"
	case age <= 64:
		return "50–64"
	}
	return "65+"
}

// record merges a case with its defendant (zero value when none) into an
// immutable Record.
func (c caseRow) record(d defendant) dataset.Record {
	fields := make(map[string]string, len(c.fields)+4)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields["ethnicity"] = d.ethnicity
	fields["gender"] = d.gender
	fields["county_res"] = d.countyRes
	fields[dataset.AgeGroupField] = AgeGroup(d.age, d.hasAge)
	return dataset.NewRecord(c.id, c.status, c.date, fields, c.toFile, c.toSent)
}
