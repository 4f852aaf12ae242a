package dataset

import (
	"maps"
	"strings"
	"time"
)

// Unknown is the explicit category used for a missing dimension value.
const Unknown = "Unknown"

// Status is the disposition of a case. The zero value means the source
// status was blank or unrecognised.
type Status string

const (
	Filed     Status = "Filed"
	Dismissed Status = "Dismissed"
	Rejected  Status = "Rejected"
	Open      Status = "Open"
	Sentenced Status = "Sentenced"
)

// Statuses lists every stored status in display order.
var Statuses = []Status{Filed, Dismissed, Rejected, Open, Sentenced}

// statusAliases maps lowercased source spellings to a canonical status.
var statusAliases = map[string]Status{
	"filed":                 Filed,
	"filed by prosecutor":   Filed,
	"dismissed":             Dismissed,
	"dismissed by court":    Dismissed,
	"rejected":              Rejected,
	"declined":              Rejected,
	"declined to prosecute": Rejected,
	"open":                  Open,
	"open case":             Open,
	"pending":               Open,
	"sentenced":             Sentenced,
}

// ParseStatus canonicalises a source status. Unrecognised values return the
// zero Status and false.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// Delta is a day count that may be absent.
type Delta struct {
	days  float64
	valid bool
}

// Days returns a present Delta.
func Days(v float64) Delta {
	return Delta{days: v, valid: true}
}

// Get returns the day count and whether it is present.
func (d Delta) Get() (float64, bool) {
	return d.days, d.valid
}

// Qualifies reports whether the delta can feed a statistic: present and
// strictly positive. Zero and negative values are treated as missing.
func (d Delta) Qualifies() bool {
	return d.valid && d.days > 0
}

// Record is one normalized case event. Calendar fields are derived from Date
// on every call, so they always agree with it. A zero Date marks a date that
// could not be parsed.
type Record struct {
	CaseID             string
	Status             Status
	Date               time.Time
	DaysToFile         Delta
	DaysFileToSentence Delta

	fields map[string]string
}

// NewRecord builds a Record. The fields map is copied and empty values are
// replaced by Unknown.
func NewRecord(caseID string, status Status, date time.Time, fields map[string]string, daysToFile, daysFileToSentence Delta) Record {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		v = strings.TrimSpace(v)
		if v == "" {
			v = Unknown
		}
		cp[k] = v
	}
	return Record{
		CaseID:             caseID,
		Status:             status,
		Date:               date,
		DaysToFile:         daysToFile,
		DaysFileToSentence: daysFileToSentence,
		fields:             cp,
	}
}

// HasDate reports whether the record carries a usable date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

func (r Record) Year() int { return r.Date.Year() }

func (r Record) Month() int { return int(r.Date.Month()) }

func (r Record) Quarter() int { return (r.Month()-1)/3 + 1 }

// Field returns the value of a dimension field, or Unknown when the record
// has no value for it. "status" reads the Status field.
func (r Record) Field(name string) string {
	if name == StatusField {
		if r.Status == "" {
			return Unknown
		}
		return string(r.Status)
	}
	if v, ok := r.fields[name]; ok && v != "" {
		return v
	}
	return Unknown
}

// Fields returns a copy of the record's dimension fields.
func (r Record) Fields() map[string]string {
	return maps.Clone(r.fields)
}
