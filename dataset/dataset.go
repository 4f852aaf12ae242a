package dataset

import (
	"iter"
	"slices"
	"sort"
)

// Well-known record field names.
const (
	CaseIDField         = "case_id"
	DateField           = "date_da"
	StatusField         = "status"
	DaysToFileField     = "days_to_file"
	DaysFileToSentField = "days_file_to_sent"
	AgeField            = "age"
	AgeGroupField       = "age_group"
	timestampField      = "ts"
	yearField           = "year"
	monthField          = "month"
	quarterField        = "quarter"
)

var excludedFields = map[string]bool{
	CaseIDField:         true,
	DateField:           true,
	DaysToFileField:     true,
	DaysFileToSentField: true,
	AgeField:            true,
	timestampField:      true,
	yearField:           true,
	monthField:          true,
	quarterField:        true,
}

// IsExcludedField reports whether name is an identifier, date, or numeric
// field rather than a categorical dimension.
func IsExcludedField(name string) bool {
	return excludedFields[name]
}

// Dataset is an immutable snapshot of loaded records. It is built once per
// load and replaced wholesale on reload.
type Dataset struct {
	records    []Record
	dimensions []string
	dimSet     map[string]bool
}

// New builds a snapshot from records. The slice is copied.
func New(records []Record) *Dataset {
	d := &Dataset{
		records: slices.Clone(records),
		dimSet:  make(map[string]bool),
	}
	if len(d.records) > 0 {
		d.dimSet[StatusField] = true
	}
	for _, r := range d.records {
		for name := range r.fields {
			if !IsExcludedField(name) {
				d.dimSet[name] = true
			}
		}
	}
	for name := range d.dimSet {
		d.dimensions = append(d.dimensions, name)
	}
	sort.Strings(d.dimensions)
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// All iterates over the records in load order.
func (d *Dataset) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if d == nil {
			return
		}
		for _, r := range d.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Dimensions returns the sorted names that may be used as a breakdown axis.
func (d *Dataset) Dimensions() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.dimensions)
}

// HasDimension reports whether name is a valid breakdown axis for this
// snapshot.
func (d *Dataset) HasDimension(name string) bool {
	return d != nil && d.dimSet[name]
}

// Years returns the distinct years with a valid date, ascending.
func (d *Dataset) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for r := range d.All() {
		if !r.HasDate() || seen[r.Year()] {
			continue
		}
		seen[r.Year()] = true
		years = append(years, r.Year())
	}
	sort.Ints(years)
	return years
}

// Latest returns the maximum valid record date. ok is false when no record
// has a date.
func (d *Dataset) Latest() (latest Record, ok bool) {
	for r := range d.All() {
		if !r.HasDate() {
			continue
		}
		if !ok || r.Date.After(latest.Date) {
			latest, ok = r, true
		}
	}
	return latest, ok
}
