package engine

import (
	"github.com/zalepa/casedash/dataset"
)

// CountTable maps a bucket key to a count.
type CountTable map[string]int

// GroupedCountTable maps a group (dimension value) to its CountTable.
type GroupedCountTable map[string]CountTable

func (t CountTable) clone() CountTable {
	out := make(CountTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (g GroupedCountTable) clone() GroupedCountTable {
	out := make(GroupedCountTable, len(g))
	for name, t := range g {
		out[name] = t.clone()
	}
	return out
}

// Total sums every count in the table.
func (t CountTable) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}

// Aggregates holds the four count tables built from one pass over a dataset.
type Aggregates struct {
	Granularity         Granularity
	Dimension           string
	Overall             CountTable
	ByDimension         GroupedCountTable
	ByStatus            map[dataset.Status]CountTable
	ByStatusByDimension map[dataset.Status]GroupedCountTable
}

// Aggregate counts every dated record of ds into bucket keys under g. All
// four tables are filled in the same pass. Records without a usable date are
// skipped. If dimension is not a valid axis of ds the two dimension tables
// stay empty; records with no status are left out of the status tables.
func Aggregate(ds *dataset.Dataset, g Granularity, dimension string) *Aggregates {
	a := &Aggregates{
		Granularity:         g,
		Dimension:           dimension,
		Overall:             make(CountTable),
		ByDimension:         make(GroupedCountTable),
		ByStatus:            make(map[dataset.Status]CountTable),
		ByStatusByDimension: make(map[dataset.Status]GroupedCountTable),
	}
	useDim := ds.HasDimension(dimension)

	for r := range ds.All() {
		key, ok := recordKey(r, g)
		if !ok {
			continue
		}
		a.Overall[key]++

		var group string
		if useDim {
			group = r.Field(dimension)
			increment(a.ByDimension, group, key)
		}

		if r.Status == "" {
			continue
		}
		st, ok := a.ByStatus[r.Status]
		if !ok {
			st = make(CountTable)
			a.ByStatus[r.Status] = st
		}
		st[key]++

		if useDim {
			sg, ok := a.ByStatusByDimension[r.Status]
			if !ok {
				sg = make(GroupedCountTable)
				a.ByStatusByDimension[r.Status] = sg
			}
			increment(sg, group, key)
		}
	}
	return a
}

func increment(g GroupedCountTable, group, key string) {
	t, ok := g[group]
	if !ok {
		t = make(CountTable)
		g[group] = t
	}
	t[key]++
}
