// Package victims summarizes victim service records for the latest year
// that has a victims workbook.
package victims

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/zalepa/casedash/loader"
)

// Service is one victim service category.
type Service struct {
	Letter      string `json:"letter"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
}

// Services lists the categories in the order of their sheet columns.
var Services = []Service{
	{"A", "Information and Referral", "Info about victim rights, justice process, and referrals."},
	{"B", "Personal Advocacy / Accompaniment", "Advocacy during interviews, help with public benefits, interpreter services, immigration help."},
	{"C", "Emotional Support or Safety Services", "Crisis counseling, community response, emergency financial help, support groups."},
	{"D", "Shelter / Housing Services", "Emergency shelter, relocation help, transitional housing."},
	{"E", "Criminal / Civil Justice System Assistance", "Updates on legal events, court support, restitution help, legal guidance."},
}

// Case is one victim case row.
type Case struct {
	CaseID   int
	Records  int
	Services []string
}

// ServiceCount is how many cases received a service.
type ServiceCount struct {
	Service
	Cases   int     `json:"cases"`
	Percent float64 `json:"percent"`
}

// Summary aggregates a year of victim cases.
type Summary struct {
	Year           int            `json:"year"`
	Cases          int            `json:"cases"`
	ServiceRecords int            `json:"serviceRecords"`
	Services       []ServiceCount `json:"services"`
}

// ParseRows keeps rows whose Case ID is an integer. A blank or invalid
// service record count reads as 0; a service applies when its column says
// "yes".
func ParseRows(rows []loader.Row) []Case {
	var cases []Case
	for _, row := range rows {
		id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(row["case_id"]), ".0"))
		if err != nil {
			continue
		}
		c := Case{CaseID: id}
		if n, err := strconv.ParseFloat(strings.TrimSpace(row["service_records"]), 64); err == nil && n > 0 {
			c.Records = int(n)
		}
		for _, s := range Services {
			if strings.EqualFold(strings.TrimSpace(row[strings.ToLower(s.Letter)]), "yes") {
				c.Services = append(c.Services, s.Letter)
			}
		}
		cases = append(cases, c)
	}
	return cases
}

// Summarize counts service records and per-service cases. Percentages are of
// the number of cases and are 0 when there are none.
func Summarize(year int, cases []Case) Summary {
	sum := Summary{Year: year, Cases: len(cases)}
	counts := make(map[string]int)
	var records stats.Float64Data
	for _, c := range cases {
		records = append(records, float64(c.Records))
		for _, l := range c.Services {
			counts[l]++
		}
	}
	if total, err := stats.Sum(records); err == nil {
		sum.ServiceRecords = int(math.Round(total))
	}
	for _, s := range Services {
		sc := ServiceCount{Service: s, Cases: counts[s.Letter]}
		if len(cases) > 0 {
			sc.Percent, _ = stats.Round(float64(sc.Cases)/float64(len(cases))*100, 1)
		}
		sum.Services = append(sum.Services, sc)
	}
	return sum
}

// LoadLatest finds the newest victims workbook in dir and summarizes it.
func LoadLatest(dir string, thisYear, minYear int) (Summary, error) {
	probe := loader.FileProbe(dir, loader.VictimsFile)
	for y := thisYear; y >= minYear; y-- {
		if !probe(y) {
			continue
		}
		rows, err := loader.ReadRows(filepath.Join(dir, loader.VictimsFile(y)))
		if err != nil {
			return Summary{}, err
		}
		return Summarize(y, ParseRows(rows)), nil
	}
	return Summary{}, fmt.Errorf("no victim data files found in %s", dir)
}
