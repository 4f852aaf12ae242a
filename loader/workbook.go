package loader

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet data row keyed by normalized header.
type Row map[string]string

// headerAliases maps normalized header variants to the canonical field name.
var headerAliases = map[string]string{
	"caseid":                "case_id",
	"case_no":               "case_id",
	"case_number":           "case_id",
	"date":                  "date_da",
	"da_date":               "date_da",
	"date_received":         "date_da",
	"days_file_to_sentence": "days_file_to_sent",
	"days_to_sentence":      "days_file_to_sent",
	"county_of_residence":   "county_res",
	"residence_county":      "county_res",
	"race_ethnicity":        "ethnicity",
	"sex":                   "gender",
}

// NormalizeHeader lowercases a header and joins its words with underscores,
// so "Case ID" and "case-id" both become "case_id".
func NormalizeHeader(h string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	name := b.String()
	if canonical, ok := headerAliases[name]; ok {
		return canonical
	}
	return name
}

// ReadRows opens an xlsx workbook and returns the rows of its first sheet,
// keyed by normalized header. Cell values are raw, so dates stored as numbers
// come back as Excel serials. Blank rows are dropped.
func ReadRows(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
	}
	return rowsFromGrid(raw), nil
}

// rowsFromGrid turns a header row plus data rows into Rows. Cells beyond the
// header are ignored and missing trailing cells read as "".
func rowsFromGrid(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = NormalizeHeader(h)
	}

	var rows []Row
	for _, cells := range grid[1:] {
		row := make(Row, len(headers))
		blank := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				blank = false
			}
			if _, dup := row[h]; dup && v == "" {
				continue
			}
			row[h] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
