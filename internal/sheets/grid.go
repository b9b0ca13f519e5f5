package sheets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"stipendi/internal/aggregate"
	"stipendi/internal/core"
)

const (
	HeaderYear  = "Anno"
	HeaderTotal = "Totale"
	// Columns is the grid width: year, 14 months, total.
	Columns = core.SlotsPerYear + 2
)

// Header returns the first grid row.
func Header() []any {
	row := make([]any, 0, Columns)
	row = append(row, HeaderYear)
	for _, m := range core.Months {
		row = append(row, m.Short)
	}
	return append(row, HeaderTotal)
}

// BuildGrid lays out every non-empty year in ascending order. Absent months
// are empty cells so they stay distinct from a stored zero.
func BuildGrid(state core.LedgerState) [][]any {
	years := make([]int, 0, len(state.Salaries))
	for y, months := range state.Salaries {
		if len(months) > 0 {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	grid := make([][]any, 0, len(years)+1)
	grid = append(grid, Header())
	for _, y := range years {
		row := make([]any, 0, Columns)
		row = append(row, y)
		for _, m := range core.Months {
			if a, ok := state.Amount(y, m.Code); ok {
				row = append(row, a.Float64())
			} else {
				row = append(row, "")
			}
		}
		total, _ := aggregate.Total(state, y).Float64()
		grid = append(grid, append(row, total))
	}
	return grid
}

// ParseGrid reads a grid written by BuildGrid, locating columns by header
// label. The total column is ignored; it is derived data.
func ParseGrid(values [][]any) (core.Salaries, error) {
	out := core.Salaries{}
	if len(values) == 0 {
		return out, nil
	}
	headers := toStrings(values[0])
	colYear := indexOf(headers, HeaderYear)
	if colYear == -1 {
		return nil, fmt.Errorf("unexpected grid header: missing %s; got headers=%v", HeaderYear, headers)
	}
	cols := make(map[core.MonthCode]int, core.SlotsPerYear)
	var missing []string
	for _, m := range core.Months {
		i := indexOf(headers, m.Short)
		if i == -1 {
			missing = append(missing, m.Short)
			continue
		}
		cols[m.Code] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected grid header: missing %s", strings.Join(missing, ","))
	}

	for r := 1; r < len(values); r++ {
		row := toStrings(values[r])
		yearCell := safeGet(row, colYear)
		if yearCell == "" {
			continue
		}
		year, err := strconv.Atoi(yearCell)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid year %q", r+1, yearCell)
		}
		for code, c := range cols {
			cell := safeGet(row, c)
			if cell == "" {
				continue
			}
			a, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", r+1, code, err)
			}
			if out[year] == nil {
				out[year] = core.MonthAmounts{}
			}
			out[year][code] = a
		}
	}
	return out, nil
}

// parseCell accepts raw numbers and Italian-formatted text such as "2.500,50 €".
func parseCell(s string) (core.Amount, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "€"), "€"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
	}
	return core.ParseAmount(s)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// A1 returns a quoted A1 range on sheet, e.g. 'Stipendi'!A1:P3.
func A1(sheet, rng string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + rng
}

// ColumnLetter converts a 1-based column index to its letter (1 -> A).
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
