package report

import (
	"sort"
	"strings"

	"github.com/example/erm/internal/persistence"
)

// Column is one (company, sla) of the consolidated matrix.
type Column struct {
	Company string `json:"company"`
	SLA     string `json:"sla"`
}

// Reporter identifies an engineer in the consolidated matrix.
type Reporter struct {
	Name  string `json:"name"`
	Login string `json:"login"`
}

// Cell is the hours one engineer reported against one column.
type Cell struct {
	Login  string
	Column Column
}

// Consolidated is the month's report across all engineers.
type Consolidated struct {
	Columns     []Column
	Engineers   []Reporter
	Cells       map[Cell]int
	NotReported []Reporter
}

// Hours returns the hours login reported against col.
func (c Consolidated) Hours(login string, col Column) int {
	return c.Cells[Cell{Login: login, Column: col}]
}

// Consolidate builds the month matrix from every saved row. Engineers that
// are active, utilized and absent from rows are listed in NotReported.
func Consolidate(rows []persistence.WorkReportRow, engineers []persistence.Engineer) Consolidated {
	byLogin := make(map[string]persistence.Engineer, len(engineers))
	for _, e := range engineers {
		byLogin[e.Login] = e
	}

	out := Consolidated{Cells: make(map[Cell]int, len(rows))}
	columns := make(map[Column]bool)
	reported := make(map[string]bool)

	for _, row := range rows {
		col := Column{Company: row.Company, SLA: row.ProjectIDs}
		if !columns[col] {
			columns[col] = true
			out.Columns = append(out.Columns, col)
		}
		if !reported[row.ResourceLogin] {
			reported[row.ResourceLogin] = true
			out.Engineers = append(out.Engineers, Reporter{
				Name:  FullName(byLogin[row.ResourceLogin]),
				Login: row.ResourceLogin,
			})
		}
		out.Cells[Cell{Login: row.ResourceLogin, Column: col}] += row.UtilHours
	}

	for _, e := range engineers {
		if e.Active && e.Utilized && !reported[e.Login] {
			out.NotReported = append(out.NotReported, Reporter{Name: FullName(e), Login: e.Login})
		}
	}

	sort.Slice(out.Columns, func(i, j int) bool {
		a, b := out.Columns[i], out.Columns[j]
		if a.Company != b.Company {
			return a.Company > b.Company
		}
		return a.SLA < b.SLA
	})
	sortReporters(out.Engineers)
	sortReporters(out.NotReported)
	return out
}

// FullName joins surname, name and patronymic, skipping empty parts.
func FullName(e persistence.Engineer) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.Surname, e.Name, e.Patronymic} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func sortReporters(list []Reporter) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].Login < list[j].Login
	})
}
