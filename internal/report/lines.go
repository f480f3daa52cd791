package report

import (
	"sort"
	"time"

	"github.com/example/erm/internal/persistence"
)

// Status tells how a report line relates to the engineer's bookings.
type Status string

const (
	// StatusEdited marks a saved line that differs from what bookings give.
	StatusEdited Status = "edited"
	// StatusNotEdited marks a saved line identical to a derived one.
	StatusNotEdited Status = "not_edited"
	// StatusNew marks a derived line with no saved counterpart.
	StatusNew Status = "new"
)

// Line is one (company, sla) row of an individual work report.
type Line struct {
	Company   string `json:"company"`
	SLA       string `json:"sla"`
	UtilHours int    `json:"util_hours"`
	Status    Status `json:"status,omitempty"`
}

func (l Line) key() [2]string {
	return [2]string{l.Company, l.SLA}
}

func (l Line) sameAs(other Line) bool {
	return l.Company == other.Company && l.SLA == other.SLA && l.UtilHours == other.UtilHours
}

// FromBookings groups bookings by company and sla and sums their durations.
// Each group's total is truncated to whole hours.
func FromBookings(bookings []persistence.Booking) []Line {
	totals := make(map[[2]string]time.Duration)
	for _, b := range bookings {
		k := [2]string{b.Company, b.SLA}
		totals[k] += b.End.Sub(b.Start)
	}

	lines := make([]Line, 0, len(totals))
	for k, total := range totals {
		lines = append(lines, Line{Company: k[0], SLA: k[1], UtilHours: int(total.Hours())})
	}
	sortLines(lines)
	return lines
}

// FromRows converts saved rows into report lines.
func FromRows(rows []persistence.WorkReportRow) []Line {
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, Line{Company: row.Company, SLA: row.ProjectIDs, UtilHours: row.UtilHours})
	}
	sortLines(lines)
	return lines
}

// ToRows converts lines into rows for storage. Status is dropped.
func ToRows(lines []Line) []persistence.WorkReportRow {
	rows := make([]persistence.WorkReportRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, persistence.WorkReportRow{
			Company:    line.Company,
			ProjectIDs: line.SLA,
			UtilHours:  line.UtilHours,
		})
	}
	return rows
}

// Merge marks each saved line as edited or not_edited against derived and
// appends the derived lines whose (company, sla) was never saved as new.
func Merge(saved, derived []Line) []Line {
	out := make([]Line, 0, len(saved)+len(derived))
	savedKeys := make(map[[2]string]bool, len(saved))

	for _, line := range saved {
		savedKeys[line.key()] = true
		line.Status = StatusEdited
		for _, d := range derived {
			if line.sameAs(d) {
				line.Status = StatusNotEdited
				break
			}
		}
		out = append(out, line)
	}

	for _, line := range derived {
		if savedKeys[line.key()] {
			continue
		}
		line.Status = StatusNew
		out = append(out, line)
	}
	return out
}

// HasNewTasks reports whether any line is marked new.
func HasNewTasks(lines []Line) bool {
	for _, line := range lines {
		if line.Status == StatusNew {
			return true
		}
	}
	return false
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Company != lines[j].Company {
			return lines[i].Company < lines[j].Company
		}
		return lines[i].SLA < lines[j].SLA
	})
}
