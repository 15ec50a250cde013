package reference

import (
	"sort"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

const monthLayout = "2006-01"

// LastMonths keeps events on or after now minus months*30 days
func LastMonths(events []models.ReferenceEvent, months int, now time.Time) []models.ReferenceEvent {
	if months <= 0 {
		return events
	}
	cutoff := now.AddDate(0, 0, -months*30)
	out := make([]models.ReferenceEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Date.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

// PivotRow is one organization across months
type PivotRow struct {
	Organization string `json:"company"`
	ByMonth      []int  `json:"by_month"`
	Total        int    `json:"total"`
}

// Pivot is an organization by month table of magnitudes
type Pivot struct {
	Months []string   `json:"months"`
	Rows   []PivotRow `json:"rows"`
}

// PivotByMonth sums magnitude per organization and month, keeping the topN
// organizations by total (0 keeps all)
func PivotByMonth(events []models.ReferenceEvent, topN int) Pivot {
	monthSet := make(map[string]struct{})
	cells := make(map[string]map[string]int)
	var orgs []string

	for _, ev := range events {
		month := ev.Date.Format(monthLayout)
		monthSet[month] = struct{}{}
		row, ok := cells[ev.Organization]
		if !ok {
			row = make(map[string]int)
			cells[ev.Organization] = row
			orgs = append(orgs, ev.Organization)
		}
		row[month] += ev.Magnitude
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)

	rows := make([]PivotRow, 0, len(orgs))
	for _, org := range orgs {
		row := PivotRow{Organization: org, ByMonth: make([]int, len(months))}
		for i, m := range months {
			row.ByMonth[i] = cells[org][m]
			row.Total += row.ByMonth[i]
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Organization < rows[j].Organization
	})
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	return Pivot{Months: months, Rows: rows}
}

// Total is a labelled magnitude with its share of the grand total
type Total struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MonthlyTotals sums magnitude per calendar month in month order
func MonthlyTotals(events []models.ReferenceEvent) []Total {
	totals := groupTotals(events, func(ev models.ReferenceEvent) string { return ev.Date.Format(monthLayout) })
	sort.Slice(totals, func(i, j int) bool { return totals[i].Key < totals[j].Key })
	return totals
}

// IndustryTotals sums magnitude per industry, largest first. Blank industries are "Unknown".
func IndustryTotals(events []models.ReferenceEvent) []Total {
	totals := groupTotals(events, func(ev models.ReferenceEvent) string {
		if strings.TrimSpace(ev.Industry) == "" {
			return "Unknown"
		}
		return ev.Industry
	})
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Count != totals[j].Count {
			return totals[i].Count > totals[j].Count
		}
		return totals[i].Key < totals[j].Key
	})
	return totals
}

// GrandTotal sums all magnitudes
func GrandTotal(events []models.ReferenceEvent) int {
	total := 0
	for _, ev := range events {
		total += ev.Magnitude
	}
	return total
}

func groupTotals(events []models.ReferenceEvent, key func(models.ReferenceEvent) string) []Total {
	sums := make(map[string]int)
	for _, ev := range events {
		sums[key(ev)] += ev.Magnitude
	}
	grand := GrandTotal(events)

	out := make([]Total, 0, len(sums))
	for k, v := range sums {
		t := Total{Key: k, Count: v}
		if grand > 0 {
			t.Percent = float64(v) / float64(grand) * 100
		}
		out = append(out, t)
	}
	return out
}
