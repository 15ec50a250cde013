package reference

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

const dateLayout = "2006-01-02"

// ErrMissingColumns is returned when a table lacks organization, date or count columns
var ErrMissingColumns = errors.New("reference table is missing required columns")

// columnAliases maps normalized source headers onto canonical names
var columnAliases = map[string]string{
	"#_laid_off":        "laid_off_count",
	"total_laid_off":    "laid_off_count",
	"number_of_layoffs": "laid_off_count",
	"layoffs":           "laid_off_count",
	"employees":         "laid_off_count",
	"location_hq":       "location",
	"headquarters":      "location",
	"date_added":        "date",
	"organization":      "company",
}

var dateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// NormalizeHeader trims, lowercases and replaces spaces with underscores
func NormalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Clean converts a raw table into events. Headers are normalized and aliased;
// an alias never replaces a canonical column already present. Rows missing
// organization, date or count are dropped.
func Clean(header []string, rows [][]string, source string) ([]models.ReferenceEvent, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	for i, h := range header {
		name := NormalizeHeader(h)
		canonical, ok := columnAliases[name]
		if !ok {
			continue
		}
		if _, exists := index[canonical]; !exists {
			index[canonical] = i
		}
	}

	orgCol, hasOrg := index["company"]
	dateCol, hasDate := index["date"]
	countCol, hasCount := index["laid_off_count"]
	if !hasOrg || !hasDate || !hasCount {
		return nil, ErrMissingColumns
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	events := make([]models.ReferenceEvent, 0, len(rows))
	for _, row := range rows {
		if orgCol >= len(row) || dateCol >= len(row) || countCol >= len(row) {
			continue
		}
		org := strings.TrimSpace(row[orgCol])
		if org == "" {
			continue
		}
		date, ok := ParseDate(row[dateCol])
		if !ok {
			continue
		}
		count, ok := ParseCount(row[countCol])
		if !ok {
			continue
		}

		ev := models.ReferenceEvent{
			Organization: org,
			Date:         date,
			Magnitude:    count,
			Industry:     cell(row, "industry"),
			Location:     cell(row, "location"),
			Source:       source,
		}
		if s := cell(row, "source"); s != "" {
			ev.Source = s
		}
		ev.Verified, _ = strconv.ParseBool(cell(row, "verified"))
		events = append(events, ev)
	}
	return events, nil
}

// ParseDate accepts the date formats seen in public layoff tables
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseCount strips thousands separators and accepts integral floats like "1500.0"
func ParseCount(s string) (int, bool) {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}
