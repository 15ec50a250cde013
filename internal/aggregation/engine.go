// Package aggregation reconciles reference layoff events with annotated
// discussion records into one per-organization table.
package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

type referenceSide struct {
	display string
	total   int
	first   time.Time
	last    time.Time
	events  int
}

type discussionSide struct {
	display    string
	mentions   int
	positive   int
	neutral    int
	negative   int
	polarity   float64
	scored     int // records that carried a sentiment
	scoreSum   int
	commentSum int
}

// Combine builds one row per organization present in either input.
// Absent metrics are zero. Inputs are not modified.
func Combine(events []models.ReferenceEvent, records []models.DiscussionRecord, organizations []string) []models.OrganizationSummary {
	refs := groupEvents(events)
	discs := groupDiscussions(records, organizations)

	keys := make(map[string]struct{}, len(refs)+len(discs))
	for k := range refs {
		keys[k] = struct{}{}
	}
	for k := range discs {
		keys[k] = struct{}{}
	}

	rows := make([]models.OrganizationSummary, 0, len(keys))
	for key := range keys {
		ref, hasRef := refs[key]
		disc, hasDisc := discs[key]

		row := models.OrganizationSummary{}
		if hasRef {
			row.Organization = ref.display
			row.TotalMagnitude = ref.total
			row.FirstEventDate = ref.first
			row.LastEventDate = ref.last
			row.EventCount = ref.events
		}
		if hasDisc {
			if !hasRef {
				row.Organization = disc.display
			}
			row.MentionCount = disc.mentions
			row.PositiveCount = disc.positive
			row.NeutralCount = disc.neutral
			row.NegativeCount = disc.negative
			if disc.scored > 0 {
				row.AvgPolarity = disc.polarity / float64(disc.scored)
			}
			row.AvgScore = float64(disc.scoreSum) / float64(disc.mentions)
			row.AvgCommentCount = float64(disc.commentSum) / float64(disc.mentions)
		}
		rows = append(rows, row)
	}

	SortRows(rows)
	return rows
}

// SortRows orders by total magnitude, then mentions, both descending, then name
func SortRows(rows []models.OrganizationSummary) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalMagnitude != rows[j].TotalMagnitude {
			return rows[i].TotalMagnitude > rows[j].TotalMagnitude
		}
		if rows[i].MentionCount != rows[j].MentionCount {
			return rows[i].MentionCount > rows[j].MentionCount
		}
		return rows[i].Organization < rows[j].Organization
	})
}

func groupEvents(events []models.ReferenceEvent) map[string]*referenceSide {
	groups := make(map[string]*referenceSide)
	for _, ev := range events {
		if strings.TrimSpace(ev.Organization) == "" {
			continue
		}
		key := canonicalKey(ev.Organization)
		g, ok := groups[key]
		if !ok {
			g = &referenceSide{display: ev.Organization, first: ev.Date, last: ev.Date}
			groups[key] = g
		}
		g.total += ev.Magnitude
		g.events++
		if ev.Date.Before(g.first) {
			g.first = ev.Date
		}
		if ev.Date.After(g.last) {
			g.last = ev.Date
		}
	}
	return groups
}

func groupDiscussions(records []models.DiscussionRecord, organizations []string) map[string]*discussionSide {
	groups := make(map[string]*discussionSide)
	for _, org := range organizations {
		key := canonicalKey(org)
		if key == "" {
			continue
		}
		if _, dup := groups[key]; dup {
			continue
		}

		side := &discussionSide{display: org}
		for _, r := range records {
			if !r.Mentions(org) {
				continue
			}
			side.mentions++
			side.scoreSum += r.Score
			side.commentSum += r.CommentCount
			if r.Sentiment == nil {
				continue
			}
			side.scored++
			side.polarity += r.Sentiment.Polarity
			switch r.Sentiment.Label {
			case models.SentimentPositive:
				side.positive++
			case models.SentimentNegative:
				side.negative++
			default:
				side.neutral++
			}
		}

		if side.mentions > 0 {
			groups[key] = side
		}
	}
	return groups
}

func canonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Overlap returns rows with both reference and discussion data
func Overlap(rows []models.OrganizationSummary) []models.OrganizationSummary {
	var out []models.OrganizationSummary
	for _, r := range rows {
		if r.TotalMagnitude > 0 && r.MentionCount > 0 {
			out = append(out, r)
		}
	}
	return out
}

// MonthPoint is discussion volume and layoff magnitude for one calendar month
type MonthPoint struct {
	Month     string `json:"month"`
	Posts     int    `json:"posts"`
	Magnitude int    `json:"laid_off"`
}

// MonthlyComparison lines up posts per month against reference magnitude per month
func MonthlyComparison(records []models.DiscussionRecord, events []models.ReferenceEvent) []MonthPoint {
	points := make(map[string]*MonthPoint)
	get := func(month string) *MonthPoint {
		p, ok := points[month]
		if !ok {
			p = &MonthPoint{Month: month}
			points[month] = p
		}
		return p
	}

	for _, r := range records {
		get(r.CreatedAt.UTC().Format("2006-01")).Posts++
	}
	for _, ev := range events {
		get(ev.Date.Format("2006-01")).Magnitude += ev.Magnitude
	}

	out := make([]MonthPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
