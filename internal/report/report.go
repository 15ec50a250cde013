// Package report renders analysis results as plain-text tables for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/aggregation"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/analysis"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/reference"
)

// CombinedLimit is the number of rows printed from the combined table
const CombinedLimit = 15

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// Comma formats n with thousands separators
func Comma(n int) string {
	return humanize.Comma(int64(n))
}

// PostStats prints volume, engagement and mention counts
func PostStats(w io.Writer, stats analysis.PostStats) error {
	heading(w, "POST STATISTICS")
	if stats.TotalPosts == 0 {
		fmt.Fprintln(w, "No posts.")
		return nil
	}

	fmt.Fprintf(w, "Total posts:   %s\n", Comma(stats.TotalPosts))
	fmt.Fprintf(w, "Date range:    %s to %s\n", stats.Start.UTC().Format("2006-01-02"), stats.End.UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "Avg score:     %.1f\n", stats.AvgScore)
	fmt.Fprintf(w, "Avg comments:  %.1f\n", stats.AvgComments)

	fmt.Fprintln(w, "\nPosts by subreddit:")
	t := newTable(w)
	for _, c := range stats.ByChannel {
		fmt.Fprintf(t, "  r/%s\t%d\n", c.Name, c.Count)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	if len(stats.CompanyMentions) > 0 {
		fmt.Fprintln(w, "\nCompany mentions:")
		t = newTable(w)
		for _, c := range stats.CompanyMentions {
			fmt.Fprintf(t, "  %s\t%d\n", c.Name, c.Count)
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(stats.TopPosts) > 0 {
		fmt.Fprintln(w, "\nTop posts by score:")
		t = newTable(w)
		for i, p := range stats.TopPosts {
			fmt.Fprintf(t, "  %d.\t[%d]\tr/%s\t%s\n", i+1, p.Score, p.Channel, truncate(p.Title, 70))
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Sentiment prints the label distribution overall and per subreddit
func Sentiment(w io.Writer, s analysis.SentimentSummary) error {
	heading(w, "SENTIMENT")
	if s.Total == 0 {
		fmt.Fprintln(w, "No annotated posts.")
		return nil
	}

	t := newTable(w)
	fmt.Fprintln(t, "LABEL\tPOSTS\tSHARE")
	fmt.Fprintf(t, "positive\t%d\t%.1f%%\n", s.Positive, s.PositivePct)
	fmt.Fprintf(t, "neutral\t%d\t%.1f%%\n", s.Neutral, s.NeutralPct)
	fmt.Fprintf(t, "negative\t%d\t%.1f%%\n", s.Negative, s.NegativePct)
	if err := t.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nAvg polarity:     %+.3f\n", s.AvgPolarity)
	fmt.Fprintf(w, "Avg subjectivity: %.3f\n", s.AvgSubjectivity)

	channels := make([]string, 0, len(s.ByChannel))
	for ch := range s.ByChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	fmt.Fprintln(w)
	t = newTable(w)
	fmt.Fprintln(t, "SUBREDDIT\tPOSITIVE\tNEUTRAL\tNEGATIVE\tAVG POLARITY")
	for _, ch := range channels {
		share := s.ByChannel[ch]
		fmt.Fprintf(t, "r/%s\t%.1f%%\t%.1f%%\t%.1f%%\t%+.3f\n",
			ch, share.PositivePct, share.NeutralPct, share.NegativePct, share.AvgPolarity)
	}
	return t.Flush()
}

// Combined prints the top rows of the combined table followed by the correlations
func Combined(w io.Writer, rows []models.OrganizationSummary, correlations []models.Correlation) error {
	heading(w, "LAYOFFS VS REDDIT DISCUSSION")

	t := newTable(w)
	fmt.Fprintln(t, "COMPANY\tLAID OFF\tEVENTS\tMENTIONS\tSENTIMENT\tAVG POLARITY")
	for i, r := range rows {
		if i >= CombinedLimit {
			break
		}
		fmt.Fprintf(t, "%s\t%s\t%d\t%d\t%s\t%+.3f\n",
			r.Organization, Comma(r.TotalMagnitude), r.EventCount, r.MentionCount, Leaning(r), r.AvgPolarity)
	}
	if err := t.Flush(); err != nil {
		return err
	}
	if len(rows) > CombinedLimit {
		fmt.Fprintf(w, "... %d more\n", len(rows)-CombinedLimit)
	}

	fmt.Fprintf(w, "\nCompanies with both layoffs and mentions: %d\n", len(aggregation.Overlap(rows)))
	fmt.Fprintln(w, "\nCorrelations:")
	t = newTable(w)
	for _, c := range correlations {
		fmt.Fprintf(t, "  %s vs %s\t%s\n", c.X, c.Y, Correlation(c))
	}
	return t.Flush()
}

// Leaning is the dominant sentiment word of a row, ties read as neutral
func Leaning(r models.OrganizationSummary) string {
	switch {
	case r.MentionCount == 0:
		return "-"
	case r.NegativeCount > r.PositiveCount && r.NegativeCount >= r.NeutralCount:
		return "negative"
	case r.PositiveCount > r.NegativeCount && r.PositiveCount >= r.NeutralCount:
		return "positive"
	default:
		return "neutral"
	}
}

// Correlation formats a coefficient, or the reason it is undefined
func Correlation(c models.Correlation) string {
	if !c.Defined {
		return "undefined (" + c.Reason + ")"
	}
	return fmt.Sprintf("%+.3f (n=%d, %s)", c.Value, c.Points, strength(c.Value))
}

func strength(r float64) string {
	if r < 0 {
		r = -r
	}
	switch {
	case r >= 0.7:
		return "strong"
	case r >= 0.4:
		return "moderate"
	case r >= 0.2:
		return "weak"
	default:
		return "negligible"
	}
}

// Monthly prints discussion volume next to reported layoffs per month
func Monthly(w io.Writer, points []aggregation.MonthPoint) error {
	heading(w, "MONTHLY TIMELINE")
	t := newTable(w)
	fmt.Fprintln(t, "MONTH\tPOSTS\tLAID OFF")
	for _, p := range points {
		fmt.Fprintf(t, "%s\t%d\t%s\n", p.Month, p.Posts, Comma(p.Magnitude))
	}
	return t.Flush()
}

// Mentions prints a month by organization mention matrix, busiest organizations first
func Mentions(w io.Writer, matrix map[string]map[string]int) error {
	heading(w, "MONTHLY MENTIONS")
	if len(matrix) == 0 {
		fmt.Fprintln(w, "No mentions.")
		return nil
	}

	months := make([]string, 0, len(matrix))
	totals := make(map[string]int)
	for month, row := range matrix {
		months = append(months, month)
		for org, n := range row {
			totals[org] += n
		}
	}
	sort.Strings(months)

	orgs := make([]string, 0, len(totals))
	for org := range totals {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool {
		if totals[orgs[i]] != totals[orgs[j]] {
			return totals[orgs[i]] > totals[orgs[j]]
		}
		return orgs[i] < orgs[j]
	})

	t := newTable(w)
	fmt.Fprintf(t, "COMPANY\t%s\tTOTAL\n", strings.Join(months, "\t"))
	for _, org := range orgs {
		cells := make([]string, len(months))
		for i, m := range months {
			cells[i] = fmt.Sprintf("%d", matrix[m][org])
		}
		fmt.Fprintf(t, "%s\t%s\t%d\n", org, strings.Join(cells, "\t"), totals[org])
	}
	return t.Flush()
}

// Pivot prints an organization by month magnitude table
func Pivot(w io.Writer, p reference.Pivot) error {
	heading(w, "LAYOFFS BY COMPANY AND MONTH")
	if len(p.Rows) == 0 {
		fmt.Fprintln(w, "No events.")
		return nil
	}

	t := newTable(w)
	fmt.Fprintf(t, "COMPANY\t%s\tTOTAL\n", strings.Join(p.Months, "\t"))
	for _, row := range p.Rows {
		cells := make([]string, len(row.ByMonth))
		for i, v := range row.ByMonth {
			if v == 0 {
				cells[i] = "-"
			} else {
				cells[i] = Comma(v)
			}
		}
		fmt.Fprintf(t, "%s\t%s\t%s\n", row.Organization, strings.Join(cells, "\t"), Comma(row.Total))
	}
	return t.Flush()
}

// Totals prints labelled totals with their share of the grand total
func Totals(w io.Writer, title string, totals []reference.Total) error {
	heading(w, title)
	t := newTable(w)
	for _, tot := range totals {
		fmt.Fprintf(t, "%s\t%s\t%.1f%%\n", tot.Key, Comma(tot.Count), tot.Percent)
	}
	return t.Flush()
}

// Verification prints a verified versus compiled comparison and the match rate
func Verification(w io.Writer, comparisons []reference.Comparison) error {
	heading(w, "VERIFIED VS COMPILED")
	t := newTable(w)
	fmt.Fprintln(t, "COMPANY\tVERIFIED\tCOMPILED\tDIFF\tDIFF %\tSTATUS")
	for _, c := range comparisons {
		fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%+.1f%%\t%s\n",
			c.Organization, Comma(c.VerifiedCount), Comma(c.CompiledCount), Comma(c.Difference), c.PercentDiff, c.Status)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	matches, total := reference.MatchRate(comparisons)
	rate := 0.0
	if total > 0 {
		rate = float64(matches) / float64(total) * 100
	}
	fmt.Fprintf(w, "\nMatch rate: %d/%d (%.0f%%)\n", matches, total, rate)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
