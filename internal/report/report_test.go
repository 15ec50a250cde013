package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/aggregation"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/analysis"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStats(t *testing.T) {
	records := []models.DiscussionRecord{
		{ID: "1", Channel: "layoffs", Title: "Amazon again", Score: 50, CommentCount: 4, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), MatchedOrganizations: []string{"Amazon"}},
		{ID: "2", Channel: "jobs", Title: "Hiring thread", Score: 10, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, PostStats(&buf, analysis.SummarizePosts(records, nil)))
	out := buf.String()

	assert.Contains(t, out, "Total posts:   2")
	assert.Contains(t, out, "2026-01-02 to 2026-01-05")
	assert.Contains(t, out, "Avg score:     30.0")
	assert.Contains(t, out, "r/layoffs")
	assert.Contains(t, out, "Amazon")
	assert.Contains(t, out, "1.  [50]")
}

func TestPostStats_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PostStats(&buf, analysis.PostStats{}))
	assert.Contains(t, buf.String(), "No posts.")
}

func TestSentiment(t *testing.T) {
	records := []models.DiscussionRecord{
		{Channel: "layoffs", Sentiment: &models.Sentiment{Polarity: -0.5, Label: models.SentimentNegative}},
		{Channel: "layoffs", Sentiment: &models.Sentiment{Polarity: 0.5, Label: models.SentimentPositive}},
		{Channel: "jobs", Sentiment: &models.Sentiment{Polarity: -0.2, Label: models.SentimentNegative}},
		{Channel: "jobs", Sentiment: &models.Sentiment{Label: models.SentimentNeutral}},
	}

	var buf bytes.Buffer
	require.NoError(t, Sentiment(&buf, analysis.SummarizeSentiment(records)))
	out := buf.String()

	assert.Contains(t, out, "negative  2      50.0%")
	assert.Contains(t, out, "Avg polarity:     -0.050")
	assert.Less(t, strings.Index(out, "r/jobs"), strings.Index(out, "r/layoffs"))
}

func TestCombined(t *testing.T) {
	rows := make([]models.OrganizationSummary, 0, CombinedLimit+2)
	for i := 0; i < CombinedLimit+2; i++ {
		rows = append(rows, models.OrganizationSummary{Organization: "Org" + string(rune('A'+i)), TotalMagnitude: 1000 * (20 - i), EventCount: 1})
	}
	rows[0].MentionCount = 3
	rows[0].NegativeCount = 2
	rows[0].NeutralCount = 1

	correlations := []models.Correlation{
		{X: aggregation.ColumnMagnitude, Y: aggregation.ColumnMentions, Value: 0.83, Defined: true, Points: 5},
		{X: aggregation.ColumnMagnitude, Y: aggregation.ColumnPolarity, Reason: "zero variance in y", Points: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, Combined(&buf, rows, correlations))
	out := buf.String()

	assert.Contains(t, out, "20,000")
	assert.Contains(t, out, "negative")
	assert.NotContains(t, out, "OrgQ")
	assert.Contains(t, out, "... 2 more")
	assert.Contains(t, out, "+0.830 (n=5, strong)")
	assert.Contains(t, out, "undefined (zero variance in y)")
}

func TestLeaning(t *testing.T) {
	tests := []struct {
		name string
		row  models.OrganizationSummary
		want string
	}{
		{"no mentions", models.OrganizationSummary{}, "-"},
		{"negative", models.OrganizationSummary{MentionCount: 3, NegativeCount: 2, NeutralCount: 1}, "negative"},
		{"positive", models.OrganizationSummary{MentionCount: 2, PositiveCount: 2}, "positive"},
		{"mostly neutral", models.OrganizationSummary{MentionCount: 5, NegativeCount: 1, NeutralCount: 4}, "neutral"},
		{"tie", models.OrganizationSummary{MentionCount: 2, NegativeCount: 1, PositiveCount: 1}, "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Leaning(tt.row))
		})
	}
}

func TestPivotAndTotals(t *testing.T) {
	events := []models.ReferenceEvent{
		{Organization: "Amazon", Date: time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC), Magnitude: 14000, Industry: "Retail"},
		{Organization: "Intel", Date: time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), Magnitude: 16500},
	}

	var buf bytes.Buffer
	require.NoError(t, Pivot(&buf, reference.PivotByMonth(events, 0)))
	require.NoError(t, Totals(&buf, "BY INDUSTRY", reference.IndustryTotals(events)))
	out := buf.String()

	assert.Contains(t, out, "2025-07")
	assert.Contains(t, out, "16,500")
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, "54.1%")
}

func TestVerification(t *testing.T) {
	verified := []models.ReferenceEvent{{Organization: "Intel", Magnitude: 100}, {Organization: "Meta", Magnitude: 100}}
	compiled := []models.ReferenceEvent{{Organization: "Intel", Magnitude: 105}, {Organization: "Meta", Magnitude: 200}}

	var buf bytes.Buffer
	require.NoError(t, Verification(&buf, reference.Compare(verified, compiled)))
	out := buf.String()

	assert.Contains(t, out, "MATCH")
	assert.Contains(t, out, "OVERESTIMATED")
	assert.Contains(t, out, "Match rate: 1/2 (50%)")
}

func TestMentions(t *testing.T) {
	matrix := map[string]map[string]int{
		"2026-01": {"Amazon": 3, "Intel": 1},
		"2025-12": {"Intel": 1},
	}

	var buf bytes.Buffer
	require.NoError(t, Mentions(&buf, matrix))
	out := buf.String()

	assert.Less(t, strings.Index(out, "2025-12"), strings.Index(out, "2026-01"))
	assert.Less(t, strings.Index(out, "Amazon"), strings.Index(out, "Intel"))

	buf.Reset()
	require.NoError(t, Mentions(&buf, nil))
	assert.Contains(t, buf.String(), "No mentions.")
}

func TestMonthly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Monthly(&buf, []aggregation.MonthPoint{{Month: "2026-01", Posts: 12, Magnitude: 30000}}))
	assert.Contains(t, buf.String(), "30,000")
}
