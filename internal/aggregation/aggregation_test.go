package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
}

func post(id string, orgs []string, score, comments int, s *models.Sentiment) models.DiscussionRecord {
	return models.DiscussionRecord{
		ID:                   id,
		Channel:              "layoffs",
		Title:                "post " + id,
		CreatedAt:            date(11, 1),
		Score:                score,
		CommentCount:         comments,
		MatchedOrganizations: orgs,
		Sentiment:            s,
	}
}

func rowsByName(rows []models.OrganizationSummary) map[string]models.OrganizationSummary {
	out := make(map[string]models.OrganizationSummary, len(rows))
	for _, r := range rows {
		out[r.Organization] = r
	}
	return out
}

func TestCombine_OuterJoin(t *testing.T) {
	events := []models.ReferenceEvent{
		{Organization: "Alpha", Date: date(10, 1), Magnitude: 100},
		{Organization: "Beta", Date: date(10, 5), Magnitude: 50},
		{Organization: "Beta", Date: date(12, 5), Magnitude: 25},
	}
	neg := &models.Sentiment{Polarity: -0.4, Label: models.SentimentNegative}
	pos := &models.Sentiment{Polarity: 0.6, Label: models.SentimentPositive}
	records := []models.DiscussionRecord{
		post("1", []string{"Beta"}, 10, 4, neg),
		post("2", []string{"Beta", "Gamma"}, 20, 6, pos),
		post("3", []string{"Gamma"}, 30, 0, nil),
	}

	rows := Combine(events, records, []string{"Alpha", "Beta", "Gamma"})
	require.Len(t, rows, 3)

	byName := rowsByName(rows)

	alpha := byName["Alpha"]
	assert.Equal(t, 100, alpha.TotalMagnitude)
	assert.Equal(t, 1, alpha.EventCount)
	assert.Equal(t, 0, alpha.MentionCount)
	assert.Zero(t, alpha.AvgPolarity)

	beta := byName["Beta"]
	assert.Equal(t, 75, beta.TotalMagnitude)
	assert.Equal(t, 2, beta.EventCount)
	assert.Equal(t, date(10, 5), beta.FirstEventDate)
	assert.Equal(t, date(12, 5), beta.LastEventDate)
	assert.Equal(t, 2, beta.MentionCount)
	assert.Equal(t, 1, beta.PositiveCount)
	assert.Equal(t, 1, beta.NegativeCount)
	assert.InDelta(t, 0.1, beta.AvgPolarity, 1e-9)
	assert.InDelta(t, 15.0, beta.AvgScore, 1e-9)
	assert.InDelta(t, 5.0, beta.AvgCommentCount, 1e-9)

	gamma := byName["Gamma"]
	assert.Equal(t, 0, gamma.TotalMagnitude)
	assert.Equal(t, 0, gamma.EventCount)
	assert.False(t, gamma.HasEvents())
	assert.Equal(t, 2, gamma.MentionCount)
	assert.InDelta(t, 0.6, gamma.AvgPolarity, 1e-9)
	assert.InDelta(t, 25.0, gamma.AvgScore, 1e-9)

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, []string{rows[0].Organization, rows[1].Organization, rows[2].Organization})
}

func TestCombine_CaseInsensitiveKeyPrefersReferenceName(t *testing.T) {
	events := []models.ReferenceEvent{{Organization: "OpenAI", Date: date(9, 1), Magnitude: 10}}
	records := []models.DiscussionRecord{post("1", []string{"openai"}, 1, 1, nil)}

	rows := Combine(events, records, []string{"Openai"})
	require.Len(t, rows, 1)
	assert.Equal(t, "OpenAI", rows[0].Organization)
	assert.Equal(t, 1, rows[0].MentionCount)
	assert.Equal(t, 10, rows[0].TotalMagnitude)
}

func TestCombine_EmptyInputs(t *testing.T) {
	assert.Empty(t, Combine(nil, nil, []string{"Intel"}))

	rows := Combine(nil, []models.DiscussionRecord{post("1", []string{"Intel"}, 0, 0, nil)}, []string{"Intel", "Oracle"})
	require.Len(t, rows, 1)
	assert.Equal(t, "Intel", rows[0].Organization)
}

func TestCombine_DoesNotModifyInputs(t *testing.T) {
	events := []models.ReferenceEvent{{Organization: "Beta", Date: date(1, 1), Magnitude: 5}, {Organization: "Alpha", Date: date(1, 1), Magnitude: 9}}
	before := append([]models.ReferenceEvent(nil), events...)

	Combine(events, nil, nil)
	assert.Equal(t, before, events)
}

func TestSortRows(t *testing.T) {
	rows := []models.OrganizationSummary{
		{Organization: "b", TotalMagnitude: 10, MentionCount: 1},
		{Organization: "a", TotalMagnitude: 10, MentionCount: 1},
		{Organization: "c", TotalMagnitude: 10, MentionCount: 5},
		{Organization: "d", TotalMagnitude: 20},
	}
	SortRows(rows)

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Organization
	}
	assert.Equal(t, []string{"d", "c", "a", "b"}, names)
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name    string
		xs, ys  []float64
		defined bool
		value   float64
	}{
		{name: "Perfect positive", xs: []float64{1, 2, 3, 4}, ys: []float64{2, 4, 6, 8}, defined: true, value: 1},
		{name: "Perfect negative", xs: []float64{1, 2, 3}, ys: []float64{3, 2, 1}, defined: true, value: -1},
		{name: "Single point", xs: []float64{1}, ys: []float64{1}},
		{name: "No points"},
		{name: "Constant x", xs: []float64{5, 5, 5}, ys: []float64{1, 2, 3}},
		{name: "Constant y", xs: []float64{1, 2, 3}, ys: []float64{7, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Pearson(tt.xs, tt.ys)
			assert.Equal(t, tt.defined, c.Defined)
			if tt.defined {
				assert.InDelta(t, tt.value, c.Value, 1e-9)
			} else {
				assert.NotEmpty(t, c.Reason)
				assert.False(t, math.IsNaN(c.Value))
			}
		})
	}
}

func TestCorrelate_FallbackWithTooFewRows(t *testing.T) {
	rows := []models.OrganizationSummary{
		{Organization: "Only", TotalMagnitude: 100, MentionCount: 3},
		{Organization: "NoMentions", TotalMagnitude: 50},
	}

	results := Correlate(rows)
	require.Len(t, results, 4)
	for _, c := range results {
		assert.False(t, c.Defined)
		assert.Equal(t, 1, c.Points)

		_, err := Coefficient(c)
		assert.ErrorIs(t, err, ErrCorrelationUndefined)
	}
	assert.Equal(t, ColumnMagnitude, results[0].X)
	assert.Equal(t, ColumnMentions, results[0].Y)
	assert.Equal(t, ColumnPolarity, results[1].Y)
}

func TestCorrelate_OverlapOnly(t *testing.T) {
	rows := []models.OrganizationSummary{
		{Organization: "A", TotalMagnitude: 100, MentionCount: 10, AvgPolarity: -0.5, AvgScore: 40, AvgCommentCount: 12},
		{Organization: "B", TotalMagnitude: 50, MentionCount: 5, AvgPolarity: -0.2, AvgScore: 20, AvgCommentCount: 6},
		{Organization: "C", TotalMagnitude: 10, MentionCount: 1, AvgPolarity: 0.1, AvgScore: 4, AvgCommentCount: 3},
		{Organization: "Unmentioned", TotalMagnitude: 9000},
	}

	results := Correlate(rows)
	require.Len(t, results, 4)

	mentions, err := Coefficient(results[0])
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mentions, 1e-9)
	assert.Equal(t, 3, results[0].Points)

	polarity, err := Coefficient(results[1])
	require.NoError(t, err)
	assert.Less(t, polarity, -0.9)
}

func TestFitTrend(t *testing.T) {
	trend, err := FitTrend([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, trend.Slope, 1e-9)
	assert.InDelta(t, 1.0, trend.Intercept, 1e-9)
	assert.InDelta(t, 9.0, trend.At(4), 1e-9)

	_, err = FitTrend([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrCorrelationUndefined)

	_, err = FitTrend([]float64{2, 2}, []float64{1, 5})
	assert.ErrorIs(t, err, ErrCorrelationUndefined)
}

func TestMentionTrend(t *testing.T) {
	rows := []models.OrganizationSummary{
		{Organization: "A", TotalMagnitude: 1000, MentionCount: 20},
		{Organization: "B", TotalMagnitude: 500, MentionCount: 10},
		{Organization: "C", MentionCount: 99},
	}
	trend, err := MentionTrend(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, trend.Points)
	assert.InDelta(t, 0.02, trend.Slope, 1e-9)
}

func TestMonthlyComparison(t *testing.T) {
	records := []models.DiscussionRecord{
		{ID: "a", CreatedAt: date(10, 3)},
		{ID: "b", CreatedAt: date(10, 20)},
		{ID: "c", CreatedAt: date(12, 1)},
	}
	events := []models.ReferenceEvent{
		{Organization: "X", Date: date(10, 9), Magnitude: 300},
		{Organization: "Y", Date: date(11, 9), Magnitude: 200},
	}

	points := MonthlyComparison(records, events)
	assert.Equal(t, []MonthPoint{
		{Month: "2025-10", Posts: 2, Magnitude: 300},
		{Month: "2025-11", Posts: 0, Magnitude: 200},
		{Month: "2025-12", Posts: 1, Magnitude: 0},
	}, points)
}
