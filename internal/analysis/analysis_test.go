package analysis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Match(t *testing.T) {
	orgs := []string{"AMD", "Amazon", "Meta", "HP", "Goldman Sachs", "Booking.com", "C++ Inc", "AT&T"}

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "Whole word", text: "AMD announced layoffs", expected: []string{"AMD"}},
		{name: "Embedded in longer token", text: "AMDahl released a report", expected: nil},
		{name: "Case insensitive", text: "amazon cuts 14,000 jobs", expected: []string{"Amazon"}},
		{name: "Possessive", text: "Meta's new round of cuts", expected: []string{"Meta"}},
		{name: "Prefix of another word", text: "metadata pipeline team", expected: nil},
		{name: "Digit suffix is part of the token", text: "HP2 firmware", expected: nil},
		{name: "Underscore is part of the token", text: "hp_internal memo", expected: nil},
		{name: "Multi word name", text: "goldman sachs trims staff", expected: []string{"Goldman Sachs"}},
		{name: "Dot escaped", text: "bookingxcom is not a site", expected: nil},
		{name: "Dot literal", text: "Booking.com layoffs", expected: []string{"Booking.com"}},
		{name: "Regex metacharacters", text: "c++ inc shuts office", expected: []string{"C++ Inc"}},
		{name: "Ampersand", text: "AT&T, Amazon and HP", expected: []string{"Amazon", "HP", "AT&T"}},
		{name: "Start and end of text", text: "hp", expected: []string{"HP"}},
		{name: "Empty text", text: "", expected: nil},
		{name: "Whitespace only", text: "   ", expected: nil},
	}

	extractor := NewExtractor(orgs)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractor.Match(tt.text))
		})
	}
}

func TestExtractor_DropsBlankAndDuplicateNames(t *testing.T) {
	extractor := NewExtractor([]string{"Intel", "", "intel", "  ", "Oracle"})
	assert.Equal(t, []string{"Intel", "Oracle"}, extractor.Organizations())
	assert.Equal(t, []string{"Intel"}, Match("INTEL layoffs", []string{"Intel"}))
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		polarity float64
		expected models.SentimentLabel
	}{
		{1, models.SentimentPositive},
		{0.1000001, models.SentimentPositive},
		{0.1, models.SentimentNeutral},
		{0, models.SentimentNeutral},
		{-0.1, models.SentimentNeutral},
		{-0.1000001, models.SentimentNegative},
		{-1, models.SentimentNegative},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.polarity), func(t *testing.T) {
			assert.Equal(t, tt.expected, LabelFor(tt.polarity))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name     string
		text     string
		expected models.SentimentLabel
	}{
		{name: "Positive", text: "I love this team, the new job is great and wonderful!", expected: models.SentimentPositive},
		{name: "Negative", text: "This is terrible. I hate these awful layoffs.", expected: models.SentimentNegative},
		{name: "Neutral", text: "The meeting is on Tuesday", expected: models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := classifier.Classify(tt.text)
			assert.Equal(t, tt.expected, s.Label)
			assert.Equal(t, LabelFor(s.Polarity), s.Label)
			assert.GreaterOrEqual(t, s.Polarity, -1.0)
			assert.LessOrEqual(t, s.Polarity, 1.0)
			assert.GreaterOrEqual(t, s.Subjectivity, 0.0)
			assert.LessOrEqual(t, s.Subjectivity, 1.0)
		})
	}
}

func TestClassifier_EmptyText(t *testing.T) {
	s := NewClassifier().Classify("")
	assert.Equal(t, models.Sentiment{Polarity: 0, Subjectivity: 0, Label: models.SentimentNeutral}, s)
}

type fixedScorer map[string][2]float64

func (f fixedScorer) Score(text string) (float64, float64) {
	v := f[text]
	return v[0], v[1]
}

func TestClassifier_CustomScorer(t *testing.T) {
	classifier := NewClassifierWithScorer(fixedScorer{"up": {0.5, 0.4}, "flat": {0.1, 0.2}})

	up := classifier.Classify("up")
	assert.Equal(t, models.SentimentPositive, up.Label)
	assert.Equal(t, 0.4, up.Subjectivity)

	flat := classifier.Classify("flat")
	assert.Equal(t, models.SentimentNeutral, flat.Label)
}

func TestAnnotate(t *testing.T) {
	records := make([]models.DiscussionRecord, 200)
	for i := range records {
		records[i] = models.DiscussionRecord{ID: fmt.Sprintf("p%d", i), Title: "Oracle layoffs", Body: "great news"}
		if i%2 == 1 {
			records[i].Title = "Weekend thread"
			records[i].Body = ""
		}
	}

	scorer := fixedScorer{"Oracle layoffs great news": {-0.5, 0.6}, "Weekend thread": {0, 0}}
	err := Annotate(context.Background(), records, NewExtractor([]string{"Oracle", "Intel"}), NewClassifierWithScorer(scorer), 8)
	require.NoError(t, err)

	for i, r := range records {
		require.NotNil(t, r.Sentiment, "record %d", i)
		if i%2 == 0 {
			assert.Equal(t, []string{"Oracle"}, r.MatchedOrganizations)
			assert.Equal(t, models.SentimentNegative, r.Sentiment.Label)
		} else {
			assert.Empty(t, r.MatchedOrganizations)
			assert.Equal(t, models.SentimentNeutral, r.Sentiment.Label)
		}
	}
}

func TestAnnotate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []models.DiscussionRecord{{ID: "a", Title: "Intel"}}
	err := Annotate(ctx, records, NewExtractor([]string{"Intel"}), NewClassifierWithScorer(fixedScorer{}), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func record(id, channel string, day int, score, comments int, orgs []string, label models.SentimentLabel, polarity float64) models.DiscussionRecord {
	return models.DiscussionRecord{
		ID:                   id,
		Channel:              channel,
		Title:                "title " + id,
		CreatedAt:            time.Date(2026, 1, day, 12, 0, 0, 0, time.UTC),
		Score:                score,
		CommentCount:         comments,
		MatchedOrganizations: orgs,
		Sentiment:            &models.Sentiment{Polarity: polarity, Subjectivity: 0.5, Label: label},
	}
}

func TestSummarizePosts(t *testing.T) {
	records := []models.DiscussionRecord{
		record("a", "layoffs", 3, 10, 4, []string{"Amazon"}, models.SentimentNegative, -0.5),
		record("b", "layoffs", 1, 30, 2, []string{"Amazon", "Meta"}, models.SentimentPositive, 0.5),
		record("c", "technology", 3, 20, 0, []string{}, models.SentimentNeutral, 0),
	}

	stats := SummarizePosts(records, nil)

	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 1, stats.Start.Day())
	assert.Equal(t, 3, stats.End.Day())
	assert.InDelta(t, 20.0, stats.AvgScore, 1e-9)
	assert.InDelta(t, 2.0, stats.AvgComments, 1e-9)
	assert.Equal(t, []Count{{"layoffs", 2}, {"technology", 1}}, stats.ByChannel)
	assert.Equal(t, []Count{{"Amazon", 2}, {"Meta", 1}}, stats.CompanyMentions)
	assert.Equal(t, []Count{{"2026-01-01", 1}, {"2026-01-03", 2}}, stats.PostsByDay)
	require.Len(t, stats.TopPosts, 3)
	assert.Equal(t, "b", stats.TopPosts[0].ID)
}

func TestSummarizePosts_UsesExtractorWhenNotAnnotated(t *testing.T) {
	records := []models.DiscussionRecord{{ID: "a", Title: "Intel cuts", CreatedAt: time.Now()}}
	stats := SummarizePosts(records, NewExtractor([]string{"Intel"}))
	assert.Equal(t, []Count{{"Intel", 1}}, stats.CompanyMentions)
}

func TestSummarizeSentiment(t *testing.T) {
	records := []models.DiscussionRecord{
		record("a", "layoffs", 1, 0, 0, nil, models.SentimentNegative, -0.6),
		record("b", "layoffs", 1, 0, 0, nil, models.SentimentPositive, 0.4),
		record("c", "jobs", 1, 0, 0, nil, models.SentimentNeutral, 0.0),
		{ID: "d", Channel: "jobs"},
	}

	summary := SummarizeSentiment(records)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Positive)
	assert.Equal(t, 1, summary.Negative)
	assert.Equal(t, 1, summary.Neutral)
	assert.InDelta(t, 100.0/3, summary.PositivePct, 1e-9)
	assert.InDelta(t, -0.2/3, summary.AvgPolarity, 1e-9)
	assert.InDelta(t, 0.5, summary.AvgSubjectivity, 1e-9)
	assert.InDelta(t, 50.0, summary.ByChannel["layoffs"].NegativePct, 1e-9)
	assert.Equal(t, 1, summary.ByChannel["jobs"].Neutral)
}

func TestMonthlyMentions(t *testing.T) {
	at := func(month time.Month) time.Time { return time.Date(2025, month, 10, 0, 0, 0, 0, time.UTC) }
	records := []models.DiscussionRecord{
		{ID: "a", CreatedAt: at(10), MatchedOrganizations: []string{"Amazon"}},
		{ID: "b", CreatedAt: at(11), MatchedOrganizations: []string{"Amazon", "Intel"}},
		{ID: "c", CreatedAt: at(12), MatchedOrganizations: []string{"Intel"}},
		{ID: "d", CreatedAt: at(12)},
	}

	all := MonthlyMentions(records, 0)
	assert.Len(t, all, 3)

	recent := MonthlyMentions(records, 2)
	assert.Equal(t, map[string]map[string]int{
		"2025-11": {"Amazon": 1, "Intel": 1},
		"2025-12": {"Intel": 1},
	}, recent)
}
