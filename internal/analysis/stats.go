package analysis

import (
	"sort"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

const (
	topMentionLimit = 20
	topPostLimit    = 10
)

// Count is a name with a tally
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PostStats summarizes a scrape
type PostStats struct {
	TotalPosts      int                       `json:"total_posts"`
	Start           time.Time                 `json:"start"`
	End             time.Time                 `json:"end"`
	AvgScore        float64                   `json:"avg_score"`
	AvgComments     float64                   `json:"avg_comments"`
	ByChannel       []Count                   `json:"subreddit_breakdown"`
	CompanyMentions []Count                   `json:"company_mentions"`
	PostsByDay      []Count                   `json:"posts_by_day"`
	TopPosts        []models.DiscussionRecord `json:"top_posts"`
}

// SummarizePosts computes volume, engagement and mention statistics.
// Mentions come from MatchedOrganizations when set, otherwise extractor is applied.
func SummarizePosts(records []models.DiscussionRecord, extractor *Extractor) PostStats {
	stats := PostStats{TotalPosts: len(records)}
	if len(records) == 0 {
		return stats
	}

	channels := make(map[string]int)
	mentions := make(map[string]int)
	days := make(map[string]int)
	var scoreSum, commentSum int

	for i, r := range records {
		if i == 0 || r.CreatedAt.Before(stats.Start) {
			stats.Start = r.CreatedAt
		}
		if i == 0 || r.CreatedAt.After(stats.End) {
			stats.End = r.CreatedAt
		}
		scoreSum += r.Score
		commentSum += r.CommentCount
		channels[r.Channel]++
		days[r.CreatedAt.UTC().Format("2006-01-02")]++

		found := r.MatchedOrganizations
		if found == nil && extractor != nil {
			found = extractor.Match(r.Text())
		}
		for _, org := range found {
			mentions[org]++
		}
	}

	n := float64(len(records))
	stats.AvgScore = float64(scoreSum) / n
	stats.AvgComments = float64(commentSum) / n
	stats.ByChannel = sortedCounts(channels, 0)
	stats.CompanyMentions = sortedCounts(mentions, topMentionLimit)

	stats.PostsByDay = sortedCounts(days, 0)
	sort.Slice(stats.PostsByDay, func(i, j int) bool {
		return stats.PostsByDay[i].Name < stats.PostsByDay[j].Name
	})

	top := make([]models.DiscussionRecord, len(records))
	copy(top, records)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > topPostLimit {
		top = top[:topPostLimit]
	}
	stats.TopPosts = top

	return stats
}

// LabelShare is a bucket breakdown with percentages
type LabelShare struct {
	Positive    int     `json:"positive"`
	Neutral     int     `json:"neutral"`
	Negative    int     `json:"negative"`
	PositivePct float64 `json:"positive_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
	NegativePct float64 `json:"negative_pct"`
	AvgPolarity float64 `json:"avg_polarity"`
}

// SentimentSummary is the sentiment distribution of a record set
type SentimentSummary struct {
	LabelShare

	Total           int                   `json:"total_posts"`
	AvgSubjectivity float64               `json:"avg_subjectivity"`
	ByChannel       map[string]LabelShare `json:"by_subreddit"`
}

// SummarizeSentiment aggregates labels over annotated records. Records without
// sentiment are skipped.
func SummarizeSentiment(records []models.DiscussionRecord) SentimentSummary {
	summary := SentimentSummary{ByChannel: make(map[string]LabelShare)}

	var overall shareAccumulator
	var subjectivity float64
	perChannel := make(map[string]*shareAccumulator)

	for _, r := range records {
		if r.Sentiment == nil {
			continue
		}
		overall.add(*r.Sentiment)
		subjectivity += r.Sentiment.Subjectivity

		acc, ok := perChannel[r.Channel]
		if !ok {
			acc = &shareAccumulator{}
			perChannel[r.Channel] = acc
		}
		acc.add(*r.Sentiment)
	}

	summary.Total = overall.total
	summary.LabelShare = overall.share()
	if overall.total > 0 {
		summary.AvgSubjectivity = subjectivity / float64(overall.total)
	}
	for channel, acc := range perChannel {
		summary.ByChannel[channel] = acc.share()
	}
	return summary
}

type shareAccumulator struct {
	total, positive, neutral, negative int
	polarity                           float64
}

func (a *shareAccumulator) add(s models.Sentiment) {
	a.total++
	a.polarity += s.Polarity
	switch s.Label {
	case models.SentimentPositive:
		a.positive++
	case models.SentimentNegative:
		a.negative++
	default:
		a.neutral++
	}
}

func (a *shareAccumulator) share() LabelShare {
	if a.total == 0 {
		return LabelShare{}
	}
	n := float64(a.total)
	return LabelShare{
		Positive:    a.positive,
		Neutral:     a.neutral,
		Negative:    a.negative,
		PositivePct: float64(a.positive) / n * 100,
		NeutralPct:  float64(a.neutral) / n * 100,
		NegativePct: float64(a.negative) / n * 100,
		AvgPolarity: a.polarity / n,
	}
}

// MonthlyMentions counts matched organizations per calendar month ("2006-01"),
// limited to the most recent lastMonths months present in the data (0 for all).
func MonthlyMentions(records []models.DiscussionRecord, lastMonths int) map[string]map[string]int {
	matrix := make(map[string]map[string]int)
	for _, r := range records {
		if len(r.MatchedOrganizations) == 0 {
			continue
		}
		month := r.CreatedAt.UTC().Format("2006-01")
		row, ok := matrix[month]
		if !ok {
			row = make(map[string]int)
			matrix[month] = row
		}
		for _, org := range r.MatchedOrganizations {
			row[org]++
		}
	}

	if lastMonths > 0 && len(matrix) > lastMonths {
		months := make([]string, 0, len(matrix))
		for m := range matrix {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months[:len(months)-lastMonths] {
			delete(matrix, m)
		}
	}
	return matrix
}

// sortedCounts orders by count descending then name, truncated to limit when limit > 0
func sortedCounts(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for name, count := range m {
		out = append(out, Count{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
