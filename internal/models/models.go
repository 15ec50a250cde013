package models

import (
	"strings"
	"time"
)

// SentimentLabel is the bucket a polarity score falls into
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment holds the lexicon scores computed for a piece of text
type Sentiment struct {
	Polarity     float64        `json:"polarity"`     // [-1, 1]
	Subjectivity float64        `json:"subjectivity"` // [0, 1]
	Label        SentimentLabel `json:"label"`
}

// DiscussionRecord is one post pulled from a channel listing
type DiscussionRecord struct {
	ID           string    `json:"id"`
	Channel      string    `json:"subreddit"`
	Title        string    `json:"title"`
	Body         string    `json:"selftext"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_utc"`
	Score        int       `json:"score"`
	UpvoteRatio  *float64  `json:"upvote_ratio,omitempty"` // nil when the provider does not report it
	CommentCount int       `json:"num_comments"`
	URL          string    `json:"url"`
	Permalink    string    `json:"permalink"`
	IsSelf       bool      `json:"is_self"`
	Flair        string    `json:"flair,omitempty"`

	// Derived during annotation
	MatchedOrganizations []string   `json:"matched_organizations,omitempty"`
	Sentiment            *Sentiment `json:"sentiment,omitempty"`
}

// Key returns the record identity within a run
func (d DiscussionRecord) Key() string {
	return d.Channel + "/" + d.ID
}

// Text is the content used for extraction and sentiment
func (d DiscussionRecord) Text() string {
	if d.Body == "" {
		return d.Title
	}
	return d.Title + " " + d.Body
}

// Mentions reports whether the record matched the given organization
func (d DiscussionRecord) Mentions(organization string) bool {
	for _, org := range d.MatchedOrganizations {
		if strings.EqualFold(org, organization) {
			return true
		}
	}
	return false
}

// CommentRecord is a reply beneath a discussion record
type CommentRecord struct {
	ID           string     `json:"id"`
	DiscussionID string     `json:"post_id"`
	Body         string     `json:"body"`
	Author       string     `json:"author"`
	CreatedAt    *time.Time `json:"created_utc"` // nil when the node carried no timestamp
	Score        int        `json:"score"`
	IsSubmitter  bool       `json:"is_submitter"`
	ParentID     string     `json:"parent_id"`
}

// ReferenceEvent is a single reported layoff round
type ReferenceEvent struct {
	Organization string    `json:"company"`
	Date         time.Time `json:"date"`
	Magnitude    int       `json:"laid_off_count"`
	Industry     string    `json:"industry,omitempty"`
	Location     string    `json:"location,omitempty"`
	Source       string    `json:"source"`
	Verified     bool      `json:"verified"`
}

// OrganizationSummary is one row of the combined table
type OrganizationSummary struct {
	Organization    string    `json:"company"`
	TotalMagnitude  int       `json:"total_layoffs"`
	FirstEventDate  time.Time `json:"first_layoff,omitempty"`
	LastEventDate   time.Time `json:"last_layoff,omitempty"`
	EventCount      int       `json:"layoff_events"`
	MentionCount    int       `json:"mention_count"`
	PositiveCount   int       `json:"positive"`
	NeutralCount    int       `json:"neutral"`
	NegativeCount   int       `json:"negative"`
	AvgPolarity     float64   `json:"avg_polarity"`
	AvgScore        float64   `json:"avg_score"`
	AvgCommentCount float64   `json:"avg_comments"`
}

// HasEvents reports whether the row carries reference data
func (o OrganizationSummary) HasEvents() bool {
	return o.EventCount > 0
}

// Correlation is a summary statistic between two table columns.
// Value is meaningful only when Defined is true.
type Correlation struct {
	X       string  `json:"x"`
	Y       string  `json:"y"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Reason  string  `json:"reason,omitempty"`
	Points  int     `json:"points"`
}

// Report represents the output of a combine run
type Report struct {
	GeneratedAt      time.Time              `json:"generated_at"`
	Period           string                 `json:"period"`
	TotalDiscussions int                    `json:"total_discussions"`
	TotalEvents      int                    `json:"total_events"`
	Rows             []OrganizationSummary  `json:"rows"`
	Correlations     []Correlation          `json:"correlations"`
	Summary          map[string]interface{} `json:"summary"`
}

// Alert represents an out-of-band notification, such as a channel that failed to fetch
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "warning", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Channel   string    `json:"channel,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
