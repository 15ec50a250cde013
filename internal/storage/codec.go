package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const (
	dateLayout    = "2006-01-02"
	listSeparator = ";"
)

type column[T any] struct {
	name string
	get  func(*T) string
	set  func(*T, string) error
}

// Codec writes and reads one table type as CSV or JSON
type Codec[T any] struct {
	columns []column[T]
}

// Header returns the CSV column names
func (c Codec[T]) Header() []string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.name
	}
	return names
}

// Encode serializes items in the given format
func (c Codec[T]) Encode(format string, items []T) ([]byte, error) {
	switch format {
	case FormatJSON:
		if items == nil {
			items = []T{}
		}
		return json.MarshalIndent(items, "", "  ")
	case FormatCSV:
		return c.encodeCSV(items)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Decode parses data in the given format
func (c Codec[T]) Decode(format string, data []byte) ([]T, error) {
	switch format {
	case FormatJSON:
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode JSON table: %w", err)
		}
		return items, nil
	case FormatCSV:
		return c.decodeCSV(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func (c Codec[T]) encodeCSV(items []T) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(c.Header()); err != nil {
		return nil, err
	}

	row := make([]string, len(c.columns))
	for i := range items {
		for j, col := range c.columns {
			row[j] = col.get(&items[i])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV table: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeCSV maps columns by header name; unknown columns are ignored and
// missing ones keep their zero value
func (c Codec[T]) decodeCSV(data []byte) ([]T, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	byName := make(map[string]column[T], len(c.columns))
	for _, col := range c.columns {
		byName[col.name] = col
	}
	header := records[0]

	items := make([]T, 0, len(records)-1)
	for line, rec := range records[1:] {
		var item T
		for i, value := range rec {
			if i >= len(header) {
				break
			}
			col, ok := byName[strings.TrimSpace(header[i])]
			if !ok {
				continue
			}
			if err := col.set(&item, value); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", line+2, col.name, err)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseInt(dst *int) func(string) error {
	return func(s string) error {
		if s == "" {
			*dst = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func parseFloat(dst *float64) func(string) error {
	return func(s string) error {
		if s == "" {
			*dst = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func parseBool(dst *bool) func(string) error {
	return func(s string) error {
		if s == "" {
			*dst = false
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func text[T any](name string, field func(*T) *string) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return *field(v) },
		set:  func(v *T, s string) error { *field(v) = s; return nil },
	}
}

func integer[T any](name string, field func(*T) *int) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return formatInt(*field(v)) },
		set:  func(v *T, s string) error { return parseInt(field(v))(s) },
	}
}

func float[T any](name string, field func(*T) *float64) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return formatFloat(*field(v)) },
		set:  func(v *T, s string) error { return parseFloat(field(v))(s) },
	}
}

func boolean[T any](name string, field func(*T) *bool) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return strconv.FormatBool(*field(v)) },
		set:  func(v *T, s string) error { return parseBool(field(v))(s) },
	}
}

func timestamp[T any](name string, field func(*T) *time.Time) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return formatTime(*field(v)) },
		set: func(v *T, s string) error {
			t, err := parseTime(s)
			if err != nil {
				return err
			}
			*field(v) = t
			return nil
		},
	}
}

func date[T any](name string, field func(*T) *time.Time) column[T] {
	return column[T]{
		name: name,
		get:  func(v *T) string { return formatDate(*field(v)) },
		set: func(v *T, s string) error {
			t, err := parseTime(s)
			if err != nil {
				return err
			}
			*field(v) = t
			return nil
		},
	}
}

// Records is the posts table
var Records = Codec[models.DiscussionRecord]{columns: []column[models.DiscussionRecord]{
	text("id", func(r *models.DiscussionRecord) *string { return &r.ID }),
	text("subreddit", func(r *models.DiscussionRecord) *string { return &r.Channel }),
	text("title", func(r *models.DiscussionRecord) *string { return &r.Title }),
	text("selftext", func(r *models.DiscussionRecord) *string { return &r.Body }),
	text("author", func(r *models.DiscussionRecord) *string { return &r.Author }),
	timestamp("created_utc", func(r *models.DiscussionRecord) *time.Time { return &r.CreatedAt }),
	integer("score", func(r *models.DiscussionRecord) *int { return &r.Score }),
	{
		name: "upvote_ratio",
		get: func(r *models.DiscussionRecord) string {
			if r.UpvoteRatio == nil {
				return ""
			}
			return formatFloat(*r.UpvoteRatio)
		},
		set: func(r *models.DiscussionRecord, s string) error {
			if s == "" {
				r.UpvoteRatio = nil
				return nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			r.UpvoteRatio = &f
			return nil
		},
	},
	integer("num_comments", func(r *models.DiscussionRecord) *int { return &r.CommentCount }),
	text("url", func(r *models.DiscussionRecord) *string { return &r.URL }),
	text("permalink", func(r *models.DiscussionRecord) *string { return &r.Permalink }),
	boolean("is_self", func(r *models.DiscussionRecord) *bool { return &r.IsSelf }),
	text("flair", func(r *models.DiscussionRecord) *string { return &r.Flair }),
	{
		name: "matched_organizations",
		get: func(r *models.DiscussionRecord) string {
			return strings.Join(r.MatchedOrganizations, listSeparator)
		},
		set: func(r *models.DiscussionRecord, s string) error {
			if s == "" {
				r.MatchedOrganizations = nil
				return nil
			}
			r.MatchedOrganizations = strings.Split(s, listSeparator)
			return nil
		},
	},
	sentimentColumn("polarity", func(s *models.Sentiment) *float64 { return &s.Polarity }),
	sentimentColumn("subjectivity", func(s *models.Sentiment) *float64 { return &s.Subjectivity }),
	{
		name: "sentiment",
		get: func(r *models.DiscussionRecord) string {
			if r.Sentiment == nil {
				return ""
			}
			return string(r.Sentiment.Label)
		},
		set: func(r *models.DiscussionRecord, s string) error {
			if s == "" {
				return nil
			}
			ensureSentiment(r).Label = models.SentimentLabel(s)
			return nil
		},
	},
}}

func ensureSentiment(r *models.DiscussionRecord) *models.Sentiment {
	if r.Sentiment == nil {
		r.Sentiment = &models.Sentiment{}
	}
	return r.Sentiment
}

func sentimentColumn(name string, field func(*models.Sentiment) *float64) column[models.DiscussionRecord] {
	return column[models.DiscussionRecord]{
		name: name,
		get: func(r *models.DiscussionRecord) string {
			if r.Sentiment == nil {
				return ""
			}
			return formatFloat(*field(r.Sentiment))
		},
		set: func(r *models.DiscussionRecord, s string) error {
			if s == "" {
				return nil
			}
			return parseFloat(field(ensureSentiment(r)))(s)
		},
	}
}

// Comments is the comments table
var Comments = Codec[models.CommentRecord]{columns: []column[models.CommentRecord]{
	text("id", func(c *models.CommentRecord) *string { return &c.ID }),
	text("post_id", func(c *models.CommentRecord) *string { return &c.DiscussionID }),
	text("body", func(c *models.CommentRecord) *string { return &c.Body }),
	text("author", func(c *models.CommentRecord) *string { return &c.Author }),
	{
		name: "created_utc",
		get: func(c *models.CommentRecord) string {
			if c.CreatedAt == nil {
				return ""
			}
			return formatTime(*c.CreatedAt)
		},
		set: func(c *models.CommentRecord, s string) error {
			if s == "" {
				c.CreatedAt = nil
				return nil
			}
			t, err := parseTime(s)
			if err != nil {
				return err
			}
			c.CreatedAt = &t
			return nil
		},
	},
	integer("score", func(c *models.CommentRecord) *int { return &c.Score }),
	boolean("is_submitter", func(c *models.CommentRecord) *bool { return &c.IsSubmitter }),
	text("parent_id", func(c *models.CommentRecord) *string { return &c.ParentID }),
}}

// Events is the layoffs table; its columns are readable by the reference CSV loader
var Events = Codec[models.ReferenceEvent]{columns: []column[models.ReferenceEvent]{
	text("company", func(e *models.ReferenceEvent) *string { return &e.Organization }),
	date("date", func(e *models.ReferenceEvent) *time.Time { return &e.Date }),
	integer("laid_off_count", func(e *models.ReferenceEvent) *int { return &e.Magnitude }),
	text("industry", func(e *models.ReferenceEvent) *string { return &e.Industry }),
	text("location", func(e *models.ReferenceEvent) *string { return &e.Location }),
	text("source", func(e *models.ReferenceEvent) *string { return &e.Source }),
	boolean("verified", func(e *models.ReferenceEvent) *bool { return &e.Verified }),
}}

// Summaries is the combined per-organization table
var Summaries = Codec[models.OrganizationSummary]{columns: []column[models.OrganizationSummary]{
	text("company", func(o *models.OrganizationSummary) *string { return &o.Organization }),
	integer("total_layoffs", func(o *models.OrganizationSummary) *int { return &o.TotalMagnitude }),
	date("first_layoff", func(o *models.OrganizationSummary) *time.Time { return &o.FirstEventDate }),
	date("last_layoff", func(o *models.OrganizationSummary) *time.Time { return &o.LastEventDate }),
	integer("layoff_events", func(o *models.OrganizationSummary) *int { return &o.EventCount }),
	integer("mention_count", func(o *models.OrganizationSummary) *int { return &o.MentionCount }),
	integer("positive", func(o *models.OrganizationSummary) *int { return &o.PositiveCount }),
	integer("neutral", func(o *models.OrganizationSummary) *int { return &o.NeutralCount }),
	integer("negative", func(o *models.OrganizationSummary) *int { return &o.NegativeCount }),
	float("avg_polarity", func(o *models.OrganizationSummary) *float64 { return &o.AvgPolarity }),
	float("avg_score", func(o *models.OrganizationSummary) *float64 { return &o.AvgScore }),
	float("avg_comments", func(o *models.OrganizationSummary) *float64 { return &o.AvgCommentCount }),
}}
