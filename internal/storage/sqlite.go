package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	_ "modernc.org/sqlite"
)

// Run records one collection pass
type Run struct {
	ID         int64     `db:"id" json:"id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	Records    int       `db:"records" json:"records"`
	Comments   int       `db:"comments" json:"comments"`
	Failures   int       `db:"failures" json:"failures"`
}

type discussionRow struct {
	Channel       string          `db:"channel"`
	ID            string          `db:"id"`
	Title         string          `db:"title"`
	Body          string          `db:"body"`
	Author        string          `db:"author"`
	CreatedAt     time.Time       `db:"created_at"`
	Score         int             `db:"score"`
	UpvoteRatio   sql.NullFloat64 `db:"upvote_ratio"`
	CommentCount  int             `db:"comment_count"`
	URL           string          `db:"url"`
	Permalink     string          `db:"permalink"`
	IsSelf        bool            `db:"is_self"`
	Flair         string          `db:"flair"`
	Organizations string          `db:"matched_organizations"`
	Polarity      sql.NullFloat64 `db:"polarity"`
	Subjectivity  sql.NullFloat64 `db:"subjectivity"`
	Label         sql.NullString  `db:"label"`
	CollectedAt   time.Time       `db:"collected_at"`
}

func (r discussionRow) record() (models.DiscussionRecord, error) {
	rec := models.DiscussionRecord{
		ID:           r.ID,
		Channel:      r.Channel,
		Title:        r.Title,
		Body:         r.Body,
		Author:       r.Author,
		CreatedAt:    r.CreatedAt.UTC(),
		Score:        r.Score,
		CommentCount: r.CommentCount,
		URL:          r.URL,
		Permalink:    r.Permalink,
		IsSelf:       r.IsSelf,
		Flair:        r.Flair,
	}
	if r.UpvoteRatio.Valid {
		v := r.UpvoteRatio.Float64
		rec.UpvoteRatio = &v
	}
	if r.Organizations != "" {
		if err := json.Unmarshal([]byte(r.Organizations), &rec.MatchedOrganizations); err != nil {
			return rec, fmt.Errorf("decode matched organizations of %s/%s: %w", r.Channel, r.ID, err)
		}
	}
	if r.Label.Valid {
		rec.Sentiment = &models.Sentiment{
			Polarity:     r.Polarity.Float64,
			Subjectivity: r.Subjectivity.Float64,
			Label:        models.SentimentLabel(r.Label.String),
		}
	}
	return rec, nil
}

// SQLiteStore keeps a deduplicated history of collected records across runs
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens a SQLite database and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertRecords inserts or refreshes records keyed by channel and id
func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []models.DiscussionRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, r := range records {
		orgs, _ := json.Marshal(r.MatchedOrganizations)
		if r.MatchedOrganizations == nil {
			orgs = []byte("[]")
		}

		var upvote, polarity, subjectivity sql.NullFloat64
		var label sql.NullString
		if r.UpvoteRatio != nil {
			upvote = sql.NullFloat64{Float64: *r.UpvoteRatio, Valid: true}
		}
		if r.Sentiment != nil {
			polarity = sql.NullFloat64{Float64: r.Sentiment.Polarity, Valid: true}
			subjectivity = sql.NullFloat64{Float64: r.Sentiment.Subjectivity, Valid: true}
			label = sql.NullString{String: string(r.Sentiment.Label), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO discussions (channel, id, title, body, author, created_at, score, upvote_ratio, comment_count,
				url, permalink, is_self, flair, matched_organizations, polarity, subjectivity, label, collected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(channel, id) DO UPDATE SET
				score = excluded.score,
				upvote_ratio = excluded.upvote_ratio,
				comment_count = excluded.comment_count,
				flair = excluded.flair,
				matched_organizations = excluded.matched_organizations,
				polarity = excluded.polarity,
				subjectivity = excluded.subjectivity,
				label = excluded.label,
				collected_at = excluded.collected_at
		`, r.Channel, r.ID, r.Title, r.Body, r.Author, r.CreatedAt.UTC(), r.Score, upvote, r.CommentCount,
			r.URL, r.Permalink, r.IsSelf, r.Flair, string(orgs), polarity, subjectivity, label, now)
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", r.Key(), err)
		}
	}
	return tx.Commit()
}

// UpsertComments inserts or refreshes comments keyed by id
func (s *SQLiteStore) UpsertComments(ctx context.Context, comments []models.CommentRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	for _, c := range comments {
		var created sql.NullTime
		if c.CreatedAt != nil {
			created = sql.NullTime{Time: c.CreatedAt.UTC(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (id, discussion_id, body, author, created_at, score, is_submitter, parent_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				body = excluded.body,
				score = excluded.score
		`, c.ID, c.DiscussionID, c.Body, c.Author, created, c.Score, c.IsSubmitter, c.ParentID)
		if err != nil {
			return fmt.Errorf("upsert comment %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListRecords returns stored records, newest first. An empty channel lists all.
func (s *SQLiteStore) ListRecords(ctx context.Context, channel string, since time.Time) ([]models.DiscussionRecord, error) {
	query := "SELECT * FROM discussions WHERE 1=1"
	var args []any

	if channel != "" {
		query += " AND channel = ?"
		args = append(args, channel)
	}
	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY created_at DESC, id"

	var rows []discussionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]models.DiscussionRecord, len(rows))
	for i, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// CountByChannel returns the number of stored records per channel
func (s *SQLiteStore) CountByChannel(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT channel, COUNT(*) AS cnt FROM discussions GROUP BY channel")
	if err != nil {
		return nil, fmt.Errorf("count records by channel: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var channel string
		var cnt int
		if err := rows.Scan(&channel, &cnt); err != nil {
			return nil, err
		}
		counts[channel] = cnt
	}
	return counts, rows.Err()
}

// CountComments returns the number of stored comments
func (s *SQLiteStore) CountComments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM comments"); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// RecordRun appends a run summary
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, records, comments, failures)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Records, run.Comments, run.Failures)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	run.ID, _ = res.LastInsertId()
	return nil
}

// LastRun returns the most recent run, or nil when none has been recorded
func (s *SQLiteStore) LastRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, "SELECT * FROM runs ORDER BY id DESC LIMIT 1")
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return &run, nil
}

// HistorySummary describes what the archive holds
type HistorySummary struct {
	Records  map[string]int `json:"records"`
	Comments int            `json:"comments"`
	LastRun  *Run           `json:"last_run,omitempty"`
}

// Summary counts stored records per channel and comments, with the latest run
func (s *SQLiteStore) Summary(ctx context.Context) (*HistorySummary, error) {
	counts, err := s.CountByChannel(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.CountComments(ctx)
	if err != nil {
		return nil, err
	}
	last, err := s.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	return &HistorySummary{Records: counts, Comments: comments, LastRun: last}, nil
}
