// Package tracker runs the collection and combine pipeline: fetch listings
// per channel, annotate them, persist the tables, join them against a
// reference layoff dataset and deliver the resulting report.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/aggregation"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/analysis"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/metrics"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/notifications"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/reference"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/sources"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// HistoryInput names the run history as a LoadRecords source
const HistoryInput = "db"

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("a tracker run is already in progress")

// ErrNoHistory is returned when records are requested from a disabled run history
var ErrNoHistory = errors.New("run history is not configured")

// History keeps collected records across runs
type History interface {
	UpsertRecords(ctx context.Context, records []models.DiscussionRecord) error
	UpsertComments(ctx context.Context, comments []models.CommentRecord) error
	RecordRun(ctx context.Context, run *storage.Run) error
	ListRecords(ctx context.Context, channel string, since time.Time) ([]models.DiscussionRecord, error)
	Summary(ctx context.Context) (*storage.HistorySummary, error)
}

// commentSource is implemented by strategies that can expand comment trees
type commentSource interface {
	Comments() *sources.CommentWalker
}

// Service coordinates one tracker deployment
type Service struct {
	config              *config.Config
	strategy            sources.Strategy
	dataset             reference.Dataset
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	history             History
	extractor           *analysis.Extractor
	classifier          *analysis.Classifier
	clock               clockwork.Clock
	status              *Status
	mu                  sync.RWMutex
	running             atomic.Bool
}

// Status holds the results of the most recent runs
type Status struct {
	LastRun            time.Time            `json:"last_run"`
	LastRunDuration    string               `json:"last_run_duration"`
	Strategy           string               `json:"strategy"`
	TotalRecords       int                  `json:"total_records"`
	TotalComments      int                  `json:"total_comments"`
	ChannelRecords     map[string]int       `json:"channel_records"`
	SentimentBreakdown map[string]int       `json:"sentiment_breakdown"`
	FailedChannels     []string             `json:"failed_channels"`
	LastCombine        time.Time            `json:"last_combine"`
	CombinedRows       int                  `json:"combined_rows"`
	Correlations       []models.Correlation `json:"correlations,omitempty"`
	Files              map[string]string    `json:"files"`
}

// Failure is a channel whose fetch was abandoned
type Failure struct {
	Channel string `json:"channel"`
	Err     error  `json:"-"`
}

func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"channel": f.Channel, "error": f.Err.Error()})
}

// CollectResult is the output of one collection pass. Records are grouped by
// channel in configuration order; records read before a channel failed are kept.
type CollectResult struct {
	Records  []models.DiscussionRecord `json:"records"`
	Comments []models.CommentRecord    `json:"comments"`
	Failures []Failure                 `json:"failures"`
	Files    []string                  `json:"files"`
}

// NewService creates a new tracker service
func NewService(cfg *config.Config, strategy sources.Strategy, dataset reference.Dataset, store storage.StorageInterface, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		strategy:            strategy,
		dataset:             dataset,
		storage:             store,
		notificationService: notificationService,
		extractor:           analysis.NewExtractor(cfg.Keywords.Companies),
		classifier:          analysis.NewClassifier(),
		clock:               clockwork.NewRealClock(),
		status: &Status{
			ChannelRecords:     make(map[string]int),
			SentimentBreakdown: make(map[string]int),
			Files:              make(map[string]string),
		},
	}
}

// SetHistory enables the SQLite run history
func (s *Service) SetHistory(h History) {
	s.history = h
}

// SetClock replaces the wall clock used for file names and the reference window
func (s *Service) SetClock(c clockwork.Clock) {
	s.clock = c
}

// SetClassifier replaces the sentiment classifier
func (s *Service) SetClassifier(c *analysis.Classifier) {
	s.classifier = c
}

// Extractor returns the configured organization matcher
func (s *Service) Extractor() *analysis.Extractor {
	return s.extractor
}

type channelResult struct {
	records  []models.DiscussionRecord
	comments []models.CommentRecord
	err      error
}

// Collect fetches every configured channel, annotates and persists the result.
// A failed channel is reported in Failures and never aborts the others.
func (s *Service) Collect(ctx context.Context) (*CollectResult, error) {
	start := s.clock.Now()
	logrus.WithFields(logrus.Fields{
		"channels": len(s.config.Subreddits),
		"strategy": s.strategy.Name(),
		"limit":    s.config.Scraping.PostsPerSubreddit,
	}).Info("Starting collection run")

	var walker *sources.CommentWalker
	if s.config.Scraping.IncludeComments {
		if cs, ok := s.strategy.(commentSource); ok {
			walker = cs.Comments()
		} else {
			logrus.Infof("Comment expansion is not available with the %s strategy", s.strategy.Name())
		}
	}

	var mu sync.Mutex
	results := make(map[string]channelResult, len(s.config.Subreddits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.Scraping.Concurrency, 1))
	for _, channel := range s.config.Subreddits {
		g.Go(func() error {
			res := s.collectChannel(gctx, channel, walker)
			mu.Lock()
			results[channel] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &CollectResult{}
	for _, channel := range s.config.Subreddits {
		res := results[channel]
		result.Records = append(result.Records, res.records...)
		result.Comments = append(result.Comments, res.comments...)
		if res.err != nil {
			result.Failures = append(result.Failures, Failure{Channel: channel, Err: res.err})
		}
	}
	logrus.Infof("Collected %d records and %d comments from %d channels (%d failed)",
		len(result.Records), len(result.Comments), len(s.config.Subreddits), len(result.Failures))

	if err := analysis.Annotate(ctx, result.Records, s.extractor, s.classifier, 0); err != nil {
		return nil, fmt.Errorf("failed to annotate records: %w", err)
	}

	files, err := s.persistCollection(ctx, result, start)
	if err != nil {
		return nil, err
	}
	result.Files = files

	for _, f := range result.Failures {
		s.sendFailureAlert(ctx, f)
	}

	duration := s.clock.Since(start)
	metrics.RunDuration.WithLabelValues("collect").Observe(duration.Seconds())
	s.updateCollectStatus(result, start, duration)

	if s.history != nil {
		run := &storage.Run{
			StartedAt:  start,
			FinishedAt: s.clock.Now(),
			Records:    len(result.Records),
			Comments:   len(result.Comments),
			Failures:   len(result.Failures),
		}
		if err := s.history.RecordRun(ctx, run); err != nil {
			logrus.Warnf("Failed to record run history: %v", err)
		}
	}

	logrus.Infof("Collection run completed in %v", duration)
	return result, nil
}

func (s *Service) collectChannel(ctx context.Context, channel string, walker *sources.CommentWalker) channelResult {
	req := sources.ListingRequest{
		Channel:    channel,
		Limit:      s.config.Scraping.PostsPerSubreddit,
		Sort:       s.config.Scraping.SortBy,
		TimeWindow: s.config.Scraping.TimeFilter,
	}

	records, err := sources.Collect(s.strategy.FetchListing(ctx, req))
	res := channelResult{records: records, err: err}
	logrus.WithField("channel", channel).Infof("Fetched %d records", len(records))

	if walker == nil {
		return res
	}
	for i, rec := range records {
		if i >= s.config.Scraping.CommentPosts || ctx.Err() != nil {
			break
		}
		for c, cerr := range walker.FetchComments(ctx, rec.ID, channel, s.config.Scraping.CommentsPerPost) {
			if cerr != nil {
				logrus.WithFields(logrus.Fields{"channel": channel, "post": rec.ID}).Warnf("Skipping comments: %v", cerr)
				break
			}
			res.comments = append(res.comments, c)
		}
	}
	return res
}

func (s *Service) persistCollection(ctx context.Context, result *CollectResult, at time.Time) ([]string, error) {
	format := s.config.Storage.Format
	var files []string

	byChannel := make(map[string][]models.DiscussionRecord)
	for _, r := range result.Records {
		byChannel[r.Channel] = append(byChannel[r.Channel], r)
	}
	channelOf := make(map[string]string, len(result.Records))
	for _, r := range result.Records {
		channelOf[r.ID] = r.Channel
	}
	commentsByChannel := make(map[string][]models.CommentRecord)
	for _, c := range result.Comments {
		ch := channelOf[c.DiscussionID]
		commentsByChannel[ch] = append(commentsByChannel[ch], c)
	}

	for _, channel := range s.config.Subreddits {
		if recs := byChannel[channel]; len(recs) > 0 {
			name, err := store(ctx, s.storage, storage.Records, recs, channel, storage.KindPosts, format, at)
			if err != nil {
				return files, err
			}
			files = append(files, name)
		}
		if comments := commentsByChannel[channel]; len(comments) > 0 {
			name, err := store(ctx, s.storage, storage.Comments, comments, channel, storage.KindComments, format, at)
			if err != nil {
				return files, err
			}
			files = append(files, name)
		}
	}

	if len(result.Records) > 0 {
		name, err := store(ctx, s.storage, storage.Records, result.Records, storage.AllChannels, storage.KindPosts, format, at)
		if err != nil {
			return files, err
		}
		files = append(files, name)
	}

	if s.history != nil {
		if err := s.history.UpsertRecords(ctx, result.Records); err != nil {
			return files, fmt.Errorf("failed to update record history: %w", err)
		}
		if err := s.history.UpsertComments(ctx, result.Comments); err != nil {
			return files, fmt.Errorf("failed to update comment history: %w", err)
		}
	}
	return files, nil
}

func store[T any](ctx context.Context, st storage.StorageInterface, codec storage.Codec[T], items []T, channel, kind, format string, at time.Time) (string, error) {
	data, err := codec.Encode(format, items)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s table: %w", kind, err)
	}
	name := storage.TimestampedName(channel, kind, format, at)
	if err := st.Store(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return name, nil
}

func (s *Service) sendFailureAlert(ctx context.Context, f Failure) {
	if s.notificationService == nil || !s.config.Notifications.Enabled() {
		return
	}
	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "warning",
		Title:     fmt.Sprintf("Fetch failed for r/%s", f.Channel),
		Message:   f.Err.Error(),
		Channel:   f.Channel,
		CreatedAt: s.clock.Now(),
	}
	if err := s.notificationService.SendAlert(ctx, alert); err != nil {
		logrus.Errorf("Failed to send failure alert for %s: %v", f.Channel, err)
	}
}

// Combine joins records with the reference dataset, stores the combined table
// and delivers the report. The report is returned even if delivery fails.
func (s *Service) Combine(ctx context.Context, records []models.DiscussionRecord) (*models.Report, error) {
	start := s.clock.Now()

	events, err := s.dataset.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data from %s: %w", s.dataset.Name(), err)
	}
	events = reference.LastMonths(events, s.config.Reference.Months, start)
	logrus.WithFields(logrus.Fields{
		"dataset": s.dataset.Name(),
		"events":  len(events),
		"records": len(records),
	}).Info("Combining discussion records with reference events")

	rows := aggregation.Combine(events, records, s.extractor.Organizations())
	correlations := aggregation.Correlate(rows)
	for _, c := range correlations {
		v := 0.0
		if c.Defined {
			v = 1
		}
		metrics.CorrelationDefined.WithLabelValues(c.X + ":" + c.Y).Set(v)
	}
	metrics.CombinedRows.Set(float64(len(rows)))

	format := s.config.Storage.Format
	combinedFile, err := store(ctx, s.storage, storage.Summaries, rows, storage.AllChannels, storage.KindCombined, format, start)
	if err != nil {
		return nil, err
	}
	layoffsFile, err := store(ctx, s.storage, storage.Events, events, storage.AllChannels, storage.KindLayoffs, format, start)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(records, events, rows, correlations, start)
	report.Summary["files"] = []string{combinedFile, layoffsFile}

	if data, err := json.MarshalIndent(report, "", "  "); err == nil {
		name := storage.TimestampedName(storage.AllChannels, storage.KindReport, storage.FormatJSON, start)
		if err := s.storage.Store(ctx, name, data); err != nil {
			logrus.Warnf("Failed to store report: %v", err)
		}
	}

	duration := s.clock.Since(start)
	metrics.RunDuration.WithLabelValues("combine").Observe(duration.Seconds())
	s.updateCombineStatus(rows, correlations, combinedFile, start)

	if s.notificationService != nil && s.config.Notifications.Enabled() {
		if err := s.notificationService.SendReport(ctx, report); err != nil {
			return report, fmt.Errorf("failed to send report: %w", err)
		}
	}
	return report, nil
}

func (s *Service) buildReport(records []models.DiscussionRecord, events []models.ReferenceEvent, rows []models.OrganizationSummary, correlations []models.Correlation, at time.Time) *models.Report {
	report := &models.Report{
		GeneratedAt:      at,
		Period:           fmt.Sprintf("last %d months", s.config.Reference.Months),
		TotalDiscussions: len(records),
		TotalEvents:      len(events),
		Rows:             rows,
		Correlations:     correlations,
		Summary:          make(map[string]interface{}),
	}

	sentiment := analysis.SummarizeSentiment(records)
	report.Summary["sentiment"] = map[string]int{
		string(models.SentimentPositive): sentiment.Positive,
		string(models.SentimentNeutral):  sentiment.Neutral,
		string(models.SentimentNegative): sentiment.Negative,
	}
	report.Summary["dataset"] = s.dataset.Name()
	report.Summary["total_layoffs"] = reference.GrandTotal(events)
	report.Summary["overlap"] = len(aggregation.Overlap(rows))
	if trend, err := aggregation.MentionTrend(rows); err == nil {
		report.Summary["trend"] = trend
	}
	report.Summary["top_mentioned"] = topMentioned(rows, 5)
	return report
}

// topMentioned returns "Name (n)" for the most discussed organizations
func topMentioned(rows []models.OrganizationSummary, limit int) []string {
	sorted := make([]models.OrganizationSummary, 0, len(rows))
	for _, r := range rows {
		if r.MentionCount > 0 {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MentionCount > sorted[j].MentionCount })

	var out []string
	for i, r := range sorted {
		if i >= limit {
			break
		}
		out = append(out, fmt.Sprintf("%s (%d)", r.Organization, r.MentionCount))
	}
	return out
}

// Run performs a full collect then combine pass. A call made while another run is
// active returns ErrRunInProgress.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	result, err := s.Collect(ctx)
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		logrus.Warn("No records collected, skipping combine")
		return nil
	}
	_, err = s.Combine(ctx, result.Records)
	return err
}

// LoadRecords reads a stored posts table, or the newest all_posts table when name
// is empty. HistoryInput reads the run history instead, which is also the
// fallback when no table exists yet. Records without sentiment are annotated.
func (s *Service) LoadRecords(ctx context.Context, name string) ([]models.DiscussionRecord, error) {
	var (
		records []models.DiscussionRecord
		source  string
		err     error
	)
	switch name {
	case HistoryInput:
		records, err = s.historyRecords(ctx)
		source = "run history"
	case "":
		var latest string
		latest, err = storage.Latest(ctx, s.storage, storage.AllChannels, storage.KindPosts, s.config.Storage.Format)
		if errors.Is(err, storage.ErrNotFound) && s.history != nil {
			logrus.Info("No posts table found, reading run history")
			records, err = s.historyRecords(ctx)
			source = "run history"
			break
		}
		if err != nil {
			return nil, err
		}
		records, err = s.loadTable(ctx, latest)
		source = latest
	default:
		records, err = s.loadTable(ctx, name)
		source = name
	}
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.Sentiment == nil {
			if err := analysis.Annotate(ctx, records, s.extractor, s.classifier, 0); err != nil {
				return nil, err
			}
			break
		}
	}
	logrus.Infof("Loaded %d records from %s", len(records), source)
	return records, nil
}

func (s *Service) loadTable(ctx context.Context, name string) ([]models.DiscussionRecord, error) {
	format := s.config.Storage.Format
	if ext := extension(name); ext != "" {
		format = ext
	}

	data, err := s.storage.Retrieve(ctx, name)
	if err != nil {
		return nil, err
	}
	records, err := storage.Records.Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return records, nil
}

func (s *Service) historyRecords(ctx context.Context) ([]models.DiscussionRecord, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.ListRecords(ctx, "", time.Time{})
}

// HistorySummary reports what the run history holds, or nil when it is disabled
func (s *Service) HistorySummary(ctx context.Context) (*storage.HistorySummary, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Summary(ctx)
}

// Running reports whether a Run is active
func (s *Service) Running() bool {
	return s.running.Load()
}

func extension(name string) string {
	switch ext := strings.TrimPrefix(path.Ext(name), "."); ext {
	case storage.FormatCSV, storage.FormatJSON:
		return ext
	}
	return ""
}

func (s *Service) updateCollectStatus(result *CollectResult, start time.Time, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LastRun = start
	s.status.LastRunDuration = duration.String()
	s.status.Strategy = s.strategy.Name()
	s.status.TotalRecords = len(result.Records)
	s.status.TotalComments = len(result.Comments)

	s.status.ChannelRecords = make(map[string]int)
	s.status.SentimentBreakdown = make(map[string]int)
	for _, r := range result.Records {
		s.status.ChannelRecords[r.Channel]++
		if r.Sentiment != nil {
			s.status.SentimentBreakdown[string(r.Sentiment.Label)]++
		}
	}

	s.status.FailedChannels = nil
	for _, f := range result.Failures {
		s.status.FailedChannels = append(s.status.FailedChannels, f.Channel)
	}
	if len(result.Files) > 0 {
		s.status.Files["posts"] = result.Files[len(result.Files)-1]
	}
}

func (s *Service) updateCombineStatus(rows []models.OrganizationSummary, correlations []models.Correlation, file string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LastCombine = at
	s.status.CombinedRows = len(rows)
	s.status.Correlations = correlations
	s.status.Files["combined"] = file
}

// GetMetrics returns current status as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.status, "", "  ")
	return string(data)
}
