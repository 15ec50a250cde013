package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/analysis"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/notifications"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/sources"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, filename string, data []byte) error {
	args := m.Called(ctx, filename, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(ctx context.Context, filename string) ([]byte, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, filename string) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// fakeStrategy serves canned listings; a channel in failAfter yields that many
// records and then an error. With hold set, listings wait for it to close.
type fakeStrategy struct {
	listings  map[string][]models.DiscussionRecord
	failAfter map[string]int
	hold      chan struct{}
	waiting   chan struct{}
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) FetchListing(ctx context.Context, req sources.ListingRequest) iter.Seq2[models.DiscussionRecord, error] {
	return func(yield func(models.DiscussionRecord, error) bool) {
		if f.hold != nil {
			select {
			case f.waiting <- struct{}{}:
			default:
			}
			select {
			case <-f.hold:
			case <-ctx.Done():
				yield(models.DiscussionRecord{}, ctx.Err())
				return
			}
		}
		records := f.listings[req.Channel]
		cut, failing := f.failAfter[req.Channel]
		for i, r := range records {
			if failing && i >= cut {
				break
			}
			if i >= req.Limit || !yield(r, nil) {
				return
			}
		}
		if failing {
			yield(models.DiscussionRecord{}, &sources.ChannelError{
				Channel:  req.Channel,
				Strategy: f.Name(),
				Err:      &sources.TransportError{StatusCode: http.StatusTooManyRequests},
			})
		}
	}
}

// keywordScorer marks text containing "cut" negative and "hiring" positive
type keywordScorer struct{}

func (keywordScorer) Score(text string) (float64, float64) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "cut"):
		return -0.6, 0.7
	case strings.Contains(lower, "hiring"):
		return 0.5, 0.5
	}
	return 0, 0
}

type stubDataset struct {
	events []models.ReferenceEvent
	err    error
}

func (s stubDataset) Name() string { return "stub" }

func (s stubDataset) Events(context.Context) ([]models.ReferenceEvent, error) {
	return s.events, s.err
}

var now = time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

func post(channel, id, title string, daysAgo int) models.DiscussionRecord {
	return models.DiscussionRecord{
		ID:           id,
		Channel:      channel,
		Title:        title,
		Author:       "someone",
		CreatedAt:    now.AddDate(0, 0, -daysAgo),
		Score:        10 * (daysAgo + 1),
		CommentCount: daysAgo,
	}
}

func testConfig(channels ...string) *config.Config {
	cfg := config.Default()
	cfg.Subreddits = channels
	cfg.Keywords.Companies = []string{"Amazon", "Intel", "Meta"}
	cfg.Scraping.PostsPerSubreddit = 10
	cfg.Storage.Format = storage.FormatCSV
	cfg.Reference.Months = 6
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, strategy sources.Strategy, dataset stubDataset, store storage.StorageInterface, notifier *MockNotificationService) *Service {
	t.Helper()
	var n notifications.NotificationInterface
	if notifier != nil {
		n = notifier
	}
	svc := NewService(cfg, strategy, dataset, store, n)
	svc.SetClock(clockwork.NewFakeClockAt(now))
	svc.SetClassifier(analysis.NewClassifierWithScorer(keywordScorer{}))
	return svc
}

func TestService_CollectKeepsPartialResults(t *testing.T) {
	cfg := testConfig("layoffs", "jobs")
	cfg.Notifications.TeamsWebhookURL = "https://example.com/hook"

	strategy := &fakeStrategy{
		listings: map[string][]models.DiscussionRecord{
			"layoffs": {
				post("layoffs", "a1", "Amazon cut 14,000 jobs", 1),
				post("layoffs", "a2", "Intel cut again", 2),
				post("layoffs", "a3", "never read", 3),
			},
			"jobs": {
				post("jobs", "j1", "Meta is hiring", 1),
			},
		},
		failAfter: map[string]int{"layoffs": 2},
	}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	notifier := &MockNotificationService{}
	notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.Channel == "layoffs" && a.Type == "warning" && a.ID != ""
	})).Return(nil).Once()

	svc := newTestService(t, cfg, strategy, stubDataset{}, store, notifier)
	result, err := svc.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Records, 3)
	assert.Equal(t, []string{"a1", "a2", "j1"}, []string{result.Records[0].ID, result.Records[1].ID, result.Records[2].ID})
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "layoffs", result.Failures[0].Channel)

	var chErr *sources.ChannelError
	assert.True(t, errors.As(result.Failures[0].Err, &chErr))

	// annotated
	assert.Equal(t, []string{"Amazon"}, result.Records[0].MatchedOrganizations)
	require.NotNil(t, result.Records[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, result.Records[0].Sentiment.Label)
	assert.Equal(t, models.SentimentPositive, result.Records[2].Sentiment.Label)

	assert.Equal(t, []string{
		"layoffs_posts_20260131_120000.csv",
		"jobs_posts_20260131_120000.csv",
		"all_posts_20260131_120000.csv",
	}, result.Files)

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, names, 3)

	notifier.AssertExpectations(t)

	var status Status
	require.NoError(t, json.Unmarshal([]byte(svc.GetMetrics()), &status))
	assert.Equal(t, 3, status.TotalRecords)
	assert.Equal(t, "fake", status.Strategy)
	assert.Equal(t, []string{"layoffs"}, status.FailedChannels)
	assert.Equal(t, map[string]int{"layoffs": 2, "jobs": 1}, status.ChannelRecords)
	assert.Equal(t, "all_posts_20260131_120000.csv", status.Files["posts"])
}

func TestService_CollectWithoutNotifications(t *testing.T) {
	cfg := testConfig("layoffs")
	strategy := &fakeStrategy{
		listings:  map[string][]models.DiscussionRecord{"layoffs": {post("layoffs", "a1", "Amazon", 1)}},
		failAfter: map[string]int{"layoffs": 1},
	}

	mockStorage := &MockStorage{}
	mockStorage.On("Store", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	notifier := &MockNotificationService{}

	svc := newTestService(t, cfg, strategy, stubDataset{}, mockStorage, notifier)
	result, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Failures, 1)

	notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
	mockStorage.AssertNumberOfCalls(t, "Store", 2)
}

func TestService_CollectStorageError(t *testing.T) {
	cfg := testConfig("layoffs")
	strategy := &fakeStrategy{listings: map[string][]models.DiscussionRecord{"layoffs": {post("layoffs", "a1", "Amazon", 1)}}}

	mockStorage := &MockStorage{}
	mockStorage.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := newTestService(t, cfg, strategy, stubDataset{}, mockStorage, nil)
	_, err := svc.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_CollectCancelled(t *testing.T) {
	cfg := testConfig("layoffs")
	strategy := &fakeStrategy{listings: map[string][]models.DiscussionRecord{}}
	svc := newTestService(t, cfg, strategy, stubDataset{}, &MockStorage{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func referenceEvents() []models.ReferenceEvent {
	return []models.ReferenceEvent{
		{Organization: "Amazon", Date: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), Magnitude: 14000, Verified: true},
		{Organization: "Intel", Date: time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), Magnitude: 5000, Verified: true},
		{Organization: "Meta", Date: time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC), Magnitude: 600, Verified: true},
		{Organization: "Old Corp", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Magnitude: 99999, Verified: true},
	}
}

func annotatedRecords(t *testing.T, svc *Service) []models.DiscussionRecord {
	t.Helper()
	records := []models.DiscussionRecord{
		post("layoffs", "a1", "Amazon cut 14,000 jobs", 1),
		post("layoffs", "a2", "Amazon cut more", 2),
		post("layoffs", "a3", "Intel cut", 3),
		post("jobs", "j1", "Meta hiring", 4),
	}
	require.NoError(t, analysis.Annotate(context.Background(), records, svc.Extractor(), analysis.NewClassifierWithScorer(keywordScorer{}), 1))
	return records
}

func TestService_Combine(t *testing.T) {
	cfg := testConfig("layoffs", "jobs")
	cfg.Notifications.TeamsWebhookURL = "https://example.com/hook"

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil).Once()

	svc := newTestService(t, cfg, &fakeStrategy{}, stubDataset{events: referenceEvents()}, store, notifier)
	report, err := svc.Combine(context.Background(), annotatedRecords(t, svc))
	require.NoError(t, err)
	notifier.AssertExpectations(t)

	assert.Equal(t, 4, report.TotalDiscussions)
	assert.Equal(t, 3, report.TotalEvents, "events outside the window are dropped")
	require.Len(t, report.Rows, 3)
	assert.Equal(t, "Amazon", report.Rows[0].Organization)
	assert.Equal(t, 2, report.Rows[0].MentionCount)
	assert.Equal(t, 2, report.Rows[0].NegativeCount)
	assert.Len(t, report.Correlations, 4)
	assert.True(t, report.Correlations[0].Defined)

	assert.Equal(t, "stub", report.Summary["dataset"])
	assert.Equal(t, 19600, report.Summary["total_layoffs"])
	assert.Equal(t, 3, report.Summary["overlap"])
	assert.Equal(t, []string{"Amazon (2)", "Intel (1)", "Meta (1)"}, report.Summary["top_mentioned"])

	combined, err := storage.Latest(context.Background(), store, storage.AllChannels, storage.KindCombined, storage.FormatCSV)
	require.NoError(t, err)
	data, err := store.Retrieve(context.Background(), combined)
	require.NoError(t, err)
	rows, err := storage.Summaries.Decode(storage.FormatCSV, data)
	require.NoError(t, err)
	assert.Equal(t, report.Rows, rows)

	_, err = storage.Latest(context.Background(), store, storage.AllChannels, storage.KindReport, storage.FormatJSON)
	assert.NoError(t, err)

	var status Status
	require.NoError(t, json.Unmarshal([]byte(svc.GetMetrics()), &status))
	assert.Equal(t, 3, status.CombinedRows)
	assert.Equal(t, combined, status.Files["combined"])
}

func TestService_CombineDatasetError(t *testing.T) {
	cfg := testConfig("layoffs")
	svc := newTestService(t, cfg, &fakeStrategy{}, stubDataset{err: errors.New("offline")}, &MockStorage{}, nil)

	_, err := svc.Combine(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub")
}

func TestService_CombineReturnsReportWhenDeliveryFails(t *testing.T) {
	cfg := testConfig("layoffs")
	cfg.Notifications.TeamsWebhookURL = "https://example.com/hook"

	mockStorage := &MockStorage{}
	mockStorage.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.Anything, mock.Anything).Return(errors.New("webhook down"))

	svc := newTestService(t, cfg, &fakeStrategy{}, stubDataset{events: referenceEvents()}, mockStorage, notifier)
	report, err := svc.Combine(context.Background(), annotatedRecords(t, svc))
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.Rows, 3)
}

func TestService_Run(t *testing.T) {
	cfg := testConfig("layoffs")
	strategy := &fakeStrategy{listings: map[string][]models.DiscussionRecord{
		"layoffs": {post("layoffs", "a1", "Amazon cut jobs", 1)},
	}}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := newTestService(t, cfg, strategy, stubDataset{events: referenceEvents()}, store, nil)
	require.NoError(t, svc.Run(context.Background()))

	_, err = storage.Latest(context.Background(), store, storage.AllChannels, storage.KindCombined, storage.FormatCSV)
	assert.NoError(t, err)
}

func TestService_RunRejectsOverlap(t *testing.T) {
	cfg := testConfig("layoffs")
	strategy := &fakeStrategy{
		listings: map[string][]models.DiscussionRecord{"layoffs": {post("layoffs", "a1", "Amazon cut jobs", 1)}},
		hold:     make(chan struct{}),
		waiting:  make(chan struct{}, 1),
	}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := newTestService(t, cfg, strategy, stubDataset{events: referenceEvents()}, store, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	<-strategy.waiting

	assert.True(t, svc.Running())
	assert.ErrorIs(t, svc.Run(context.Background()), ErrRunInProgress)

	close(strategy.hold)
	require.NoError(t, <-done)
	assert.False(t, svc.Running())
}

func TestService_RunWithNoRecordsSkipsCombine(t *testing.T) {
	cfg := testConfig("layoffs")
	dataset := stubDataset{err: errors.New("must not be called")}
	svc := newTestService(t, cfg, &fakeStrategy{}, dataset, &MockStorage{}, nil)
	assert.NoError(t, svc.Run(context.Background()))
}

func TestService_LoadRecords(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("layoffs")
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	raw := []models.DiscussionRecord{
		post("layoffs", "a1", "Amazon cut jobs", 1),
		post("layoffs", "a2", "Weekly thread", 2),
	}
	data, err := storage.Records.Encode(storage.FormatJSON, raw)
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, "all_posts_20260101_000000.json", data))

	older, err := storage.Records.Encode(storage.FormatCSV, raw[:1])
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, "all_posts_20251201_000000.csv", older))

	svc := newTestService(t, cfg, &fakeStrategy{}, stubDataset{}, store, nil)

	t.Run("explicit name uses its extension", func(t *testing.T) {
		records, err := svc.LoadRecords(ctx, "all_posts_20260101_000000.json")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"Amazon"}, records[0].MatchedOrganizations)
		require.NotNil(t, records[1].Sentiment)
		assert.Equal(t, models.SentimentNeutral, records[1].Sentiment.Label)
	})

	t.Run("latest in configured format", func(t *testing.T) {
		records, err := svc.LoadRecords(ctx, "")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.LoadRecords(ctx, "nope.csv")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_LoadRecordsFromHistory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("layoffs")
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := newTestService(t, cfg, &fakeStrategy{}, stubDataset{}, store, nil)

	t.Run("disabled history", func(t *testing.T) {
		_, err := svc.LoadRecords(ctx, HistoryInput)
		assert.ErrorIs(t, err, ErrNoHistory)
		_, err = svc.LoadRecords(ctx, "")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		summary, err := svc.HistorySummary(ctx)
		require.NoError(t, err)
		assert.Nil(t, summary)
	})

	history, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	defer history.Close()
	require.NoError(t, history.UpsertRecords(ctx, []models.DiscussionRecord{
		post("layoffs", "h1", "Intel layoffs announced", 3),
		post("jobs", "h2", "Hiring again", 1),
	}))
	svc.SetHistory(history)

	t.Run("explicit history input", func(t *testing.T) {
		records, err := svc.LoadRecords(ctx, HistoryInput)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "h2", records[0].ID, "newest first")
		assert.Equal(t, []string{"Intel"}, records[1].MatchedOrganizations)
		require.NotNil(t, records[1].Sentiment)
	})

	t.Run("falls back when no table exists", func(t *testing.T) {
		records, err := svc.LoadRecords(ctx, "")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("summary", func(t *testing.T) {
		summary, err := svc.HistorySummary(ctx)
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, map[string]int{"layoffs": 1, "jobs": 1}, summary.Records)
		assert.Nil(t, summary.LastRun)
	})
}

func TestService_CollectExpandsComments(t *testing.T) {
	listing := `{"kind":"Listing","data":{"after":null,"children":[` +
		`{"kind":"t3","data":{"id":"p1","title":"Amazon cut","author":"a","created_utc":1769800000,"score":5,"num_comments":2,"permalink":"/r/layoffs/comments/p1/x/","is_self":true}},` +
		`{"kind":"t3","data":{"id":"p2","title":"Other","author":"b","created_utc":1769700000,"score":1,"num_comments":0,"permalink":"/r/layoffs/comments/p2/y/","is_self":true}}]}}`
	comments := `[{"kind":"Listing","data":{"children":[]}},{"kind":"Listing","data":{"children":[` +
		`{"kind":"t1","data":{"id":"c1","body":"sorry to hear","author":"x","created_utc":1769800100,"score":3,"parent_id":"t3_p1","replies":""}},` +
		`{"kind":"t1","data":{"id":"c2","body":"same","author":"y","created_utc":1769800200,"score":1,"parent_id":"t3_p1","replies":""}}]}}]`

	var (
		mu          sync.Mutex
		commentHits []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/r/layoffs/new.json":
			fmt.Fprint(w, listing)
		case strings.HasPrefix(r.URL.Path, "/r/layoffs/comments/"):
			mu.Lock()
			commentHits = append(commentHits, r.URL.Path)
			mu.Unlock()
			fmt.Fprint(w, comments)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := testConfig("layoffs")
	cfg.Scraping.IncludeComments = true
	cfg.Scraping.CommentPosts = 1
	cfg.Scraping.CommentsPerPost = 10

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	strategy := sources.NewPublicStrategy(sources.PublicConfig{BaseURL: srv.URL})
	svc := newTestService(t, cfg, strategy, stubDataset{}, store, nil)

	result, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	require.Len(t, result.Comments, 2)
	assert.Equal(t, "p1", result.Comments[0].DiscussionID)
	mu.Lock()
	assert.Equal(t, []string{"/r/layoffs/comments/p1.json"}, commentHits)
	mu.Unlock()
	assert.Contains(t, result.Files, "layoffs_comments_20260131_120000.csv")
}
