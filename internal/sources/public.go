package sources

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/metrics"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL serves the unauthenticated .json listings
	DefaultBaseURL = "https://www.reddit.com"
	// DefaultUserAgent identifies the tracker to the provider
	DefaultUserAgent = "layoffs-tracker/1.0"
	// DefaultRequestTimeout bounds a single page or comment request
	DefaultRequestTimeout = 10 * time.Second
)

// PublicConfig configures the unauthenticated strategy
type PublicConfig struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
	PageDelay      time.Duration
	CommentRate    float64 // comment requests per second, 0 for unlimited
	Clock          clockwork.Clock
}

// PublicStrategy fetches listings from the public JSON endpoints and paces itself
type PublicStrategy struct {
	client   *resty.Client
	clock    clockwork.Clock
	delay    time.Duration
	comments *CommentWalker
}

var _ Strategy = (*PublicStrategy)(nil)

type listingResponse struct {
	Data *struct {
		After    string `json:"after"`
		Children []struct {
			Kind string      `json:"kind"`
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Selftext      string   `json:"selftext"`
	Author        string   `json:"author"`
	CreatedUTC    float64  `json:"created_utc"`
	Score         int      `json:"score"`
	UpvoteRatio   *float64 `json:"upvote_ratio"`
	NumComments   int      `json:"num_comments"`
	URL           string   `json:"url"`
	Permalink     string   `json:"permalink"`
	IsSelf        bool     `json:"is_self"`
	LinkFlairText *string  `json:"link_flair_text"`
}

// NewPublicStrategy creates the unauthenticated strategy
func NewPublicStrategy(cfg PublicConfig) *PublicStrategy {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PageDelay < DefaultPageDelay {
		cfg.PageDelay = DefaultPageDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", cfg.UserAgent)

	limit := rate.Inf
	if cfg.CommentRate > 0 {
		limit = rate.Limit(cfg.CommentRate)
	}

	return &PublicStrategy{
		client:   client,
		clock:    cfg.Clock,
		delay:    cfg.PageDelay,
		comments: NewCommentWalker(client, rate.NewLimiter(limit, 1)),
	}
}

func (s *PublicStrategy) Name() string {
	return "public"
}

// Comments returns the walker sharing this strategy's HTTP client
func (s *PublicStrategy) Comments() *CommentWalker {
	return s.comments
}

// FetchListing pages through a channel listing. Each call owns its own pager.
func (s *PublicStrategy) FetchListing(ctx context.Context, req ListingRequest) iter.Seq2[models.DiscussionRecord, error] {
	pager := NewPager(s.clock, s.delay)
	pages := pager.Records(ctx, req.Limit, func(ctx context.Context, after string, size int) (Page, error) {
		return s.fetchPage(ctx, req, after, size)
	})
	return withChannelContext(s.Name(), req.Channel, pages)
}

func (s *PublicStrategy) fetchPage(ctx context.Context, req ListingRequest, after string, size int) (Page, error) {
	r := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"channel": req.Channel, "sort": req.Sort}).
		SetQueryParam("limit", strconv.Itoa(size))
	if after != "" {
		r.SetQueryParam("after", after)
	}
	if req.usesTimeWindow() && req.TimeWindow != "" {
		r.SetQueryParam("t", req.TimeWindow)
	}

	body, err := doGet(r, "/r/{channel}/{sort}.json")
	if err != nil {
		metrics.PagesFetched.WithLabelValues(s.Name(), "error").Inc()
		return Page{}, err
	}

	var listing listingResponse
	if err := json.Unmarshal(body.data, &listing); err != nil {
		metrics.PagesFetched.WithLabelValues(s.Name(), "malformed").Inc()
		return Page{}, &MalformedPayloadError{URL: body.url, Err: err}
	}
	if listing.Data == nil {
		metrics.PagesFetched.WithLabelValues(s.Name(), "malformed").Inc()
		return Page{}, &MalformedPayloadError{URL: body.url, Err: errors.New("missing data object")}
	}
	metrics.PagesFetched.WithLabelValues(s.Name(), "ok").Inc()

	return listing.page(req.Channel), nil
}

// page normalizes a decoded listing. Both strategies decode into this shape.
func (l *listingResponse) page(channel string) Page {
	page := Page{After: l.Data.After}
	for _, child := range l.Data.Children {
		p := child.Data
		if p.ID == "" {
			continue
		}
		page.Records = append(page.Records, normalizePost(channel, rawPost{
			ID:          p.ID,
			Title:       p.Title,
			Selftext:    p.Selftext,
			Author:      p.Author,
			CreatedUTC:  p.CreatedUTC,
			Score:       p.Score,
			UpvoteRatio: p.UpvoteRatio,
			NumComments: p.NumComments,
			URL:         p.URL,
			Permalink:   p.Permalink,
			IsSelf:      p.IsSelf,
			Flair:       p.LinkFlairText,
		}))
	}
	return page
}

type responseBody struct {
	url  string
	data []byte
}

// doGet issues the request and maps transport failures and non-2xx statuses to *TransportError
func doGet(r *resty.Request, path string) (responseBody, error) {
	resp, err := r.Get(path)
	if err != nil {
		return responseBody{}, &TransportError{URL: path, Err: err}
	}
	url := resp.Request.URL
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return responseBody{}, &TransportError{URL: url, StatusCode: resp.StatusCode()}
	}
	return responseBody{url: url, data: resp.Body()}, nil
}
