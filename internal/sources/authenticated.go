package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/go-reddit/v3/reddit"
	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/metrics"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultOAuthBaseURL = "https://oauth.reddit.com"
	defaultTokenURL     = "https://www.reddit.com/api/v1/access_token"
)

// listingAPI is the subset of the Reddit client used for listings. Requests are
// decoded into the same listing shape the public strategy reads.
type listingAPI interface {
	NewRequest(method string, path string, form url.Values) (*http.Request, error)
	Do(ctx context.Context, req *http.Request, v interface{}) (*reddit.Response, error)
}

// AuthConfig holds the credentials for the authenticated strategy.
// Username and Password are optional; without them an app-only token is used.
type AuthConfig struct {
	ClientID       string
	ClientSecret   string
	UserAgent      string
	Username       string
	Password       string
	BaseURL        string
	TokenURL       string
	RequestTimeout time.Duration
	Clock          clockwork.Clock
}

// AuthenticatedStrategy fetches listings through the OAuth API client
type AuthenticatedStrategy struct {
	api   listingAPI
	clock clockwork.Clock
}

var _ Strategy = (*AuthenticatedStrategy)(nil)

// NewAuthenticatedStrategy builds the OAuth client. It returns ErrMissingCredentials
// when the client id or secret is empty.
func NewAuthenticatedStrategy(ctx context.Context, cfg AuthConfig) (*AuthenticatedStrategy, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOAuthBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	var (
		client *reddit.Client
		err    error
	)

	if cfg.Username != "" && cfg.Password != "" {
		client, err = reddit.NewClient(
			reddit.Credentials{
				ID:       cfg.ClientID,
				Secret:   cfg.ClientSecret,
				Username: cfg.Username,
				Password: cfg.Password,
			},
			reddit.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
			reddit.WithUserAgent(cfg.UserAgent),
			reddit.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
			reddit.WithTokenURL(cfg.TokenURL),
		)
	} else {
		client, err = newAppOnlyClient(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	return newAuthenticatedStrategy(client, cfg.Clock), nil
}

// newAppOnlyClient uses the client_credentials grant, which needs no user account
func newAppOnlyClient(ctx context.Context, cfg AuthConfig) (*reddit.Client, error) {
	tokenHTTP := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, base: http.DefaultTransport},
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, tokenHTTP))
	httpClient.Timeout = cfg.RequestTimeout

	return reddit.NewReadonlyClient(
		reddit.WithHTTPClient(httpClient),
		reddit.WithUserAgent(cfg.UserAgent),
		reddit.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
	)
}

func newAuthenticatedStrategy(api listingAPI, clock clockwork.Clock) *AuthenticatedStrategy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthenticatedStrategy{api: api, clock: clock}
}

func (s *AuthenticatedStrategy) Name() string {
	return "authenticated"
}

// FetchListing pages through a channel using the client's cursors. Pacing follows
// the rate headers reported by the provider rather than a fixed delay.
func (s *AuthenticatedStrategy) FetchListing(ctx context.Context, req ListingRequest) iter.Seq2[models.DiscussionRecord, error] {
	pager := NewPager(s.clock, 0)
	var last reddit.Rate

	pages := pager.Records(ctx, req.Limit, func(ctx context.Context, after string, size int) (Page, error) {
		if err := s.awaitRateReset(ctx, last); err != nil {
			return Page{}, err
		}

		listing, resp, err := s.list(ctx, req, after, size)
		if resp != nil {
			last = resp.Rate
		}
		if err != nil {
			var malformed *MalformedPayloadError
			if errors.As(err, &malformed) {
				metrics.PagesFetched.WithLabelValues(s.Name(), "malformed").Inc()
				return Page{}, err
			}
			metrics.PagesFetched.WithLabelValues(s.Name(), "error").Inc()
			return Page{}, toTransportError(req.Channel, resp, err)
		}
		metrics.PagesFetched.WithLabelValues(s.Name(), "ok").Inc()

		return listing.page(req.Channel), nil
	})

	return withChannelContext(s.Name(), req.Channel, pages)
}

func (s *AuthenticatedStrategy) list(ctx context.Context, req ListingRequest, after string, size int) (*listingResponse, *reddit.Response, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(size))
	if after != "" {
		query.Set("after", after)
	}
	if req.usesTimeWindow() && req.TimeWindow != "" {
		query.Set("t", req.TimeWindow)
	}
	path := fmt.Sprintf("r/%s/%s?%s", url.PathEscape(req.Channel), url.PathEscape(req.Sort), query.Encode())

	httpReq, err := s.api.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}

	var listing listingResponse
	resp, err := s.api.Do(ctx, httpReq, &listing)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, resp, &MalformedPayloadError{URL: httpReq.URL.String(), Err: err}
		}
		return nil, resp, err
	}
	if listing.Data == nil {
		return nil, resp, &MalformedPayloadError{URL: httpReq.URL.String(), Err: errors.New("missing data object")}
	}
	return &listing, resp, nil
}

// awaitRateReset blocks until the provider's window resets when the last response
// reported no remaining requests
func (s *AuthenticatedStrategy) awaitRateReset(ctx context.Context, last reddit.Rate) error {
	if last.Reset.IsZero() || last.Remaining > 0 {
		return nil
	}
	wait := last.Reset.Sub(s.clock.Now())
	if wait <= 0 {
		return nil
	}
	logrus.WithField("wait", wait.String()).Info("Rate limit exhausted, waiting for reset")
	select {
	case <-s.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toTransportError(channel string, resp *reddit.Response, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	te := &TransportError{URL: "/r/" + channel, Err: err}
	if resp != nil && resp.Response != nil {
		te.StatusCode = resp.StatusCode
		if resp.Request != nil {
			te.URL = resp.Request.URL.String()
		}
	}
	return te
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// withTrailingSlash keeps relative listing paths resolving under the base path
func withTrailingSlash(base string) string {
	return strings.TrimRight(base, "/") + "/"
}
