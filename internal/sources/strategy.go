package sources

import (
	"context"
	"errors"
	"iter"

	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/metrics"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// NewStrategy picks the transport once at startup: authenticated when usable
// credentials are configured, public otherwise.
func NewStrategy(ctx context.Context, cfg *config.Config, clock clockwork.Clock) Strategy {
	public := NewPublicStrategy(PublicConfig{
		BaseURL:        cfg.Reddit.BaseURL,
		UserAgent:      cfg.Reddit.UserAgent,
		RequestTimeout: cfg.Scraping.RequestTimeout,
		PageDelay:      cfg.Scraping.PageDelay,
		CommentRate:    cfg.Scraping.CommentRate,
		Clock:          clock,
	})

	if !cfg.HasRedditCredentials() {
		logrus.Info("No Reddit API credentials configured, using public JSON endpoints")
		return public
	}

	auth, err := NewAuthenticatedStrategy(ctx, AuthConfig{
		ClientID:       cfg.Reddit.ClientID,
		ClientSecret:   cfg.Reddit.ClientSecret,
		UserAgent:      cfg.Reddit.UserAgent,
		Username:       cfg.Reddit.Username,
		Password:       cfg.Reddit.Password,
		RequestTimeout: cfg.Scraping.RequestTimeout,
		Clock:          clock,
	})
	if err != nil {
		if !errors.Is(err, ErrMissingCredentials) {
			logrus.Warnf("Failed to create authenticated Reddit client, falling back to public endpoints: %v", err)
		}
		return public
	}

	logrus.Info("Using authenticated Reddit API")
	return auth
}

// withChannelContext logs and wraps a terminal error with channel context and counts yielded records
func withChannelContext(strategy, channel string, seq iter.Seq2[models.DiscussionRecord, error]) iter.Seq2[models.DiscussionRecord, error] {
	return func(yield func(models.DiscussionRecord, error) bool) {
		for rec, err := range seq {
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"channel":  channel,
					"strategy": strategy,
				}).Errorf("Abandoning channel fetch: %v", err)
				metrics.ChannelFailures.WithLabelValues(channel, strategy).Inc()
				yield(models.DiscussionRecord{}, &ChannelError{Channel: channel, Strategy: strategy, Err: err})
				return
			}
			metrics.RecordsFetched.WithLabelValues(channel).Inc()
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains a listing into a slice, returning the records read before any failure
func Collect(seq iter.Seq2[models.DiscussionRecord, error]) ([]models.DiscussionRecord, error) {
	var out []models.DiscussionRecord
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
