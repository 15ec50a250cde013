package sources

import (
	"context"
	"iter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// MaxPageSize is the largest page the listing endpoint will return
const MaxPageSize = 100

// DefaultPageDelay is the minimum pause between successive page requests
const DefaultPageDelay = config.MinPageDelay

// Page is one listing response
type Page struct {
	Records []models.DiscussionRecord
	After   string // empty when there are no further pages
}

// PageFunc requests a single page starting after the given cursor
type PageFunc func(ctx context.Context, after string, size int) (Page, error)

// Pager drives cursor-based pagination. It holds no per-fetch state; cursor and
// seen-id bookkeeping live inside each sequence returned by Records.
type Pager struct {
	clock clockwork.Clock
	delay time.Duration
}

// NewPager creates a pager that waits delay between pages on the given clock
func NewPager(clock clockwork.Clock, delay time.Duration) *Pager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pager{clock: clock, delay: delay}
}

// Records yields up to limit unique records, requesting pages through fetch.
//
// The loop stops when the limit is reached, a page is empty, no cursor is
// returned, or the cursor fails to advance. A fetch error is yielded as the
// last element.
func (p *Pager) Records(ctx context.Context, limit int, fetch PageFunc) iter.Seq2[models.DiscussionRecord, error] {
	return func(yield func(models.DiscussionRecord, error) bool) {
		if limit <= 0 {
			return
		}

		size := min(limit, MaxPageSize)
		seen := make(map[string]struct{})
		requested := make(map[string]struct{})
		after := ""
		fetched := 0

		for page := 0; fetched < limit; page++ {
			if page > 0 {
				if err := p.wait(ctx); err != nil {
					yield(models.DiscussionRecord{}, err)
					return
				}
			}

			requested[after] = struct{}{}
			result, err := fetch(ctx, after, size)
			if err != nil {
				yield(models.DiscussionRecord{}, err)
				return
			}

			if len(result.Records) == 0 {
				return
			}

			for _, rec := range result.Records {
				if fetched >= limit {
					return
				}
				if _, dup := seen[rec.ID]; dup {
					continue
				}
				seen[rec.ID] = struct{}{}
				if !yield(rec, nil) {
					return
				}
				fetched++
			}

			if result.After == "" {
				return
			}
			if _, repeated := requested[result.After]; repeated {
				logrus.WithField("cursor", result.After).Warn("Listing cursor did not advance, stopping pagination")
				return
			}
			after = result.After
		}
	}
}

func (p *Pager) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-p.clock.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
