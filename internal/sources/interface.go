package sources

import (
	"context"
	"iter"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

// ListingRequest describes one channel listing fetch
type ListingRequest struct {
	Channel    string
	Limit      int
	Sort       string // new, hot, top, rising, controversial
	TimeWindow string // hour, day, week, month, year, all; used by top and controversial
}

// usesTimeWindow reports whether the sort accepts a time window parameter
func (r ListingRequest) usesTimeWindow() bool {
	return r.Sort == "top" || r.Sort == "controversial"
}

// Strategy is a transport for fetching channel listings.
//
// FetchListing yields records lazily. A failure is yielded as the final element
// wrapped in a *ChannelError; records yielded before it stay valid.
type Strategy interface {
	Name() string
	FetchListing(ctx context.Context, req ListingRequest) iter.Seq2[models.DiscussionRecord, error]
}
