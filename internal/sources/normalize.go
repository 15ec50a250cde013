package sources

import (
	"math"
	"strings"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
)

const (
	permalinkHost = "https://reddit.com"
	deletedAuthor = "[deleted]"
)

// rawPost is the provider-neutral shape both strategies decode into before normalization
type rawPost struct {
	ID          string
	Title       string
	Selftext    string
	Author      string
	CreatedUTC  float64
	Score       int
	UpvoteRatio *float64
	NumComments int
	URL         string
	Permalink   string
	IsSelf      bool
	Flair       *string
}

// normalizePost maps a raw post into a DiscussionRecord. Every strategy goes through here.
func normalizePost(channel string, p rawPost) models.DiscussionRecord {
	author := p.Author
	if author == "" {
		author = deletedAuthor
	}

	permalink := p.Permalink
	if strings.HasPrefix(permalink, "/") {
		permalink = permalinkHost + permalink
	}

	var flair string
	if p.Flair != nil {
		flair = *p.Flair
	}

	return models.DiscussionRecord{
		ID:           p.ID,
		Channel:      channel,
		Title:        p.Title,
		Body:         p.Selftext,
		Author:       author,
		CreatedAt:    epochToUTC(p.CreatedUTC),
		Score:        p.Score,
		UpvoteRatio:  p.UpvoteRatio,
		CommentCount: p.NumComments,
		URL:          p.URL,
		Permalink:    permalink,
		IsSelf:       p.IsSelf,
		Flair:        flair,
	}
}

func epochToUTC(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
