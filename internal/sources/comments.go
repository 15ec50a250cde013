package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"

	"github.com/go-resty/resty/v2"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/metrics"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// commentKind tags comment nodes; other kinds ("more", link stubs) are skipped
const commentKind = "t1"

// CommentNode is one node of a reply tree as returned by the comment endpoint
type CommentNode struct {
	Kind string      `json:"kind"`
	Data CommentData `json:"data"`
}

// CommentData holds the fields read from a comment node
type CommentData struct {
	ID          string          `json:"id"`
	Body        string          `json:"body"`
	Author      string          `json:"author"`
	CreatedUTC  *float64        `json:"created_utc"`
	Score       int             `json:"score"`
	IsSubmitter bool            `json:"is_submitter"`
	ParentID    string          `json:"parent_id"`
	Replies     json.RawMessage `json:"replies"` // "" when there are none
}

type commentListing struct {
	Data struct {
		Children []CommentNode `json:"children"`
	} `json:"data"`
}

// replies decodes nested children. Anything other than a listing object means no replies.
func (d CommentData) replies() ([]CommentNode, error) {
	raw := bytes.TrimSpace(d.Replies)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var listing commentListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}
	return listing.Data.Children, nil
}

// CommentWalker fetches and flattens comment trees for single discussions
type CommentWalker struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewCommentWalker creates a walker; limiter paces requests across discussions
func NewCommentWalker(client *resty.Client, limiter *rate.Limiter) *CommentWalker {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &CommentWalker{client: client, limiter: limiter}
}

// FetchComments yields up to limit comments from one discussion, depth-first.
// The sequence is single-use: it issues one request and walks the result once.
func (w *CommentWalker) FetchComments(ctx context.Context, discussionID, channel string, limit int) iter.Seq2[models.CommentRecord, error] {
	return func(yield func(models.CommentRecord, error) bool) {
		if limit <= 0 {
			return
		}

		roots, err := w.fetchTree(ctx, discussionID, channel)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"channel":    channel,
				"discussion": discussionID,
			}).Errorf("Failed to fetch comments: %v", err)
			yield(models.CommentRecord{}, &ChannelError{Channel: channel, Strategy: "public", Err: err})
			return
		}

		for c := range WalkCommentTree(discussionID, roots, limit) {
			metrics.CommentsFetched.Inc()
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (w *CommentWalker) fetchTree(ctx context.Context, discussionID, channel string) ([]CommentNode, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	r := w.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"channel": channel, "id": discussionID})
	body, err := doGet(r, "/r/{channel}/comments/{id}.json")
	if err != nil {
		return nil, err
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body.data, &parts); err != nil {
		return nil, &MalformedPayloadError{URL: body.url, Err: err}
	}
	if len(parts) < 2 {
		return nil, nil
	}

	var listing commentListing
	if err := json.Unmarshal(parts[1], &listing); err != nil {
		return nil, &MalformedPayloadError{URL: body.url, Err: errors.Join(errors.New("comment listing"), err)}
	}
	return listing.Data.Children, nil
}

// WalkCommentTree flattens a reply tree in depth-first pre-order, stopping once
// limit comments have been yielded anywhere in the tree.
func WalkCommentTree(discussionID string, roots []CommentNode, limit int) iter.Seq[models.CommentRecord] {
	return func(yield func(models.CommentRecord) bool) {
		stack := pushReversed(nil, roots)
		yielded := 0

		for len(stack) > 0 && yielded < limit {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if node.Kind != commentKind {
				continue
			}

			if !yield(toCommentRecord(discussionID, node.Data)) {
				return
			}
			yielded++

			children, err := node.Data.replies()
			if err != nil {
				logrus.WithField("comment", node.Data.ID).Debugf("Skipping unreadable replies: %v", err)
				continue
			}
			stack = pushReversed(stack, children)
		}
	}
}

// pushReversed keeps the first child on top of the stack so siblings are visited in order
func pushReversed(stack, nodes []CommentNode) []CommentNode {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	return stack
}

func toCommentRecord(discussionID string, c CommentData) models.CommentRecord {
	author := c.Author
	if author == "" {
		author = deletedAuthor
	}

	rec := models.CommentRecord{
		ID:           c.ID,
		DiscussionID: discussionID,
		Body:         c.Body,
		Author:       author,
		Score:        c.Score,
		IsSubmitter:  c.IsSubmitter,
		ParentID:     c.ParentID,
	}
	if c.CreatedUTC != nil && *c.CreatedUTC != 0 {
		created := epochToUTC(*c.CreatedUTC)
		rec.CreatedAt = &created
	}
	return rec
}
