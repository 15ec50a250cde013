package analysis

import (
	"context"
	"runtime"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

// Annotate fills MatchedOrganizations and Sentiment on every record in place.
// Records are independent, so work is spread across workers with no ordering.
func Annotate(ctx context.Context, records []models.DiscussionRecord, extractor *Extractor, classifier *Classifier, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range records {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			text := records[i].Text()
			records[i].MatchedOrganizations = extractor.Match(text)
			sentiment := classifier.Classify(text)
			records[i].Sentiment = &sentiment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
