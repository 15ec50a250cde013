package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/aggregation"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/analysis"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/notifications"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/reference"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/report"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/sources"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/storage"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/tracker"
	"github.com/sirupsen/logrus"
)

// app holds the wired dependencies shared by the subcommands
type app struct {
	service *tracker.Service
	dataset reference.Dataset
	storage storage.StorageInterface
	history *storage.SQLiteStore
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logrus.Warnf("Failed to close history database: %v", err)
		}
	}
}

func newApp(ctx context.Context) (*app, error) {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	dataset, err := reference.New(cfg.Reference, cfg.Scraping.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialize reference dataset: %w", err)
	}

	strategy := sources.NewStrategy(ctx, cfg, clockwork.NewRealClock())
	notificationService := notifications.NewService(&cfg.Notifications)

	a := &app{
		service: tracker.NewService(cfg, strategy, dataset, store, notificationService),
		dataset: dataset,
		storage: store,
	}

	if cfg.Storage.DatabasePath != "" {
		history, err := storage.OpenSQLite(cfg.Storage.DatabasePath)
		if err != nil {
			logrus.Warnf("Run history disabled: %v", err)
		} else {
			a.history = history
			a.service.SetHistory(history)
		}
	}
	return a, nil
}

func runScrape(ctx context.Context, out io.Writer) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if err := report.PostStats(out, analysis.SummarizePosts(result.Records, a.service.Extractor())); err != nil {
		return err
	}
	if err := report.Sentiment(out, analysis.SummarizeSentiment(result.Records)); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSaved %d records and %d comments:\n", len(result.Records), len(result.Comments))
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(out, "FAILED r/%s: %v\n", f.Channel, f.Err)
	}
	return nil
}

func runAnalyze(ctx context.Context, out io.Writer, input string, months int) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.service.LoadRecords(ctx, input)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	if err := report.PostStats(out, analysis.SummarizePosts(records, a.service.Extractor())); err != nil {
		return err
	}
	if err := report.Sentiment(out, analysis.SummarizeSentiment(records)); err != nil {
		return err
	}
	return report.Mentions(out, analysis.MonthlyMentions(records, months))
}

func loadEvents(ctx context.Context, dataset reference.Dataset, months int) ([]models.ReferenceEvent, error) {
	events, err := dataset.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s dataset: %w", dataset.Name(), err)
	}
	return reference.LastMonths(events, months, time.Now()), nil
}

func runLayoffs(ctx context.Context, out io.Writer, months, top int, save bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := loadEvents(ctx, a.dataset, months)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Dataset: %s, last %d months, %d events, %s laid off\n",
		a.dataset.Name(), months, len(events), report.Comma(reference.GrandTotal(events)))

	if err := report.Pivot(out, reference.PivotByMonth(events, top)); err != nil {
		return err
	}
	if err := report.Totals(out, "BY MONTH", reference.MonthlyTotals(events)); err != nil {
		return err
	}
	if err := report.Totals(out, "BY INDUSTRY", reference.IndustryTotals(events)); err != nil {
		return err
	}

	if !save {
		return nil
	}
	data, err := storage.Events.Encode(cfg.Storage.Format, events)
	if err != nil {
		return err
	}
	name := storage.TimestampedName(storage.AllChannels, storage.KindLayoffs, cfg.Storage.Format, time.Now())
	if err := a.storage.Store(ctx, name, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved %s\n", name)
	return nil
}

func runCombine(ctx context.Context, out io.Writer, input string, save bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.service.LoadRecords(ctx, input)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	events, err := loadEvents(ctx, a.dataset, cfg.Reference.Months)
	if err != nil {
		return err
	}

	var (
		rows         []models.OrganizationSummary
		correlations []models.Correlation
	)
	if save {
		rep, err := a.service.Combine(ctx, records)
		if rep == nil {
			return err
		}
		if err != nil {
			logrus.Warnf("Combined table saved but the report was not delivered: %v", err)
		}
		rows, correlations = rep.Rows, rep.Correlations
	} else {
		rows = aggregation.Combine(events, records, a.service.Extractor().Organizations())
		correlations = aggregation.Correlate(rows)
	}

	if err := report.Combined(out, rows, correlations); err != nil {
		return err
	}
	if trend, err := aggregation.MentionTrend(rows); err == nil {
		fmt.Fprintf(out, "\nMentions trend: %+.2f mentions per 10,000 laid off (n=%d)\n", trend.Slope*10000, trend.Points)
	}
	return report.Monthly(out, aggregation.MonthlyComparison(records, events))
}

func runVerify(ctx context.Context, out io.Writer) error {
	verified, err := reference.Verified().Events(ctx)
	if err != nil {
		return err
	}
	compiled, err := reference.Compiled().Events(ctx)
	if err != nil {
		return err
	}
	return report.Verification(out, reference.Compare(verified, compiled))
}
