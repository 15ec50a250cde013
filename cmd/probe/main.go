package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/models"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/notifications"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/reference"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/report"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/sources"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/storage"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/tracker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var (
		cfgFile  string
		limit    int
		pipeline bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:          "probe",
		Short:        "Check connectivity to Reddit and the reference dataset",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using system environment variables")
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			if pipeline {
				return runPipeline(ctx, out, cfg, limit)
			}
			return runProbe(ctx, out, cfg, limit)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultPath+")")
	cmd.Flags().IntVar(&limit, "limit", 5, "records to pull per subreddit")
	cmd.Flags().BoolVar(&pipeline, "pipeline", false, "run collect and combine into a temporary directory and print the report")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProbe(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	strategy := sources.NewStrategy(ctx, cfg, clockwork.NewRealClock())

	fmt.Fprintln(out, "Reddit connectivity check")
	fmt.Fprintln(out, strings.Repeat("=", 40))
	fmt.Fprintf(out, "Strategy: %s\n\n", strategy.Name())

	failed := 0
	for _, channel := range cfg.Subreddits {
		fmt.Fprintf(out, "r/%s ... ", channel)
		records, err := sources.Collect(strategy.FetchListing(ctx, sources.ListingRequest{
			Channel:    channel,
			Limit:      limit,
			Sort:       cfg.Scraping.SortBy,
			TimeWindow: cfg.Scraping.TimeFilter,
		}))
		if err != nil {
			failed++
			fmt.Fprintf(out, "ERROR after %d records: %v\n", len(records), err)
			continue
		}
		fmt.Fprintf(out, "OK (%d records)\n", len(records))
		if len(records) > 0 {
			fmt.Fprintf(out, "    sample: %q\n", records[0].Title)
		}
	}

	dataset, err := reference.New(cfg.Reference, cfg.Scraping.RequestTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nReference dataset %s ... ", dataset.Name())
	events, err := dataset.Events(ctx)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err)
		failed++
	} else {
		fmt.Fprintf(out, "OK (%d events, %s laid off)\n", len(events), report.Comma(reference.GrandTotal(events)))
	}

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

// consoleNotifier prints reports instead of delivering them
type consoleNotifier struct {
	out io.Writer
}

func (c consoleNotifier) SendReport(ctx context.Context, rep *models.Report) error {
	fmt.Fprintf(c.out, "\nREPORT %s (%d discussions, %d events)\n", rep.Period, rep.TotalDiscussions, rep.TotalEvents)
	return report.Combined(c.out, rep.Rows, rep.Correlations)
}

func (c consoleNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	fmt.Fprintf(c.out, "ALERT [%s] %s: %s\n", alert.Type, alert.Title, alert.Message)
	return nil
}

var _ notifications.NotificationInterface = consoleNotifier{}

func runPipeline(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	dir, err := os.MkdirTemp("", "tracker-probe-")
	if err != nil {
		return err
	}
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return err
	}

	dataset, err := reference.New(cfg.Reference, cfg.Scraping.RequestTimeout)
	if err != nil {
		return err
	}

	cfg.Scraping.PostsPerSubreddit = limit
	// any non-empty destination enables delivery; the console notifier ignores it
	cfg.Notifications.TeamsWebhookURL = "console"

	strategy := sources.NewStrategy(ctx, cfg, clockwork.NewRealClock())
	svc := tracker.NewService(cfg, strategy, dataset, store, consoleNotifier{out: out})
	if err := svc.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nOutput tables written to %s\n", store.Dir())
	return nil
}
