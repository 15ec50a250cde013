package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Compare Reddit layoff discussion against reported layoffs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env file if it exists
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using environment variables")
			}

			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
			setupLogging(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultPath+")")

	root.AddCommand(scrapeCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(layoffsCmd())
	root.AddCommand(combineCmd())
	root.AddCommand(verifyCmd())
	root.AddCommand(serveCmd())

	return root
}

func setupLogging(cfg *config.Config) {
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func scrapeCmd() *cobra.Command {
	var (
		comments bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch posts from every configured subreddit and save them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("comments") {
				cfg.Scraping.IncludeComments = comments
			}
			if limit > 0 {
				cfg.Scraping.PostsPerSubreddit = limit
			}
			return runScrape(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&comments, "comments", false, "also fetch comments for the first posts of each subreddit")
	cmd.Flags().IntVar(&limit, "limit", 0, "posts per subreddit (default: from config)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		input  string
		months int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print post statistics and sentiment for a saved posts table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), input, months)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "posts table to read, or \"db\" for the run history (default: newest all_posts file)")
	cmd.Flags().IntVar(&months, "months", 6, "months shown in the mention timeline")
	return cmd
}

func layoffsCmd() *cobra.Command {
	var (
		months int
		top    int
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "layoffs",
		Short: "Summarize the reference layoff dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if months <= 0 {
				months = cfg.Reference.Months
			}
			return runLayoffs(cmd.Context(), cmd.OutOrStdout(), months, top, save)
		},
	}

	cmd.Flags().IntVar(&months, "months", 0, "months of events to include (default: from config)")
	cmd.Flags().IntVar(&top, "top", 20, "companies shown in the month pivot")
	cmd.Flags().BoolVar(&save, "save", false, "store the filtered events table")
	return cmd
}

func combineCmd() *cobra.Command {
	var (
		input string
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Join saved posts with the reference dataset and report correlations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd.Context(), cmd.OutOrStdout(), input, save)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "posts table to read, or \"db\" for the run history (default: newest all_posts file)")
	cmd.Flags().BoolVar(&save, "save", false, "store the combined table and send the report")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare the compiled dataset against the verified one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "server port (default: from config)")
	return cmd
}
