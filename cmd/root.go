// Package cmd defines the CLI commands for the shelfbridge executable.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfbridge/shelfbridge/internal/clock/system"
	"github.com/shelfbridge/shelfbridge/internal/config"
	"github.com/shelfbridge/shelfbridge/internal/extract"
	collyfetcher "github.com/shelfbridge/shelfbridge/internal/fetcher/colly"
	"github.com/shelfbridge/shelfbridge/internal/fetcher/headless"
	"github.com/shelfbridge/shelfbridge/internal/id/uuid"
	"github.com/shelfbridge/shelfbridge/internal/logging"
	"github.com/shelfbridge/shelfbridge/internal/mapping"
	"github.com/shelfbridge/shelfbridge/internal/metrics"
	"github.com/shelfbridge/shelfbridge/internal/notion"
	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelfbridge",
		Short: "Import book metadata by ISBN into a Notion database.",
		Long: `shelfbridge looks a book up by ISBN on its catalog source, normalizes
the result and creates one new record in a Notion database you designate.
Credentials stay in memory for the session and are never persisted.`,
		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A local .env keeps the token out of shell history. Missing
			// files are fine; real environment variables win either way.
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			metrics.Init()
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// buildRunner assembles the pipeline from configuration. The returned
// cleanup releases fetcher resources and must run after the last import.
func buildRunner() (*pipeline.Runner, func(), error) {
	var (
		fetcher pipeline.Fetcher
		cleanup = func() {}
	)
	switch cfg.Catalog.Fetcher {
	case config.FetcherHeadless:
		hf, err := headless.New(headless.Config{
			BaseURL:           cfg.Catalog.BaseURL,
			UserAgent:         cfg.Catalog.UserAgent,
			NavigationTimeout: cfg.HeadlessNavTimeout(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		fetcher = hf
		cleanup = hf.Close
	default:
		fetcher = collyfetcher.New(collyfetcher.Config{
			BaseURL:   cfg.Catalog.BaseURL,
			UserAgent: cfg.Catalog.UserAgent,
			Referer:   cfg.Catalog.Referer,
			Timeout:   cfg.CatalogTimeout(),
		}, logger)
	}

	mapper, err := mapping.New(cfg.MappingTable())
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("resolve mapping table: %w", err)
	}

	writer := notion.New(&http.Client{Timeout: cfg.NotionTimeout()}, logger)

	runner := pipeline.NewRunner(
		fetcher,
		extract.NewDouban(),
		mapper,
		writer,
		system.New(),
		uuid.NewGenerator(),
		logger,
	)
	return runner, cleanup, nil
}

// sessionCredentials merges flag overrides onto configured defaults.
func sessionCredentials(token, database string) (pipeline.Credentials, error) {
	creds := pipeline.Credentials{
		Token:      cfg.Notion.Token,
		DatabaseID: cfg.Notion.DatabaseID,
	}
	if token != "" {
		creds.Token = token
	}
	if database != "" {
		creds.DatabaseID = database
	}
	if creds.Token == "" {
		return pipeline.Credentials{}, fmt.Errorf("no token: set SHELFBRIDGE_NOTION_TOKEN or pass --token")
	}
	if creds.DatabaseID == "" {
		return pipeline.Credentials{}, fmt.Errorf("no database: set SHELFBRIDGE_NOTION_DATABASE_ID or pass --database")
	}
	return creds, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
