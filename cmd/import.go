package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

func newImportCmd() *cobra.Command {
	var (
		token    string
		database string
	)

	cmd := &cobra.Command{
		Use:   "import <isbn> [isbn...]",
		Short: "Look up one or more ISBNs and create a record for each",
		Long: `Runs the lookup pipeline once per ISBN, in order. Each run is
independent: a failed ISBN is reported and the next one proceeds. At most
one record is created per ISBN.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := sessionCredentials(token, database)
			if err != nil {
				return err
			}

			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			var failed []error
			for _, isbn := range args {
				report, err := runner.Run(cmd.Context(), creds, isbn)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED: %s\n", isbn, userMessage(err))
					failed = append(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: created %q (%s)\n",
					isbn, report.Book.Title, report.Record.ID)
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d imports failed", len(failed), len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Notion integration token (overrides config/env)")
	cmd.Flags().StringVar(&database, "database", "", "Notion database ID (overrides config/env)")
	return cmd
}

// userMessage renders a pipeline failure as an actionable one-liner.
func userMessage(err error) string {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		return err.Error()
	}
	switch {
	case perr.Stage == pipeline.StageFetch && perr.Kind == pipeline.KindNotFound:
		return "book not found in the catalog"
	case perr.Kind == pipeline.KindRateLimited:
		return "rate limited, try again in a moment"
	case perr.Kind == pipeline.KindParse:
		return "catalog page layout not recognized"
	case perr.Kind == pipeline.KindAuth:
		return "token rejected, check your integration token"
	case perr.Stage == pipeline.StageWrite && perr.Kind == pipeline.KindNotFound:
		return "database not found or not shared with the integration"
	case perr.Kind == pipeline.KindSchemaMismatch:
		return "database schema does not match the mapped fields"
	default:
		return strings.TrimSpace(perr.Error())
	}
}
