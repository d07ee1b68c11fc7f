package commands

import (
	"fmt"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	var (
		outputPath string
		formatName string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a report from persisted run results",
		Long: `Render a report over the most recent results in the --history
database, without re-running any cases.`,
		Example: `  # Print a text report of the last 10 persisted runs
  caseflow report --history runs.db --limit 10

  # Save the full history as HTML
  caseflow report --history runs.db --format html --output report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if historyPath == "" {
				return fmt.Errorf("--history is required")
			}
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			stored, err := core.History().ListResults(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			// The listing has no step rows; hydrate each result for the
			// per-step report detail.
			results := make([]engine.CaseResult, 0, len(stored))
			for _, s := range stored {
				full, err := core.History().GetResult(cmd.Context(), s.ID)
				if err != nil {
					return fmt.Errorf("loading result %s: %w", s.ID, err)
				}
				results = append(results, full.ToCaseResult())
			}

			if outputPath != "" {
				if err := core.SaveReport(outputPath, results, format); err != nil {
					return err
				}
				log.Info().Str("path", outputPath).Msg("Report saved")
				return nil
			}

			data, err := core.GenerateReport(results, format)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to this path instead of stdout")
	cmd.Flags().StringVarP(&formatName, "format", "f", "text", "report format: text, html or xml")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results to include")

	return cmd
}
