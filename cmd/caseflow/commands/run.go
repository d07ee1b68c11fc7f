package commands

import (
	"fmt"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var (
		outputPath string
		formatName string
	)

	cmd := &cobra.Command{
		Use:   "run <case-file>...",
		Short: "Run test cases from case files",
		Long: `Run the test cases defined in one or more JSON or YAML case files.

Cases run sequentially in file order. A text report is printed to
stdout; --output saves the report to a file in the chosen format.`,
		Example: `  # Run a case file
  caseflow run cases/login.yaml

  # Run with datasets and save an HTML report
  caseflow run -d testdata/datasets --output report.html --format html cases/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			var all []engine.TestCase
			for _, path := range args {
				loaded, err := core.LoadCases(path)
				if err != nil {
					return err
				}
				all = append(all, loaded...)
			}

			log.Info().Int("cases", len(all)).Msg("Running test cases")
			results := core.RunCases(cmd.Context(), all)

			text, err := core.GenerateReport(results, report.FormatText)
			if err != nil {
				return err
			}
			fmt.Println(string(text))

			if outputPath != "" {
				format, err := report.ParseFormat(formatName)
				if err != nil {
					return err
				}
				if err := core.SaveReport(outputPath, results, format); err != nil {
					return err
				}
				log.Info().Str("path", outputPath).Msg("Report saved")
			}

			failed := 0
			for _, r := range results {
				if !r.OverallSuccess {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write a report to this path")
	cmd.Flags().StringVarP(&formatName, "format", "f", "text", "report format: text, html or xml")

	return cmd
}
