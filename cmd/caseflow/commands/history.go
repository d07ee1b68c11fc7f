package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List persisted run results",
		Long:    `List case run results persisted to the --history database.`,
		Example: `  caseflow history --history runs.db --limit 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if historyPath == "" {
				return fmt.Errorf("--history is required")
			}

			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			results, err := core.History().ListResults(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"ID", "Case", "Result", "Started", "Duration", "Error"})
			for _, r := range results {
				status := "FAIL"
				if r.OverallSuccess {
					status = "PASS"
				}
				tw.AppendRow(table.Row{
					r.ID,
					r.CaseName,
					status,
					r.StartedAt.Format("2006-01-02 15:04:05"),
					r.TotalDuration.String(),
					r.ErrorMessage,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results to list")

	return cmd
}
