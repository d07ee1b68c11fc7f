package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect datasets and resolve data references",
	}
	cmd.AddCommand(newDataListCommand())
	cmd.AddCommand(newDataResolveCommand())
	return cmd
}

func newDataListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets imported from --data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Dataset", "Items", "Description"})
			for _, ds := range core.Data().ListDatasets() {
				tw.AppendRow(table.Row{ds.Name, len(ds.Items), ds.Description})
			}
			tw.Render()
			return nil
		},
	}
}

func newDataResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Resolve a single ${dataset.item} reference",
		Example: `  caseflow data resolve -d testdata/datasets '${login.username}'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			value, err := core.ResolveDataReference(args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
}
