package commands

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins and their actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			infos := core.PluginInfos()

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Plugin", "Version", "Actions", "Description"})
			for _, name := range core.ListPlugins() {
				info := infos[name]
				tw.AppendRow(table.Row{name, info.Version, strings.Join(info.Actions, ", "), info.Description})
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}
