package commands

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var checkPlugins bool

	cmd := &cobra.Command{
		Use:   "validate <case-file>...",
		Short: "Validate case files without running them",
		Long: `Parse and validate one or more case files.

Structural validation always runs. With --plugins, each step is also
checked against the registered plugins and their declared actions.`,
		Example: `  # Check file structure
  caseflow validate cases/login.yaml

  # Also verify plugins and actions exist
  caseflow validate --plugins cases/login.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			failures := 0
			for _, path := range args {
				loaded, err := core.LoadCases(path)
				if err != nil {
					log.Error().Err(err).Str("file", path).Msg("Invalid case file")
					failures++
					continue
				}

				for _, tc := range loaded {
					if !checkPlugins {
						continue
					}
					for _, step := range tc.Steps {
						actions, ok := core.ListActions(step.PluginName)
						if !ok {
							log.Error().
								Str("case", tc.Name).
								Int("step", step.ID).
								Str("plugin", step.PluginName).
								Msg("Unknown plugin")
							failures++
							continue
						}
						if !slices.Contains(actions, step.Param.Action) {
							log.Error().
								Str("case", tc.Name).
								Int("step", step.ID).
								Str("plugin", step.PluginName).
								Str("action", step.Param.Action).
								Msg("Unsupported action")
							failures++
						}
					}
				}
				log.Info().Str("file", path).Int("cases", len(loaded)).Msg("Case file parsed")
			}

			if failures > 0 {
				return fmt.Errorf("validation failed with %d errors", failures)
			}
			fmt.Println("All case files are valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkPlugins, "plugins", false, "verify step plugins and actions are registered")

	return cmd
}
