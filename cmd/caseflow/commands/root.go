package commands

import (
	"context"
	"fmt"

	"github.com/caseflow/caseflow/pkg/automation"
	"github.com/caseflow/caseflow/pkg/config"
	"github.com/caseflow/caseflow/pkg/plugins/uistub"
	"github.com/caseflow/caseflow/pkg/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	dataDir     string
	historyPath string
	verbose     bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "caseflow",
		Short: "CaseFlow - UI test case orchestration",
		Long: `CaseFlow runs plugin-driven UI automation test cases.

Test cases are JSON or YAML files whose steps are dispatched to
registered automation plugins. Step parameters may reference test data
with ${dataset.item} tokens resolved from dataset files.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "directory of dataset files (JSON/YAML)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "SQLite database path for run history")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPluginsCommand())
	rootCmd.AddCommand(newDataCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}

// newCore builds an automation core for a command invocation: config file
// merged with flags, built-in plugins registered, datasets imported.
func newCore(ctx context.Context) (*automation.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Flags win over the config file.
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}

	tcfg := cfg.TelemetryConfig()
	logger, err := telemetry.NewLogger(tcfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	metrics, err := telemetry.NewMetrics(tcfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	if tcfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx); err != nil {
				logger.WithError(err).Error("metrics endpoint failed")
			}
		}()
	}

	core, err := automation.New(ctx, automation.Options{
		Logger:      logger,
		Metrics:     metrics,
		HistoryPath: cfg.History.Path,
	})
	if err != nil {
		return nil, err
	}

	if err := core.RegisterPlugin(uistub.Module{}); err != nil {
		_ = core.Close()
		return nil, fmt.Errorf("registering built-in plugins: %w", err)
	}

	if cfg.Data.Dir != "" {
		if cfg.Data.Watch {
			if _, err := core.Data().Watch(ctx, cfg.Data.Dir); err != nil {
				_ = core.Close()
				return nil, fmt.Errorf("watching datasets: %w", err)
			}
		} else if err := core.Data().ImportDir(cfg.Data.Dir); err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("importing datasets: %w", err)
		}
	}

	return core, nil
}
