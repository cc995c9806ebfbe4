package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/licverify/internal/config"
	"github.com/chris-regnier/licverify/internal/output"
	"github.com/chris-regnier/licverify/internal/table"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagTable   string
	flagQuiet   bool
	flagVerbose bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:           "licverify",
	Short:         "Verify provider licensing against a state verification table",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "licverify %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built at: %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "licverify.yaml", "Project config file")
	flags.StringVar(&flagTable, "table", "", "Verification workbook (overrides data.table_path)")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all log output")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Log at info level")
	flags.BoolVar(&flagDebug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges defaults, the machine config and --config, then applies
// command-line overrides.
func loadConfig() (*config.Config, error) {
	machineConfig := os.ExpandEnv("$HOME/.config/licverify/config.yaml")
	cfg, err := config.LoadTiered(machineConfig, flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagTable != "" {
		cfg.Data.TablePath = flagTable
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = version
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return output.SetupLogger(output.LoggerOptions{
		Quiet:   flagQuiet,
		Verbose: flagVerbose,
		Debug:   flagDebug,
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
	}, w)
}

func loadTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) *table.Table {
	var opts []table.LoadOption
	if cfg.Data.Sheet != "" {
		opts = append(opts, table.WithSheet(cfg.Data.Sheet))
	}
	return table.LoadOrEmpty(ctx, cfg.Data.TablePath, logger, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
