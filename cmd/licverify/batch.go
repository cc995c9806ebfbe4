package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/licverify/internal/batch"
	"github.com/chris-regnier/licverify/internal/output"
	"github.com/chris-regnier/licverify/internal/server"
	"github.com/chris-regnier/licverify/internal/verify"
)

var (
	flagBatchIn     string
	flagBatchOut    string
	flagBatchFormat string
)

func init() {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Verify every row of a workbook offline",
		Long: `Read "Provider Name" and "Target Campaign State" from the first sheet of
--in and write one verdict per row to --out, in input order. The output is a
workbook unless --format json is given or --out ends in .json. Use --out - to
write to stdout.`,
		RunE: runBatch,
	}

	batchCmd.Flags().StringVar(&flagBatchIn, "in", "", "Input workbook")
	batchCmd.Flags().StringVar(&flagBatchOut, "out", server.ResultsFilename, "Output file, or - for stdout")
	batchCmd.Flags().StringVar(&flagBatchFormat, "format", "", "Output format: xlsx or json (default: from --out)")
	_ = batchCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := newLogger(cfg, cmd.ErrOrStderr())

	formatter, err := output.NewFormatter(output.ResolveFormat(flagBatchFormat, flagBatchOut))
	if err != nil {
		return err
	}

	in, err := os.Open(flagBatchIn)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	pairs, err := batch.ReadPairs(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", flagBatchIn, err)
	}

	verdicts := batch.Run(ctx, verify.New(loadTable(ctx, cfg, logger)), pairs)
	if len(verdicts) == 0 {
		return batch.ErrNoResults
	}

	data, err := formatter.Format(verdicts)
	if err != nil {
		return fmt.Errorf("formatting results: %w", err)
	}

	if flagBatchOut == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(flagBatchOut, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	logger.Info("batch written", "path", flagBatchOut, "rows", len(verdicts))
	return nil
}
