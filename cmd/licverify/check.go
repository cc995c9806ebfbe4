package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/licverify/internal/verify"
)

func init() {
	checkCmd := &cobra.Command{
		Use:   "check PROVIDER STATE",
		Short: "Look up one provider and print the verdict as JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  runCheck,
	}

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := newLogger(cfg, cmd.ErrOrStderr())

	v := verify.New(loadTable(ctx, cfg, logger))
	verdict := v.Verify(ctx, args[0], args[1])

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}
