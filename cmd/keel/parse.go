package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/buildpipeline"
	"keel/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.kl",
	Short: "Parse a keel source file and dump its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	out, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}
	timer := out.timer()
	res, err := driver.Compile(cmd.Context(), args[0], driver.Options{
		StopAfter:      buildpipeline.StageParse,
		MaxDiagnostics: out.maxDiagnostics,
		Timer:          timer,
		Session:        session,
	})
	if err != nil {
		return err
	}
	if err := out.diagnostics(os.Stderr, res.Bag, res.FileSet); err != nil {
		return err
	}
	defer printStageTimings(os.Stderr, timer)
	if res.Failed() {
		return errFailed
	}
	if err := res.Emit(cmd.OutOrStdout(), buildpipeline.StageParse, driver.FormatText); err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	return nil
}
