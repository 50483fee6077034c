package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/buildpipeline"
	"keel/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] file.kl",
	Short: "Run the pipeline over a file and report diagnostics",
	Long: `Check runs qualification, type checking, type passing, sizing, lowering
and refcounting over one file. --stop-after ends the pipeline early and
--emit dumps the tree of one stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("stop-after", "", "last stage to run (parse|qualify|typecheck|typepass|sizer|lower|refcount)")
	checkCmd.Flags().String("emit", "", "tree to print (parsed|qualified|typed|typepassed|sized|lowered|counted)")
	checkCmd.Flags().String("format", "text", "tree format (text|yaml)")
	checkCmd.Flags().Bool("emit-on-error", false, "print the last tree that was built when a stage fails")
	checkCmd.Flags().Int("ptr-size", 0, "target pointer size in bytes (4|8)")
}

type checkRequest struct {
	stop        buildpipeline.Stage
	emit        buildpipeline.Stage
	format      driver.Format
	emitOnError bool
	ptrSize     int
}

func readCheckRequest(cmd *cobra.Command) (checkRequest, error) {
	var req checkRequest
	stopStr, err := cmd.Flags().GetString("stop-after")
	if err != nil {
		return req, fmt.Errorf("failed to get stop-after flag: %w", err)
	}
	emitStr, err := cmd.Flags().GetString("emit")
	if err != nil {
		return req, fmt.Errorf("failed to get emit flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return req, fmt.Errorf("failed to get format flag: %w", err)
	}
	if req.emitOnError, err = cmd.Flags().GetBool("emit-on-error"); err != nil {
		return req, fmt.Errorf("failed to get emit-on-error flag: %w", err)
	}
	if req.ptrSize, err = cmd.Flags().GetInt("ptr-size"); err != nil {
		return req, fmt.Errorf("failed to get ptr-size flag: %w", err)
	}
	if req.stop, err = buildpipeline.ParseStage(stopStr); err != nil {
		return req, err
	}
	if req.format, err = driver.ParseFormat(formatStr); err != nil {
		return req, err
	}
	if emitStr != "" {
		if req.emit, err = driver.ParseEmit(emitStr); err != nil {
			return req, err
		}
		if req.emit.Index() > req.stop.Index() {
			return req, fmt.Errorf("--emit %s needs --stop-after %s or later", emitStr, req.emit)
		}
	}
	return req, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	out, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}
	req, err := readCheckRequest(cmd)
	if err != nil {
		return err
	}
	target, err := targetFor(req.ptrSize)
	if err != nil {
		return err
	}
	timer := out.timer()
	res, err := driver.Compile(cmd.Context(), args[0], driver.Options{
		StopAfter:      req.stop,
		Target:         target,
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
		if req.emitOnError {
			if err := emitPartial(cmd.OutOrStdout(), res, req); err != nil {
				return err
			}
		}
		return errFailed
	}
	if req.emit != "" {
		return res.Emit(cmd.OutOrStdout(), req.emit, req.format)
	}
	out.status("%s: ok (%s)", res.Path, res.Reached)
	return nil
}

// emitPartial prints the requested tree if it was built, else the last one
// that was.
func emitPartial(w io.Writer, res *driver.Result, req checkRequest) error {
	last, ok := res.LastBuilt()
	if !ok {
		return nil
	}
	st := last
	if req.emit != "" && req.emit.Index() <= last.Index() {
		st = req.emit
	}
	format := req.format
	if st.Index() < buildpipeline.StageLower.Index() {
		format = driver.FormatText
	}
	fmt.Fprintf(os.Stderr, "emitting %s tree built before the failure\n", st)
	return res.Emit(w, st, format)
}
