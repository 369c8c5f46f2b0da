package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"highlighter/internal/deps"
	"highlighter/internal/preflight"
	"highlighter/internal/transcode"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies, directories, encoders and the LUT",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			runner := transcode.ExecRunner{}

			gate := preflight.RunAll(cmd.Context(), cfg)
			printSection(out, "Run requirements", gate, colorize)

			var extras []preflight.Result
			if version, err := deps.FFmpegVersion(cmd.Context(), runner, cfg.Encoder.FFmpegBinary); err == nil {
				extras = append(extras, preflight.Result{Name: "FFmpeg version", Passed: true, Advisory: true, Detail: version})
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				if status.Optional {
					extras = append(extras, preflight.Result{Name: status.Name, Passed: status.Available, Advisory: true, Detail: status.Detail})
				}
			}
			extras = append(extras, preflight.CheckEncoders(cmd.Context(), cfg, runner)...)
			extras = append(extras, preflight.CheckLUT(cfg))
			printSection(out, "Capabilities", extras, colorize)

			failed := preflight.Failed(append(gate, extras...))
			if len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func printSection(out io.Writer, title string, results []preflight.Result, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, r := range results {
		kind := statusError
		switch {
		case r.Passed:
			kind = statusOK
		case r.Advisory:
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	fmt.Fprintln(out)
}
