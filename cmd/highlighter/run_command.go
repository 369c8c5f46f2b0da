package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/assembly"
	"highlighter/internal/config"
	"highlighter/internal/workflow"
)

type runOptions struct {
	input    string
	output   string
	gpu      bool
	vertical bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a highlight from the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunOverrides(cfg, opts); err != nil {
				return err
			}
			manager, err := ctx.manager()
			if err != nil {
				return err
			}

			summary, runErr := manager.Run(cmd.Context())
			out := cmd.OutOrStdout()
			if errors.Is(runErr, assembly.ErrNoValidScenes) {
				printNoScenes(out, summary)
				return runErr
			}
			if runErr != nil {
				return runErr
			}
			printRunSummary(out, summary, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Directory of source videos (overrides paths.input_dir)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().BoolVar(&opts.gpu, "gpu", false, "Try the hardware encoder (same as USE_GPU=1)")
	cmd.Flags().BoolVar(&opts.vertical, "vertical", false, "Also export a 9:16 vertical rendition")
	return cmd
}

func applyRunOverrides(cfg *config.Config, opts runOptions) error {
	if input := strings.TrimSpace(opts.input); input != "" {
		expanded, err := config.ExpandPath(input)
		if err != nil {
			return fmt.Errorf("resolve input directory: %w", err)
		}
		cfg.Paths.InputDir = expanded
	}
	if output := strings.TrimSpace(opts.output); output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	if opts.gpu {
		cfg.Encoder.UseGPU = true
	}
	if opts.vertical {
		cfg.Export.Vertical = true
	}
	return nil
}

func printRunSummary(out io.Writer, s workflow.Summary, colorize bool) {
	for _, line := range renderSectionHeader("Highlight", colorize) {
		fmt.Fprintln(out, line)
	}
	lines := []string{
		renderStatusLine("Output", statusOK, fmt.Sprintf("%s (%.1f MB)", s.Output, assembly.SizeMB(s.OutputBytes)), colorize),
		renderStatusLine("Encoder", statusInfo, string(s.EncoderProfile), colorize),
		renderStatusLine("Scenes", statusInfo, fmt.Sprintf("%d detected, %d selected", s.ScenesDetected, s.ScenesSelected), colorize),
		renderStatusLine("Clips", statusInfo, fmt.Sprintf("%d built, %d speed-ramped, %d dropped", s.ClipsBuilt, s.ScenesRamped, s.ScenesDropped), colorize),
	}
	if s.Graded {
		lines = append(lines, renderStatusLine("Color grade", statusOK, s.LUTPath, colorize))
	} else {
		lines = append(lines, renderStatusLine("Color grade", statusWarn, "not applied", colorize))
	}
	if s.VerticalOutput != "" {
		lines = append(lines, renderStatusLine("Vertical", statusOK, fmt.Sprintf("%s (%.1f MB)", s.VerticalOutput, assembly.SizeMB(s.VerticalBytes)), colorize))
	}
	lines = append(lines, renderStatusLine("Duration", statusInfo, s.Duration.Round(1e9).String(), colorize))
	if s.RunLog != "" {
		lines = append(lines, renderStatusLine("Run log", statusInfo, s.RunLog, colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func printNoScenes(out io.Writer, s workflow.Summary) {
	fmt.Fprintf(out, "No highlight written: none of the %d detected scenes survived selection and the camera-motion gates.\n", s.ScenesDetected)
	if s.RunLog != "" {
		fmt.Fprintf(out, "Decisions are logged in %s\n", s.RunLog)
	}
}
