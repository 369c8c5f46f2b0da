package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/colorgrade"
)

func newLUTCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lut [path]",
		Short: "Validate a .cube LUT (defaults to paths.lut_path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Paths.LUTPath
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				path = args[0]
			}

			in, err := colorgrade.Inspect(path, cfg.Color.MinLUTBytes)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if in.Path != "" {
				fmt.Fprintln(out, renderStatusLine("File", statusInfo, fmt.Sprintf("%s (%d bytes)", in.Path, in.Bytes), colorize))
			}
			if in.TooSmall {
				fmt.Fprintln(out, renderStatusLine("Size", statusWarn, fmt.Sprintf("below %d bytes; the file may be truncated", cfg.Color.MinLUTBytes), colorize))
			}
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("LUT", statusError, err.Error(), colorize))
				return fmt.Errorf("LUT %s is not usable; runs will skip color grading", path)
			}
			fmt.Fprintln(out, renderStatusLine("LUT", statusOK,
				fmt.Sprintf("LUT_3D_SIZE %d with %d rows", in.Table.Size, in.Table.Rows), colorize))
			return nil
		},
	}
}
