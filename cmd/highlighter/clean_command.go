package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove run scratch directories and normalized inputs",
		Long:  "Remove run scratch directories and normalized inputs. Fails while a run holds the work directory lock.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := ctx.manager()
			if err != nil {
				return err
			}
			sweep, err := manager.Clean(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d item(s), freed %.1f MB\n", len(sweep.Removed), float64(sweep.Freed)/1e6)
			for _, f := range sweep.Failed {
				fmt.Fprintf(out, "  failed: %s: %v\n", f.Path, f.Err)
			}
			if n := len(sweep.Failed); n > 0 {
				return fmt.Errorf("%d item(s) could not be removed", n)
			}
			return nil
		},
	}
}
