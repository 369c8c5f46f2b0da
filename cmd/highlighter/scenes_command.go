package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"highlighter/internal/config"
)

func newScenesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes <video>",
		Short: "Detect and score scenes without encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			manager, err := ctx.manager()
			if err != nil {
				return err
			}
			reports, err := manager.Analyze(cmd.Context(), video)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No scenes detected")
				return nil
			}

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				score := strconv.FormatFloat(r.Scene.Score, 'f', 1, 64)
				if r.Scene.Err != nil {
					score = "error"
				}
				rows = append(rows, []string{
					strconv.Itoa(r.Scene.Index),
					strconv.FormatFloat(r.Scene.Range.Start, 'f', 2, 64),
					strconv.FormatFloat(r.Scene.Range.End, 'f', 2, 64),
					score,
					strconv.FormatFloat(r.Scene.CameraMotion, 'f', 2, 64),
					strconv.FormatFloat(r.Scene.CameraInstability, 'f', 2, 64),
					yesNo(r.Selected),
					string(r.Treatment.Action),
					r.Treatment.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "Score", "Motion", "Instability", "Selected", "Action", "Reason"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}
}
