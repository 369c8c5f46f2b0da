package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"highlighter/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent highlight runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "Run history is disabled (history.enabled = false)")
				return nil
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, historyRow(run))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Duration", "Status", "Encoder", "Scenes", "Clips", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func historyRow(run history.Run) []string {
	id := run.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	duration := "-"
	if d := run.Duration(); d > 0 {
		duration = d.Round(time.Second).String()
	}
	output := "-"
	if run.OutputPath != "" {
		output = filepath.Base(run.OutputPath)
	}
	if run.ErrorMessage != "" {
		output = truncate(run.ErrorMessage, 60)
	}
	encoder := run.EncoderProfile
	if encoder == "" {
		encoder = "-"
	}
	return []string{
		id,
		run.StartedAt.Local().Format("2006-01-02 15:04"),
		duration,
		run.Status,
		encoder,
		strconv.Itoa(run.ScenesSelected) + "/" + strconv.Itoa(run.ScenesDetected),
		strconv.Itoa(run.ClipsBuilt),
		output,
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
