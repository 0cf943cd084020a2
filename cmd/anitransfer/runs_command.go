package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"anitransfer/internal/runlog"
)

func newRunsCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			history, err := runlog.Open(cfg.RunDBPath())
			if err != nil {
				return err
			}
			defer func() { _ = history.Close() }()

			runs, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "completed"
				if run.Aborted {
					status = "aborted"
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.Duration().Round(time.Second).String(),
					strconv.FormatInt(run.Entries, 10),
					strconv.FormatInt(run.Resolved, 10),
					strconv.FormatInt(run.Unmatched, 10),
					strconv.FormatInt(run.Requests, 10),
					status,
				})
			}
			headers := []string{"Started", "Duration", "Entries", "Resolved", "Unmatched", "Requests", "Status"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")
	return cmd
}
