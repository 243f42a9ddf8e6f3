package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdeck/timetracker/internal/client"
	"github.com/opsdeck/timetracker/internal/durfmt"
)

func init() {
	var limit int
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List recent time entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			entries, err := client.New(apiFlag).ListEntries(cmd.Context(), userFlag, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STOPPED\tTASK\tACTIVE\tPAUSED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.StoppedAt.Local().Format(time.RFC3339),
					e.TaskID,
					durfmt.Format(e.ActiveSeconds),
					durfmt.Format(e.TotalPausedSeconds))
			}
			return w.Flush()
		},
	}
	entriesCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	rootCmd.AddCommand(entriesCmd)

	// candidates
	candCmd := &cobra.Command{
		Use:   "candidates",
		Short: "Show ranked tracking targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			cands, err := client.New(apiFlag).TrackingCandidates(cmd.Context(), userFlag)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tTITLE\tTRACKED\tLAST\tOVERTIME")
			for _, c := range cands {
				last := "-"
				if c.LastTrackedAt != nil {
					last = c.LastTrackedAt.Local().Format("2006-01-02 15:04")
				}
				over := ""
				if c.IsOvertime {
					over = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.Task.TaskID, c.Task.Title, durfmt.FormatHuman(c.TotalSeconds), last, over)
			}
			return w.Flush()
		},
	}
	rootCmd.AddCommand(candCmd)
}
