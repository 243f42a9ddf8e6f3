package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opsdeck/timetracker/internal/client"
	"github.com/opsdeck/timetracker/internal/durfmt"
)

func init() {
	tasksCmd := &cobra.Command{Use: "tasks", Short: "Task catalog operations"}

	// add
	var title, estimate string
	addCmd := &cobra.Command{
		Use:   "add TASK_ID",
		Short: "Create or replace a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title required")
			}
			var est *int64
			if estimate != "" {
				secs, err := durfmt.Parse(estimate)
				if err != nil {
					return fmt.Errorf("invalid --estimate: %w", err)
				}
				est = &secs
			}
			task, err := client.New(apiFlag).UpsertTask(cmd.Context(), args[0], title, est)
			if err != nil {
				return err
			}
			return printJSON(task)
		},
	}
	addCmd.Flags().StringVarP(&title, "title", "t", "", "Task title (required)")
	addCmd.Flags().StringVarP(&estimate, "estimate", "e", "", "Estimate as HH:MM:SS or MM:SS")
	tasksCmd.AddCommand(addCmd)

	// list
	tasksCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := client.New(apiFlag).ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tTITLE\tESTIMATE")
			for _, task := range tasks {
				est := "-"
				if task.EstimatedSeconds != nil {
					est = durfmt.FormatHuman(*task.EstimatedSeconds)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", task.TaskID, task.Title, est)
			}
			return w.Flush()
		},
	})

	rootCmd.AddCommand(tasksCmd)

	// summary TASK_ID
	summaryCmd := &cobra.Command{
		Use:   "summary TASK_ID",
		Short: "Show aggregated tracked time for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := client.New(apiFlag).TaskSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("total %s over %d sessions\n", durfmt.FormatHuman(sum.TotalSeconds), sum.SessionCount)
			if sum.ProgressPercentage != nil {
				marker := ""
				if sum.IsOvertime {
					marker = "  OVER ESTIMATE"
				}
				fmt.Printf("progress %.0f%%%s\n", *sum.ProgressPercentage, marker)
			}
			return printJSON(sum)
		},
	}
	rootCmd.AddCommand(summaryCmd)
}
