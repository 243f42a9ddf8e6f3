package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdeck/timetracker/internal/client"
	"github.com/opsdeck/timetracker/internal/durfmt"
	"github.com/opsdeck/timetracker/internal/elapsed"
)

func init() {
	timerCmd := &cobra.Command{Use: "timer", Short: "Timer operations"}

	// start
	var taskID, description string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a timer on a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			if taskID == "" {
				return fmt.Errorf("--task required")
			}
			var desc *string
			if description != "" {
				desc = &description
			}
			snap, err := client.New(apiFlag).StartTimer(cmd.Context(), userFlag, taskID, desc)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
	startCmd.Flags().StringVarP(&taskID, "task", "t", "", "Task ID (required)")
	startCmd.Flags().StringVarP(&description, "description", "d", "", "Optional session note")
	timerCmd.AddCommand(startCmd)

	// pause
	var reason string
	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			if reason == "" {
				return fmt.Errorf("--reason required")
			}
			snap, err := client.New(apiFlag).PauseTimer(cmd.Context(), userFlag, reason)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
	pauseCmd.Flags().StringVarP(&reason, "reason", "r", "", "Pause reason, e.g. lunch, meeting (required)")
	timerCmd.AddCommand(pauseCmd)

	// resume
	timerCmd.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			snap, err := client.New(apiFlag).ResumeTimer(cmd.Context(), userFlag)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	})

	// stop
	timerCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			entry, err := client.New(apiFlag).StopTimer(cmd.Context(), userFlag)
			if err != nil {
				return err
			}
			fmt.Printf("tracked %s on %s\n", durfmt.FormatHuman(entry.ActiveSeconds), entry.TaskID)
			return printJSON(entry)
		},
	})

	// status
	timerCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			snap, err := client.New(apiFlag).GetTimer(cmd.Context(), userFlag)
			if err != nil {
				return err
			}
			if !snap.HasActiveTimer {
				fmt.Println("no active timer")
				return nil
			}
			if r, ok := elapsed.At(snap, time.Now().UTC()); ok {
				state := "running"
				if r.IsPaused {
					state = "paused (" + r.PauseReason + ")"
				}
				fmt.Printf("%s  %s  %s\n", snap.Timer.TaskTitle, durfmt.Format(r.WorkSeconds), state)
			}
			return nil
		},
	})

	// watch
	var interval time.Duration
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Live elapsed display, ticking once per interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			return runWatch(cmd.Context(), apiFlag, userFlag, interval)
		},
	}
	watchCmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Tick interval")
	timerCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(timerCmd)
}

// runWatch derives the display locally between server polls: the ticker
// advances every second off the last snapshot, and a slower poll loop
// rebases the watcher so pauses made elsewhere show up.
func runWatch(parent context.Context, api, user string, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(api)
	snap, err := c.GetTimer(ctx, user)
	if err != nil {
		return err
	}
	if !snap.HasActiveTimer {
		fmt.Println("no active timer")
		return nil
	}

	w := elapsed.NewWatcher(snap)
	go func() {
		poll := time.NewTicker(10 * time.Second)
		defer poll.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				if fresh, err := c.GetTimer(ctx, user); err == nil {
					w.Rebase(fresh)
				}
			}
		}
	}()

	w.Run(ctx, interval, func(r elapsed.Reading) {
		line := fmt.Sprintf("\r%s  work %s  break %s", snap.Timer.TaskTitle,
			durfmt.Format(r.WorkSeconds), durfmt.Format(r.BreakSeconds))
		if r.IsPaused {
			line += "  [paused: " + r.PauseReason + "]"
		}
		fmt.Print(line + "   ")
	})
	fmt.Println()
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
