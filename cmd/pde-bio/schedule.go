// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wreport/pde-bio/internal/collect"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run count collection on a cron schedule",
	Long: `Schedule runs the counts stage repeatedly on a cron expression,
appending fresh rows to the summary CSV each time. Useful for tracking
how a term's monthly counts evolve as the databases are updated.

The process blocks until interrupted.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("spec", "0 6 1 * *", "cron expression")
	scheduleCmd.Flags().String("term", "", "search term (required)")
	scheduleCmd.Flags().Int("from", 0, "starting year, inclusive (required)")
	scheduleCmd.Flags().Int("to", 0, "final year, inclusive (required)")
	scheduleCmd.Flags().String("db", collect.DefaultDatabase, "NCBI database to search")
	scheduleCmd.Flags().String("output", "summary.csv", "summary CSV file")
	scheduleCmd.Flags().Bool("verbose", false, "print per-cell progress")
	registerClientFlags(scheduleCmd)

	scheduleCmd.MarkFlagRequired("term")
	scheduleCmd.MarkFlagRequired("from")
	scheduleCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	client, err := entrezClient(cmd)
	if err != nil {
		return err
	}

	spec, _ := cmd.Flags().GetString("spec")
	term, _ := cmd.Flags().GetString("term")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	db, _ := cmd.Flags().GetString("db")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := collect.Options{
		Term:       term,
		FromYear:   from,
		ToYear:     to,
		Database:   db,
		OutputFile: output,
		Verbose:    verbose,
	}

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		fmt.Printf("Collecting counts for %q\n", term)
		rows, err := collect.Run(cmd.Context(), client, opts, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scheduled run failed: %v\n", err)
			return
		}
		fmt.Printf("Appended %d rows to %s\n", len(rows), output)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	c.Start()
	fmt.Printf("Scheduled counts with cron expression %q\n", spec)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Printf("Received %v, shutting down\n", sig)

	<-c.Stop().Done()
	return nil
}
