// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	gptable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wreport/pde-bio/internal/collect"
	"github.com/wreport/pde-bio/pkg/types"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count matching articles per month across a year range",
	Long: `Counts runs one search per (term, year, month) cell from January of the
starting year through December of the final year and appends one row per
cell to the summary CSV. Months with no matches are recorded with a
count of zero.

With --list the rows are printed as a table instead of written to the
CSV file.`,
	RunE: runCounts,
}

func init() {
	countsCmd.Flags().String("term", "", "search term (required)")
	countsCmd.Flags().Int("from", 0, "starting year, inclusive (required)")
	countsCmd.Flags().Int("to", 0, "final year, inclusive (required)")
	countsCmd.Flags().String("db", collect.DefaultDatabase, "NCBI database to search")
	countsCmd.Flags().String("output", "summary.csv", "summary CSV file")
	countsCmd.Flags().Bool("list", false, "print rows as a table instead of writing the CSV")
	countsCmd.Flags().Bool("verbose", false, "print per-cell progress")
	registerClientFlags(countsCmd)

	countsCmd.MarkFlagRequired("term")
	countsCmd.MarkFlagRequired("from")
	countsCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(countsCmd)
}

func runCounts(cmd *cobra.Command, args []string) error {
	client, err := entrezClient(cmd)
	if err != nil {
		return err
	}

	term, _ := cmd.Flags().GetString("term")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	db, _ := cmd.Flags().GetString("db")
	output, _ := cmd.Flags().GetString("output")
	list, _ := cmd.Flags().GetBool("list")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := collect.Options{
		Term:       term,
		FromYear:   from,
		ToYear:     to,
		Database:   db,
		OutputFile: output,
		ListOutput: list,
		Verbose:    verbose,
	}

	rows, err := collect.Run(cmd.Context(), client, opts, os.Stdout)
	if err != nil {
		return err
	}

	if list {
		renderCounts(rows)
		return nil
	}
	fmt.Printf("Wrote %d rows to %s\n", len(rows), output)
	return nil
}

func renderCounts(rows []types.CountRow) {
	t := gptable.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(gptable.Row{"Term", "Year", "Month", "Count"})
	total := 0
	for _, r := range rows {
		t.AppendRow(gptable.Row{r.Term, r.Year, r.Month, r.Count})
		total += r.Count
	}
	t.AppendFooter(gptable.Row{"", "", "Total", total})
	t.Render()
}
