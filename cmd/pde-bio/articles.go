// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wreport/pde-bio/internal/collect"
	"github.com/wreport/pde-bio/internal/fetch"
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Fetch per-article metadata for a collected summary table",
	Long: `Articles walks the summary CSV produced by counts and, for every row
with a nonzero count, fetches each matching article's metadata (title,
journal, authors, date, abstract), appending one row per article to the
articles CSV.

Every row is flushed to disk as soon as it is fetched, and a checkpoint
file next to the output records progress. An interrupted run resumes
where it left off, provided the input table has not changed.`,
	RunE: runArticles,
}

func init() {
	articlesCmd.Flags().String("input", "summary.csv", "summary CSV produced by counts")
	articlesCmd.Flags().String("output", "articles.csv", "articles CSV file")
	articlesCmd.Flags().String("db", collect.DefaultDatabase, "NCBI database the summary was collected from")
	articlesCmd.Flags().Bool("verbose", false, "print per-article progress")
	registerClientFlags(articlesCmd)

	rootCmd.AddCommand(articlesCmd)
}

func runArticles(cmd *cobra.Command, args []string) error {
	client, err := entrezClient(cmd)
	if err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	db, _ := cmd.Flags().GetString("db")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := fetch.Options{
		InputFile:  input,
		OutputFile: output,
		Database:   db,
		Verbose:    verbose,
	}

	summary, err := fetch.Run(cmd.Context(), client, opts, os.Stdout)
	if err != nil {
		return err
	}

	if summary.Skipped > 0 {
		fmt.Printf("Resumed past %d previously fetched articles.\n", summary.Skipped)
	}
	fmt.Printf("Wrote %d article rows to %s\n", summary.Written, output)
	return nil
}
