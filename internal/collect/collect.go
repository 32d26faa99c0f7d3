// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect implements the count collection stage: one esearch
// call per (term, year, month) cell, producing one summary row per cell.
package collect

import (
	"context"
	"fmt"
	"io"

	"github.com/wreport/pde-bio/internal/entrez"
	"github.com/wreport/pde-bio/internal/table"
	"github.com/wreport/pde-bio/pkg/types"
)

// DefaultDatabase is the NCBI database searched when none is configured.
const DefaultDatabase = "pmc"

// Options configures one collection run.
type Options struct {
	Term     string
	FromYear int
	ToYear   int

	// Database is the NCBI database to search (default "pmc").
	Database string

	// OutputFile is the summary CSV appended to after each cell.
	// Ignored when ListOutput is set.
	OutputFile string

	// ListOutput suppresses the CSV and returns rows in memory only.
	ListOutput bool

	// Verbose prints per-cell progress to the writer.
	Verbose bool
}

// Cells enumerates the query cells for term from (fromYear, January)
// through (toYear, December), ascending by (year, month). The summary
// row order follows this enumeration; the article fetcher depends on it.
func Cells(term string, fromYear, toYear int) []types.Cell {
	var cells []types.Cell
	for year := fromYear; year <= toYear; year++ {
		for month := 1; month <= 12; month++ {
			cells = append(cells, types.Cell{Term: term, Year: year, Month: month})
		}
	}
	return cells
}

// Run executes the collection: one search per cell, one row per cell.
// Rows are appended to the output file immediately after each search, so
// an aborted run leaves the rows gathered so far on disk. A zero count
// is recorded like any other. A search failure aborts the run; the
// client's retry budget governs whether it is retried first.
func Run(ctx context.Context, client *entrez.Client, opts Options, w io.Writer) ([]types.CountRow, error) {
	if opts.Term == "" {
		return nil, fmt.Errorf("term is required")
	}
	if opts.FromYear > opts.ToYear {
		return nil, fmt.Errorf("starting year %d is after final year %d", opts.FromYear, opts.ToYear)
	}
	db := opts.Database
	if db == "" {
		db = DefaultDatabase
	}

	cells := Cells(opts.Term, opts.FromYear, opts.ToYear)
	rows := make([]types.CountRow, 0, len(cells))

	for i, cell := range cells {
		if opts.Verbose {
			fmt.Fprintf(w, "Processing %d out of %d requests for %s.\n", i+1, len(cells), cell.Term)
		}

		res, err := client.Search(ctx, db, entrez.MonthQuery(cell.Term, cell.Year, cell.Month))
		if err != nil {
			return rows, fmt.Errorf("searching %d/%d: %w", cell.Year, cell.Month, err)
		}

		row := types.CountRow{Cell: cell, Count: res.Count}
		if len(res.IDs) > 0 {
			row.PMCIDs = res.IDs
		}
		if !opts.ListOutput {
			if err := table.AppendSummaryRow(opts.OutputFile, row); err != nil {
				return rows, err
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
