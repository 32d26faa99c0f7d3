// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch implements the article fetch stage: for every summary
// row with a nonzero count it resolves each document to its metadata and
// appends one row per article to the articles table.
//
// The stage is resumable. A checkpoint sidecar next to the output table
// records how many article operations completed and a digest of the
// input table; a rerun skips exactly that many operations in the same
// deterministic enumeration order (summary rows in table order, articles
// within a cell in service order). The enumeration order of a fixed
// query is assumed stable across runs; the service does not guarantee
// it, which is why the stored ID list from the summary table is
// preferred over a fresh search.
package fetch

import (
	"context"
	"fmt"
	"io"

	"github.com/wreport/pde-bio/internal/collect"
	"github.com/wreport/pde-bio/internal/entrez"
	"github.com/wreport/pde-bio/internal/table"
	"github.com/wreport/pde-bio/pkg/types"
)

// Options configures one fetch run.
type Options struct {
	// InputFile is the summary CSV produced by the collect stage. It
	// must not change between resumed runs; a change is detected via
	// the checkpoint digest and reported.
	InputFile string

	// OutputFile is the articles CSV, appended to per article.
	OutputFile string

	// Database is the NCBI database the summary was collected from.
	// Used only when a summary row carries no stored ID list.
	Database string

	// Verbose prints per-article progress to the writer.
	Verbose bool
}

// Summary reports what one fetch run did.
type Summary struct {
	// Written is the number of article rows appended on this run.
	Written int

	// Skipped is the number of article operations skipped by resume.
	Skipped int
}

// Run executes the fetch. For each nonzero summary row it takes the
// row's stored ID list (or searches the row's month scope when the list
// is empty), then per ID resolves the PubMed link and fetches metadata.
// Each article row is appended and the checkpoint advanced before the
// next fetch, so a killed run loses at most the in-flight record.
//
// Records with a missing PubMed link or missing fields are written with
// empty values. A transport error aborts the run; rows already written
// remain on disk and a rerun resumes after them.
func Run(ctx context.Context, client *entrez.Client, opts Options, w io.Writer) (Summary, error) {
	var summary Summary

	rows, err := table.ReadSummary(opts.InputFile)
	if err != nil {
		return summary, err
	}

	digest, err := InputDigest(opts.InputFile)
	if err != nil {
		return summary, err
	}

	cursor, err := resumeCursor(opts.OutputFile, digest)
	if err != nil {
		return summary, err
	}
	summary.Skipped = cursor

	db := opts.Database
	if db == "" {
		db = collect.DefaultDatabase
	}

	pos := 0
	for _, row := range rows {
		if row.Count == 0 {
			continue
		}

		ids := row.PMCIDs
		if len(ids) == 0 {
			res, err := client.Search(ctx, db, entrez.MonthQuery(row.Term, row.Year, row.Month))
			if err != nil {
				return summary, fmt.Errorf("searching %d/%d: %w", row.Year, row.Month, err)
			}
			ids = res.IDs
		}

		for _, pmcid := range ids {
			if pos < cursor {
				pos++
				continue
			}

			rec, err := fetchRecord(ctx, client, row.Cell, pmcid, opts.Verbose, w)
			if err != nil {
				return summary, err
			}

			if err := table.AppendArticleRow(opts.OutputFile, rec); err != nil {
				return summary, err
			}
			pos++
			if err := SaveCheckpoint(opts.OutputFile, Checkpoint{Cursor: pos, InputSHA256: digest}); err != nil {
				return summary, err
			}
			summary.Written++
		}
	}

	return summary, nil
}

// resumeCursor determines how many article operations to skip. The
// checkpoint sidecar is authoritative; when none exists yet, existing
// output rows are counted instead (the pre-checkpoint resume mechanism).
func resumeCursor(outputFile, digest string) (int, error) {
	cp, err := LoadCheckpoint(outputFile)
	if err != nil {
		return 0, err
	}
	if cp != nil {
		if cp.InputSHA256 != digest {
			return 0, fmt.Errorf("input table changed since checkpoint was written: delete %s to start over", checkpointPath(outputFile))
		}
		return cp.Cursor, nil
	}
	return table.CountArticleRows(outputFile)
}

// fetchRecord resolves one PMCID to an article record. A PMC entry with
// no PubMed link yields a placeholder record carrying only the cell and
// the PMCID.
func fetchRecord(ctx context.Context, client *entrez.Client, cell types.Cell, pmcid string, verbose bool, w io.Writer) (types.ArticleRecord, error) {
	rec := types.ArticleRecord{Cell: cell, PMCID: pmcid}

	pmid, err := client.Link(ctx, pmcid)
	if err != nil {
		return rec, fmt.Errorf("linking PMCID %s: %w", pmcid, err)
	}
	if pmid == "" {
		if verbose {
			fmt.Fprintf(w, "No PubMed link for PMCID %s, term %s, %d/%d\n", pmcid, cell.Term, cell.Year, cell.Month)
		}
		return rec, nil
	}

	if verbose {
		fmt.Fprintf(w, "Fetching article data for PMID %s, PMCID %s, term %s, %d/%d\n",
			pmid, pmcid, cell.Term, cell.Year, cell.Month)
	}

	art, err := client.Fetch(ctx, pmid)
	if err != nil {
		return rec, fmt.Errorf("fetching PMID %s: %w", pmid, err)
	}

	rec.PMID = pmid
	rec.Link = entrez.PubMedLink(pmid)
	rec.Title = art.Title
	rec.Journal = art.Journal
	rec.Authors = art.Authors
	rec.PubDate = art.PubDate
	rec.Abstract = art.Abstract
	return rec, nil
}
