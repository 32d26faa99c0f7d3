// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table reads and writes the two CSV tables the pipelines share:
// the summary table (one row per term/month cell) and the articles table
// (one row per fetched article).
//
// Writers append one row at a time and flush immediately, so a killed
// run loses at most the in-flight record. The header is written only
// when the file is new or empty.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wreport/pde-bio/pkg/types"
)

// SummaryHeader is the column order of the summary table.
var SummaryHeader = []string{"term", "year", "month", "count", "pmcids"}

// ArticlesHeader is the column order of the articles table.
var ArticlesHeader = []string{
	"term", "year", "month", "pmid", "pmcid", "link",
	"title", "journal", "authors", "pubdate", "abstract",
}

// idSep joins ID lists and author lists inside one CSV field.
const idSep = ","

const authorSep = ", "

// appendRow opens path for append, writing header first when the file
// is new or empty, then writes record and flushes.
func appendRow(path string, header, record []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AppendSummaryRow appends one count row to the summary table at path.
func AppendSummaryRow(path string, row types.CountRow) error {
	return appendRow(path, SummaryHeader, []string{
		row.Term,
		strconv.Itoa(row.Year),
		strconv.Itoa(row.Month),
		strconv.Itoa(row.Count),
		strings.Join(row.PMCIDs, idSep),
	})
}

// AppendArticleRow appends one article record to the articles table at path.
func AppendArticleRow(path string, rec types.ArticleRecord) error {
	return appendRow(path, ArticlesHeader, []string{
		rec.Term,
		strconv.Itoa(rec.Year),
		strconv.Itoa(rec.Month),
		rec.PMID,
		rec.PMCID,
		rec.Link,
		rec.Title,
		rec.Journal,
		strings.Join(rec.Authors, authorSep),
		rec.PubDate,
		rec.Abstract,
	})
}

// ReadSummary loads the summary table at path, validating the header
// and row shape. Row order is preserved: the article fetcher depends on
// it to resume deterministically.
func ReadSummary(path string) ([]types.CountRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if !headerMatches(records[0], SummaryHeader) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, records[0])
	}

	rows := make([]types.CountRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseSummaryRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseSummaryRecord(rec []string) (types.CountRow, error) {
	if len(rec) != len(SummaryHeader) {
		return types.CountRow{}, fmt.Errorf("expected %d fields, got %d", len(SummaryHeader), len(rec))
	}
	year, err := strconv.Atoi(rec[1])
	if err != nil {
		return types.CountRow{}, fmt.Errorf("year %q: %w", rec[1], err)
	}
	month, err := strconv.Atoi(rec[2])
	if err != nil {
		return types.CountRow{}, fmt.Errorf("month %q: %w", rec[2], err)
	}
	count, err := strconv.Atoi(rec[3])
	if err != nil {
		return types.CountRow{}, fmt.Errorf("count %q: %w", rec[3], err)
	}
	if count < 0 {
		return types.CountRow{}, fmt.Errorf("negative count %d", count)
	}

	row := types.CountRow{
		Cell:  types.Cell{Term: rec[0], Year: year, Month: month},
		Count: count,
	}
	if rec[4] != "" {
		row.PMCIDs = strings.Split(rec[4], idSep)
	}
	return row, nil
}

// CountArticleRows returns the number of data rows already present in
// the articles table at path. A missing file counts as zero.
func CountArticleRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return len(records) - 1, nil
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
