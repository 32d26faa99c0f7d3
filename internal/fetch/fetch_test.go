// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wreport/pde-bio/internal/entrez"
	"github.com/wreport/pde-bio/internal/ratelimit"
	"github.com/wreport/pde-bio/internal/table"
	"github.com/wreport/pde-bio/pkg/types"
)

// eutilsServer fakes the three endpoints the fetcher touches. PMCIDs
// resolve to PMID "3<pmcid>"; searchIDs is returned for any esearch.
type eutilsServer struct {
	*httptest.Server

	searchIDs []string

	// unlinked PMCIDs resolve to no PubMed entry.
	unlinked map[string]bool

	// failFetchAfter, when positive, makes efetch return 500 once that
	// many fetches have succeeded.
	failFetchAfter int32

	searchCalls int32
	linkCalls   int32
	fetchCalls  int32
}

func newEutilsServer(t *testing.T) *eutilsServer {
	t.Helper()
	s := &eutilsServer{unlinked: map[string]bool{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			atomic.AddInt32(&s.searchCalls, 1)
			quoted := make([]string, len(s.searchIDs))
			for i, id := range s.searchIDs {
				quoted[i] = `"` + id + `"`
			}
			fmt.Fprintf(w, `{"esearchresult": {"count": "%d", "idlist": [%s]}}`,
				len(s.searchIDs), strings.Join(quoted, ","))

		case "/elink.fcgi":
			atomic.AddInt32(&s.linkCalls, 1)
			id := r.URL.Query().Get("id")
			if s.unlinked[id] {
				fmt.Fprint(w, `{"linksets": [{"dbfrom": "pmc", "linksetdbs": []}]}`)
				return
			}
			fmt.Fprintf(w, `{"linksets": [{"dbfrom": "pmc", "linksetdbs": [{"dbto": "pubmed", "linkname": "pmc_pubmed", "links": ["3%s"]}]}]}`, id)

		case "/efetch.fcgi":
			n := atomic.AddInt32(&s.fetchCalls, 1)
			if s.failFetchAfter > 0 && n > s.failFetchAfter {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			pmid := r.URL.Query().Get("id")
			fmt.Fprintf(w, `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2020</Year><Month>Jan</Month></PubDate></JournalIssue>
          <Title>Test Journal</Title>
        </Journal>
        <ArticleTitle>Article %s</ArticleTitle>
        <Abstract><AbstractText>Abstract for %s.</AbstractText></Abstract>
        <AuthorList>
          <Author><LastName>Smith</LastName><Initials>J</Initials></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`, pmid, pmid)

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *eutilsServer) client() *entrez.Client {
	c := entrez.New(types.EntrezConfig{BaseURL: s.URL, Email: "user@example.com"})
	c.HTTP = s.Client()
	c.Limiter = ratelimit.Nop{}
	return c
}

func writeSummary(t *testing.T, path string, rows ...types.CountRow) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, table.AppendSummaryRow(path, r))
	}
}

func row(term string, year, month, count int, ids ...string) types.CountRow {
	return types.CountRow{
		Cell:   types.Cell{Term: term, Year: year, Month: month},
		Count:  count,
		PMCIDs: ids,
	}
}

func TestRunSkipsZeroCountRows(t *testing.T) {
	s := newEutilsServer(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input,
		row("cancer", 2020, 1, 5, "1", "2", "3", "4", "5"),
		row("cancer", 2020, 2, 0),
	)

	summary, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Written)
	assert.Equal(t, 0, summary.Skipped)

	// Stored ID lists mean no fresh search; one link and one fetch per
	// article, and nothing at all for the zero-count row.
	assert.Equal(t, int32(0), atomic.LoadInt32(&s.searchCalls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&s.linkCalls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&s.fetchCalls))

	n, err := table.CountArticleRows(output)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRunResumeIsIdempotent(t *testing.T) {
	s := newEutilsServer(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 2, "10", "11"))
	opts := Options{InputFile: input, OutputFile: output}

	first, err := Run(context.Background(), s.client(), opts, io.Discard)
	require.NoError(t, err)
	require.Equal(t, 2, first.Written)

	second, err := Run(context.Background(), s.client(), opts, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Written)
	assert.Equal(t, 2, second.Skipped)

	n, err := table.CountArticleRows(output)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "rerun must append nothing")
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	s := newEutilsServer(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 5, "1", "2", "3", "4", "5"))

	digest, err := InputDigest(input)
	require.NoError(t, err)
	require.NoError(t, SaveCheckpoint(output, Checkpoint{Cursor: 3, InputSHA256: digest}))

	summary, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.NoError(t, err)

	// 3 operations skipped, exactly 2 performed.
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.linkCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.fetchCalls))
}

func TestRunFallsBackToRowCount(t *testing.T) {
	// Output rows but no checkpoint: the pre-checkpoint resume path.
	s := newEutilsServer(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 5, "1", "2", "3", "4", "5"))
	for i := 0; i < 3; i++ {
		require.NoError(t, table.AppendArticleRow(output, types.ArticleRecord{
			Cell:  types.Cell{Term: "flu", Year: 2019, Month: 6},
			PMCID: fmt.Sprintf("%d", i+1),
		}))
	}

	summary, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 2, summary.Written)

	n, err := table.CountArticleRows(output)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRunDetectsChangedInput(t *testing.T) {
	s := newEutilsServer(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 1, "1"))
	require.NoError(t, SaveCheckpoint(output, Checkpoint{Cursor: 1, InputSHA256: "0000"}))

	_, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input table changed")
}

func TestRunSearchesWhenNoStoredIDs(t *testing.T) {
	s := newEutilsServer(t)
	s.searchIDs = []string{"21", "22"}
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 2))

	summary, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.searchCalls))
}

func TestRunWritesPlaceholderForMissingLink(t *testing.T) {
	s := newEutilsServer(t)
	s.unlinked["2"] = true
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 2, "1", "2"))

	summary, err := Run(context.Background(), s.client(), Options{InputFile: input, OutputFile: output}, io.Discard)
	require.NoError(t, err)

	// Both rows written; the unlinked one carries empty metadata.
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.fetchCalls))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Contains(t, lines[1], "Article 31")
	assert.Contains(t, lines[2], "flu,2019,6,,2,")
}

func TestRunKeepsProgressOnMidRunFailure(t *testing.T) {
	s := newEutilsServer(t)
	s.failFetchAfter = 2
	dir := t.TempDir()
	input := filepath.Join(dir, "summary.csv")
	output := filepath.Join(dir, "articles.csv")

	writeSummary(t, input, row("flu", 2019, 6, 4, "1", "2", "3", "4"))
	opts := Options{InputFile: input, OutputFile: output}

	_, err := Run(context.Background(), s.client(), opts, io.Discard)
	require.Error(t, err)

	// The two completed articles survive on disk with a matching
	// checkpoint cursor.
	n, err := table.CountArticleRows(output)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cp, err := LoadCheckpoint(output)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 2, cp.Cursor)

	// A rerun against a recovered service finishes the job.
	s.failFetchAfter = 0
	summary, err := Run(context.Background(), s.client(), opts, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 2, summary.Skipped)

	n, err = table.CountArticleRows(output)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
