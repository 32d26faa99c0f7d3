// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez is a client for the NCBI Entrez E-utilities consumed by
// the pde-bio pipelines: esearch (match counts and ID lists), elink
// (PMC to PubMed ID resolution) and efetch (article metadata).
//
// Every outbound call waits on the client's rate limiter first. NCBI
// permits 3 requests per second, or 10 with an API key; the email and
// key are attached to every request.
package entrez

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wreport/pde-bio/internal/httputil"
	"github.com/wreport/pde-bio/internal/ratelimit"
	"github.com/wreport/pde-bio/pkg/types"
)

// DefaultBaseURL is the public E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// searchRetMax bounds the ID list returned by a search. Matches the
// service maximum so a month cell is never truncated in practice.
const searchRetMax = 100000

// Client calls the E-utilities endpoints sequentially, one request at a
// time, spaced by its Limiter.
type Client struct {
	// BaseURL is the E-utilities endpoint; tests point it at an
	// httptest server.
	BaseURL string

	HTTP *http.Client

	// Email is sent with every request, as NCBI requires.
	Email string

	// APIKey, when set, is sent with every request and raises the
	// permitted rate to 10/s.
	APIKey string

	UserAgent string

	// Limiter spaces outbound calls. Never nil after New.
	Limiter ratelimit.Limiter

	// MaxRetries is the per-request retry budget. Zero means fail fast.
	MaxRetries int
}

// New builds a Client from cfg, applying defaults and selecting the
// rate limit from the presence of an API key.
func New(cfg types.EntrezConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "pde-bio/1.0"
	}
	return &Client{
		BaseURL:    base,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		Email:      cfg.Email,
		APIKey:     cfg.APIKey,
		UserAgent:  ua,
		Limiter:    ratelimit.ForKey(cfg.APIKey),
		MaxRetries: cfg.MaxRetries,
	}
}

// get performs one rate-limited GET against endpoint (e.g. "esearch.fcgi")
// and returns the response body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.Email != "" {
		params.Set("email", c.Email)
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.BaseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned HTTP %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	return body, nil
}

// SearchResult holds the outcome of an esearch call.
type SearchResult struct {
	// Count is the total number of matching documents. Zero is a valid
	// result, not an error.
	Count int

	// IDs lists the matching document identifiers in service order.
	IDs []string
}

// esearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	RetMax string   `json:"retmax"`
	IDList []string `json:"idlist"`
}

// Search runs an esearch query against db and returns the match count
// and ID list.
func (c *Client) Search(ctx context.Context, db, term string) (SearchResult, error) {
	params := url.Values{
		"db":      {db},
		"term":    {term},
		"retmax":  {strconv.Itoa(searchRetMax)},
		"retmode": {"json"},
	}

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return SearchResult{}, err
	}

	var er esearchResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return SearchResult{}, fmt.Errorf("parsing esearch response: %w", err)
	}

	count, err := strconv.Atoi(er.Result.Count)
	if err != nil {
		return SearchResult{}, fmt.Errorf("esearch count %q: %w", er.Result.Count, err)
	}
	if count < 0 {
		return SearchResult{}, fmt.Errorf("esearch returned negative count %d", count)
	}

	return SearchResult{Count: count, IDs: er.Result.IDList}, nil
}

// elink JSON structures.
type elinkResponse struct {
	LinkSets []elinkSet `json:"linksets"`
}

type elinkSet struct {
	LinkSetDBs []elinkSetDB `json:"linksetdbs"`
}

type elinkSetDB struct {
	LinkName string   `json:"linkname"`
	Links    []string `json:"links"`
}

// Link resolves a PMC identifier to its PubMed ID via the pmc_pubmed
// link set. A PMC entry with no PubMed counterpart returns ("", nil);
// the caller substitutes placeholder values for the record.
func (c *Client) Link(ctx context.Context, pmcid string) (string, error) {
	params := url.Values{
		"dbfrom":   {"pmc"},
		"db":       {"pubmed"},
		"linkname": {"pmc_pubmed"},
		"id":       {pmcid},
		"retmode":  {"json"},
	}

	body, err := c.get(ctx, "elink.fcgi", params)
	if err != nil {
		return "", err
	}

	var lr elinkResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("parsing elink response: %w", err)
	}

	for _, set := range lr.LinkSets {
		for _, db := range set.LinkSetDBs {
			if len(db.Links) > 0 {
				return db.Links[0], nil
			}
		}
	}
	return "", nil
}

// MonthQuery builds the search term scoping term to one month,
// e.g. `cancer AND 2020/2/1:2020/2/31[Publication Date]`. Day 31 is
// accepted by the service for every month.
func MonthQuery(term string, year, month int) string {
	return fmt.Sprintf("%s AND %d/%d/1:%d/%d/31[Publication Date]",
		term, year, month, year, month)
}

// PubMedLink returns the PubMed URL for a PMID, or "" for an empty PMID.
func PubMedLink(pmid string) string {
	if pmid == "" {
		return ""
	}
	return "https://www.ncbi.nlm.nih.gov/pubmed/" + pmid
}
