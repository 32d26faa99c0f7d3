// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pde-bio pipelines.
package types

// Cell identifies one month of search scope for a term.
type Cell struct {
	Term  string `json:"term" yaml:"term"`
	Year  int    `json:"year" yaml:"year"`
	Month int    `json:"month" yaml:"month"`
}

// CountRow records the match count for one Cell. PMCIDs carries the
// identifiers returned alongside the count so the article fetcher can
// reuse them without repeating the search.
type CountRow struct {
	Cell `yaml:",inline"`

	Count int `json:"count" yaml:"count"`

	// PMCIDs lists the matching PMC identifiers in service order.
	PMCIDs []string `json:"pmcids,omitempty" yaml:"pmcids,omitempty"`
}

// ArticleRecord holds the fetched metadata for one matching article,
// together with the Cell it was found under.
type ArticleRecord struct {
	Cell `yaml:",inline"`

	// PMID is the PubMed identifier resolved from the PMCID. Empty when
	// the PMC entry has no PubMed link.
	PMID string `json:"pmid" yaml:"pmid"`

	// PMCID is the PubMed Central identifier the record was fetched under.
	PMCID string `json:"pmcid" yaml:"pmcid"`

	// Link is the PubMed URL for the article, empty when PMID is empty.
	Link string `json:"link" yaml:"link"`

	Title   string `json:"title" yaml:"title"`
	Journal string `json:"journal" yaml:"journal"`

	// Authors lists the article authors in source order, formatted
	// "LastName Initials".
	Authors []string `json:"authors" yaml:"authors"`

	// PubDate is the publication date as reported by the service
	// (e.g. "2020 Jan 15"); components that are missing are omitted.
	PubDate string `json:"pubdate" yaml:"pubdate"`

	Abstract string `json:"abstract" yaml:"abstract"`
}
