// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// Article holds the metadata parsed from one efetch record. Fields the
// record lacks are left empty; a partial record is not an error.
type Article struct {
	Title   string
	Journal string

	// Authors are formatted "LastName Initials" in source order.
	Authors []string

	// PubDate joins the Year, Month and Day elements that were present,
	// space-separated (e.g. "2020 Jan 15").
	PubDate string

	// Abstract is the first abstract section of the record.
	Abstract string
}

// efetch XML structures (PubmedArticleSet).
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	Article xmlArticle `xml:"Article"`
}

type xmlArticle struct {
	Journal      xmlJournal    `xml:"Journal"`
	ArticleTitle string        `xml:"ArticleTitle"`
	Abstract     xmlAbstract   `xml:"Abstract"`
	AuthorList   xmlAuthorList `xml:"AuthorList"`
}

type xmlJournal struct {
	JournalIssue xmlJournalIssue `xml:"JournalIssue"`
	Title        string          `xml:"Title"`
}

type xmlJournalIssue struct {
	PubDate xmlPubDate `xml:"PubDate"`
}

type xmlPubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type xmlAbstract struct {
	AbstractTexts []string `xml:"AbstractText"`
}

type xmlAuthorList struct {
	Authors []xmlAuthor `xml:"Author"`
}

type xmlAuthor struct {
	LastName       string `xml:"LastName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// Fetch retrieves the metadata record for one PubMed ID.
func (c *Client) Fetch(ctx context.Context, pmid string) (Article, error) {
	if pmid == "" {
		return Article{}, fmt.Errorf("empty PMID")
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"xml"},
	}

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return Article{}, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return Article{}, fmt.Errorf("parsing efetch response: %w", err)
	}
	if len(set.Articles) == 0 {
		return Article{}, nil
	}
	return convertArticle(set.Articles[0]), nil
}

func convertArticle(pa pubmedArticle) Article {
	xa := pa.Citation.Article

	a := Article{
		Title:   strings.TrimSpace(xa.ArticleTitle),
		Journal: strings.TrimSpace(xa.Journal.Title),
		PubDate: formatPubDate(xa.Journal.JournalIssue.PubDate),
	}

	if len(xa.Abstract.AbstractTexts) > 0 {
		a.Abstract = strings.TrimSpace(xa.Abstract.AbstractTexts[0])
	}

	for _, au := range xa.AuthorList.Authors {
		if name := formatAuthor(au); name != "" {
			a.Authors = append(a.Authors, name)
		}
	}
	return a
}

// formatAuthor renders "LastName Initials", or the collective name for
// group authorship entries.
func formatAuthor(au xmlAuthor) string {
	if au.CollectiveName != "" {
		return strings.TrimSpace(au.CollectiveName)
	}
	return strings.TrimSpace(au.LastName + " " + au.Initials)
}

func formatPubDate(pd xmlPubDate) string {
	var parts []string
	for _, p := range []string{pd.Year, pd.Month, pd.Day} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
