// Package pubmed adapts the NCBI E-utilities esearch/efetch pair to the
// uniform Provider interface, per spec.md §4.5's "PubMed" row: a two-step
// fetch, IDs first then a detail batch.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	providerID     = "pubmed"
	maxResults     = 10000
)

// Provider implements search-only access to PubMed via esearch + efetch.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
}

func New(rt *providers.Runtime, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		Base:    providers.NewBase(providerID, "PubMed", providers.CapSearch),
		rt:      rt,
		baseURL: baseURL,
	}
}

// Search runs esearch to collect PMIDs matching query, then efetch to pull
// the MEDLINE detail batch for those IDs in a single round trip.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	if maxN > maxResults {
		maxN = maxResults
	}

	ids, total, err := p.esearch(ctx, query, maxN)
	if err != nil {
		return models.SearchResponse{}, err
	}
	if len(ids) == 0 {
		return models.SearchResponse{Source: providerID, Query: query.Query}, nil
	}

	articles, err := p.efetch(ctx, ids)
	if err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(articles))
	for _, a := range articles {
		papers = append(papers, p.convert(a))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: total,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(ids) < total,
	}, nil
}

func (p *Provider) esearch(ctx context.Context, query models.SearchQuery, maxN int) ([]string, int, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(maxN))
	params.Set("term", p.buildTerm(query))

	// PubMed year filter quirk: mindate/maxdate filled out to full-year
	// boundaries, per spec.md §4.5.
	if query.Year != "" {
		params.Set("datetype", "pdat")
		params.Set("mindate", query.Year+"-01-01")
		params.Set("maxdate", query.Year+"-12-31")
	}

	var body []byte
	err := p.rt.Call(ctx, "esearch", func() error {
		b, callErr := p.get(ctx, "/esearch.fcgi?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	var result ESearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, 0, fedErrors.NewParseError(providerID, "malformed esearch response", err)
	}

	total, _ := strconv.Atoi(result.ESearchResult.Count)
	return result.ESearchResult.IDList, total, nil
}

func (p *Provider) efetch(ctx context.Context, ids []string) ([]PubmedArticle, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "xml")
	params.Set("id", strings.Join(ids, ","))

	var body []byte
	err := p.rt.Call(ctx, "efetch", func() error {
		b, callErr := p.get(ctx, "/efetch.fcgi?"+params.Encode())
		if callErr != nil {
			return callErr
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	var set PubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fedErrors.NewParseError(providerID, "malformed efetch response", err)
	}
	return set.Articles, nil
}

func (p *Provider) buildTerm(query models.SearchQuery) string {
	term := query.Query
	if query.Author != "" {
		term = fmt.Sprintf("%s AND %s[Author]", term, query.Author)
	}
	return term
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{"Accept": "application/json, application/xml"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

func (p *Provider) convert(a PubmedArticle) models.Paper {
	pmid := a.MedlineCitation.PMID
	title := strings.TrimSpace(a.MedlineCitation.Article.ArticleTitle)

	authors := make([]string, 0, len(a.MedlineCitation.Article.AuthorList.Authors))
	for _, au := range a.MedlineCitation.Article.AuthorList.Authors {
		name := strings.TrimSpace(au.ForeName + " " + au.LastName)
		if name != "" {
			authors = append(authors, name)
		}
	}

	abstract := strings.Join(a.MedlineCitation.Article.Abstract.AbstractText, " ")

	var doi string
	for _, id := range a.PubmedData.ArticleIDList.ArticleIDs {
		if id.IDType == "doi" {
			doi = strings.TrimSpace(id.Value)
		}
	}

	link := "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
	b := models.NewBuilder(pmid, title, link, models.SourcePubMed).
		WithAuthors(authors...).
		WithAbstract(abstract)

	pub := a.MedlineCitation.Article.Journal.JournalIssue.PubDate
	if pub.Year != "" {
		month := pub.Month
		if month == "" {
			month = "01"
		}
		day := pub.Day
		if day == "" {
			day = "01"
		}
		b = b.WithPublishedDate(pub.Year + "-" + month + "-" + day)
	}
	if doi != "" {
		b = b.WithDOI(doi)
	}

	return b.Build()
}
