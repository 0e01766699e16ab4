// Package pmc adapts the NCBI PubMed Central E-utilities to the uniform
// Provider interface, per spec.md §4.5's "PMC" row: search, download, and
// read, with PMCID normalization.
package pmc

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
	"research-master/internal/pdf"
	"research-master/internal/providers"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	providerID     = "pmc"
	maxResults     = 10000
)

// esearchResult mirrors PubMed's esearch JSON shape but PMC is queried
// through the same eutils endpoint with db=pmc.
type esearchResult struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type articleSet struct {
	XMLName  xml.Name  `xml:"pmc-articleset"`
	Articles []article `xml:"article"`
}

type article struct {
	Front struct {
		ArticleMeta struct {
			ArticleIDs []struct {
				PubIDType string `xml:"pub-id-type,attr"`
				Value     string `xml:",chardata"`
			} `xml:"article-id"`
			TitleGroup struct {
				ArticleTitle string `xml:"article-title"`
			} `xml:"title-group"`
			Abstract struct {
				Text string `xml:",chardata"`
			} `xml:"abstract"`
			ContribGroup struct {
				Contribs []struct {
					ContribType string `xml:"contrib-type,attr"`
					Name        struct {
						Surname string `xml:"surname"`
						Given   string `xml:"given-names"`
					} `xml:"name"`
				} `xml:"contrib"`
			} `xml:"contrib-group"`
		} `xml:"article-meta"`
	} `xml:"front"`
}

// Provider implements search, download, and read against PubMed Central.
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
		Base:    providers.NewBase(providerID, "PubMed Central", providers.CapSearch|providers.CapDownload|providers.CapRead),
		rt:      rt,
		baseURL: baseURL,
	}
}

// ValidateID normalizes and checks a PMCID shape ("PMC" + digits).
func (p *Provider) ValidateID(id string) error {
	if normalizeID(id) == "" {
		return fedErrors.NewInvalidRequestError("malformed PMCID", "id", id)
	}
	return nil
}

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
	for i, a := range articles {
		papers = append(papers, p.convert(ids[i], a))
	}

	return models.SearchResponse{
		Papers:       papers,
		TotalResults: total,
		Source:       providerID,
		Query:        query.Query,
		HasMore:      len(ids) < total,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	norm := normalizeID(id)
	if norm == "" {
		return models.Paper{}, fedErrors.NewInvalidRequestError("malformed PMCID", "id", id)
	}

	articles, err := p.efetch(ctx, []string{strings.TrimPrefix(norm, "PMC")})
	if err != nil {
		return models.Paper{}, err
	}
	if len(articles) == 0 {
		return models.Paper{}, fedErrors.NewNotFoundError("paper", id)
	}
	return p.convert(strings.TrimPrefix(norm, "PMC"), articles[0]), nil
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	norm := normalizeID(req.PaperID)
	if norm == "" {
		return models.DownloadResult{}, fedErrors.NewInvalidRequestError("malformed PMCID", "paper_id", req.PaperID)
	}
	pdfURL := fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s/pdf/", url.PathEscape(norm))

	var n int64
	err := p.rt.Call(ctx, "download", func() error {
		written, callErr := providers.DownloadTo(ctx, p.rt.HTTP, pdfURL, req.SavePath, providers.MaxDownloadBytes)
		if callErr != nil {
			return callErr
		}
		n = written
		return nil
	})
	if err != nil {
		return models.DownloadResult{}, err
	}
	return models.DownloadResult{PaperID: req.PaperID, SavePath: req.SavePath, Bytes: n}, nil
}

func (p *Provider) Read(ctx context.Context, req models.ReadRequest) (models.ReadResult, error) {
	if req.DownloadIfMissing {
		if _, err := p.Download(ctx, models.DownloadRequest{PaperID: req.PaperID, SavePath: req.SavePath}); err != nil {
			return models.ReadResult{}, err
		}
	}
	text, err := pdf.ExtractText(req.SavePath)
	if err != nil {
		return models.ReadResult{}, err
	}
	return models.NewReadResult(req.PaperID, text), nil
}

func (p *Provider) esearch(ctx context.Context, query models.SearchQuery, maxN int) ([]string, int, error) {
	params := url.Values{}
	params.Set("db", "pmc")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(maxN))
	params.Set("term", query.Query)

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

	var result esearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, 0, fedErrors.NewParseError(providerID, "malformed esearch response", err)
	}
	total, _ := strconv.Atoi(result.ESearchResult.Count)
	return result.ESearchResult.IDList, total, nil
}

func (p *Provider) efetch(ctx context.Context, ids []string) ([]article, error) {
	params := url.Values{}
	params.Set("db", "pmc")
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

	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fedErrors.NewParseError(providerID, "malformed efetch response", err)
	}
	return set.Articles, nil
}

func (p *Provider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.rt.HTTP.Get(ctx, p.baseURL+path, map[string]string{"Accept": "application/json, application/xml"})
	if err != nil {
		return nil, err
	}
	return providers.ReadClassified(providerID, resp)
}

func (p *Provider) convert(bareID string, a article) models.Paper {
	meta := a.Front.ArticleMeta
	title := strings.TrimSpace(meta.TitleGroup.ArticleTitle)

	var doi string
	for _, id := range meta.ArticleIDs {
		if id.PubIDType == "doi" {
			doi = strings.TrimSpace(id.Value)
		}
	}

	authors := make([]string, 0, len(meta.ContribGroup.Contribs))
	for _, c := range meta.ContribGroup.Contribs {
		if c.ContribType != "author" {
			continue
		}
		name := strings.TrimSpace(c.Name.Given + " " + c.Name.Surname)
		if name != "" {
			authors = append(authors, name)
		}
	}

	pmcID := "PMC" + bareID
	link := "https://www.ncbi.nlm.nih.gov/pmc/articles/" + pmcID + "/"
	b := models.NewBuilder(pmcID, title, link, models.SourcePMC).
		WithAuthors(authors...).
		WithAbstract(strings.TrimSpace(meta.Abstract.Text))
	if doi != "" {
		b = b.WithDOI(doi)
	}
	return b.Build()
}

// normalizeID canonicalizes a bare numeric id or "pmc1234567" into
// "PMC1234567", per spec.md §4.5's PMCID normalization quirk.
func normalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}
	upper := strings.ToUpper(id)
	if strings.HasPrefix(upper, "PMC") {
		digits := upper[3:]
		if digits == "" {
			return ""
		}
		if _, err := strconv.Atoi(digits); err != nil {
			return ""
		}
		return "PMC" + digits
	}
	if _, err := strconv.Atoi(id); err == nil {
		return "PMC" + id
	}
	return ""
}
