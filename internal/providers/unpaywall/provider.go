// Package unpaywall adapts the Unpaywall REST API to the uniform Provider
// interface, per spec.md §4.5's "varies" bucket: DOI lookup only, checking
// a paper's open-access status and best OA PDF location.
package unpaywall

import (
	"context"
	"net/url"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/restutil"
)

const (
	defaultBaseURL = "https://api.unpaywall.org/v2"
	providerID     = "unpaywall"
	defaultEmail   = "research-master@example.com"
)

type response struct {
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract"`
	PublishedDate  string   `json:"published_date"`
	Authors        []author `json:"authors"`
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
	} `json:"best_oa_location"`
}

type author struct {
	Name string `json:"name"`
}

// Provider implements DOI lookup against Unpaywall.
type Provider struct {
	providers.Base
	rt      *providers.Runtime
	baseURL string
	email   string
}

func New(rt *providers.Runtime, baseURL, email string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if email == "" {
		email = defaultEmail
	}
	return &Provider{
		Base:    providers.NewBase(providerID, "Unpaywall", providers.CapDOILookup),
		rt:      rt,
		baseURL: baseURL,
		email:   email,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty DOI", "id", id)
	}
	return nil
}

func (p *Provider) GetByDOI(ctx context.Context, doi string) (models.Paper, error) {
	clean := models.CanonicalDOI(doi)
	reqURL := p.baseURL + "/" + url.PathEscape(clean) + "?email=" + url.QueryEscape(p.email)

	var resp response
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_doi", reqURL, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return models.Paper{}, err
	}

	authors := make([]string, 0, len(resp.Authors))
	for _, a := range resp.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	b := models.NewBuilder(doi, resp.Title, "https://doi.org/"+doi, models.SourceUnpaywall).
		WithAuthors(authors...).
		WithAbstract(resp.Abstract).
		WithDOI(doi)
	if resp.PublishedDate != "" {
		b = b.WithPublishedDate(resp.PublishedDate)
	}
	if resp.BestOALocation != nil && resp.BestOALocation.URLForPDF != "" {
		b = b.WithPDFURL(resp.BestOALocation.URLForPDF)
	}
	return b.Build(), nil
}
