// Package osf adapts the Open Science Framework's JSON:API v2 to the
// uniform Provider interface, per spec.md §4.5's "varies" bucket: search
// and download of preprints hosted on OSF.
package osf

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	fedErrors "research-master/internal/errors"
	"research-master/internal/models"
	"research-master/internal/providers"
	"research-master/internal/providers/restutil"
)

const (
	defaultBaseURL = "https://api.osf.io/v2/preprints"
	providerID     = "osf"
)

type jsonAPIResponse struct {
	Data  []jsonAPIItem `json:"data"`
	Links struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	} `json:"links"`
}

type jsonAPIItem struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DateCreated string `json:"date_created"`
		DOI         string `json:"doi"`
	} `json:"attributes"`
	Links struct {
		HTML     string `json:"html"`
		Download string `json:"download"`
	} `json:"links"`
}

// Provider implements search and download against OSF preprints.
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
		Base:    providers.NewBase(providerID, "Open Science Framework", providers.CapSearch|providers.CapDownload),
		rt:      rt,
		baseURL: baseURL,
	}
}

func (p *Provider) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fedErrors.NewInvalidRequestError("empty OSF id", "id", id)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query models.SearchQuery) (models.SearchResponse, error) {
	maxN := query.MaxResults
	if maxN <= 0 {
		maxN = 10
	}
	params := url.Values{}
	params.Set("filter[title]", query.Query)
	params.Set("page[size]", strconv.Itoa(maxN))

	var resp jsonAPIResponse
	reqURL := p.baseURL + "?" + params.Encode()
	if err := restutil.GetJSON(ctx, p.rt, providerID, "search", reqURL, map[string]string{"Accept": "application/vnd.api+json"}, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	papers := make([]models.Paper, 0, len(resp.Data))
	for _, d := range resp.Data {
		papers = append(papers, convert(d))
	}
	return models.SearchResponse{
		Papers: papers, TotalResults: resp.Links.Meta.Total, Source: providerID, Query: query.Query,
		HasMore: len(papers) < resp.Links.Meta.Total,
	}, nil
}

func (p *Provider) GetByID(ctx context.Context, id string) (models.Paper, error) {
	var single struct {
		Data jsonAPIItem `json:"data"`
	}
	reqURL := p.baseURL + "/" + url.PathEscape(id)
	if err := restutil.GetJSON(ctx, p.rt, providerID, "get_by_id", reqURL, map[string]string{"Accept": "application/vnd.api+json"}, &single); err != nil {
		return models.Paper{}, err
	}
	return convert(single.Data), nil
}

func (p *Provider) Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResult, error) {
	paper, err := p.GetByID(ctx, req.PaperID)
	if err != nil {
		return models.DownloadResult{}, err
	}
	if paper.PDFURL == nil || *paper.PDFURL == "" {
		return models.DownloadResult{}, fedErrors.NewNotFoundError("paper", "No PDF available")
	}
	var n int64
	callErr := p.rt.Call(ctx, "download", func() error {
		written, err := providers.DownloadTo(ctx, p.rt.HTTP, *paper.PDFURL, req.SavePath, providers.MaxDownloadBytes)
		if err != nil {
			return err
		}
		n = written
		return nil
	})
	if callErr != nil {
		return models.DownloadResult{}, callErr
	}
	return models.DownloadResult{PaperID: req.PaperID, SavePath: req.SavePath, Bytes: n}, nil
}

func convert(d jsonAPIItem) models.Paper {
	link := d.Links.HTML
	if link == "" {
		link = "https://osf.io/" + d.ID
	}
	b := models.NewBuilder(d.ID, d.Attributes.Title, link, models.SourceOSF).
		WithAbstract(d.Attributes.Description).
		WithDOI(d.Attributes.DOI)
	if d.Attributes.DateCreated != "" {
		b = b.WithPublishedDate(d.Attributes.DateCreated)
	}
	if d.Links.Download != "" {
		b = b.WithPDFURL(d.Links.Download)
	}
	return b.Build()
}
