package models

import "strings"

// Source tags the provider that produced a Paper. It is a closed enum of
// known providers plus an open Other(string) case, modeled as a string type
// so an unrecognized provider id still round-trips through JSON.
type Source string

const (
	SourceArxiv            Source = "arxiv"
	SourcePubMed           Source = "pubmed"
	SourcePMC              Source = "pmc"
	SourceBioRxiv          Source = "biorxiv"
	SourceMedRxiv          Source = "medrxiv"
	SourceSemanticScholar  Source = "semantic"
	SourceOpenAlex         Source = "openalex"
	SourceCrossRef         Source = "crossref"
	SourceHAL              Source = "hal"
	SourceDBLP             Source = "dblp"
	SourceIACR             Source = "iacr"
	SourceSSRN             Source = "ssrn"
	SourceEuropePMC        Source = "europepmc"
	SourceCORE             Source = "core"
	SourceZenodo           Source = "zenodo"
	SourceUnpaywall        Source = "unpaywall"
	SourceMDPI             Source = "mdpi"
	SourceJSTOR            Source = "jstor"
	SourceSciSpace         Source = "scispace"
	SourceACM              Source = "acm"
	SourceConnectedPapers  Source = "connected_papers"
	SourceDOAJ             Source = "doaj"
	SourceWorldWideScience Source = "worldwidescience"
	SourceOSF              Source = "osf"
	SourceBASE             Source = "base"
	SourceSpringer         Source = "springer"
	SourceIEEEXplore       Source = "ieee_xplore"
	SourceDimensions       Source = "dimensions"
	SourceGoogleScholar    Source = "google_scholar"
	sourceOtherPrefix             = "other:"
)

var knownSources = map[Source]bool{
	SourceArxiv: true, SourcePubMed: true, SourcePMC: true, SourceBioRxiv: true,
	SourceMedRxiv: true, SourceSemanticScholar: true, SourceOpenAlex: true,
	SourceCrossRef: true, SourceHAL: true, SourceDBLP: true, SourceIACR: true,
	SourceSSRN: true, SourceEuropePMC: true, SourceCORE: true, SourceZenodo: true,
	SourceUnpaywall: true, SourceMDPI: true, SourceJSTOR: true, SourceSciSpace: true,
	SourceACM: true, SourceConnectedPapers: true, SourceDOAJ: true,
	SourceWorldWideScience: true, SourceOSF: true, SourceBASE: true,
	SourceSpringer: true, SourceIEEEXplore: true, SourceDimensions: true,
	SourceGoogleScholar: true,
}

// OtherSource wraps an unrecognized provider id in the open case.
func OtherSource(name string) Source {
	return Source(sourceOtherPrefix + name)
}

// IsKnown reports whether s is one of the closed enum members.
func (s Source) IsKnown() bool {
	return knownSources[s]
}

// String returns the bare provider name, stripping the Other(...) wrapper.
func (s Source) String() string {
	return strings.TrimPrefix(string(s), sourceOtherPrefix)
}

// Paper is the uniform record every provider adapter normalizes into.
type Paper struct {
	PaperID       string                 `json:"paper_id"`
	Title         string                 `json:"title"`
	Authors       string                 `json:"authors"`
	Abstract      string                 `json:"abstract"`
	DOI           *string                `json:"doi,omitempty"`
	PublishedDate *string                `json:"published_date,omitempty"`
	UpdatedDate   *string                `json:"updated_date,omitempty"`
	PDFURL        *string                `json:"pdf_url,omitempty"`
	URL           string                 `json:"url"`
	Source        Source                 `json:"source"`
	Categories    *string                `json:"categories,omitempty"`
	Keywords      *string                `json:"keywords,omitempty"`
	References    *string                `json:"references,omitempty"`
	Citations     *uint64                `json:"citations,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
}

// PrimaryID returns the DOI when present, else the paper id.
func (p *Paper) PrimaryID() string {
	if p.DOI != nil && *p.DOI != "" {
		return *p.DOI
	}
	return p.PaperID
}

// CanonicalDOI lowercases the DOI and strips a leading "doi:" or
// "https://doi.org/"/"http://doi.org/" prefix, for comparison purposes only
// — the stored field is left untouched.
func CanonicalDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = strings.TrimPrefix(d, "doi:")
	d = strings.TrimPrefix(d, "https://doi.org/")
	d = strings.TrimPrefix(d, "http://doi.org/")
	return d
}

// splitSemicolon trims whitespace and drops empty segments from a
// semicolon-joined field.
func splitSemicolon(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinSemicolon(parts []string) string {
	return strings.Join(parts, "; ")
}

// AuthorList splits Authors on ';', trimming whitespace and dropping empties.
func (p *Paper) AuthorList() []string { return splitSemicolon(p.Authors) }

// CategoryList splits Categories the same way.
func (p *Paper) CategoryList() []string {
	if p.Categories == nil {
		return nil
	}
	return splitSemicolon(*p.Categories)
}

// KeywordList splits Keywords the same way.
func (p *Paper) KeywordList() []string {
	if p.Keywords == nil {
		return nil
	}
	return splitSemicolon(*p.Keywords)
}

// ReferenceList splits References the same way.
func (p *Paper) ReferenceList() []string {
	if p.References == nil {
		return nil
	}
	return splitSemicolon(*p.References)
}

// Builder is the fluent paper builder of spec.md §4.9. Unset optional
// fields default to nil/empty.
type Builder struct {
	p Paper
}

// NewBuilder seeds the builder with the four always-populated fields.
func NewBuilder(paperID, title, url string, source Source) *Builder {
	return &Builder{p: Paper{PaperID: paperID, Title: title, URL: url, Source: source}}
}

func (b *Builder) WithAuthors(authors ...string) *Builder {
	b.p.Authors = joinSemicolon(authors)
	return b
}

func (b *Builder) WithAuthorsJoined(authors string) *Builder {
	b.p.Authors = authors
	return b
}

func (b *Builder) WithAbstract(abstract string) *Builder {
	b.p.Abstract = abstract
	return b
}

func (b *Builder) WithDOI(doi string) *Builder {
	if doi == "" {
		return b
	}
	b.p.DOI = &doi
	return b
}

func (b *Builder) WithPublishedDate(date string) *Builder {
	if date == "" {
		return b
	}
	b.p.PublishedDate = &date
	return b
}

func (b *Builder) WithUpdatedDate(date string) *Builder {
	if date == "" {
		return b
	}
	b.p.UpdatedDate = &date
	return b
}

func (b *Builder) WithPDFURL(url string) *Builder {
	if url == "" {
		return b
	}
	b.p.PDFURL = &url
	return b
}

func (b *Builder) WithCategories(categories ...string) *Builder {
	if len(categories) == 0 {
		return b
	}
	joined := joinSemicolon(categories)
	b.p.Categories = &joined
	return b
}

func (b *Builder) WithKeywords(keywords ...string) *Builder {
	if len(keywords) == 0 {
		return b
	}
	joined := joinSemicolon(keywords)
	b.p.Keywords = &joined
	return b
}

func (b *Builder) WithReferences(references ...string) *Builder {
	if len(references) == 0 {
		return b
	}
	joined := joinSemicolon(references)
	b.p.References = &joined
	return b
}

func (b *Builder) WithCitations(count uint64) *Builder {
	b.p.Citations = &count
	return b
}

func (b *Builder) WithExtra(key string, value interface{}) *Builder {
	if b.p.Extra == nil {
		b.p.Extra = make(map[string]interface{})
	}
	b.p.Extra[key] = value
	return b
}

func (b *Builder) Build() Paper {
	return b.p
}
