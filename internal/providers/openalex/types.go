package openalex

// WorksResponse is the envelope returned by the /works list endpoint.
type WorksResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []Work `json:"results"`
}

// Work is one OpenAlex work record.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	CitedByCount          int              `json:"cited_by_count"`
	Authorships           []Authorship     `json:"authorships"`
	Concepts              []Concept        `json:"concepts"`
	PrimaryLocation       *Location        `json:"primary_location"`
	OpenAccess            *OpenAccess      `json:"open_access"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	ReferencedWorks       []string         `json:"referenced_works"`
}

// Authorship is one author credit on a work.
type Authorship struct {
	Author struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// Concept is an OpenAlex topic classification.
type Concept struct {
	DisplayName string `json:"display_name"`
}

// Location describes a venue where a full-text copy of a work may live.
type Location struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// OpenAccess summarizes a work's open-access status.
type OpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}
