package hal

// searchResponse mirrors HAL's Solr-style search envelope.
type searchResponse struct {
	Response struct {
		NumFound int   `json:"numFound"`
		Docs     []doc `json:"docs"`
	} `json:"response"`
}

// doc is one HAL document. HAL stores most fields as string arrays because
// a document may carry a title/abstract in more than one language.
type doc struct {
	HalID         string   `json:"halId_s"`
	TitleS        []string `json:"title_s"`
	AbstractS     []string `json:"abstract_s"`
	AuthFullNameS []string `json:"authFullName_s"`
	ProducedDateS string   `json:"producedDate_s"`
	DoiID         string   `json:"doiId_s"`
	FilesS        []string `json:"files_s"`
	DomainS       []string `json:"domain_s"`
	CitationFullS string   `json:"citationFull_s"`
}
