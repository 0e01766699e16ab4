package rpchttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"research-master/internal/dedup"
	"research-master/internal/models"
)

// toolRequest is the union of every tool's arguments; only the fields a
// given tool names are read.
type toolRequest struct {
	Query        string         `json:"query"`
	Author       string         `json:"author"`
	PaperID      string         `json:"paper_id"`
	DOI          string         `json:"doi"`
	Source       string         `json:"source"`
	Year         string         `json:"year"`
	Category     string         `json:"category"`
	MaxResults   int            `json:"max_results"`
	OutputPath   string         `json:"output_path"`
	AutoFilename *bool          `json:"auto_filename"`
	Papers       []models.Paper `json:"papers"`
	Strategy     string         `json:"strategy"`
}

// invokeTool dispatches POST /tools/:name to the matching service method,
// per spec.md §6's nine-tool contract.
func (h *handler) invokeTool(c *gin.Context) {
	name := c.Param("name")

	var req toolRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()

	switch name {
	case "search_papers":
		resp, err := h.svc.SearchPapers(ctx, req.Query, req.Source, req.MaxResults, req.Year, req.Category)
		h.respond(c, resp, err)

	case "search_by_author":
		resp, err := h.svc.SearchByAuthor(ctx, req.Author, req.Source, req.MaxResults)
		h.respond(c, resp, err)

	case "get_paper":
		paper, err := h.svc.GetPaper(ctx, req.PaperID, req.Source)
		h.respond(c, paper, err)

	case "download_paper":
		outputPath := req.OutputPath
		if outputPath == "" {
			outputPath = "./downloads"
		}
		autoFilename := true
		if req.AutoFilename != nil {
			autoFilename = *req.AutoFilename
		}
		result, err := h.svc.DownloadPaper(ctx, req.PaperID, req.Source, outputPath, autoFilename)
		h.respond(c, result, err)

	case "read_paper":
		result, err := h.svc.ReadPaper(ctx, req.PaperID, req.Source)
		h.respond(c, result, err)

	case "get_citations":
		source := req.Source
		if source == "" {
			source = "semantic"
		}
		resp, err := h.svc.GetCitations(ctx, req.PaperID, source, req.MaxResults)
		h.respond(c, resp, err)

	case "get_references":
		source := req.Source
		if source == "" {
			source = "semantic"
		}
		resp, err := h.svc.GetReferences(ctx, req.PaperID, source, req.MaxResults)
		h.respond(c, resp, err)

	case "lookup_by_doi":
		paper, err := h.svc.LookupByDOI(ctx, req.DOI, req.Source)
		h.respond(c, paper, err)

	case "deduplicate_papers":
		strategy := req.Strategy
		if strategy == "" {
			strategy = string(dedup.First)
		}
		result := h.svc.DeduplicatePapers(req.Papers, strategy)
		c.JSON(http.StatusOK, gin.H{"papers": result.Kept, "groups": result.Groups})

	default:
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown tool: " + name})
	}
}

func (h *handler) respond(c *gin.Context, result interface{}, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
