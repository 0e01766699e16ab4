// Package mcprpc exposes the service facade as an MCP stdio tool server
// (the "Tool-RPC surface" of spec.md §6), following the teacher's
// SimpleMCPServer shape in internal/mcp/simple_mcp.go: one mcp-go tool per
// operation, each handler pulling its arguments out of a bare
// map[string]interface{} and replying with mcp.NewToolResultText/Error.
package mcprpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"research-master/internal/config"
	"research-master/internal/dedup"
	"research-master/internal/models"
	"research-master/internal/service"
)

// Server wraps an mcp-go server exposing the nine tools named in spec.md §6.
type Server struct {
	mcp    *server.MCPServer
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	m := server.NewMCPServer("research-master", "0.1.0", server.WithToolCapabilities(true))
	s := &Server{mcp: m, svc: svc, logger: logger}
	s.registerTools()
	return s
}

// ServeStdio blocks serving tool calls over stdin/stdout, per spec.md §6.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP tool server over stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("search_papers",
		mcp.WithDescription("Search academic papers across registered sources"),
		mcp.WithString("query", mcp.Required()),
		mcp.WithString("source"),
		mcp.WithNumber("max_results"),
		mcp.WithString("year"),
		mcp.WithString("category"),
	), s.handleSearchPapers)

	s.mcp.AddTool(mcp.NewTool("search_by_author",
		mcp.WithDescription("Search papers by author name"),
		mcp.WithString("author", mcp.Required()),
		mcp.WithString("source"),
		mcp.WithNumber("max_results"),
	), s.handleSearchByAuthor)

	s.mcp.AddTool(mcp.NewTool("get_paper",
		mcp.WithDescription("Fetch one paper by id, auto-routed to the right source when source is omitted"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithString("source"),
	), s.handleGetPaper)

	s.mcp.AddTool(mcp.NewTool("download_paper",
		mcp.WithDescription("Download a paper's PDF to local disk"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithString("source"),
		mcp.WithString("output_path"),
		mcp.WithBoolean("auto_filename"),
	), s.handleDownloadPaper)

	s.mcp.AddTool(mcp.NewTool("read_paper",
		mcp.WithDescription("Extract plain text from a paper's PDF, downloading it first if needed"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithString("source"),
	), s.handleReadPaper)

	s.mcp.AddTool(mcp.NewTool("get_citations",
		mcp.WithDescription("Fetch papers that cite the given paper"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithString("source"),
		mcp.WithNumber("max_results"),
	), s.handleGetCitations)

	s.mcp.AddTool(mcp.NewTool("get_references",
		mcp.WithDescription("Fetch papers referenced by the given paper"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithString("source"),
		mcp.WithNumber("max_results"),
	), s.handleGetReferences)

	s.mcp.AddTool(mcp.NewTool("lookup_by_doi",
		mcp.WithDescription("Resolve a DOI to a paper record"),
		mcp.WithString("doi", mcp.Required()),
		mcp.WithString("source"),
	), s.handleLookupByDOI)

	s.mcp.AddTool(mcp.NewTool("deduplicate_papers",
		mcp.WithDescription("Deduplicate a list of paper records across sources"),
		mcp.WithArray("papers", mcp.Required()),
		mcp.WithString("strategy"),
	), s.handleDeduplicatePapers)

	s.logger.Info("registered MCP tools", slog.Int("count", 9))
}

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argInt(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func argBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func extractArgs(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return args, nil
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// invokeTool stamps a fresh config.RequestContext onto ctx for one tool
// call, so logging inside the service/orchestrator shares a single request
// id with this call's own start/finish log lines, and logs the outcome.
func (s *Server) invokeTool(ctx context.Context, tool string, fn func(ctx context.Context) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	ctx = config.WithRequestContext(ctx, config.NewRequestContext(tool))
	result, err := fn(ctx)
	if err != nil {
		config.ErrorWithContext(ctx, s.logger, "tool call failed", slog.String("tool", tool), slog.String("error", err.Error()))
		return result, err
	}
	config.InfoWithContext(ctx, s.logger, "tool call finished", slog.String("tool", tool))
	return result, nil
}

func (s *Server) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "search_papers", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query := argString(args, "query")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		resp, err := s.svc.SearchPapers(ctx, query, argString(args, "source"), argInt(args, "max_results"), argString(args, "year"), argString(args, "category"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(resp)
	})
}

func (s *Server) handleSearchByAuthor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "search_by_author", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		author := argString(args, "author")
		if author == "" {
			return mcp.NewToolResultError("author is required"), nil
		}
		resp, err := s.svc.SearchByAuthor(ctx, author, argString(args, "source"), argInt(args, "max_results"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(resp)
	})
}

func (s *Server) handleGetPaper(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "get_paper", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paperID := argString(args, "paper_id")
		if paperID == "" {
			return mcp.NewToolResultError("paper_id is required"), nil
		}
		paper, err := s.svc.GetPaper(ctx, paperID, argString(args, "source"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(paper)
	})
}

func (s *Server) handleDownloadPaper(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "download_paper", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paperID := argString(args, "paper_id")
		if paperID == "" {
			return mcp.NewToolResultError("paper_id is required"), nil
		}
		outputPath := argString(args, "output_path")
		if outputPath == "" {
			outputPath = "./downloads"
		}
		result, err := s.svc.DownloadPaper(ctx, paperID, argString(args, "source"), outputPath, argBool(args, "auto_filename", true))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(result)
	})
}

func (s *Server) handleReadPaper(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "read_paper", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paperID := argString(args, "paper_id")
		if paperID == "" {
			return mcp.NewToolResultError("paper_id is required"), nil
		}
		result, err := s.svc.ReadPaper(ctx, paperID, argString(args, "source"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(result)
	})
}

func (s *Server) handleGetCitations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "get_citations", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paperID := argString(args, "paper_id")
		if paperID == "" {
			return mcp.NewToolResultError("paper_id is required"), nil
		}
		source := argString(args, "source")
		if source == "" {
			source = "semantic"
		}
		resp, err := s.svc.GetCitations(ctx, paperID, source, argInt(args, "max_results"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(resp)
	})
}

func (s *Server) handleGetReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "get_references", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paperID := argString(args, "paper_id")
		if paperID == "" {
			return mcp.NewToolResultError("paper_id is required"), nil
		}
		source := argString(args, "source")
		if source == "" {
			source = "semantic"
		}
		resp, err := s.svc.GetReferences(ctx, paperID, source, argInt(args, "max_results"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(resp)
	})
}

func (s *Server) handleLookupByDOI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "lookup_by_doi", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doi := argString(args, "doi")
		if doi == "" {
			return mcp.NewToolResultError("doi is required"), nil
		}
		paper, err := s.svc.LookupByDOI(ctx, doi, argString(args, "source"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(paper)
	})
}

func (s *Server) handleDeduplicatePapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invokeTool(ctx, "deduplicate_papers", func(ctx context.Context) (*mcp.CallToolResult, error) {
		args, err := extractArgs(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rawPapers, ok := args["papers"].([]interface{})
		if !ok {
			return mcp.NewToolResultError("papers must be an array of paper records"), nil
		}

		papers := make([]models.Paper, 0, len(rawPapers))
		for _, raw := range rawPapers {
			data, marshalErr := json.Marshal(raw)
			if marshalErr != nil {
				continue
			}
			var p models.Paper
			if json.Unmarshal(data, &p) == nil {
				papers = append(papers, p)
			}
		}

		strategy := argString(args, "strategy")
		if strategy == "" {
			strategy = string(dedup.First)
		}
		result := s.svc.DeduplicatePapers(papers, strategy)
		return textResult(struct {
			Papers []models.Paper `json:"papers"`
			Groups [][]int        `json:"groups"`
		}{Papers: result.Kept, Groups: result.Groups})
	})
}
