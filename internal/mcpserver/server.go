// Package mcpserver exposes the query operations as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jasperwreed/deja/internal/query"
)

const (
	serverName    = "deja"
	serverVersion = "0.1.0"
)

// Queries is the subset of query.Service the tools call. Tool calls may
// arrive concurrently, so implementations must be safe for concurrent use.
type Queries interface {
	Search(opts query.SearchOptions) (string, query.SearchPayload)
	Recent(opts query.RecentOptions) (string, query.RecentPayload)
	Episodes(sessionID string) (string, query.EpisodesPayload)
	Read(sessionID string, opts query.ReadOptions) (string, query.ReadPayload)
	Note(sessionID, text string) (string, query.NotePayload)
	Projects() (string, query.ProjectsPayload)
}

type MCPService struct {
	server  *server.MCPServer
	queries Queries
	logger  *slog.Logger
}

func NewMCPService(queries Queries, logger *slog.Logger) *MCPService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MCPService{queries: queries, logger: logger}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	mcpServer.AddTool(CreateSearchTool(), s.handleSearch)
	mcpServer.AddTool(CreateRecentTool(), s.handleRecent)
	mcpServer.AddTool(CreateEpisodesTool(), s.handleEpisodes)
	mcpServer.AddTool(CreateReadTool(), s.handleRead)
	mcpServer.AddTool(CreateNoteTool(), s.handleNote)
	mcpServer.AddTool(CreateProjectsTool(), s.handleProjects)

	s.server = mcpServer
	return s
}

// ServeStdio blocks serving JSON-RPC on stdin and stdout.
func (s *MCPService) ServeStdio() error {
	s.logger.Info("MCP server listening on stdio")
	return server.ServeStdio(s.server)
}

// result renders the status line followed by the JSON payload.
func (s *MCPService) result(tool, line string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		s.logger.Error("could not encode tool result", "tool", tool, "error", err)
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(line + "\n\n" + string(data)), nil
}

func (s *MCPService) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	opts := query.SearchOptions{
		Query:   q,
		Project: req.GetString("project", ""),
		After:   req.GetString("after", ""),
		Before:  req.GetString("before", ""),
		Skip:    req.GetInt("skip", 0),
		Limit:   req.GetInt("limit", query.DefaultSearchLimit),
		Recent:  req.GetBool("recent", false),
	}

	line, payload := s.queries.Search(opts)
	return s.result(ToolSearch, line, payload)
}

func (s *MCPService) handleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := query.RecentOptions{
		Project: req.GetString("project", ""),
		After:   req.GetString("after", ""),
		Before:  req.GetString("before", ""),
		Skip:    req.GetInt("skip", 0),
		Limit:   req.GetInt("limit", query.DefaultRecentLimit),
	}

	line, payload := s.queries.Recent(opts)
	return s.result(ToolRecent, line, payload)
}

func (s *MCPService) handleEpisodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	line, payload := s.queries.Episodes(id)
	return s.result(ToolEpisodes, line, payload)
}

func (s *MCPService) handleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	opts := query.ReadOptions{
		Last:   req.GetInt("last", 0),
		Expand: req.GetInt("expand", 0),
		Full:   req.GetBool("full", false),
	}
	if err := query.ParseTarget(req.GetString("target", ""), &opts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	line, payload := s.queries.Read(id, opts)
	return s.result(ToolRead, line, payload)
}

func (s *MCPService) handleNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	note, err := req.RequireString("note")
	if err != nil || note == "" {
		return mcp.NewToolResultError("note is required"), nil
	}

	line, payload := s.queries.Note(id, note)
	return s.result(ToolNote, line, payload)
}

func (s *MCPService) handleProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, payload := s.queries.Projects()
	return s.result(ToolProjects, line, payload)
}
