package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/runme/config"
	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/report"
	"github.com/isdmx/runme/runner"
	"github.com/isdmx/runme/sandbox"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config     *config.Config
	logger     *zap.Logger
	factory    sandbox.Factory
	mcpServer  *server.MCPServer
	httpServer *http.Server
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, factory sandbox.Factory) (*MCPServer, error) {
	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		factory: factory,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.String("document.path", s.config.Document.Path),
		zap.String("sandbox.backend", s.config.Sandbox.Backend),
		zap.String("sandbox.engine", s.config.Sandbox.Engine),
		zap.String("sandbox.image", s.config.Sandbox.Image),
		zap.Strings("sandbox.extra_args", s.config.Sandbox.ExtraArgs),
	)

	s.mcpServer = server.NewMCPServer("runme", "Runs the shell examples of markdown documents")

	s.registerListBlocksTool()
	s.registerRunBlocksTool()

	// Shutdown may run before ServeHTTP starts.
	mux := http.NewServeMux()
	mux.Handle(httpEndpoint, server.NewStreamableHTTPServer(s.mcpServer))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// httpEndpoint is the path the streamable HTTP transport is served on.
const httpEndpoint = "/mcp"

var pathProperty = map[string]any{
	"type":        "string",
	"description": "Path of the markdown document (defaults to the configured document)",
}

// registerListBlocksTool registers the list_blocks tool
func (s *MCPServer) registerListBlocksTool() {
	tool := mcp.Tool{
		Name:        "list_blocks",
		Description: "List the code blocks of a markdown document with their ids, names and headings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": pathProperty,
			},
		},
	}

	s.mcpServer.AddTool(tool, s.handleListBlocks)
}

// registerRunBlocksTool registers the run_blocks tool
func (s *MCPServer) registerRunBlocksTool() {
	tool := mcp.Tool{
		Name:        "run_blocks",
		Description: "Run the shell code blocks of a markdown document and return one report per block",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": pathProperty,
				"block": map[string]any{
					"type":        "string",
					"description": "Id or runme:name of a single block to run (optional)",
				},
			},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunBlocks)
}

// blockListing is the list_blocks view of a code block.
type blockListing struct {
	ID         string   `json:"id"`
	Name       *string  `json:"name"`
	Language   string   `json:"language"`
	Headings   []string `json:"headings"`
	SkipReason *string  `json:"skip_reason"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *MCPServer) handleListBlocks(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", s.config.Document.Path)
	s.logger.Info("block listing requested", zap.String("path", path))

	blocks, err := markdown.LoadFile(path)
	if err != nil {
		return errorResult("Listing failed", err), nil
	}

	listing := make([]blockListing, 0, len(blocks))
	for _, block := range blocks {
		headings := block.Headings
		if headings == nil {
			headings = []string{}
		}
		listing = append(listing, blockListing{
			ID:         block.ID,
			Name:       optional(block.Name),
			Language:   block.LanguageLabel(),
			Headings:   headings,
			SkipReason: optional(block.SkipReason),
		})
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode block listing: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *MCPServer) handleRunBlocks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", s.config.Document.Path)
	key := request.GetString("block", "")
	logger := s.logger.With(zap.String("path", path), zap.String("block", key))
	logger.Info("block run requested")

	blocks, err := markdown.LoadFile(path)
	if err != nil {
		return errorResult("Run failed", err), nil
	}
	for _, dup := range markdown.DuplicateNames(blocks) {
		logger.Warn("runme:name is used by multiple blocks",
			zap.String("name", dup.Name),
			zap.Strings("ids", dup.IDs))
	}

	selected, err := markdown.Select(blocks, key)
	if err != nil {
		return errorResult("Run failed", err), nil
	}

	backend, err := s.factory(markdown.WorkingDir(path))
	if err != nil {
		return errorResult("Run failed", err), nil
	}

	// stdout may be the transport, so nothing is streamed.
	engine := runner.New(logger, backend, runner.WithConsole(runner.NewConsole(io.Discard, io.Discard)))
	reports, err := engine.Run(ctx, selected, false)
	if err != nil {
		logger.Error("block run failed", zap.Error(err), zap.Int("completed", len(reports)))
		return errorResult("Run failed", err), nil
	}

	data, err := report.EncodeJSON(reports)
	if err != nil {
		return nil, err
	}

	logger.Info("block run completed", zap.Int("blocks", len(reports)))
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(prefix string, err error) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf("%s: %v", prefix, err))
	result.IsError = true
	return result
}

// Serve starts the configured transport and blocks until it stops.
func (s *MCPServer) Serve() error {
	switch s.config.Server.Transport {
	case "stdio":
		return s.ServeStdio()
	case "http":
		return s.ServeHTTP()
	default:
		return fmt.Errorf("unsupported transport: %s", s.config.Server.Transport)
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP transport. A later ServeHTTP returns immediately.
func (s *MCPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
