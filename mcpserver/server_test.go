package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/runme/config"
	"github.com/isdmx/runme/sandbox"
)

// MockBackend implements sandbox.Backend for testing
type MockBackend struct {
	calls [][]string
}

func (*MockBackend) Label() string {
	return "mock"
}

func (m *MockBackend) Run(_ context.Context, argv []string, sink sandbox.OutputSink) (sandbox.CommandStatus, error) {
	m.calls = append(m.calls, argv)
	sink.OnStdout(argv[len(argv)-1])
	code := 0
	return sandbox.CommandStatus{ExitCode: &code, Success: true}, nil
}

const document = `# Guide

## Install

<!-- runme:name install -->
` + "```bash" + `
echo installed
` + "```" + `

## Usage

` + "```python" + `
print("hi")
` + "```" + `
`

func testConfig(path string) *config.Config {
	return &config.Config{
		Document: config.DocumentConfig{Path: path},
		Server:   config.ServerConfig{Transport: "stdio", HTTPPort: 8080},
		Sandbox:  config.SandboxConfig{Backend: "local", Engine: "docker"},
		Logging:  config.LoggingConfig{Mode: "production", Level: "info"},
	}
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))
	return path
}

func newTestServer(t *testing.T, path string) (*MCPServer, *MockBackend, *[]string) {
	t.Helper()
	backend := &MockBackend{}
	var workdirs []string
	factory := func(workdir string) (sandbox.Backend, error) {
		workdirs = append(workdirs, workdir)
		return backend, nil
	}

	server, err := New(testConfig(path), zaptest.NewLogger(t), factory)
	require.NoError(t, err)
	return server, backend, &workdirs
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewMCPServer(t *testing.T) {
	server, _, _ := newTestServer(t, "README.md")

	assert.Equal(t, "README.md", server.config.Document.Path)
	assert.NotNil(t, server.logger)
	assert.NotNil(t, server.factory)
	assert.NotNil(t, server.GetMCPServer())
}

func TestHandleListBlocks(t *testing.T) {
	path := writeDocument(t)
	server, _, _ := newTestServer(t, "unused.md")

	result, err := server.handleListBlocks(context.Background(), callRequest("list_blocks", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var listing []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &listing))
	require.Len(t, listing, 2)

	assert.Equal(t, "block-001", listing[0]["id"])
	assert.Equal(t, "install", listing[0]["name"])
	assert.Equal(t, []any{"Guide", "Install"}, listing[0]["headings"])
	assert.Equal(t, "python", listing[1]["language"])
	assert.Nil(t, listing[1]["name"])
}

func TestHandleListBlocksDefaultsToConfiguredDocument(t *testing.T) {
	path := writeDocument(t)
	server, _, _ := newTestServer(t, path)

	result, err := server.handleListBlocks(context.Background(), callRequest("list_blocks", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "block-002")
}

func TestHandleListBlocksMissingDocument(t *testing.T) {
	server, _, _ := newTestServer(t, "README.md")

	missing := filepath.Join(t.TempDir(), "missing.md")
	result, err := server.handleListBlocks(context.Background(), callRequest("list_blocks", map[string]any{"path": missing}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "while reading "+missing)
}

func TestHandleRunBlocks(t *testing.T) {
	path := writeDocument(t)
	server, backend, workdirs := newTestServer(t, "README.md")

	result, err := server.handleRunBlocks(context.Background(), callRequest("run_blocks", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, "passed", reports[0]["status"])
	assert.Equal(t, "mock", reports[0]["sandbox"])
	assert.Equal(t, "$ echo installed\ninstalled\n", reports[0]["stdout"])
	assert.Equal(t, "skipped", reports[1]["status"])
	assert.Equal(t, "Language 'python' unsupported yet; add a plugin", reports[1]["skip_reason"])

	assert.Equal(t, [][]string{{"echo", "installed"}}, backend.calls)
	assert.Equal(t, []string{filepath.Dir(path)}, *workdirs)
}

func TestHandleRunBlocksSelectsByName(t *testing.T) {
	path := writeDocument(t)
	server, _, _ := newTestServer(t, "README.md")

	result, err := server.handleRunBlocks(context.Background(), callRequest("run_blocks", map[string]any{
		"path":  path,
		"block": "install",
	}))
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "block-001", reports[0]["id"])
}

func TestHandleRunBlocksUnknownBlock(t *testing.T) {
	path := writeDocument(t)
	server, backend, _ := newTestServer(t, "README.md")

	result, err := server.handleRunBlocks(context.Background(), callRequest("run_blocks", map[string]any{
		"path":  path,
		"block": "deploy",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown block id or name deploy")
	assert.Empty(t, backend.calls)
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	server, _, _ := newTestServer(t, "README.md")
	server.config.Server.Transport = "websocket"

	err := server.Serve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
	assert.NoError(t, server.Shutdown(context.Background()))
}

func newHTTPServer(t *testing.T) *MCPServer {
	t.Helper()
	cfg := testConfig("README.md")
	cfg.Server.Transport = "http"
	cfg.Server.HTTPPort = 0

	server, err := New(cfg, zaptest.NewLogger(t), func(string) (sandbox.Backend, error) {
		return &MockBackend{}, nil
	})
	require.NoError(t, err)
	return server
}

func TestShutdownBeforeServe(t *testing.T) {
	server := newHTTPServer(t)

	require.NoError(t, server.Shutdown(context.Background()))
	assert.NoError(t, server.Serve())
}

func TestShutdownStopsRunningHTTPServer(t *testing.T) {
	server := newHTTPServer(t)

	done := make(chan error, 1)
	go func() {
		done <- server.Serve()
	}()

	require.NoError(t, server.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("http transport kept running after shutdown")
	}
}
