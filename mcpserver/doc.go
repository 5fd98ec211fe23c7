// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the block extractor and the execution engine
// as MCP tools through the mark3labs/mcp-go library:
//
//   - list_blocks{path} returns the blocks of a document.
//   - run_blocks{path, block} runs every block, or only the one whose id or
//     name matches block, and returns the JSON reports.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, factory)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.Serve()
package mcpserver
