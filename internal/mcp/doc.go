// Package mcp implements the Model Context Protocol server exposing the
// VerifyWise tool packs.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package provides an MCP server that exposes the VerifyWise tools to AI
// clients (like Claude Desktop, Claude Code, or custom applications).
//
// # Transports
//
// Two transports share the same JSON-RPC 2.0 message handling:
//
//   - Streamable HTTP (spec 2025-11-25): a single /mcp endpoint; POST
//     carries messages, DELETE terminates a session. Sessions are tracked
//     in-memory via the Mcp-Session-Id header.
//   - stdio: newline-delimited JSON-RPC on stdin/stdout. stdout is
//     reserved for protocol messages; logging goes to stderr.
//
// # Methods
//
// The server handles initialize, ping, tools/list, and tools/call.
//
// Clients call tools/list to discover available tools:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/list",
//	  "id": 1
//	}
//
// and tools/call to execute one:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "list_projects",
//	    "arguments": {"limit": 10}
//	  },
//	  "id": 2
//	}
//
// Tool handler failures come back as results with isError set, carrying a
// category-prefixed message; the transport itself stays healthy. Only
// protocol-level problems (unknown tool, malformed params) become JSON-RPC
// errors.
//
// # Usage
//
// Create the server and serve over HTTP:
//
//	server, _ := mcp.NewServer(mcp.Config{Registry: registry, Dispatcher: dispatcher})
//	mux := http.NewServeMux()
//	server.RegisterRoutes(mux)
//
// or over stdio:
//
//	server.ServeStdio(ctx, os.Stdin, os.Stdout)
//
// # Integration with Claude Desktop
//
// Add to Claude Desktop's MCP configuration:
//
//	{
//	  "mcpServers": {
//	    "verifywise": {
//	      "url": "http://localhost:8080/mcp"
//	    }
//	  }
//	}
package mcp
