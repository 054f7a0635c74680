// ABOUTME: stdio transport: newline-delimited JSON-RPC on stdin/stdout.
// ABOUTME: stdout carries protocol messages only; all logging goes to stderr.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxLineSize caps a single stdio message (matches the HTTP body cap).
const maxLineSize = MaxRequestBodySize

// ServeStdio processes newline-delimited JSON-RPC messages from r and
// writes responses to w, one per line. It returns when r reaches EOF or
// ctx is cancelled. Notifications (no id) are accepted silently.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var writeMu sync.Mutex
	respond := func(resp JSONRPCResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		data, err := json.Marshal(resp)
		if err != nil {
			s.logger.Warn("failed to encode stdio response", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			s.logger.Warn("failed to write stdio response", "error", err)
		}
	}

	s.logger.Info("stdio transport ready")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			respond(jsonRPCError(nil, JSONRPCParseError, "invalid JSON", nil))
			continue
		}
		if req.JSONRPC != "2.0" {
			respond(jsonRPCError(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", nil))
			continue
		}

		// Notifications get no response on stdio.
		if len(req.ID) == 0 || string(req.ID) == "null" {
			s.logger.Debug("accepted MCP notification", "method", req.Method)
			continue
		}

		respond(s.dispatch(ctx, req))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	s.logger.Info("stdio transport closed")
	return nil
}
