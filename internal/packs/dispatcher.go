// ABOUTME: Dispatches tool calls to registered handlers with correlation and timeouts.
// ABOUTME: Converts internal error taxonomy into agent-safe result messages.

package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// DefaultCallTimeout bounds a single tool execution.
const DefaultCallTimeout = 60 * time.Second

// CallResult is the outcome of a dispatched tool call. Exactly one of
// Output and Err is set. Err carries an agent-safe message: category
// prefix plus detail, never credentials or internal state.
type CallResult struct {
	RequestID string
	Output    json.RawMessage
	Err       string
}

// IsError reports whether the call failed.
func (r CallResult) IsError() bool {
	return r.Err != ""
}

// Dispatcher executes tool calls against a Registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
}

// DispatcherConfig contains construction options for a Dispatcher.
type DispatcherConfig struct {
	Registry *Registry
	Logger   *slog.Logger
	Timeout  time.Duration
}

// NewDispatcher creates a Dispatcher with the given configuration.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: cfg.Registry,
		logger:   logger,
		timeout:  timeout,
	}
}

// Call looks up and executes a tool. An unknown tool name returns an error
// (a protocol-level failure); handler failures come back inside the
// CallResult so the agent can read them. requestID correlates log lines;
// when empty a fresh ID is generated.
func (d *Dispatcher) Call(ctx context.Context, toolName string, input json.RawMessage, requestID string) (CallResult, error) {
	if requestID == "" {
		requestID = uuid.New().String()
	}

	tool, packID, err := d.registry.Lookup(toolName)
	if err != nil {
		d.logger.Debug("tool not found",
			"tool_name", toolName,
			"request_id", requestID,
		)
		return CallResult{RequestID: requestID}, err
	}

	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Info("dispatching tool call",
		"tool_name", toolName,
		"pack_id", packID,
		"request_id", requestID,
	)
	start := time.Now()

	output, err := tool.Handler(ctx, input)
	if err != nil {
		d.logger.Warn("tool call failed",
			"tool_name", toolName,
			"pack_id", packID,
			"request_id", requestID,
			"category", vwerr.CategoryOf(err),
			"duration", time.Since(start),
			"error", err,
		)
		return CallResult{RequestID: requestID, Err: agentMessage(err)}, nil
	}

	d.logger.Info("tool call completed",
		"tool_name", toolName,
		"pack_id", packID,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return CallResult{RequestID: requestID, Output: output}, nil
}

// agentMessage renders a handler error for the agent. The taxonomy
// category leads so agents can branch on it; messages never include
// credential material.
func agentMessage(err error) string {
	category := vwerr.CategoryOf(err)
	switch category {
	case vwerr.CategoryAuth:
		return "authentication failed: the server could not authenticate with VerifyWise; check the configured credentials"
	case vwerr.CategoryNotFound:
		return fmt.Sprintf("not found: %v", err)
	case vwerr.CategoryInvalidInput:
		return fmt.Sprintf("invalid input: %v", err)
	case vwerr.CategoryTimeout:
		return fmt.Sprintf("timeout: %v", err)
	case vwerr.CategoryUnavailable:
		return "unavailable: the VerifyWise API could not be reached"
	default:
		return fmt.Sprintf("remote error: %v", err)
	}
}
