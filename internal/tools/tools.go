// ABOUTME: Shared plumbing for the builtin tool packs.
// ABOUTME: Defines the access-layer interface handlers depend on and argument helpers.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/verifywise-oss/verifywise-mcp/internal/client"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// API is the slice of the access layer the tool handlers depend on.
// *client.Client satisfies it.
type API interface {
	Get(ctx context.Context, path string) (*client.Response, error)
	Post(ctx context.Context, path string, body any) (*client.Response, error)
	Put(ctx context.Context, path string, body any, idempotent bool) (*client.Response, error)
	Patch(ctx context.Context, path string, body any, idempotent bool) (*client.Response, error)
	Delete(ctx context.Context, path string, idempotent bool) (*client.Response, error)
}

// RegisterAll registers every builtin pack on the registry.
func RegisterAll(registry *packs.Registry, api API) error {
	for _, pack := range []*packs.Pack{
		ProjectsPack(api),
		RisksPack(api),
		VendorsPack(api),
		InventoryPack(api),
		CompliancePack(api),
	} {
		if err := registry.RegisterPack(pack); err != nil {
			return fmt.Errorf("registering pack %q: %w", pack.ID, err)
		}
	}
	return nil
}

// invalidf builds an argument rejection. It carries the invalid-input
// category so the dispatcher renders it as the agent's mistake, not a
// platform failure.
func invalidf(format string, args ...any) error {
	return &vwerr.ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// decodeInput unmarshals tool arguments, turning malformed JSON into an
// argument rejection.
func decodeInput(input json.RawMessage, v any) error {
	if err := json.Unmarshal(input, v); err != nil {
		return invalidf("malformed arguments: %v", err)
	}
	return nil
}

// hasContent reports whether s contains non-whitespace characters.
func hasContent(s string) bool {
	return strings.TrimSpace(s) != ""
}

// pathID validates and escapes an identifier destined for a URL path
// segment. Empty identifiers are rejected before any network call.
func pathID(field, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", invalidf("%s must not be empty", field)
	}
	return url.PathEscape(id), nil
}
