// ABOUTME: Vendors pack manages the third-party vendor risk register.
// ABOUTME: Covers list (optionally by project), get, create, update (PATCH), delete.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verifywise-oss/verifywise-mcp/internal/models"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
)

// VendorsPack creates the vendors pack.
func VendorsPack(api API) *packs.Pack {
	h := &vendorHandlers{api: api}
	return &packs.Pack{
		ID: "vendors",
		Tools: []*packs.Tool{
			{
				Definition: packs.Definition{
					Name:        "list_vendors",
					Description: "List vendors in the vendor risk register, optionally filtered to one project",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string"}}}`),
					ReadOnly:    true,
				},
				Handler: h.List,
			},
			{
				Definition: packs.Definition{
					Name:        "get_vendor",
					Description: "Get the details of a specific vendor",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"vendor_id":{"type":"string"}},"required":["vendor_id"]}`),
					ReadOnly:    true,
				},
				Handler: h.Get,
			},
			{
				Definition: packs.Definition{
					Name:        "create_vendor",
					Description: "Add a vendor to the vendor risk register",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"type":{"type":"string","description":"Vendor category (e.g. ai-provider)"},"project_id":{"type":"string"}},"required":["name"]}`),
				},
				Handler: h.Create,
			},
			{
				Definition: packs.Definition{
					Name:        "update_vendor",
					Description: "Update a vendor; only the fields passed are changed",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"vendor_id":{"type":"string"},"name":{"type":"string"},"type":{"type":"string"}},"required":["vendor_id"]}`),
				},
				Handler: h.Update,
			},
			{
				Definition: packs.Definition{
					Name:        "delete_vendor",
					Description: "Remove a vendor from the vendor risk register",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"vendor_id":{"type":"string"}},"required":["vendor_id"]}`),
				},
				Handler: h.Delete,
			},
		},
	}
}

type vendorHandlers struct {
	api API
}

type listVendorsInput struct {
	ProjectID string `json:"project_id"`
}

func (h *vendorHandlers) List(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listVendorsInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	path := "/api/vendors"
	if in.ProjectID != "" {
		id, err := pathID("project_id", in.ProjectID)
		if err != nil {
			return nil, err
		}
		path = "/api/vendors/project-id/" + id
	}

	resp, err := h.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var vendors []models.Vendor
	if err := resp.Decode(&vendors); err != nil {
		return nil, fmt.Errorf("decoding vendor list: %w", err)
	}
	return json.Marshal(vendors)
}

type getVendorInput struct {
	VendorID string `json:"vendor_id"`
}

func (h *vendorHandlers) Get(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getVendorInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("vendor_id", in.VendorID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Get(ctx, "/api/vendors/"+id)
	if err != nil {
		return nil, err
	}

	var vendor models.Vendor
	if err := resp.Decode(&vendor); err != nil {
		return nil, fmt.Errorf("decoding vendor: %w", err)
	}
	return resp.Body, nil
}

type createVendorInput struct {
	Name      string  `json:"name"`
	Type      *string `json:"type"`
	ProjectID *string `json:"project_id"`
}

func (h *vendorHandlers) Create(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in createVendorInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if !hasContent(in.Name) {
		return nil, invalidf("name must not be empty")
	}

	payload := map[string]any{"vendorName": in.Name}
	if in.Type != nil {
		payload["vendorType"] = *in.Type
	}
	if in.ProjectID != nil {
		payload["projectId"] = *in.ProjectID
	}

	resp, err := h.api.Post(ctx, "/api/vendors", payload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type updateVendorInput struct {
	VendorID string  `json:"vendor_id"`
	Name     *string `json:"name"`
	Type     *string `json:"type"`
}

func (h *vendorHandlers) Update(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in updateVendorInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("vendor_id", in.VendorID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if in.Name != nil {
		payload["vendorName"] = *in.Name
	}
	if in.Type != nil {
		payload["vendorType"] = *in.Type
	}
	if len(payload) == 0 {
		return nil, invalidf("at least one field to update is required")
	}

	// The vendor endpoint is the one place VerifyWise updates via PATCH.
	resp, err := h.api.Patch(ctx, "/api/vendors/"+id, payload, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type deleteVendorInput struct {
	VendorID string `json:"vendor_id"`
}

func (h *vendorHandlers) Delete(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in deleteVendorInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("vendor_id", in.VendorID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Delete(ctx, "/api/vendors/"+id, true)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return json.Marshal(map[string]bool{"deleted": true})
	}
	return resp.Body, nil
}
