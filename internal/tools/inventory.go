// ABOUTME: Inventory pack manages the AI model inventory.
// ABOUTME: Covers list, get, create, update, and delete of model records.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verifywise-oss/verifywise-mcp/internal/models"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
)

// InventoryPack creates the AI model inventory pack.
func InventoryPack(api API) *packs.Pack {
	h := &inventoryHandlers{api: api}
	return &packs.Pack{
		ID: "inventory",
		Tools: []*packs.Tool{
			{
				Definition: packs.Definition{
					Name:        "list_models",
					Description: "List AI/ML models in the model inventory",
					InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
					ReadOnly:    true,
				},
				Handler: h.List,
			},
			{
				Definition: packs.Definition{
					Name:        "get_model",
					Description: "Get the details of a model inventory record",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"model_id":{"type":"string"}},"required":["model_id"]}`),
					ReadOnly:    true,
				},
				Handler: h.Get,
			},
			{
				Definition: packs.Definition{
					Name:        "create_model",
					Description: "Add an AI/ML model to the inventory",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"provider":{"type":"string","description":"Model provider (e.g. OpenAI)"},"type":{"type":"string","description":"Model type (e.g. llm, cv, nlp)"},"version":{"type":"string"}},"required":["name"]}`),
				},
				Handler: h.Create,
			},
			{
				Definition: packs.Definition{
					Name:        "update_model",
					Description: "Update a model inventory record; only the fields passed are changed",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"model_id":{"type":"string"},"name":{"type":"string"},"provider":{"type":"string"},"type":{"type":"string"},"version":{"type":"string"}},"required":["model_id"]}`),
				},
				Handler: h.Update,
			},
			{
				Definition: packs.Definition{
					Name:        "delete_model",
					Description: "Remove a model record from the inventory",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"model_id":{"type":"string"}},"required":["model_id"]}`),
				},
				Handler: h.Delete,
			},
		},
	}
}

type inventoryHandlers struct {
	api API
}

func (h *inventoryHandlers) List(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	resp, err := h.api.Get(ctx, "/api/modelInventory")
	if err != nil {
		return nil, err
	}

	var records []models.AIModel
	if err := resp.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding model inventory: %w", err)
	}
	return json.Marshal(records)
}

type getModelInput struct {
	ModelID string `json:"model_id"`
}

func (h *inventoryHandlers) Get(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getModelInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("model_id", in.ModelID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Get(ctx, "/api/modelInventory/"+id)
	if err != nil {
		return nil, err
	}

	var record models.AIModel
	if err := resp.Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding model record: %w", err)
	}
	return resp.Body, nil
}

type createModelInput struct {
	Name     string  `json:"name"`
	Provider *string `json:"provider"`
	Type     *string `json:"type"`
	Version  *string `json:"version"`
}

func (h *inventoryHandlers) Create(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in createModelInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if !hasContent(in.Name) {
		return nil, invalidf("name must not be empty")
	}

	payload := map[string]any{"name": in.Name}
	if in.Provider != nil {
		payload["provider"] = *in.Provider
	}
	if in.Type != nil {
		payload["type"] = *in.Type
	}
	if in.Version != nil {
		payload["version"] = *in.Version
	}

	resp, err := h.api.Post(ctx, "/api/modelInventory", payload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type updateModelInput struct {
	ModelID  string  `json:"model_id"`
	Name     *string `json:"name"`
	Provider *string `json:"provider"`
	Type     *string `json:"type"`
	Version  *string `json:"version"`
}

func (h *inventoryHandlers) Update(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in updateModelInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("model_id", in.ModelID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if in.Name != nil {
		payload["name"] = *in.Name
	}
	if in.Provider != nil {
		payload["provider"] = *in.Provider
	}
	if in.Type != nil {
		payload["type"] = *in.Type
	}
	if in.Version != nil {
		payload["version"] = *in.Version
	}
	if len(payload) == 0 {
		return nil, invalidf("at least one field to update is required")
	}

	resp, err := h.api.Put(ctx, "/api/modelInventory/"+id, payload, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type deleteModelInput struct {
	ModelID string `json:"model_id"`
}

func (h *inventoryHandlers) Delete(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in deleteModelInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("model_id", in.ModelID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Delete(ctx, "/api/modelInventory/"+id, true)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return json.Marshal(map[string]bool{"deleted": true})
	}
	return resp.Body, nil
}
