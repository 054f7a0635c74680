// ABOUTME: Risks pack manages the project risk register.
// ABOUTME: Covers list (optionally by project), get, create, update, delete.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verifywise-oss/verifywise-mcp/internal/models"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
)

// RisksPack creates the risks pack.
func RisksPack(api API) *packs.Pack {
	h := &riskHandlers{api: api}
	return &packs.Pack{
		ID: "risks",
		Tools: []*packs.Tool{
			{
				Definition: packs.Definition{
					Name:        "list_risks",
					Description: "List project risks, optionally filtered to one project",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string","description":"Return only risks for this project"}}}`),
					ReadOnly:    true,
				},
				Handler: h.List,
			},
			{
				Definition: packs.Definition{
					Name:        "get_risk",
					Description: "Get the details of a specific risk",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"risk_id":{"type":"string"}},"required":["risk_id"]}`),
					ReadOnly:    true,
				},
				Handler: h.Get,
			},
			{
				Definition: packs.Definition{
					Name:        "create_risk",
					Description: "Create a new risk record for a project",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string"},"title":{"type":"string"},"description":{"type":"string"},"severity":{"type":"string","enum":["low","medium","high","critical"]},"owner":{"type":"string"},"due_date":{"type":"string","description":"ISO 8601 date"}},"required":["project_id","title","description","severity"]}`),
				},
				Handler: h.Create,
			},
			{
				Definition: packs.Definition{
					Name:        "update_risk",
					Description: "Update an existing risk; only the fields passed are changed",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"risk_id":{"type":"string"},"title":{"type":"string"},"description":{"type":"string"},"severity":{"type":"string","enum":["low","medium","high","critical"]},"status":{"type":"string"},"owner":{"type":"string"},"due_date":{"type":"string"}},"required":["risk_id"]}`),
				},
				Handler: h.Update,
			},
			{
				Definition: packs.Definition{
					Name:        "delete_risk",
					Description: "Delete a risk record",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"risk_id":{"type":"string"}},"required":["risk_id"]}`),
				},
				Handler: h.Delete,
			},
		},
	}
}

type riskHandlers struct {
	api API
}

type listRisksInput struct {
	ProjectID string `json:"project_id"`
}

func (h *riskHandlers) List(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listRisksInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	path := "/api/projectRisks"
	if in.ProjectID != "" {
		id, err := pathID("project_id", in.ProjectID)
		if err != nil {
			return nil, err
		}
		path = "/api/projectRisks/by-projid/" + id
	}

	resp, err := h.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var risks []models.Risk
	if err := resp.Decode(&risks); err != nil {
		return nil, fmt.Errorf("decoding risk list: %w", err)
	}
	return json.Marshal(risks)
}

type getRiskInput struct {
	RiskID string `json:"risk_id"`
}

func (h *riskHandlers) Get(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getRiskInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("risk_id", in.RiskID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Get(ctx, "/api/projectRisks/"+id)
	if err != nil {
		return nil, err
	}

	var risk models.Risk
	if err := resp.Decode(&risk); err != nil {
		return nil, fmt.Errorf("decoding risk: %w", err)
	}
	return resp.Body, nil
}

type createRiskInput struct {
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Owner       *string `json:"owner"`
	DueDate     *string `json:"due_date"`
}

func (h *riskHandlers) Create(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in createRiskInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if !hasContent(in.Title) {
		return nil, invalidf("title must not be empty")
	}
	if !hasContent(in.ProjectID) {
		return nil, invalidf("project_id must not be empty")
	}
	severity := models.RiskLevel(strings.ToLower(in.Severity))
	if !severity.Valid() {
		return nil, invalidf("severity must be one of: %s; got %q", severityList(), in.Severity)
	}

	payload := map[string]any{
		"projectId":       in.ProjectID,
		"riskName":        in.Title,
		"riskDescription": in.Description,
		"severity":        string(severity),
	}
	if in.Owner != nil {
		payload["owner"] = *in.Owner
	}
	if in.DueDate != nil {
		payload["dueDate"] = *in.DueDate
	}

	resp, err := h.api.Post(ctx, "/api/projectRisks", payload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type updateRiskInput struct {
	RiskID      string  `json:"risk_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Severity    *string `json:"severity"`
	Status      *string `json:"status"`
	Owner       *string `json:"owner"`
	DueDate     *string `json:"due_date"`
}

func (h *riskHandlers) Update(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in updateRiskInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("risk_id", in.RiskID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if in.Title != nil {
		payload["riskName"] = *in.Title
	}
	if in.Description != nil {
		payload["riskDescription"] = *in.Description
	}
	if in.Severity != nil {
		severity := models.RiskLevel(strings.ToLower(*in.Severity))
		if !severity.Valid() {
			return nil, invalidf("severity must be one of: %s; got %q", severityList(), *in.Severity)
		}
		payload["severity"] = string(severity)
	}
	if in.Status != nil {
		payload["status"] = *in.Status
	}
	if in.Owner != nil {
		payload["owner"] = *in.Owner
	}
	if in.DueDate != nil {
		payload["dueDate"] = *in.DueDate
	}
	if len(payload) == 0 {
		return nil, invalidf("at least one field to update is required")
	}

	resp, err := h.api.Put(ctx, "/api/projectRisks/"+id, payload, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type deleteRiskInput struct {
	RiskID string `json:"risk_id"`
}

func (h *riskHandlers) Delete(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in deleteRiskInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("risk_id", in.RiskID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Delete(ctx, "/api/projectRisks/"+id, true)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return json.Marshal(map[string]bool{"deleted": true})
	}
	return resp.Body, nil
}

// severityList renders the valid severities for error messages.
func severityList() string {
	levels := models.RiskLevels()
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
