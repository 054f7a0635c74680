// ABOUTME: Projects pack manages AI governance projects (Use Cases).
// ABOUTME: Covers list, get, create, update (partial), and delete.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verifywise-oss/verifywise-mcp/internal/models"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
)

const (
	defaultProjectLimit = 20
	maxProjectLimit     = 100
)

// ProjectsPack creates the projects pack.
func ProjectsPack(api API) *packs.Pack {
	h := &projectHandlers{api: api}
	return &packs.Pack{
		ID: "projects",
		Tools: []*packs.Tool{
			{
				Definition: packs.Definition{
					Name:        "list_projects",
					Description: "List AI governance projects (Use Cases) in VerifyWise",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Maximum number of projects to return (1-100, default 20)"}}}`),
					ReadOnly:    true,
				},
				Handler: h.List,
			},
			{
				Definition: packs.Definition{
					Name:        "get_project",
					Description: "Get the details of a specific AI governance project",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string"}},"required":["project_id"]}`),
					ReadOnly:    true,
				},
				Handler: h.Get,
			},
			{
				Definition: packs.Definition{
					Name:        "create_project",
					Description: "Create a new AI governance project (Use Case)",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"ai_risk_classification":{"type":"string","description":"Risk classification (e.g. high, limited, minimal)"},"type_of_high_risk_role":{"type":"string"},"goal":{"type":"string"},"last_updated_by":{"type":"string"}},"required":["name","ai_risk_classification"]}`),
				},
				Handler: h.Create,
			},
			{
				Definition: packs.Definition{
					Name:        "update_project",
					Description: "Update an existing project; only the fields passed are changed",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string"},"name":{"type":"string"},"ai_risk_classification":{"type":"string"},"type_of_high_risk_role":{"type":"string"},"goal":{"type":"string"},"last_updated_by":{"type":"string"}},"required":["project_id"]}`),
				},
				Handler: h.Update,
			},
			{
				Definition: packs.Definition{
					Name:        "delete_project",
					Description: "Delete an AI governance project from VerifyWise",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string"}},"required":["project_id"]}`),
				},
				Handler: h.Delete,
			},
		},
	}
}

type projectHandlers struct {
	api API
}

type listProjectsInput struct {
	Limit int `json:"limit"`
}

func (h *projectHandlers) List(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	in := listProjectsInput{Limit: defaultProjectLimit}
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Limit < 1 || in.Limit > maxProjectLimit {
		return nil, invalidf("limit must be between 1 and %d", maxProjectLimit)
	}

	resp, err := h.api.Get(ctx, "/api/projects")
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := resp.Decode(&projects); err != nil {
		return nil, fmt.Errorf("decoding project list: %w", err)
	}
	if len(projects) > in.Limit {
		projects = projects[:in.Limit]
	}
	return json.Marshal(projects)
}

type getProjectInput struct {
	ProjectID string `json:"project_id"`
}

func (h *projectHandlers) Get(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getProjectInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("project_id", in.ProjectID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Get(ctx, "/api/projects/"+id)
	if err != nil {
		return nil, err
	}

	// Shape-check the payload but return it verbatim so no fields are lost.
	var project models.Project
	if err := resp.Decode(&project); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	return resp.Body, nil
}

type createProjectInput struct {
	Name                 string  `json:"name"`
	AIRiskClassification string  `json:"ai_risk_classification"`
	TypeOfHighRiskRole   *string `json:"type_of_high_risk_role"`
	Goal                 *string `json:"goal"`
	LastUpdatedBy        *string `json:"last_updated_by"`
}

func (h *projectHandlers) Create(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in createProjectInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if !hasContent(in.Name) {
		return nil, invalidf("name must not be empty")
	}
	if in.AIRiskClassification == "" {
		return nil, invalidf("ai_risk_classification must not be empty")
	}

	payload := map[string]any{
		"projectName":          in.Name,
		"aiRiskClassification": in.AIRiskClassification,
	}
	if in.TypeOfHighRiskRole != nil {
		payload["typeOfHighRiskRole"] = *in.TypeOfHighRiskRole
	}
	if in.Goal != nil {
		payload["goal"] = *in.Goal
	}
	if in.LastUpdatedBy != nil {
		payload["lastUpdatedBy"] = *in.LastUpdatedBy
	}

	resp, err := h.api.Post(ctx, "/api/projects", payload)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type updateProjectInput struct {
	ProjectID            string  `json:"project_id"`
	Name                 *string `json:"name"`
	AIRiskClassification *string `json:"ai_risk_classification"`
	TypeOfHighRiskRole   *string `json:"type_of_high_risk_role"`
	Goal                 *string `json:"goal"`
	LastUpdatedBy        *string `json:"last_updated_by"`
}

func (h *projectHandlers) Update(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in updateProjectInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("project_id", in.ProjectID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if in.Name != nil {
		payload["projectName"] = *in.Name
	}
	if in.AIRiskClassification != nil {
		payload["aiRiskClassification"] = *in.AIRiskClassification
	}
	if in.TypeOfHighRiskRole != nil {
		payload["typeOfHighRiskRole"] = *in.TypeOfHighRiskRole
	}
	if in.Goal != nil {
		payload["goal"] = *in.Goal
	}
	if in.LastUpdatedBy != nil {
		payload["lastUpdatedBy"] = *in.LastUpdatedBy
	}
	if len(payload) == 0 {
		return nil, invalidf("at least one field to update is required")
	}

	// Full-record PUT semantics upstream, but repeating it is safe.
	resp, err := h.api.Put(ctx, "/api/projects/"+id, payload, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type deleteProjectInput struct {
	ProjectID string `json:"project_id"`
}

func (h *projectHandlers) Delete(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in deleteProjectInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("project_id", in.ProjectID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Delete(ctx, "/api/projects/"+id, true)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return json.Marshal(map[string]bool{"deleted": true})
	}
	return resp.Body, nil
}
