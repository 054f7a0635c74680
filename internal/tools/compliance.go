// ABOUTME: Compliance pack surfaces compliance scores, drill-downs, and progress figures.
// ABOUTME: Read-only: every tool passes VerifyWise aggregates through verbatim.

package tools

import (
	"context"
	"encoding/json"

	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
)

// CompliancePack creates the compliance pack.
func CompliancePack(api API) *packs.Pack {
	h := &complianceHandlers{api: api}
	return &packs.Pack{
		ID: "compliance",
		Tools: []*packs.Tool{
			{
				Definition: packs.Definition{
					Name:        "get_compliance_score",
					Description: "Get the compliance score for the organization, or a specific organization by ID",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"organization_id":{"type":"string","description":"Score a specific organization (admin only); omit for your own"}}}`),
					ReadOnly:    true,
				},
				Handler: h.Score,
			},
			{
				Definition: packs.Definition{
					Name:        "get_compliance_details",
					Description: "Get the detailed compliance breakdown for an organization (drill-down)",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"organization_id":{"type":"string"}},"required":["organization_id"]}`),
					ReadOnly:    true,
				},
				Handler: h.Details,
			},
			{
				Definition: packs.Definition{
					Name:        "list_frameworks",
					Description: "List the compliance frameworks available in VerifyWise (EU AI Act, ISO 42001, ISO 27001, ...)",
					InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
					ReadOnly:    true,
				},
				Handler: h.Frameworks,
			},
			{
				Definition: packs.Definition{
					Name:        "get_project_compliance_progress",
					Description: "Get compliance progress for one project, or across all projects",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string","description":"Omit to aggregate across all projects"}}}`),
					ReadOnly:    true,
				},
				Handler: h.ComplianceProgress,
			},
			{
				Definition: packs.Definition{
					Name:        "get_project_assessment_progress",
					Description: "Get assessment progress for one project, or across all projects",
					InputSchema: json.RawMessage(`{"type":"object","properties":{"project_id":{"type":"string","description":"Omit to aggregate across all projects"}}}`),
					ReadOnly:    true,
				},
				Handler: h.AssessmentProgress,
			},
		},
	}
}

type complianceHandlers struct {
	api API
}

type orgInput struct {
	OrganizationID string `json:"organization_id"`
}

func (h *complianceHandlers) Score(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in orgInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	path := "/api/compliance/score"
	if in.OrganizationID != "" {
		id, err := pathID("organization_id", in.OrganizationID)
		if err != nil {
			return nil, err
		}
		path += "/" + id
	}

	resp, err := h.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (h *complianceHandlers) Details(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in orgInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	id, err := pathID("organization_id", in.OrganizationID)
	if err != nil {
		return nil, err
	}

	resp, err := h.api.Get(ctx, "/api/compliance/details/"+id)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (h *complianceHandlers) Frameworks(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	resp, err := h.api.Get(ctx, "/api/frameworks")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type progressInput struct {
	ProjectID string `json:"project_id"`
}

func (h *complianceHandlers) ComplianceProgress(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return h.progress(ctx, input, "compliance")
}

func (h *complianceHandlers) AssessmentProgress(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return h.progress(ctx, input, "assessment")
}

func (h *complianceHandlers) progress(ctx context.Context, input json.RawMessage, kind string) (json.RawMessage, error) {
	var in progressInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	path := "/api/projects/all/" + kind + "/progress"
	if in.ProjectID != "" {
		id, err := pathID("project_id", in.ProjectID)
		if err != nil {
			return nil, err
		}
		path = "/api/projects/" + kind + "/progress/" + id
	}

	resp, err := h.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
