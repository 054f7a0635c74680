// Package tools provides the builtin tool packs exposed over MCP.
//
// # Tool Packs
//
// The package provides 5 packs with 25 tools:
//
// Projects (projects):
//
//   - list_projects, get_project, create_project, update_project, delete_project
//
// Risks (risks):
//
//   - list_risks, get_risk, create_risk, update_risk, delete_risk
//
// Vendors (vendors):
//
//   - list_vendors, get_vendor, create_vendor, update_vendor, delete_vendor
//
// Model inventory (inventory):
//
//   - list_models, get_model, create_model, update_model, delete_model
//
// Compliance (compliance, all read-only):
//
//   - get_compliance_score, get_compliance_details, list_frameworks,
//     get_project_compliance_progress, get_project_assessment_progress
//
// # Registration
//
// Register all packs on a registry:
//
//	tools.RegisterAll(registry, apiClient)
//
// # Handler Behavior
//
// Every handler validates its arguments before any network call: limits
// are range-checked, names must be non-empty, severities must be one of
// the recognized levels, and identifiers are escaped before being placed
// in a URL path. Read handlers decode responses into the internal/models
// types to catch shape drift; detail views return the remote payload
// verbatim so no fields are lost.
package tools
