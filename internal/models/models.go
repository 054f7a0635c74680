// ABOUTME: Typed VerifyWise API entities with JSON tags matching the wire format.
// ABOUTME: Used by tool handlers to typecheck responses and document the API shape.

package models

import "time"

// RiskLevel is the severity scale shared by projects, risks, and vendors.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Valid reports whether the level is one of the recognized values.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// RiskLevels lists the valid severity values in ascending order, for use in
// validation messages and tool schemas.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// ProjectStatus is the lifecycle status of a governance project.
type ProjectStatus string

const (
	ProjectDraft       ProjectStatus = "draft"
	ProjectActive      ProjectStatus = "active"
	ProjectUnderReview ProjectStatus = "under_review"
	ProjectArchived    ProjectStatus = "archived"
)

// Valid reports whether the status is one of the recognized values.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectActive, ProjectUnderReview, ProjectArchived:
		return true
	}
	return false
}

// Project is an AI governance project (a "Use Case" in VerifyWise terms):
// an AI application governed under one or more compliance frameworks.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	RiskLevel   RiskLevel     `json:"risk_level,omitempty"`
	Framework   string        `json:"framework,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Risk is a risk register entry attached to a project.
type Risk struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    RiskLevel  `json:"severity"`
	Status      string     `json:"status"`
	Owner       string     `json:"owner,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Vendor is a third-party vendor in the vendor risk register.
type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	RiskScore *int      `json:"risk_score,omitempty"`
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComplianceControl is one requirement within a governance framework such
// as the EU AI Act, ISO 42001, or NIST AI RMF.
type ComplianceControl struct {
	ID            string     `json:"id"`
	Framework     string     `json:"framework"`
	Subclause     string     `json:"subclause"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	EvidenceCount int        `json:"evidence_count"`
	LastReviewed  *time.Time `json:"last_reviewed,omitempty"`
}

// AIModel is an entry in the AI model inventory.
type AIModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider,omitempty"`
	Type      string    `json:"type,omitempty"`
	Version   string    `json:"version,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
