// Package models defines the data structures exchanged with the visa copywriting backend.
package models

import "time"

// ProjectStatus is one of the named workflow stages a project moves through.
type ProjectStatus string

const (
	ProjectCreated           ProjectStatus = "created"
	ProjectCollecting        ProjectStatus = "collecting"
	ProjectAnalyzing         ProjectStatus = "analyzing"
	ProjectFrameworkBuilding ProjectStatus = "framework_building"
	ProjectGenerating        ProjectStatus = "generating"
	ProjectOptimizing        ProjectStatus = "optimizing"
	ProjectReviewing         ProjectStatus = "reviewing"
	ProjectCompleted         ProjectStatus = "completed"
)

// ProjectStatuses lists every project status in workflow order.
var ProjectStatuses = []ProjectStatus{
	ProjectCreated,
	ProjectCollecting,
	ProjectAnalyzing,
	ProjectFrameworkBuilding,
	ProjectGenerating,
	ProjectOptimizing,
	ProjectReviewing,
	ProjectCompleted,
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PackageProgress tracks collection progress for one material package.
type PackageProgress struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Collected int    `json:"collected"`
}

// HistoryEntry is one append-only record of a workflow action.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Project is a client's visa application case.
type Project struct {
	ID               string                     `json:"id"`
	ClientName       string                     `json:"client_name"`
	VisaType         string                     `json:"visa_type"`
	Status           ProjectStatus              `json:"status"`
	Notes            string                     `json:"notes,omitempty"`
	MaterialPackages map[string]PackageProgress `json:"material_packages,omitempty"`
	WorkflowHistory  []HistoryEntry             `json:"workflow_history,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// ProjectInput is the payload for creating or editing a project.
type ProjectInput struct {
	ClientName string `json:"client_name"`
	VisaType   string `json:"visa_type"`
	Notes      string `json:"notes,omitempty"`
}

// Document is a generated copywriting document attached to a project.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawMaterial is a free-text material entry (interview notes, pasted text).
type RawMaterial struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
