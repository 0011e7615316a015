package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// WorkflowStatus returns the server-reported state of every workflow stage.
func (c *Client) WorkflowStatus(ctx context.Context, projectID string) (*models.WorkflowStatus, error) {
	var status models.WorkflowStatus
	path := "/api/projects/" + pathID(projectID) + "/workflow/status"
	if err := c.do(ctx, "WorkflowStatus", http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TriggerStage posts to a stage's action endpoint.
func (c *Client) TriggerStage(ctx context.Context, projectID, action string) error {
	path := "/api/projects/" + pathID(projectID) + "/workflow/" + pathID(action)
	return c.do(ctx, "TriggerStage", http.MethodPost, path, nil, nil)
}

// ListDocuments returns the generated documents of a project.
func (c *Client) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	var docs []models.Document
	path := "/api/projects/" + pathID(projectID) + "/documents"
	if err := c.do(ctx, "ListDocuments", http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListRawMaterials returns the free-text materials of a project.
func (c *Client) ListRawMaterials(ctx context.Context, projectID string) ([]models.RawMaterial, error) {
	var raws []models.RawMaterial
	path := "/api/projects/" + pathID(projectID) + "/raw-materials"
	if err := c.do(ctx, "ListRawMaterials", http.MethodGet, path, nil, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}
