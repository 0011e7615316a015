package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// BuildFramework runs the long build-framework job and returns its result once
// the backend finishes. Progress is observed separately via FrameworkLogs.
func (c *Client) BuildFramework(ctx context.Context, projectID string) (*models.Framework, error) {
	var fw models.Framework
	path := "/api/projects/" + pathID(projectID) + "/build-framework"
	if err := c.do(ctx, "BuildFramework", http.MethodPost, path, nil, &fw); err != nil {
		return nil, err
	}
	return &fw, nil
}

// FrameworkLogs returns the full log list of the project's framework job.
func (c *Client) FrameworkLogs(ctx context.Context, projectID string) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	path := "/api/projects/" + pathID(projectID) + "/framework-logs"
	if err := c.do(ctx, "FrameworkLogs", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
