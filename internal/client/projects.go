package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// ListProjects returns every project visible to the current user.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, "ListProjects", http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns a project with its material packages and history.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, "GetProject", http.MethodGet, "/api/projects/"+pathID(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, "CreateProject", http.MethodPost, "/api/projects", input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject edits an existing project.
func (c *Client) UpdateProject(ctx context.Context, id string, input models.ProjectInput) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, "UpdateProject", http.MethodPut, "/api/projects/"+pathID(id), input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteProject", http.MethodDelete, "/api/projects/"+pathID(id), nil, nil)
}
