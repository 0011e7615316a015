package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// ListBullets returns the knowledge base.
func (c *Client) ListBullets(ctx context.Context) ([]models.Bullet, error) {
	var bullets []models.Bullet
	if err := c.do(ctx, "ListBullets", http.MethodGet, "/api/bullets", nil, &bullets); err != nil {
		return nil, err
	}
	return bullets, nil
}

// CreateBullet adds a knowledge-base entry.
func (c *Client) CreateBullet(ctx context.Context, input models.BulletInput) (*models.Bullet, error) {
	var bullet models.Bullet
	if err := c.do(ctx, "CreateBullet", http.MethodPost, "/api/bullets", input, &bullet); err != nil {
		return nil, err
	}
	return &bullet, nil
}

// UpdateBullet edits a knowledge-base entry.
func (c *Client) UpdateBullet(ctx context.Context, id string, input models.BulletInput) (*models.Bullet, error) {
	var bullet models.Bullet
	if err := c.do(ctx, "UpdateBullet", http.MethodPut, "/api/bullets/"+pathID(id), input, &bullet); err != nil {
		return nil, err
	}
	return &bullet, nil
}

// DeleteBullet removes a knowledge-base entry.
func (c *Client) DeleteBullet(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteBullet", http.MethodDelete, "/api/bullets/"+pathID(id), nil, nil)
}

// ResetBullets restores the knowledge base to the backend's seed content.
func (c *Client) ResetBullets(ctx context.Context) error {
	return c.do(ctx, "ResetBullets", http.MethodPost, "/api/bullets/reset", nil, nil)
}
