package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// ListUsers returns all accounts. Admin only; enforced by the backend.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, "ListUsers", http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserRole changes a user's role.
func (c *Client) SetUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	var user models.User
	body := map[string]string{"userId": userID, "role": string(role)}
	if err := c.do(ctx, "SetUserRole", http.MethodPatch, "/api/admin/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, "DeleteUser", http.MethodDelete, "/api/admin/users/"+pathID(userID), nil, nil)
}
