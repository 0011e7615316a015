package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "Login", http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "Me", http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
