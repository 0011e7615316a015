package models

import "time"

// Role is a user's access level. Authorization is enforced by the backend.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCopywriter Role = "copywriter"
	RoleViewer     Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCopywriter, RoleViewer:
		return true
	}
	return false
}

// User is an account on the backend.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Bullet is a knowledge-base snippet reused across copywriting documents.
type Bullet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Section   string    `json:"section"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BulletInput is the payload for creating or editing a bullet.
type BulletInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Section string   `json:"section"`
	Tags    []string `json:"tags,omitempty"`
}
