package model

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Valid reports whether r is a recognized member role.
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

type Member struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Color       string    `json:"color"`
	AvatarEmoji string    `json:"avatar_emoji"`
	HasPIN      bool      `json:"has_pin"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
