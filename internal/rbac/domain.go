// Package rbac administers the permission catalog, roles, and role
// membership. It is the write side of what the authz engine reads.
package rbac

import "time"

// Permission is a named capability, e.g. "books.create".
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Role groups permissions for assignment to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleDetail is a role with its attached permission names.
type RoleDetail struct {
	Role
	Permissions []string `json:"permissions"`
}
