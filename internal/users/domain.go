package users

import "time"

// User is the directory view of an account. Password hashes never leave
// the auth module.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserDetail is a user with the names of the roles assigned to them.
type UserDetail struct {
	User
	Roles []string `json:"roles"`
}
