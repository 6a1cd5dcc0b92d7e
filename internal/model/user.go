// Package model defines the entities exchanged with the booking API.
//
// The client only caches and displays these values; every lifecycle rule is
// owned by the server.
package model

import "time"

// Role is the authorization role attached to a user account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the profile of an authenticated account.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session pairs the bearer token with the user it was issued to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthResponse is the payload returned by login and register.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Session converts the response into the session persisted by the client.
func (a AuthResponse) Session() Session {
	return Session{Token: a.Token, User: a.User}
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
