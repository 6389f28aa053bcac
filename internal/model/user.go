package model

import (
	"fmt"
	"strings"
	"time"
)

// User represents an account with a role that partitions the application
// into the admin and auditor surfaces.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleAuditor = "auditor"
)

// ValidRole reports whether role is one of the defined roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAuditor
}

// DisplayName returns the user's full name, falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// ValidateEmail performs a minimal sanity check on an email address.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
