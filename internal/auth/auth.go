// Package auth checks portal logins against the configured credentials.
// It is a gate for the dashboard, not a security system: there are no
// sessions or tokens.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// DefaultCost is the bcrypt cost used by HashPassword.
const DefaultCost = 12

// HashPassword returns a bcrypt hash suitable for a credential entry.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator verifies email and password pairs.
type Authenticator struct {
	users map[string]types.Credential
}

// New indexes the credentials by lower-cased email. Later duplicates win.
func New(creds []types.Credential) *Authenticator {
	users := make(map[string]types.Credential, len(creds))
	for _, c := range creds {
		users[strings.ToLower(strings.TrimSpace(c.Email))] = c
	}
	return &Authenticator{users: users}
}

// Login returns the user's profile, or types.ErrInvalidCredentials when the
// email is unknown or the password does not match.
func (a *Authenticator) Login(email, password string) (types.User, error) {
	c, ok := a.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || password == "" {
		return types.User{}, types.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return types.User{}, types.ErrInvalidCredentials
	}
	return c.Profile(), nil
}
