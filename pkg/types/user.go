package types

// Role names a portal permission level.
type Role string

// Roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the profile returned after a successful login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Credential is a configured login. PasswordHash is a bcrypt hash.
type Credential struct {
	ID           string `json:"id" yaml:"id" mapstructure:"id"`
	Email        string `json:"email" yaml:"email" mapstructure:"email"`
	Name         string `json:"name" yaml:"name" mapstructure:"name"`
	Role         Role   `json:"role" yaml:"role" mapstructure:"role"`
	PasswordHash string `json:"password_hash" yaml:"password_hash" mapstructure:"password_hash"`
}

// Profile returns the public part of the credential.
func (c Credential) Profile() User {
	return User{ID: c.ID, Email: c.Email, Name: c.Name, Role: c.Role}
}
