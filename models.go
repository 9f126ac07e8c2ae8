package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an owner role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// ParseRole maps a raw string to a known role
func ParseRole(role string) (UserRole, bool) {
	switch role {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return UserRole(role), true
	default:
		return "", false
	}
}

// User is the user model. Each one-time token lives in its own slot;
// issuing a new token overwrites the slot and consuming clears it.
type User struct {
	bun.BaseModel          `bun:"table:users,alias:usr"`
	ID                     uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role                   UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName              string         `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName               string         `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email                  string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone                  string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash           string         `bun:"password_hash" json:"-"`
	EmailValidated         bool           `bun:"is_email_verified" json:"is_email_verified"`
	VerificationToken      string         `bun:"verification_token,nullzero" json:"-"`
	VerificationExpiresAt  *time.Time     `bun:"verification_expires_at,nullzero" json:"-"`
	SetPasswordToken       string         `bun:"set_password_token,nullzero" json:"-"`
	SetPasswordExpiresAt   *time.Time     `bun:"set_password_expires_at,nullzero" json:"-"`
	ResetPasswordToken     string         `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpiresAt *time.Time     `bun:"reset_password_expires_at,nullzero" json:"-"`
	LoginAttempts          int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt         *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt             *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata               map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt              *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Name joins first and last name
func (u *User) Name() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// HasPassword tells whether the account finished first-time password setup
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// SplitName breaks a display name into first and last parts
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// PublicUser is the serializable profile we expose over HTTP
type PublicUser struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone_number,omitempty"`
	Role           UserRole   `json:"user_role,omitempty"`
	EmailValidated bool       `json:"is_email_verified"`
	LoggedInAt     *time.Time `json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// NewPublicUser builds the public profile for a user record
func NewPublicUser(u *User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:             u.ID,
		Name:           u.Name(),
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		EmailValidated: u.EmailValidated,
		LoggedInAt:     u.LoggedInAt,
		CreatedAt:      u.CreatedAt,
	}
}
