// Package models contains the domain entities persisted by the API.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of caller roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a stored or claimed role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsAdmin reports whether the role carries elevated privileges.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
	UserStatusDeleted UserStatus = "DELETED"
)

// User is an account known to the auth provider and mirrored locally.
type User struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"size:120;not null" json:"name"`
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	EmailVerified bool       `gorm:"not null;default:false" json:"emailVerified"`
	Role          Role       `gorm:"type:varchar(16);not null;default:USER;index" json:"role"`
	Status        UserStatus `gorm:"type:varchar(16);not null;default:ACTIVE" json:"status"`
	PasswordHash  string     `gorm:"size:255" json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   Role       `json:"role"`
	Status UserStatus `json:"status"`
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}
