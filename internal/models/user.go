package models

import "time"

// UserRole distinguishes advisors from their investor clients.
type UserRole string

const (
	RoleAdvisor  UserRole = "advisor"
	RoleInvestor UserRole = "investor"
)

// UserStatus marks whether a user may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User represents an advisor or investor account.
type User struct {
	Base
	Username         string     `gorm:"uniqueIndex;not null" json:"username"`
	Password         string     `gorm:"not null" json:"-"`
	Name             string     `gorm:"not null" json:"name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Role             UserRole   `gorm:"not null;default:investor" json:"role"`
	Status           UserStatus `gorm:"not null;default:active" json:"status"`
	CalculatorsCount int        `gorm:"not null;default:0" json:"calculatorsCount"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// IsAdvisor reports whether the user has the advisor role.
func (u *User) IsAdvisor() bool { return u.Role == RoleAdvisor }
