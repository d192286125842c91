package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a portal account. Name and Company are rendered verbatim into
// watermark text, so both are required.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Company      string       `gorm:"type:text;not null" json:"company"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Role         string       `gorm:"type:text;not null;default:user" json:"role"`
	ProfilePhoto *string      `gorm:"type:text" json:"profile_photo,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the account has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

const (
	AccessRequestPending  = "pending"
	AccessRequestApproved = "approved"
	AccessRequestRejected = "rejected"
)

// AccessRequest is a prospect's application for portal access.
type AccessRequest struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	CompanyName string       `gorm:"type:text;not null" json:"company_name"`
	Email       string       `gorm:"type:text;not null" json:"email"`
	Phone       *string      `gorm:"type:text" json:"phone,omitempty"`
	Notes       *string      `gorm:"type:text" json:"notes,omitempty"`
	Status      string       `gorm:"type:text;not null;default:pending" json:"status"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AccessRequest) TableName() string { return "access_requests" }
