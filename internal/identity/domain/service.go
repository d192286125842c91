package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidToken        = errors.New("invalid_token")
	ErrNotFound            = errors.New("not_found")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidCompany      = errors.New("invalid_company")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPassword     = errors.New("invalid_password")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrRequestNotPending   = errors.New("request_not_pending")
	ErrInvalidAccessReq    = errors.New("invalid_access_request")
	ErrInvalidRequestState = errors.New("invalid_request_state")
)

// TokenClaims is the verified identity carried by a session token.
type TokenClaims struct {
	UserID snowflake.ID
	Role   string
}

// Session is the result of a successful authentication.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateUserRequest struct {
	Name     string
	Company  string
	Email    string
	Password string
	Role     string
}

type UpdateUserRequest struct {
	ID           snowflake.ID
	Name         *string
	Company      *string
	Email        *string
	Password     *string
	Role         *string
	ProfilePhoto *string
}

type ListUsersRequest struct {
	pagination.Pagination
	Search string
}

type AccessRequestInput struct {
	Name        string
	CompanyName string
	Email       string
	Phone       *string
	Notes       *string
}

// Service covers authentication, user administration, and access requests.
// GetByID is the user-lookup contract the download pipeline depends on.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	VerifyToken(token string) (*TokenClaims, error)

	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) ([]User, pagination.Result, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id snowflake.ID) error

	SubmitAccessRequest(ctx context.Context, req AccessRequestInput) (*AccessRequest, error)
	ListAccessRequests(ctx context.Context, status string) ([]AccessRequest, error)
	ApproveAccessRequest(ctx context.Context, id snowflake.ID) (*User, error)
	RejectAccessRequest(ctx context.Context, id snowflake.ID) error
}

// ParseID parses a snowflake id from its string form.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
