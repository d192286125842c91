package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNoItems         = errors.New("no_items")
	ErrUnknownProduct  = errors.New("unknown_product")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotOwner        = errors.New("not_owner")
)

type CreateRequest struct {
	UserID     snowflake.ID
	Message    *string
	ProductIDs []snowflake.ID
}

type ListRequest struct {
	pagination.Pagination
	// UserID restricts results to one requester; zero lists all (admin).
	UserID snowflake.ID
	Status string
}

type ListResponse struct {
	Rfps       []Rfp             `json:"rfps"`
	Pagination pagination.Result `json:"pagination"`
}

// Service manages the RFP lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Rfp, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Rfp, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status string) (*Rfp, error)
}
