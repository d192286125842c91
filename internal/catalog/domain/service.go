package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidVariations = errors.New("invalid_variations")
)

type ListRequest struct {
	pagination.Pagination
	Search string
}

type ListResponse struct {
	Products   []Product         `json:"products"`
	Pagination pagination.Result `json:"pagination"`
}

type CreateRequest struct {
	Name       string
	Dimensions *string
	Variations *Variations
	ImagePath  *string
	PDFPath    *string
	DWGPath    *string
}

type UpdateRequest struct {
	ID         snowflake.ID
	Name       *string
	Dimensions *string
	Variations *Variations
	ImagePath  *string
	PDFPath    *string
	DWGPath    *string
}

// Service exposes catalog reads for the portal and CRUD for administrators.
type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Product, error)
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	Update(ctx context.Context, req UpdateRequest) (*Product, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

// ParseID parses a snowflake id from its string form.
func ParseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Validate rejects structurally impossible variation payloads at the API
// boundary.
func (v Variations) Validate() error {
	for _, size := range v.Sizes {
		if size.TopDiameterCM < 0 || size.HeightCM < 0 || size.BottomDiameterCM < 0 || size.VolumeLiters < 0 {
			return ErrInvalidVariations
		}
	}
	for _, list := range [][]string{v.Colors, v.Finishes, v.Textures} {
		for _, item := range list {
			if strings.TrimSpace(item) == "" {
				return ErrInvalidVariations
			}
		}
	}
	return nil
}
