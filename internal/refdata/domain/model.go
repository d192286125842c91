package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	KindDimensionType = "dimension_type"
	KindFinishType    = "finish_type"
)

var (
	ErrInvalidKind  = errors.New("invalid_kind")
	ErrInvalidValue = errors.New("invalid_value")
	ErrNotFound     = errors.New("not_found")
	ErrDuplicate    = errors.New("duplicate_value")
)

// ReferenceOption is one entry of a process-wide option list (dimension
// types, finish types). Owned here and mutated only through the admin API.
type ReferenceOption struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Kind      string       `gorm:"type:text;not null;index" json:"kind"`
	Value     string       `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReferenceOption) TableName() string { return "reference_options" }

// ValidKind reports whether a kind token is known.
func ValidKind(kind string) bool {
	switch kind {
	case KindDimensionType, KindFinishType:
		return true
	}
	return false
}

// Service serves the option lists through a cache and accepts admin
// mutations.
type Service interface {
	List(ctx context.Context, kind string) ([]ReferenceOption, error)
	Add(ctx context.Context, kind, value string) (*ReferenceOption, error)
	Remove(ctx context.Context, id snowflake.ID) error
}
