package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusNew        = "New"
	StatusProcessing = "Processing"
	StatusClosed     = "Closed"
)

// Rfp is a request for proposal referencing one or more products.
type Rfp struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Status    string       `gorm:"type:text;not null;default:New" json:"status"`
	Message   *string      `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []RfpItem `gorm:"foreignKey:RfpID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Rfp) TableName() string { return "rfps" }

// RfpItem links an RFP to a requested product.
type RfpItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	RfpID     snowflake.ID `gorm:"not null;index" json:"rfp_id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (RfpItem) TableName() string { return "rfp_items" }

// ValidStatus reports whether a status token is part of the RFP lifecycle.
func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusProcessing, StatusClosed:
		return true
	}
	return false
}
