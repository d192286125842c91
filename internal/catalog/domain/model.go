package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SizeOption is one structured size variation of a pot.
type SizeOption struct {
	TopDiameterCM    int     `json:"top_diameter_cm"`
	HeightCM         int     `json:"height_cm"`
	BottomDiameterCM int     `json:"bottom_diameter_cm"`
	VolumeLiters     float64 `json:"volume_liters,omitempty"`
}

// Variations holds the structured product options. Stored as a typed JSON
// column and validated at the API boundary, never as an opaque blob.
type Variations struct {
	Sizes    []SizeOption `json:"sizes,omitempty"`
	Colors   []string     `json:"colors,omitempty"`
	Finishes []string     `json:"finishes,omitempty"`
	Textures []string     `json:"textures,omitempty"`
}

// Product is a catalog entry. The asset paths are nullable: a product may
// lack any given file. The download pipeline reads products, never writes.
type Product struct {
	ID         snowflake.ID                     `gorm:"primaryKey" json:"id"`
	Name       string                           `gorm:"type:text;not null" json:"name"`
	Dimensions *string                          `gorm:"type:text" json:"dimensions,omitempty"`
	Variations datatypes.JSONType[Variations]   `gorm:"type:text" json:"variations"`
	ImagePath  *string                          `gorm:"type:text" json:"image_path,omitempty"`
	PDFPath    *string                          `gorm:"type:text" json:"pdf_path,omitempty"`
	DWGPath    *string                          `gorm:"type:text" json:"dwg_path,omitempty"`
	CreatedAt  time.Time                        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time                        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }
