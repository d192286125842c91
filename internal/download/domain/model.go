package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FileType is the requested asset variant of a product.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
	FileTypeDWG   FileType = "dwg"
)

// ParseFileType validates the type token from the request path. Unknown
// tokens are a client-input error and never reach the audit ledger.
func ParseFileType(raw string) (FileType, error) {
	switch FileType(raw) {
	case FileTypePDF, FileTypeImage, FileTypeDWG:
		return FileType(raw), nil
	}
	return "", ErrInvalidFileType
}

// AccessResult is the outcome tag recorded on every access-log entry.
type AccessResult string

const (
	ResultSuccess          AccessResult = "success"
	ResultProductNotFound  AccessResult = "product_not_found"
	ResultFileNotAvailable AccessResult = "file_not_available"
	ResultFileNotFound     AccessResult = "file_not_found"
	ResultError            AccessResult = "error"
)

// ActionDownload is the only access action in the current scope; the column
// is open-ended for future actions such as "view".
const ActionDownload = "download"

// Watermark is one completed watermarking event. Created exactly once per
// successful render, never updated or deleted here.
type Watermark struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;index:idx_watermarks_user_product,priority:1" json:"user_id"`
	ProductID     snowflake.ID `gorm:"not null;index:idx_watermarks_user_product,priority:2" json:"product_id"`
	FileType      string       `gorm:"type:text;not null" json:"file_type"`
	WatermarkText string       `gorm:"type:text;not null" json:"watermark_text"`
	FilePath      string       `gorm:"type:text;not null" json:"file_path"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Watermark) TableName() string { return "watermarks" }

// FileAccessLog is one entry of the append-only audit ledger. User, product
// and watermark references stay nullable so failed lookups still log.
type FileAccessLog struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID    *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	ProductID *snowflake.ID `gorm:"index" json:"product_id,omitempty"`
	FileType  string        `gorm:"type:text;not null" json:"file_type"`
	Action    string        `gorm:"type:text;not null" json:"action"`
	IPAddress *string       `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent *string       `gorm:"type:text" json:"user_agent,omitempty"`
	// WatermarkID links a successful watermarked download to its record.
	// It stays nil whenever the request never reached a completed render.
	WatermarkID *snowflake.ID `gorm:"index" json:"watermark_id,omitempty"`
	Result      string        `gorm:"type:text;not null;default:success" json:"result"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (FileAccessLog) TableName() string { return "file_access_logs" }
