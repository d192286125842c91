package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrInvalidFileType   = errors.New("invalid_file_type")
	ErrProductNotFound   = errors.New("product_not_found")
	ErrFileNotAvailable  = errors.New("file_not_available")
	ErrFileNotFound      = errors.New("file_not_found")
	ErrWatermarkNotFound = errors.New("watermark_not_found")
)

// DownloadRequest carries everything the orchestrator needs for one attempt.
// ProductID stays raw text so malformed ids still yield an audit entry.
type DownloadRequest struct {
	UserID    snowflake.ID
	ProductID string
	FileType  string
	IPAddress string
	UserAgent string
}

// DownloadResult names the file to stream and the client-facing filename.
type DownloadResult struct {
	FilePath    string
	Filename    string
	Watermarked bool
}

type ListAccessLogsRequest struct {
	pagination.Pagination
	UserID    *snowflake.ID
	ProductID *snowflake.ID
	FileType  string
	Result    string
	From      *time.Time
	To        *time.Time
}

// Service is the download orchestrator plus the admin view of the ledger.
type Service interface {
	Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error)
	GetWatermark(ctx context.Context, id snowflake.ID) (*Watermark, error)
	ListAccessLogs(ctx context.Context, req ListAccessLogsRequest) ([]FileAccessLog, pagination.Result, error)
}

// WatermarkRepository persists watermark records. Insert-only: records are
// immutable evidence once written.
type WatermarkRepository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Watermark) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Watermark, error)
}

// AccessLogRepository appends to and reads the audit ledger.
type AccessLogRepository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *FileAccessLog) error
	List(ctx context.Context, db *gorm.DB, req ListAccessLogsRequest) ([]FileAccessLog, int64, error)
}
