package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/internal/download/domain"
	"gorm.io/gorm"
)

type watermarkRepository struct{}

// ProvideWatermarkRepository builds the gorm-backed watermark store.
func ProvideWatermarkRepository() domain.WatermarkRepository {
	return &watermarkRepository{}
}

func (r *watermarkRepository) Insert(ctx context.Context, db *gorm.DB, record *domain.Watermark) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *watermarkRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Watermark, error) {
	var record domain.Watermark
	err := db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type accessLogRepository struct{}

// ProvideAccessLogRepository builds the gorm-backed audit ledger.
func ProvideAccessLogRepository() domain.AccessLogRepository {
	return &accessLogRepository{}
}

func (r *accessLogRepository) Insert(ctx context.Context, db *gorm.DB, entry *domain.FileAccessLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *accessLogRepository) List(ctx context.Context, db *gorm.DB, req domain.ListAccessLogsRequest) ([]domain.FileAccessLog, int64, error) {
	query := db.WithContext(ctx).Model(&domain.FileAccessLog{})
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}
	if req.ProductID != nil {
		query = query.Where("product_id = ?", *req.ProductID)
	}
	if req.FileType != "" {
		query = query.Where("file_type = ?", req.FileType)
	}
	if req.Result != "" {
		query = query.Where("result = ?", req.Result)
	}
	if req.From != nil {
		query = query.Where("created_at >= ?", *req.From)
	}
	if req.To != nil {
		query = query.Where("created_at <= ?", *req.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []domain.FileAccessLog
	err := query.
		Order("created_at DESC").
		Offset(req.Offset()).
		Limit(req.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
