package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record_not_found")

// Repository is a generic gorm-backed store for a single model type.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	FindByID(ctx context.Context, id any) (*T, error)
	FindOne(ctx context.Context, conds ...any) (*T, error)
	Find(ctx context.Context, conds ...any) ([]T, error)
	Save(ctx context.Context, record *T) error
	Delete(ctx context.Context, id any) error
	Count(ctx context.Context, conds ...any) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore returns a Repository bound to the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) FindByID(ctx context.Context, id any) (*T, error) {
	var record T
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) FindOne(ctx context.Context, conds ...any) (*T, error) {
	var record T
	err := s.db.WithContext(ctx).First(&record, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Find(ctx context.Context, conds ...any) ([]T, error) {
	var records []T
	if err := s.db.WithContext(ctx).Find(&records, conds...).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) Save(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *store[T]) Delete(ctx context.Context, id any) error {
	var record T
	return s.db.WithContext(ctx).Delete(&record, "id = ?", id).Error
}

func (s *store[T]) Count(ctx context.Context, conds ...any) (int64, error) {
	var record T
	var total int64
	query := s.db.WithContext(ctx).Model(&record)
	if len(conds) > 0 {
		query = query.Where(conds[0], conds[1:]...)
	}
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
