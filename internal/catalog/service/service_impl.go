package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
	"github.com/metrobox/forestry-pots/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	products repository.Repository[catalogdomain.Product]
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("catalog.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		products: repository.ProvideStore[catalogdomain.Product](p.DB),
	}
}

func (s *Service) List(ctx context.Context, req catalogdomain.ListRequest) (catalogdomain.ListResponse, error) {
	page := req.Pagination.Normalize()

	query := s.db.WithContext(ctx).Model(&catalogdomain.Product{})
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR dimensions LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return catalogdomain.ListResponse{}, err
	}

	var products []catalogdomain.Product
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&products).Error; err != nil {
		return catalogdomain.ListResponse{}, err
	}

	return catalogdomain.ListResponse{
		Products:   products,
		Pagination: pagination.NewResult(page, total),
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, catalogdomain.ErrNotFound
	}
	return product, err
}

func (s *Service) Create(ctx context.Context, req catalogdomain.CreateRequest) (*catalogdomain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	variations := catalogdomain.Variations{}
	if req.Variations != nil {
		if err := req.Variations.Validate(); err != nil {
			return nil, err
		}
		variations = *req.Variations
	}

	now := s.clock.Now()
	product := &catalogdomain.Product{
		ID:         s.genID.Generate(),
		Name:       name,
		Dimensions: req.Dimensions,
		Variations: datatypes.NewJSONType(variations),
		ImagePath:  req.ImagePath,
		PDFPath:    req.PDFPath,
		DWGPath:    req.DWGPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

func (s *Service) Update(ctx context.Context, req catalogdomain.UpdateRequest) (*catalogdomain.Product, error) {
	product, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Dimensions != nil {
		product.Dimensions = req.Dimensions
	}
	if req.Variations != nil {
		if err := req.Variations.Validate(); err != nil {
			return nil, err
		}
		product.Variations = datatypes.NewJSONType(*req.Variations)
	}
	if req.ImagePath != nil {
		product.ImagePath = req.ImagePath
	}
	if req.PDFPath != nil {
		product.PDFPath = req.PDFPath
	}
	if req.DWGPath != nil {
		product.DWGPath = req.DWGPath
	}

	product.UpdatedAt = s.clock.Now()
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}
