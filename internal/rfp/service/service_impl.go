package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/internal/clock"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"github.com/metrobox/forestry-pots/internal/mailer"
	rfpdomain "github.com/metrobox/forestry-pots/internal/rfp/domain"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Mailer      mailer.Mailer
	CatalogSvc  catalogdomain.Service
	IdentitySvc identitydomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	mail        mailer.Mailer
	catalogSvc  catalogdomain.Service
	identitySvc identitydomain.Service
}

func NewService(p ServiceParam) rfpdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("rfp.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		mail:        p.Mailer,
		catalogSvc:  p.CatalogSvc,
		identitySvc: p.IdentitySvc,
	}
}

func (s *Service) Create(ctx context.Context, req rfpdomain.CreateRequest) (*rfpdomain.Rfp, error) {
	if len(req.ProductIDs) == 0 {
		return nil, rfpdomain.ErrNoItems
	}

	for _, productID := range req.ProductIDs {
		if _, err := s.catalogSvc.GetByID(ctx, productID); err != nil {
			if errors.Is(err, catalogdomain.ErrNotFound) {
				return nil, rfpdomain.ErrUnknownProduct
			}
			return nil, err
		}
	}

	now := s.clock.Now()
	record := &rfpdomain.Rfp{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Status:    rfpdomain.StatusNew,
		Message:   req.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, productID := range req.ProductIDs {
		record.Items = append(record.Items, rfpdomain.RfpItem{
			ID:        s.genID.Generate(),
			RfpID:     record.ID,
			ProductID: productID,
			CreatedAt: now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyRequester(ctx, record)
	return record, nil
}

func (s *Service) notifyRequester(ctx context.Context, record *rfpdomain.Rfp) {
	user, err := s.identitySvc.GetByID(ctx, record.UserID)
	if err != nil {
		s.log.Warn("rfp requester lookup failed", zap.String("rfp_id", record.ID.String()), zap.Error(err))
		return
	}
	if err := s.mail.SendRFPReceived(ctx, user.Email, user.Name, record.ID.String()); err != nil {
		s.log.Warn("rfp notification mail failed", zap.String("rfp_id", record.ID.String()), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, req rfpdomain.ListRequest) (rfpdomain.ListResponse, error) {
	page := req.Pagination.Normalize()

	query := s.db.WithContext(ctx).Model(&rfpdomain.Rfp{})
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if !rfpdomain.ValidStatus(status) {
			return rfpdomain.ListResponse{}, rfpdomain.ErrInvalidStatus
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return rfpdomain.ListResponse{}, err
	}

	var rfps []rfpdomain.Rfp
	if err := query.Preload("Items").Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&rfps).Error; err != nil {
		return rfpdomain.ListResponse{}, err
	}

	return rfpdomain.ListResponse{
		Rfps:       rfps,
		Pagination: pagination.NewResult(page, total),
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*rfpdomain.Rfp, error) {
	var record rfpdomain.Rfp
	err := s.db.WithContext(ctx).Preload("Items").First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rfpdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status string) (*rfpdomain.Rfp, error) {
	if !rfpdomain.ValidStatus(status) {
		return nil, rfpdomain.ErrInvalidStatus
	}

	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Status = status
	record.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Model(&rfpdomain.Rfp{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{"status": record.Status, "updated_at": record.UpdatedAt}).Error; err != nil {
		return nil, err
	}
	return record, nil
}
