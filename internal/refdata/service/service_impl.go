package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/internal/cache"
	"github.com/metrobox/forestry-pots/internal/clock"
	refdatadomain "github.com/metrobox/forestry-pots/internal/refdata/domain"
	"github.com/metrobox/forestry-pots/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cacheTTL = 5 * time.Minute

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	options repository.Repository[refdatadomain.ReferenceOption]
	byKind  cache.Cache[string, []refdatadomain.ReferenceOption]
}

func NewService(p ServiceParam) refdatadomain.Service {
	return &Service{
		log: p.Log.Named("refdata.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		options: repository.ProvideStore[refdatadomain.ReferenceOption](p.DB),
		byKind:  cache.NewTTLCache[string, []refdatadomain.ReferenceOption](),
	}
}

func (s *Service) List(ctx context.Context, kind string) ([]refdatadomain.ReferenceOption, error) {
	if !refdatadomain.ValidKind(kind) {
		return nil, refdatadomain.ErrInvalidKind
	}

	if cached, ok := s.byKind.Get(kind); ok {
		return cached, nil
	}

	options, err := s.options.Find(ctx, "kind = ?", kind)
	if err != nil {
		return nil, err
	}
	s.byKind.Set(kind, options, cacheTTL)
	return options, nil
}

func (s *Service) Add(ctx context.Context, kind, value string) (*refdatadomain.ReferenceOption, error) {
	if !refdatadomain.ValidKind(kind) {
		return nil, refdatadomain.ErrInvalidKind
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, refdatadomain.ErrInvalidValue
	}

	if _, err := s.options.FindOne(ctx, "kind = ? AND value = ?", kind, value); err == nil {
		return nil, refdatadomain.ErrDuplicate
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	option := &refdatadomain.ReferenceOption{
		ID:        s.genID.Generate(),
		Kind:      kind,
		Value:     value,
		CreatedAt: s.clock.Now(),
	}
	if err := s.options.Create(ctx, option); err != nil {
		return nil, err
	}

	s.byKind.Delete(kind)
	return option, nil
}

func (s *Service) Remove(ctx context.Context, id snowflake.ID) error {
	option, err := s.options.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return refdatadomain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.options.Delete(ctx, id); err != nil {
		return err
	}
	s.byKind.Delete(option.Kind)
	return nil
}
