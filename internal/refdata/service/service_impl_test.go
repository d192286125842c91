package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/internal/clock"
	refdatadomain "github.com/metrobox/forestry-pots/internal/refdata/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) refdatadomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "refdata.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&refdatadomain.ReferenceOption{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node, Clock: clock.SystemClock{}})
}

func TestAddAndListOptions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "unknown_kind", "x"); !errors.Is(err, refdatadomain.ErrInvalidKind) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
	if _, err := svc.Add(ctx, refdatadomain.KindFinishType, "  "); !errors.Is(err, refdatadomain.ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}

	if _, err := svc.Add(ctx, refdatadomain.KindFinishType, "matte"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, refdatadomain.KindFinishType, "matte"); !errors.Is(err, refdatadomain.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	options, err := svc.List(ctx, refdatadomain.KindFinishType)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(options) != 1 || options[0].Value != "matte" {
		t.Fatalf("list mismatch: %+v", options)
	}
}

func TestRemoveInvalidatesCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	option, err := svc.Add(ctx, refdatadomain.KindDimensionType, "diameter")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// Prime the cache, then make sure removal is visible on the next read.
	if _, err := svc.List(ctx, refdatadomain.KindDimensionType); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := svc.Remove(ctx, option.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	options, err := svc.List(ctx, refdatadomain.KindDimensionType)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("removed option still listed: %+v", options)
	}

	if err := svc.Remove(ctx, snowflake.ID(404)); !errors.Is(err, refdatadomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
