package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) catalogdomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&catalogdomain.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node, Clock: clock.SystemClock{}})
}

func TestCreateAndGetProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pdfPath := "masters/round-100.pdf"
	created, err := svc.Create(ctx, catalogdomain.CreateRequest{
		Name:    "Round Pot 100L",
		PDFPath: &pdfPath,
		Variations: &catalogdomain.Variations{
			Sizes:  []catalogdomain.SizeOption{{TopDiameterCM: 50, HeightCM: 60, BottomDiameterCM: 40, VolumeLiters: 100}},
			Colors: []string{"terracotta", "anthracite"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Round Pot 100L" {
		t.Fatalf("name mismatch: %q", got.Name)
	}
	variations := got.Variations.Data()
	if len(variations.Sizes) != 1 || variations.Sizes[0].VolumeLiters != 100 {
		t.Fatalf("variations not round-tripped: %+v", variations)
	}
	if got.PDFPath == nil || *got.PDFPath != pdfPath {
		t.Fatalf("pdf path mismatch: %+v", got.PDFPath)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, catalogdomain.CreateRequest{Name: "   "}); !errors.Is(err, catalogdomain.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := svc.Create(ctx, catalogdomain.CreateRequest{
		Name:       "Bad Sizes",
		Variations: &catalogdomain.Variations{Sizes: []catalogdomain.SizeOption{{TopDiameterCM: -1}}},
	}); !errors.Is(err, catalogdomain.ErrInvalidVariations) {
		t.Fatalf("expected invalid variations, got %v", err)
	}
}

func TestListProductsSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Round Pot 100L", "Square Planter 60L", "Round Bowl 30L"} {
		if _, err := svc.Create(ctx, catalogdomain.CreateRequest{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	resp, err := svc.List(ctx, catalogdomain.ListRequest{Search: "Round"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Products) != 2 || resp.Pagination.TotalCount != 2 {
		t.Fatalf("expected 2 matches, got %d (total %d)", len(resp.Products), resp.Pagination.TotalCount)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, catalogdomain.CreateRequest{Name: "Short Lived"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, catalogdomain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
