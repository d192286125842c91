package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/internal/config"
	"github.com/metrobox/forestry-pots/internal/download/domain"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"github.com/metrobox/forestry-pots/internal/observability/metrics"
	"github.com/metrobox/forestry-pots/internal/watermark"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
	Clock clock.Clock

	Catalog  catalogdomain.Service
	Identity identitydomain.Service
	Renderer watermark.Renderer

	Watermarks domain.WatermarkRepository
	AccessLogs domain.AccessLogRepository
	Metrics    *metrics.DownloadMetrics
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	cfg   config.Config
	clock clock.Clock

	catalog  catalogdomain.Service
	identity identitydomain.Service
	renderer watermark.Renderer

	watermarks domain.WatermarkRepository
	accessLogs domain.AccessLogRepository
	metrics    *metrics.DownloadMetrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("download.service"),

		genID: p.GenID,
		cfg:   p.Cfg,
		clock: p.Clock,

		catalog:  p.Catalog,
		identity: p.Identity,
		renderer: p.Renderer,

		watermarks: p.Watermarks,
		accessLogs: p.AccessLogs,
		metrics:    p.Metrics,
	}
}

// accessEntry accumulates ledger fields as the pipeline learns them.
type accessEntry struct {
	userID      *snowflake.ID
	productID   *snowflake.ID
	fileType    domain.FileType
	ipAddress   string
	userAgent   string
	watermarkID *snowflake.ID
	result      domain.AccessResult
}

// Download runs one delivery attempt. Past the file-type check, every exit
// path writes exactly one access-log entry before returning.
func (s *Service) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	fileType, err := domain.ParseFileType(req.FileType)
	if err != nil {
		return nil, err
	}

	entry := accessEntry{
		userID:    &req.UserID,
		fileType:  fileType,
		ipAddress: req.IPAddress,
		userAgent: req.UserAgent,
	}

	product, requestedID, err := s.resolveProduct(ctx, req.ProductID)
	if err != nil {
		entry.productID = requestedID
		if errors.Is(err, domain.ErrProductNotFound) {
			entry.result = domain.ResultProductNotFound
		} else {
			entry.result = domain.ResultError
		}
		s.logAccess(ctx, entry)
		return nil, err
	}
	entry.productID = &product.ID

	masterRel := masterPathFor(product, fileType)
	if masterRel == nil {
		entry.result = domain.ResultFileNotAvailable
		s.logAccess(ctx, entry)
		return nil, domain.ErrFileNotAvailable
	}

	masterPath := filepath.Join(s.cfg.Storage.UploadDir, *masterRel)
	if _, err := os.Stat(masterPath); err != nil {
		if os.IsNotExist(err) {
			entry.result = domain.ResultFileNotFound
			s.logAccess(ctx, entry)
			return nil, domain.ErrFileNotFound
		}
		entry.result = domain.ResultError
		s.logAccess(ctx, entry)
		return nil, fmt.Errorf("stat master file: %w", err)
	}

	user, err := s.identity.GetByID(ctx, req.UserID)
	if err != nil {
		entry.result = domain.ResultError
		s.logAccess(ctx, entry)
		// A vanished caller is an internal failure, not a missing resource:
		// the identity sentinel must not reach the HTTP error mapping.
		return nil, fmt.Errorf("resolve requesting user %s: %v", req.UserID, err)
	}

	if fileType == domain.FileTypeDWG {
		// CAD masters are delivered untouched. The ledger entry is the
		// only trace, so it still carries the success result.
		entry.result = domain.ResultSuccess
		s.logAccess(ctx, entry)

		filename := buildFilename(product.Name, user.Company,
			fmt.Sprintf("%d", s.clock.Now().UnixMilli()), filepath.Ext(masterPath))
		return &domain.DownloadResult{FilePath: masterPath, Filename: filename}, nil
	}

	renderStart := s.clock.Now()
	rendered, err := s.renderer.Render(ctx, watermark.RenderRequest{
		MasterPath:  masterPath,
		Kind:        renderKindFor(fileType),
		UserName:    user.Name,
		Company:     user.Company,
		ProductName: product.Name,
	})
	s.metrics.ObserveRender(string(fileType), s.clock.Now().Sub(renderStart))
	if err != nil {
		entry.result = domain.ResultError
		s.logAccess(ctx, entry)
		return nil, err
	}

	record := &domain.Watermark{
		ID:            s.genID.Generate(),
		UserID:        user.ID,
		ProductID:     product.ID,
		FileType:      string(fileType),
		WatermarkText: rendered.WatermarkText,
		FilePath:      rendered.OutputPath,
		CreatedAt:     s.clock.Now(),
	}
	// The record must exist before the ledger entry that references it.
	if err := s.watermarks.Insert(ctx, s.db, record); err != nil {
		entry.result = domain.ResultError
		s.logAccess(ctx, entry)
		return nil, fmt.Errorf("persist watermark record: %w", err)
	}

	entry.watermarkID = &record.ID
	entry.result = domain.ResultSuccess
	s.logAccess(ctx, entry)

	filename := buildFilename(product.Name, user.Company, rendered.DownloadID, filepath.Ext(rendered.OutputPath))
	return &domain.DownloadResult{
		FilePath:    rendered.OutputPath,
		Filename:    filename,
		Watermarked: true,
	}, nil
}

// GetWatermark fetches one watermark record, used when tracing a leaked
// file back to the download that produced it.
func (s *Service) GetWatermark(ctx context.Context, id snowflake.ID) (*domain.Watermark, error) {
	record, err := s.watermarks.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("find watermark record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrWatermarkNotFound
	}
	return record, nil
}

func (s *Service) ListAccessLogs(ctx context.Context, req domain.ListAccessLogsRequest) ([]domain.FileAccessLog, pagination.Result, error) {
	req.Pagination = req.Pagination.Normalize()
	entries, total, err := s.accessLogs.List(ctx, s.db, req)
	if err != nil {
		return nil, pagination.Result{}, err
	}
	return entries, pagination.NewResult(req.Pagination, total), nil
}

// resolveProduct treats malformed ids like missing products so the caller
// still sees product_not_found. The parsed id comes back even on a miss so
// the ledger records which product was asked for; only unparseable tokens
// leave it nil.
func (s *Service) resolveProduct(ctx context.Context, raw string) (*catalogdomain.Product, *snowflake.ID, error) {
	id, err := catalogdomain.ParseID(raw)
	if err != nil {
		return nil, nil, domain.ErrProductNotFound
	}
	product, err := s.catalog.GetByID(ctx, id)
	if errors.Is(err, catalogdomain.ErrNotFound) {
		return nil, &id, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, &id, fmt.Errorf("resolve product: %w", err)
	}
	return product, &id, nil
}

// logAccess appends one ledger entry. Writes are best-effort: a failure is
// logged and counted but never turns a delivered file into an error.
func (s *Service) logAccess(ctx context.Context, entry accessEntry) {
	ip := strings.TrimSpace(entry.ipAddress)
	ua := strings.TrimSpace(entry.userAgent)

	row := &domain.FileAccessLog{
		ID:          s.genID.Generate(),
		UserID:      entry.userID,
		ProductID:   entry.productID,
		FileType:    string(entry.fileType),
		Action:      domain.ActionDownload,
		WatermarkID: entry.watermarkID,
		Result:      string(entry.result),
		CreatedAt:   s.clock.Now(),
	}
	if ip != "" {
		row.IPAddress = &ip
	}
	if ua != "" {
		row.UserAgent = &ua
	}

	if err := s.accessLogs.Insert(ctx, s.db, row); err != nil {
		s.log.Error("access log write failed",
			zap.String("result", string(entry.result)),
			zap.String("file_type", string(entry.fileType)),
			zap.Error(err),
		)
		s.metrics.IncAuditWriteFailure()
	}
	s.metrics.IncDownload(string(entry.fileType), string(entry.result))
}

func masterPathFor(product *catalogdomain.Product, fileType domain.FileType) *string {
	switch fileType {
	case domain.FileTypePDF:
		return product.PDFPath
	case domain.FileTypeImage:
		return product.ImagePath
	case domain.FileTypeDWG:
		return product.DWGPath
	}
	return nil
}

func renderKindFor(fileType domain.FileType) watermark.Kind {
	if fileType == domain.FileTypePDF {
		return watermark.KindPDF
	}
	return watermark.KindImage
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// buildFilename synthesizes the client-facing attachment name:
// {product}_{company}_{suffix}{ext} with every non-alphanumeric rune
// replaced by an underscore.
func buildFilename(productName, company, suffix, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s",
		unsafeFilenameChars.ReplaceAllString(productName, "_"),
		unsafeFilenameChars.ReplaceAllString(company, "_"),
		suffix,
		strings.ToLower(ext),
	)
}
