package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	catalogservice "github.com/metrobox/forestry-pots/internal/catalog/service"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/internal/config"
	"github.com/metrobox/forestry-pots/internal/download/domain"
	downloadrepo "github.com/metrobox/forestry-pots/internal/download/repository"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	identityservice "github.com/metrobox/forestry-pots/internal/identity/service"
	"github.com/metrobox/forestry-pots/internal/mailer"
	"github.com/metrobox/forestry-pots/internal/observability/metrics"
	"github.com/metrobox/forestry-pots/internal/watermark"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubRenderer mimics the file renderer without touching pdfcpu or gg: it
// writes a small artifact per call and mints payloads the same way.
type stubRenderer struct {
	dir string

	mu    sync.Mutex
	calls int
	fail  bool
}

func (r *stubRenderer) Render(ctx context.Context, req watermark.RenderRequest) (*watermark.RenderResult, error) {
	r.mu.Lock()
	r.calls++
	fail := r.fail
	r.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("%w: stub failure", watermark.ErrRender)
	}

	payload := watermark.NewPayload(req.UserName, req.Company, req.ProductName, time.Now())
	out := filepath.Join(r.dir, payload.DownloadID+filepath.Ext(req.MasterPath))
	if err := os.WriteFile(out, []byte("stamped"), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", watermark.ErrRender, err)
	}
	return &watermark.RenderResult{
		OutputPath:    out,
		DownloadID:    payload.DownloadID,
		WatermarkText: payload.Text(),
	}, nil
}

func (r *stubRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	dir      string
	user     identitydomain.User
	product  catalogdomain.Product
	renderer *stubRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	metrics.ResetDownloadMetricsForTest()

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "portal.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&identitydomain.User{},
		&catalogdomain.Product{},
		&domain.Watermark{},
		&domain.FileAccessLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	cfg := config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{Secret: "test-secret", ExpiryMinutes: 60},
		Storage:     config.StorageConfig{UploadDir: dir},
	}
	log := zap.NewNop()
	clk := clock.SystemClock{}

	mastersDir := filepath.Join(dir, "masters")
	if err := os.MkdirAll(mastersDir, 0o755); err != nil {
		t.Fatalf("masters dir: %v", err)
	}
	for _, name := range []string{"pot.pdf", "pot.png", "pot.dwg"} {
		if err := os.WriteFile(filepath.Join(mastersDir, name), []byte("master "+name), 0o644); err != nil {
			t.Fatalf("write master %s: %v", name, err)
		}
	}

	user := identitydomain.User{
		ID:           node.Generate(),
		Name:         "Jane Doe",
		Company:      "Acme Pots",
		Email:        "jane@acme.test",
		PasswordHash: "unused",
		Role:         identitydomain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	pdfPath := "masters/pot.pdf"
	imagePath := "masters/pot.png"
	dwgPath := "masters/pot.dwg"
	product := catalogdomain.Product{
		ID:        node.Generate(),
		Name:      "Round Pot 100L",
		ImagePath: &imagePath,
		PDFPath:   &pdfPath,
		DWGPath:   &dwgPath,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	renderer := &stubRenderer{dir: filepath.Join(dir, "watermarked")}
	if err := os.MkdirAll(renderer.dir, 0o755); err != nil {
		t.Fatalf("output dir: %v", err)
	}

	catalogSvc := catalogservice.NewService(catalogservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
	})
	identitySvc := identityservice.NewService(identityservice.ServiceParam{
		DB: db, Log: log, GenID: node, Cfg: cfg, Clock: clk,
		Mailer: mailer.New(cfg, log),
	})

	svc := NewService(ServiceParam{
		DB:         db,
		Log:        log,
		GenID:      node,
		Cfg:        cfg,
		Clock:      clk,
		Catalog:    catalogSvc,
		Identity:   identitySvc,
		Renderer:   renderer,
		Watermarks: downloadrepo.ProvideWatermarkRepository(),
		AccessLogs: downloadrepo.ProvideAccessLogRepository(),
		Metrics:    metrics.Download(metrics.Config{ServiceName: "test", Environment: "test"}),
	})

	return &fixture{svc: svc, db: db, dir: dir, user: user, product: product, renderer: renderer}
}

func (f *fixture) request(fileType string) domain.DownloadRequest {
	return domain.DownloadRequest{
		UserID:    f.user.ID,
		ProductID: f.product.ID.String(),
		FileType:  fileType,
		IPAddress: "203.0.113.7",
		UserAgent: "portal-test/1.0",
	}
}

func (f *fixture) accessLogs(t *testing.T) []domain.FileAccessLog {
	t.Helper()
	var entries []domain.FileAccessLog
	if err := f.db.Order("created_at ASC").Find(&entries).Error; err != nil {
		t.Fatalf("read access logs: %v", err)
	}
	return entries
}

func (f *fixture) watermarks(t *testing.T) []domain.Watermark {
	t.Helper()
	var records []domain.Watermark
	if err := f.db.Find(&records).Error; err != nil {
		t.Fatalf("read watermarks: %v", err)
	}
	return records
}

func TestDownloadPDFSuccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Download(context.Background(), f.request("pdf"))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !res.Watermarked {
		t.Fatalf("pdf download must be watermarked")
	}
	if _, err := os.Stat(res.FilePath); err != nil {
		t.Fatalf("delivered file missing: %v", err)
	}
	if !strings.HasPrefix(res.Filename, "Round_Pot_100L_Acme_Pots_") {
		t.Fatalf("unexpected filename %q", res.Filename)
	}
	if !strings.HasSuffix(res.Filename, ".pdf") {
		t.Fatalf("filename must keep master extension, got %q", res.Filename)
	}

	records := f.watermarks(t)
	if len(records) != 1 {
		t.Fatalf("expected 1 watermark record, got %d", len(records))
	}
	record := records[0]
	if record.UserID != f.user.ID || record.ProductID != f.product.ID {
		t.Fatalf("record attribution mismatch: %+v", record)
	}
	if record.FilePath != res.FilePath {
		t.Fatalf("record must point at the delivered artifact")
	}
	for _, needle := range []string{"Jane Doe", "Acme Pots", "Round Pot 100L"} {
		if !strings.Contains(record.WatermarkText, needle) {
			t.Fatalf("watermark text missing %q: %s", needle, record.WatermarkText)
		}
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 access log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Result != string(domain.ResultSuccess) {
		t.Fatalf("expected success result, got %s", entry.Result)
	}
	if entry.WatermarkID == nil || *entry.WatermarkID != record.ID {
		t.Fatalf("success entry must reference the watermark record")
	}
	if entry.UserID == nil || *entry.UserID != f.user.ID {
		t.Fatalf("entry must carry the requesting user")
	}
	if entry.IPAddress == nil || *entry.IPAddress != "203.0.113.7" {
		t.Fatalf("entry must capture the client ip")
	}
	if entry.UserAgent == nil || *entry.UserAgent != "portal-test/1.0" {
		t.Fatalf("entry must capture the user agent")
	}
}

func TestDownloadDWGPassthrough(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Download(context.Background(), f.request("dwg"))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if res.Watermarked {
		t.Fatalf("dwg must never be watermarked")
	}
	if res.FilePath != filepath.Join(f.dir, "masters", "pot.dwg") {
		t.Fatalf("dwg must stream the master directly, got %s", res.FilePath)
	}
	if f.renderer.callCount() != 0 {
		t.Fatalf("renderer must not run for dwg")
	}
	if got := len(f.watermarks(t)); got != 0 {
		t.Fatalf("dwg must not create watermark records, got %d", got)
	}

	suffix := strings.TrimSuffix(strings.TrimPrefix(res.Filename, "Round_Pot_100L_Acme_Pots_"), ".dwg")
	for _, r := range suffix {
		if !unicode.IsDigit(r) {
			t.Fatalf("dwg filename suffix must be a timestamp, got %q", res.Filename)
		}
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	if entries[0].Result != string(domain.ResultSuccess) {
		t.Fatalf("dwg delivery must log success, got %s", entries[0].Result)
	}
	if entries[0].WatermarkID != nil {
		t.Fatalf("dwg entry must not reference a watermark record")
	}
}

func TestDownloadProductNotFound(t *testing.T) {
	downloadMissingProduct := func(t *testing.T, f *fixture, productID string) domain.FileAccessLog {
		t.Helper()
		req := f.request("pdf")
		req.ProductID = productID

		_, err := f.svc.Download(context.Background(), req)
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected product not found, got %v", err)
		}

		entries := f.accessLogs(t)
		if len(entries) != 1 {
			t.Fatalf("the attempt must log exactly once, got %d entries", len(entries))
		}
		entry := entries[0]
		if entry.Result != string(domain.ResultProductNotFound) {
			t.Fatalf("expected product_not_found, got %s", entry.Result)
		}
		if entry.WatermarkID != nil {
			t.Fatalf("failed attempt must not reference a watermark")
		}
		if got := len(f.watermarks(t)); got != 0 {
			t.Fatalf("failed attempts must not create watermark records, got %d", got)
		}
		return entry
	}

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		entry := downloadMissingProduct(t, f, "999999999999999999")
		if entry.ProductID == nil || entry.ProductID.String() != "999999999999999999" {
			t.Fatalf("ledger must record the product id as requested: %+v", entry)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(t)
		entry := downloadMissingProduct(t, f, "not-a-snowflake")
		if entry.ProductID != nil {
			t.Fatalf("unparseable ids must stay null in the ledger: %+v", entry)
		}
	})
}

func TestDownloadDeletedUserIsInternalError(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Delete(&f.user).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	_, err := f.svc.Download(context.Background(), f.request("pdf"))
	if err == nil {
		t.Fatalf("download for a vanished user must fail")
	}
	if errors.Is(err, identitydomain.ErrNotFound) {
		t.Fatalf("identity sentinel must not escape the orchestrator: %v", err)
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 || entries[0].Result != string(domain.ResultError) {
		t.Fatalf("vanished user must log one error entry, got %+v", entries)
	}
	if got := len(f.watermarks(t)); got != 0 {
		t.Fatalf("failed attempt must not create watermark records, got %d", got)
	}
}

func TestGetWatermarkLinksLedgerToRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Download(ctx, f.request("pdf")); err != nil {
		t.Fatalf("download: %v", err)
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 || entries[0].WatermarkID == nil {
		t.Fatalf("success entry must reference a watermark record, got %+v", entries)
	}

	record, err := f.svc.GetWatermark(ctx, *entries[0].WatermarkID)
	if err != nil {
		t.Fatalf("get watermark: %v", err)
	}
	if record.UserID != *entries[0].UserID || record.ProductID != *entries[0].ProductID {
		t.Fatalf("record attribution must match the ledger entry: %+v vs %+v", record, entries[0])
	}

	if _, err := f.svc.GetWatermark(ctx, record.ID+1); !errors.Is(err, domain.ErrWatermarkNotFound) {
		t.Fatalf("expected watermark not found, got %v", err)
	}
}

func TestDownloadFileNotAvailable(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&f.product).Update("image_path", nil).Error; err != nil {
		t.Fatalf("clear image path: %v", err)
	}

	_, err := f.svc.Download(context.Background(), f.request("image"))
	if !errors.Is(err, domain.ErrFileNotAvailable) {
		t.Fatalf("expected file not available, got %v", err)
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 || entries[0].Result != string(domain.ResultFileNotAvailable) {
		t.Fatalf("expected one file_not_available entry, got %+v", entries)
	}
	if entries[0].ProductID == nil || *entries[0].ProductID != f.product.ID {
		t.Fatalf("resolved product must be recorded even on failure")
	}
}

func TestDownloadFileNotFoundOnDisk(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(filepath.Join(f.dir, "masters", "pot.pdf")); err != nil {
		t.Fatalf("remove master: %v", err)
	}

	_, err := f.svc.Download(context.Background(), f.request("pdf"))
	if !errors.Is(err, domain.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 || entries[0].Result != string(domain.ResultFileNotFound) {
		t.Fatalf("expected one file_not_found entry, got %+v", entries)
	}
	if f.renderer.callCount() != 0 {
		t.Fatalf("renderer must not run when the master is missing")
	}
}

func TestDownloadRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.renderer.fail = true

	_, err := f.svc.Download(context.Background(), f.request("image"))
	if !errors.Is(err, watermark.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}

	entries := f.accessLogs(t)
	if len(entries) != 1 || entries[0].Result != string(domain.ResultError) {
		t.Fatalf("render failure must log one error entry, got %+v", entries)
	}
	if got := len(f.watermarks(t)); got != 0 {
		t.Fatalf("failed render must not persist a watermark record, got %d", got)
	}
}

func TestDownloadInvalidTypeSkipsLedger(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Download(context.Background(), f.request("exe"))
	if !errors.Is(err, domain.ErrInvalidFileType) {
		t.Fatalf("expected invalid file type, got %v", err)
	}
	if got := len(f.accessLogs(t)); got != 0 {
		t.Fatalf("invalid type must not reach the ledger, got %d entries", got)
	}
}

func TestDownloadConcurrentRequestsStayIsolated(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	results := make([]*domain.DownloadResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Download(context.Background(), f.request("pdf"))
		}(i)
	}
	wg.Wait()

	seenPaths := make(map[string]bool)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if seenPaths[results[i].FilePath] {
			t.Fatalf("concurrent downloads must not share artifacts: %s", results[i].FilePath)
		}
		seenPaths[results[i].FilePath] = true
	}

	if got := len(f.watermarks(t)); got != workers {
		t.Fatalf("expected %d watermark records, got %d", workers, got)
	}
	entries := f.accessLogs(t)
	if len(entries) != workers {
		t.Fatalf("expected %d access log entries, got %d", workers, len(entries))
	}
	for _, entry := range entries {
		if entry.Result != string(domain.ResultSuccess) || entry.WatermarkID == nil {
			t.Fatalf("every concurrent delivery must log success with a record link: %+v", entry)
		}
	}
}

type failingAccessLogs struct {
	domain.AccessLogRepository
}

func (failingAccessLogs) Insert(ctx context.Context, db *gorm.DB, entry *domain.FileAccessLog) error {
	return errors.New("ledger unavailable")
}

func TestDownloadSurvivesLedgerWriteFailure(t *testing.T) {
	f := newFixture(t)
	impl := f.svc.(*Service)
	impl.accessLogs = failingAccessLogs{AccessLogRepository: impl.accessLogs}

	res, err := f.svc.Download(context.Background(), f.request("pdf"))
	if err != nil {
		t.Fatalf("ledger failure must not break delivery: %v", err)
	}
	if _, err := os.Stat(res.FilePath); err != nil {
		t.Fatalf("delivered file missing: %v", err)
	}
	if got := len(f.watermarks(t)); got != 1 {
		t.Fatalf("watermark record must still be written, got %d", got)
	}
}

func TestListAccessLogsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Download(ctx, f.request("pdf")); err != nil {
		t.Fatalf("pdf download: %v", err)
	}
	badReq := f.request("image")
	badReq.ProductID = "404"
	if _, err := f.svc.Download(ctx, badReq); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}

	all, page, err := f.svc.ListAccessLogs(ctx, domain.ListAccessLogsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || page.TotalCount != 2 {
		t.Fatalf("expected 2 entries, got %d (total %d)", len(all), page.TotalCount)
	}

	failures, _, err := f.svc.ListAccessLogs(ctx, domain.ListAccessLogsRequest{
		Result: string(domain.ResultProductNotFound),
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(failures) != 1 || failures[0].FileType != string(domain.FileTypeImage) {
		t.Fatalf("result filter mismatch: %+v", failures)
	}

	byProduct, _, err := f.svc.ListAccessLogs(ctx, domain.ListAccessLogsRequest{
		ProductID: &f.product.ID,
	})
	if err != nil {
		t.Fatalf("list by product: %v", err)
	}
	if len(byProduct) != 1 || byProduct[0].Result != string(domain.ResultSuccess) {
		t.Fatalf("product filter mismatch: %+v", byProduct)
	}
}
