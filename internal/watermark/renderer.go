package watermark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Kind selects the rendering pipeline for a master file.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// ErrRender wraps every renderer failure. Callers must not persist a
// watermark record when they see it.
var ErrRender = errors.New("render_failed")

// Payload is the user-attributable text stamped into a derived artifact.
type Payload struct {
	DownloadID string
	MainText   string
	FooterText string
}

// Text is the exact string persisted alongside the watermark record.
func (p Payload) Text() string {
	return p.MainText + " | " + p.FooterText
}

// NewPayload mints a fresh downloadId and builds the watermark text for one
// download. Every call produces a distinct id, even for identical inputs.
func NewPayload(userName, company, productName string, now time.Time) Payload {
	downloadID := uuid.NewString()
	return Payload{
		DownloadID: downloadID,
		MainText:   fmt.Sprintf("%s - %s", company, userName),
		FooterText: fmt.Sprintf(
			"Downloaded by: %s (%s) | Product: %s | %s | ID: %s",
			userName, company, productName, now.UTC().Format(time.RFC3339), downloadID,
		),
	}
}

// RenderRequest identifies the master file and the attribution to stamp.
type RenderRequest struct {
	MasterPath  string
	Kind        Kind
	UserName    string
	Company     string
	ProductName string
}

// RenderResult describes the derived artifact written by a render.
type RenderResult struct {
	OutputPath    string
	DownloadID    string
	WatermarkText string
}

// Renderer turns a master file into a watermarked derived artifact. The
// master is never modified.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

// Module provides the file renderer.
var Module = fx.Module("watermark",
	fx.Provide(NewRenderer),
)

type RendererParam struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
}

type fileRenderer struct {
	outputDir string
	clock     clock.Clock
	log       *zap.Logger
}

// NewRenderer builds a renderer writing derived artifacts under the
// watermarked/ subtree of the upload directory.
func NewRenderer(p RendererParam) (Renderer, error) {
	outputDir := filepath.Join(p.Cfg.Storage.UploadDir, "watermarked")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create watermark output dir: %w", err)
	}
	return &fileRenderer{
		outputDir: outputDir,
		clock:     p.Clock,
		log:       p.Log.Named("watermark.renderer"),
	}, nil
}

func (r *fileRenderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	payload := NewPayload(req.UserName, req.Company, req.ProductName, r.clock.Now())

	ext := strings.ToLower(filepath.Ext(req.MasterPath))
	outputPath := filepath.Join(r.outputDir, payload.DownloadID+ext)

	var err error
	switch req.Kind {
	case KindPDF:
		err = stampPDF(req.MasterPath, outputPath, payload)
	case KindImage:
		err = stampImage(req.MasterPath, outputPath, payload)
	default:
		err = fmt.Errorf("unsupported kind %q", req.Kind)
	}
	if err != nil {
		r.log.Error("render failed",
			zap.String("kind", string(req.Kind)),
			zap.String("master", req.MasterPath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	return &RenderResult{
		OutputPath:    outputPath,
		DownloadID:    payload.DownloadID,
		WatermarkText: payload.Text(),
	}, nil
}
