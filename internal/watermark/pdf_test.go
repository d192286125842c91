package watermark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPDFRenderCorruptMasterLeavesNoArtifact(t *testing.T) {
	r, dir := newTestRenderer(t)
	master := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(master, []byte("%PDF-not-really"), 0o644); err != nil {
		t.Fatalf("write corrupt master: %v", err)
	}

	_, err := r.Render(context.Background(), RenderRequest{
		MasterPath:  master,
		Kind:        KindPDF,
		UserName:    "u",
		Company:     "c",
		ProductName: "p",
	})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "watermarked"))
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed render must not leave artifacts, found %d", len(entries))
	}
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	r, dir := newTestRenderer(t)
	master := writeTestPNG(t, dir, 64, 64)

	_, err := r.Render(context.Background(), RenderRequest{MasterPath: master, Kind: Kind("dwg"), UserName: "u", Company: "c", ProductName: "p"})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected render error for unsupported kind, got %v", err)
	}
}
