package watermark

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"sync"

	"github.com/fogleman/gg"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	bannerHeight    = 60
	minimumFontSize = 20
)

var (
	regularFontOnce sync.Once
	regularFont     *opentype.Font
	regularFontErr  error
)

func loadRegularFont() (*opentype.Font, error) {
	regularFontOnce.Do(func() {
		regularFont, regularFontErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularFontErr
}

func newFace(size float64) (xfont.Face, error) {
	parsed, err := loadRegularFont()
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
}

// stampImage composites a banner watermark onto the master raster image and
// writes the result to outputPath via a temp file.
func stampImage(masterPath, outputPath string, p Payload) error {
	file, err := os.Open(masterPath)
	if err != nil {
		return fmt.Errorf("open master: %w", err)
	}
	master, format, err := image.Decode(file)
	file.Close()
	if err != nil {
		return fmt.Errorf("decode master: %w", err)
	}

	bounds := master.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	// Scale the watermark with image width so it stays legible at any
	// resolution.
	fontSize := width / 40
	if fontSize < minimumFontSize {
		fontSize = minimumFontSize
	}

	mainFace, err := newFace(fontSize)
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	footerFace, err := newFace(fontSize / 2)
	if err != nil {
		return fmt.Errorf("load footer font: %w", err)
	}

	dc := gg.NewContextForImage(master)

	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawRectangle(0, height-bannerHeight, width, bannerHeight)
	dc.Fill()

	dc.SetRGBA(1, 1, 1, 0.7)
	dc.SetFontFace(mainFace)
	dc.DrawString(p.MainText, 10, height-35)
	dc.SetFontFace(footerFace)
	dc.DrawString(p.FooterText, 10, height-15)

	tmpPath := outputPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	switch format {
	case "png":
		err = png.Encode(out, dc.Image())
	case "jpeg":
		err = jpeg.Encode(out, dc.Image(), &jpeg.Options{Quality: 90})
	default:
		err = fmt.Errorf("unsupported image format %q", format)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("encode artifact: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}
