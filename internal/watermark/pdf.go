package watermark

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	// Diagonal attribution drawn across every page.
	pdfMainStampDesc = "fontname:Helvetica, points:48, rotation:45, opacity:0.5, fillcolor:0.5 0.5 0.5, scalefactor:0.9 rel"
	// Forensic caption in the bottom-left margin, fully opaque.
	pdfFooterStampDesc = "fontname:Helvetica, points:8, position:bl, offset:30 20, rotation:0, opacity:1, fillcolor:0.3 0.3 0.3"
)

// stampPDF writes a watermarked copy of the master PDF to outputPath. The
// write goes through a temp file so a failed render never leaves a partial
// artifact at the final path.
func stampPDF(masterPath, outputPath string, p Payload) error {
	mainStamp, err := api.TextWatermark(p.MainText, pdfMainStampDesc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build main stamp: %w", err)
	}
	footerStamp, err := api.TextWatermark(p.FooterText, pdfFooterStampDesc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build footer stamp: %w", err)
	}

	tmpPath := outputPath + ".tmp"
	if err := api.AddWatermarksFile(masterPath, tmpPath, nil, mainStamp, nil); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("stamp pages: %w", err)
	}
	if err := api.AddWatermarksFile(tmpPath, tmpPath, nil, footerStamp, nil); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("stamp footer: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}
