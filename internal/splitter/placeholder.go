package splitter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder page dimensions approximate US Letter at 100 DPI.
const (
	placeholderWidth  = 850
	placeholderHeight = 1100
)

// placeholderConverter is the last-resort strategy: it cannot rasterize
// content, so it emits blank labeled pages. Downstream extraction still
// runs and the raw page text, when present, carries the content.
type placeholderConverter struct {
	logger *slog.Logger
}

func (c *placeholderConverter) Name() string { return "placeholder" }

func (c *placeholderConverter) Convert(ctx context.Context, pdfPath, outDir, base string) ([]string, error) {
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		c.logger.Warn("failed to get page count, rendering one placeholder", "error", err)
		pageCount = 1
	}

	var paths []string
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img := renderPlaceholderPage(page)
		dst := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.png", base, page))
		f, err := os.Create(dst)
		if err != nil {
			return nil, fmt.Errorf("failed to create placeholder image: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to encode placeholder image: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to write placeholder image: %w", err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// renderPlaceholderPage draws a white page with a centered page label.
func renderPlaceholderPage(page int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	label := fmt.Sprintf("Page %d", page)
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.P(
			(placeholderWidth-width)/2,
			placeholderHeight/2,
		),
	}
	d.DrawString(label)
	return img
}
