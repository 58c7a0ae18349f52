package splitter

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// standardizeImage re-encodes a source image as PNG at dstPath, downscaling
// so neither dimension exceeds maxDim. maxDim <= 0 disables scaling.
// Returns the output dimensions.
func standardizeImage(srcPath, dstPath string, maxDim int) (int, int, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	img = capDimensions(img, maxDim)
	b := img.Bounds()

	out, err := os.Create(dstPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create image: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return 0, 0, fmt.Errorf("failed to encode image: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, 0, fmt.Errorf("failed to write image: %w", err)
	}
	return b.Dx(), b.Dy(), nil
}

// capDimensions downscales img preserving aspect ratio so that the longer
// side is at most maxDim. Images already within bounds pass through.
func capDimensions(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
