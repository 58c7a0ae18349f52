package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/Shivank1006/doc-data/internal/detect"
)

const cropJPEGQuality = 90

// ErrEmptyCrop is returned when a region's box does not overlap the image.
var ErrEmptyCrop = errors.New("region does not intersect page image")

// Crop cuts a region out of the original page image and returns it as
// JPEG bytes.
func Crop(img image.Image, box detect.Box) ([]byte, error) {
	r := boxRect(box, img.Bounds())
	if r.Empty() {
		return nil, ErrEmptyCrop
	}

	cropped := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, r.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: cropJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
