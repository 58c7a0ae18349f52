package detect

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for page artifacts
	_ "image/png"
)

// PageImage is a decoded page image plus its pixel dimensions.
type PageImage struct {
	Image  image.Image
	Width  int
	Height int
}

// DecodePageImage decodes PNG or JPEG page image bytes.
func DecodePageImage(data []byte) (*PageImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	b := img.Bounds()
	return &PageImage{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}
