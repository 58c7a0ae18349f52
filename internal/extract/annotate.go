package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Shivank1006/doc-data/internal/detect"
)

var annotationGreen = color.RGBA{R: 0, G: 200, B: 0, A: 255}

const boxThickness = 2

// Annotate draws indexed bounding boxes over a copy of the page image so
// the extraction model can reference regions by number. Labels are 1-based
// and drawn inside the top-left corner of each box; the original image is
// untouched (crops must come from the unannotated image).
func Annotate(img image.Image, regions []detect.Region) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for i, region := range regions {
		r := boxRect(region.Box, b)
		drawRectOutline(out, r, annotationGreen, boxThickness)
		drawIndexLabel(out, r, i+1)
	}
	return out
}

// EncodePNG serializes an annotated image for a model call.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

func boxRect(box detect.Box, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(box.X), int(box.Y),
		int(box.X+box.W), int(box.Y+box.H),
	)
	return r.Intersect(bounds)
}

func drawRectOutline(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	for t := 0; t < thickness; t++ {
		top := image.Rect(r.Min.X, r.Min.Y+t, r.Max.X, r.Min.Y+t+1)
		bottom := image.Rect(r.Min.X, r.Max.Y-t-1, r.Max.X, r.Max.Y-t)
		left := image.Rect(r.Min.X+t, r.Min.Y, r.Min.X+t+1, r.Max.Y)
		right := image.Rect(r.Max.X-t-1, r.Min.Y, r.Max.X-t, r.Max.Y)
		for _, side := range []image.Rectangle{top, bottom, left, right} {
			draw.Draw(img, side.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}

// drawIndexLabel paints the region number on a filled tab inside the box's
// top-left corner.
func drawIndexLabel(img *image.RGBA, r image.Rectangle, id int) {
	label := fmt.Sprintf("%d", id)
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()

	pad := 3
	tab := image.Rect(
		r.Min.X+boxThickness,
		r.Min.Y+boxThickness,
		r.Min.X+boxThickness+textWidth+2*pad,
		r.Min.Y+boxThickness+face.Height+2*pad,
	).Intersect(img.Bounds())
	draw.Draw(img, tab, image.NewUniform(annotationGreen), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(r.Min.X+boxThickness+pad, r.Min.Y+boxThickness+pad+face.Ascent),
	}
	d.DrawString(label)
}
