package detect

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Tensor is a normalized, channel-first float32 image ready for inference.
type Tensor struct {
	Data []float32 // CHW layout, values in [0,1]
	Size int       // model input resolution (square)

	// Original image dimensions, needed to rescale detections back.
	ImageWidth  int
	ImageHeight int
}

// Preprocess resizes img to the model's square input resolution, normalizes
// channel values to [0,1] and lays the result out channel-first.
func Preprocess(img image.Image, size int) *Tensor {
	bounds := img.Bounds()

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := resized.PixOffset(x, y)
			pos := y*size + x
			data[pos] = float32(resized.Pix[i]) / 255.0
			data[plane+pos] = float32(resized.Pix[i+1]) / 255.0
			data[2*plane+pos] = float32(resized.Pix[i+2]) / 255.0
		}
	}

	return &Tensor{
		Data:        data,
		Size:        size,
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
	}
}
