// Package detect wraps the layout-detection model: preprocessing a page
// image into a model tensor, calling the inference capability, and mapping
// raw detections back into page-image pixel space.
package detect

import (
	"context"
	"log/slog"
)

// Box is an axis-aligned bounding box in page-image pixel space.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Region is a scored, classed bounding box found on a page image.
type Region struct {
	Box        Box
	Confidence float64
	ClassID    int
	Label      string
}

// Detector runs region detection on page images.
type Detector struct {
	inf       Inferencer
	inputSize int
	threshold float64
	logger    *slog.Logger
}

// DetectorConfig holds configuration for a Detector.
type DetectorConfig struct {
	Inferencer          Inferencer
	InputSize           int
	ConfidenceThreshold float64
	Logger              *slog.Logger
}

// NewDetector creates a detector over an inference capability.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 640
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		inf:       cfg.Inferencer,
		inputSize: cfg.InputSize,
		threshold: cfg.ConfidenceThreshold,
		logger:    log,
	}
}

// Detect runs inference on a page image and returns regions rescaled to the
// image's pixel space. classFilter restricts results to one class id; pass
// ClassAny to keep all classes.
//
// Detect never fails: inference errors degrade to zero regions so a bad
// page cannot abort its siblings.
func (d *Detector) Detect(ctx context.Context, img *PageImage, classFilter int) []Region {
	tensor := Preprocess(img.Image, d.inputSize)

	result, err := d.inf.Infer(ctx, tensor)
	if err != nil {
		d.logger.Warn("inference failed, degrading to zero regions", "error", err)
		return nil
	}
	if result.ClassCount > 0 {
		if err := ValidateLabels(result.ClassCount); err != nil {
			d.logger.Warn("label table mismatch, degrading to zero regions", "error", err)
			return nil
		}
	}

	return d.postprocess(result, tensor, classFilter)
}

// postprocess filters, rescales and clips raw detections.
func (d *Detector) postprocess(result *InferenceResult, t *Tensor, classFilter int) []Region {
	imgW := float64(t.ImageWidth)
	imgH := float64(t.ImageHeight)
	scaleW := imgW / float64(result.InputSize)
	scaleH := imgH / float64(result.InputSize)

	var regions []Region
	for _, det := range result.Detections {
		conf := float64(det[4])
		classID := int(det[5])

		if classFilter != ClassAny && classID != classFilter {
			continue
		}
		if conf < d.threshold {
			continue
		}
		label, ok := LabelFor(classID)
		if !ok {
			continue
		}

		x1 := clamp(float64(det[0])*scaleW, 0, imgW)
		y1 := clamp(float64(det[1])*scaleH, 0, imgH)
		x2 := clamp(float64(det[2])*scaleW, 0, imgW)
		y2 := clamp(float64(det[3])*scaleH, 0, imgH)

		w := x2 - x1
		h := y2 - y1
		if w <= 0 || h <= 0 {
			continue
		}

		regions = append(regions, Region{
			Box:        Box{X: x1, Y: y1, W: w, H: h},
			Confidence: conf,
			ClassID:    classID,
			Label:      label,
		})
	}
	return regions
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
