// Package extract implements per-page content extraction: region
// detection, cropping, the vision extraction call, description matching
// and the optional grounding pass.
//
// A page moves through Detect, Crop, ExtractContent, Ground and Finalize.
// Any failure finalizes that page as failed; it never propagates to
// sibling pages.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/detect"
	"github.com/Shivank1006/doc-data/internal/home"
	"github.com/Shivank1006/doc-data/internal/prompts"
	"github.com/Shivank1006/doc-data/internal/results"
	"github.com/Shivank1006/doc-data/internal/storage"
	"github.com/Shivank1006/doc-data/internal/vision"
)

// Extractor processes single pages into PageResults.
type Extractor struct {
	detector *detect.Detector
	provider vision.Provider
	store    storage.Store
	prefixes config.StorageConfig
	logger   *slog.Logger
}

// New creates an Extractor.
func New(detector *detect.Detector, provider vision.Provider, store storage.Store, prefixes config.StorageConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		detector: detector,
		provider: provider,
		store:    store,
		prefixes: prefixes,
		logger:   logger,
	}
}

// PageRequest identifies one page to process. RawTextRef is empty when the
// splitter recovered no text for the page.
type PageRequest struct {
	RunID        string
	BaseFilename string
	PageNumber   int
	OutputFormat string
	PageImageRef string
	RawTextRef   string
}

// croppedRegion pairs a detected region with its persisted crop.
type croppedRegion struct {
	region detect.Region
	ref    string
}

// ExtractPage runs the page state machine and always returns a PageResult.
// Errors and panics finalize the page as failed with the cause captured.
func (e *Extractor) ExtractPage(ctx context.Context, req *PageRequest) (res *results.PageResult) {
	logger := e.logger.With("run_id", req.RunID, "page", req.PageNumber)

	res = &results.PageResult{
		RunID:             req.RunID,
		PageNumber:        req.PageNumber,
		BaseFilename:      req.BaseFilename,
		OutputFormat:      req.OutputFormat,
		PageImageRef:      req.PageImageRef,
		RawTextRef:        req.RawTextRef,
		ImageDescriptions: []results.ImageDescription{},
		Status:            results.StatusFailed,
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("page processing panicked", "panic", r)
			res.Status = results.StatusFailed
			res.Error = fmt.Sprintf("panic: %v", r)
			res.Extracted = nil
			res.Grounded = nil
		}
	}()

	if err := e.process(ctx, req, res, logger); err != nil {
		logger.Warn("page processing failed", "error", err)
		res.Status = results.StatusFailed
		res.Error = err.Error()
		res.Extracted = nil
		res.Grounded = nil
		return res
	}

	res.Status = results.StatusSuccess
	return res
}

func (e *Extractor) process(ctx context.Context, req *PageRequest, res *results.PageResult, logger *slog.Logger) error {
	if !prompts.SupportedFormat(req.OutputFormat) {
		return fmt.Errorf("unsupported output format: %q", req.OutputFormat)
	}

	data, err := e.store.Read(ctx, req.PageImageRef)
	if err != nil {
		return fmt.Errorf("failed to load page image: %w", err)
	}
	img, err := detect.DecodePageImage(data)
	if err != nil {
		return fmt.Errorf("failed to decode page image: %w", err)
	}

	regions := e.detector.Detect(ctx, img, detect.ClassPicture)
	logger.Info("regions detected", "count", len(regions))

	cropped := e.cropRegions(ctx, req, img, regions, logger)

	cleaned, err := e.extractContent(ctx, req, img, cropped, logger)
	if err != nil {
		return err
	}

	descs := MatchDescriptions(cleaned, req.OutputFormat, len(cropped))
	content := StripContentMarkers(cleaned, req.OutputFormat)
	res.Extracted = results.ContentValue(content, req.OutputFormat)

	refs := make(map[int]string, len(cropped))
	for i, cr := range cropped {
		id := i + 1
		refs[id] = cr.ref
		res.ImageDescriptions = append(res.ImageDescriptions, results.ImageDescription{
			ImageID:         id,
			Description:     descs[id],
			Coordinates:     cr.region.Box,
			CroppedImageRef: cr.ref,
		})
	}
	res.DetectedImageRefs = results.RefsByID(refs)

	res.Grounded = e.ground(ctx, req, content, res.Extracted, logger)
	return nil
}

// cropRegions crops each region from the original image in detection
// order and persists the crops. Image ids are assigned sequentially over
// the crops that succeed; a failed crop is skipped and does not consume
// an id.
func (e *Extractor) cropRegions(ctx context.Context, req *PageRequest, img *detect.PageImage, regions []detect.Region, logger *slog.Logger) []croppedRegion {
	var cropped []croppedRegion
	for _, region := range regions {
		data, err := Crop(img.Image, region.Box)
		if err != nil {
			logger.Warn("failed to crop region, skipping", "error", err)
			continue
		}
		id := len(cropped) + 1
		key := path.Join(e.prefixes.CroppedPrefix, req.RunID,
			home.CroppedImageName(req.BaseFilename, req.PageNumber, id))
		ref, err := e.store.Save(ctx, key, data)
		if err != nil {
			logger.Warn("failed to persist crop, skipping", "error", err)
			continue
		}
		cropped = append(cropped, croppedRegion{region: region, ref: ref})
	}
	return cropped
}

// extractContent annotates the page with the numbered boxes, runs the
// extraction call and returns the cleaned response text.
func (e *Extractor) extractContent(ctx context.Context, req *PageRequest, img *detect.PageImage, cropped []croppedRegion, logger *slog.Logger) (string, error) {
	regions := make([]detect.Region, len(cropped))
	for i, cr := range cropped {
		regions[i] = cr.region
	}

	annotated, err := EncodePNG(Annotate(img.Image, regions))
	if err != nil {
		return "", err
	}

	prompt, err := prompts.Extraction(req.OutputFormat, prompts.ExtractionData{
		NumImages:  len(cropped),
		MaxImageID: len(cropped),
	})
	if err != nil {
		return "", err
	}

	raw, err := e.provider.Analyze(ctx, &vision.Request{
		Prompt:   prompt,
		Image:    annotated,
		MIMEType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("content extraction call failed: %w", err)
	}

	cleaned := CleanResponse(raw, req.OutputFormat)
	if cleaned == "" {
		return "", vision.ErrEmptyResponse
	}
	logger.Info("content extracted", "provider", e.provider.Name(), "chars", len(cleaned))
	return cleaned, nil
}

// ground runs the second-pass grounding call against the page's raw text.
// Grounding never blocks page completion: any failure falls back to the
// extracted content unchanged.
func (e *Extractor) ground(ctx context.Context, req *PageRequest, content string, extracted []byte, logger *slog.Logger) []byte {
	if req.RawTextRef == "" {
		return extracted
	}
	rawText, err := e.store.Read(ctx, req.RawTextRef)
	if err != nil {
		logger.Warn("failed to load raw text, skipping grounding", "error", err)
		return extracted
	}
	if strings.TrimSpace(string(rawText)) == "" {
		return extracted
	}

	prompt, err := prompts.Grounding(prompts.GroundingData{
		RawText:       string(rawText),
		ExtractedText: content,
	})
	if err != nil {
		logger.Warn("failed to render grounding prompt", "error", err)
		return extracted
	}

	raw, err := e.provider.Analyze(ctx, &vision.Request{Prompt: prompt})
	if err != nil {
		logger.Warn("grounding call failed, using extracted content", "error", err)
		return extracted
	}

	cleaned := CleanResponse(raw, req.OutputFormat)
	if cleaned == "" {
		logger.Warn("grounding returned empty response, using extracted content")
		return extracted
	}
	logger.Info("content grounded", "chars", len(cleaned))
	return results.ContentValue(StripContentMarkers(cleaned, req.OutputFormat), req.OutputFormat)
}
