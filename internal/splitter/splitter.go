// Package splitter turns a source document into per-page images and raw
// text ready for content extraction.
//
// PDFs are rasterized through a converter chain tried in priority order;
// the first strategy that yields at least one page wins. Office documents
// are converted to an intermediate PDF first, single images become a
// one-page document.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/document"
	"github.com/Shivank1006/doc-data/internal/home"
)

var (
	// ErrUnsupportedFormat is returned for documents that are not PDF,
	// DOCX, PPTX, or a supported image type.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoPages is returned when every conversion strategy failed to
	// produce a single page image.
	ErrNoPages = errors.New("no page images produced")
)

// Result holds the split output. PageImagePaths is contiguous and 1-based
// by index (entry 0 is page 1). PageTextPaths is aligned by index with ""
// for pages that have no recoverable text; its length may differ from
// PageImagePaths when a converter dropped failing pages.
type Result struct {
	SourceKind     document.Kind
	PageImagePaths []string
	PageTextPaths  []string
	PageCount      int
}

// Splitter splits documents into page artifacts.
type Splitter struct {
	cfg    config.SplitterConfig
	chain  []Converter
	logger *slog.Logger
}

// New creates a Splitter with the default converter chain.
func New(cfg config.SplitterConfig, logger *slog.Logger) *Splitter {
	return &Splitter{
		cfg: cfg,
		chain: []Converter{
			&pdftoppmConverter{dpi: cfg.PDFDPI, timeout: cfg.ConversionTimeout, logger: logger},
			&sofficeConverter{timeout: cfg.ConversionTimeout, logger: logger},
			&placeholderConverter{logger: logger},
		},
		logger: logger,
	}
}

// NewWithChain creates a Splitter with an explicit converter chain.
func NewWithChain(cfg config.SplitterConfig, chain []Converter, logger *slog.Logger) *Splitter {
	return &Splitter{cfg: cfg, chain: chain, logger: logger}
}

// Split converts the source document into page images and per-page text
// inside the run workspace.
func (s *Splitter) Split(ctx context.Context, src *document.Source, rd *home.RunDir) (*Result, error) {
	logger := s.logger.With("run_id", src.RunID, "kind", src.Kind)

	switch src.Kind {
	case document.KindPDF:
		return s.splitPDF(ctx, src.Path, src.BaseFilename, rd, logger)
	case document.KindDOCX, document.KindPPTX:
		pdfPath, err := officeToPDF(ctx, src.Path, rd.TempDir(), s.cfg.ConversionTimeout)
		if err != nil {
			return nil, fmt.Errorf("office conversion failed: %w", err)
		}
		logger.Info("converted office document to pdf", "pdf", pdfPath)
		res, err := s.splitPDF(ctx, pdfPath, src.BaseFilename, rd, logger)
		if err != nil {
			return nil, err
		}
		res.SourceKind = src.Kind
		return res, nil
	case document.KindImage:
		return s.splitImage(src, rd, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.Kind)
	}
}

func (s *Splitter) splitPDF(ctx context.Context, pdfPath, base string, rd *home.RunDir, logger *slog.Logger) (*Result, error) {
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	logger.Info("splitting pdf", "pages", pageCount)

	textPaths := s.collectTextPaths(pdfPath, base, rd, pageCount, logger)

	images, err := convertWithChain(ctx, s.chain, pdfPath, rd.ImagesDir(), base, logger)
	if err != nil {
		return nil, err
	}

	for i, p := range images {
		w, h, err := standardizeImage(p, p, s.cfg.MaxImageDimension)
		if err != nil {
			logger.Warn("failed to standardize page image", "page", i+1, "error", err)
			continue
		}
		logger.Debug("page image ready", "page", i+1, "width", w, "height", h)
	}

	return &Result{
		SourceKind:     document.KindPDF,
		PageImagePaths: images,
		PageTextPaths:  textPaths,
		PageCount:      len(images),
	}, nil
}

// convertWithChain tries each converter in priority order; the first one
// that yields at least one page image wins. Earlier failures are logged
// and swallowed. All strategies exhausted without a page is ErrNoPages.
func convertWithChain(ctx context.Context, chain []Converter, pdfPath, outDir, base string, logger *slog.Logger) ([]string, error) {
	for _, conv := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		images, err := conv.Convert(ctx, pdfPath, outDir, base)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				logger.Debug("converter unavailable", "converter", conv.Name())
			} else {
				logger.Warn("converter failed", "converter", conv.Name(), "error", err)
			}
			continue
		}
		if len(images) > 0 {
			logger.Info("pdf converted", "converter", conv.Name(), "page_images", len(images))
			return images, nil
		}
		logger.Warn("converter produced no pages", "converter", conv.Name())
	}
	return nil, ErrNoPages
}

// collectTextPaths extracts raw page text and returns text file paths
// aligned by page index ("" where no text was recovered).
func (s *Splitter) collectTextPaths(pdfPath, base string, rd *home.RunDir, pageCount int, logger *slog.Logger) []string {
	texts := extractPageTexts(pdfPath, rd.TextDir(), base, pageCount, logger)
	paths := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			continue
		}
		paths[i] = rd.PageTextPath(base, i+1)
	}
	return paths
}

func (s *Splitter) splitImage(src *document.Source, rd *home.RunDir, logger *slog.Logger) (*Result, error) {
	dst := rd.PageImagePath(src.BaseFilename, 1)
	w, h, err := standardizeImage(src.Path, dst, s.cfg.MaxImageDimension)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize image: %w", err)
	}
	logger.Info("image source standardized", "width", w, "height", h)

	return &Result{
		SourceKind:     document.KindImage,
		PageImagePaths: []string{dst},
		PageTextPaths:  []string{""},
		PageCount:      1,
	}, nil
}
