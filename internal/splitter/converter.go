package splitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnavailable signals that a converter cannot run in this environment
// (missing binary, unreadable input). The chain moves on to the next
// strategy.
var ErrUnavailable = errors.New("converter unavailable")

// Converter renders a PDF into per-page images. Implementations render
// pages individually and drop pages that fail; returned paths are in page
// order, renumbered contiguously from 1.
type Converter interface {
	Name() string

	// Convert renders pdfPath into outDir using the artifact naming
	// convention for base. Returns the rendered image paths.
	Convert(ctx context.Context, pdfPath, outDir, base string) ([]string, error)
}

// pdftoppmConverter renders pages with poppler's pdftoppm at a fixed DPI.
type pdftoppmConverter struct {
	dpi     int
	timeout time.Duration
	logger  *slog.Logger
}

func (c *pdftoppmConverter) Name() string { return "pdftoppm" }

func (c *pdftoppmConverter) Convert(ctx context.Context, pdfPath, outDir, base string) ([]string, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, ErrUnavailable
	}
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	var paths []string
	outputNum := 0
	for page := 1; page <= pageCount; page++ {
		data, err := c.renderPage(ctx, pdfPath, page)
		if err != nil {
			// Failed pages are dropped, not replaced with a gap.
			c.logger.Warn("page render failed, dropping page",
				"converter", c.Name(), "page", page, "error", err)
			continue
		}
		outputNum++
		dst := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.png", base, outputNum))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write page image: %w", err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// renderPage renders a single page to PNG bytes via pdftoppm.
func (c *pdftoppmConverter) renderPage(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "doc-data-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)

	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(c.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

// sofficeConverter rasterizes pages with headless LibreOffice, one page at
// a time via single-page sub-documents (soffice only renders the first page
// of a PDF to PNG).
type sofficeConverter struct {
	timeout time.Duration
	logger  *slog.Logger
}

func (c *sofficeConverter) Name() string { return "soffice" }

func (c *sofficeConverter) Convert(ctx context.Context, pdfPath, outDir, base string) ([]string, error) {
	if _, err := exec.LookPath("soffice"); err != nil {
		return nil, ErrUnavailable
	}
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "doc-data-soffice-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var paths []string
	outputNum := 0
	for page := 1; page <= pageCount; page++ {
		singlePDF := filepath.Join(tmpDir, fmt.Sprintf("p%d.pdf", page))
		if err := api.TrimFile(pdfPath, singlePDF, []string{strconv.Itoa(page)}, nil); err != nil {
			c.logger.Warn("page trim failed, dropping page",
				"converter", c.Name(), "page", page, "error", err)
			continue
		}

		cmdCtx, cancel := context.WithTimeout(ctx, c.timeout)
		cmd := exec.CommandContext(cmdCtx, "soffice",
			"--headless", "--convert-to", "png", "--outdir", tmpDir, singlePDF)
		output, err := cmd.CombinedOutput()
		cancel()
		if err != nil {
			c.logger.Warn("page render failed, dropping page",
				"converter", c.Name(), "page", page,
				"error", err, "output", string(output))
			continue
		}

		rendered := filepath.Join(tmpDir, fmt.Sprintf("p%d.png", page))
		data, err := os.ReadFile(rendered)
		if err != nil {
			c.logger.Warn("page render output missing, dropping page",
				"converter", c.Name(), "page", page, "error", err)
			continue
		}

		outputNum++
		dst := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.png", base, outputNum))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write page image: %w", err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// officeToPDF converts a DOCX/PPTX document to an intermediate PDF with
// headless LibreOffice and returns the PDF path.
func officeToPDF(ctx context.Context, officePath, tmpDir string, timeout time.Duration) (string, error) {
	if _, err := exec.LookPath("soffice"); err != nil {
		return "", fmt.Errorf("soffice not found in PATH: %w", err)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "soffice",
		"--headless", "--convert-to", "pdf", "--outdir", tmpDir, officePath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("soffice conversion failed: %w (output: %s)", err, string(output))
	}

	base := filepath.Base(officePath)
	pdfPath := filepath.Join(tmpDir, base[:len(base)-len(filepath.Ext(base))]+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("soffice did not produce expected PDF: %w", err)
	}
	return pdfPath, nil
}
