package splitter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	rscpdf "rsc.io/pdf"
)

// extractPageTexts pulls raw text from each PDF page and writes one text
// file per non-empty page. The returned slice is index-aligned with page
// numbers (entry 0 is page 1); pages with no recoverable text hold "".
//
// Primary extraction parses the page content stream. When that yields
// nothing the page is rebuilt as a single-page sub-document and re-read
// with a second parser, which keeps the text page-aligned even for
// documents where the bulk extractor returns undifferentiated text.
func extractPageTexts(pdfPath, outDir, base string, pageCount int, logger *slog.Logger) []string {
	pdfCtx, err := openPDFContext(pdfPath)
	if err != nil {
		logger.Warn("failed to open pdf for text extraction", "error", err)
		pdfCtx = nil
	}

	texts := make([]string, pageCount)
	for page := 1; page <= pageCount; page++ {
		text := ""
		if pdfCtx != nil {
			text, err = contentStreamText(pdfCtx, page)
			if err != nil {
				logger.Debug("content stream text extraction failed",
					"page", page, "error", err)
			}
		}
		if strings.TrimSpace(text) == "" {
			text, err = subDocumentText(pdfPath, page)
			if err != nil {
				logger.Debug("sub-document text extraction failed",
					"page", page, "error", err)
				text = ""
			}
		}

		text = strings.TrimSpace(text)
		texts[page-1] = text
		if text == "" {
			continue
		}
		dst := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.txt", base, page))
		if err := os.WriteFile(dst, []byte(text), 0o644); err != nil {
			logger.Warn("failed to write page text", "page", page, "error", err)
			texts[page-1] = ""
		}
	}
	return texts
}

func openPDFContext(pdfPath string) (*model.Context, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}
	return pdfCtx, nil
}

// contentStreamText extracts text from one page's content stream.
func contentStreamText(pdfCtx *model.Context, page int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
	if err != nil {
		return "", fmt.Errorf("failed to extract page content: %w", err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return parseTextOperators(data), nil
}

// parseTextOperators walks a decoded content stream and collects string
// operands of the text-showing operators (Tj, TJ, ', "). Positioning
// operators that start a new line (Td, TD, T*) become line breaks.
func parseTextOperators(data []byte) string {
	var sb strings.Builder
	var pending []string

	flush := func() {
		for _, s := range pending {
			sb.WriteString(s)
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			s, next := parseLiteralString(data, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] != '<':
			s, next := parseHexString(data, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case isOperatorChar(c):
			start := i
			for i < len(data) && isOperatorChar(data[i]) {
				i++
			}
			switch string(data[start:i]) {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				sb.WriteByte('\n')
				flush()
			case "Td", "TD", "T*":
				pending = pending[:0]
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
			case "ET":
				pending = pending[:0]
			}
		default:
			i++
		}
	}
	return sb.String()
}

func isOperatorChar(c byte) bool {
	return c == '\'' || c == '"' || c == '*' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseLiteralString reads a PDF literal string starting at the opening
// parenthesis. Returns the decoded string and the index past the closing
// parenthesis.
func parseLiteralString(data []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(data) {
		c := data[i]
		switch c {
		case '\\':
			if i+1 < len(data) {
				switch data[i+1] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r', 'b', 'f':
					// ignored
				case '(', ')', '\\':
					sb.WriteByte(data[i+1])
				default:
					sb.WriteByte(data[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// parseHexString reads a PDF hex string starting at '<'. Multi-byte
// encodings are not resolved; single-byte ASCII codes are kept.
func parseHexString(data []byte, start int) (string, int) {
	end := start + 1
	for end < len(data) && data[end] != '>' {
		end++
	}
	hexDigits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			return r
		}
		return -1
	}, string(data[start+1:end]))

	var sb strings.Builder
	for j := 0; j+1 < len(hexDigits); j += 2 {
		v, err := strconv.ParseUint(hexDigits[j:j+2], 16, 8)
		if err == nil && v >= 0x20 && v < 0x7f {
			sb.WriteByte(byte(v))
		}
	}
	if end < len(data) {
		end++
	}
	return sb.String(), end
}

// subDocumentText rebuilds a page as a standalone single-page PDF and
// extracts its text with the fallback parser.
func subDocumentText(pdfPath string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "doc-data-text-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	singlePDF := filepath.Join(tmpDir, "page.pdf")
	if err := api.TrimFile(pdfPath, singlePDF, []string{strconv.Itoa(page)}, nil); err != nil {
		return "", fmt.Errorf("failed to rebuild single-page document: %w", err)
	}

	r, err := rscpdf.Open(singlePDF)
	if err != nil {
		return "", fmt.Errorf("failed to open single-page document: %w", err)
	}
	if r.NumPage() < 1 {
		return "", nil
	}
	return pageContentText(r.Page(1)), nil
}

// pageContentText flattens positioned text fragments into lines, breaking
// on vertical position changes.
func pageContentText(p rscpdf.Page) string {
	content := p.Content()
	var sb strings.Builder
	lastY := -1.0
	for _, t := range content.Text {
		if lastY >= 0 && t.Y != lastY {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.S)
		lastY = t.Y
	}
	return sb.String()
}
