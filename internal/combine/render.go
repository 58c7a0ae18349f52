package combine

import (
	"fmt"
	"strings"
)

// Page separators for the concatenated formats.
const (
	txtSeparator      = "\n\n"
	markdownSeparator = "\n\n---\n\n"
)

// Render concatenates the grounded content of each page into one combined
// document in the given format. Rendering is a pure function of the
// aggregated document, so re-rendering the same document is idempotent.
func Render(doc *Document, format string) (string, error) {
	switch format {
	case "txt":
		return renderJoined(doc, txtSeparator), nil
	case "markdown":
		return renderJoined(doc, markdownSeparator), nil
	case "html":
		return renderHTML(doc), nil
	default:
		return "", fmt.Errorf("unsupported combined format: %q", format)
	}
}

func renderJoined(doc *Document, separator string) string {
	parts := make([]string, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		text := strings.TrimSpace(page.GroundedText())
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, separator) + "\n"
}

func renderHTML(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", doc.BaseFilename)
	sb.WriteString("</head>\n<body>\n")
	for _, page := range doc.Pages {
		text := strings.TrimSpace(page.GroundedText())
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "<div class=\"page\" id=\"page-%d\">\n", page.PageNumber)
		sb.WriteString(text)
		sb.WriteString("\n</div>\n")
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
