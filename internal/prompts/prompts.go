// Package prompts provides the extraction and grounding prompt templates.
//
// Templates are embedded .tmpl files, one extraction template per output
// format plus one grounding template, and are parsed once at package init.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Formats lists the output formats an extraction prompt exists for.
var Formats = []string{"json", "markdown", "html", "txt"}

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ExtractionData parameterizes an extraction prompt.
type ExtractionData struct {
	NumImages  int
	MaxImageID int
}

// GroundingData parameterizes the grounding prompt.
type GroundingData struct {
	RawText       string
	ExtractedText string
}

// SupportedFormat reports whether an extraction template exists for format.
func SupportedFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Extraction renders the extraction prompt for the given output format.
func Extraction(format string, data ExtractionData) (string, error) {
	if !SupportedFormat(format) {
		return "", fmt.Errorf("no extraction prompt for format %q", format)
	}
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, "extract_"+format+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return sb.String(), nil
}

// Grounding renders the grounding prompt embedding the raw page text and
// the previously extracted content.
func Grounding(data GroundingData) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, "grounding.tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render grounding prompt: %w", err)
	}
	return sb.String(), nil
}
