package prompts

import (
	"strings"
	"testing"
)

func TestExtraction(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			prompt, err := Extraction(format, ExtractionData{NumImages: 3, MaxImageID: 3})
			if err != nil {
				t.Fatalf("Extraction(%s) error = %v", format, err)
			}
			if !strings.Contains(prompt, "3 images") {
				t.Errorf("prompt does not mention image count:\n%s", prompt)
			}
			if !strings.Contains(prompt, "[START DESCRIPTION]") || !strings.Contains(prompt, "[END DESCRIPTION]") {
				t.Error("prompt missing description markers")
			}
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := Extraction("yaml", ExtractionData{}); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestGrounding(t *testing.T) {
	prompt, err := Grounding(GroundingData{
		RawText:       "the raw page text",
		ExtractedText: "# The Extracted Heading",
	})
	if err != nil {
		t.Fatalf("Grounding() error = %v", err)
	}
	if !strings.Contains(prompt, "the raw page text") {
		t.Error("prompt missing raw text")
	}
	if !strings.Contains(prompt, "# The Extracted Heading") {
		t.Error("prompt missing extracted text")
	}
}

func TestSupportedFormat(t *testing.T) {
	for _, format := range Formats {
		if !SupportedFormat(format) {
			t.Errorf("SupportedFormat(%q) = false", format)
		}
	}
	if SupportedFormat("yaml") {
		t.Error("SupportedFormat(yaml) = true")
	}
}
