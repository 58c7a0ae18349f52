// Package results defines the per-page result document exchanged between
// the page processor and the combiner.
//
// The canonical wire shape carries flat extracted_output/grounded_output
// fields. Older producers nested the same data under page_content; the
// decoder accepts either shape, preferring the flat fields.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Shivank1006/doc-data/internal/detect"
)

// Status values for a page result.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ImageDescription is one described image region on a page. Image ids are
// 1-based and assigned in detection order. Description is never empty: an
// id with no model-provided description receives a placeholder.
type ImageDescription struct {
	ImageID         int        `json:"image_id"`
	Description     string     `json:"description"`
	Coordinates     detect.Box `json:"coordinates"`
	CroppedImageRef string     `json:"cropped_image_ref,omitempty"`
}

// PageResult is the immutable outcome of processing one page.
type PageResult struct {
	RunID        string `json:"run_id"`
	PageNumber   int    `json:"page_number"`
	BaseFilename string `json:"base_filename"`
	OutputFormat string `json:"output_format"`

	PageImageRef string `json:"page_image_ref,omitempty"`
	RawTextRef   string `json:"raw_text_ref,omitempty"`

	// Extracted and Grounded hold the page content in the requested output
	// format: a JSON value for the json format, a JSON-encoded string
	// otherwise. Grounded equals Extracted when no raw text was available.
	Extracted json.RawMessage `json:"extracted_output,omitempty"`
	Grounded  json.RawMessage `json:"grounded_output,omitempty"`

	ImageDescriptions []ImageDescription `json:"image_descriptions"`
	DetectedImageRefs map[string]string  `json:"detected_image_refs,omitempty"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// pageContent is the legacy nested content shape.
type pageContent struct {
	Extracted json.RawMessage `json:"extracted"`
	Grounded  json.RawMessage `json:"grounded"`
}

// UnmarshalJSON decodes either the canonical flat shape or the legacy
// nested page_content shape. Flat fields win when both are present.
func (p *PageResult) UnmarshalJSON(data []byte) error {
	type alias PageResult
	aux := struct {
		*alias
		PageContent *pageContent `json:"page_content"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.PageContent != nil {
		if isNullOrEmpty(p.Extracted) {
			p.Extracted = aux.PageContent.Extracted
		}
		if isNullOrEmpty(p.Grounded) {
			p.Grounded = aux.PageContent.Grounded
		}
	}
	return nil
}

func isNullOrEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// HasContent reports whether the result carries usable grounded content.
func (p *PageResult) HasContent() bool {
	return !isNullOrEmpty(p.Grounded)
}

// GroundedText returns the grounded content as plain text: unquoted when it
// is a JSON string, indent-printed otherwise (json-format pages).
func (p *PageResult) GroundedText() string {
	return rawToText(p.Grounded)
}

// ExtractedText returns the extracted content as plain text.
func (p *PageResult) ExtractedText() string {
	return rawToText(p.Extracted)
}

func rawToText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// TextValue encodes plain text as a content value.
func TextValue(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// ContentValue encodes content for the given output format: json content is
// parsed into a JSON value when possible, other formats stay text.
func ContentValue(content, format string) json.RawMessage {
	if format == "json" && json.Valid([]byte(content)) {
		return json.RawMessage(content)
	}
	return TextValue(content)
}

// RefsByID converts an image-id→ref map into the wire string-keyed form.
func RefsByID(refs map[int]string) map[string]string {
	if len(refs) == 0 {
		return nil
	}
	out := make(map[string]string, len(refs))
	for id, ref := range refs {
		out[strconv.Itoa(id)] = ref
	}
	return out
}

// Encode marshals the result as indented JSON.
func (p *PageResult) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode page result: %w", err)
	}
	return data, nil
}
