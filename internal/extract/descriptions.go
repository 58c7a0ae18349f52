package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	startMarker = "[START DESCRIPTION]"
	endMarker   = "[END DESCRIPTION]"
)

// Description-block patterns tried in order during the fallback pass.
// All are case-insensitive and match across newlines.
var descriptionPatterns = []*regexp.Regexp{
	// Image #3: [START DESCRIPTION]...[END DESCRIPTION]
	regexp.MustCompile(`(?is)image\s*#?(\d+)\s*:?\s*\[START DESCRIPTION\]\s*(.*?)\s*\[END DESCRIPTION\]`),
	// [START DESCRIPTION] Image #3: ... [END DESCRIPTION]
	regexp.MustCompile(`(?is)\[START DESCRIPTION\]\s*image\s*#?(\d+)\s*[:.]?\s*(.*?)\s*\[END DESCRIPTION\]`),
	// Image #3: single-line description without markers
	regexp.MustCompile(`(?i)image\s*#?(\d+)\s*:\s*([^\n\[]+)`),
}

// Placeholder returns the deterministic description used when no model
// description matched an image id.
func Placeholder(imageID int) string {
	return fmt.Sprintf("No description available for image %d", imageID)
}

// MatchDescriptions reconciles the cleaned extraction response with the
// assigned image ids 1..numImages. It tries structured JSON matching
// first, then regex matching on the raw text, and fills remaining ids
// with a placeholder so no id ships without a description.
func MatchDescriptions(cleaned, format string, numImages int) map[int]string {
	found := map[int]string{}
	if format == "json" {
		found = structuredDescriptions(cleaned)
	}
	if len(found) == 0 {
		found = patternDescriptions(cleaned)
	}

	out := make(map[int]string, numImages)
	for id := 1; id <= numImages; id++ {
		desc := strings.TrimSpace(stripMarkers(found[id]))
		if desc == "" {
			desc = Placeholder(id)
		}
		out[id] = desc
	}
	return out
}

// structuredDescriptions walks a parsed JSON response looking for objects
// carrying both an image id and a description, wherever they nest.
func structuredDescriptions(cleaned string) map[int]string {
	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil
	}
	found := map[int]string{}
	walkForDescriptions(doc, found)
	return found
}

func walkForDescriptions(node any, found map[int]string) {
	switch v := node.(type) {
	case map[string]any:
		id, hasID := numericField(v, "image_id")
		desc, hasDesc := v["description"].(string)
		if hasID && hasDesc && strings.TrimSpace(desc) != "" {
			if _, seen := found[id]; !seen {
				found[id] = desc
			}
		}
		for _, child := range v {
			walkForDescriptions(child, found)
		}
	case []any:
		for _, child := range v {
			walkForDescriptions(child, found)
		}
	}
}

func numericField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case string:
		var id int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &id); err == nil {
			return id, true
		}
	}
	return 0, false
}

// patternDescriptions scans raw text for per-image description blocks.
// The first pattern that matches anything wins; first match per id is kept.
func patternDescriptions(text string) map[int]string {
	for _, pattern := range descriptionPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		found := make(map[int]string, len(matches))
		for _, m := range matches {
			var id int
			if _, err := fmt.Sscanf(m[1], "%d", &id); err != nil {
				continue
			}
			if _, seen := found[id]; !seen {
				found[id] = m[2]
			}
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

// stripMarkers removes the description delimiter tokens from text.
func stripMarkers(s string) string {
	s = strings.ReplaceAll(s, startMarker, "")
	s = strings.ReplaceAll(s, endMarker, "")
	return s
}

// StripContentMarkers removes delimiter tokens from final page content.
// JSON content is walked recursively so string values anywhere in the
// structure are cleaned; other formats are treated as plain text.
func StripContentMarkers(content, format string) string {
	if format == "json" {
		var doc any
		if err := json.Unmarshal([]byte(content), &doc); err == nil {
			cleaned := cleanJSONValue(doc)
			if b, err := json.Marshal(cleaned); err == nil {
				return string(b)
			}
		}
	}
	return stripMarkers(content)
}

func cleanJSONValue(node any) any {
	switch v := node.(type) {
	case string:
		return strings.TrimSpace(stripMarkers(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = cleanJSONValue(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = cleanJSONValue(child)
		}
		return out
	default:
		return v
	}
}
