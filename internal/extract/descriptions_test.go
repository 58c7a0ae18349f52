package extract

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMatchDescriptions(t *testing.T) {
	t.Run("structured json match", func(t *testing.T) {
		cleaned := `{
			"page_content": [
				{"type": "paragraph", "text": "intro"},
				{"type": "image_description", "image_id": 1, "description": "[START DESCRIPTION]A bar chart of revenue[END DESCRIPTION]"},
				{"type": "image_description", "image_id": 2, "description": "[START DESCRIPTION]Company logo[END DESCRIPTION]"}
			]
		}`
		got := MatchDescriptions(cleaned, "json", 2)
		if got[1] != "A bar chart of revenue" {
			t.Errorf("descriptions[1] = %q", got[1])
		}
		if got[2] != "Company logo" {
			t.Errorf("descriptions[2] = %q", got[2])
		}
	})

	t.Run("regex fallback for markdown", func(t *testing.T) {
		cleaned := "# Title\n\nImage #1: [START DESCRIPTION]A photo of the office[END DESCRIPTION]\n\nMore text.\n\nImage #2: [START DESCRIPTION]A pie chart[END DESCRIPTION]"
		got := MatchDescriptions(cleaned, "markdown", 2)
		if got[1] != "A photo of the office" {
			t.Errorf("descriptions[1] = %q", got[1])
		}
		if got[2] != "A pie chart" {
			t.Errorf("descriptions[2] = %q", got[2])
		}
	})

	t.Run("regex fallback for malformed json", func(t *testing.T) {
		cleaned := `{"broken": Image #1: [START DESCRIPTION]still findable[END DESCRIPTION]`
		got := MatchDescriptions(cleaned, "json", 1)
		if got[1] != "still findable" {
			t.Errorf("descriptions[1] = %q", got[1])
		}
	})

	t.Run("unmarked single line fallback", func(t *testing.T) {
		cleaned := "Image #1: a simple caption\ntext continues"
		got := MatchDescriptions(cleaned, "txt", 1)
		if got[1] != "a simple caption" {
			t.Errorf("descriptions[1] = %q", got[1])
		}
	})

	t.Run("placeholder for unmatched ids", func(t *testing.T) {
		cleaned := "Image #1: [START DESCRIPTION]described[END DESCRIPTION]"
		got := MatchDescriptions(cleaned, "markdown", 3)
		if got[1] != "described" {
			t.Errorf("descriptions[1] = %q", got[1])
		}
		if got[2] != Placeholder(2) {
			t.Errorf("descriptions[2] = %q, want placeholder", got[2])
		}
		if got[3] != Placeholder(3) {
			t.Errorf("descriptions[3] = %q, want placeholder", got[3])
		}
	})

	t.Run("all ids covered exactly once", func(t *testing.T) {
		got := MatchDescriptions("no descriptions here", "txt", 4)
		if len(got) != 4 {
			t.Fatalf("expected 4 descriptions, got %d", len(got))
		}
		for id := 1; id <= 4; id++ {
			if got[id] == "" {
				t.Errorf("descriptions[%d] is empty", id)
			}
		}
	})

	t.Run("zero images yields empty map", func(t *testing.T) {
		got := MatchDescriptions("whatever", "txt", 0)
		if len(got) != 0 {
			t.Errorf("expected empty map, got %v", got)
		}
	})
}

func TestStripContentMarkers(t *testing.T) {
	t.Run("markdown text", func(t *testing.T) {
		content := "Image #1: [START DESCRIPTION]a chart[END DESCRIPTION]"
		got := StripContentMarkers(content, "markdown")
		if strings.Contains(got, startMarker) || strings.Contains(got, endMarker) {
			t.Errorf("markers not removed: %q", got)
		}
		if !strings.Contains(got, "a chart") {
			t.Errorf("description text lost: %q", got)
		}
	})

	t.Run("json recursion", func(t *testing.T) {
		content := `{"items": [{"description": "[START DESCRIPTION]nested[END DESCRIPTION]"}]}`
		got := StripContentMarkers(content, "json")

		var doc map[string]any
		if err := json.Unmarshal([]byte(got), &doc); err != nil {
			t.Fatalf("result is not valid JSON: %v", err)
		}
		if strings.Contains(got, startMarker) {
			t.Errorf("markers survive in JSON strings: %q", got)
		}
		items := doc["items"].([]any)
		desc := items[0].(map[string]any)["description"].(string)
		if desc != "nested" {
			t.Errorf("description = %q, want nested", desc)
		}
	})

	t.Run("invalid json treated as text", func(t *testing.T) {
		content := "not json [START DESCRIPTION]x[END DESCRIPTION]"
		got := StripContentMarkers(content, "json")
		if strings.Contains(got, startMarker) {
			t.Errorf("markers not removed: %q", got)
		}
	})
}
