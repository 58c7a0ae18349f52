package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"page image", PageImageName("report", 3), "report_page_3.png"},
		{"page text", PageTextName("report", 3), "report_page_3.txt"},
		{"cropped image", CroppedImageName("report", 3, 2), "report_page_3_img_2.jpg"},
		{"page result", PageResultName("report", 3), "report_page_3_results.json"},
		{"aggregated", AggregatedJSONName("report"), "report_aggregated_results.json"},
		{"combined markdown", CombinedOutputName("report", "markdown"), "report_combined.markdown"},
		{"combined html", CombinedOutputName("report", "html"), "report_combined.html"},
		{"combined txt", CombinedOutputName("report", "txt"), "report_combined.txt"},
		{"combined unknown falls back to txt", CombinedOutputName("report", "weird"), "report_combined.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestRunDir(t *testing.T) {
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	rd, err := d.Run("run-42")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, dir := range []string{rd.ImagesDir(), rd.TextDir(), rd.TempDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
		}
	}

	if got := rd.PageImagePath("doc", 1); filepath.Base(got) != "doc_page_1.png" {
		t.Errorf("PageImagePath() = %q", got)
	}

	t.Run("close removes workspace", func(t *testing.T) {
		if err := rd.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, err := os.Stat(rd.Path()); !os.IsNotExist(err) {
			t.Errorf("expected workspace removed, stat err = %v", err)
		}
		// Close is idempotent.
		if err := rd.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}
