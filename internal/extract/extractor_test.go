package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/detect"
	"github.com/Shivank1006/doc-data/internal/results"
	"github.com/Shivank1006/doc-data/internal/storage"
	"github.com/Shivank1006/doc-data/internal/testutil"
	"github.com/Shivank1006/doc-data/internal/vision"
)

func testPrefixes() config.StorageConfig {
	return config.DefaultConfig().Storage
}

// stagePage writes a synthetic page image into the store and returns its ref.
func stagePage(t *testing.T, store storage.Store) string {
	t.Helper()
	img := testutil.SyntheticPage(640, 640)
	ref, err := store.Save(context.Background(), "images/page_1.png", testutil.PNGBytes(t, img))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return ref
}

func newTestExtractor(t *testing.T, inf detect.Inferencer, provider vision.Provider) (*Extractor, storage.Store) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	detector := detect.NewDetector(detect.DetectorConfig{
		Inferencer:          inf,
		InputSize:           640,
		ConfidenceThreshold: 0.2,
		Logger:              testutil.Logger(),
	})
	return New(detector, provider, store, testPrefixes(), testutil.Logger()), store
}

func pictureDetections(n int) *detect.InferenceResult {
	res := &detect.InferenceResult{InputSize: 640, ClassCount: 11}
	for i := 0; i < n; i++ {
		offset := float32(i * 150)
		res.Detections = append(res.Detections, detect.RawDetection{
			50 + offset, 50, 150 + offset, 150, 0.9, detect.ClassPicture,
		})
	}
	return res
}

func TestExtractPageNoDetections(t *testing.T) {
	provider := &vision.MockProvider{Responses: []string{"the page text"}}
	ex, store := newTestExtractor(t, &detect.MockInferencer{}, provider)

	res := ex.ExtractPage(context.Background(), &PageRequest{
		RunID:        "run-1",
		BaseFilename: "scan",
		PageNumber:   1,
		OutputFormat: "txt",
		PageImageRef: stagePage(t, store),
	})

	if res.Status != results.StatusSuccess {
		t.Fatalf("Status = %q, want success (error: %s)", res.Status, res.Error)
	}
	if len(res.ImageDescriptions) != 0 {
		t.Errorf("ImageDescriptions = %v, want empty", res.ImageDescriptions)
	}
	if res.ExtractedText() != "the page text" {
		t.Errorf("ExtractedText() = %q", res.ExtractedText())
	}
	if res.GroundedText() != "the page text" {
		t.Errorf("GroundedText() = %q, want extracted content without raw text", res.GroundedText())
	}
}

func TestExtractPageWithRegions(t *testing.T) {
	provider := &vision.MockProvider{Responses: []string{
		"# Report\n\nImage #1: [START DESCRIPTION]a revenue chart[END DESCRIPTION]\n\nImage #2: [START DESCRIPTION]the team photo[END DESCRIPTION]",
	}}
	ex, store := newTestExtractor(t, &detect.MockInferencer{Result: pictureDetections(2)}, provider)

	res := ex.ExtractPage(context.Background(), &PageRequest{
		RunID:        "run-1",
		BaseFilename: "report",
		PageNumber:   1,
		OutputFormat: "markdown",
		PageImageRef: stagePage(t, store),
	})

	if res.Status != results.StatusSuccess {
		t.Fatalf("Status = %q (error: %s)", res.Status, res.Error)
	}
	if len(res.ImageDescriptions) != 2 {
		t.Fatalf("expected 2 image descriptions, got %d", len(res.ImageDescriptions))
	}

	first := res.ImageDescriptions[0]
	if first.ImageID != 1 {
		t.Errorf("first ImageID = %d, want 1", first.ImageID)
	}
	if first.Description != "a revenue chart" {
		t.Errorf("first Description = %q", first.Description)
	}
	if first.CroppedImageRef == "" {
		t.Error("first CroppedImageRef is empty")
	}
	if _, err := store.Read(context.Background(), first.CroppedImageRef); err != nil {
		t.Errorf("cropped artifact unreadable: %v", err)
	}

	if res.DetectedImageRefs["2"] == "" {
		t.Error("DetectedImageRefs missing id 2")
	}
	if strings.Contains(res.ExtractedText(), "[START DESCRIPTION]") {
		t.Error("content still carries description markers")
	}

	// The extraction call must receive the annotated page image.
	if len(provider.Requests) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.Requests))
	}
	if len(provider.Requests[0].Image) == 0 {
		t.Error("extraction request carried no image")
	}
}

func TestExtractPageFailure(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		provider := &vision.MockProvider{Err: errors.New("rate limited")}
		ex, store := newTestExtractor(t, &detect.MockInferencer{}, provider)

		res := ex.ExtractPage(context.Background(), &PageRequest{
			RunID:        "run-1",
			BaseFilename: "doc",
			PageNumber:   2,
			OutputFormat: "txt",
			PageImageRef: stagePage(t, store),
		})

		if res.Status != results.StatusFailed {
			t.Fatalf("Status = %q, want failed", res.Status)
		}
		if res.Error == "" {
			t.Error("Error is empty")
		}
		if res.Extracted != nil || res.Grounded != nil {
			t.Error("failed page must carry no content")
		}
		if res.PageNumber != 2 {
			t.Errorf("PageNumber = %d, want 2", res.PageNumber)
		}
	})

	t.Run("missing page image", func(t *testing.T) {
		provider := &vision.MockProvider{Responses: []string{"x"}}
		ex, _ := newTestExtractor(t, &detect.MockInferencer{}, provider)

		res := ex.ExtractPage(context.Background(), &PageRequest{
			RunID:        "run-1",
			BaseFilename: "doc",
			PageNumber:   1,
			OutputFormat: "txt",
			PageImageRef: "/nonexistent/page.png",
		})
		if res.Status != results.StatusFailed {
			t.Fatalf("Status = %q, want failed", res.Status)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		provider := &vision.MockProvider{Responses: []string{"x"}}
		ex, store := newTestExtractor(t, &detect.MockInferencer{}, provider)

		res := ex.ExtractPage(context.Background(), &PageRequest{
			RunID:        "run-1",
			BaseFilename: "doc",
			PageNumber:   1,
			OutputFormat: "yaml",
			PageImageRef: stagePage(t, store),
		})
		if res.Status != results.StatusFailed {
			t.Fatalf("Status = %q, want failed", res.Status)
		}
	})
}

func TestExtractPageGrounding(t *testing.T) {
	ctx := context.Background()

	t.Run("grounded content used", func(t *testing.T) {
		provider := &vision.MockProvider{Responses: []string{
			"extracted content",
			"grounded content",
		}}
		ex, store := newTestExtractor(t, &detect.MockInferencer{}, provider)

		textRef, err := store.Save(ctx, "text/page_1.txt", []byte("raw page text"))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		res := ex.ExtractPage(ctx, &PageRequest{
			RunID:        "run-1",
			BaseFilename: "doc",
			PageNumber:   1,
			OutputFormat: "txt",
			PageImageRef: stagePage(t, store),
			RawTextRef:   textRef,
		})

		if res.Status != results.StatusSuccess {
			t.Fatalf("Status = %q (error: %s)", res.Status, res.Error)
		}
		if res.GroundedText() != "grounded content" {
			t.Errorf("GroundedText() = %q, want grounded content", res.GroundedText())
		}
		if res.ExtractedText() != "extracted content" {
			t.Errorf("ExtractedText() = %q", res.ExtractedText())
		}

		if len(provider.Requests) != 2 {
			t.Fatalf("expected 2 provider calls, got %d", len(provider.Requests))
		}
		grounding := provider.Requests[1]
		if grounding.Image != nil {
			t.Error("grounding call must be text-only")
		}
		if !strings.Contains(grounding.Prompt, "raw page text") {
			t.Error("grounding prompt missing raw text")
		}
	})

	t.Run("grounding failure falls back to extracted", func(t *testing.T) {
		provider := &failSecondProvider{first: "extracted content"}
		ex, store := newTestExtractor(t, &detect.MockInferencer{}, provider)

		textRef, err := store.Save(ctx, "text/page_1.txt", []byte("raw page text"))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		res := ex.ExtractPage(ctx, &PageRequest{
			RunID:        "run-1",
			BaseFilename: "doc",
			PageNumber:   1,
			OutputFormat: "txt",
			PageImageRef: stagePage(t, store),
			RawTextRef:   textRef,
		})

		if res.Status != results.StatusSuccess {
			t.Fatalf("Status = %q (error: %s)", res.Status, res.Error)
		}
		if res.GroundedText() != "extracted content" {
			t.Errorf("GroundedText() = %q, want fallback to extracted", res.GroundedText())
		}
	})
}

// failSecondProvider succeeds on the first call and fails afterwards.
type failSecondProvider struct {
	first string
	calls int
}

func (p *failSecondProvider) Analyze(ctx context.Context, req *vision.Request) (string, error) {
	p.calls++
	if p.calls == 1 {
		return p.first, nil
	}
	return "", errors.New("provider unavailable")
}

func (p *failSecondProvider) Name() string { return "fail-second" }
