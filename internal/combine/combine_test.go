package combine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/results"
	"github.com/Shivank1006/doc-data/internal/storage"
	"github.com/Shivank1006/doc-data/internal/testutil"
)

func newTestAggregator(t *testing.T) (*Aggregator, storage.Store) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return New(store, config.DefaultConfig().Storage, testutil.Logger()), store
}

func savePage(t *testing.T, store storage.Store, base string, page int, doc string) string {
	t.Helper()
	key := "results/" + base + "_page_" + itoa(page) + "_results.json"
	ref, err := store.Save(context.Background(), key, []byte(doc))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return ref
}

func itoa(n int) string {
	return string(rune('0' + n))
}

func successPage(page int, grounded string) string {
	doc := map[string]any{
		"page_number":     page,
		"output_format":   "markdown",
		"grounded_output": grounded,
		"status":          "success",
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("all pages load", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		refs := []string{
			savePage(t, store, "doc", 1, successPage(1, "page one")),
			savePage(t, store, "doc", 2, successPage(2, "page two")),
		}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "markdown",
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}

		if outcome.Status != RunSuccess {
			t.Errorf("Status = %q, want %q", outcome.Status, RunSuccess)
		}
		if outcome.Document.ProcessingStatus != StatusCompleted {
			t.Errorf("ProcessingStatus = %q", outcome.Document.ProcessingStatus)
		}
		if outcome.Document.SuccessfulPages != 2 {
			t.Errorf("SuccessfulPages = %d, want 2", outcome.Document.SuccessfulPages)
		}

		data, err := store.Read(ctx, outcome.AggregatedRef)
		if err != nil {
			t.Fatalf("aggregated artifact unreadable: %v", err)
		}
		var roundtrip Document
		if err := json.Unmarshal(data, &roundtrip); err != nil {
			t.Fatalf("aggregated artifact invalid: %v", err)
		}

		combined, err := store.Read(ctx, outcome.RenderedRefs["markdown"])
		if err != nil {
			t.Fatalf("combined artifact unreadable: %v", err)
		}
		want := "page one\n\n---\n\npage two\n"
		if string(combined) != want {
			t.Errorf("combined = %q, want %q", combined, want)
		}
	})

	t.Run("partial failure tolerated", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		refs := []string{
			savePage(t, store, "doc", 1, successPage(1, "page one")),
			savePage(t, store, "doc", 2, `{"output_format": "markdown", "status": "failed", "error": "boom"}`),
			"/nonexistent/doc_page_3_results.json",
		}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "txt",
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}

		if outcome.Status != RunSuccessWithErrors {
			t.Errorf("Status = %q, want %q", outcome.Status, RunSuccessWithErrors)
		}
		if outcome.Document.ProcessingStatus != StatusCompletedWithErrors {
			t.Errorf("ProcessingStatus = %q", outcome.Document.ProcessingStatus)
		}
		if got := len(outcome.Document.LoadErrors); got != 2 {
			t.Errorf("LoadErrors = %d, want 2", got)
		}
		// The failed page's own error survives into the load error.
		var foundPageError bool
		for _, le := range outcome.Document.LoadErrors {
			if strings.Contains(le.Reason, "boom") {
				foundPageError = true
			}
		}
		if !foundPageError {
			t.Errorf("LoadErrors = %+v, want a reason carrying the page error", outcome.Document.LoadErrors)
		}
		if outcome.Document.LoadErrorCount != len(outcome.Document.LoadErrors) {
			t.Error("LoadErrorCount out of sync")
		}
		if outcome.Document.SuccessfulPages != 1 {
			t.Errorf("SuccessfulPages = %d, want 1", outcome.Document.SuccessfulPages)
		}
	})

	t.Run("all pages fail", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		refs := []string{
			savePage(t, store, "doc", 1, `{"output_format": "markdown", "status": "failed"}`),
		}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "markdown",
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if outcome.Status != RunFailure {
			t.Errorf("Status = %q, want %q", outcome.Status, RunFailure)
		}
		// The canonical JSON artifact is still produced for diagnostics.
		if outcome.AggregatedRef == "" {
			t.Error("AggregatedRef is empty")
		}
	})

	t.Run("no input", func(t *testing.T) {
		agg, _ := newTestAggregator(t)
		outcome, err := agg.Aggregate(ctx, &Request{RunID: "run-1", BaseFilename: "doc"})
		if !errors.Is(err, ErrNoInput) {
			t.Fatalf("Aggregate() error = %v, want ErrNoInput", err)
		}
		if outcome.Status != RunNoInput {
			t.Errorf("Status = %q, want %q", outcome.Status, RunNoInput)
		}
	})

	t.Run("pages sorted by page number", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		refs := []string{
			savePage(t, store, "doc", 3, successPage(3, "three")),
			savePage(t, store, "doc", 1, successPage(1, "one")),
			savePage(t, store, "doc", 2, successPage(2, "two")),
		}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "txt",
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		for i, page := range outcome.Document.Pages {
			if page.PageNumber != i+1 {
				t.Errorf("Pages[%d].PageNumber = %d", i, page.PageNumber)
			}
		}

		combined, _ := store.Read(ctx, outcome.RenderedRefs["txt"])
		if string(combined) != "one\n\ntwo\n\nthree\n" {
			t.Errorf("combined = %q", combined)
		}
	})

	t.Run("page number recovered from artifact name", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		doc := `{"output_format": "txt", "grounded_output": "content", "status": "success"}`
		refs := []string{savePage(t, store, "doc", 7, doc)}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:          "run-1",
			BaseFilename:   "doc",
			PageResultRefs: refs,
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if got := outcome.Document.Pages[0].PageNumber; got != 7 {
			t.Errorf("recovered PageNumber = %d, want 7", got)
		}
	})

	t.Run("legacy nested shape accepted", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		doc := `{"page_number": 1, "output_format": "txt", "page_content": {"extracted": "e", "grounded": "g"}, "status": "success"}`
		refs := []string{savePage(t, store, "doc", 1, doc)}

		outcome, err := agg.Aggregate(ctx, &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "txt",
		})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if outcome.Status != RunSuccess {
			t.Errorf("Status = %q, want %q", outcome.Status, RunSuccess)
		}

		combined, _ := store.Read(ctx, outcome.RenderedRefs["txt"])
		if strings.TrimSpace(string(combined)) != "g" {
			t.Errorf("combined = %q, want grounded content", combined)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		agg, store := newTestAggregator(t)
		refs := []string{
			savePage(t, store, "doc", 1, successPage(1, "page one")),
			savePage(t, store, "doc", 2, successPage(2, "page two")),
		}
		req := &Request{
			RunID:           "run-1",
			BaseFilename:    "doc",
			PageResultRefs:  refs,
			RequestedFormat: "markdown",
		}

		first, err := agg.Aggregate(ctx, req)
		if err != nil {
			t.Fatalf("first Aggregate() error = %v", err)
		}
		second, err := agg.Aggregate(ctx, req)
		if err != nil {
			t.Fatalf("second Aggregate() error = %v", err)
		}

		a, _ := store.Read(ctx, first.AggregatedRef)
		b, _ := store.Read(ctx, second.AggregatedRef)
		if string(a) != string(b) {
			t.Error("aggregation is not idempotent")
		}
	})
}

func TestRender(t *testing.T) {
	doc := &Document{
		BaseFilename: "doc",
		Pages: []*results.PageResult{
			{PageNumber: 1, Grounded: results.TextValue("first page")},
			{PageNumber: 2, Grounded: results.TextValue("second page")},
		},
	}

	t.Run("txt", func(t *testing.T) {
		got, err := Render(doc, "txt")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if got != "first page\n\nsecond page\n" {
			t.Errorf("Render(txt) = %q", got)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		got, err := Render(doc, "markdown")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(got, "\n\n---\n\n") {
			t.Errorf("markdown missing page separator: %q", got)
		}
	})

	t.Run("html", func(t *testing.T) {
		got, err := Render(doc, "html")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(got, `<div class="page" id="page-1">`) {
			t.Errorf("html missing page-1 div: %q", got)
		}
		if !strings.Contains(got, `<div class="page" id="page-2">`) {
			t.Errorf("html missing page-2 div: %q", got)
		}
		if !strings.Contains(got, "<!DOCTYPE html>") {
			t.Error("html missing doctype")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Render(doc, "yaml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
