// Package combine aggregates per-page results into the final document and
// renders the combined output formats.
//
// Aggregation is tolerant of partial failure: pages that cannot be loaded
// or carry no content become load errors and the remaining pages still
// produce output. The aggregated JSON document is the canonical artifact;
// rendered text formats are derived from it.
package combine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/home"
	"github.com/Shivank1006/doc-data/internal/results"
	"github.com/Shivank1006/doc-data/internal/storage"
)

// Processing status over the loaded page set.
const (
	StatusCompleted           = "Completed"
	StatusCompletedWithErrors = "CompletedWithErrors"
	StatusFailed              = "Failed"
)

// Final run status reported to the caller.
const (
	RunSuccess           = "Success"
	RunSuccessWithErrors = "SuccessWithErrors"
	RunFailure           = "Failure"
	RunNoInput           = "NoInput"
)

// ErrNoInput is returned when aggregation receives zero page result
// references.
var ErrNoInput = errors.New("no page results to aggregate")

// LoadError records one page result that could not join the document.
type LoadError struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// Document is the canonical aggregated output for a run.
type Document struct {
	RunID            string                `json:"run_id"`
	SourceRef        string                `json:"source_ref,omitempty"`
	BaseFilename     string                `json:"base_filename"`
	TotalInputPages  int                   `json:"total_input_pages"`
	SuccessfulPages  int                   `json:"successful_pages"`
	LoadErrorCount   int                   `json:"load_error_count"`
	ProcessingStatus string                `json:"processing_status"`
	RequestedFormat  string                `json:"requested_format"`
	ObservedFormats  []string              `json:"observed_formats"`
	Pages            []*results.PageResult `json:"pages"`
	LoadErrors       []LoadError           `json:"load_errors"`
}

// Request names the inputs for one aggregation.
type Request struct {
	RunID           string
	BaseFilename    string
	SourceRef       string
	PageResultRefs  []string
	RequestedFormat string
}

// Outcome is the result of an aggregation run.
type Outcome struct {
	Status        string
	Document      *Document
	AggregatedRef string
	RenderedRefs  map[string]string
}

// Aggregator combines page results into final outputs.
type Aggregator struct {
	store    storage.Store
	prefixes config.StorageConfig
	logger   *slog.Logger
}

// New creates an Aggregator.
func New(store storage.Store, prefixes config.StorageConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, prefixes: prefixes, logger: logger}
}

var pageNumberFromRef = regexp.MustCompile(`_page_(\d+)_results\.json$`)

// Aggregate loads every page result, assembles the canonical document,
// persists it and renders the requested combined format. The aggregated
// JSON is required for success; rendered-format failures degrade to load
// errors.
func (a *Aggregator) Aggregate(ctx context.Context, req *Request) (*Outcome, error) {
	logger := a.logger.With("run_id", req.RunID)

	if len(req.PageResultRefs) == 0 {
		logger.Error("aggregation received no page results")
		return &Outcome{Status: RunNoInput}, ErrNoInput
	}

	pages, loadErrors := a.loadPages(ctx, req.PageResultRefs, logger)
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})

	status := deriveStatus(len(pages), len(req.PageResultRefs))
	doc := &Document{
		RunID:            req.RunID,
		SourceRef:        req.SourceRef,
		BaseFilename:     req.BaseFilename,
		TotalInputPages:  len(req.PageResultRefs),
		SuccessfulPages:  len(pages),
		ProcessingStatus: status,
		RequestedFormat:  req.RequestedFormat,
		ObservedFormats:  observedFormats(pages),
		Pages:            pages,
		LoadErrors:       loadErrors,
	}

	outcome := &Outcome{
		Document:     doc,
		RenderedRefs: map[string]string{},
	}

	// The canonical JSON artifact is rendered first and is required: a
	// failure writing it fails the run regardless of page outcomes.
	doc.LoadErrorCount = len(doc.LoadErrors)
	aggregatedRef, err := a.saveAggregated(ctx, req, doc)
	if err != nil {
		logger.Error("failed to write aggregated document", "error", err)
		outcome.Status = RunFailure
		return outcome, err
	}
	outcome.AggregatedRef = aggregatedRef

	if req.RequestedFormat != "" && req.RequestedFormat != "json" {
		ref, err := a.renderFormat(ctx, req, doc)
		if err != nil {
			logger.Warn("failed to render combined output",
				"format", req.RequestedFormat, "error", err)
			doc.LoadErrors = append(doc.LoadErrors, LoadError{
				Ref:    req.RequestedFormat,
				Reason: fmt.Sprintf("render failed: %v", err),
			})
			doc.LoadErrorCount = len(doc.LoadErrors)
		} else {
			outcome.RenderedRefs[req.RequestedFormat] = ref
		}
	}

	outcome.Status = finalStatus(status)
	logger.Info("aggregation complete",
		"status", outcome.Status,
		"pages", len(pages),
		"load_errors", len(doc.LoadErrors))
	return outcome, nil
}

// loadPages reads and validates each page result. Unreadable, invalid,
// failed, or content-less pages become load errors; the rest join the
// document.
func (a *Aggregator) loadPages(ctx context.Context, refs []string, logger *slog.Logger) ([]*results.PageResult, []LoadError) {
	var pages []*results.PageResult
	loadErrors := []LoadError{}

	record := func(ref string, reason string) {
		logger.Warn("page result excluded", "ref", ref, "reason", reason)
		loadErrors = append(loadErrors, LoadError{Ref: ref, Reason: reason})
	}

	for _, ref := range refs {
		data, err := a.store.Read(ctx, ref)
		if err != nil {
			record(ref, fmt.Sprintf("read failed: %v", err))
			continue
		}

		var page results.PageResult
		if err := json.Unmarshal(data, &page); err != nil {
			record(ref, fmt.Sprintf("invalid JSON: %v", err))
			continue
		}
		// A failed page is reported with its own error before the schema
		// runs; the schema requires content that failed pages never carry.
		if page.Status == results.StatusFailed {
			record(ref, "page processing failed: "+page.Error)
			continue
		}

		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			record(ref, fmt.Sprintf("invalid JSON: %v", err))
			continue
		}
		if err := results.ValidateDocument(generic); err != nil {
			record(ref, fmt.Sprintf("schema validation failed: %v", err))
			continue
		}
		if !page.HasContent() {
			record(ref, "page result carries no grounded content")
			continue
		}
		if page.PageNumber <= 0 {
			page.PageNumber = recoverPageNumber(ref)
		}
		pages = append(pages, &page)
	}
	return pages, loadErrors
}

// recoverPageNumber pulls the page number out of the artifact name when
// the document itself omits it. Returns 0 when unrecoverable.
func recoverPageNumber(ref string) int {
	m := pageNumberFromRef.FindStringSubmatch(ref)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func deriveStatus(loaded, input int) string {
	switch {
	case loaded == 0:
		return StatusFailed
	case loaded == input:
		return StatusCompleted
	default:
		return StatusCompletedWithErrors
	}
}

func finalStatus(processingStatus string) string {
	switch processingStatus {
	case StatusCompleted:
		return RunSuccess
	case StatusCompletedWithErrors:
		return RunSuccessWithErrors
	default:
		return RunFailure
	}
}

func observedFormats(pages []*results.PageResult) []string {
	seen := map[string]bool{}
	var formats []string
	for _, p := range pages {
		if p.OutputFormat != "" && !seen[p.OutputFormat] {
			seen[p.OutputFormat] = true
			formats = append(formats, p.OutputFormat)
		}
	}
	sort.Strings(formats)
	return formats
}

func (a *Aggregator) saveAggregated(ctx context.Context, req *Request, doc *Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode aggregated document: %w", err)
	}
	key := path.Join(a.prefixes.FinalOutputPrefix, req.RunID,
		home.AggregatedJSONName(req.BaseFilename))
	ref, err := a.store.Save(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("failed to persist aggregated document: %w", err)
	}
	return ref, nil
}

func (a *Aggregator) renderFormat(ctx context.Context, req *Request, doc *Document) (string, error) {
	content, err := Render(doc, req.RequestedFormat)
	if err != nil {
		return "", err
	}
	key := path.Join(a.prefixes.FinalOutputPrefix, req.RunID,
		home.CombinedOutputName(req.BaseFilename, req.RequestedFormat))
	ref, err := a.store.Save(ctx, key, []byte(content))
	if err != nil {
		return "", fmt.Errorf("failed to persist combined output: %w", err)
	}
	return ref, nil
}
