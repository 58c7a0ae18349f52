// Package pipeline orchestrates a full run: split the source document,
// fan out page extraction with bounded parallelism, then aggregate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Shivank1006/doc-data/internal/combine"
	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/document"
	"github.com/Shivank1006/doc-data/internal/extract"
	"github.com/Shivank1006/doc-data/internal/home"
	"github.com/Shivank1006/doc-data/internal/results"
	"github.com/Shivank1006/doc-data/internal/splitter"
	"github.com/Shivank1006/doc-data/internal/storage"
)

// Request describes one end-to-end run.
type Request struct {
	SourcePath   string
	OutputFormat string

	// RunID overrides the generated run identifier. Used by callers that
	// resume or correlate runs; normally left empty.
	RunID string

	// KeepWorkspace leaves the run workspace on disk for inspection
	// instead of removing it when the run closes.
	KeepWorkspace bool
}

// Result summarizes a finished run.
type Result struct {
	RunID         string
	Status        string
	AggregatedRef string
	RenderedRefs  map[string]string
	PageCount     int
	FailedPages   int
}

// Pipeline wires the splitter, extractor and aggregator over shared
// storage.
type Pipeline struct {
	cfg       *config.Config
	home      *home.Dir
	store     storage.Store
	splitter  *splitter.Splitter
	extractor *extract.Extractor
	combiner  *combine.Aggregator
	logger    *slog.Logger
}

// New assembles a pipeline from its components.
func New(cfg *config.Config, homeDir *home.Dir, store storage.Store, sp *splitter.Splitter, ex *extract.Extractor, agg *combine.Aggregator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		home:      homeDir,
		store:     store,
		splitter:  sp,
		extractor: ex,
		combiner:  agg,
		logger:    logger,
	}
}

// Run processes a source document end to end. The run workspace is
// released on every exit path unless the request keeps it.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*Result, error) {
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := p.logger.With("run_id", runID)

	src, err := document.NewSource(runID, req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stage source document: %w", err)
	}
	logger.Info("run started",
		"source", src.Path, "kind", src.Kind, "format", req.OutputFormat)

	rd, err := p.home.Run(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create run workspace: %w", err)
	}
	if !req.KeepWorkspace {
		defer func() {
			if err := rd.Close(); err != nil {
				logger.Warn("failed to remove run workspace", "error", err)
			}
		}()
	}

	split, err := p.splitter.Split(ctx, src, rd)
	if err != nil {
		return nil, fmt.Errorf("document split failed: %w", err)
	}
	logger.Info("document split", "pages", split.PageCount)

	pageRequests, err := p.stagePages(ctx, src, split, req.OutputFormat)
	if err != nil {
		return nil, err
	}

	resultRefs, failed, err := p.processPages(ctx, pageRequests, logger)
	if err != nil {
		return nil, err
	}

	outcome, err := p.combiner.Aggregate(ctx, &combine.Request{
		RunID:           runID,
		BaseFilename:    src.BaseFilename,
		SourceRef:       src.Path,
		PageResultRefs:  resultRefs,
		RequestedFormat: req.OutputFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}

	return &Result{
		RunID:         runID,
		Status:        outcome.Status,
		AggregatedRef: outcome.AggregatedRef,
		RenderedRefs:  outcome.RenderedRefs,
		PageCount:     split.PageCount,
		FailedPages:   failed,
	}, nil
}

// stagePages persists the split artifacts to the store and builds one
// extraction request per page. Text paths are aligned by index; pages
// past the end of the text list simply have no raw text.
func (p *Pipeline) stagePages(ctx context.Context, src *document.Source, split *splitter.Result, format string) ([]*extract.PageRequest, error) {
	prefixes := p.cfg.Storage

	requests := make([]*extract.PageRequest, 0, len(split.PageImagePaths))
	for i, imgPath := range split.PageImagePaths {
		pageNum := i + 1

		imgData, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read page image: %w", err)
		}
		imgKey := path.Join(prefixes.ImagesPrefix, src.RunID,
			home.PageImageName(src.BaseFilename, pageNum))
		imgRef, err := p.store.Save(ctx, imgKey, imgData)
		if err != nil {
			return nil, fmt.Errorf("failed to stage page image: %w", err)
		}

		textRef := ""
		if i < len(split.PageTextPaths) && split.PageTextPaths[i] != "" {
			textData, err := os.ReadFile(split.PageTextPaths[i])
			if err == nil {
				textKey := path.Join(prefixes.RawTextPrefix, src.RunID,
					home.PageTextName(src.BaseFilename, pageNum))
				if ref, err := p.store.Save(ctx, textKey, textData); err == nil {
					textRef = ref
				}
			}
		}

		requests = append(requests, &extract.PageRequest{
			RunID:        src.RunID,
			BaseFilename: src.BaseFilename,
			PageNumber:   pageNum,
			OutputFormat: format,
			PageImageRef: imgRef,
			RawTextRef:   textRef,
		})
	}
	return requests, nil
}

// processPages fans out extraction over the configured page concurrency
// and persists each PageResult. Page failures are contained: the group
// only fails on persistence errors or cancellation.
func (p *Pipeline) processPages(ctx context.Context, requests []*extract.PageRequest, logger *slog.Logger) ([]string, int, error) {
	resultRefs := make([]string, len(requests))
	failures := make([]bool, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.MaxConcurrentPages)

	for i, req := range requests {
		g.Go(func() error {
			res := p.extractor.ExtractPage(gctx, req)
			failures[i] = res.Status != results.StatusSuccess

			data, err := res.Encode()
			if err != nil {
				return err
			}
			key := path.Join(p.cfg.Storage.PageResultsPrefix, req.RunID,
				home.PageResultName(req.BaseFilename, req.PageNumber))
			ref, err := p.store.Save(gctx, key, data)
			if err != nil {
				return fmt.Errorf("failed to persist page result: %w", err)
			}
			resultRefs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("some pages failed", "failed", failed, "total", len(requests))
	}
	return resultRefs, failed, nil
}
