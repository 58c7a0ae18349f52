package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Shivank1006/doc-data/internal/combine"
	"github.com/Shivank1006/doc-data/internal/config"
	"github.com/Shivank1006/doc-data/internal/detect"
	"github.com/Shivank1006/doc-data/internal/extract"
	"github.com/Shivank1006/doc-data/internal/home"
	"github.com/Shivank1006/doc-data/internal/pipeline"
	"github.com/Shivank1006/doc-data/internal/splitter"
	"github.com/Shivank1006/doc-data/internal/storage"
	"github.com/Shivank1006/doc-data/internal/vision"
)

// loadConfig builds and validates the run configuration from flags, files
// and environment. The config file is watched for the lifetime of the
// command; edits are reloaded and logged.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	mgr.OnChange(func(c *config.Config) {
		logger.Info("configuration reloaded", "provider", c.Vision.Provider)
	})
	mgr.WatchConfig()

	cfg := mgr.Get()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupHome resolves and creates the doc-data home directory.
func setupHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	return h, nil
}

// buildStore roots the artifact store inside the home directory.
func buildStore(h *home.Dir) (storage.Store, error) {
	return storage.NewLocalStore(filepath.Join(h.Path(), "artifacts"))
}

// buildPipeline wires the full pipeline from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, h *home.Dir, logger *slog.Logger) (*pipeline.Pipeline, error) {
	store, err := buildStore(h)
	if err != nil {
		return nil, err
	}

	provider, err := vision.NewProvider(ctx, cfg.Vision)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision provider: %w", err)
	}
	logger.Debug("vision provider ready", "provider", provider.Name())

	detector := detect.NewDetector(detect.DetectorConfig{
		Inferencer: detect.NewHTTPInferencer(detect.HTTPInferencerConfig{
			Endpoint:   cfg.Detector.Endpoint,
			Timeout:    cfg.Detector.Timeout,
			MaxRetries: cfg.Detector.MaxRetries,
		}),
		InputSize:           cfg.Detector.InputSize,
		ConfidenceThreshold: cfg.Detector.ConfidenceThreshold,
		Logger:              logger,
	})

	sp := splitter.New(cfg.Splitter, logger)
	ex := extract.New(detector, provider, store, cfg.Storage, logger)
	agg := combine.New(store, cfg.Storage, logger)

	return pipeline.New(cfg, h, store, sp, ex, agg, logger), nil
}
