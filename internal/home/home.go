// Package home manages the doc-data home directory and the naming
// conventions for run-scoped artifacts.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the doc-data home directory.
	DefaultDirName = ".doc-data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	runsDirName = "runs"
)

// Dir represents the doc-data home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.doc-data).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// EnsureExists creates the home directory if it doesn't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(filepath.Join(d.path, runsDirName), 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	return nil
}

// RunDir returns the working directory for a run. Everything under it is
// scoped to the run and removed when the run closes.
func (d *Dir) RunDir(runID string) string {
	return filepath.Join(d.path, runsDirName, runID)
}

// Run creates the working-directory layout for a run and returns it.
// Cropped regions, page results and final outputs live in the artifact
// store, so the workspace only holds split output and scratch files.
func (d *Dir) Run(runID string) (*RunDir, error) {
	rd := &RunDir{path: d.RunDir(runID), runID: runID}
	for _, sub := range []string{"images", "text", "tmp"} {
		if err := os.MkdirAll(filepath.Join(rd.path, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	}
	return rd, nil
}

// RunDir is the on-disk workspace for a single run.
type RunDir struct {
	path  string
	runID string
}

// Path returns the root of the run workspace.
func (r *RunDir) Path() string { return r.path }

// RunID returns the run identifier the workspace belongs to.
func (r *RunDir) RunID() string { return r.runID }

// TempDir returns the scratch directory for intermediate conversion output.
func (r *RunDir) TempDir() string { return filepath.Join(r.path, "tmp") }

// ImagesDir returns the directory for rendered page images.
func (r *RunDir) ImagesDir() string { return filepath.Join(r.path, "images") }

// TextDir returns the directory for extracted page text.
func (r *RunDir) TextDir() string { return filepath.Join(r.path, "text") }

// PageImagePath returns the path for a rendered page image.
// Page numbers are 1-indexed.
func (r *RunDir) PageImagePath(base string, pageNum int) string {
	return filepath.Join(r.ImagesDir(), PageImageName(base, pageNum))
}

// PageTextPath returns the path for a page's extracted raw text.
func (r *RunDir) PageTextPath(base string, pageNum int) string {
	return filepath.Join(r.TextDir(), PageTextName(base, pageNum))
}

// Close removes the run workspace. Safe to call multiple times.
func (r *RunDir) Close() error {
	return os.RemoveAll(r.path)
}

// PageImageName returns the artifact name for a rendered page image.
func PageImageName(base string, pageNum int) string {
	return fmt.Sprintf("%s_page_%d.png", base, pageNum)
}

// PageTextName returns the artifact name for extracted page text.
func PageTextName(base string, pageNum int) string {
	return fmt.Sprintf("%s_page_%d.txt", base, pageNum)
}

// CroppedImageName returns the artifact name for a cropped region image.
// Image ids are 1-indexed in detection order.
func CroppedImageName(base string, pageNum, imageID int) string {
	return fmt.Sprintf("%s_page_%d_img_%d.jpg", base, pageNum, imageID)
}

// PageResultName returns the artifact name for a per-page result document.
func PageResultName(base string, pageNum int) string {
	return fmt.Sprintf("%s_page_%d_results.json", base, pageNum)
}

// AggregatedJSONName returns the artifact name for the aggregated document.
func AggregatedJSONName(base string) string {
	return fmt.Sprintf("%s_aggregated_results.json", base)
}

// FormatExtensions maps rendered output formats to file extensions.
var FormatExtensions = map[string]string{
	"markdown": ".markdown",
	"html":     ".html",
	"txt":      ".txt",
}

// CombinedOutputName returns the artifact name for a combined rendered format.
func CombinedOutputName(base, format string) string {
	ext, ok := FormatExtensions[format]
	if !ok {
		ext = ".txt"
	}
	return fmt.Sprintf("%s_combined%s", base, ext)
}
