package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivank1006/doc-data/version"
)

var (
	cfgFile string
	homeDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "doc-data",
	Short: "Document extraction pipeline producing structured page content",
	Long: `doc-data turns documents (PDF, DOCX, PPTX, images) into structured
content using layout detection and vision-language extraction.

The pipeline includes:
  - Document splitting into per-page images and raw text
  - Layout region detection with croppable-image extraction
  - Format-aware content extraction (json, markdown, html, txt)
  - Grounding of extracted content against raw page text
  - Aggregation into a single combined document`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.doc-data/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "doc-data home directory (default: ~/.doc-data)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger honoring the verbose flag.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
