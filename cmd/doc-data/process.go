package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shivank1006/doc-data/internal/pipeline"
	"github.com/Shivank1006/doc-data/internal/prompts"
)

var (
	processFormat string
	processRunID  string
	processKeep   bool
)

var processCmd = &cobra.Command{
	Use:   "process <document>",
	Short: "Run the full extraction pipeline on a document",
	Long: `Process a document end to end: split into pages, extract structured
content from each page, and aggregate into a combined output.

Examples:
  doc-data process report.pdf                     # Markdown output
  doc-data process slides.pptx --format html      # HTML output
  doc-data process scan.png --format json -v      # JSON output, debug logs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !prompts.SupportedFormat(processFormat) {
			return fmt.Errorf("unsupported output format %q (expected one of %v)",
				processFormat, prompts.Formats)
		}

		logger := newLogger()
		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}
		h, err := setupHome()
		if err != nil {
			return err
		}

		p, err := buildPipeline(cmd.Context(), cfg, h, logger)
		if err != nil {
			return err
		}

		res, err := p.Run(cmd.Context(), &pipeline.Request{
			SourcePath:    args[0],
			OutputFormat:  processFormat,
			RunID:         processRunID,
			KeepWorkspace: processKeep,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Run:    %s\n", res.RunID)
		fmt.Printf("Status: %s\n", res.Status)
		fmt.Printf("Pages:  %d (%d failed)\n", res.PageCount, res.FailedPages)
		fmt.Printf("Output: %s\n", res.AggregatedRef)
		for format, ref := range res.RenderedRefs {
			fmt.Printf("        %s (%s)\n", ref, format)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&processFormat, "format", "f", "markdown",
		"output format: json, markdown, html or txt")
	processCmd.Flags().StringVar(&processRunID, "run-id", "",
		"run identifier (default: generated)")
	processCmd.Flags().BoolVar(&processKeep, "keep-workspace", false,
		"keep the run workspace on disk for inspection")

	rootCmd.AddCommand(processCmd)
}
