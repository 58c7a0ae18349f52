package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Shivank1006/doc-data/internal/document"
	"github.com/Shivank1006/doc-data/internal/splitter"
)

var splitCmd = &cobra.Command{
	Use:   "split <document>",
	Short: "Split a document into page images and raw text",
	Long: `Split a document into per-page images and extracted raw text without
running content extraction. Artifacts are left in the run workspace under
the home directory.

Examples:
  doc-data split report.pdf
  doc-data split presentation.pptx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}
		h, err := setupHome()
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		src, err := document.NewSource(runID, args[0])
		if err != nil {
			return err
		}

		rd, err := h.Run(runID)
		if err != nil {
			return err
		}

		sp := splitter.New(cfg.Splitter, logger)
		res, err := sp.Split(cmd.Context(), src, rd)
		if err != nil {
			// Nothing useful was produced; remove the workspace.
			rd.Close()
			return err
		}

		fmt.Printf("Run:   %s\n", runID)
		fmt.Printf("Kind:  %s\n", res.SourceKind)
		fmt.Printf("Pages: %d\n", res.PageCount)
		for i, p := range res.PageImagePaths {
			text := ""
			if i < len(res.PageTextPaths) && res.PageTextPaths[i] != "" {
				text = "  text: " + res.PageTextPaths[i]
			}
			fmt.Printf("  %s%s\n", p, text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
}
