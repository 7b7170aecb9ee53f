// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/markdown-engine/internal/analyze"
	"github.com/pdiddy/markdown-engine/internal/container"
	"github.com/pdiddy/markdown-engine/internal/convert"
	"github.com/pdiddy/markdown-engine/internal/overlay"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [pdf]",
	Short: "Print the inferred page structure without rendering",
	Long: `Analyze extracts a PDF's layout and prints the per-block structure
classification as JSON, without producing Markdown. Useful for
inspecting what the classifier or an external analyzer sees. By default
only the first 3 pages are analyzed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("pages", 3, "number of pages to analyze (0 = all)")
	addAnalysisFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

// pageAnalysis pairs a page number with its classification for output.
type pageAnalysis struct {
	Page           int                  `json:"page"`
	Classification types.Classification `json:"classification"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	maxPages, _ := cmd.Flags().GetInt("pages")
	analysisTimeout, _ := cmd.Flags().GetDuration("analysis-timeout")

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	extractor, err := convert.NewContainerExtractor(rt)
	if err != nil {
		return err
	}
	backend, err := analysisBackend(cmd)
	if err != nil {
		return err
	}

	pages, err := extractor.Extract(args[0])
	if err != nil {
		return err
	}
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	ctx := context.Background()
	results := make([]pageAnalysis, 0, len(pages))
	for _, page := range pages {
		blocks := overlay.AttachLinks(page.Blocks, page.Links)
		pctx := analyze.PageContext{
			Filename:   filepath.Base(args[0]),
			PageNumber: page.Number,
			TotalPages: len(pages),
		}
		pageCtx, cancel := ctx, context.CancelFunc(func() {})
		if analysisTimeout > 0 {
			pageCtx, cancel = context.WithTimeout(ctx, analysisTimeout)
		}
		classification := analyze.Analyze(pageCtx, backend, blocks, pctx)
		cancel()
		results = append(results, pageAnalysis{Page: page.Number, Classification: classification})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding analysis output: %w", err)
	}
	return nil
}
