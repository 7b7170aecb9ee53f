// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/markdown-engine/internal/container"
	"github.com/pdiddy/markdown-engine/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to structured Markdown",
	Long: `Convert transforms PDF files into structured Markdown. Layout is
extracted through the pdftext container image, blocks are classified by
typographic heuristics (or an external analyzer with --mode), and pages
are rendered and joined into one Markdown file per document.

With --batch, all PDFs under documents/raw/ are converted. Documents
with existing Markdown output are skipped.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("documents-dir", "documents", "base directory for documents")
	convertCmd.Flags().Bool("batch", false, "convert all PDFs in documents-dir/raw/")
	convertCmd.Flags().Bool("extract-images", true, "extract embedded images and reference them from the output")
	addAnalysisFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	documentsDir, _ := cmd.Flags().GetString("documents-dir")
	batch, _ := cmd.Flags().GetBool("batch")
	extractImages, _ := cmd.Flags().GetBool("extract-images")
	analysisTimeout, _ := cmd.Flags().GetDuration("analysis-timeout")

	paths := args
	if batch {
		found, err := rawPDFs(documentsDir)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("provide one or more PDF paths, or --batch")
	}

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

	pipeline := &convert.Pipeline{
		Extractor:       extractor,
		Backend:         backend,
		ExtractImages:   extractImages,
		AnalysisTimeout: analysisTimeout,
	}

	result := convert.ConvertPaths(context.Background(), pipeline, paths, documentsDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// rawPDFs lists the PDFs under documentsDir/raw/.
func rawPDFs(documentsDir string) ([]string, error) {
	rawDir := filepath.Join(documentsDir, "raw")
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawDir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(rawDir, e.Name()))
	}
	return paths, nil
}
