// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates PDF-to-Markdown conversion: layout
// extraction, link overlay, structure analysis, and rendering.
// See docs/ARCHITECTURE § Conversion.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/markdown-engine/internal/analyze"
	"github.com/pdiddy/markdown-engine/internal/markdown"
	"github.com/pdiddy/markdown-engine/internal/overlay"
	"github.com/pdiddy/markdown-engine/internal/pdf"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

const (
	// markdownDir is the subdirectory under the documents base for output.
	markdownDir = "markdown"
	// rawDir is the subdirectory under the documents base for raw PDFs.
	rawDir = "raw"
	// imagesDir is the subdirectory for extracted images, one folder per document.
	imagesDir = "images"
)

// Extractor yields fragment-model pages for a PDF file. The production
// implementation pipes the PDF through the pdftext container image.
type Extractor interface {
	Extract(pdfPath string) ([]types.Page, error)
}

// ImageExtractor extracts embedded images into outDir and returns
// filenames grouped by 1-based page number.
type ImageExtractor func(pdfPath, outDir string) (map[int][]string, error)

// Pipeline bundles the collaborators for document conversion. A nil
// Backend disables external analysis and every page is classified
// heuristically. A nil Images with ExtractImages set uses pdfcpu.
type Pipeline struct {
	Extractor     Extractor
	Backend       analyze.Backend
	ExtractImages bool
	Images        ImageExtractor

	// AnalysisTimeout bounds each page's external analysis attempt. On
	// expiry the page falls back to the heuristic result. Zero means no
	// bound.
	AnalysisTimeout time.Duration
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertPage runs the per-page core: link overlay, structure analysis,
// markdown rendering. The page's image refs are consumed in block order.
func ConvertPage(ctx context.Context, backend analyze.Backend, page types.Page, pctx analyze.PageContext) (string, error) {
	blocks := overlay.AttachLinks(page.Blocks, page.Links)
	classification := analyze.Analyze(ctx, backend, blocks, pctx)
	return markdown.Render(blocks, classification, page.ImageRefs)
}

// ConvertDocument converts a single PDF, writing the markdown to the
// documents directory. If the output already exists the document is
// skipped.
func ConvertDocument(ctx context.Context, p *Pipeline, doc types.Document, documentsDir string, w io.Writer) types.ConversionStatus {
	outDir := filepath.Join(documentsDir, markdownDir)
	base := strings.TrimSuffix(filepath.Base(doc.PDFPath), filepath.Ext(doc.PDFPath))
	mdPath := filepath.Join(outDir, base+".md")

	if _, err := os.Stat(mdPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
		return types.ConversionNone
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	pages, err := p.Extractor.Extract(doc.PDFPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	if p.ExtractImages {
		if err := attachImageRefs(p, doc.PDFPath, documentsDir, base, pages); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
			return types.ConversionFailed
		}
	}

	rendered := make([]string, 0, len(pages))
	for _, page := range pages {
		pctx := analyze.PageContext{
			Filename:   filepath.Base(doc.PDFPath),
			PageNumber: page.Number,
			TotalPages: len(pages),
		}
		md, err := func() (string, error) {
			pageCtx := ctx
			if p.AnalysisTimeout > 0 {
				var cancel context.CancelFunc
				pageCtx, cancel = context.WithTimeout(ctx, p.AnalysisTimeout)
				defer cancel()
			}
			return ConvertPage(pageCtx, p.Backend, page, pctx)
		}()
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (page %d: %v)\n", base, page.Number, err)
			return types.ConversionFailed
		}
		rendered = append(rendered, md)
	}

	content := addFrontmatter(doc, markdown.JoinPages(rendered))

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s\n", base)
	return types.ConversionDone
}

// ConvertBatch processes documents through the pipeline, printing
// per-file status to w and returning a summary.
func ConvertBatch(ctx context.Context, p *Pipeline, docs []types.Document, documentsDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, doc := range docs {
		switch ConvertDocument(ctx, p, doc, documentsDir, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds Document records from raw PDF paths and delegates
// to ConvertBatch. Each path becomes a minimal Document with an ID
// derived from the filename.
func ConvertPaths(ctx context.Context, p *Pipeline, pdfPaths []string, documentsDir string, w io.Writer) BatchResult {
	docs := make([]types.Document, len(pdfPaths))
	for i, path := range pdfPaths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		docs[i] = types.Document{
			ID:      base,
			PDFPath: path,
		}
	}
	return ConvertBatch(ctx, p, docs, documentsDir, w)
}

// attachImageRefs extracts the document's embedded images and attaches
// per-page relative refs. Refs are relative to the markdown directory so
// the links resolve when the output tree is browsed in place.
func attachImageRefs(p *Pipeline, pdfPath, documentsDir, base string, pages []types.Page) error {
	extract := p.Images
	if extract == nil {
		extract = pdf.ExtractImages
	}

	outDir := filepath.Join(documentsDir, imagesDir, base)
	byPage, err := extract(pdfPath, outDir)
	if err != nil {
		return err
	}

	for i := range pages {
		names := byPage[pages[i].Number]
		refs := make([]string, 0, len(names))
		for _, name := range names {
			refs = append(refs, "../"+imagesDir+"/"+base+"/"+name)
		}
		pages[i].ImageRefs = refs
	}
	return nil
}

// addFrontmatter prepends YAML frontmatter to the converted content.
func addFrontmatter(doc types.Document, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "document_id: %q\n", doc.ID)
	fmt.Fprintf(&b, "source_pdf: %q\n", doc.PDFPath)
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
