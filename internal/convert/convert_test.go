// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

func page(number int, texts ...string) types.Page {
	p := types.Page{Number: number}
	for _, text := range texts {
		p.Blocks = append(p.Blocks, types.Block{
			Kind: types.BlockText,
			Lines: []types.TextLine{{Spans: []types.TextSpan{
				{Text: text, Size: 11, Font: "Helvetica"},
			}}},
		})
	}
	return p
}

// fakeExtractor implements Extractor for testing. It returns canned
// pages or an error, depending on configuration.
type fakeExtractor struct {
	pages []types.Page
	err   error
}

func (f *fakeExtractor) Extract(pdfPath string) ([]types.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// setupPDF creates a temporary PDF file and returns its path and the temp dir.
func setupPDF(t *testing.T) (pdfPath, tmpDir string) {
	t.Helper()
	tmpDir = t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pdfPath = filepath.Join(rawDir, "report.pdf")
	if err := os.WriteFile(pdfPath, []byte("fake pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return pdfPath, tmpDir
}

func TestConvertDocument(t *testing.T) {
	tests := []struct {
		name       string
		extractor  *fakeExtractor
		preCreate  bool // create output MD before running
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			extractor:  &fakeExtractor{pages: []types.Page{page(1, "Content here.")}},
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "skip existing markdown",
			extractor:  &fakeExtractor{pages: []types.Page{page(1, "unused")}},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
		},
		{
			name:       "extraction failure",
			extractor:  &fakeExtractor{err: errors.New("container crashed")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfPath, tmpDir := setupPDF(t)

			if tt.preCreate {
				mdDir := filepath.Join(tmpDir, "markdown")
				if err := os.MkdirAll(mdDir, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(mdDir, "report.md"), []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			doc := types.Document{ID: "report", PDFPath: pdfPath}
			p := &Pipeline{Extractor: tt.extractor}
			var log bytes.Buffer

			status := ConvertDocument(context.Background(), p, doc, tmpDir, &log)

			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
		})
	}
}

func TestConvertDocument_OutputContent(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)

	title := types.Page{Number: 1, Blocks: []types.Block{{
		Kind: types.BlockText,
		Lines: []types.TextLine{{Spans: []types.TextSpan{
			{Text: "Annual Report", Size: 24, Flags: types.FlagBold, Font: "Helvetica-Bold"},
		}}},
	}}}
	p := &Pipeline{Extractor: &fakeExtractor{pages: []types.Page{
		title,
		page(2, "Second page body."),
	}}}
	doc := types.Document{ID: "report", PDFPath: pdfPath}

	var log bytes.Buffer
	if status := ConvertDocument(context.Background(), p, doc, tmpDir, &log); status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q", status)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "markdown", "report.md"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		t.Error("output should start with YAML frontmatter delimiter")
	}
	if !strings.Contains(content, `document_id: "report"`) {
		t.Error("frontmatter should contain document_id")
	}
	if !strings.Contains(content, `source_pdf:`) {
		t.Error("frontmatter should contain source_pdf")
	}
	if !strings.Contains(content, `converted_at:`) {
		t.Error("frontmatter should contain converted_at")
	}
	if !strings.Contains(content, "# Annual Report") {
		t.Error("24pt bold first block should render as a heading")
	}
	if !strings.Contains(content, "\n\n---\n\n") {
		t.Error("pages should be joined with the page separator")
	}
}

func TestConvertDocument_ImageRefs(t *testing.T) {
	pdfPath, tmpDir := setupPDF(t)

	withImage := types.Page{Number: 1, Blocks: []types.Block{
		{Kind: types.BlockImage},
	}}
	p := &Pipeline{
		Extractor:     &fakeExtractor{pages: []types.Page{withImage}},
		ExtractImages: true,
		Images: func(path, outDir string) (map[int][]string, error) {
			return map[int][]string{1: {"report_1_Im0.png"}}, nil
		},
	}
	doc := types.Document{ID: "report", PDFPath: pdfPath}

	var log bytes.Buffer
	if status := ConvertDocument(context.Background(), p, doc, tmpDir, &log); status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q (log: %s)", status, log.String())
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "markdown", "report.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "![Image](../images/report/report_1_Im0.png)") {
		t.Errorf("output should reference the extracted image, got:\n%s", data)
	}
}

func TestConvertBatch(t *testing.T) {
	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Three PDFs: one succeeds, one is pre-existing, one fails.
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(rawDir, name), []byte("pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mdDir := filepath.Join(tmpDir, "markdown")
	if err := os.MkdirAll(mdDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mdDir, "b.md"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	extractor := &selectiveExtractor{
		pages: map[string][]types.Page{
			filepath.Join(rawDir, "a.pdf"): {page(1, "Document A")},
			filepath.Join(rawDir, "b.pdf"): {page(1, "Document B")},
		},
		errors: map[string]error{
			filepath.Join(rawDir, "c.pdf"): errors.New("bad pdf"),
		},
	}

	docs := []types.Document{
		{ID: "a", PDFPath: filepath.Join(rawDir, "a.pdf")},
		{ID: "b", PDFPath: filepath.Join(rawDir, "b.pdf")},
		{ID: "c", PDFPath: filepath.Join(rawDir, "c.pdf")},
	}

	var log bytes.Buffer
	result := ConvertBatch(context.Background(), &Pipeline{Extractor: extractor}, docs, tmpDir, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}

	if !strings.Contains(log.String(), "Batch summary:") {
		t.Error("batch output should contain summary line")
	}
}

func TestConvertPaths(t *testing.T) {
	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}

	pdfPath := filepath.Join(rawDir, "test.pdf")
	if err := os.WriteFile(pdfPath, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{Extractor: &fakeExtractor{pages: []types.Page{page(1, "Test body")}}}
	var log bytes.Buffer
	result := ConvertPaths(context.Background(), p, []string{pdfPath}, tmpDir, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}

	mdPath := filepath.Join(tmpDir, "markdown", "test.md")
	if _, err := os.Stat(mdPath); err != nil {
		t.Errorf("expected output file at %s", mdPath)
	}
}

// selectiveExtractor returns different results per file path.
type selectiveExtractor struct {
	pages  map[string][]types.Page
	errors map[string]error
}

func (s *selectiveExtractor) Extract(pdfPath string) ([]types.Page, error) {
	if err, ok := s.errors[pdfPath]; ok {
		return nil, err
	}
	if pages, ok := s.pages[pdfPath]; ok {
		return pages, nil
	}
	return nil, errors.New("unexpected path: " + pdfPath)
}
