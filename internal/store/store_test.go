// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	for _, dir := range []string{
		filepath.Join(tmpDir, "documents", markdownDir),
		filepath.Join(tmpDir, "documents", metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := types.IndexConfig{
		IndexDir:   filepath.Join(tmpDir, "index"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg, filepath.Join(tmpDir, "documents"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeMarkdown(t *testing.T, tmpDir, docID, content string) {
	t.Helper()
	path := filepath.Join(tmpDir, "documents", markdownDir, docID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeMetadata(t *testing.T, tmpDir string, doc types.Document) {
	t.Helper()
	data, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmpDir, "documents", metadataDir, doc.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

const sampleDoc = `---
document_id: "report"
source_pdf: "documents/raw/report.pdf"
converted_at: "2026-08-01T10:00:00Z"
---

# Annual Report

First page prose about revenue growth.

---

Second page prose about market share.
`

// --- tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	for _, table := range []string{"documents", "pages", "indexing_status", "pages_fts"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatal(err)
		}
		if count == 0 {
			t.Errorf("table %s missing from schema", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, tmpDir := testSetup(t)

	if _, err := os.Stat(filepath.Join(tmpDir, "index", dbFile)); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}

func TestIndex(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	summary, err := store.Index(context.Background(), &log)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Indexed != 1 {
		t.Errorf("indexed = %d, want 1", summary.Indexed)
	}
	if summary.Total() != 1 {
		t.Errorf("total = %d, want 1", summary.Total())
	}
	if !strings.Contains(log.String(), "indexing report (2 pages)") {
		t.Errorf("log = %q", log.String())
	}

	var pageCount int
	if err := store.db.QueryRow(`SELECT count(*) FROM pages WHERE document_id = 'report'`).Scan(&pageCount); err != nil {
		t.Fatal(err)
	}
	if pageCount != 2 {
		t.Errorf("pages = %d, want 2", pageCount)
	}
}

func TestIndexTitleFromHeading(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	var title string
	if err := store.db.QueryRow(`SELECT title FROM documents WHERE id = 'report'`).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Annual Report" {
		t.Errorf("title = %q, want %q", title, "Annual Report")
	}
}

func TestIndexUsesMetadataSidecar(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)
	writeMetadata(t, tmpDir, types.Document{
		ID:        "report",
		SourceURL: "https://example.com/report.pdf",
		FetchedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	})

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	var sourceURL string
	if err := store.db.QueryRow(`SELECT source_url FROM documents WHERE id = 'report'`).Scan(&sourceURL); err != nil {
		t.Fatal(err)
	}
	if sourceURL != "https://example.com/report.pdf" {
		t.Errorf("source_url = %q", sourceURL)
	}
}

func TestIndexSkipsUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	log.Reset()
	summary, err := store.Index(context.Background(), &log)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", summary.Skipped)
	}
	if !strings.Contains(log.String(), "skipped report") {
		t.Errorf("log = %q", log.String())
	}
}

func TestIndexUpdatesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	// Rewrite with different content and a bumped mod time.
	updated := strings.Replace(sampleDoc, "revenue growth", "cost reduction", 1)
	writeMarkdown(t, tmpDir, "report", updated)
	path := filepath.Join(tmpDir, "documents", markdownDir, "report.md")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	log.Reset()
	summary, err := store.Index(context.Background(), &log)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Errorf("updated = %d, want 1", summary.Updated)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "cost"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results for new content = %d, want 1", len(results))
	}
	stale, err := store.Search(context.Background(), QueryOptions{Query: "revenue"})
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 0 {
		t.Errorf("results for old content = %d, want 0", len(stale))
	}
}

func TestSearchFullText(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "market"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if r.DocumentID != "report" || r.Page != 2 {
		t.Errorf("result = %+v, want report page 2", r)
	}
	if r.Title != "Annual Report" {
		t.Errorf("title = %q", r.Title)
	}
	if !strings.Contains(r.Snippet, ">>market<<") {
		t.Errorf("snippet %q should mark the match", r.Snippet)
	}
}

func TestSearchByDocument(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)
	writeMarkdown(t, tmpDir, "other", "---\ndocument_id: \"other\"\n---\n\nUnrelated text.\n")

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(context.Background(), QueryOptions{DocumentID: "report"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 pages of report", len(results))
	}
	for i, r := range results {
		if r.DocumentID != "report" {
			t.Errorf("result %d document = %q", i, r.DocumentID)
		}
		if r.Page != i+1 {
			t.Errorf("result %d page = %d, want %d (sorted by page)", i, r.Page, i+1)
		}
	}
}

func TestSearchRespectsMaxResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(context.Background(), QueryOptions{DocumentID: "report", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestSearchNoResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "nonexistentterm"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestPage(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeMarkdown(t, tmpDir, "report", sampleDoc)

	var log bytes.Buffer
	if _, err := store.Index(context.Background(), &log); err != nil {
		t.Fatal(err)
	}

	content, err := store.Page(context.Background(), "report", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "market share") {
		t.Errorf("page 2 content = %q", content)
	}

	if _, err := store.Page(context.Background(), "report", 99); err == nil {
		t.Error("expected error for missing page")
	}
}

func TestSplitFrontmatter(t *testing.T) {
	front, body := splitFrontmatter(sampleDoc)
	if front.DocumentID != "report" {
		t.Errorf("document_id = %q", front.DocumentID)
	}
	if front.SourcePDF != "documents/raw/report.pdf" {
		t.Errorf("source_pdf = %q", front.SourcePDF)
	}
	if !strings.HasPrefix(body, "# Annual Report") {
		t.Errorf("body should start at the heading, got %q", body[:40])
	}

	// No frontmatter: content passes through.
	front, body = splitFrontmatter("plain text")
	if front.DocumentID != "" || body != "plain text" {
		t.Errorf("passthrough failed: %+v %q", front, body)
	}
}

func TestIndexSummaryTotal(t *testing.T) {
	s := IndexSummary{Indexed: 1, Updated: 2, Skipped: 3, Failed: 4}
	if s.Total() != 10 {
		t.Errorf("total = %d, want 10", s.Total())
	}
}
