// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists converted documents in a SQLite index with
// full-text search over per-page markdown.
// See docs/ARCHITECTURE § Indexing.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/markdown-engine/internal/markdown"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

const (
	metadataDir = "metadata"
	markdownDir = "markdown"
	dbFile      = "documents.db"
)

// Store manages the document index SQLite database.
type Store struct {
	db           *sql.DB
	documentsDir string
	maxResults   int
}

// NewStore opens or creates the index database at cfg.IndexDir/documents.db,
// creating the schema if it does not exist.
func NewStore(cfg types.IndexConfig, documentsDir string) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:           db,
		documentsDir: documentsDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			source_url TEXT,
			pdf_path TEXT,
			fetched_at TEXT,
			conversion_status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id),
			page INTEGER NOT NULL,
			content TEXT NOT NULL,
			UNIQUE(document_id, page)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_document_id ON pages(document_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			document_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='pages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE pages_fts USING fts5(content, content=pages, content_rowid=rowid)`,
			`CREATE TRIGGER pages_ai AFTER INSERT ON pages BEGIN
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER pages_ad AFTER DELETE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER pages_au AFTER UPDATE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IndexSummary holds counts from an indexing run.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Index reads converted markdown files from documents/markdown/ and
// populates the database, splitting each file into pages on the page
// separator. Files whose modification time matches the stored value are
// skipped, so repeat runs are incremental.
func (s *Store) Index(ctx context.Context, w io.Writer) (IndexSummary, error) {
	mdDir := filepath.Join(s.documentsDir, markdownDir)
	metaDir := filepath.Join(s.documentsDir, metadataDir)

	entries, err := os.ReadDir(mdDir)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("reading markdown directory %s: %w", mdDir, err)
	}

	var summary IndexSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), ".md")
		filePath := filepath.Join(mdDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE document_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		front, body := splitFrontmatter(string(data))
		pages := strings.Split(body, markdown.PageSeparator)
		doc := buildDocument(docID, front, body, loadDocumentMetadata(metaDir, docID))

		if err := s.indexDocument(ctx, doc, pages, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d pages)\n", docID, len(pages))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d pages)\n", docID, len(pages))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) indexDocument(ctx context.Context, doc types.Document, pages []string, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, doc.ID); err != nil {
			return fmt.Errorf("deleting old pages: %w", err)
		}
	}

	fetchedAt := ""
	if !doc.FetchedAt.IsZero() {
		fetchedAt = doc.FetchedAt.Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, source_url, pdf_path, fetched_at, conversion_status)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, source_url=excluded.source_url,
			pdf_path=excluded.pdf_path, fetched_at=excluded.fetched_at,
			conversion_status=excluded.conversion_status`,
		doc.ID, doc.Title, doc.SourceURL, doc.PDFPath, fetchedAt, string(doc.ConversionStatus),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO pages (document_id, page, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range pages {
		if _, err := stmt.ExecContext(ctx, doc.ID, i+1, content); err != nil {
			return fmt.Errorf("inserting page %d: %w", i+1, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (document_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		doc.ID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// frontmatter holds the fields convert writes ahead of the markdown body.
type frontmatter struct {
	DocumentID  string `yaml:"document_id"`
	SourcePDF   string `yaml:"source_pdf"`
	ConvertedAt string `yaml:"converted_at"`
}

// splitFrontmatter separates the YAML frontmatter from the body. Content
// without a frontmatter block is returned unchanged.
func splitFrontmatter(content string) (frontmatter, string) {
	var front frontmatter
	if !strings.HasPrefix(content, "---\n") {
		return front, content
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return front, content
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &front); err != nil {
		return frontmatter{}, content
	}
	return front, strings.TrimPrefix(rest[end+len("\n---\n"):], "\n")
}

// buildDocument merges the frontmatter, metadata sidecar, and body into
// one Document record. The sidecar wins for fetch metadata; the title
// falls back to the first level-one heading in the body.
func buildDocument(docID string, front frontmatter, body string, meta *types.Document) types.Document {
	doc := types.Document{ID: docID, ConversionStatus: types.ConversionDone}
	if meta != nil {
		doc = *meta
		doc.ID = docID
		doc.ConversionStatus = types.ConversionDone
	}
	if front.SourcePDF != "" {
		doc.PDFPath = front.SourcePDF
	}
	if doc.Title == "" {
		doc.Title = firstHeading(body)
	}
	return doc
}

// firstHeading returns the text of the first "# " line, or "".
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// loadDocumentMetadata reads a Document record from metaDir/[docID].yaml.
// Returns nil if the file does not exist or cannot be parsed.
func loadDocumentMetadata(metaDir, docID string) *types.Document {
	path := filepath.Join(metaDir, docID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc types.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}
