// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// DocumentID filters by document.
	DocumentID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.DocumentID == ""
}

// SearchResult is one matching page with its document metadata.
type SearchResult struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Title      string `json:"title" yaml:"title"`
	Page       int    `json:"page" yaml:"page"`

	// Snippet is the matching excerpt with match markers for full-text
	// queries, or the page's leading text for structured queries.
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Search queries the index with optional full-text search and a document
// filter. Full-text results are ranked by relevance; structured-only
// queries are sorted by document and page.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]SearchResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT pg.document_id, d.title, pg.page,
				snippet(pages_fts, 0, '>>', '<<', '…', 12)
			FROM pages_fts
			JOIN pages pg ON pg.rowid = pages_fts.rowid
			LEFT JOIN documents d ON pg.document_id = d.id
			WHERE pages_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT pg.document_id, d.title, pg.page, substr(pg.content, 1, 200)
			FROM pages pg
			LEFT JOIN documents d ON pg.document_id = d.id
			WHERE 1=1`)
	}

	if opts.DocumentID != "" {
		qb.WriteString(` AND pg.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY pages_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY pg.document_id, pg.page`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r     SearchResult
			title sql.NullString
		)
		if err := rows.Scan(&r.DocumentID, &title, &r.Page, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if title.Valid {
			r.Title = title.String
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Page returns the stored markdown for one page of a document.
func (s *Store) Page(ctx context.Context, docID string, page int) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM pages WHERE document_id = ? AND page = ?`, docID, page,
	).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("page %d of %s not found", page, docID)
		}
		return "", fmt.Errorf("looking up page: %w", err)
	}
	return content, nil
}
