// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/markdown-engine/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the document index",
	Long: `Search queries the document index with FTS5 full-text search, a
document filter, or both. Results list the matching document, page, and
an excerpt around the match.

Use --show with --document and --page to print one stored page.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("documents-dir", "documents", "base directory for documents")
	searchCmd.Flags().String("index-dir", "", "directory for the index database (default: documents-dir/index)")
	searchCmd.Flags().Int("max-results", 20, "maximum number of query results")
	searchCmd.Flags().String("document", "", "filter by document ID")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("show", false, "print the page named by --document and --page")
	searchCmd.Flags().Int("page", 0, "page number for --show")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, documentsDir := indexConfig(cmd)

	s, err := store.NewStore(cfg, documentsDir)
	if err != nil {
		return err
	}
	defer s.Close()

	// Show mode: print one stored page verbatim.
	show, _ := cmd.Flags().GetBool("show")
	if show {
		docID, _ := cmd.Flags().GetString("document")
		page, _ := cmd.Flags().GetInt("page")
		if docID == "" || page <= 0 {
			return fmt.Errorf("--show requires --document and --page")
		}
		content, err := s.Page(context.Background(), docID, page)
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	}

	docID, _ := cmd.Flags().GetString("document")
	limit, _ := cmd.Flags().GetInt("limit")
	opts := store.QueryOptions{
		Query:      strings.Join(args, " "),
		DocumentID: docID,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query or --document")
	}

	results, err := s.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []store.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-30s  %-4s  %s\n",
		"Rank", "Document", "Title", "Page", "Excerpt")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		doc := r.DocumentID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		title := r.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		if len(snippet) > 48 {
			snippet = snippet[:45] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-30s  %-4d  %s\n",
			i+1, doc, title, r.Page, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
