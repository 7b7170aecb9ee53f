// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/markdown-engine/internal/store"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index converted Markdown into the search database",
	Long: `Index reads converted Markdown files from documents/markdown/, splits
them into pages, and populates a SQLite database with FTS5 full-text
search. Unchanged documents are skipped on subsequent runs.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("documents-dir", "documents", "base directory for documents")
	indexCmd.Flags().String("index-dir", "", "directory for the index database (default: documents-dir/index)")

	rootCmd.AddCommand(indexCmd)
}

// indexConfig resolves the shared index flags.
func indexConfig(cmd *cobra.Command) (types.IndexConfig, string) {
	documentsDir, _ := cmd.Flags().GetString("documents-dir")
	if documentsDir == "" {
		documentsDir = "documents"
	}
	indexDir, _ := cmd.Flags().GetString("index-dir")
	if indexDir == "" {
		indexDir = filepath.Join(documentsDir, "index")
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.IndexConfig{IndexDir: indexDir, MaxResults: maxResults}, documentsDir
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, documentsDir := indexConfig(cmd)

	s, err := store.NewStore(cfg, documentsDir)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Index(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}
