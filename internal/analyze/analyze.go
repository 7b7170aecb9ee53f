// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze orchestrates page structure analysis. An optional
// external Backend (direct callback, interactive exchange, or the Claude
// API) is given one attempt per page; its reply is shape-validated and
// repaired, and any top-level failure falls back to the typographic
// classifier. Analysis therefore never fails.
// See docs/ARCHITECTURE § Structure Analyzer.
package analyze

import (
	"context"

	"github.com/pdiddy/markdown-engine/internal/classify"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

// Backend is the single external-analysis capability: given the rendered
// prompt and the page blocks, return the analyzer's reply as a decoded
// JSON object. Implementations decide how the exchange happens.
type Backend interface {
	Analyze(ctx context.Context, prompt string, blocks []types.Block) (map[string]any, error)
}

// PageContext describes the page being analyzed, for the prompt.
type PageContext struct {
	// Filename is the source document name.
	Filename string

	// PageNumber is the 1-based page number.
	PageNumber int

	// TotalPages is the page count of the document.
	TotalPages int
}

// Analyze classifies a page's blocks. With a nil backend (disabled mode)
// the heuristic classifier runs directly. Otherwise the backend gets
// exactly one attempt; an error, a cancelled context, or an unusable
// reply all resolve to the heuristic result. No retries.
func Analyze(ctx context.Context, backend Backend, blocks []types.Block, pctx PageContext) types.Classification {
	if backend == nil {
		return classify.Classify(blocks)
	}

	prompt := BuildPrompt(blocks, pctx)

	reply, err := backend.Analyze(ctx, prompt, blocks)
	if err != nil {
		return classify.Classify(blocks)
	}

	result, err := parseReply(reply, len(blocks))
	if err != nil {
		return classify.Classify(blocks)
	}
	return result
}
