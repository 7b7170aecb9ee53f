// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/markdown-engine/internal/analyze"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// analysisBackend builds the structure-analysis backend from the shared
// --mode/--model/--max-retries flags. Heuristic mode returns nil, which
// disables external analysis.
func analysisBackend(cmd *cobra.Command) (analyze.Backend, error) {
	mode, _ := cmd.Flags().GetString("mode")

	switch types.AnalysisMode(mode) {
	case types.ModeHeuristic, "":
		return nil, nil

	case types.ModeExchange:
		return &analyze.Exchange{In: os.Stdin, Out: os.Stderr}, nil

	case types.ModeClaude:
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = defaultModel
		}
		maxRetries, _ := cmd.Flags().GetInt("max-retries")
		apiKey := secretDefault("anthropic-api-key", os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("claude mode requires an API key: put it in .secrets/anthropic-api-key or set ANTHROPIC_API_KEY")
		}
		return &analyze.ClaudeBackend{
			APIKey:     apiKey,
			Model:      model,
			MaxRetries: maxRetries,
		}, nil
	}

	return nil, fmt.Errorf("unknown analysis mode %q: use heuristic, exchange, or claude", mode)
}

// addAnalysisFlags registers the shared analysis flags on a command.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "heuristic", "structure analysis mode: heuristic, exchange, or claude")
	cmd.Flags().String("model", "", "AI model identifier for claude mode")
	cmd.Flags().Int("max-retries", 3, "retry attempts for rate-limited API calls")
	cmd.Flags().Duration("analysis-timeout", 0, "per-page bound on external analysis (0 = none)")
}
