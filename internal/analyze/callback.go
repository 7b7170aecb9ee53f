// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// AnalysisFunc is a synchronous external analyzer: given the rendered
// prompt and the page blocks, it returns the analyzer's reply object.
type AnalysisFunc func(prompt string, blocks []types.Block) (map[string]any, error)

// Callback adapts a registered analysis function to the Backend
// interface. Used when the embedding application can answer analysis
// requests in-process.
type Callback struct {
	Fn AnalysisFunc
}

// Analyze invokes the registered function once.
func (c *Callback) Analyze(_ context.Context, prompt string, blocks []types.Block) (map[string]any, error) {
	if c.Fn == nil {
		return nil, fmt.Errorf("no analysis callback registered")
	}
	return c.Fn(prompt, blocks)
}
