// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns semantic types to page blocks from typographic
// and positional signals. It is the fallback for every analysis mode and
// never fails. See docs/ARCHITECTURE § Heuristic Classifier.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// heuristicConfidence is the fixed score reported for every heuristic
// assignment, distinct from any externally supplied confidence.
const heuristicConfidence = 0.7

var (
	// bulletPattern matches a leading bullet glyph. A following space is
	// not required: extractors frequently drop it ("*Item").
	bulletPattern = regexp.MustCompile(`^\s*[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}*\-+]`)

	// numberPattern matches a leading "N." or "N" list numeral.
	numberPattern = regexp.MustCompile(`^\s*\d+\.?\s`)
)

// Classify runs the typographic decision table over a page's blocks and
// returns the classification with the document hierarchy. Only text
// blocks receive entries; block indices refer to the full block sequence.
// Deterministic and pure; the worst case for unrecognizable content is
// paragraph at the heuristic confidence.
func Classify(blocks []types.Block) types.Classification {
	meanMargin := meanLeftMargin(blocks)

	result := types.Classification{
		Hierarchy: types.Hierarchy{
			Title:        "Unknown Document",
			DocumentType: "unknown",
		},
		FormattingNotes: []string{"heuristic analysis; no external analyzer"},
	}

	for i, block := range blocks {
		if block.Kind != types.BlockText {
			continue
		}

		size := avgFontSize(block)
		bold := isBold(block)
		text := block.Text()

		blockType := decide(i, size, bold, text, block.BBox.X0, meanMargin)

		switch blockType {
		case types.TypeTitle:
			if result.Hierarchy.Title == "Unknown Document" {
				result.Hierarchy.Title = strings.TrimSpace(text)
			}
		case types.TypeHeading1:
			result.Hierarchy.Sections = append(result.Hierarchy.Sections, strings.TrimSpace(text))
		}

		result.Structure = append(result.Structure, types.BlockClassification{
			BlockIndex: i,
			Type:       blockType,
			Confidence: heuristicConfidence,
			Reasoning:  fmt.Sprintf("heuristic: font_size=%.1f, bold=%v", size, bold),
		})
	}

	return result
}

// decide evaluates the decision table top to bottom; the first matching
// rule wins.
func decide(index int, size float64, bold bool, text string, leftX0, meanMargin float64) types.SemanticType {
	switch {
	case size >= 20 || (size >= 16 && bold):
		if index == 0 {
			return types.TypeTitle
		}
		return types.TypeHeading1
	case size >= 16 || (size >= 14 && bold):
		return types.TypeHeading2
	case size >= 14 || (size >= 12 && bold):
		return types.TypeHeading3
	case bulletPattern.MatchString(text) || numberPattern.MatchString(text):
		return types.TypeListItem
	case leftX0 > meanMargin:
		// Indented relative to the page mean margin. This also covers
		// list-item continuation blocks that lack a bullet glyph, at a
		// known cost: an indented quotation or code sample after a list
		// is classified as a list item too.
		return types.TypeListItem
	case len(strings.TrimSpace(text)) < 50 && strings.Contains(text, ":"):
		return types.TypeMetadata
	default:
		return types.TypeParagraph
	}
}

// avgFontSize is the mean of span sizes weighted by span count, not by
// character count. Blocks without spans report the body default of 12.
func avgFontSize(block types.Block) float64 {
	total, count := 0.0, 0
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			total += span.Size
			count++
		}
	}
	if count == 0 {
		return 12
	}
	return total / float64(count)
}

// isBold reports whether more than half of the block's characters are in
// bold spans.
func isBold(block types.Block) bool {
	boldChars, totalChars := 0, 0
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			n := len([]rune(span.Text))
			totalChars += n
			if span.Bold() {
				boldChars += n
			}
		}
	}
	return totalChars > 0 && float64(boldChars)/float64(totalChars) > 0.5
}

// meanLeftMargin averages the left edge of all text blocks on the page.
// Computed once per page; pages without text blocks report 0.
func meanLeftMargin(blocks []types.Block) float64 {
	total, count := 0.0, 0
	for _, block := range blocks {
		if block.Kind != types.BlockText {
			continue
		}
		total += block.BBox.X0
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
