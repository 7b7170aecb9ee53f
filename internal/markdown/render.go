// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown renders classified page fragments to markdown text.
// See docs/ARCHITECTURE § Rendering.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// PageSeparator joins per-page markdown into a document. Downstream
// consumers split on this exact string, so it must not change.
const PageSeparator = "\n\n---\n\n"

// headingPrefix maps semantic types to markdown heading markers. Types
// without an entry render with no prefix.
var headingPrefix = map[types.SemanticType]string{
	types.TypeTitle:    "# ",
	types.TypeHeading1: "# ",
	types.TypeHeading2: "## ",
	types.TypeHeading3: "### ",
	types.TypeHeading4: "#### ",
}

var (
	orderedMarkerPattern = regexp.MustCompile(`^\d+\. `)
	bulletGlyphPattern   = regexp.MustCompile(`^[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}*\-+]\s*`)
	numberPrefixPattern  = regexp.MustCompile(`^\d+\.\s*`)
)

// Render converts one page of blocks to markdown, applying the semantic
// types from classification. Image references are consumed in block
// order, one per image block; when refs run out the remaining image
// blocks render as nothing. Blocks without a classification entry
// render as paragraphs. An entry whose index does not name a block is a
// caller bug and returns an error.
func Render(blocks []types.Block, classification types.Classification, imageRefs []string) (string, error) {
	typeFor := make(map[int]types.SemanticType, len(classification.Structure))
	for _, entry := range classification.Structure {
		if entry.BlockIndex < 0 || entry.BlockIndex >= len(blocks) {
			return "", fmt.Errorf("invalid block index %d (page has %d blocks)", entry.BlockIndex, len(blocks))
		}
		typeFor[entry.BlockIndex] = entry.Type
	}

	var lines []string
	imageIdx := 0

	for i, block := range blocks {
		if block.Kind == types.BlockImage {
			if imageIdx < len(imageRefs) {
				lines = append(lines, fmt.Sprintf("![Image](%s)", imageRefs[imageIdx]), "")
				imageIdx++
			}
			continue
		}

		text := strings.TrimSpace(extractText(block))
		if text == "" {
			continue
		}

		typ, ok := typeFor[i]
		if !ok {
			typ = types.TypeParagraph
		}

		if typ == types.TypeListItem {
			lines = append(lines, normalizeListItem(text), "")
			continue
		}
		lines = append(lines, headingPrefix[typ]+text, "")
	}

	return strings.Join(lines, "\n"), nil
}

// JoinPages concatenates per-page markdown with the page separator.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// normalizeListItem rewrites a list marker to markdown form. Ordered
// markers ("3. text") are kept verbatim; bullet glyphs and bare numeric
// prefixes are replaced with "- ".
func normalizeListItem(text string) string {
	if orderedMarkerPattern.MatchString(text) {
		return text
	}
	rest := text
	if m := bulletGlyphPattern.FindString(rest); m != "" {
		rest = rest[len(m):]
	} else if m := numberPrefixPattern.FindString(rest); m != "" {
		rest = rest[len(m):]
	}
	if orderedMarkerPattern.MatchString(rest) {
		return rest
	}
	return "- " + rest
}

// extractText flattens a block's spans, folding runs of spans that share
// a link URL into a single markdown link. PDF extractors often split one
// hyperlink into per-word spans, so adjacent same-URL spans merge.
func extractText(block types.Block) string {
	var spans []types.TextSpan
	for _, line := range block.Lines {
		spans = append(spans, line.Spans...)
	}

	var b strings.Builder
	for i := 0; i < len(spans); {
		span := spans[i]
		if span.Link == nil {
			b.WriteString(span.Text)
			i++
			continue
		}

		url := span.Link.URL
		var run strings.Builder
		for i < len(spans) && spans[i].Link != nil && spans[i].Link.URL == url {
			run.WriteString(spans[i].Text)
			i++
		}
		label := strings.TrimSpace(run.String())
		if label == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s](%s)", label, url)
	}
	return b.String()
}
