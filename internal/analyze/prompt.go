// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// analysisPromptTmpl is the structure-analysis prompt sent to an external
// analyzer for each page. It describes every text block with its
// typographic signals and the JSON reply schema the analyzer must use.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`# Page Structure Analysis Request

## Document Context
- File: {{.Filename}}
- Page: {{.PageNumber}} of {{.TotalPages}}
- Text Blocks: {{.BlockCount}} blocks detected

## Analysis Task
Classify the semantic role of each text block extracted from the page.

Classification types:
- title: main document title
- heading1: primary section header
- heading2: secondary section header
- heading3: tertiary section header
- heading4: quaternary section header
- paragraph: regular body text
- list_item: bulleted or numbered list item
- table_cell: table content
- caption: image or table caption
- metadata: header, footer, or page number
- other: unclassified content

## Text Blocks
{{.Blocks}}
## Expected Response Format
Reply with a single JSON object:

{
    "structure": [
        {"block_id": 0, "type": "heading1", "confidence": 0.95, "reasoning": "large font, prominent position"}
    ],
    "document_hierarchy": {
        "title": "Detected Document Title",
        "sections": ["Section 1", "Section 2"],
        "has_toc": false,
        "document_type": "article"
    },
    "formatting_notes": ["list formatting needs normalization"]
}

Consider font sizes, positioning, and content patterns. Look for
hierarchical relationships between headings and note formatting
inconsistencies that need correction.
`))

// BuildPrompt renders the analysis prompt for a page.
func BuildPrompt(blocks []types.Block, pctx PageContext) string {
	data := struct {
		Filename   string
		PageNumber int
		TotalPages int
		BlockCount int
		Blocks     string
	}{
		Filename:   pctx.Filename,
		PageNumber: pctx.PageNumber,
		TotalPages: pctx.TotalPages,
		BlockCount: countTextBlocks(blocks),
		Blocks:     describeBlocks(blocks),
	}

	var b strings.Builder
	if err := analysisPromptTmpl.Execute(&b, data); err != nil {
		// The template is static and the data plain strings; execution
		// cannot fail at runtime.
		panic(err)
	}
	return b.String()
}

func countTextBlocks(blocks []types.Block) int {
	n := 0
	for _, b := range blocks {
		if b.Kind == types.BlockText {
			n++
		}
	}
	return n
}

// describeBlocks formats each text block's typographic signals for the
// analyzer: average font size, style flags, position, text, and fonts.
func describeBlocks(blocks []types.Block) string {
	var b strings.Builder
	for i, block := range blocks {
		if block.Kind != types.BlockText {
			continue
		}

		size, bold, italic, fonts := blockSignals(block)

		var flags []string
		if bold {
			flags = append(flags, "BOLD")
		}
		if italic {
			flags = append(flags, "ITALIC")
		}
		flagStr := ""
		if len(flags) > 0 {
			flagStr = " [" + strings.Join(flags, ", ") + "]"
		}

		fmt.Fprintf(&b, "Block %d: Font: %.1fpt%s | Position: (%.1f, %.1f, %.1f, %.1f)\n",
			i, size, flagStr,
			block.BBox.X0, block.BBox.Y0, block.BBox.X1, block.BBox.Y1)
		fmt.Fprintf(&b, "Text: %s\n", strings.TrimSpace(block.Text()))
		fmt.Fprintf(&b, "Fonts: %s\n\n", strings.Join(fonts, ", "))
	}
	return b.String()
}

// blockSignals gathers the average span font size, style flags, and the
// distinct font names of a block, in first-use order.
func blockSignals(block types.Block) (size float64, bold, italic bool, fonts []string) {
	seen := map[string]bool{}
	count := 0
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			size += span.Size
			count++
			if span.Bold() {
				bold = true
			}
			if span.Italic() {
				italic = true
			}
			if span.Font != "" && !seen[span.Font] {
				seen[span.Font] = true
				fonts = append(fonts, span.Font)
			}
		}
	}
	if count > 0 {
		size /= float64(count)
	}
	return size, bold, italic, fonts
}
