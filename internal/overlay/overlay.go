// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package overlay attaches page-level hyperlink regions to the text spans
// they cover. See docs/ARCHITECTURE § Link Overlay.
package overlay

import "github.com/pdiddy/markdown-engine/pkg/types"

// minOverlap is the fraction of a span's area a link region must cover
// before the link is attached. The comparison is strictly greater-than,
// so a link that merely grazes a span edge is not attached.
const minOverlap = 0.5

// AttachLinks returns a copy of blocks in which every text span that lies
// mostly under a link region carries that link. When several links
// qualify for one span, the first in input order wins. The input blocks
// are not modified.
func AttachLinks(blocks []types.Block, links []types.Link) []types.Block {
	out := make([]types.Block, len(blocks))
	for i, block := range blocks {
		out[i] = block
		if block.Kind != types.BlockText || len(links) == 0 {
			continue
		}
		out[i].Lines = attachToLines(block.Lines, links)
	}
	return out
}

func attachToLines(lines []types.TextLine, links []types.Link) []types.TextLine {
	out := make([]types.TextLine, len(lines))
	for i, line := range lines {
		out[i] = line
		out[i].Spans = make([]types.TextSpan, len(line.Spans))
		for j, span := range line.Spans {
			out[i].Spans[j] = span
			if link, ratio, ok := matchLink(span, links); ok {
				attached := link
				attached.OverlapRatio = ratio
				out[i].Spans[j].Link = &attached
			}
		}
	}
	return out
}

// matchLink finds the first link in input order whose region covers more
// than half of the span. Zero-area spans never match.
func matchLink(span types.TextSpan, links []types.Link) (types.Link, float64, bool) {
	for _, link := range links {
		ratio := span.BBox.OverlapRatio(link.SourceRect)
		if ratio > minOverlap {
			return link, ratio, true
		}
	}
	return types.Link{}, 0, false
}
