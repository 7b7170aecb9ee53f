// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf turns PDF files into the fragment model: styled-text layout
// via the pdftext container image, page counts and embedded images via
// pdfcpu. See docs/ARCHITECTURE § Extraction.
package pdf

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// Link kind codes in the extractor's layout JSON. The codes follow the
// PDF annotation convention the pdftext image emits.
const (
	linkKindGoto = 1
	linkKindURI  = 2
)

// layoutDoc mirrors the JSON the pdftext container writes on stdout:
// pages of blocks, each block either styled text lines or an image
// placeholder, plus the page's link annotations.
type layoutDoc struct {
	Pages []layoutPage `json:"pages"`
}

type layoutPage struct {
	Number int           `json:"number"`
	Blocks []layoutBlock `json:"blocks"`
	Links  []layoutLink  `json:"links"`
}

type layoutBlock struct {
	Type  string       `json:"type"` // "text" or "image"
	BBox  [4]float64   `json:"bbox"`
	Lines []layoutLine `json:"lines"`
}

type layoutLine struct {
	BBox  [4]float64   `json:"bbox"`
	Spans []layoutSpan `json:"spans"`
}

type layoutSpan struct {
	Text  string     `json:"text"`
	Font  string     `json:"font"`
	Size  float64    `json:"size"`
	Flags int        `json:"flags"`
	Color int        `json:"color"`
	BBox  [4]float64 `json:"bbox"`
}

type layoutLink struct {
	Kind int        `json:"kind"`
	URI  string     `json:"uri"`
	Page int        `json:"page"` // 0-based target page for goto links, -1 when unknown
	From [4]float64 `json:"from"`
}

// ParseLayout decodes extractor layout JSON into pages of the fragment
// model. Page numbers default to position order when the extractor
// omits them.
func ParseLayout(r io.Reader) ([]types.Page, error) {
	var doc layoutDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding layout JSON: %w", err)
	}

	pages := make([]types.Page, 0, len(doc.Pages))
	for i, lp := range doc.Pages {
		page := types.Page{Number: lp.Number}
		if page.Number == 0 {
			page.Number = i + 1
		}
		for _, lb := range lp.Blocks {
			page.Blocks = append(page.Blocks, convertBlock(lb))
		}
		for _, ll := range lp.Links {
			page.Links = append(page.Links, convertLink(ll))
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func convertBlock(lb layoutBlock) types.Block {
	block := types.Block{BBox: rect(lb.BBox)}
	if lb.Type == "image" {
		block.Kind = types.BlockImage
		return block
	}
	block.Kind = types.BlockText
	for _, ll := range lb.Lines {
		line := types.TextLine{BBox: rect(ll.BBox)}
		for _, ls := range ll.Spans {
			line.Spans = append(line.Spans, types.TextSpan{
				Text:  ls.Text,
				Font:  ls.Font,
				Size:  ls.Size,
				Flags: ls.Flags,
				Color: ls.Color,
				BBox:  rect(ls.BBox),
			})
		}
		block.Lines = append(block.Lines, line)
	}
	return block
}

// convertLink maps an annotation record to a Link. Goto links become
// "#page-N" anchors so in-document references survive the markdown
// round trip; an unknown target page degrades to a bare "#".
func convertLink(ll layoutLink) types.Link {
	link := types.Link{SourceRect: rect(ll.From)}
	switch ll.Kind {
	case linkKindURI:
		link.Kind = types.LinkExternal
		link.URL = ll.URI
	case linkKindGoto:
		link.Kind = types.LinkInternal
		if ll.Page >= 0 {
			link.URL = fmt.Sprintf("#page-%d", ll.Page+1)
		} else {
			link.URL = "#"
		}
	default:
		link.Kind = types.LinkOther
		link.URL = ll.URI
	}
	return link
}

func rect(b [4]float64) types.Rect {
	return types.Rect{X0: b[0], Y0: b[1], X1: b[2], Y1: b[3]}
}
