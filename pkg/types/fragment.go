// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the conversion pipeline:
// page fragments (spans, lines, blocks), link records, and the structure
// classification produced by page analysis.
package types

// Style flag bits carried by TextSpan.Flags. The values match the
// extractor's span flags, so they survive the layout JSON round trip.
const (
	FlagItalic = 1 << 1
	FlagBold   = 1 << 4
)

// LinkKind distinguishes where a link points.
type LinkKind string

const (
	LinkExternal LinkKind = "external"
	LinkInternal LinkKind = "internal"
	LinkOther    LinkKind = "other"
)

// Link is a page-level hyperlink region. The overlay stage attaches a copy
// to every span whose area lies mostly inside SourceRect.
type Link struct {
	// Kind reports whether the target is an external URI, an internal
	// page anchor, or something else.
	Kind LinkKind `json:"kind" yaml:"kind"`

	// URL is the link target. External links carry the original URI;
	// internal links carry a synthesized "#page-N" anchor, or "#" when
	// the target page is unknown.
	URL string `json:"url" yaml:"url"`

	// SourceRect is the clickable region on the page.
	SourceRect Rect `json:"source_rect" yaml:"source_rect"`

	// OverlapRatio records how much of the annotated span the link
	// region covered. Only set on span copies produced by the overlay.
	OverlapRatio float64 `json:"overlap_ratio,omitempty" yaml:"overlap_ratio,omitempty"`
}

// TextSpan is a contiguous run of same-styled text. Spans are produced by
// the extractor and treated as immutable; the overlay annotates derived
// copies rather than mutating extractor output.
type TextSpan struct {
	// Text is the raw span text, whitespace included.
	Text string `json:"text" yaml:"text"`

	// Font is the font name as reported by the extractor.
	Font string `json:"font" yaml:"font"`

	// Size is the font size in points. Always positive.
	Size float64 `json:"size" yaml:"size"`

	// Flags carries the style bits (FlagBold, FlagItalic).
	Flags int `json:"flags" yaml:"flags"`

	// Color is the text color as a packed RGB integer.
	Color int `json:"color" yaml:"color"`

	// BBox is the span's bounding box in page coordinates.
	BBox Rect `json:"bbox" yaml:"bbox"`

	// Link is the attached hyperlink, if the overlay found one.
	Link *Link `json:"link,omitempty" yaml:"link,omitempty"`
}

// Bold reports whether the span's bold style bit is set.
func (s TextSpan) Bold() bool { return s.Flags&FlagBold != 0 }

// Italic reports whether the span's italic style bit is set.
func (s TextSpan) Italic() bool { return s.Flags&FlagItalic != 0 }

// TextLine is an ordered sequence of spans sharing a visual line.
type TextLine struct {
	BBox  Rect       `json:"bbox" yaml:"bbox"`
	Spans []TextSpan `json:"spans" yaml:"spans"`
}

// BlockKind tags a block as text or image content.
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockImage BlockKind = "image"
)

// Block is one fragment of a page: a paragraph-like run of text lines or
// an image placeholder. The order of blocks within a page is the reading
// order and determines markdown image placement.
type Block struct {
	// Kind is BlockText or BlockImage.
	Kind BlockKind `json:"kind" yaml:"kind"`

	// BBox is the block's bounding box (union of its lines for text).
	BBox Rect `json:"bbox" yaml:"bbox"`

	// Lines holds the text content. Empty for image blocks.
	Lines []TextLine `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// Text concatenates all span texts of a text block in reading order.
// Image blocks yield "".
func (b Block) Text() string {
	var out []byte
	for _, line := range b.Lines {
		for _, span := range line.Spans {
			out = append(out, span.Text...)
		}
	}
	return string(out)
}

// Page is the extractor's view of one document page: ordered fragments,
// the page-level link regions, and references to extracted image files.
type Page struct {
	// Number is the 1-based page number.
	Number int `json:"number" yaml:"number"`

	// Blocks are the page fragments in reading order.
	Blocks []Block `json:"blocks" yaml:"blocks"`

	// Links are the page's hyperlink regions in extractor order.
	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`

	// ImageRefs are relative paths of extracted images, consumed by the
	// renderer strictly in block-encounter order.
	ImageRefs []string `json:"image_refs,omitempty" yaml:"image_refs,omitempty"`
}
