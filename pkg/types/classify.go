// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SemanticType is the inferred document role of a block.
type SemanticType string

const (
	TypeTitle     SemanticType = "title"
	TypeHeading1  SemanticType = "heading1"
	TypeHeading2  SemanticType = "heading2"
	TypeHeading3  SemanticType = "heading3"
	TypeHeading4  SemanticType = "heading4"
	TypeParagraph SemanticType = "paragraph"
	TypeListItem  SemanticType = "list_item"
	TypeTableCell SemanticType = "table_cell"
	TypeCaption   SemanticType = "caption"
	TypeMetadata  SemanticType = "metadata"
	TypeOther     SemanticType = "other"
)

// ValidSemanticType reports whether t is one of the known semantic types.
func ValidSemanticType(t SemanticType) bool {
	switch t {
	case TypeTitle, TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4,
		TypeParagraph, TypeListItem, TypeTableCell, TypeCaption,
		TypeMetadata, TypeOther:
		return true
	}
	return false
}

// BlockClassification assigns a semantic type to one block of a page.
type BlockClassification struct {
	// BlockIndex is the 0-based index into the page's block sequence.
	// Unique within a Classification.
	BlockIndex int `json:"block_id" yaml:"block_id"`

	// Type is the block's semantic role.
	Type SemanticType `json:"type" yaml:"type"`

	// Confidence is the classifier's certainty in [0, 1]. The heuristic
	// classifier always reports 0.7; external analyzers supply their own.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Reasoning is a free-text justification for the assignment.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// Hierarchy is the document-level structure detected during analysis.
type Hierarchy struct {
	// Title is the detected document title, or "Unknown Document".
	Title string `json:"title" yaml:"title"`

	// Sections lists heading1 texts in block order.
	Sections []string `json:"sections" yaml:"sections"`

	// HasTOC reports whether a table of contents was detected.
	HasTOC bool `json:"has_toc" yaml:"has_toc"`

	// DocumentType is a coarse label such as "article" or "report".
	DocumentType string `json:"document_type" yaml:"document_type"`
}

// Classification is the full structure-analysis result for one page.
type Classification struct {
	// Structure holds one entry per classified text block.
	Structure []BlockClassification `json:"structure" yaml:"structure"`

	// Hierarchy is the document-level summary.
	Hierarchy Hierarchy `json:"document_hierarchy" yaml:"document_hierarchy"`

	// FormattingNotes are free-text observations about the page layout.
	FormattingNotes []string `json:"formatting_notes,omitempty" yaml:"formatting_notes,omitempty"`
}

// TypeFor returns the semantic type recorded for the given block index,
// defaulting to paragraph when no entry covers it.
func (c Classification) TypeFor(blockIndex int) SemanticType {
	for _, bc := range c.Structure {
		if bc.BlockIndex == blockIndex {
			return bc.Type
		}
	}
	return TypeParagraph
}
