// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the state of PDF-to-Markdown conversion for
// a document.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Document holds metadata and file paths for a tracked PDF.
type Document struct {
	// ID is a slug derived from the source filename.
	ID string `json:"id" yaml:"id"`

	// SourceURL is the URL the PDF was fetched from, when fetched.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// PDFPath is the local filesystem path to the PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Title is the document title inferred during analysis.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// FetchedAt is when the PDF was downloaded. Zero for local files.
	FetchedAt time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`

	// ConversionStatus tracks whether the PDF has been converted.
	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`
}
