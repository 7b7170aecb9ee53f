// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"

	"github.com/pdiddy/markdown-engine/internal/container"
	"github.com/pdiddy/markdown-engine/internal/pdf"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

// ContainerExtractor extracts page layout by piping PDFs through the
// pdftext container image. It depends on a container.Runtime (docker or
// podman) injected at construction time.
type ContainerExtractor struct {
	runtime container.Runtime
}

// NewContainerExtractor creates an extractor that uses the given
// container runtime. It verifies that the pdftext image exists locally
// before returning.
func NewContainerExtractor(rt container.Runtime) (*ContainerExtractor, error) {
	if err := rt.ImageExists(pdf.ExtractorImage); err != nil {
		return nil, fmt.Errorf("pdftext image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerExtractor{runtime: rt}, nil
}

// Extract reads the PDF at pdfPath, pipes it through the pdftext
// container, and returns the parsed pages.
func (e *ContainerExtractor) Extract(pdfPath string) ([]types.Page, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	pages, err := pdf.ExtractLayout(e.runtime, pdf.ExtractorImage, f)
	if err != nil {
		return nil, fmt.Errorf("extracting layout from %s: %w", pdfPath, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftext produced no pages for %s", pdfPath)
	}
	return pages, nil
}
