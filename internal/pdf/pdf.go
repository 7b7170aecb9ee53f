// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/markdown-engine/internal/container"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

// ExtractorImage is the container image that reads a PDF on stdin and
// writes layout JSON on stdout.
const ExtractorImage = "pdftext:latest"

// ExtractLayout runs the extractor image against a PDF stream and parses
// the resulting layout JSON.
func ExtractLayout(rt container.Runtime, image string, pdf io.Reader) ([]types.Page, error) {
	var out bytes.Buffer
	if err := rt.Run(image, pdf, &out); err != nil {
		return nil, fmt.Errorf("extracting layout: %w", err)
	}
	return ParseLayout(&out)
}

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("counting pages in %s: %w", filepath.Base(path), err)
	}
	return n, nil
}

// imageNamePattern matches pdfcpu's extracted image names, which embed
// the 1-based page number: "<basename>_<page>_<resource>.<ext>".
var imageNamePattern = regexp.MustCompile(`_(\d+)_[^_.]+\.\w+$`)

// ExtractImages extracts embedded images into outDir and returns the
// written filenames grouped by 1-based page number, sorted within each
// page for deterministic renderer input.
func ExtractImages(pdfPath, outDir string) (map[int][]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	if err := api.ExtractImagesFile(pdfPath, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extracting images from %s: %w", filepath.Base(pdfPath), err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return groupImagesByPage(names), nil
}

// groupImagesByPage buckets extracted image filenames by the page number
// embedded in their names. Files that do not match the naming scheme are
// ignored.
func groupImagesByPage(names []string) map[int][]string {
	byPage := make(map[int][]string)
	for _, name := range names {
		m := imageNamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		byPage[page] = append(byPage[page], name)
	}
	for page := range byPage {
		sort.Strings(byPage[page])
	}
	return byPage
}
