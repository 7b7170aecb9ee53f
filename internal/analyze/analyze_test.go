// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/markdown-engine/internal/classify"
	"github.com/pdiddy/markdown-engine/internal/httputil"
	"github.com/pdiddy/markdown-engine/pkg/types"
)

func TestMain(m *testing.M) {
	// Avoid real sleeps when exercising 429 retries.
	httputil.RetryBaseDelay = time.Millisecond
	m.Run()
}

func testBlocks() []types.Block {
	mk := func(text string, size float64, bold bool) types.Block {
		flags := 0
		if bold {
			flags = types.FlagBold
		}
		return types.Block{
			Kind: types.BlockText,
			BBox: types.Rect{X0: 72, Y0: 0, X1: 300, Y1: 20},
			Lines: []types.TextLine{{Spans: []types.TextSpan{
				{Text: text, Size: size, Flags: flags, Font: "Helvetica"},
			}}},
		}
	}
	return []types.Block{
		mk("Introduction", 24, true),
		mk("This is body text.", 11, false),
		mk("• First point", 11, false),
	}
}

func testPageContext() PageContext {
	return PageContext{Filename: "doc.pdf", PageNumber: 1, TotalPages: 1}
}

// failingBackend always errors.
type failingBackend struct{}

func (failingBackend) Analyze(context.Context, string, []types.Block) (map[string]any, error) {
	return nil, fmt.Errorf("analyzer unavailable")
}

func TestAnalyze_DisabledModeUsesHeuristic(t *testing.T) {
	blocks := testBlocks()

	got := Analyze(context.Background(), nil, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("disabled mode result differs from heuristic:\n got %+v\nwant %+v", got, want)
	}
}

func TestAnalyze_BrokenBackendEqualsDisabled(t *testing.T) {
	blocks := testBlocks()
	pctx := testPageContext()

	broken := Analyze(context.Background(), failingBackend{}, blocks, pctx)
	disabled := Analyze(context.Background(), nil, blocks, pctx)

	if !reflect.DeepEqual(broken, disabled) {
		t.Errorf("broken backend should be equivalent to disabled mode:\n got %+v\nwant %+v", broken, disabled)
	}
}

func TestAnalyze_MalformedReplyShapeFallsBack(t *testing.T) {
	blocks := testBlocks()
	backend := &Callback{Fn: func(string, []types.Block) (map[string]any, error) {
		return map[string]any{"not_structure": []any{}}, nil
	}}

	got := Analyze(context.Background(), backend, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Error("reply without structure key should fall back to heuristic")
	}
}

func TestAnalyze_CallbackReplyAccepted(t *testing.T) {
	blocks := testBlocks()
	backend := &Callback{Fn: func(prompt string, _ []types.Block) (map[string]any, error) {
		if !strings.Contains(prompt, "Block 0") {
			t.Errorf("prompt should describe block 0, got:\n%s", prompt)
		}
		return map[string]any{
			"structure": []any{
				map[string]any{"block_id": 0, "type": "title", "confidence": 0.95},
				map[string]any{"block_id": 1, "type": "not-a-type", "confidence": 0.5},
				map[string]any{"block_id": 99, "type": "paragraph"},
				map[string]any{"block_id": 0, "type": "heading2"},
				map[string]any{"block_id": 2, "type": "list_item", "reasoning": "bullet glyph"},
			},
			"document_hierarchy": map[string]any{
				"title":         "Sample Doc",
				"sections":      []any{"Intro"},
				"has_toc":       true,
				"document_type": "article",
			},
			"formatting_notes": []any{"ok"},
		}, nil
	}}

	got := Analyze(context.Background(), backend, blocks, testPageContext())

	if len(got.Structure) != 3 {
		t.Fatalf("structure entries = %d, want 3 (out-of-range and duplicate dropped)", len(got.Structure))
	}
	if got.Structure[0].Type != types.TypeTitle || got.Structure[0].Confidence != 0.95 {
		t.Errorf("block 0 = %+v, want title at 0.95", got.Structure[0])
	}
	if got.Structure[1].Type != types.TypeParagraph {
		t.Errorf("unknown type should default to paragraph, got %q", got.Structure[1].Type)
	}
	if got.Structure[2].Type != types.TypeListItem || got.Structure[2].Reasoning != "bullet glyph" {
		t.Errorf("block 2 = %+v", got.Structure[2])
	}
	if got.Hierarchy.Title != "Sample Doc" || !got.Hierarchy.HasTOC {
		t.Errorf("hierarchy = %+v", got.Hierarchy)
	}
	if len(got.Hierarchy.Sections) != 1 || got.Hierarchy.Sections[0] != "Intro" {
		t.Errorf("sections = %v", got.Hierarchy.Sections)
	}
}

func TestParseReplyText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "plain JSON",
			text: `{"structure": []}`,
		},
		{
			name: "fenced code block",
			text: "```json\n{\"structure\": []}\n```",
		},
		{
			name: "prose around the object",
			text: "Here is my analysis:\n{\"structure\": []}\nHope that helps.",
		},
		{
			name:    "empty reply",
			text:    "",
			wantErr: true,
		},
		{
			name:    "no JSON object",
			text:    "I could not analyze this page.",
			wantErr: true,
		},
		{
			name:    "truncated JSON",
			text:    `{"structure": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseReplyText(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", reply)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := reply["structure"]; !ok {
				t.Error("parsed reply should contain structure key")
			}
		})
	}
}

func TestExchange_ValidReply(t *testing.T) {
	reply := "```json\n" +
		`{"structure": [{"block_id": 1, "type": "heading2", "confidence": 0.9}]}` +
		"\n```\n\n"
	var out strings.Builder
	backend := &Exchange{In: strings.NewReader(reply), Out: &out}

	got := Analyze(context.Background(), backend, testBlocks(), testPageContext())

	if got.TypeFor(1) != types.TypeHeading2 {
		t.Errorf("block 1 = %q, want heading2 from the exchange reply", got.TypeFor(1))
	}
	if !strings.Contains(out.String(), "ANALYSIS REQUEST") {
		t.Error("exchange should print the prompt banner")
	}
}

func TestExchange_EmptyReplyFallsBack(t *testing.T) {
	blocks := testBlocks()
	var out strings.Builder
	backend := &Exchange{In: strings.NewReader("\n"), Out: &out}

	got := Analyze(context.Background(), backend, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Error("empty exchange reply should fall back to heuristic")
	}
}

func TestExchange_GarbageReplyFallsBack(t *testing.T) {
	blocks := testBlocks()
	var out strings.Builder
	backend := &Exchange{In: strings.NewReader("this is not JSON at all\n\n"), Out: &out}

	got := Analyze(context.Background(), backend, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Error("unparsable exchange reply should fall back to heuristic")
	}
}

// blockedReader never delivers data, standing in for a reply that never
// arrives.
type blockedReader struct{}

func (blockedReader) Read([]byte) (int, error) {
	select {} // block forever
}

func TestExchange_CancellationFallsBack(t *testing.T) {
	blocks := testBlocks()
	var out strings.Builder
	backend := &Exchange{In: blockedReader{}, Out: &out}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got := Analyze(ctx, backend, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Error("cancelled exchange should resolve to the heuristic result")
	}
}

func TestClaudeBackend(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		resp := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": `{"structure": [{"block_id": 0, "type": "title", "confidence": 0.9}]}`},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "test-key", Model: "test-model", MaxRetries: 2}
	got := Analyze(context.Background(), backend, testBlocks(), testPageContext())

	if got.TypeFor(0) != types.TypeTitle {
		t.Errorf("block 0 = %q, want title from Claude reply", got.TypeFor(0))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one 429 retry)", calls)
	}
}

func TestClaudeBackend_APIErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	blocks := testBlocks()
	backend := &ClaudeBackend{APIKey: "k", Model: "m"}

	got := Analyze(context.Background(), backend, blocks, testPageContext())
	want := classify.Classify(blocks)

	if !reflect.DeepEqual(got, want) {
		t.Error("API failure should fall back to heuristic")
	}
}
