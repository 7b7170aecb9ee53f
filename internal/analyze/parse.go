// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// replySchema gates only the top-level reply shape: an object whose
// "structure" member is a sequence of records. Individual records are
// repaired, not rejected, so the schema stays deliberately loose.
var replySchema = jsonschema.MustCompileString("analyzer-reply.json", `{
	"type": "object",
	"required": ["structure"],
	"properties": {
		"structure": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`)

// ParseReplyText decodes a textual analyzer reply into a JSON object,
// tolerating a fenced code-block wrapper by extracting the substring
// between the first "{" and the last "}".
func ParseReplyText(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty analyzer reply")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in analyzer reply")
	}

	var reply map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("parsing analyzer reply: %w", err)
	}
	return reply, nil
}

// parseReply validates the top-level shape of an analyzer reply and
// converts it to a Classification. Malformed individual records are
// defaulted or dropped; only an unusable top level is an error.
func parseReply(reply map[string]any, numBlocks int) (types.Classification, error) {
	if reply == nil {
		return types.Classification{}, fmt.Errorf("nil analyzer reply")
	}
	if err := replySchema.Validate(normalize(reply)); err != nil {
		return types.Classification{}, fmt.Errorf("analyzer reply shape: %w", err)
	}

	records, _ := reply["structure"].([]any)

	var result types.Classification
	seen := make(map[int]bool, len(records))

	for _, raw := range records {
		record, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		id, ok := intField(record, "block_id")
		if !ok || id < 0 || id >= numBlocks || seen[id] {
			// Unknown or duplicate block: drop this record, keep the rest.
			continue
		}
		seen[id] = true

		typ := types.SemanticType(stringField(record, "type"))
		if !types.ValidSemanticType(typ) {
			typ = types.TypeParagraph
		}

		result.Structure = append(result.Structure, types.BlockClassification{
			BlockIndex: id,
			Type:       typ,
			Confidence: floatField(record, "confidence"),
			Reasoning:  stringField(record, "reasoning"),
		})
	}

	result.Hierarchy = parseHierarchy(reply)
	result.FormattingNotes = stringSlice(reply["formatting_notes"])
	return result, nil
}

func parseHierarchy(reply map[string]any) types.Hierarchy {
	h := types.Hierarchy{Title: "Unknown Document", DocumentType: "unknown"}

	m, ok := reply["document_hierarchy"].(map[string]any)
	if !ok {
		return h
	}
	if title := stringField(m, "title"); title != "" {
		h.Title = title
	}
	if dt := stringField(m, "document_type"); dt != "" {
		h.DocumentType = dt
	}
	if toc, ok := m["has_toc"].(bool); ok {
		h.HasTOC = toc
	}
	h.Sections = stringSlice(m["sections"])
	return h
}

// normalize re-decodes the reply through encoding/json so schema
// validation sees canonical types even when a callback built the map
// with concrete Go values (ints, typed slices).
func normalize(reply map[string]any) any {
	data, err := json.Marshal(reply)
	if err != nil {
		return reply
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return reply
	}
	return v
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
