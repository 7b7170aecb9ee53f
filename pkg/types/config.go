// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "markdown-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for downloading remote PDFs.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DocumentsDir is the base directory for documents (contains raw/,
	// metadata/, markdown/, images/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API
	// calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnalysisMode selects how page structure analysis is performed.
type AnalysisMode string

const (
	// ModeHeuristic disables external analysis; the typographic
	// classifier runs directly.
	ModeHeuristic AnalysisMode = "heuristic"

	// ModeExchange prints the analysis prompt and waits for a pasted
	// reply on the input stream.
	ModeExchange AnalysisMode = "exchange"

	// ModeClaude sends the analysis prompt to the Claude API.
	ModeClaude AnalysisMode = "claude"
)

// AnalysisConfig holds settings for the structure-analysis stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// Mode selects the analysis backend: heuristic, exchange, or claude.
	Mode AnalysisMode `json:"mode" yaml:"mode"`

	// Timeout bounds one external analysis attempt. Zero means no bound;
	// on expiry the heuristic result is used.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// DocumentsDir is the base directory for documents (contains raw/,
	// layout/, markdown/, images/, metadata/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir"`

	// ExtractImages controls whether page images are extracted and
	// referenced from the markdown output (default true).
	ExtractImages bool `json:"extract_images" yaml:"extract_images"`
}

// IndexConfig holds settings for the document index.
type IndexConfig struct {
	// IndexDir is the directory holding the SQLite index database.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Index      IndexConfig      `json:"index" yaml:"index"`
}
