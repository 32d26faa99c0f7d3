// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pde-bio/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities client.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL overrides the E-utilities endpoint. Empty means the
	// public NCBI endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Email is the contact address NCBI requires on every request.
	Email string `json:"email" yaml:"email"`

	// APIKey is an optional NCBI API key. Supplying one raises the
	// permitted request rate from 3/s to 10/s.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the retry budget for failed requests (transport
	// errors, HTTP 429 and 5xx). Zero disables retries, which is the
	// default: a failed request aborts the run.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CollectConfig holds settings for the count collection stage.
type CollectConfig struct {
	// Database is the NCBI database to search (default "pmc").
	Database string `json:"database" yaml:"database"`

	// OutputFile is the summary CSV path (default "summary.csv").
	OutputFile string `json:"output_file" yaml:"output_file"`
}

// FetchConfig holds settings for the article fetch stage.
type FetchConfig struct {
	// Database is the NCBI database the summary was collected from
	// (default "pmc").
	Database string `json:"database" yaml:"database"`

	// InputFile is the summary CSV to read (default "summary.csv").
	InputFile string `json:"input_file" yaml:"input_file"`

	// OutputFile is the articles CSV path (default "articles.csv").
	OutputFile string `json:"output_file" yaml:"output_file"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Entrez  EntrezConfig  `json:"entrez" yaml:"entrez"`
	Collect CollectConfig `json:"collect" yaml:"collect"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
}
