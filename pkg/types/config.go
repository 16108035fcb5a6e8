// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CorpusConfig holds settings for loading, validating and exporting the
// content corpus.
type CorpusConfig struct {
	// ContentDir is the root directory of authored entity files.
	ContentDir string `json:"content_dir" yaml:"content_dir"`

	// Workers bounds the normalize/validate worker pool. Zero uses
	// GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	// LogMode selects the logger configuration: "dev" or "prod".
	LogMode string `json:"log_mode" yaml:"log_mode"`

	// ExportDir is where export artifacts are written.
	ExportDir string `json:"export_dir" yaml:"export_dir"`
}

// ExportFormat selects the snapshot export format.
type ExportFormat string

const (
	ExportSQLite ExportFormat = "sqlite"
	ExportYAML   ExportFormat = "yaml"
	ExportJSON   ExportFormat = "json"
)
