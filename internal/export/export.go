// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a validated corpus snapshot for downstream
// consumers (rendering, search indexing, localization). Exports are
// output artifacts only; the registry is always rebuilt from the authored
// sources.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medcorpus/internal/pipeline"
	"github.com/pdiddy/medcorpus/pkg/types"
)

const (
	dbFile   = "corpus.db"
	yamlFile = "corpus.yaml"
	jsonFile = "corpus.json"
)

// Options controls what is exported and where.
type Options struct {
	// Dir receives the export file; it is created if missing.
	Dir string

	// IncludeInvalid exports entities whose reports carry errors.
	IncludeInvalid bool
}

// Write exports res in the given format and returns the written path.
func Write(ctx context.Context, res *pipeline.Result, format types.ExportFormat, opts Options) (string, error) {
	switch format {
	case types.ExportSQLite, "":
		return WriteSQLite(ctx, res, opts)
	case types.ExportYAML:
		return WriteYAML(res, opts)
	case types.ExportJSON:
		return WriteJSON(res, opts)
	}
	return "", fmt.Errorf("unsupported format %q: use sqlite, yaml or json", format)
}

// WriteYAML writes the selected entities to Dir/corpus.yaml in id order.
func WriteYAML(res *pipeline.Result, opts Options) (string, error) {
	data, err := yaml.Marshal(Entities(res, opts.IncludeInvalid))
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeFile(opts.Dir, yamlFile, data)
}

// WriteJSON writes the selected entities to Dir/corpus.json in id order.
func WriteJSON(res *pipeline.Result, opts Options) (string, error) {
	data, err := json.MarshalIndent(Entities(res, opts.IncludeInvalid), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeFile(opts.Dir, jsonFile, data)
}

// Entities returns the registered entities to export, sorted by id.
// Inadmissible entities are left out unless includeInvalid is set.
func Entities(res *pipeline.Result, includeInvalid bool) []types.Entity {
	ids := res.Registry.IDs()
	slices.Sort(ids)

	out := make([]types.Entity, 0, len(ids))
	for _, id := range ids {
		if !includeInvalid && !res.Admissible(id) {
			continue
		}
		e, err := res.Registry.GetByID(id)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func writeFile(dir, name string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
