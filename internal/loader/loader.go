// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader reads authored entity files from a content directory.
// A file may hold one entity, a list of entities, or several YAML
// documents. JSON files are accepted as well.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medcorpus/pkg/types"
)

// Document is one authored entity, or the parse failure of the file that
// should have held it.
type Document struct {
	// Source identifies the entity's origin: the file path, suffixed with
	// "#n" (1-based) when the file holds more than one entity.
	Source string

	// Entity is nil when Err is set.
	Entity *types.RawEntity

	Err error
}

var extensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Load walks dir in lexical order and parses every content file. Hidden
// files and directories are skipped. Parse failures are returned as
// Documents with Err set; only I/O failures abort the walk.
func Load(ctx context.Context, dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", dir)
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, Parse(path, data)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Parse decodes the entities held in data. source names the file for
// provenance and selects JSON decoding when it ends in ".json".
func Parse(source string, data []byte) []Document {
	nodes, err := documentNodes(source, data)
	if err != nil {
		return []Document{{Source: source, Err: err}}
	}

	var docs []Document
	for _, n := range nodes {
		switch n.Kind {
		case yaml.MappingNode:
			docs = append(docs, decodeEntity(n))
		case yaml.SequenceNode:
			for _, item := range n.Content {
				docs = append(docs, decodeEntity(item))
			}
		default:
			docs = append(docs, Document{Err: fmt.Errorf("line %d: expected an entity or a list of entities", n.Line)})
		}
	}

	for i := range docs {
		docs[i].Source = source
		if len(docs) > 1 {
			docs[i].Source = fmt.Sprintf("%s#%d", source, i+1)
		}
	}
	return docs
}

func decodeEntity(n *yaml.Node) Document {
	if n.Kind != yaml.MappingNode {
		return Document{Err: fmt.Errorf("line %d: expected an entity mapping", n.Line)}
	}
	var raw types.RawEntity
	if err := n.Decode(&raw); err != nil {
		return Document{Err: err}
	}
	return Document{Entity: &raw}
}

// documentNodes returns the root node of every document in data.
func documentNodes(source string, data []byte) ([]*yaml.Node, error) {
	if strings.EqualFold(filepath.Ext(source), ".json") {
		n, err := jsonNode(data)
		if err != nil {
			return nil, err
		}
		return []*yaml.Node{n}, nil
	}

	var nodes []*yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
			nodes = append(nodes, doc.Content[0])
		}
	}
	return nodes, nil
}

// jsonNode decodes JSON and re-encodes it as a YAML node tree so both
// formats share one decoding path.
func jsonNode(data []byte) (*yaml.Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("converting JSON: %w", err)
	}
	return &n, nil
}
