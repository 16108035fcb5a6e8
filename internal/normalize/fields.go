// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"maps"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medcorpus/pkg/types"
)

// paragraphSep joins the parts of a structured explanation.
const paragraphSep = "\n\n"

// extraFields accumulates authored fields that have no canonical slot.
type extraFields struct {
	m map[string]any
}

func newExtra(seed map[string]any) *extraFields {
	return &extraFields{m: maps.Clone(seed)}
}

func (x *extraFields) set(field string, v any) {
	if x.m == nil {
		x.m = make(map[string]any)
	}
	x.m[field] = v
}

func (x *extraFields) result() map[string]any {
	if len(x.m) == 0 {
		return nil
	}
	return x.m
}

// slot returns node as a string list when it is a string or a list of
// strings; null items are dropped. Anything else is kept verbatim under
// field.
func (x *extraFields) slot(field string, node *yaml.Node) []string {
	if isAbsent(node) {
		return nil
	}
	if list, ok := stringList(node); ok {
		return list
	}
	x.set(field, decodeAny(node))
	return nil
}

func isAbsent(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func stringList(node *yaml.Node) ([]string, bool) {
	node = resolve(node)
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, true
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode {
				return nil, false
			}
			if item.Tag == "!!null" {
				continue
			}
			out = append(out, item.Value)
		}
		return out, true
	}
	return nil, false
}

// flatten renders an explanation node as body text. A string is used
// as-is and a list of strings is joined as paragraphs. Mappings and nested
// lists are flattened to their string leaves in document order and
// reported as structured so the original can be preserved.
func flatten(node *yaml.Node) (string, bool) {
	if isAbsent(node) {
		return "", false
	}
	if list, ok := stringList(node); ok {
		return strings.Join(list, paragraphSep), false
	}
	var parts []string
	collectLeaves(resolve(node), &parts)
	return strings.Join(parts, paragraphSep), true
}

func collectLeaves(node *yaml.Node, parts *[]string) {
	node = resolve(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!null" && strings.TrimSpace(node.Value) != "" {
			*parts = append(*parts, node.Value)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			collectLeaves(item, parts)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			collectLeaves(node.Content[i], parts)
		}
	}
}

func decodeAny(node *yaml.Node) any {
	v, err := types.DecodeValue(node)
	if err != nil {
		return node.Value
	}
	return v
}
