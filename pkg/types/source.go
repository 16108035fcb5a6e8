// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// RawEntity is an entity as authored on disk, before normalization. Levels
// is kept as a YAML node so the authored representation (an ordered
// sequence or a mapping keyed 1..5) can be discriminated without loss.
type RawEntity struct {
	ID             string            `yaml:"id"`
	Category       string            `yaml:"category"`
	Kind           string            `yaml:"kind"`
	Name           string            `yaml:"name"`
	AlternateNames StringList        `yaml:"alternateNames"`
	LocalizedNames map[string]string `yaml:"localizedNames"`

	Levels yaml.Node `yaml:"levels"`

	Media           []SourceMedia          `yaml:"media"`
	Citations       []SourceCitation       `yaml:"citations"`
	CrossReferences []SourceCrossReference `yaml:"crossReferences"`
	Tags            StringList             `yaml:"tags"`

	Version   string    `yaml:"version"`
	Status    string    `yaml:"status"`
	CreatedAt Timestamp `yaml:"createdAt"`
	UpdatedAt Timestamp `yaml:"updatedAt"`
}

// SourceCrossReference is the authored form of a CrossReference.
type SourceCrossReference struct {
	TargetID     string `yaml:"targetId"`
	TargetType   string `yaml:"targetType"`
	Relationship string `yaml:"relationship"`
	Label        string `yaml:"label"`
}

// SourceCitation is the authored form of a Citation.
type SourceCitation struct {
	ID      string     `yaml:"id"`
	Type    string     `yaml:"type"`
	Title   string     `yaml:"title"`
	Authors StringList `yaml:"authors"`
	Source  string     `yaml:"source"`
	URL     string     `yaml:"url"`
}

// SourceMedia is the authored form of a Media attachment.
type SourceMedia struct {
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Caption string `yaml:"caption"`
	AltText string `yaml:"altText"`
}

// SourceTerm is an authored glossary entry: "vocabulary" items in the
// array style and "keyTerms" items in the keyed style.
type SourceTerm struct {
	Term          string `yaml:"term"`
	Definition    string `yaml:"definition"`
	Pronunciation string `yaml:"pronunciation"`
}

// ArrayLevel is one element of an array-style levels sequence.
type ArrayLevel struct {
	Level      LevelNumber  `yaml:"level"`
	Title      string       `yaml:"title"`
	Content    string       `yaml:"content"`
	KeyPoints  yaml.Node    `yaml:"keyPoints"`
	Vocabulary []SourceTerm `yaml:"vocabulary"`

	// Extra holds authored fields outside the array-style vocabulary.
	Extra map[string]any `yaml:"-"`
}

var arrayLevelFields = []string{"level", "title", "content", "keyPoints", "vocabulary"}

// UnmarshalYAML decodes the known fields and keeps every other field in
// Extra.
func (l *ArrayLevel) UnmarshalYAML(value *yaml.Node) error {
	type plain ArrayLevel
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	extra, err := extraFields(value, arrayLevelFields)
	if err != nil {
		return err
	}
	*l = ArrayLevel(p)
	l.Extra = extra
	return nil
}

// KeyedLevel is one value of a keyed-style levels mapping.
type KeyedLevel struct {
	Level         LevelNumber  `yaml:"level"`
	Title         string       `yaml:"title"`
	Summary       string       `yaml:"summary"`
	Explanation   yaml.Node    `yaml:"explanation"`
	KeyTerms      []SourceTerm `yaml:"keyTerms"`
	Analogies     yaml.Node    `yaml:"analogies"`
	Examples      yaml.Node    `yaml:"examples"`
	ClinicalNotes yaml.Node    `yaml:"clinicalNotes"`

	// Extra holds authored fields outside the keyed-style vocabulary,
	// such as patientCounselingPoints.
	Extra map[string]any `yaml:"-"`
}

var keyedLevelFields = []string{
	"level", "title", "summary", "explanation", "keyTerms",
	"analogies", "examples", "clinicalNotes",
}

// UnmarshalYAML decodes the known fields and keeps every other field in
// Extra.
func (l *KeyedLevel) UnmarshalYAML(value *yaml.Node) error {
	type plain KeyedLevel
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	extra, err := extraFields(value, keyedLevelFields)
	if err != nil {
		return err
	}
	*l = KeyedLevel(p)
	l.Extra = extra
	return nil
}

// ArrayLevelsSource is the ordered-sequence level representation.
type ArrayLevelsSource struct {
	Levels []ArrayLevel
}

// KeyedEntry is one key/value pair of a keyed levels mapping, in
// document order.
type KeyedEntry struct {
	Key   string
	Level KeyedLevel
}

// KeyedLevelsSource is the mapping-by-level-number representation.
// Entries keep document order and duplicates so they can be reported.
type KeyedLevelsSource struct {
	Entries []KeyedEntry
}

// IsArrayLevelsSource reports whether r carries its levels as an ordered
// sequence.
func IsArrayLevelsSource(r *RawEntity) bool {
	n := r.levelsNode()
	return n != nil && n.Kind == yaml.SequenceNode
}

// IsKeyedLevelsSource reports whether r carries its levels as a mapping
// keyed by level number.
func IsKeyedLevelsSource(r *RawEntity) bool {
	n := r.levelsNode()
	return n != nil && n.Kind == yaml.MappingNode
}

func (r *RawEntity) levelsNode() *yaml.Node {
	if r == nil {
		return nil
	}
	n := &r.Levels
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// ArrayLevels decodes r's levels sequence. It fails unless
// IsArrayLevelsSource(r).
func (r *RawEntity) ArrayLevels() (*ArrayLevelsSource, error) {
	if !IsArrayLevelsSource(r) {
		return nil, fmt.Errorf("levels are not a sequence")
	}
	n := r.levelsNode()
	src := &ArrayLevelsSource{Levels: make([]ArrayLevel, len(n.Content))}
	for i, item := range n.Content {
		if err := item.Decode(&src.Levels[i]); err != nil {
			return nil, fmt.Errorf("decoding level at position %d: %w", i+1, err)
		}
	}
	return src, nil
}

// KeyedLevels decodes r's levels mapping. It fails unless
// IsKeyedLevelsSource(r).
func (r *RawEntity) KeyedLevels() (*KeyedLevelsSource, error) {
	if !IsKeyedLevelsSource(r) {
		return nil, fmt.Errorf("levels are not a keyed mapping")
	}
	n := r.levelsNode()
	src := &KeyedLevelsSource{Entries: make([]KeyedEntry, 0, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := strings.TrimSpace(n.Content[i].Value)
		var lvl KeyedLevel
		if err := n.Content[i+1].Decode(&lvl); err != nil {
			return nil, fmt.Errorf("decoding level %q: %w", key, err)
		}
		src.Entries = append(src.Entries, KeyedEntry{Key: key, Level: lvl})
	}
	return src, nil
}

// extraFields decodes every mapping field of value whose key is not in
// known.
func extraFields(value *yaml.Node, known []string) (map[string]any, error) {
	if value.Kind != yaml.MappingNode {
		return nil, nil
	}
	var extra map[string]any
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if slices.Contains(known, key) {
			continue
		}
		v, err := DecodeValue(value.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("decoding field %q: %w", key, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[key] = v
	}
	return extra, nil
}

// DecodeValue decodes node into plain Go values. Mapping keys are always
// rendered as strings so the result can be marshaled as JSON.
func DecodeValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return stringKeys(v), nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	}
	return v
}

// LevelNumber is the level number an author wrote inside a level. A value
// that is not an integer is kept in Raw instead of failing the decode.
type LevelNumber struct {
	Value int
	Raw   string
}

// IsInt reports whether the authored value was an integer.
func (n LevelNumber) IsInt() bool {
	return n.Raw == ""
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *LevelNumber) UnmarshalYAML(value *yaml.Node) error {
	*n = LevelNumber{}
	if value.Kind == yaml.ScalarNode {
		if v, err := strconv.Atoi(strings.TrimSpace(value.Value)); err == nil {
			n.Value = v
			return nil
		}
		n.Raw = value.Value
		return nil
	}
	n.Raw = fmt.Sprintf("<%s>", value.ShortTag())
	return nil
}

// StringList accepts either a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*s = nil
			return nil
		}
		*s = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// timestampLayouts lists the accepted authored date formats.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Timestamp is an authored date accepting RFC 3339 or a bare date.
type Timestamp struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if raw == "" || value.Tag == "!!null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognized timestamp %q", value.Line, raw)
}
