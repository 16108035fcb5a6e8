// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types declares the canonical content model shared by the
// normalizer, validator, registry and every downstream consumer, along
// with the two authored source shapes the normalizer accepts.
package types

import (
	"maps"
	"slices"
	"time"
)

// LevelCount is the number of complexity tiers every entity carries.
const LevelCount = 5

// Category selects which domain vocabulary applies to an entity.
type Category string

const (
	CategoryCondition          Category = "condition"
	CategoryClinicalTrialTopic Category = "clinical-trials-topic"
	CategoryCalculationConcept Category = "calculation-concept"
)

// Status is the publication lifecycle state of an entity.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known lifecycle state. The empty status
// is treated as draft and is valid.
func (s Status) Valid() bool {
	switch s {
	case "", StatusDraft, StatusReview, StatusPublished:
		return true
	}
	return false
}

// SourceShape records which authored representation an entity came from.
type SourceShape string

const (
	ShapeArray     SourceShape = "array"
	ShapeKeyed     SourceShape = "keyed"
	ShapeCanonical SourceShape = "canonical"
)

// GlossaryEntry is one term definition attached to a level.
type GlossaryEntry struct {
	Term          string `json:"term" yaml:"term"`
	Definition    string `json:"definition" yaml:"definition"`
	Pronunciation string `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
}

// Supplementary holds level content outside the canonical core. Authored
// fields without a canonical slot are kept in Extra under their original
// field name.
type Supplementary struct {
	KeyPoints []string       `json:"key_points,omitempty" yaml:"key_points,omitempty"`
	Analogies []string       `json:"analogies,omitempty" yaml:"analogies,omitempty"`
	Examples  []string       `json:"examples,omitempty" yaml:"examples,omitempty"`
	Notes     []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Extra     map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IsEmpty reports whether no supplementary content is present.
func (s Supplementary) IsEmpty() bool {
	return len(s.KeyPoints) == 0 && len(s.Analogies) == 0 && len(s.Examples) == 0 &&
		len(s.Notes) == 0 && len(s.Extra) == 0
}

// Level is one normalized complexity tier.
type Level struct {
	// LevelNumber is the position (array style) or key (keyed style) the
	// level occupies. It is always the map key in Entity.Levels.
	LevelNumber int `json:"level_number" yaml:"level_number"`

	Title         string          `json:"title" yaml:"title"`
	Body          string          `json:"body" yaml:"body"`
	Glossary      []GlossaryEntry `json:"glossary,omitempty" yaml:"glossary,omitempty"`
	Supplementary Supplementary   `json:"supplementary,omitzero" yaml:"supplementary,omitempty"`

	// DeclaredLevel is the level number the author wrote inside the level.
	DeclaredLevel int `json:"declared_level" yaml:"declared_level"`

	// DeclaredLevelRaw holds the authored level value when it was not an
	// integer; DeclaredLevel is then zero.
	DeclaredLevelRaw string `json:"declared_level_raw,omitempty" yaml:"declared_level_raw,omitempty"`

	// LevelNumberMismatch is set when DeclaredLevel disagrees with
	// LevelNumber. The normalizer never repairs it.
	LevelNumberMismatch bool `json:"level_number_mismatch,omitempty" yaml:"level_number_mismatch,omitempty"`

	// TitleField and BodyField name the authored fields that supplied
	// Title and Body (e.g. "summary", "explanation").
	TitleField string `json:"title_field,omitempty" yaml:"title_field,omitempty"`
	BodyField  string `json:"body_field,omitempty" yaml:"body_field,omitempty"`
}

// LevelIssueKind classifies a structural problem found while collecting
// levels that cannot be expressed on a Level itself.
type LevelIssueKind string

const (
	LevelIssueDuplicate  LevelIssueKind = "duplicate"
	LevelIssueUnexpected LevelIssueKind = "unexpected"
)

// LevelIssue annotates an authored level key or position that did not
// make it into Entity.Levels, or collided with one that did.
type LevelIssue struct {
	Key  string         `json:"key" yaml:"key"`
	Kind LevelIssueKind `json:"kind" yaml:"kind"`
}

// CrossReference is a directed lookup pointer to another entity. It
// never implies ownership.
type CrossReference struct {
	TargetID     string `json:"target_id" yaml:"target_id"`
	TargetType   string `json:"target_type,omitempty" yaml:"target_type,omitempty"`
	Relationship string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
}

// InboundReference is a CrossReference seen from its target, carrying the
// id of the entity that declared it.
type InboundReference struct {
	SourceID       string `json:"source_id" yaml:"source_id"`
	CrossReference `yaml:",inline"`
}

// Citation is a bibliographic source owned by exactly one entity.
type Citation struct {
	ID      string   `json:"id" yaml:"id"`
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Source  string   `json:"source" yaml:"source"`
	URL     string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Media is an illustration or video attached to an entity.
type Media struct {
	Type    string `json:"type" yaml:"type"`
	URL     string `json:"url" yaml:"url"`
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`
	AltText string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
}

// Entity is a normalized topic record. After normalization Levels is keyed
// by level number; a valid entity has exactly the keys 1..LevelCount.
type Entity struct {
	ID             string            `json:"id" yaml:"id"`
	Category       Category          `json:"category" yaml:"category"`
	Name           string            `json:"name" yaml:"name"`
	AlternateNames []string          `json:"alternate_names,omitempty" yaml:"alternate_names,omitempty"`
	LocalizedNames map[string]string `json:"localized_names,omitempty" yaml:"localized_names,omitempty"`

	Levels      map[int]Level `json:"levels" yaml:"levels"`
	LevelIssues []LevelIssue  `json:"level_issues,omitempty" yaml:"level_issues,omitempty"`

	Media           []Media          `json:"media,omitempty" yaml:"media,omitempty"`
	Citations       []Citation       `json:"citations,omitempty" yaml:"citations,omitempty"`
	CrossReferences []CrossReference `json:"cross_references,omitempty" yaml:"cross_references,omitempty"`
	Tags            []string         `json:"tags,omitempty" yaml:"tags,omitempty"`

	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	Status    Status    `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`

	// ConflictingKind holds the authored "kind" when it disagrees with
	// "category".
	ConflictingKind string `json:"conflicting_kind,omitempty" yaml:"conflicting_kind,omitempty"`

	Shape SourceShape `json:"source_shape" yaml:"source_shape"`
}

// LevelNumbers returns the level keys present, ascending.
func (e Entity) LevelNumbers() []int {
	return slices.Sorted(maps.Keys(e.Levels))
}

// Clone returns a deep copy of e. Extra values are copied one level deep;
// nested authored structures are shared and must be treated as read-only.
func (e Entity) Clone() Entity {
	out := e
	out.AlternateNames = slices.Clone(e.AlternateNames)
	out.LocalizedNames = maps.Clone(e.LocalizedNames)
	out.LevelIssues = slices.Clone(e.LevelIssues)
	out.Media = slices.Clone(e.Media)
	out.CrossReferences = slices.Clone(e.CrossReferences)
	out.Tags = slices.Clone(e.Tags)

	if e.Citations != nil {
		out.Citations = make([]Citation, len(e.Citations))
		for i, c := range e.Citations {
			c.Authors = slices.Clone(c.Authors)
			out.Citations[i] = c
		}
	}

	if e.Levels != nil {
		out.Levels = make(map[int]Level, len(e.Levels))
		for k, l := range e.Levels {
			out.Levels[k] = l.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of l.
func (l Level) Clone() Level {
	out := l
	out.Glossary = slices.Clone(l.Glossary)
	out.Supplementary = Supplementary{
		KeyPoints: slices.Clone(l.Supplementary.KeyPoints),
		Analogies: slices.Clone(l.Supplementary.Analogies),
		Examples:  slices.Clone(l.Supplementary.Examples),
		Notes:     slices.Clone(l.Supplementary.Notes),
		Extra:     maps.Clone(l.Supplementary.Extra),
	}
	return out
}
