// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts authored entities into the canonical Entity
// shape. It never repairs content: inconsistencies are carried through as
// annotations for the validator to report.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/medcorpus/pkg/types"
)

var (
	// ErrUnrecognizedShape is returned when an entity's levels are neither
	// an ordered sequence nor a keyed mapping.
	ErrUnrecognizedShape = errors.New("levels are neither an ordered sequence nor a keyed mapping")

	// ErrMalformedLevel is returned when a level matches a known shape but
	// one of its fields cannot be decoded (e.g. a mapping where a title
	// belongs).
	ErrMalformedLevel = errors.New("malformed level")
)

// Normalize returns the canonical form of src. Accepted inputs are
// *types.RawEntity (either authored level style) and types.Entity or
// *types.Entity, which are already canonical and come back as an equal
// copy. Normalize has no side effects.
func Normalize(src any) (types.Entity, error) {
	switch v := src.(type) {
	case *types.RawEntity:
		if v == nil {
			return types.Entity{}, ErrUnrecognizedShape
		}
		return normalizeRaw(v)
	case types.RawEntity:
		return normalizeRaw(&v)
	case *types.Entity:
		if v == nil {
			return types.Entity{}, ErrUnrecognizedShape
		}
		return v.Clone(), nil
	case types.Entity:
		return v.Clone(), nil
	}
	return types.Entity{}, fmt.Errorf("%w: unsupported input %T", ErrUnrecognizedShape, src)
}

func normalizeRaw(r *types.RawEntity) (types.Entity, error) {
	e := metadata(r)

	switch {
	case types.IsArrayLevelsSource(r):
		src, err := r.ArrayLevels()
		if err != nil {
			return types.Entity{}, fmt.Errorf("entity %q: %w: %v", r.ID, ErrMalformedLevel, err)
		}
		e.Levels = fromArray(src)
		e.Shape = types.ShapeArray

	case types.IsKeyedLevelsSource(r):
		src, err := r.KeyedLevels()
		if err != nil {
			return types.Entity{}, fmt.Errorf("entity %q: %w: %v", r.ID, ErrMalformedLevel, err)
		}
		e.Levels, e.LevelIssues = fromKeyed(src)
		e.Shape = types.ShapeKeyed

	default:
		return types.Entity{}, fmt.Errorf("entity %q: %w", r.ID, ErrUnrecognizedShape)
	}

	return e, nil
}

// metadata copies the entity-level fields of r untouched.
func metadata(r *types.RawEntity) types.Entity {
	e := types.Entity{
		ID:             r.ID,
		Category:       types.Category(r.Category),
		Name:           r.Name,
		AlternateNames: []string(r.AlternateNames),
		LocalizedNames: r.LocalizedNames,
		Tags:           []string(r.Tags),
		Version:        r.Version,
		Status:         types.Status(r.Status),
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}

	kind := strings.TrimSpace(r.Kind)
	if strings.TrimSpace(r.Category) == "" {
		e.Category = types.Category(r.Kind)
	} else if kind != "" && kind != strings.TrimSpace(r.Category) {
		e.ConflictingKind = r.Kind
	}

	for _, m := range r.Media {
		e.Media = append(e.Media, types.Media{
			Type: m.Type, URL: m.URL, Caption: m.Caption, AltText: m.AltText,
		})
	}
	for _, c := range r.Citations {
		e.Citations = append(e.Citations, types.Citation{
			ID: c.ID, Type: c.Type, Title: c.Title,
			Authors: []string(c.Authors), Source: c.Source, URL: c.URL,
		})
	}
	for _, x := range r.CrossReferences {
		e.CrossReferences = append(e.CrossReferences, types.CrossReference{
			TargetID: strings.TrimSpace(x.TargetID), TargetType: strings.TrimSpace(x.TargetType),
			Relationship: x.Relationship, Label: x.Label,
		})
	}
	return e
}

// fromArray keys each level by its 1-based position. Positions past
// LevelCount are kept so the validator can report them.
func fromArray(src *types.ArrayLevelsSource) map[int]types.Level {
	levels := make(map[int]types.Level, len(src.Levels))
	for i, al := range src.Levels {
		pos := i + 1
		levels[pos] = arrayLevel(pos, al)
	}
	return levels
}

func arrayLevel(pos int, al types.ArrayLevel) types.Level {
	extra := newExtra(al.Extra)
	l := types.Level{
		LevelNumber:         pos,
		DeclaredLevel:       al.Level.Value,
		DeclaredLevelRaw:    al.Level.Raw,
		LevelNumberMismatch: !al.Level.IsInt() || al.Level.Value != pos,
		Title:               al.Title,
		TitleField:          "title",
		Body:                al.Content,
		BodyField:           "content",
		Glossary:            glossary(al.Vocabulary),
	}
	l.Supplementary.KeyPoints = extra.slot("keyPoints", &al.KeyPoints)
	l.Supplementary.Extra = extra.result()
	return l
}

// fromKeyed keys each level by its authored key. Non-numeric keys and
// repeated keys are returned as issues; the first occurrence of a key wins.
func fromKeyed(src *types.KeyedLevelsSource) (map[int]types.Level, []types.LevelIssue) {
	levels := make(map[int]types.Level, len(src.Entries))
	var issues []types.LevelIssue

	for _, entry := range src.Entries {
		n, err := strconv.Atoi(entry.Key)
		if err != nil {
			issues = append(issues, types.LevelIssue{Key: entry.Key, Kind: types.LevelIssueUnexpected})
			continue
		}
		if _, seen := levels[n]; seen {
			issues = append(issues, types.LevelIssue{Key: entry.Key, Kind: types.LevelIssueDuplicate})
			continue
		}
		levels[n] = keyedLevel(n, entry.Level)
	}
	return levels, issues
}

func keyedLevel(n int, kl types.KeyedLevel) types.Level {
	extra := newExtra(kl.Extra)
	l := types.Level{
		LevelNumber:         n,
		DeclaredLevel:       kl.Level.Value,
		DeclaredLevelRaw:    kl.Level.Raw,
		LevelNumberMismatch: !kl.Level.IsInt() || kl.Level.Value != n,
		BodyField:           "explanation",
		Glossary:            glossary(kl.KeyTerms),
	}

	if strings.TrimSpace(kl.Title) != "" {
		l.Title, l.TitleField = kl.Title, "title"
		if kl.Summary != "" {
			extra.set("summary", kl.Summary)
		}
	} else {
		l.Title, l.TitleField = kl.Summary, "summary"
	}

	body, structured := flatten(&kl.Explanation)
	l.Body = body
	if structured {
		extra.set("explanation", decodeAny(&kl.Explanation))
	}

	l.Supplementary.Analogies = extra.slot("analogies", &kl.Analogies)
	l.Supplementary.Examples = extra.slot("examples", &kl.Examples)
	l.Supplementary.Notes = extra.slot("clinicalNotes", &kl.ClinicalNotes)
	l.Supplementary.Extra = extra.result()
	return l
}

func glossary(terms []types.SourceTerm) []types.GlossaryEntry {
	if len(terms) == 0 {
		return nil
	}
	out := make([]types.GlossaryEntry, len(terms))
	for i, t := range terms {
		out[i] = types.GlossaryEntry{
			Term:          t.Term,
			Definition:    t.Definition,
			Pronunciation: t.Pronunciation,
		}
	}
	return out
}
