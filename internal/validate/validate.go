// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks normalized entities against the content contract.
// Checks never stop at the first violation: every problem in an entity is
// collected into one Report.
//
// Validation runs in two stages. CheckEntity needs nothing but the entity.
// CheckReferences needs a Snapshot of every registered entity, so it may
// only run once the whole corpus has been loaded.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/medcorpus/pkg/types"
)

// Snapshot is the registry view inter-entity checks resolve against.
type Snapshot interface {
	// Category returns the category of the entity registered under id.
	Category(id string) (types.Category, bool)
}

// Report lists every violation found for one authored entity. An empty
// Errors list means the entity is admissible.
type Report struct {
	EntityID string  `json:"entity_id" yaml:"entity_id"`
	Source   string  `json:"source,omitempty" yaml:"source,omitempty"`
	Errors   []Error `json:"errors" yaml:"errors"`
}

// Admissible reports whether the entity may be published.
func (r Report) Admissible() bool {
	return len(r.Errors) == 0
}

// Count returns the number of errors of the given kind.
func (r Report) Count(kind Kind) int {
	n := 0
	for _, e := range r.Errors {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Err returns the report's errors as an ErrorList, or nil when admissible.
func (r Report) Err() error {
	if r.Admissible() {
		return nil
	}
	return ErrorList(r.Errors)
}

// Validate runs both stages against e. A nil snapshot skips the
// inter-entity stage.
func Validate(e types.Entity, snap Snapshot) Report {
	r := Report{EntityID: e.ID, Errors: CheckEntity(e)}
	if snap != nil {
		r.Errors = append(r.Errors, CheckReferences(e, snap)...)
	}
	return r
}

// CheckEntity runs every check that needs no data beyond e itself.
func CheckEntity(e types.Entity) []Error {
	c := &checker{id: e.ID}

	c.required("id", e.ID)
	c.required("name", e.Name)
	c.required("category", string(e.Category))
	if e.ConflictingKind != "" {
		c.add(Error{
			Kind: KindConflictingCategory, Path: "kind",
			Message: fmt.Sprintf("kind %q disagrees with category %q", e.ConflictingKind, e.Category),
		})
	}
	if !e.Status.Valid() {
		c.add(Error{
			Kind: KindInvalidStatus, Path: "status",
			Message: fmt.Sprintf("status %q is not one of draft, review, published", e.Status),
		})
	}

	c.levels(e)
	c.citations(e.Citations)

	for i, x := range e.CrossReferences {
		if isBlank(x.TargetID) {
			c.add(Error{
				Kind: KindInvalidCrossReference, Path: fmt.Sprintf("crossReferences[%d]", i),
				Message: "cross-reference has no targetId",
			})
		}
	}
	return c.errs
}

// CheckReferences verifies that every cross-reference of e resolves in
// snap and agrees with the target's category when a targetType is given.
func CheckReferences(e types.Entity, snap Snapshot) []Error {
	c := &checker{id: e.ID}
	for i, x := range e.CrossReferences {
		target := strings.TrimSpace(x.TargetID)
		if target == "" {
			continue
		}
		path := fmt.Sprintf("crossReferences[%d]", i)
		cat, ok := snap.Category(target)
		if !ok {
			c.add(Error{
				Kind: KindDanglingCrossReference, Path: path, TargetID: target,
				Message: fmt.Sprintf("cross-reference target %q does not exist", target),
			})
			continue
		}
		want := strings.TrimSpace(x.TargetType)
		if want != "" && !strings.EqualFold(want, strings.TrimSpace(string(cat))) {
			c.add(Error{
				Kind: KindCrossReferenceTypeMismatch, Path: path, TargetID: target,
				Message: fmt.Sprintf("targetType %q does not match %q category %q", want, target, cat),
			})
		}
	}
	return c.errs
}

type checker struct {
	id   string
	errs []Error
}

func (c *checker) add(e Error) {
	e.EntityID = c.id
	c.errs = append(c.errs, e)
}

func (c *checker) required(path, value string) {
	if isBlank(value) {
		c.add(Error{
			Kind: KindEmptyRequiredField, Path: path,
			Message: fmt.Sprintf("%s is empty", path),
		})
	}
}

func (c *checker) levels(e types.Entity) {
	for n := 1; n <= types.LevelCount; n++ {
		if _, ok := e.Levels[n]; !ok {
			c.add(Error{
				Kind: KindMissingLevel, Path: fmt.Sprintf("levels[%d]", n), Level: n,
				Message: fmt.Sprintf("level %d is missing", n),
			})
		}
	}

	for _, issue := range e.LevelIssues {
		kind := KindUnexpectedLevel
		msg := fmt.Sprintf("level key %q is not a level number", issue.Key)
		if issue.Kind == types.LevelIssueDuplicate {
			kind = KindDuplicateLevel
			msg = fmt.Sprintf("level key %q repeats an earlier level", issue.Key)
		}
		c.add(Error{Kind: kind, Path: fmt.Sprintf("levels[%s]", issue.Key), Message: msg})
	}

	for _, n := range e.LevelNumbers() {
		if n < 1 || n > types.LevelCount {
			c.add(Error{
				Kind: KindUnexpectedLevel, Path: fmt.Sprintf("levels[%d]", n), Level: n,
				Message: fmt.Sprintf("level %d is outside 1..%d", n, types.LevelCount),
			})
		}
		c.level(e.Shape, e.Levels[n])
	}
}

func (c *checker) level(shape types.SourceShape, l types.Level) {
	n := l.LevelNumber
	at := fmt.Sprintf("levels[%d]", n)

	if l.LevelNumberMismatch {
		where := "position"
		if shape == types.ShapeKeyed {
			where = "key"
		}
		declared := strconv.Itoa(l.DeclaredLevel)
		if l.DeclaredLevelRaw != "" {
			declared = strconv.Quote(l.DeclaredLevelRaw)
		}
		c.add(Error{
			Kind: KindLevelNumberMismatch, Path: at + ".level", Level: n,
			Message: fmt.Sprintf("level at %s %d declares level %s", where, n, declared),
		})
	}

	for _, f := range []struct{ field, fallback, value string }{
		{l.TitleField, "title", l.Title},
		{l.BodyField, "body", l.Body},
	} {
		if !isBlank(f.value) {
			continue
		}
		name := f.field
		if name == "" {
			name = f.fallback
		}
		c.add(Error{
			Kind: KindEmptyRequiredField, Path: at + "." + name, Level: n,
			Message: fmt.Sprintf("level %d %s is empty", n, name),
		})
	}

	seen := make(map[string]int, len(l.Glossary))
	for i, g := range l.Glossary {
		path := fmt.Sprintf("%s.glossary[%d]", at, i)
		if isBlank(g.Term) || isBlank(g.Definition) {
			c.add(Error{
				Kind: KindEmptyGlossaryEntry, Path: path, Level: n,
				Message: fmt.Sprintf("level %d glossary entry %d needs both term and definition", n, i),
			})
		}
		key := strings.ToLower(strings.TrimSpace(g.Term))
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			c.add(Error{
				Kind: KindDuplicateGlossaryTerm, Path: path, Level: n,
				Message: fmt.Sprintf("level %d term %q duplicates glossary entry %d", n, strings.TrimSpace(g.Term), first),
			})
			continue
		}
		seen[key] = i
	}
}

func (c *checker) citations(cs []types.Citation) {
	ids := make(map[string]int, len(cs))
	for i, cit := range cs {
		path := fmt.Sprintf("citations[%d]", i)
		var blank []string
		if isBlank(cit.Title) {
			blank = append(blank, "title")
		}
		if isBlank(cit.Source) {
			blank = append(blank, "source")
		}
		if len(blank) > 0 {
			c.add(Error{
				Kind: KindEmptyCitationField, Path: path,
				Message: fmt.Sprintf("citation %d has empty %s", i, strings.Join(blank, " and ")),
			})
		}

		id := strings.TrimSpace(cit.ID)
		if id == "" {
			continue
		}
		if first, dup := ids[id]; dup {
			c.add(Error{
				Kind: KindDuplicateCitationID, Path: path,
				Message: fmt.Sprintf("citation id %q duplicates citation %d", id, first),
			})
			continue
		}
		ids[id] = i
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
