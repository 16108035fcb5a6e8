// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"strings"
)

// Kind tags a contract violation.
type Kind string

const (
	// Shape errors: the entity could not be normalized at all.
	KindUnreadableSource Kind = "UnreadableSource"
	KindShapeError       Kind = "ShapeError"

	// Intra-entity contract errors.
	KindMissingLevel          Kind = "MissingLevel"
	KindUnexpectedLevel       Kind = "UnexpectedLevel"
	KindDuplicateLevel        Kind = "DuplicateLevel"
	KindLevelNumberMismatch   Kind = "LevelNumberMismatch"
	KindEmptyRequiredField    Kind = "EmptyRequiredField"
	KindEmptyGlossaryEntry    Kind = "EmptyGlossaryEntry"
	KindDuplicateGlossaryTerm Kind = "DuplicateGlossaryTerm"
	KindInvalidStatus         Kind = "InvalidStatus"
	KindConflictingCategory   Kind = "ConflictingCategory"
	KindEmptyCitationField    Kind = "EmptyCitationField"
	KindDuplicateCitationID   Kind = "DuplicateCitationId"
	KindInvalidCrossReference Kind = "InvalidCrossReference"

	// Inter-entity contract errors; these need the full registry.
	KindDanglingCrossReference     Kind = "DanglingCrossReference"
	KindCrossReferenceTypeMismatch Kind = "CrossReferenceTypeMismatch"
	KindDuplicateEntityID          Kind = "DuplicateEntityId"
)

// Error is one contract violation found in an entity.
type Error struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	EntityID string `json:"entity_id" yaml:"entity_id"`

	// Path locates the offending field in authored terms, e.g.
	// "levels[3].summary" or "crossReferences[0]".
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Level is the level number involved, or zero for entity-level errors.
	Level int `json:"level,omitempty" yaml:"level,omitempty"`

	// TargetID is the referenced entity for cross-reference errors.
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`

	Message string `json:"message" yaml:"message"`
}

// Error formats the violation with its kind and location.
func (e *Error) Error() string {
	if e == nil {
		return "validation <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if e.EntityID != "" {
		fmt.Fprintf(&b, " (entity %s", e.EntityID)
		if e.Path != "" {
			fmt.Fprintf(&b, " at %s", e.Path)
		}
		b.WriteString(")")
	} else if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	return b.String()
}

// ErrorList is an error wrapping one or more violations.
type ErrorList []Error

// Error returns a compact summary of the violations.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no validation errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// DuplicateEntity returns the error reported when id is registered twice.
func DuplicateEntity(id string) *Error {
	return &Error{
		Kind:     KindDuplicateEntityID,
		EntityID: id,
		Path:     "id",
		Message:  fmt.Sprintf("entity id %q is already registered", id),
	}
}

// ShapeFailure returns the error reported for an entity that could not be
// normalized.
func ShapeFailure(id string, cause error) Error {
	return Error{
		Kind:     KindShapeError,
		EntityID: id,
		Path:     "levels",
		Message:  cause.Error(),
	}
}

// Unreadable returns the error reported for a source file that could not
// be parsed.
func Unreadable(source string, cause error) Error {
	return Error{
		Kind:    KindUnreadableSource,
		Path:    source,
		Message: cause.Error(),
	}
}
