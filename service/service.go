// Package service defines small, composable interfaces for the collaborators
// the validation engine depends on: the type catalog, the generic structural
// validator, and the external reference fetcher.
// Following Go's philosophy of small interfaces, each interface has 1-2 methods.
package service

import (
	"context"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
)

// TypeCode is a resolved, catalog-known type identifier.
type TypeCode string

// TypeResolver resolves instance type names to catalog codes.
type TypeResolver interface {
	// TypeNameToCode resolves a runtime type name. The second return is
	// false for names the catalog does not know.
	TypeNameToCode(name string) (TypeCode, bool)
}

// SubtypeChecker answers subtype-compatibility questions.
type SubtypeChecker interface {
	// IsSubtypeCompatible reports whether an instance of type instance may
	// stand where the candidate type is declared, i.e. instance equals
	// candidate or specializes it.
	IsSubtypeCompatible(candidate, instance TypeCode) bool
}

// ReferenceCodeChecker identifies reference types.
type ReferenceCodeChecker interface {
	// IsReferenceCode reports whether the declared type code denotes a
	// reference type.
	IsReferenceCode(code string) bool
}

// TypeCatalog is the combined catalog interface the engine consumes.
type TypeCatalog interface {
	TypeResolver
	SubtypeChecker
	ReferenceCodeChecker
}

// ProfileValidator performs generic, non-reference structural validation of
// a node against a single profile. The engine delegates everything that is
// not type-choice or reference logic to it.
type ProfileValidator interface {
	ValidateAgainstProfile(ctx context.Context, node element.Node, profileID string) *pv.Outcome
}

// ReferenceFetcher retrieves externally referenced documents.
type ReferenceFetcher interface {
	// Fetch resolves a reference string to the root node of the referenced
	// document. originPath is the diagnostic path of the referring element.
	// A returned error is converted by the engine into an issue; it never
	// propagates further.
	Fetch(ctx context.Context, reference, originPath string) (element.Node, error)
}
