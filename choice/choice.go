// Package choice resolves which of an element's declared type constraints
// apply to a concrete instance. An element declaring more than one distinct
// type code is a choice and must be disambiguated against the instance's
// runtime type.
package choice

import (
	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
	"github.com/gofhir/profileval/service"
)

// Resolution is the result of type-choice resolution.
type Resolution struct {
	// Applicable holds the constraints the instance should be validated
	// against. Empty iff resolution failed terminally.
	Applicable []pv.TypeConstraint

	// Outcome carries advisory issues and, on terminal failure, the single
	// failure issue.
	Outcome *pv.Outcome
}

// Failed reports whether resolution ended without applicable constraints.
func (r Resolution) Failed() bool {
	return len(r.Applicable) == 0
}

// Resolver partitions declared type constraints into applicable ones using
// the type catalog for runtime disambiguation.
type Resolver struct {
	catalog service.TypeCatalog
}

// New creates a new choice Resolver.
func New(catalog service.TypeCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve determines the applicable constraints for the instance at node.
//
// With at most one distinct type code there is nothing to disambiguate and
// every constraint applies (several constraints can share one code via
// duplicate target profiles). A genuine choice requires the instance to
// declare a runtime type recognized by the catalog; the constraints are then
// filtered to those whose code the instance type is subtype-compatible with.
// Constraint codes the catalog does not know are kept and deferred to
// general-purpose validation rather than filtered out.
func (r *Resolver) Resolve(constraints []pv.TypeConstraint, node element.Node) Resolution {
	out := pv.NewOutcome()

	for _, c := range constraints {
		if c.Code == "" {
			out.AddKind(pv.KindEmptyTypeCode, nil, node.Path())
		}
	}

	codes := pv.DistinctCodes(constraints)
	if len(codes) <= 1 {
		return Resolution{Applicable: constraints, Outcome: out}
	}

	typeName, ok := node.TypeName()
	if !ok {
		out.AddKind(pv.KindCannotDetermineType, nil, node.Path())
		return Resolution{Outcome: out}
	}

	instanceCode, ok := r.catalog.TypeNameToCode(typeName)
	if !ok {
		out.AddKind(pv.KindInvalidInstanceTypeName, map[string]any{"type": typeName}, node.Path())
		return Resolution{Outcome: out}
	}

	var applicable []pv.TypeConstraint
	for _, c := range constraints {
		if c.Code == "" {
			continue
		}
		candidateCode, known := r.catalog.TypeNameToCode(c.Code)
		if !known {
			// External or unresolvable type identifier: defer to the
			// structural validator instead of excluding the candidate.
			applicable = append(applicable, c)
			continue
		}
		if r.catalog.IsSubtypeCompatible(candidateCode, instanceCode) {
			applicable = append(applicable, c)
		}
	}

	if len(applicable) == 0 {
		out.AddKind(pv.KindTypeNotAllowedChoice, map[string]any{
			"type":    typeName,
			"allowed": pv.FormatCodes(codes),
		}, node.Path())
		return Resolution{Outcome: out}
	}

	return Resolution{Applicable: applicable, Outcome: out}
}
