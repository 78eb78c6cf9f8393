// Package profileval validates FHIR element instances against the type
// choices and reference constraints declared by a structural profile.
//
// The hard part of profile validation is not walking the tree but resolving
// ambiguity: an element may declare several candidate types (a choice) that
// must be disambiguated against the instance's runtime type, and an element
// may be a reference whose target has to be validated recursively, which can
// reintroduce the same (document, profile) pair arbitrarily deep in a
// reference graph. This package owns exactly that logic.
//
// # Quick Start
//
//	import (
//	    pv "github.com/gofhir/profileval"
//	    "github.com/gofhir/profileval/engine"
//	)
//
//	v := engine.New()
//	v.SetCatalog(cat)       // service.TypeCatalog
//	v.SetProfiles(profiles) // service.ProfileValidator
//	v.SetFetcher(fetcher)   // service.ReferenceFetcher
//
//	outcome := v.Validate(ctx, node, constraints)
//	if !outcome.Success() {
//	    for _, issue := range outcome.Errors() {
//	        fmt.Println(issue.Diagnostics)
//	    }
//	}
//
// # Architecture
//
// The package follows patterns from HAPI FHIR and the Firely SDK, adapted
// for Go:
//
//   - Small collaborator interfaces (1-2 methods each) for the type catalog,
//     the generic structural validator, and the external reference fetcher
//   - Explicit Outcome combinators (AnyOf/AllOf) instead of exception-driven
//     short-circuiting
//   - Explicit, per-call cycle-detection state instead of ambient globals:
//     a call-chain visited set for external references and a per-document
//     record table for in-document references
//   - Context-based cancellation on the external-fetch boundary
package profileval
