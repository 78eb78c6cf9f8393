// Package structural provides a constraint-based implementation of the
// generic ProfileValidator collaborator. A profile here is a base type plus
// a set of FHIRPath invariants; validation checks the node's runtime type
// against the base type and evaluates every invariant against the node's
// JSON form.
package structural

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
	"github.com/gofhir/profileval/service"
)

// Constraint is a FHIRPath invariant declared by a profile.
type Constraint struct {
	Key        string // e.g. "org-1"
	Severity   string // error | warning
	Human      string // human-readable description, used as diagnostics
	Expression string // FHIRPath expression that must evaluate truthy
}

// Profile is a structural definition the validator can check nodes against.
type Profile struct {
	// ID is the profile identifier (canonical URL or bare type code).
	ID string

	// Type is the base type an instance must be compatible with.
	// Empty skips the type check.
	Type string

	// Constraints are the profile's invariants.
	Constraints []Constraint
}

// Registry holds profiles indexed by identifier.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Profile)}
}

// Register adds or replaces a profile.
func (r *Registry) Register(p *Profile) {
	if p == nil || p.ID == "" {
		return
	}
	r.mu.Lock()
	r.byID[p.ID] = p
	r.mu.Unlock()
}

// Get returns a profile by identifier.
func (r *Registry) Get(id string) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Count returns the number of registered profiles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Validator validates nodes against registered profiles.
type Validator struct {
	profiles *Registry
	catalog  service.TypeCatalog

	// Compiled expressions are cached; profiles reuse invariants heavily.
	exprMu sync.Mutex
	exprs  map[string]*fhirpath.Expression
}

// New creates a Validator. catalog may be nil, which skips type checks.
func New(profiles *Registry, catalog service.TypeCatalog) *Validator {
	return &Validator{
		profiles: profiles,
		catalog:  catalog,
		exprs:    make(map[string]*fhirpath.Expression),
	}
}

// ValidateAgainstProfile checks the node against a single profile.
// An unknown profile yields a warning, not an error, so unresolved custom
// profiles do not fail otherwise valid instances.
func (v *Validator) ValidateAgainstProfile(ctx context.Context, node element.Node, profileID string) *pv.Outcome {
	out := pv.NewOutcome()

	profile := v.profiles.Get(profileID)
	if profile == nil {
		out.AddIssue(pv.Warning(pv.CodeNotFound).
			Diagnostics("Profile '" + profileID + "' not found in registry").
			At(node.Path()).
			Build())
		return out
	}

	v.checkType(profile, node, out)
	v.checkConstraints(ctx, profile, node, out)
	return out
}

// checkType verifies the node's runtime type is compatible with the
// profile's base type.
func (v *Validator) checkType(profile *Profile, node element.Node, out *pv.Outcome) {
	if profile.Type == "" || v.catalog == nil {
		return
	}
	typeName, ok := node.TypeName()
	if !ok {
		return
	}
	instanceCode, known := v.catalog.TypeNameToCode(typeName)
	if !known {
		return
	}
	if _, known := v.catalog.TypeNameToCode(profile.Type); !known {
		// Unknown base types cannot be checked against the catalog.
		return
	}
	if !v.catalog.IsSubtypeCompatible(service.TypeCode(profile.Type), instanceCode) {
		out.AddIssue(pv.Error(pv.CodeStructure).
			Diagnostics("Instance of type '" + typeName + "' cannot satisfy profile '" + profile.ID + "' for type '" + profile.Type + "'").
			At(node.Path()).
			Build())
	}
}

// checkConstraints evaluates the profile's invariants against the node.
func (v *Validator) checkConstraints(ctx context.Context, profile *Profile, node element.Node, out *pv.Outcome) {
	if len(profile.Constraints) == 0 {
		return
	}

	raw, err := json.Marshal(node.Data())
	if err != nil {
		out.AddIssue(pv.Warning(pv.CodeProcessing).
			Diagnostics("Cannot serialize node for constraint evaluation: " + err.Error()).
			At(node.Path()).
			Build())
		return
	}

	for _, c := range profile.Constraints {
		if ctx.Err() != nil {
			return
		}

		compiled, err := v.getOrCompile(c.Expression)
		if err != nil {
			out.AddIssue(pv.Warning(pv.CodeProcessing).
				Diagnostics("Could not compile constraint '" + c.Key + "': " + err.Error()).
				At(node.Path()).
				Build())
			continue
		}

		result, err := compiled.Evaluate(raw)
		if err != nil {
			out.AddIssue(pv.Warning(pv.CodeProcessing).
				Diagnostics("Could not evaluate constraint '" + c.Key + "': " + err.Error()).
				At(node.Path()).
				Build())
			continue
		}

		if toBool(result) {
			continue
		}

		severity := pv.SeverityError
		if c.Severity == "warning" {
			severity = pv.SeverityWarning
		}
		out.AddIssue(pv.NewIssue(severity, pv.CodeInvariant).
			Diagnostics(c.Human + " (" + c.Key + ")").
			At(node.Path()).
			Build())
	}
}

// getOrCompile returns a cached compiled expression or compiles a new one.
func (v *Validator) getOrCompile(expression string) (*fhirpath.Expression, error) {
	v.exprMu.Lock()
	defer v.exprMu.Unlock()

	if compiled, ok := v.exprs[expression]; ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expression)
	if err != nil {
		return nil, err
	}

	v.exprs[expression] = compiled
	return compiled, nil
}

// toBool converts a FHIRPath result collection to a boolean.
// Follows FHIRPath truthiness rules:
//   - Empty collection = false
//   - Single boolean = that boolean's value
//   - Non-empty non-boolean collection = true
func toBool(result types.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}

// Verify interface compliance.
var _ service.ProfileValidator = (*Validator)(nil)
