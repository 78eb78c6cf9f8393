// Package engine implements the recursive validation engine: type-choice
// resolution, profile conjunction and disjunction, and reference validation
// with cycle detection across fetched documents.
package engine

import (
	"context"
	"sync"
	"time"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/choice"
	"github.com/gofhir/profileval/element"
	"github.com/gofhir/profileval/logger"
	"github.com/gofhir/profileval/service"
)

// ConstraintSource supplies the element type constraints a profile imposes on
// its instances. The engine uses it to recurse into fetched and in-document
// reference targets: validating a target against a profile also validates the
// constraints that profile declares.
//
// A nil source stops recursion at structural profile validation.
type ConstraintSource interface {
	ConstraintsFor(profileID string) []pv.TypeConstraint
}

// ConstraintSourceFunc adapts a function to the ConstraintSource interface.
type ConstraintSourceFunc func(profileID string) []pv.TypeConstraint

// ConstraintsFor calls the function.
func (f ConstraintSourceFunc) ConstraintsFor(profileID string) []pv.TypeConstraint {
	return f(profileID)
}

// Validator is the validation engine. Configure it with a type catalog, a
// profile validator and a reference fetcher, then call Validate or
// ValidateProfiles. A Validator is safe for concurrent use once configured.
type Validator struct {
	options  *pv.Options
	catalog  service.TypeCatalog
	profiles service.ProfileValidator
	fetcher  service.ReferenceFetcher
	source   ConstraintSource
	resolver *choice.Resolver
	metrics  *pv.Metrics
	log      *logger.Logger
}

// New creates a Validator with the given options. Collaborators default to
// null implementations; set them before validating.
func New(opts ...pv.Option) *Validator {
	options := pv.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Validator{
		options:  options,
		profiles: service.NullProfileValidator{},
		fetcher:  service.NullFetcher{},
		metrics:  pv.NewMetrics(),
		log:      logger.Default(),
	}
}

// SetCatalog installs the type catalog used for choice resolution and
// reference-type classification.
func (v *Validator) SetCatalog(catalog service.TypeCatalog) {
	v.catalog = catalog
	v.resolver = choice.New(catalog)
}

// SetProfiles installs the structural profile validator.
func (v *Validator) SetProfiles(profiles service.ProfileValidator) {
	if profiles == nil {
		profiles = service.NullProfileValidator{}
	}
	v.profiles = profiles
}

// SetFetcher installs the external reference fetcher.
func (v *Validator) SetFetcher(fetcher service.ReferenceFetcher) {
	if fetcher == nil {
		fetcher = service.NullFetcher{}
	}
	v.fetcher = fetcher
}

// SetConstraintSource installs the source of per-profile element constraints,
// enabling recursive validation of reference targets.
func (v *Validator) SetConstraintSource(source ConstraintSource) {
	v.source = source
}

// SetLogger replaces the engine's logger.
func (v *Validator) SetLogger(log *logger.Logger) {
	if log != nil {
		v.log = log
	}
}

// Metrics returns the engine's metrics.
func (v *Validator) Metrics() *pv.Metrics {
	return v.metrics
}

// Validate validates the node against its declared type constraints: choice
// resolution first, then validation against every applicable constraint,
// combined as a disjunction when the element is a choice.
func (v *Validator) Validate(ctx context.Context, node element.Node, constraints []pv.TypeConstraint) *pv.Outcome {
	start := time.Now()
	state := newRunState()
	out := v.validateNode(ctx, node, constraints, state)
	v.metrics.RecordValidation(time.Since(start), out.Success())
	return out
}

// ValidateProfiles validates the node against a set of profiles under an
// explicit combine mode: CombineAny for alternatives, CombineAll for profiles
// imposed simultaneously.
func (v *Validator) ValidateProfiles(ctx context.Context, node element.Node, profileIDs []string, mode pv.CombineMode) *pv.Outcome {
	start := time.Now()
	state := newRunState()
	out := v.validateProfileSet(ctx, node, profileIDs, mode, state)
	v.metrics.RecordValidation(time.Since(start), out.Success())
	return out
}

// validateNode is the recursive entry point: it runs on the top-level node
// and on every reference target reached through a ConstraintSource.
func (v *Validator) validateNode(ctx context.Context, node element.Node, constraints []pv.TypeConstraint, state *runState) *pv.Outcome {
	if err := ctx.Err(); err != nil {
		out := pv.AcquireOutcome()
		out.AddIssue(pv.Error(pv.CodeProcessing).
			Diagnostics("Validation canceled: " + err.Error()).
			At(node.Path()).
			Build())
		return out
	}

	if len(constraints) == 0 {
		return pv.AcquireOutcome()
	}

	applicable := constraints
	var out *pv.Outcome
	if v.resolver != nil {
		res := v.resolver.Resolve(constraints, node)
		if res.Failed() {
			return res.Outcome
		}
		applicable = res.Applicable
		out = res.Outcome
	} else {
		out = pv.AcquireOutcome()
	}

	types := v.validateAgainstTypes(ctx, node, applicable, state)
	out.Merge(types)
	types.Release()
	return out
}

// validateAgainstTypes validates the node against each applicable constraint.
// With several applicable constraints the element is a choice and the result
// is a lazy disjunction: the first succeeding branch wins and earlier failing
// branches' issues are discarded. Only when every branch fails are all their
// issues reported together.
func (v *Validator) validateAgainstTypes(ctx context.Context, node element.Node, constraints []pv.TypeConstraint, state *runState) *pv.Outcome {
	if len(constraints) == 1 {
		return v.validateConstraint(ctx, node, constraints[0], state)
	}

	var failed []*pv.Outcome
	for _, c := range constraints {
		branch := v.validateConstraint(ctx, node, c, state)
		if branch.Success() {
			releaseAll(failed)
			return branch
		}
		failed = append(failed, branch)
	}
	out := pv.AnyOf(failed...)
	releaseAll(failed)
	return out
}

// validateConstraint validates the node against one type constraint:
// structural validation against the declared profiles, plus reference
// validation when the constraint's code denotes a reference type.
func (v *Validator) validateConstraint(ctx context.Context, node element.Node, c pv.TypeConstraint, state *runState) *pv.Outcome {
	out := pv.AcquireOutcome()

	if profiles := c.DeclaredProfiles(); len(profiles) > 0 {
		set := v.validateProfileSet(ctx, node, profiles, pv.CombineAny, state)
		out.Merge(set)
		set.Release()
	}

	if v.catalog != nil && v.catalog.IsReferenceCode(c.Code) {
		ref := v.validateReference(ctx, node, c, state)
		out.Merge(ref)
		ref.Release()
	}

	return out
}

// validateProfileSet combines per-profile validation under the given mode.
// The disjunction is lazy; the conjunction optionally runs its branches
// concurrently.
func (v *Validator) validateProfileSet(ctx context.Context, node element.Node, profileIDs []string, mode pv.CombineMode, state *runState) *pv.Outcome {
	switch len(profileIDs) {
	case 0:
		return pv.AcquireOutcome()
	case 1:
		return v.validateProfile(ctx, node, profileIDs[0], state)
	}

	if mode == pv.CombineAny {
		var failed []*pv.Outcome
		for _, id := range profileIDs {
			branch := v.validateProfile(ctx, node, id, state)
			if branch.Success() {
				releaseAll(failed)
				return branch
			}
			failed = append(failed, branch)
		}
		out := pv.AnyOf(failed...)
		releaseAll(failed)
		return out
	}

	if v.options.ParallelProfiles {
		branches := make([]*pv.Outcome, len(profileIDs))
		var wg sync.WaitGroup
		for i, id := range profileIDs {
			wg.Add(1)
			// Each concurrent branch gets its own validation path so a
			// sibling's in-progress work is never mistaken for a cycle.
			branchState := state.forBranch()
			go func(i int, id string, state *runState) {
				defer wg.Done()
				branches[i] = v.validateProfile(ctx, node, id, state)
			}(i, id, branchState)
		}
		wg.Wait()
		out := pv.AllOf(branches...)
		releaseAll(branches)
		return out
	}

	branches := make([]*pv.Outcome, 0, len(profileIDs))
	for _, id := range profileIDs {
		branches = append(branches, v.validateProfile(ctx, node, id, state))
	}
	out := pv.AllOf(branches...)
	releaseAll(branches)
	return out
}

// validateProfile validates the node against one profile: structural
// validation first, then the constraints the profile declares, which is where
// recursion into reference targets happens.
func (v *Validator) validateProfile(ctx context.Context, node element.Node, profileID string, state *runState) *pv.Outcome {
	out := v.profiles.ValidateAgainstProfile(ctx, node, profileID)

	if v.source != nil {
		if constraints := v.source.ConstraintsFor(profileID); len(constraints) > 0 {
			sub := v.validateNode(ctx, node, constraints, state)
			out.Merge(sub)
			sub.Release()
		}
	}

	return out
}

// releaseAll returns merged or discarded branch outcomes to the pool.
func releaseAll(outcomes []*pv.Outcome) {
	for _, o := range outcomes {
		o.Release()
	}
}
