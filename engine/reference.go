package engine

import (
	"context"
	"strings"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
	"github.com/gofhir/profileval/reference"
)

// validateReference validates the reference a node carries against a
// reference-typed constraint: parseability, local resolution, aggregation
// restrictions, then recursive validation of the target.
//
// Nodes without a reference string (logical or display-only references) pass
// unconditionally; fetchability checks do not apply to them.
func (v *Validator) validateReference(ctx context.Context, node element.Node, c pv.TypeConstraint, state *runState) *pv.Outcome {
	out := pv.AcquireOutcome()

	ref, ok := node.Reference()
	if !ok {
		return out
	}

	if !reference.IsParseable(ref) {
		out.AddKind(pv.KindUnparseableReference, map[string]any{"reference": ref}, node.Path())
		return out
	}

	res := reference.Resolve(node, ref)

	// Aggregation mismatch is advisory: the restriction speaks about where
	// the target may live, not about the target's validity, so target
	// validation still runs.
	if !c.AllowsAggregation(res.Mode) {
		out.AddKind(pv.KindReferenceOfInvalidKind, map[string]any{
			"reference": ref,
			"kind":      res.Mode.String(),
			"allowed":   formatAggregations(c.Aggregations),
		}, node.Path())
	}

	switch res.Mode {
	case pv.AggregationContained:
		if !res.Found {
			out.AddKind(pv.KindContainedReferenceNotResolvable, map[string]any{"reference": ref}, node.Path())
			return out
		}
		local := v.validateLocalTarget(ctx, node, res.Target, c.TargetProfiles, state)
		out.Merge(local)
		local.Release()

	case pv.AggregationBundled:
		local := v.validateLocalTarget(ctx, node, res.Target, c.TargetProfiles, state)
		out.Merge(local)
		local.Release()

	case pv.AggregationReferenced:
		ext := v.validateExternalTarget(ctx, node, ref, c.TargetProfiles, state)
		out.Merge(ext)
		ext.Release()
	}

	return out
}

// validateLocalTarget validates an in-document target (contained or bundled)
// against the declared target profiles, consulting the per-document record
// table. The target must satisfy at least one target profile.
func (v *Validator) validateLocalTarget(ctx context.Context, origin, target element.Node, profileIDs []string, state *runState) *pv.Outcome {
	if len(profileIDs) == 0 {
		return pv.AcquireOutcome()
	}

	var failed []*pv.Outcome
	for _, id := range profileIDs {
		branch := v.validateRecorded(ctx, target, id, state)
		branch.PrefixExpressions(origin.Path())
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

// validateRecorded validates an in-document (node, profile) pair through the
// record table. A pair already on this branch's validation path is a cycle;
// a recorded Success or Fail propagates the verdict without repeating its
// issues. A Pending entry claimed by a concurrent sibling branch is not a
// cycle: the pair is validated here as well rather than waited on.
func (v *Validator) validateRecorded(ctx context.Context, target element.Node, profileID string, state *runState) *pv.Outcome {
	key := recordKey{identity: target.Identity(), profileID: profileID}

	if _, onPath := state.path[key]; onPath {
		v.metrics.RecordCycle()
		v.log.Debug("in-document cycle at %s against %s", target.Path(), profileID)
		out := pv.AcquireOutcome()
		out.AddKind(pv.KindCircularReference, map[string]any{"reference": key.identity}, target.Path())
		return out
	}

	status, claimed := state.records.begin(key.identity, profileID)
	if !claimed {
		switch status {
		case recordFail:
			v.metrics.RecordRecordHit()
			return pv.NewFailedOutcome()
		case recordSuccess:
			v.metrics.RecordRecordHit()
			return pv.AcquireOutcome()
		}
		// Pending on a sibling branch; validate independently.
	}
	v.metrics.RecordRecordMiss()

	state.path[key] = struct{}{}
	out := v.validateProfile(ctx, target, profileID, state)
	delete(state.path, key)

	if out.Success() {
		state.records.set(key.identity, profileID, recordSuccess)
	} else {
		state.records.set(key.identity, profileID, recordFail)
	}
	return out
}

// validateExternalTarget fetches an external target and validates it against
// the declared target profiles. The fetched document gets a fresh record
// table; the visited set spans the whole call chain and catches reference
// cycles across documents.
func (v *Validator) validateExternalTarget(ctx context.Context, origin element.Node, ref string, profileIDs []string, state *runState) *pv.Outcome {
	out := pv.AcquireOutcome()

	if !v.options.FollowExternalReferences {
		return out
	}

	if state.visited.checkAndAdd(ref, profileIDs) {
		v.metrics.RecordCycle()
		v.log.Debug("reference cycle at %s via %s", origin.Path(), ref)
		out.AddKind(pv.KindCircularReference, map[string]any{"reference": ref}, origin.Path())
		return out
	}

	if limit := v.options.MaxVisited; limit > 0 && state.visited.size() > limit {
		out.AddIssue(pv.Warning(pv.CodeIncomplete).
			Diagnostics("Reference chain limit reached, '" + ref + "' not followed").
			At(origin.Path()).
			Build())
		return out
	}

	target, err := v.fetcher.Fetch(ctx, ref, origin.Path())
	v.metrics.RecordExternalFetch(err != nil)
	if err != nil {
		out.AddKind(pv.KindUnavailableResource, map[string]any{
			"reference": ref,
			"error":     err.Error(),
		}, origin.Path())
		return out
	}

	if len(profileIDs) == 0 {
		return out
	}

	sub := state.forDocument()
	var failed []*pv.Outcome
	for _, id := range profileIDs {
		branch := v.validateRecorded(ctx, target, id, sub)
		branch.PrefixExpressions(origin.Path())
		if branch.Success() {
			out.Merge(branch)
			branch.Release()
			releaseAll(failed)
			return out
		}
		failed = append(failed, branch)
	}
	any := pv.AnyOf(failed...)
	releaseAll(failed)
	out.Merge(any)
	any.Release()
	return out
}

// formatAggregations renders allowed aggregation modes for diagnostics.
func formatAggregations(modes []pv.AggregationMode) string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}
