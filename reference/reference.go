// Package reference parses FHIR reference strings and resolves them within
// their document or container, classifying each resolution by aggregation
// mode.
package reference

import (
	"regexp"
	"strings"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
)

// Reference format patterns.
var (
	// Relative reference: ResourceType/id or ResourceType/id/_history/vid.
	relativeRefPattern = regexp.MustCompile(`^[A-Za-z]+/[A-Za-z0-9\-.]+(?:/_history/[A-Za-z0-9\-.]+)?$`)

	// Absolute URL reference (with optional _history/vid).
	absoluteRefPattern = regexp.MustCompile(`^https?://\S+/[A-Za-z]+/[A-Za-z0-9\-.]+(?:/_history/[A-Za-z0-9\-.]+)?$`)

	// Fragment reference (contained resource).
	fragmentRefPattern = regexp.MustCompile(`^#[A-Za-z0-9\-.]+$`)

	// URN reference patterns.
	// Note: urn:uuid accepts any non-empty suffix to match HL7 validator
	// behavior. Invalid UUIDs surface as "not found in container" rather
	// than a format error.
	urnUUIDPattern = regexp.MustCompile(`^urn:uuid:.+$`)
	urnOIDPattern  = regexp.MustCompile(`^urn:oid:[012](\.[1-9]\d*)+$`)
)

// IsParseable reports whether the reference string has one of the known
// forms (relative, absolute, fragment, urn:uuid, urn:oid).
func IsParseable(ref string) bool {
	if ref == "" {
		return false
	}
	return relativeRefPattern.MatchString(ref) ||
		absoluteRefPattern.MatchString(ref) ||
		fragmentRefPattern.MatchString(ref) ||
		urnUUIDPattern.MatchString(ref) ||
		urnOIDPattern.MatchString(ref)
}

// IsFragment reports whether the reference is a fragment-style internal
// anchor ("#id" or the document-self reference "#").
func IsFragment(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// Resolution is the result of resolving a reference string against the
// current document and its container.
type Resolution struct {
	// Mode classifies where the target was (or would be) found.
	Mode pv.AggregationMode

	// Target is the resolved node, nil when not found locally. For
	// AggregationReferenced targets the fetch is the engine's job, so
	// Target is always nil there.
	Target element.Node

	// Found reports whether Target is populated.
	Found bool
}

// Resolve classifies a parseable reference string and attempts resolution
// within the node's document or container.
//
// Fragment references are AggregationContained and only ever resolve against
// the document's contained resources; a miss there stays Contained (the
// caller reports it as unresolvable). Non-fragment references resolve
// against the shared container: a hit is AggregationBundled, a miss means
// the target is external (AggregationReferenced).
func Resolve(node element.Node, ref string) Resolution {
	if IsFragment(ref) {
		target, ok := node.ResolveWithinContainer(ref)
		return Resolution{
			Mode:   pv.AggregationContained,
			Target: target,
			Found:  ok,
		}
	}

	if target, ok := node.ResolveWithinContainer(ref); ok {
		return Resolution{
			Mode:   pv.AggregationBundled,
			Target: target,
			Found:  true,
		}
	}

	return Resolution{Mode: pv.AggregationReferenced}
}
