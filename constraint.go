package profileval

import "strings"

// AggregationMode classifies where a resolved reference target was found.
// It maps to ElementDefinition.type.aggregation in FHIR and describes the
// encountered resolution, not a user choice.
type AggregationMode string

const (
	// AggregationContained: the target is a contained resource within the
	// same document, addressed by a fragment reference.
	AggregationContained AggregationMode = "contained"
	// AggregationBundled: the target lives in the same container (bundle or
	// message) as the referring document.
	AggregationBundled AggregationMode = "bundled"
	// AggregationReferenced: the target is outside the document and its
	// container and requires an external fetch.
	AggregationReferenced AggregationMode = "referenced"
)

// String returns the aggregation code.
func (m AggregationMode) String() string {
	return string(m)
}

// TypeConstraint is one permissible type for an element, as declared by the
// profile. It mirrors ElementDefinition.type: a type code, optional profiles
// for the type itself, and, for reference types, the permissible target
// profiles and aggregation modes. Immutable once created; the engine never
// modifies it.
type TypeConstraint struct {
	// Code is the declared type code (e.g. "Reference", "Quantity").
	Code string

	// Profiles are the declared profiles constraining the type itself.
	// When empty the type code doubles as the profile identifier.
	Profiles []string

	// TargetProfiles are the profiles a reference target must satisfy.
	// Only meaningful when Code denotes a reference type.
	TargetProfiles []string

	// Aggregations restricts how a reference target may be located.
	// Empty means unrestricted.
	Aggregations []AggregationMode
}

// AllowsAggregation reports whether the constraint permits the given mode.
// An empty aggregation list permits everything.
func (c TypeConstraint) AllowsAggregation(mode AggregationMode) bool {
	if len(c.Aggregations) == 0 {
		return true
	}
	for _, m := range c.Aggregations {
		if m == mode {
			return true
		}
	}
	return false
}

// DeclaredProfiles returns the profiles to validate an instance of this type
// against, falling back to the type code when none are declared.
func (c TypeConstraint) DeclaredProfiles() []string {
	if len(c.Profiles) > 0 {
		return c.Profiles
	}
	if c.Code == "" {
		return nil
	}
	return []string{c.Code}
}

// DistinctCodes returns the distinct non-empty type codes among constraints,
// in first-seen order.
func DistinctCodes(constraints []TypeConstraint) []string {
	seen := make(map[string]bool, len(constraints))
	var codes []string
	for _, c := range constraints {
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		codes = append(codes, c.Code)
	}
	return codes
}

// FormatCodes renders type codes for diagnostics.
func FormatCodes(codes []string) string {
	return strings.Join(codes, ", ")
}

// CombineMode selects how outcomes from multiple profiles on the same
// element are combined. It is always an explicit parameter: a choice among
// alternatives uses CombineAny, a set of simultaneously imposed profiles
// uses CombineAll.
type CombineMode int

const (
	// CombineAny succeeds when at least one branch validates cleanly.
	CombineAny CombineMode = iota
	// CombineAll succeeds only when every branch validates cleanly.
	CombineAll
)

// String returns the mode name.
func (m CombineMode) String() string {
	switch m {
	case CombineAny:
		return "any"
	case CombineAll:
		return "all"
	default:
		return "unknown"
	}
}
