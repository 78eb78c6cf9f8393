package choice

import (
	"strings"
	"testing"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/catalog"
	"github.com/gofhir/profileval/element"
)

func newNode(t *testing.T, typeName string) element.Node {
	t.Helper()
	doc := element.NewDocument(map[string]any{"resourceType": "Observation"})
	return doc.Node(map[string]any{"value": 1.0}, typeName, "Observation.value[x]")
}

func TestResolve_SingleType(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{{Code: "Quantity"}}

	// A single declared type never needs the instance type.
	res := r.Resolve(constraints, newNode(t, ""))

	if res.Failed() {
		t.Fatal("single declared type should always resolve")
	}
	if len(res.Applicable) != 1 || res.Applicable[0].Code != "Quantity" {
		t.Errorf("Applicable = %v; want the single constraint", res.Applicable)
	}
	if !res.Outcome.Success() {
		t.Error("outcome should be clean")
	}
}

func TestResolve_DuplicateCodesNotAChoice(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Reference", TargetProfiles: []string{"Patient"}},
		{Code: "Reference", TargetProfiles: []string{"Organization"}},
	}

	res := r.Resolve(constraints, newNode(t, ""))

	if res.Failed() {
		t.Fatal("duplicate codes should not require disambiguation")
	}
	if len(res.Applicable) != 2 {
		t.Errorf("len(Applicable) = %d; want 2", len(res.Applicable))
	}
}

func TestResolve_ChoiceMatchesInstanceType(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "string"},
	}

	res := r.Resolve(constraints, newNode(t, "Quantity"))

	if res.Failed() {
		t.Fatal("matching instance type should resolve")
	}
	if len(res.Applicable) != 1 || res.Applicable[0].Code != "Quantity" {
		t.Errorf("Applicable = %v; want only the Quantity constraint", res.Applicable)
	}
}

func TestResolve_ChoiceMatchesSubtype(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "string"},
	}

	// SimpleQuantity specializes Quantity.
	res := r.Resolve(constraints, newNode(t, "SimpleQuantity"))

	if res.Failed() {
		t.Fatal("subtype of a candidate should resolve")
	}
	if len(res.Applicable) != 1 || res.Applicable[0].Code != "Quantity" {
		t.Errorf("Applicable = %v; want the Quantity constraint", res.Applicable)
	}
}

func TestResolve_UndeterminableInstanceType(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "string"},
	}

	res := r.Resolve(constraints, newNode(t, ""))

	if !res.Failed() {
		t.Fatal("choice without a determinable instance type must fail")
	}
	if res.Outcome.Success() {
		t.Error("outcome should fail")
	}
	if !res.Outcome.HasKind(pv.KindCannotDetermineType) {
		t.Error("expected KindCannotDetermineType")
	}
	if got := len(res.Outcome.Issues); got != 1 {
		t.Errorf("len(Issues) = %d; want exactly 1", got)
	}
}

func TestResolve_UnknownInstanceType(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "string"},
	}

	res := r.Resolve(constraints, newNode(t, "Frobnicator"))

	if !res.Failed() {
		t.Fatal("unknown instance type must fail")
	}
	if !res.Outcome.HasKind(pv.KindInvalidInstanceTypeName) {
		t.Error("expected KindInvalidInstanceTypeName")
	}
}

func TestResolve_TypeNotAllowed(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "string"},
	}

	res := r.Resolve(constraints, newNode(t, "Ratio"))

	if !res.Failed() {
		t.Fatal("non-candidate instance type must fail")
	}
	if !res.Outcome.HasKind(pv.KindTypeNotAllowedChoice) {
		t.Fatal("expected KindTypeNotAllowedChoice")
	}

	diag := res.Outcome.Issues[len(res.Outcome.Issues)-1].Diagnostics
	for _, want := range []string{"Ratio", "Quantity", "string"} {
		if !strings.Contains(diag, want) {
			t.Errorf("Diagnostics = %q; want mention of %q", diag, want)
		}
	}
}

func TestResolve_EmptyCodeAdvisory(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: ""},
		{Code: "Quantity"},
	}

	res := r.Resolve(constraints, newNode(t, ""))

	// One distinct non-empty code, so no disambiguation needed.
	if res.Failed() {
		t.Fatal("should resolve with a single distinct code")
	}
	if !res.Outcome.HasKind(pv.KindEmptyTypeCode) {
		t.Error("expected the empty-code advisory")
	}
	if !res.Outcome.Success() {
		t.Error("advisory alone should not fail the outcome")
	}
}

func TestResolve_UnknownCandidateCodeKept(t *testing.T) {
	r := New(catalog.NewR4())
	constraints := []pv.TypeConstraint{
		{Code: "Quantity"},
		{Code: "http://example.org/custom-type"},
	}

	res := r.Resolve(constraints, newNode(t, "Quantity"))

	if res.Failed() {
		t.Fatal("should resolve")
	}
	// The unknown candidate stays applicable alongside the match.
	if len(res.Applicable) != 2 {
		t.Errorf("len(Applicable) = %d; want 2", len(res.Applicable))
	}
}
