package structural

import (
	"context"
	"strings"
	"testing"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/catalog"
	"github.com/gofhir/profileval/element"
)

func patientNode() element.Node {
	doc := element.NewDocument(map[string]any{
		"resourceType": "Patient",
		"id":           "p1",
		"name":         []any{map[string]any{"family": "Chalmers"}},
	})
	return doc.Root()
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&Profile{ID: "http://example.org/p1", Type: "Patient"})
	r.Register(&Profile{ID: "http://example.org/p1", Type: "Patient"}) // replace
	r.Register(nil)
	r.Register(&Profile{}) // no id, ignored

	if r.Count() != 1 {
		t.Errorf("Count() = %d; want 1", r.Count())
	}
	if r.Get("http://example.org/p1") == nil {
		t.Error("registered profile should be retrievable")
	}
	if r.Get("missing") != nil {
		t.Error("unknown id should return nil")
	}
}

func TestValidator_UnknownProfileIsWarning(t *testing.T) {
	v := New(NewRegistry(), catalog.NewR4())

	out := v.ValidateAgainstProfile(context.Background(), patientNode(), "http://example.org/unknown")

	if !out.Success() {
		t.Error("unknown profile should not fail the instance")
	}
	if out.WarningCount() != 1 {
		t.Errorf("WarningCount() = %d; want 1", out.WarningCount())
	}
	if !strings.Contains(out.Issues[0].Diagnostics, "not found") {
		t.Errorf("Diagnostics = %q; want a not-found message", out.Issues[0].Diagnostics)
	}
}

func TestValidator_TypeCheck(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Profile{ID: "obs-profile", Type: "Observation"})
	reg.Register(&Profile{ID: "pat-profile", Type: "Patient"})
	reg.Register(&Profile{ID: "res-profile", Type: "Resource"})
	v := New(reg, catalog.NewR4())

	ctx := context.Background()

	if out := v.ValidateAgainstProfile(ctx, patientNode(), "obs-profile"); out.Success() {
		t.Error("Patient instance should fail an Observation profile")
	}
	if out := v.ValidateAgainstProfile(ctx, patientNode(), "pat-profile"); !out.Success() {
		t.Errorf("Patient instance should satisfy a Patient profile: %v", out.Issues)
	}
	if out := v.ValidateAgainstProfile(ctx, patientNode(), "res-profile"); !out.Success() {
		t.Errorf("Patient instance should satisfy a Resource profile: %v", out.Issues)
	}
}

func TestValidator_TypeCheckSkippedWithoutCatalog(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Profile{ID: "obs-profile", Type: "Observation"})
	v := New(reg, nil)

	if out := v.ValidateAgainstProfile(context.Background(), patientNode(), "obs-profile"); !out.Success() {
		t.Error("type check requires a catalog; without one it must be skipped")
	}
}

func TestValidator_Constraints(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Profile{
		ID:   "pat-profile",
		Type: "Patient",
		Constraints: []Constraint{
			{Key: "pat-1", Severity: "error", Human: "A patient must have a name", Expression: "name.exists()"},
			{Key: "pat-2", Severity: "error", Human: "A patient must have contact details", Expression: "telecom.exists()"},
			{Key: "pat-3", Severity: "warning", Human: "A patient should have a birth date", Expression: "birthDate.exists()"},
		},
	})
	v := New(reg, catalog.NewR4())

	out := v.ValidateAgainstProfile(context.Background(), patientNode(), "pat-profile")

	if out.Success() {
		t.Fatal("failing error-severity constraint should fail the outcome")
	}
	if out.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d; want 1 (pat-2)", out.ErrorCount())
	}
	if out.WarningCount() != 1 {
		t.Errorf("WarningCount() = %d; want 1 (pat-3)", out.WarningCount())
	}

	var found bool
	for _, issue := range out.Errors() {
		if strings.Contains(issue.Diagnostics, "pat-2") {
			found = true
		}
	}
	if !found {
		t.Error("error diagnostics should carry the constraint key")
	}
}

func TestValidator_CompileErrorIsWarning(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Profile{
		ID:   "broken",
		Type: "Patient",
		Constraints: []Constraint{
			{Key: "bad-1", Severity: "error", Human: "broken expression", Expression: "((("},
		},
	})
	v := New(reg, catalog.NewR4())

	out := v.ValidateAgainstProfile(context.Background(), patientNode(), "broken")

	if !out.Success() {
		t.Error("an uncompilable constraint must not fail the instance")
	}
	if out.WarningCount() != 1 {
		t.Errorf("WarningCount() = %d; want 1", out.WarningCount())
	}
	if out.Issues[0].Code != pv.CodeProcessing {
		t.Errorf("Code = %v; want CodeProcessing", out.Issues[0].Code)
	}
}

func TestValidator_ExpressionCache(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Profile{
		ID:   "pat-profile",
		Type: "Patient",
		Constraints: []Constraint{
			{Key: "pat-1", Severity: "error", Human: "needs a name", Expression: "name.exists()"},
		},
	})
	v := New(reg, catalog.NewR4())

	ctx := context.Background()
	v.ValidateAgainstProfile(ctx, patientNode(), "pat-profile")
	v.ValidateAgainstProfile(ctx, patientNode(), "pat-profile")

	v.exprMu.Lock()
	defer v.exprMu.Unlock()
	if len(v.exprs) != 1 {
		t.Errorf("cached expressions = %d; want 1", len(v.exprs))
	}
}
