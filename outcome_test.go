package profileval

import (
	"sync"
	"testing"
)

func TestOutcome_Basic(t *testing.T) {
	o := NewOutcome()

	if !o.Success() {
		t.Error("NewOutcome should be successful initially")
	}
	if len(o.Issues) != 0 {
		t.Errorf("len(Issues) = %d; want 0", len(o.Issues))
	}
}

func TestOutcome_AddIssue(t *testing.T) {
	o := NewOutcome()

	o.AddIssue(Issue{
		Severity:    SeverityWarning,
		Code:        CodeInformational,
		Diagnostics: "This is a warning",
	})

	if !o.Success() {
		t.Error("Outcome should still be successful after warning")
	}
	if len(o.Issues) != 1 {
		t.Errorf("len(Issues) = %d; want 1", len(o.Issues))
	}

	o.AddIssue(Issue{
		Severity:    SeverityError,
		Code:        CodeInvalid,
		Diagnostics: "This is an error",
	})

	if o.Success() {
		t.Error("Outcome should fail after error")
	}
	if len(o.Issues) != 2 {
		t.Errorf("len(Issues) = %d; want 2", len(o.Issues))
	}
}

func TestOutcome_AddKind(t *testing.T) {
	o := NewOutcome()
	o.AddKind(KindCannotDetermineType, nil, "Observation.value[x]")

	if o.Success() {
		t.Error("Outcome should fail after an error kind")
	}
	if !o.HasKind(KindCannotDetermineType) {
		t.Error("HasKind(KindCannotDetermineType) = false; want true")
	}
	if got := o.Issues[0].Expression[0]; got != "Observation.value[x]" {
		t.Errorf("Expression = %q; want Observation.value[x]", got)
	}
}

func TestOutcome_Merge(t *testing.T) {
	a := NewOutcome()
	a.AddIssue(Issue{Severity: SeverityWarning, Code: CodeInformational})

	b := NewOutcome()
	b.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})

	a.Merge(b)

	if a.Success() {
		t.Error("merged outcome should fail when either input failed")
	}
	if len(a.Issues) != 2 {
		t.Errorf("len(Issues) = %d; want 2", len(a.Issues))
	}

	a.Merge(nil)
	if len(a.Issues) != 2 {
		t.Error("Merge(nil) should be a no-op")
	}
}

func TestOutcome_NewFailedOutcome(t *testing.T) {
	o := NewFailedOutcome()

	if o.Success() {
		t.Error("NewFailedOutcome should not be successful")
	}
	if len(o.Issues) != 0 {
		t.Errorf("len(Issues) = %d; want 0", len(o.Issues))
	}
}

func TestOutcome_Counts(t *testing.T) {
	o := NewOutcome()
	o.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})
	o.AddIssue(Issue{Severity: SeverityFatal, Code: CodeProcessing})
	o.AddIssue(Issue{Severity: SeverityWarning, Code: CodeInformational})
	o.AddIssue(Issue{Severity: SeverityInformation, Code: CodeInformational})

	if got := o.ErrorCount(); got != 2 {
		t.Errorf("ErrorCount() = %d; want 2", got)
	}
	if got := o.WarningCount(); got != 1 {
		t.Errorf("WarningCount() = %d; want 1", got)
	}
	if got := len(o.Errors()); got != 2 {
		t.Errorf("len(Errors()) = %d; want 2", got)
	}
	if got := len(o.Warnings()); got != 1 {
		t.Errorf("len(Warnings()) = %d; want 1", got)
	}
}

func TestOutcome_PrefixExpressions(t *testing.T) {
	o := NewOutcome()
	o.AddIssue(Issue{
		Severity:   SeverityError,
		Code:       CodeInvalid,
		Expression: []string{"Patient.name"},
	})
	o.AddIssue(Issue{
		Severity: SeverityWarning,
		Code:     CodeInformational,
	})

	o.PrefixExpressions("Observation.subject")

	if got := o.Issues[0].Expression[0]; got != "Observation.subject -> Patient.name" {
		t.Errorf("Expression = %q; want prefixed path", got)
	}
	if got := o.Issues[1].Expression[0]; got != "Observation.subject" {
		t.Errorf("Expression = %q; want bare prefix for issue without paths", got)
	}
}

func TestOutcome_Clone(t *testing.T) {
	o := NewOutcome()
	o.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})

	c := o.Clone()
	c.AddIssue(Issue{Severity: SeverityWarning, Code: CodeInformational})

	if len(o.Issues) != 1 {
		t.Error("mutating the clone must not affect the original")
	}
	if c.Success() {
		t.Error("clone should preserve the success flag")
	}
}

func TestAnyOf(t *testing.T) {
	fail1 := NewOutcome()
	fail1.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid, Diagnostics: "branch 1"})

	ok := NewOutcome()

	fail2 := NewOutcome()
	fail2.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid, Diagnostics: "branch 3"})

	combined := AnyOf(fail1, ok, fail2)

	if !combined.Success() {
		t.Error("AnyOf should succeed when at least one branch succeeds")
	}
	if len(combined.Issues) != 2 {
		t.Errorf("len(Issues) = %d; want 2 (failing branches' issues kept)", len(combined.Issues))
	}
}

func TestAnyOf_AllFail(t *testing.T) {
	fail1 := NewOutcome()
	fail1.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})
	fail2 := NewOutcome()
	fail2.AddIssue(Issue{Severity: SeverityError, Code: CodeValue})

	combined := AnyOf(fail1, fail2)

	if combined.Success() {
		t.Error("AnyOf should fail when every branch fails")
	}
	if len(combined.Issues) != 2 {
		t.Errorf("len(Issues) = %d; want 2", len(combined.Issues))
	}
}

func TestAnyOf_Empty(t *testing.T) {
	if AnyOf().Success() {
		t.Error("AnyOf with no branches should fail")
	}
}

func TestAllOf(t *testing.T) {
	ok1 := NewOutcome()
	ok2 := NewOutcome()
	ok2.AddIssue(Issue{Severity: SeverityWarning, Code: CodeInformational})

	fail := NewOutcome()
	fail.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})

	combined := AllOf(ok1, ok2, fail)

	if combined.Success() {
		t.Error("AllOf should fail when any branch fails")
	}
	if len(combined.Issues) != 2 {
		t.Errorf("len(Issues) = %d; want 2", len(combined.Issues))
	}

	if !AllOf(ok1).Success() {
		t.Error("AllOf over successful branches should succeed")
	}
}

func TestOutcome_Pool(t *testing.T) {
	o := AcquireOutcome()
	o.AddIssue(Issue{Severity: SeverityError, Code: CodeInvalid})
	o.Release()

	o2 := AcquireOutcome()
	defer o2.Release()

	if !o2.Success() {
		t.Error("pooled outcome should be reset to successful")
	}
	if len(o2.Issues) != 0 {
		t.Errorf("pooled outcome should have no issues, got %d", len(o2.Issues))
	}
}

func TestOutcome_ConcurrentAdd(t *testing.T) {
	o := NewOutcome()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.AddIssue(Issue{Severity: SeverityWarning, Code: CodeInformational})
		}()
	}
	wg.Wait()

	if len(o.Issues) != 50 {
		t.Errorf("len(Issues) = %d; want 50", len(o.Issues))
	}
	if !o.Success() {
		t.Error("warnings only, outcome should stay successful")
	}
}
