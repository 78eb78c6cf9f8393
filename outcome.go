package profileval

import (
	"sync"
)

// Outcome is the composable result of a validation call: an ordered issue
// list plus a success flag. The flag normally tracks the issues (success
// holds iff no error or fatal issue was added), but the AnyOf combinator may
// override it: a choice that succeeds on one branch stays successful even
// when the failing branches' issues are reported alongside.
//
// No engine operation returns an error for a validation finding; everything
// recoverable is carried here as an Issue.
type Outcome struct {
	// Issues contains all validation issues found, in discovery order.
	Issues []Issue `json:"issues,omitempty"`

	// success tracks whether this outcome passes. Maintained by AddIssue
	// and Merge, overridden by AnyOf.
	success bool

	// mu protects concurrent access to Issues and success.
	mu sync.Mutex
}

// outcomePool holds reusable Outcome instances.
var outcomePool = sync.Pool{
	New: func() any {
		return &Outcome{
			Issues: make([]Issue, 0, 8),
		}
	},
}

// NewOutcome creates a new successful, empty Outcome.
func NewOutcome() *Outcome {
	return &Outcome{
		success: true,
		Issues:  make([]Issue, 0, 4),
	}
}

// NewFailedOutcome creates an empty Outcome already marked failed. Used when
// a recorded failure must propagate without repeating its issues.
func NewFailedOutcome() *Outcome {
	return &Outcome{
		success: false,
		Issues:  make([]Issue, 0, 4),
	}
}

// AcquireOutcome gets an Outcome from the pool.
// The outcome starts as successful with no issues.
func AcquireOutcome() *Outcome {
	o := outcomePool.Get().(*Outcome)
	o.Reset()
	return o
}

// Release returns the Outcome to the pool.
// After calling Release, the Outcome must not be used.
func (o *Outcome) Release() {
	if o == nil {
		return
	}
	if cap(o.Issues) <= 1024 {
		outcomePool.Put(o)
	}
}

// Reset clears the outcome for reuse.
func (o *Outcome) Reset() {
	o.success = true
	o.Issues = o.Issues[:0]
}

// Success reports whether validation passed.
func (o *Outcome) Success() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.success
}

// AddIssue adds a validation issue to the outcome.
// This method is thread-safe.
func (o *Outcome) AddIssue(issue Issue) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Issues = append(o.Issues, issue)
	if issue.IsError() {
		o.success = false
	}
}

// AddKind adds an issue built from a taxonomy Kind's diagnostic template.
func (o *Outcome) AddKind(kind Kind, params map[string]any, expression ...string) {
	o.AddIssue(IssueForKind(kind, params, expression...))
}

// Merge combines another outcome into this one: issues are concatenated and
// success is the conjunction.
func (o *Outcome) Merge(other *Outcome) {
	if other == nil {
		return
	}

	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	ok := other.success
	other.mu.Unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.Issues = append(o.Issues, issues...)
	o.success = o.success && ok
}

// ErrorCount returns the number of error and fatal issues.
func (o *Outcome) ErrorCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	count := 0
	for _, issue := range o.Issues {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning issues.
func (o *Outcome) WarningCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	count := 0
	for _, issue := range o.Issues {
		if issue.IsWarning() {
			count++
		}
	}
	return count
}

// Errors returns all error and fatal issues.
func (o *Outcome) Errors() []Issue {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errors []Issue
	for _, issue := range o.Issues {
		if issue.IsError() {
			errors = append(errors, issue)
		}
	}
	return errors
}

// Warnings returns all warning issues.
func (o *Outcome) Warnings() []Issue {
	o.mu.Lock()
	defer o.mu.Unlock()

	var warnings []Issue
	for _, issue := range o.Issues {
		if issue.IsWarning() {
			warnings = append(warnings, issue)
		}
	}
	return warnings
}

// HasKind reports whether any issue carries the given taxonomy kind.
func (o *Outcome) HasKind(kind Kind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, issue := range o.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// PrefixExpressions prefixes every issue's expressions with the given outer
// path, so issues surfaced through recursive reference validation report the
// full path from the validation root.
func (o *Outcome) PrefixExpressions(prefix string) {
	if prefix == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.Issues {
		if len(o.Issues[i].Expression) == 0 {
			o.Issues[i].Expression = []string{prefix}
			continue
		}
		for j, expr := range o.Issues[i].Expression {
			o.Issues[i].Expression[j] = prefix + " -> " + expr
		}
	}
}

// Clone creates a copy of the outcome (not pooled).
func (o *Outcome) Clone() *Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	clone := &Outcome{
		success: o.success,
		Issues:  make([]Issue, len(o.Issues)),
	}
	copy(clone.Issues, o.Issues)
	return clone
}

// AllOf merges all outcomes; the combination succeeds iff every input does.
// All issues are kept unconditionally, including the passing branches'
// advisory issues.
func AllOf(outcomes ...*Outcome) *Outcome {
	combined := NewOutcome()
	for _, o := range outcomes {
		combined.Merge(o)
	}
	return combined
}

// AnyOf merges all outcomes; the combination succeeds iff at least one input
// does. When no input succeeds the merged issue list carries every input's
// issues so callers can report all failed alternatives.
func AnyOf(outcomes ...*Outcome) *Outcome {
	combined := NewOutcome()
	anyOK := false
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		combined.Merge(o)
		if o.Success() {
			anyOK = true
		}
	}
	combined.mu.Lock()
	combined.success = anyOK
	combined.mu.Unlock()
	return combined
}
