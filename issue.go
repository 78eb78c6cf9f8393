package profileval

// Severity represents the severity of a validation issue.
// Maps to OperationOutcome.issue.severity in FHIR.
type Severity string

const (
	// SeverityFatal indicates the issue is fatal and validation cannot continue.
	SeverityFatal Severity = "fatal"
	// SeverityError indicates a validation error that causes the element to be invalid.
	SeverityError Severity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning Severity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation Severity = "information"
)

// Code represents the type of validation issue.
// Maps to OperationOutcome.issue.code in FHIR.
type Code string

const (
	// CodeInvalid indicates the content is invalid against the profile.
	CodeInvalid Code = "invalid"
	// CodeStructure indicates a structural issue.
	CodeStructure Code = "structure"
	// CodeValue indicates an invalid value.
	CodeValue Code = "value"
	// CodeInvariant indicates an invariant violation.
	CodeInvariant Code = "invariant"
	// CodeNotFound indicates a referenced resource was not found.
	CodeNotFound Code = "not-found"
	// CodeNotSupported indicates the operation is not supported.
	CodeNotSupported Code = "not-supported"
	// CodeProcessing indicates a processing error.
	CodeProcessing Code = "processing"
	// CodeBusinessRule indicates a business rule violation.
	CodeBusinessRule Code = "business-rule"
	// CodeInformational indicates informational content.
	CodeInformational Code = "informational"
	// CodeIncomplete indicates incomplete data or processing.
	CodeIncomplete Code = "incomplete"
)

// Kind identifies a specific validation finding from the engine's taxonomy.
// Each Kind is backed by a diagnostic template in the catalog.
type Kind string

// Kinds emitted by the type-choice resolver.
const (
	// KindEmptyTypeCode is advisory: a constraint declares an empty type code.
	KindEmptyTypeCode Kind = "CHOICE_EMPTY_TYPE_CODE"
	// KindCannotDetermineType: the element is a choice but the instance
	// carries no runtime type name to disambiguate with.
	KindCannotDetermineType Kind = "CHOICE_CANNOT_DETERMINE_TYPE"
	// KindInvalidInstanceTypeName: the instance's runtime type name is not
	// recognized by the type catalog.
	KindInvalidInstanceTypeName Kind = "CHOICE_INVALID_INSTANCE_TYPE"
	// KindTypeNotAllowedChoice: the instance type matches none of the
	// declared candidate types.
	KindTypeNotAllowedChoice Kind = "CHOICE_TYPE_NOT_ALLOWED"
)

// Kinds emitted by reference validation.
const (
	// KindUnparseableReference: the reference string matches no known form.
	KindUnparseableReference Kind = "REFERENCE_UNPARSEABLE"
	// KindContainedReferenceNotResolvable: a fragment reference did not
	// resolve within its own document.
	KindContainedReferenceNotResolvable Kind = "REFERENCE_CONTAINED_NOT_RESOLVABLE"
	// KindReferenceOfInvalidKind is advisory: the reference resolved via an
	// aggregation mode the constraint does not allow.
	KindReferenceOfInvalidKind Kind = "REFERENCE_INVALID_KIND"
	// KindCircularReference: the same (reference, profile) pair was
	// encountered again before its validation completed.
	KindCircularReference Kind = "REFERENCE_CIRCULAR"
	// KindUnavailableResource: the external fetch for a reference failed.
	KindUnavailableResource Kind = "REFERENCE_UNAVAILABLE"
)

// Issue represents a single validation issue.
// It maps to OperationOutcome.issue in FHIR.
type Issue struct {
	// Severity of the issue (error, warning, information)
	Severity Severity `json:"severity"`

	// Code identifying the FHIR issue type
	Code Code `json:"code"`

	// Kind is the engine-taxonomy identifier for this finding
	Kind Kind `json:"kind,omitempty"`

	// Diagnostics contains human-readable details about the issue
	Diagnostics string `json:"diagnostics,omitempty"`

	// Expression contains path expression(s) to the element(s) in error.
	// As outcomes propagate up through recursive reference validation the
	// expressions are prefixed, so a leaf issue carries the full path from
	// the validation root.
	Expression []string `json:"expression,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	path := ""
	if len(i.Expression) > 0 {
		path = " at " + i.Expression[0]
	}
	return string(i.Severity) + ": " + i.Diagnostics + path
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity Severity, code Code) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code Code) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code Code) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code Code) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Kind sets the taxonomy kind.
func (b *IssueBuilder) Kind(kind Kind) *IssueBuilder {
	b.issue.Kind = kind
	return b
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the expression path.
func (b *IssueBuilder) At(path string) *IssueBuilder {
	b.issue.Expression = []string{path}
	return b
}

// AtPaths sets multiple expression paths.
func (b *IssueBuilder) AtPaths(paths ...string) *IssueBuilder {
	b.issue.Expression = paths
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
