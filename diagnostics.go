package profileval

import (
	"fmt"
	"strings"
)

// DiagnosticTemplate defines the severity, FHIR issue code and message
// template for a taxonomy Kind.
type DiagnosticTemplate struct {
	Kind     Kind
	Severity Severity
	Code     Code
	Template string
}

// diagnosticTemplates maps each Kind to its template.
// Templates use {placeholder} syntax for variable substitution.
var diagnosticTemplates = map[Kind]DiagnosticTemplate{
	// Type choice
	KindEmptyTypeCode: {
		Severity: SeverityWarning,
		Code:     CodeStructure,
		Template: "Element declares a type with an empty type code",
	},
	KindCannotDetermineType: {
		Severity: SeverityError,
		Code:     CodeIncomplete,
		Template: "Element is a choice of types, but the type of the instance cannot be determined",
	},
	KindInvalidInstanceTypeName: {
		Severity: SeverityError,
		Code:     CodeInvalid,
		Template: "Instance type '{type}' is not a known type",
	},
	KindTypeNotAllowedChoice: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Instance type '{type}' is not one of the allowed choice types ({allowed})",
	},

	// Reference
	KindUnparseableReference: {
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Cannot parse reference '{reference}'",
	},
	KindContainedReferenceNotResolvable: {
		Severity: SeverityError,
		Code:     CodeNotFound,
		Template: "Contained reference '{reference}' is not resolvable within the resource",
	},
	KindReferenceOfInvalidKind: {
		Severity: SeverityWarning,
		Code:     CodeBusinessRule,
		Template: "Reference '{reference}' was resolved as '{kind}', which is not one of the allowed aggregation modes ({allowed})",
	},
	KindCircularReference: {
		Severity: SeverityError,
		Code:     CodeProcessing,
		Template: "Detected a circular reference while validating '{reference}'",
	},
	KindUnavailableResource: {
		Severity: SeverityError,
		Code:     CodeNotFound,
		Template: "Referenced resource '{reference}' could not be retrieved: {error}",
	},
}

// FormatDiagnostic formats the message for a Kind with the given parameters.
func FormatDiagnostic(kind Kind, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[kind]
	if !ok {
		return string(kind)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a Kind.
func GetDiagnosticTemplate(kind Kind) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[kind]
	if ok {
		tmpl.Kind = kind
	}
	return tmpl, ok
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}

// IssueForKind builds an Issue from a Kind's template.
// Unknown kinds fall back to a processing error carrying the kind name.
func IssueForKind(kind Kind, params map[string]any, expression ...string) Issue {
	tmpl, ok := diagnosticTemplates[kind]
	if !ok {
		return Issue{
			Severity:    SeverityError,
			Code:        CodeProcessing,
			Kind:        kind,
			Diagnostics: string(kind),
			Expression:  expression,
		}
	}
	return Issue{
		Severity:    tmpl.Severity,
		Code:        tmpl.Code,
		Kind:        kind,
		Diagnostics: formatTemplate(tmpl.Template, params),
		Expression:  expression,
	}
}
