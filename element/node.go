// Package element models positions in a parsed document tree for profile
// validation. The engine only sees the Node interface; the JSON-backed
// Document implementation in this package covers resources parsed from
// FHIR JSON, including contained resources and bundle entries.
package element

// Node is an opaque handle to a position in a document tree.
//
// Implementations must be cheap to create; the engine holds on to nodes only
// for the duration of one validation call.
type Node interface {
	// TypeName returns the instance's runtime type name. The second return
	// is false when the type cannot be determined (for example a choice
	// element whose concrete type the parser could not recover).
	TypeName() (string, bool)

	// Reference returns the reference string when this node denotes a
	// reference, and false otherwise. Identifier-only (logical) and
	// display-only references carry no reference string.
	Reference() (string, bool)

	// Path returns the location path used in diagnostics.
	Path() string

	// Identity returns an identity for this node that is stable within its
	// document, used to key per-document validation records.
	Identity() string

	// ResolveWithinContainer resolves a reference string to another node
	// within the same logical container: fragment references against the
	// document's contained resources, other forms against the surrounding
	// bundle. Returns false when the target is not found there.
	ResolveWithinContainer(ref string) (Node, bool)

	// Data returns the underlying parsed representation, for collaborators
	// that need the raw form (the structural validator).
	Data() any
}
