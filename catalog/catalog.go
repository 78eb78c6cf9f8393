// Package catalog provides an in-memory type catalog: type-name resolution,
// subtype compatibility via base-definition chains, and reference-type
// classification. It ships with the core R4 type table and can be extended
// from StructureDefinition resources.
package catalog

import (
	"sync"

	"github.com/gofhir/profileval/service"
)

// Type kinds, aligned with StructureDefinition.kind.
const (
	KindResource  = "resource"
	KindComplex   = "complex-type"
	KindPrimitive = "primitive-type"
	KindLogical   = "logical"
)

// entry describes one registered type.
type entry struct {
	kind string
	base string // parent type name, "" at the root of a hierarchy
}

// Catalog is an in-memory TypeCatalog implementation.
// It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]entry
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{types: make(map[string]entry)}
}

// NewR4 creates a Catalog preloaded with the core R4 type table.
func NewR4() *Catalog {
	c := New()
	c.loadCoreR4()
	return c
}

// Register adds or replaces a type. base is the parent type name, empty for
// hierarchy roots.
func (c *Catalog) Register(name, kind, base string) {
	if name == "" {
		return
	}
	c.mu.Lock()
	c.types[name] = entry{kind: kind, base: base}
	c.mu.Unlock()
}

// TypeNameToCode resolves a runtime type name to a catalog code.
func (c *Catalog) TypeNameToCode(name string) (service.TypeCode, bool) {
	c.mu.RLock()
	_, ok := c.types[name]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	return service.TypeCode(name), true
}

// IsSubtypeCompatible reports whether an instance of type instance may stand
// where candidate is declared: instance equals candidate or specializes it
// through its base chain. "Resource" and "Any" accept every resource type.
func (c *Catalog) IsSubtypeCompatible(candidate, instance service.TypeCode) bool {
	if candidate == instance {
		return true
	}
	if candidate == "Any" {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// Walk the instance's base chain up. Guard against accidental cycles
	// in registered base definitions.
	cur := string(instance)
	for depth := 0; depth < 64; depth++ {
		e, ok := c.types[cur]
		if !ok || e.base == "" {
			return false
		}
		if e.base == string(candidate) {
			return true
		}
		cur = e.base
	}
	return false
}

// IsReferenceCode reports whether a declared type code denotes a reference
// type. Reference and canonical are the R4 reference datatypes.
func (c *Catalog) IsReferenceCode(code string) bool {
	return code == "Reference" || code == "canonical"
}

// Kind returns the registered kind for a type name.
func (c *Catalog) Kind(name string) (string, bool) {
	c.mu.RLock()
	e, ok := c.types[name]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	return e.kind, true
}

// IsResourceType reports whether the name is a registered resource type.
func (c *Catalog) IsResourceType(name string) bool {
	kind, ok := c.Kind(name)
	return ok && kind == KindResource
}

// Count returns the number of registered types.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// loadCoreR4 registers the core R4 resource and datatype hierarchies.
// The table covers the base hierarchy plus the commonly referenced
// resources; additional types load via LoadStructureDefinition.
func (c *Catalog) loadCoreR4() {
	// Resource hierarchy roots
	c.Register("Resource", KindResource, "")
	c.Register("DomainResource", KindResource, "Resource")

	// Resources inheriting directly from Resource
	for _, name := range []string{"Bundle", "Binary", "Parameters"} {
		c.Register(name, KindResource, "Resource")
	}

	// DomainResources
	for _, name := range []string{
		"AllergyIntolerance", "CarePlan", "CareTeam", "Condition", "Device",
		"DiagnosticReport", "DocumentReference", "Encounter", "Endpoint",
		"Group", "Immunization", "Library", "Location", "Medication",
		"MedicationRequest", "MedicationStatement", "Observation",
		"Organization", "Patient", "Practitioner", "PractitionerRole",
		"Procedure", "Provenance", "Questionnaire", "QuestionnaireResponse",
		"RelatedPerson", "ServiceRequest", "Specimen", "StructureDefinition",
		"Substance", "ValueSet",
	} {
		c.Register(name, KindResource, "DomainResource")
	}

	// Datatype hierarchy
	c.Register("Element", KindComplex, "")
	c.Register("BackboneElement", KindComplex, "Element")
	for _, name := range []string{
		"Address", "Annotation", "Attachment", "CodeableConcept",
		"CodeableReference", "Coding", "ContactPoint", "Extension",
		"HumanName", "Identifier", "Meta", "Narrative", "Period",
		"Quantity", "Range", "Ratio", "Reference", "SampledData",
		"Signature", "Timing",
	} {
		c.Register(name, KindComplex, "Element")
	}

	// Quantity specializations
	for _, name := range []string{"Age", "Count", "Distance", "Duration", "MoneyQuantity", "SimpleQuantity"} {
		c.Register(name, KindComplex, "Quantity")
	}

	// Primitives
	for _, name := range []string{
		"base64Binary", "boolean", "canonical", "code", "date", "dateTime",
		"decimal", "id", "instant", "integer", "markdown", "oid",
		"positiveInt", "string", "time", "unsignedInt", "uri", "url",
		"uuid", "xhtml",
	} {
		c.Register(name, KindPrimitive, "")
	}
}

// Verify interface compliance.
var _ service.TypeCatalog = (*Catalog)(nil)
