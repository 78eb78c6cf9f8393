package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofhir/fhir/r4"
)

// LoadStructureDefinition registers the type a StructureDefinition defines.
// Constraint-derivation profiles do not introduce new types and are skipped,
// matching how the registry treats them when indexing by type.
func (c *Catalog) LoadStructureDefinition(sd *r4.StructureDefinition) error {
	if sd == nil {
		return fmt.Errorf("nil StructureDefinition")
	}

	name := derefString(sd.Type)
	if name == "" {
		name = derefString(sd.Name)
	}
	if name == "" {
		return fmt.Errorf("StructureDefinition has no type")
	}

	kind := ""
	if sd.Kind != nil {
		kind = string(*sd.Kind)
	}

	base := typeNameFromCanonical(derefString(sd.BaseDefinition))
	c.Register(name, kind, base)
	return nil
}

// LoadJSON loads StructureDefinition resources from raw JSON: either a
// single StructureDefinition or a Bundle of them. Returns the number of
// types registered.
func (c *Catalog) LoadJSON(data []byte) (int, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("invalid JSON: %w", err)
	}

	switch probe.ResourceType {
	case "StructureDefinition":
		var sd r4.StructureDefinition
		if err := json.Unmarshal(data, &sd); err != nil {
			return 0, fmt.Errorf("invalid StructureDefinition: %w", err)
		}
		if err := c.LoadStructureDefinition(&sd); err != nil {
			return 0, err
		}
		return 1, nil

	case "Bundle":
		var bundle struct {
			Entry []struct {
				Resource json.RawMessage `json:"resource"`
			} `json:"entry"`
		}
		if err := json.Unmarshal(data, &bundle); err != nil {
			return 0, fmt.Errorf("invalid Bundle: %w", err)
		}

		loaded := 0
		for _, entry := range bundle.Entry {
			if len(entry.Resource) == 0 {
				continue
			}
			var entryProbe struct {
				ResourceType string `json:"resourceType"`
			}
			if err := json.Unmarshal(entry.Resource, &entryProbe); err != nil {
				continue
			}
			if entryProbe.ResourceType != "StructureDefinition" {
				continue
			}
			var sd r4.StructureDefinition
			if err := json.Unmarshal(entry.Resource, &sd); err != nil {
				continue
			}
			if err := c.LoadStructureDefinition(&sd); err != nil {
				continue
			}
			loaded++
		}
		return loaded, nil

	default:
		return 0, fmt.Errorf("unsupported resourceType %q", probe.ResourceType)
	}
}

// typeNameFromCanonical extracts the type name from a canonical base URL,
// e.g. "http://hl7.org/fhir/StructureDefinition/DomainResource".
func typeNameFromCanonical(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		return url[idx+1:]
	}
	return url
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
