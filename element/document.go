package element

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a JSON-backed document tree. It indexes contained resources by
// fragment id and, for bundles, entries by fullUrl and by "Type/id", so that
// same-container reference resolution is an O(1) lookup.
type Document struct {
	data map[string]any

	// containedIndex maps "#id" to contained resources.
	containedIndex map[string]map[string]any

	// entryIndex maps fullUrl values and "Type/id" forms to bundle entry
	// resources.
	entryIndex map[string]map[string]any
}

// NewDocument creates a Document from pre-parsed JSON data.
func NewDocument(data map[string]any) *Document {
	d := &Document{
		data:           data,
		containedIndex: make(map[string]map[string]any),
		entryIndex:     make(map[string]map[string]any),
	}
	d.indexContained()
	d.indexEntries()
	return d
}

// ParseDocument creates a Document from raw JSON bytes.
func ParseDocument(raw []byte) (*Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid document JSON: %w", err)
	}
	return NewDocument(data), nil
}

// indexContained indexes contained resources by their fragment reference.
func (d *Document) indexContained() {
	contained, ok := d.data["contained"].([]any)
	if !ok {
		return
	}
	for _, c := range contained {
		res, ok := c.(map[string]any)
		if !ok {
			continue
		}
		id, _ := res["id"].(string)
		if id == "" {
			continue
		}
		d.containedIndex["#"+id] = res
	}
}

// indexEntries indexes bundle entries by fullUrl and by "Type/id".
// fullUrl SHOULD be present per the FHIR spec; the Type/id form covers
// relative references into the same bundle.
func (d *Document) indexEntries() {
	if rt, _ := d.data["resourceType"].(string); rt != "Bundle" {
		return
	}
	entries, ok := d.data["entry"].([]any)
	if !ok {
		return
	}
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		res, ok := entry["resource"].(map[string]any)
		if !ok {
			continue
		}
		if fullURL, _ := entry["fullUrl"].(string); fullURL != "" {
			d.entryIndex[fullURL] = res
		}
		rt, _ := res["resourceType"].(string)
		id, _ := res["id"].(string)
		if rt != "" && id != "" {
			key := rt + "/" + id
			if _, exists := d.entryIndex[key]; !exists {
				d.entryIndex[key] = res
			}
		}
	}
}

// Root returns the document's root node.
func (d *Document) Root() Node {
	rt, _ := d.data["resourceType"].(string)
	path := rt
	if path == "" {
		path = "(root)"
	}
	return &jsonNode{
		doc:      d,
		data:     d.data,
		typeName: rt,
		path:     path,
		identity: path,
	}
}

// Node wraps a position inside this document as a Node. typeName may be
// empty when the runtime type is not determinable; path is the diagnostic
// location.
func (d *Document) Node(data any, typeName, path string) Node {
	n := &jsonNode{
		doc:      d,
		typeName: typeName,
		path:     path,
		identity: path,
	}
	if m, ok := data.(map[string]any); ok {
		n.data = m
		if rt, _ := m["resourceType"].(string); rt != "" {
			n.typeName = rt
		}
	} else {
		n.scalar = data
	}
	return n
}

// resolve looks a reference up in the contained or entry index.
func (d *Document) resolve(ref string) (map[string]any, string, bool) {
	if strings.HasPrefix(ref, "#") {
		res, ok := d.containedIndex[ref]
		return res, ref, ok
	}
	res, ok := d.entryIndex[ref]
	return res, ref, ok
}

// jsonNode is a position in a JSON Document.
type jsonNode struct {
	doc      *Document
	data     map[string]any
	scalar   any
	typeName string
	path     string
	identity string
}

// TypeName returns the runtime type of the instance at this node.
func (n *jsonNode) TypeName() (string, bool) {
	if n.typeName == "" {
		return "", false
	}
	return n.typeName, true
}

// Reference returns the reference string if this node is a populated
// Reference element.
func (n *jsonNode) Reference() (string, bool) {
	if n.data == nil {
		return "", false
	}
	ref, _ := n.data["reference"].(string)
	if ref == "" {
		return "", false
	}
	return ref, true
}

// Path returns the diagnostic path of this node.
func (n *jsonNode) Path() string {
	return n.path
}

// Identity returns the node's document-scoped identity.
func (n *jsonNode) Identity() string {
	return n.identity
}

// ResolveWithinContainer resolves a reference against the document's
// contained and entry indexes.
func (n *jsonNode) ResolveWithinContainer(ref string) (Node, bool) {
	res, identity, ok := n.doc.resolve(ref)
	if !ok {
		return nil, false
	}
	rt, _ := res["resourceType"].(string)
	path := rt
	if path == "" {
		path = identity
	}
	return &jsonNode{
		doc:      n.doc,
		data:     res,
		typeName: rt,
		path:     path,
		identity: identity,
	}, true
}

// Data returns the parsed representation at this node.
func (n *jsonNode) Data() any {
	if n.data != nil {
		return n.data
	}
	return n.scalar
}
