// Package asset is the reflected object model the dependency tracker crawls.
// An Element is a dynamically-typed object with typed fields; Host performs
// the double dispatch that drives a Visitor over those fields. The tracker
// consumes this package as a black box: it never inspects concrete asset
// types beyond the type name and the per-field flags.
package asset

import "assetdb/internal/domain"

// FieldFlag marks how a field participates in dependency discovery.
type FieldFlag uint32

const (
	// FlagDiscard excludes the field from crawling entirely.
	FlagDiscard FieldFlag = 1 << iota
	// FlagFileRef marks a field holding a single managed-file reference.
	FlagFileRef
	// FlagFileRefCollection marks a field holding a set of references.
	FlagFileRefCollection
)

// Field is one typed member of an Element. Exactly one of the value slots is
// meaningful, chosen by the flags and by which slot is populated.
type Field struct {
	Name  string
	Flags FieldFlag

	ID       domain.TUID   // FlagFileRef
	IDs      []domain.TUID // FlagFileRefCollection
	Elements []*Element    // nested sub-objects, crawled structurally
	Value    string        // scalar, opaque to the crawler
	Values   []string      // scalar list, opaque to the crawler
}

// Element is a dynamically-typed object in an asset's graph.
type Element struct {
	Type   string
	Fields []*Field
}

// Visitor receives one callback per element and per field. VisitElement
// returning false means the element was filtered or fully handled;
// VisitField returning false stops the default processing of that field.
type Visitor interface {
	VisitElement(e *Element) bool
	VisitField(e *Element, f *Field) bool
}

// Host enumerates the element's fields through the visitor. Recursion into
// nested elements and file references is the visitor's job, which is what
// keeps cycle detection in one place.
func (e *Element) Host(v Visitor) {
	for _, f := range e.Fields {
		v.VisitField(e, f)
	}
}

// Field looks up a field by name, nil if absent.
func (e *Element) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// NewElement starts an element of the given type name.
func NewElement(typeName string) *Element {
	return &Element{Type: typeName}
}

// AddFileRef appends a single-reference field.
func (e *Element) AddFileRef(name string, id domain.TUID) *Element {
	e.Fields = append(e.Fields, &Field{Name: name, Flags: FlagFileRef, ID: id})
	return e
}

// AddFileRefs appends a reference-collection field.
func (e *Element) AddFileRefs(name string, ids ...domain.TUID) *Element {
	e.Fields = append(e.Fields, &Field{Name: name, Flags: FlagFileRefCollection, IDs: ids})
	return e
}

// AddChild appends a nested sub-object under the named field, creating the
// field on first use.
func (e *Element) AddChild(name string, child *Element) *Element {
	if f := e.Field(name); f != nil {
		f.Elements = append(f.Elements, child)
		return e
	}
	e.Fields = append(e.Fields, &Field{Name: name, Elements: []*Element{child}})
	return e
}

// AddValue appends an opaque scalar field.
func (e *Element) AddValue(name, value string) *Element {
	e.Fields = append(e.Fields, &Field{Name: name, Value: value})
	return e
}

// AddValues appends an opaque scalar-list field.
func (e *Element) AddValues(name string, values ...string) *Element {
	e.Fields = append(e.Fields, &Field{Name: name, Values: values})
	return e
}

// AddDiscard appends a field the crawler must skip.
func (e *Element) AddDiscard(name, value string) *Element {
	e.Fields = append(e.Fields, &Field{Name: name, Flags: FlagDiscard, Value: value})
	return e
}
