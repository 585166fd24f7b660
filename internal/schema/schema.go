package schema

import (
	"fmt"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// FieldKind enumerates the four field shapes the form engine knows.
type FieldKind string

const (
	// KindScalar is a single value validated by a rule tag.
	KindScalar FieldKind = "scalar"
	// KindEvidence is an ordered collection of captured photos.
	KindEvidence FieldKind = "evidence"
	// KindList is a dynamically sized list of homogeneous rows.
	KindList FieldKind = "list"
	// KindGate is a boolean toggle revealing dependent fields.
	KindGate FieldKind = "gate"
)

// ColumnSpec describes one column of a list row. Rule is a
// go-playground/validator tag string evaluated per value.
type ColumnSpec struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Rule  string `json:"rule,omitempty"`
}

// FieldSpec describes one form field.
type FieldSpec struct {
	Name       string       `json:"name"`
	Label      string       `json:"label"`
	Kind       FieldKind    `json:"kind"`
	Required   bool         `json:"required"`
	Rule       string       `json:"rule,omitempty"`
	MinRows    int          `json:"min_rows,omitempty"`
	Columns    []ColumnSpec `json:"columns,omitempty"`
	Dependents []string     `json:"dependents,omitempty"`
}

// FormSchema is the declarative description of one activity form.
type FormSchema struct {
	Activity models.ActivityType `json:"activity"`
	Title    string              `json:"title"`
	Fields   []FieldSpec         `json:"fields"`

	byName map[string]int
	gateOf map[string]string
}

// Field returns the spec for a field name.
func (s *FormSchema) Field(name string) (FieldSpec, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[idx], true
}

// GateOf returns the name of the gate governing a field, if any.
func (s *FormSchema) GateOf(name string) (string, bool) {
	gate, ok := s.gateOf[name]
	return gate, ok
}

// Column returns the column spec of a list field.
func (s *FormSchema) Column(field FieldSpec, name string) (ColumnSpec, bool) {
	for _, col := range field.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSpec{}, false
}

// index builds lookup tables and checks internal consistency. Every
// dependent must name an existing non-gate field, and a field may be
// governed by at most one gate.
func (s *FormSchema) index() error {
	s.byName = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if _, dup := s.byName[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", s.Activity, f.Name)
		}
		s.byName[f.Name] = i
	}
	s.gateOf = make(map[string]string)
	for _, f := range s.Fields {
		if f.Kind != KindGate {
			continue
		}
		for _, dep := range f.Dependents {
			idx, ok := s.byName[dep]
			if !ok {
				return fmt.Errorf("schema %s: gate %q references unknown field %q", s.Activity, f.Name, dep)
			}
			if s.Fields[idx].Kind == KindGate {
				return fmt.Errorf("schema %s: gate %q cannot depend on gate %q", s.Activity, f.Name, dep)
			}
			if prev, taken := s.gateOf[dep]; taken {
				return fmt.Errorf("schema %s: field %q governed by both %q and %q", s.Activity, dep, prev, f.Name)
			}
			s.gateOf[dep] = f.Name
		}
	}
	return nil
}
