package session

import (
	"fmt"

	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/schema"
)

// Reducer errors. These are state-transition rejections, not panics;
// the handler layer maps them onto the API error taxonomy.
var (
	ErrUnknownField    = fmt.Errorf("unknown field")
	ErrWrongFieldKind  = fmt.Errorf("operation does not match field kind")
	ErrIndexOutOfRange = fmt.Errorf("index out of range")
	ErrRowFloor        = fmt.Errorf("cannot remove the last row of a required list")
)

// Row is one repeatable sub-record, keyed by column name.
type Row map[string]interface{}

// State is the complete form state for one session. It is treated as
// immutable: Reduce returns a fresh State sharing no mutable maps with
// its input.
type State struct {
	Scalars  map[string]interface{}
	Gates    map[string]bool
	Rows     map[string][]Row
	Evidence map[string][]models.CapturedEvidence

	// Report is the validation report recomputed after every action,
	// so hidden-field errors disappear the moment their gate flips
	// false and aggregate validity is always current.
	Report Report
}

// NewState returns the initial empty state for a schema: all gates
// false, no values, no evidence, no rows.
func NewState(s *schema.FormSchema) State {
	st := State{
		Scalars:  map[string]interface{}{},
		Gates:    map[string]bool{},
		Rows:     map[string][]Row{},
		Evidence: map[string][]models.CapturedEvidence{},
	}
	for _, f := range s.Fields {
		if f.Kind == schema.KindGate {
			st.Gates[f.Name] = false
		}
	}
	st.Report = Validate(s, st)
	return st
}

// ActionKind enumerates reducer actions.
type ActionKind string

const (
	ActionSetField       ActionKind = "set_field"
	ActionSetGate        ActionKind = "set_gate"
	ActionAddRow         ActionKind = "add_row"
	ActionUpdateRow      ActionKind = "update_row"
	ActionRemoveRow      ActionKind = "remove_row"
	ActionAppendEvidence ActionKind = "append_evidence"
	ActionRemoveEvidence ActionKind = "remove_evidence"
)

// Action is one state transition request.
type Action struct {
	Kind     ActionKind
	Field    string
	Value    interface{}
	Index    int
	Patch    Row
	Evidence *models.CapturedEvidence
}

// Reduce applies one action and returns the next state. The input
// state is never mutated; on error it is returned unchanged. The
// returned state always carries a freshly computed validation report,
// so a mutation and its validity effect are observed together.
func Reduce(s *schema.FormSchema, st State, a Action) (State, error) {
	field, ok := s.Field(a.Field)
	if !ok {
		return st, fmt.Errorf("%w: %s", ErrUnknownField, a.Field)
	}

	next := st.clone()
	var err error
	switch a.Kind {
	case ActionSetField:
		err = next.setField(field, a.Value)
	case ActionSetGate:
		err = next.setGate(field, a.Value)
	case ActionAddRow:
		err = next.addRow(field, a.Patch)
	case ActionUpdateRow:
		err = next.updateRow(field, a.Index, a.Patch)
	case ActionRemoveRow:
		err = next.removeRow(s, field, a.Index)
	case ActionAppendEvidence:
		err = next.appendEvidence(field, a.Evidence)
	case ActionRemoveEvidence:
		err = next.removeEvidence(field, a.Index)
	default:
		err = fmt.Errorf("unknown action kind %q", a.Kind)
	}
	if err != nil {
		return st, err
	}

	next.Report = Validate(s, next)
	return next, nil
}

func (st *State) setField(f schema.FieldSpec, value interface{}) error {
	if f.Kind != schema.KindScalar {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	st.Scalars[f.Name] = value
	return nil
}

func (st *State) setGate(f schema.FieldSpec, value interface{}) error {
	if f.Kind != schema.KindGate {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	on, ok := value.(bool)
	if !ok {
		return fmt.Errorf("gate %s requires a boolean value", f.Name)
	}
	// Dependent values are deliberately retained when the gate flips
	// false; they are excluded from validation and from the submission
	// payload while hidden.
	st.Gates[f.Name] = on
	return nil
}

func (st *State) addRow(f schema.FieldSpec, defaults Row) error {
	if f.Kind != schema.KindList {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	row := Row{}
	for _, col := range f.Columns {
		row[col.Name] = nil
	}
	for k, v := range defaults {
		row[k] = v
	}
	st.Rows[f.Name] = append(st.Rows[f.Name], row)
	return nil
}

func (st *State) updateRow(f schema.FieldSpec, index int, patch Row) error {
	if f.Kind != schema.KindList {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	rows := st.Rows[f.Name]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, f.Name, index)
	}
	updated := Row{}
	for k, v := range rows[index] {
		updated[k] = v
	}
	for k, v := range patch {
		updated[k] = v
	}
	rows = append(append([]Row{}, rows[:index]...), append([]Row{updated}, rows[index+1:]...)...)
	st.Rows[f.Name] = rows
	return nil
}

func (st *State) removeRow(s *schema.FormSchema, f schema.FieldSpec, index int) error {
	if f.Kind != schema.KindList {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	rows := st.Rows[f.Name]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, f.Name, index)
	}
	floor := 0
	if fieldRequired(s, *st, f) {
		floor = f.MinRows
		if floor <= 0 {
			floor = 1
		}
	}
	if len(rows)-1 < floor {
		return fmt.Errorf("%w: %s", ErrRowFloor, f.Name)
	}
	st.Rows[f.Name] = append(append([]Row{}, rows[:index]...), rows[index+1:]...)
	return nil
}

func (st *State) appendEvidence(f schema.FieldSpec, ev *models.CapturedEvidence) error {
	if f.Kind != schema.KindEvidence {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	if ev == nil {
		return fmt.Errorf("evidence required for append on %s", f.Name)
	}
	item := *ev
	existing := st.Evidence[f.Name]
	// capturedAt is non-decreasing within one collection; clamp a
	// stale clock reading up to the previous item's timestamp.
	if n := len(existing); n > 0 && item.CapturedAt.Before(existing[n-1].CapturedAt) {
		item.CapturedAt = existing[n-1].CapturedAt
	}
	st.Evidence[f.Name] = append(existing, item)
	return nil
}

func (st *State) removeEvidence(f schema.FieldSpec, index int) error {
	if f.Kind != schema.KindEvidence {
		return fmt.Errorf("%w: %s is %s", ErrWrongFieldKind, f.Name, f.Kind)
	}
	items := st.Evidence[f.Name]
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, f.Name, index)
	}
	st.Evidence[f.Name] = append(append([]models.CapturedEvidence{}, items[:index]...), items[index+1:]...)
	return nil
}

// clone copies the state's maps; slice values are replaced wholesale
// by the mutators above, so a shallow slice copy is sufficient.
func (st State) clone() State {
	next := State{
		Scalars:  make(map[string]interface{}, len(st.Scalars)),
		Gates:    make(map[string]bool, len(st.Gates)),
		Rows:     make(map[string][]Row, len(st.Rows)),
		Evidence: make(map[string][]models.CapturedEvidence, len(st.Evidence)),
	}
	for k, v := range st.Scalars {
		next.Scalars[k] = v
	}
	for k, v := range st.Gates {
		next.Gates[k] = v
	}
	for k, v := range st.Rows {
		next.Rows[k] = v
	}
	for k, v := range st.Evidence {
		next.Evidence[k] = v
	}
	return next
}

// fieldActive reports whether a field participates in validation and
// payload construction: true unless a governing gate is false.
func fieldActive(s *schema.FormSchema, st State, f schema.FieldSpec) bool {
	gate, governed := s.GateOf(f.Name)
	if !governed {
		return true
	}
	return st.Gates[gate]
}

// fieldRequired reports effective required-ness: a gated dependent is
// required exactly when its gate is true; an ungated field keeps its
// schema flag.
func fieldRequired(s *schema.FormSchema, st State, f schema.FieldSpec) bool {
	gate, governed := s.GateOf(f.Name)
	if governed {
		return st.Gates[gate]
	}
	return f.Required
}
