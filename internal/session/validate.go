package session

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldworks/worktrack-api/internal/schema"
)

// rules is the shared tag evaluator for schema rule strings.
var rules = validator.New()

// RowErrors maps column name to message for one list row.
type RowErrors map[string]string

// Report is the aggregate validation result. All field errors are
// collected in one pass so the client can render a single report
// instead of surfacing failures one at a time.
type Report struct {
	Fields map[string][]string    `json:"fields,omitempty"`
	Rows   map[string][]RowErrors `json:"rows,omitempty"`
}

// Valid returns true when no field or row carries an error.
func (r Report) Valid() bool {
	if len(r.Fields) > 0 {
		return false
	}
	for _, rows := range r.Rows {
		for _, row := range rows {
			if len(row) > 0 {
				return false
			}
		}
	}
	return true
}

func (r *Report) addField(field, msg string) {
	if r.Fields == nil {
		r.Fields = map[string][]string{}
	}
	r.Fields[field] = append(r.Fields[field], msg)
}

// Validate evaluates the whole state against the schema. Fields whose
// governing gate is false are skipped entirely, which is what clears
// their errors when a gate flips off.
func Validate(s *schema.FormSchema, st State) Report {
	report := Report{}

	for _, f := range s.Fields {
		if f.Kind == schema.KindGate {
			continue
		}
		if !fieldActive(s, st, f) {
			continue
		}
		required := fieldRequired(s, st, f)

		switch f.Kind {
		case schema.KindScalar:
			value := st.Scalars[f.Name]
			if isEmpty(value) {
				if required {
					report.addField(f.Name, fmt.Sprintf("%s is required", f.Label))
				}
				continue
			}
			for _, msg := range checkRule(value, f.Rule, f.Label) {
				report.addField(f.Name, msg)
			}

		case schema.KindEvidence:
			if required && len(st.Evidence[f.Name]) == 0 {
				report.addField(f.Name, fmt.Sprintf("%s requires at least one photo", f.Label))
			}

		case schema.KindList:
			rows := st.Rows[f.Name]
			if required {
				floor := f.MinRows
				if floor <= 0 {
					floor = 1
				}
				if len(rows) < floor {
					report.addField(f.Name, fmt.Sprintf("%s requires at least %d row(s)", f.Label, floor))
				}
			}
			rowErrs := validateRows(f, rows)
			if rowErrs != nil {
				if report.Rows == nil {
					report.Rows = map[string][]RowErrors{}
				}
				report.Rows[f.Name] = rowErrs
			}
		}
	}

	return report
}

// validateRows checks every row independently and returns an
// index-aligned slice, or nil when every row is clean.
func validateRows(f schema.FieldSpec, rows []Row) []RowErrors {
	any := false
	result := make([]RowErrors, len(rows))
	for i, row := range rows {
		errs := RowErrors{}
		for _, col := range f.Columns {
			if col.Rule == "" {
				continue
			}
			value := row[col.Name]
			msgs := checkRule(value, col.Rule, col.Label)
			if len(msgs) > 0 {
				errs[col.Name] = msgs[0]
			}
		}
		if len(errs) > 0 {
			any = true
		}
		result[i] = errs
	}
	if !any {
		return nil
	}
	return result
}

// checkRule evaluates one validator tag string against a value.
// Values arrive from JSON with loose types; a rule applied to an
// incompatible type is reported as an error rather than allowed to
// panic out of the reducer.
func checkRule(value interface{}, rule, label string) (msgs []string) {
	if rule == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			msgs = []string{fmt.Sprintf("%s has an invalid value", label)}
		}
	}()
	if err := rules.Var(value, rule); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %s validation", label, ruleName(fe.Tag(), fe.Param())))
			}
			return msgs
		}
		return []string{fmt.Sprintf("%s is invalid", label)}
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = verrs
	return true
}

func ruleName(tag, param string) string {
	if param == "" {
		return tag
	}
	return strings.Join([]string{tag, param}, "=")
}
