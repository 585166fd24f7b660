package session

import (
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/schema"
)

// BuildPayload assembles the field-name to value mapping persisted on
// submission. A field whose governing gate is false never appears in
// the payload, even when it still holds a value from an earlier
// gate-true period. Gate values themselves are always included.
func BuildPayload(s *schema.FormSchema, st State) models.RecordPayload {
	payload := models.RecordPayload{}

	for _, f := range s.Fields {
		if f.Kind == schema.KindGate {
			payload[f.Name] = st.Gates[f.Name]
			continue
		}
		if !fieldActive(s, st, f) {
			continue
		}

		switch f.Kind {
		case schema.KindScalar:
			if value, ok := st.Scalars[f.Name]; ok && !isEmpty(value) {
				payload[f.Name] = value
			}
		case schema.KindEvidence:
			items := st.Evidence[f.Name]
			out := make([]models.CapturedEvidence, len(items))
			copy(out, items)
			payload[f.Name] = out
		case schema.KindList:
			rows := st.Rows[f.Name]
			out := make([]map[string]interface{}, len(rows))
			for i, row := range rows {
				entry := make(map[string]interface{}, len(row))
				for k, v := range row {
					entry[k] = v
				}
				out[i] = entry
			}
			payload[f.Name] = out
		}
	}

	return payload
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
