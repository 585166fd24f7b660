package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/models"
)

func TestBuildPayloadSkipsHiddenDependents(t *testing.T) {
	sc := mustSchema(t, models.ActivityPreventiveMaintenance)
	st := NewState(sc)

	var err error
	for field, value := range map[string]interface{}{
		"gp_code":    "GP104",
		"gp_name":    "Rampur",
		"visit_date": "2026-08-27",
	} {
		st, err = Reduce(sc, st, Action{Kind: ActionSetField, Field: field, Value: value})
		require.NoError(t, err)
	}
	st, err = Reduce(sc, st, Action{Kind: ActionSetGate, Field: "battery_checked", Value: true})
	require.NoError(t, err)
	st, err = Reduce(sc, st, Action{Kind: ActionSetField, Field: "battery_voltage", Value: 48.2})
	require.NoError(t, err)
	st, err = Reduce(sc, st, Action{Kind: ActionSetGate, Field: "battery_checked", Value: false})
	require.NoError(t, err)

	payload := BuildPayload(sc, st)

	assert.Equal(t, "GP104", payload["gp_code"])
	assert.Equal(t, false, payload["battery_checked"])
	assert.Equal(t, false, payload["cleaning_done"])

	_, hasVoltage := payload["battery_voltage"]
	assert.False(t, hasVoltage)
	_, hasBatteryPhotos := payload["battery_photos"]
	assert.False(t, hasBatteryPhotos)

	// Empty optional scalars never appear.
	_, hasRemarks := payload["remarks"]
	assert.False(t, hasRemarks)
}

func TestBuildPayloadIncludesActiveCollections(t *testing.T) {
	sc := mustSchema(t, models.ActivityCorrectiveMaintenance)
	st := NewState(sc)

	ev := models.CapturedEvidence{EvidenceID: "ev-1", ImageData: "ZGF0YQ=="}
	st, err := Reduce(sc, st, Action{Kind: ActionAppendEvidence, Field: "repair_photos", Evidence: &ev})
	require.NoError(t, err)
	st, err = Reduce(sc, st, Action{Kind: ActionAddRow, Field: "otdr_tests", Patch: Row{
		"fiber_number":       "12",
		"distance_km":        4.2,
		"cumulative_loss_db": 0.8,
	}})
	require.NoError(t, err)

	payload := BuildPayload(sc, st)

	photos, ok := payload["repair_photos"].([]models.CapturedEvidence)
	require.True(t, ok)
	require.Len(t, photos, 1)
	assert.Equal(t, "ev-1", photos[0].EvidenceID)

	rows, ok := payload["otdr_tests"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "12", rows[0]["fiber_number"])
}
