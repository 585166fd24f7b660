package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/models"
)

func TestRegistryCoversEveryActivity(t *testing.T) {
	for _, activity := range models.ActivityTypes {
		sc, ok := ForActivity(activity)
		require.True(t, ok, "missing schema for %s", activity)
		assert.Equal(t, activity, sc.Activity)
		assert.NotEmpty(t, sc.Title)
		assert.NotEmpty(t, sc.Fields)
	}

	_, ok := ForActivity(models.ActivityType("bogus"))
	assert.False(t, ok)
}

func TestRegistryGateWiring(t *testing.T) {
	sc, ok := ForActivity(models.ActivityPreventiveMaintenance)
	require.True(t, ok)

	gate, governed := sc.GateOf("battery_voltage")
	require.True(t, governed)
	assert.Equal(t, "battery_checked", gate)

	gate, governed = sc.GateOf("cleaning_photos")
	require.True(t, governed)
	assert.Equal(t, "cleaning_done", gate)

	_, governed = sc.GateOf("gp_code")
	assert.False(t, governed)
}

func TestIndexRejectsDuplicateFields(t *testing.T) {
	sc := &FormSchema{
		Activity: models.ActivityPatrolling,
		Fields: []FieldSpec{
			{Name: "route_name", Kind: KindScalar},
			{Name: "route_name", Kind: KindScalar},
		},
	}
	assert.Error(t, sc.index())
}

func TestIndexRejectsUnknownDependent(t *testing.T) {
	sc := &FormSchema{
		Activity: models.ActivityPatrolling,
		Fields: []FieldSpec{
			{Name: "damage_found", Kind: KindGate, Dependents: []string{"missing_field"}},
		},
	}
	assert.Error(t, sc.index())
}

func TestIndexRejectsGateOnGate(t *testing.T) {
	sc := &FormSchema{
		Activity: models.ActivityPatrolling,
		Fields: []FieldSpec{
			{Name: "outer", Kind: KindGate, Dependents: []string{"inner"}},
			{Name: "inner", Kind: KindGate},
		},
	}
	assert.Error(t, sc.index())
}

func TestIndexRejectsDoubleGoverned(t *testing.T) {
	sc := &FormSchema{
		Activity: models.ActivityPatrolling,
		Fields: []FieldSpec{
			{Name: "a", Kind: KindGate, Dependents: []string{"shared"}},
			{Name: "b", Kind: KindGate, Dependents: []string{"shared"}},
			{Name: "shared", Kind: KindScalar},
		},
	}
	assert.Error(t, sc.index())
}
