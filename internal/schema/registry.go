package schema

import (
	"fmt"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// otdrColumns is the OTDR test row shape shared by the fiber forms.
var otdrColumns = []ColumnSpec{
	{Name: "fiber_number", Label: "Fiber No.", Rule: "required,min=1"},
	{Name: "distance_km", Label: "Distance (km)", Rule: "required,min=0"},
	{Name: "cumulative_loss_db", Label: "Cumulative Loss (dB)", Rule: "required"},
}

var registry = map[models.ActivityType]*FormSchema{}

func register(s *FormSchema) {
	if err := s.index(); err != nil {
		panic(fmt.Sprintf("invalid form schema: %v", err))
	}
	registry[s.Activity] = s
}

// ForActivity returns the schema registered for the activity type.
func ForActivity(activity models.ActivityType) (*FormSchema, bool) {
	s, ok := registry[activity]
	return s, ok
}

func init() {
	register(&FormSchema{
		Activity: models.ActivityPreventiveMaintenance,
		Title:    "Preventive Maintenance Visit",
		Fields: []FieldSpec{
			{Name: "gp_code", Label: "GP Code", Kind: KindScalar, Required: true, Rule: "required,alphanum"},
			{Name: "gp_name", Label: "GP Name", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "visit_date", Label: "Visit Date", Kind: KindScalar, Required: true, Rule: "required,datetime=2006-01-02"},
			{Name: "remarks", Label: "Remarks", Kind: KindScalar},
			{Name: "battery_checked", Label: "Battery Bank Checked", Kind: KindGate, Dependents: []string{"battery_voltage", "battery_photos"}},
			{Name: "battery_voltage", Label: "Battery Voltage (V)", Kind: KindScalar, Rule: "min=0,max=60"},
			{Name: "battery_photos", Label: "Battery Photos", Kind: KindEvidence},
			{Name: "cleaning_done", Label: "Site Cleaning Done", Kind: KindGate, Dependents: []string{"cleaning_photos"}},
			{Name: "cleaning_photos", Label: "Cleaning Photos", Kind: KindEvidence},
		},
	})

	register(&FormSchema{
		Activity: models.ActivityCorrectiveMaintenance,
		Title:    "Corrective Maintenance",
		Fields: []FieldSpec{
			{Name: "tt_number", Label: "TT Number", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "gp_code", Label: "GP Code", Kind: KindScalar, Required: true, Rule: "required,alphanum"},
			{Name: "fault_description", Label: "Fault Description", Kind: KindScalar, Required: true, Rule: "required,min=10"},
			{Name: "otdr_tests", Label: "OTDR Tests", Kind: KindList, Columns: otdrColumns},
			{Name: "repair_photos", Label: "Repair Photos", Kind: KindEvidence, Required: true},
			{Name: "equipment_replaced", Label: "Equipment Replaced", Kind: KindGate, Dependents: []string{"old_serial", "new_serial"}},
			{Name: "old_serial", Label: "Old Serial No.", Kind: KindScalar, Rule: "required"},
			{Name: "new_serial", Label: "New Serial No.", Kind: KindScalar, Rule: "required"},
		},
	})

	register(&FormSchema{
		Activity: models.ActivityFiberCutRestoration,
		Title:    "Fiber Cut Restoration",
		Fields: []FieldSpec{
			{Name: "route_name", Label: "Route Name", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "cut_location_photos", Label: "Cut Location Photos", Kind: KindEvidence, Required: true},
			{Name: "otdr_tests", Label: "OTDR Tests", Kind: KindList, Required: true, MinRows: 1, Columns: otdrColumns},
			{Name: "splice_count", Label: "Splice Count", Kind: KindScalar, Required: true, Rule: "required,min=1"},
			{Name: "restored_at", Label: "Restoration Time", Kind: KindScalar, Required: true, Rule: "required"},
		},
	})

	register(&FormSchema{
		Activity: models.ActivityEquipmentReplacement,
		Title:    "Equipment Replacement",
		Fields: []FieldSpec{
			{Name: "gp_code", Label: "GP Code", Kind: KindScalar, Required: true, Rule: "required,alphanum"},
			{Name: "equipment_type", Label: "Equipment Type", Kind: KindScalar, Required: true, Rule: "required,oneof=OLT ONT UPS BATTERY SOLAR"},
			{Name: "old_serial", Label: "Old Serial No.", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "new_serial", Label: "New Serial No.", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "replacement_photos", Label: "Replacement Photos", Kind: KindEvidence, Required: true},
			{Name: "faulty_unit_returned", Label: "Faulty Unit Returned", Kind: KindGate, Dependents: []string{"return_reference"}},
			{Name: "return_reference", Label: "Return Reference", Kind: KindScalar, Rule: "required"},
		},
	})

	register(&FormSchema{
		Activity: models.ActivitySiteInspection,
		Title:    "Site Inspection",
		Fields: []FieldSpec{
			{Name: "gp_code", Label: "GP Code", Kind: KindScalar, Required: true, Rule: "required,alphanum"},
			{Name: "earthing_ok", Label: "Earthing Condition OK", Kind: KindScalar, Required: true, Rule: "required,boolean"},
			{Name: "tower_condition", Label: "Tower Condition", Kind: KindScalar, Required: true, Rule: "required,oneof=GOOD FAIR POOR"},
			{Name: "shelter_condition", Label: "Shelter Condition", Kind: KindScalar, Required: true, Rule: "required,oneof=GOOD FAIR POOR"},
			{Name: "generator_present", Label: "Generator Present", Kind: KindGate, Dependents: []string{"generator_hours", "generator_photos"}},
			{Name: "generator_hours", Label: "Generator Run Hours", Kind: KindScalar, Rule: "required,min=0"},
			{Name: "generator_photos", Label: "Generator Photos", Kind: KindEvidence},
		},
	})

	register(&FormSchema{
		Activity: models.ActivityPatrolling,
		Title:    "Route Patrolling",
		Fields: []FieldSpec{
			{Name: "route_name", Label: "Route Name", Kind: KindScalar, Required: true, Rule: "required"},
			{Name: "patrol_date", Label: "Patrol Date", Kind: KindScalar, Required: true, Rule: "required,datetime=2006-01-02"},
			{Name: "distance_km", Label: "Distance Covered (km)", Kind: KindScalar, Required: true, Rule: "required,min=0"},
			{Name: "damage_found", Label: "Damage Found", Kind: KindGate, Dependents: []string{"damage_description", "damage_photos", "affected_gps"}},
			{Name: "damage_description", Label: "Damage Description", Kind: KindScalar, Rule: "required,min=10"},
			{Name: "damage_photos", Label: "Damage Photos", Kind: KindEvidence},
			{Name: "affected_gps", Label: "Affected GPs", Kind: KindList, MinRows: 1, Columns: []ColumnSpec{
				{Name: "gp_code", Label: "GP Code", Rule: "required,alphanum"},
				{Name: "observation", Label: "Observation", Rule: "required"},
			}},
		},
	})
}
