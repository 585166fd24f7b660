package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType discriminates which of the form schemas produced a record.
type ActivityType string

const (
	ActivityPreventiveMaintenance ActivityType = "preventive_maintenance"
	ActivityCorrectiveMaintenance ActivityType = "corrective_maintenance"
	ActivityFiberCutRestoration   ActivityType = "fiber_cut_restoration"
	ActivityEquipmentReplacement  ActivityType = "equipment_replacement"
	ActivitySiteInspection        ActivityType = "site_inspection"
	ActivityPatrolling            ActivityType = "patrolling"
)

// ActivityTypes lists every registered activity in a stable order.
var ActivityTypes = []ActivityType{
	ActivityPreventiveMaintenance,
	ActivityCorrectiveMaintenance,
	ActivityFiberCutRestoration,
	ActivityEquipmentReplacement,
	ActivitySiteInspection,
	ActivityPatrolling,
}

// Valid returns true when the activity type is registered.
func (a ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if a == known {
			return true
		}
	}
	return false
}

// RecordStatus is the lifecycle tag of a persisted record.
// This service only ever writes RecordStatusPending; later transitions
// belong to the admin review workflow.
type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "pending"
	RecordStatusApproved RecordStatus = "approved"
	RecordStatusRejected RecordStatus = "rejected"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CapturedEvidence is one timestamped, optionally geotagged photo.
// ImageData holds the JPEG bytes base64-inline; evidence is
// self-contained and immutable once created.
type CapturedEvidence struct {
	EvidenceID string    `json:"evidence_id"`
	CapturedAt time.Time `json:"captured_at"`
	Location   *GeoPoint `json:"location,omitempty"`
	ImageData  string    `json:"image_data"`
}

// RecordPayload is the composed field-name to value mapping persisted
// as JSONB. Values are scalars, []CapturedEvidence, or row slices.
type RecordPayload map[string]interface{}

// Value marshals the payload for persistence.
func (p RecordPayload) Value() (driver.Value, error) {
	if p == nil {
		p = RecordPayload{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal record payload: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads.
func (p *RecordPayload) Scan(value interface{}) error {
	if value == nil {
		*p = RecordPayload{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RecordPayload", value)
	}
	if len(data) == 0 {
		*p = RecordPayload{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal record payload: %w", err)
	}
	return nil
}

// MaintenanceRecord is one persisted submission. SubmittedAt is
// assigned by the database clock at insert time, never by the client.
type MaintenanceRecord struct {
	ID           string        `db:"id" json:"id"`
	ActivityType ActivityType  `db:"activity_type" json:"activity_type"`
	Payload      RecordPayload `db:"payload" json:"payload"`
	SubmittedBy  string        `db:"submitted_by" json:"submitted_by"`
	SubmittedAt  time.Time     `db:"submitted_at" json:"submitted_at"`
	Status       RecordStatus  `db:"status" json:"status"`
}

// RecordSummaryRow is the flattened admin-table row joined with the
// submitter's name.
type RecordSummaryRow struct {
	MaintenanceRecord
	SubmitterName string `db:"submitter_name" json:"submitter_name"`
}

// RecordFilter scopes admin listing queries.
type RecordFilter struct {
	ActivityType *ActivityType
	Status       *RecordStatus
	SubmittedBy  string
	GPCode       string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}
