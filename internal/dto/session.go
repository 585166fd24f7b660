package dto

import (
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/session"
)

// OpenSessionRequest starts a form session for one activity.
type OpenSessionRequest struct {
	Activity models.ActivityType `json:"activity" binding:"required"`
}

// SessionActionRequest is one reducer action against a session.
type SessionActionRequest struct {
	Kind  session.ActionKind     `json:"kind" binding:"required"`
	Field string                 `json:"field" binding:"required"`
	Value interface{}            `json:"value,omitempty"`
	Index *int                   `json:"index,omitempty"`
	Patch map[string]interface{} `json:"patch,omitempty"`
}

// CaptureEvidenceRequest accompanies a multipart frame upload.
type CaptureEvidenceRequest struct {
	Field     string   `form:"field" binding:"required"`
	DeviceKey string   `form:"deviceKey"`
	Facing    string   `form:"facing"`
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
}

// SubmitResponse confirms a stored record.
type SubmitResponse struct {
	RecordID    string `json:"recordId"`
	SubmittedAt string `json:"submittedAt"`
	Status      string `json:"status"`
}

// SubmitFailureResponse carries the full validation report when a
// submission is rejected.
type SubmitFailureResponse struct {
	Report session.Report `json:"report"`
}
