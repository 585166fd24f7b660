package dto

import "time"

// RecordListRequest captures admin listing query parameters.
type RecordListRequest struct {
	ActivityType string     `form:"activityType"`
	Status       string     `form:"status"`
	SubmittedBy  string     `form:"submittedBy"`
	GPCode       string     `form:"gpCode"`
	DateFrom     *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo       *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Page         int        `form:"page"`
	PageSize     int        `form:"pageSize"`
}
