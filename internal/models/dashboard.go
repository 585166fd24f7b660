package models

import "time"

// ActivityCount aggregates submissions per activity type.
type ActivityCount struct {
	ActivityType ActivityType `db:"activity_type" json:"activity_type"`
	Count        int          `db:"count" json:"count"`
}

// StatusCount aggregates submissions per lifecycle status.
type StatusCount struct {
	Status RecordStatus `db:"status" json:"status"`
	Count  int          `db:"count" json:"count"`
}

// DailyCount is one point of the recent-submissions series.
type DailyCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int       `db:"count" json:"count"`
}

// DashboardSummary is the admin landing aggregation.
type DashboardSummary struct {
	TotalRecords int             `json:"total_records"`
	ByActivity   []ActivityCount `json:"by_activity"`
	ByStatus     []StatusCount   `json:"by_status"`
	RecentDaily  []DailyCount    `json:"recent_daily"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
