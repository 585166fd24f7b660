package models

import "time"

// Site is one tracked GP location from the reference dataset.
type Site struct {
	ID        string    `db:"id" json:"id"`
	GPCode    string    `db:"gp_code" json:"gp_code"`
	Name      string    `db:"name" json:"name"`
	Block     string    `db:"block" json:"block"`
	District  string    `db:"district" json:"district"`
	RingName  *string   `db:"ring_name" json:"ring_name,omitempty"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SiteFilter performs exact code or substring lookup.
type SiteFilter struct {
	Query string
	Limit int
}
