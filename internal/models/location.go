package models

import "time"

// Location is a row in the location catalog. The events core treats location
// identifiers as inert foreign keys; the catalog is reference data maintained
// elsewhere and never interpreted beyond display.
type Location struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"not null;index" json:"title"`
	Artist    string    `gorm:"index" json:"artist"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
