package models

import "time"

// Event is a scheduled real-world meetup. Rows use an auto-increment key so
// share codes can be derived from the numeric id; the slug is the public
// identifier. Deletion is a tombstone: rows are retained for audit and every
// query in the core filters on is_deleted.
type Event struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug string `gorm:"uniqueIndex;size:100;not null" json:"slug"`

	Title  string `gorm:"size:80;not null" json:"title"`
	HostID string `gorm:"type:uuid;not null;index" json:"host_id"`
	Host   *User  `gorm:"foreignKey:HostID" json:"host,omitempty"`

	Visibility  EventVisibility `gorm:"size:20;not null;index;default:'OPEN'" json:"visibility"`
	StartTime   time.Time       `gorm:"not null;index" json:"start_time"`
	Description string          `gorm:"type:text" json:"description"`

	StartLocationID int64     `gorm:"not null" json:"start_location_id"`
	StartLocation   *Location `gorm:"foreignKey:StartLocationID" json:"start_location,omitempty"`

	IsDeleted bool `gorm:"default:false;index" json:"-"`

	Locations   []EventStop       `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"locations,omitempty"`
	Memberships []EventMembership `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventStop is an ordered itinerary stop beyond the event's starting location.
type EventStop struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID int64 `gorm:"not null;uniqueIndex:uniq_event_stop_order;uniqueIndex:uniq_event_stop_location" json:"event_id"`

	LocationID int64     `gorm:"not null;uniqueIndex:uniq_event_stop_location" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`

	Position int    `gorm:"not null;uniqueIndex:uniq_event_stop_order" json:"position"`
	Note     string `gorm:"size:100" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}
