package models

// EventFavorite is an idempotent bookmark: presence of the row is the only
// state.
type EventFavorite struct {
	BaseModel

	EventID int64  `gorm:"not null;uniqueIndex:uniq_event_favorite;index" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:uniq_event_favorite;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`
}
