package models

import "time"

// EventChatMessage is one entry in an event's bounded group chat. The
// auto-increment key is the authoritative tie-break when the retention trim
// evicts messages sharing a creation timestamp.
type EventChatMessage struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID int64  `gorm:"not null;index:idx_chat_event_created" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`

	AuthorID string `gorm:"type:uuid;not null;index" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Body string `gorm:"size:300;not null" json:"body"`

	CreatedAt time.Time `gorm:"index:idx_chat_event_created" json:"created_at"`
}

// MaxGroupChatMessages is the retention cap per event: inserting beyond it
// evicts the oldest rows within the same transaction.
const MaxGroupChatMessages = 20

// MaxGroupChatBodyLength bounds a single group chat message.
const MaxGroupChatBodyLength = 300
