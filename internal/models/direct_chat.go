package models

import "time"

// DirectChat is a pairwise conversation scoped to one event. The participant
// pair is semantically unordered but stored canonically (UserLowID < UserHighID
// by string comparison) so the unique index covers both orderings.
type DirectChat struct {
	BaseModel

	EventID int64  `gorm:"not null;uniqueIndex:uniq_direct_chat;index" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`

	UserLowID string `gorm:"type:uuid;not null;uniqueIndex:uniq_direct_chat;index" json:"user_low_id"`
	UserLow   *User  `gorm:"foreignKey:UserLowID" json:"user_low,omitempty"`

	UserHighID string `gorm:"type:uuid;not null;uniqueIndex:uniq_direct_chat;index" json:"user_high_id"`
	UserHigh   *User  `gorm:"foreignKey:UserHighID" json:"user_high,omitempty"`

	Messages []DirectMessage   `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
	Leaves   []DirectChatLeave `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasParticipant reports whether the user is one of the two fixed participants.
func (c *DirectChat) HasParticipant(userID string) bool {
	return c != nil && (c.UserLowID == userID || c.UserHighID == userID)
}

// OtherParticipant returns the counterpart of the supplied participant.
func (c *DirectChat) OtherParticipant(userID string) string {
	if c == nil {
		return ""
	}
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// DirectMessage is one message inside a direct chat. Auto-increment keys keep
// chronological paging stable when timestamps collide.
type DirectMessage struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID string      `gorm:"type:uuid;not null;index:idx_direct_message_chat_created" json:"chat_id"`
	Chat   *DirectChat `gorm:"foreignKey:ChatID" json:"-"`

	SenderID string `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender   *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Content string `gorm:"size:500;not null" json:"content"`
	IsRead  bool   `gorm:"default:false;index" json:"is_read"`

	CreatedAt time.Time `gorm:"index:idx_direct_message_chat_created" json:"created_at"`
}

// MaxDirectMessageLength bounds a single direct message.
const MaxDirectMessageLength = 500

// DirectChatLeave marks a chat as hidden from one participant's list. The
// marker is removed automatically when the other participant writes again.
type DirectChatLeave struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID string      `gorm:"type:uuid;not null;uniqueIndex:uniq_direct_chat_leave" json:"chat_id"`
	Chat   *DirectChat `gorm:"foreignKey:ChatID" json:"-"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:uniq_direct_chat_leave;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	LeftAt time.Time `gorm:"autoCreateTime" json:"left_at"`
}
