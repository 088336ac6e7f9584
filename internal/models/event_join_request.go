package models

import "time"

// EventJoinRequest captures a visitor asking to join an INVITE event.
type EventJoinRequest struct {
	BaseModel

	EventID int64  `gorm:"not null;uniqueIndex:uniq_event_join_request;index:idx_join_request_event_status" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	RequesterID string `gorm:"type:uuid;not null;uniqueIndex:uniq_event_join_request;index" json:"requester_id"`
	Requester   *User  `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`

	Status    JoinRequestStatus `gorm:"size:20;not null;default:'PENDING';index:idx_join_request_event_status" json:"status"`
	DecidedAt *time.Time        `json:"decided_at,omitempty"`
}
