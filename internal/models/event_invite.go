package models

import "time"

// EventInvite tracks the invitation lifecycle for a single invitee. The
// issuer is nullable so removing the inviting user does not invalidate the
// invite.
type EventInvite struct {
	BaseModel

	EventID int64  `gorm:"not null;uniqueIndex:uniq_event_invitee;index" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	InviteeID string `gorm:"type:uuid;not null;uniqueIndex:uniq_event_invitee;index:idx_invite_invitee_status" json:"invitee_id"`
	Invitee   *User  `gorm:"foreignKey:InviteeID" json:"invitee,omitempty"`

	InvitedByID *string `gorm:"type:uuid" json:"invited_by_id,omitempty"`
	InvitedBy   *User   `gorm:"foreignKey:InvitedByID;constraint:OnDelete:SET NULL" json:"invited_by,omitempty"`

	Status      InviteStatus `gorm:"size:20;not null;default:'PENDING';index:idx_invite_invitee_status" json:"status"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
}
