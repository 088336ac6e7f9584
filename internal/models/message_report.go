package models

import (
	"time"

	"gorm.io/datatypes"
)

// MessageReport is a moderation intake row for a group chat message. Review
// transitions happen through the moderation surface; the core only stores the
// verdict, reviewer and timestamp.
type MessageReport struct {
	BaseModel

	MessageID int64             `gorm:"not null;uniqueIndex:uniq_message_report;index" json:"message_id"`
	Message   *EventChatMessage `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"message,omitempty"`

	ReporterID string `gorm:"type:uuid;not null;uniqueIndex:uniq_message_report" json:"reporter_id"`
	Reporter   *User  `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	Reason      ReportReason `gorm:"size:20;not null" json:"reason"`
	Description string       `gorm:"size:500" json:"description"`

	Status ReportStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	ReviewedByID *string        `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ReviewedBy   *User          `gorm:"foreignKey:ReviewedByID;constraint:OnDelete:SET NULL" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time     `json:"reviewed_at,omitempty"`
	ReviewNotes  datatypes.JSON `json:"review_notes,omitempty"`
}
