package models

// EventMembership is the single source of truth for who belongs to an event
// and in what capacity. The (event,user) pair is unique at the storage layer;
// that constraint, not the application pre-check, is what wins races.
type EventMembership struct {
	BaseModel

	EventID int64  `gorm:"not null;uniqueIndex:uniq_event_user_membership;index:idx_membership_event_role" json:"event_id"`
	Event   *Event `gorm:"foreignKey:EventID" json:"-"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:uniq_event_user_membership;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Role MembershipRole `gorm:"size:20;not null;index:idx_membership_event_role" json:"role"`
}
