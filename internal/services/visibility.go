package services

import "github.com/gatherly/gatherly/internal/models"

// Capabilities describes what a viewer may do with an event given its
// visibility and the viewer's membership role.
type Capabilities struct {
	CanView         bool
	CanJoinDirectly bool
	CanRequestJoin  bool
}

// VisibilityCapabilities evaluates the access table for one viewer. A nil role
// means the viewer holds no membership row for the event.
func VisibilityCapabilities(visibility models.EventVisibility, role *models.MembershipRole) Capabilities {
	isMember := role != nil && role.Participates()
	isInvited := role != nil && *role == models.RoleInvited

	caps := Capabilities{}

	switch visibility {
	case models.VisibilityOpen:
		caps.CanView = true
		caps.CanJoinDirectly = !isMember && !isInvited
	case models.VisibilityInvite:
		caps.CanView = true
		caps.CanRequestJoin = !isMember && !isInvited
	case models.VisibilityPrivate:
		caps.CanView = isMember || isInvited
	}

	// Participants always see their own event regardless of visibility.
	if isMember {
		caps.CanView = true
		caps.CanJoinDirectly = false
		caps.CanRequestJoin = false
	}

	return caps
}
