package models

// EventVisibility controls who can discover and join an event.
type EventVisibility string

const (
	// VisibilityOpen events are publicly listed and joinable by any authenticated user.
	VisibilityOpen EventVisibility = "OPEN"
	// VisibilityInvite events are publicly listed but joinable only through an
	// accepted invite or an approved join request.
	VisibilityInvite EventVisibility = "INVITE"
	// VisibilityPrivate events are hidden from everyone without an invite or membership.
	VisibilityPrivate EventVisibility = "PRIVATE"
)

// Valid reports whether the visibility is one of the closed set of values.
func (v EventVisibility) Valid() bool {
	switch v {
	case VisibilityOpen, VisibilityInvite, VisibilityPrivate:
		return true
	}
	return false
}

// MembershipRole describes a user's standing within an event.
type MembershipRole string

const (
	RoleHost     MembershipRole = "HOST"
	RoleAttendee MembershipRole = "ATTENDEE"
	RoleInvited  MembershipRole = "INVITED"
)

// Participates reports whether the role grants access to member-only surfaces
// such as the group chat. INVITED users are visible as pending attendees but
// do not participate until they accept.
func (r MembershipRole) Participates() bool {
	return r == RoleHost || r == RoleAttendee
}

// InviteStatus tracks the invitation lifecycle.
type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteDeclined InviteStatus = "DECLINED"
	InviteExpired  InviteStatus = "EXPIRED"
)

// CanTransitionTo enforces the invite state machine: only PENDING invites move,
// and they move exactly once.
func (s InviteStatus) CanTransitionTo(next InviteStatus) bool {
	if s != InvitePending {
		return false
	}
	switch next {
	case InviteAccepted, InviteDeclined, InviteExpired:
		return true
	}
	return false
}

// JoinRequestStatus tracks the request-to-join lifecycle for INVITE events.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestDeclined JoinRequestStatus = "DECLINED"
)

// CanTransitionTo mirrors the invite rule: decisions apply to PENDING requests only.
func (s JoinRequestStatus) CanTransitionTo(next JoinRequestStatus) bool {
	if s != JoinRequestPending {
		return false
	}
	return next == JoinRequestApproved || next == JoinRequestDeclined
}

// ReportReason categorises chat message reports.
type ReportReason string

const (
	ReportReasonSpam       ReportReason = "SPAM"
	ReportReasonHarassment ReportReason = "HARASSMENT"
	ReportReasonHateSpeech ReportReason = "HATE_SPEECH"
	ReportReasonOther      ReportReason = "OTHER"
)

// Valid reports whether the reason is a known category.
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonHateSpeech, ReportReasonOther:
		return true
	}
	return false
}

// ReportStatus tracks the moderation review lifecycle.
type ReportStatus string

const (
	ReportPending   ReportStatus = "PENDING"
	ReportReviewing ReportStatus = "REVIEWING"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

// CanTransitionTo allows PENDING→REVIEWING and either of those into a terminal
// RESOLVED/DISMISSED verdict.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportPending:
		return next == ReportReviewing || next == ReportResolved || next == ReportDismissed
	case ReportReviewing:
		return next == ReportResolved || next == ReportDismissed
	}
	return false
}
