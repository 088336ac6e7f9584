package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/models"
	apperrors "github.com/gatherly/gatherly/pkg/errors"
	"github.com/gatherly/gatherly/pkg/metrics"
)

var (
	// ErrAlreadyMember indicates the target user already participates in the event.
	ErrAlreadyMember = apperrors.New("ALREADY_MEMBER", "User already belongs to this event", http.StatusConflict)
	// ErrDuplicateInvite indicates a pending invite already exists for the invitee.
	ErrDuplicateInvite = apperrors.New("DUPLICATE_INVITE", "User already has a pending invite", http.StatusConflict)
	// ErrInviteNotFound indicates no invite exists for the (event, user) pair.
	ErrInviteNotFound = apperrors.New("INVITE_NOT_FOUND", "Invite not found", http.StatusNotFound)
	// ErrStaleState signals a lifecycle record changed between read and write.
	ErrStaleState = apperrors.New("STALE_STATE", "The record was already decided", http.StatusConflict)
	// ErrDuplicateMembership indicates a concurrent join already created the membership.
	ErrDuplicateMembership = apperrors.New("DUPLICATE_MEMBERSHIP", "User already belongs to this event", http.StatusConflict)
	// ErrHostCannotLeave protects against events losing their host.
	ErrHostCannotLeave = apperrors.New("HOST_CANNOT_LEAVE", "The host cannot leave their own event", http.StatusForbidden)
	// ErrMembershipNotFound indicates the user holds no participating membership.
	ErrMembershipNotFound = apperrors.New("MEMBERSHIP_NOT_FOUND", "No membership for this event", http.StatusNotFound)
	// ErrEventNotJoinable rejects direct joins on events that require an invite.
	ErrEventNotJoinable = apperrors.New("EVENT_NOT_JOINABLE", "Event cannot be joined directly", http.StatusForbidden)
)

// MembershipService owns the membership ledger and the invitation workflow.
type MembershipService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewMembershipService constructs a MembershipService.
func NewMembershipService(db *gorm.DB, auditService *AuditService) (*MembershipService, error) {
	if db == nil {
		return nil, errors.New("membership service: db is required")
	}
	return &MembershipService{db: db, auditService: auditService}, nil
}

// CreateHostMembership records the host's own membership. It is called once
// when the event is created.
func (s *MembershipService) CreateHostMembership(ctx context.Context, eventID int64, hostID string) (*models.EventMembership, error) {
	ctx = ensureContext(ctx)

	var membership *models.EventMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		membership, err = createHostMembershipTx(tx, eventID, hostID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func createHostMembershipTx(tx *gorm.DB, eventID int64, hostID string) (*models.EventMembership, error) {
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, apperrors.NewBadRequest("host id is required")
	}

	membership := &models.EventMembership{
		EventID: eventID,
		UserID:  hostID,
		Role:    models.RoleHost,
	}
	if err := tx.Create(membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateMembership
		}
		return nil, fmt.Errorf("membership service: create host membership: %w", err)
	}
	return membership, nil
}

// Invite creates a PENDING invite plus an INVITED membership row for the
// invitee. Only the host may issue invites. A declined or expired invite may
// be re-issued; an accepted invite or participating membership blocks the
// call.
func (s *MembershipService) Invite(ctx context.Context, eventID int64, inviteeID, invitedByID string) (*models.EventInvite, error) {
	ctx = ensureContext(ctx)

	var invite *models.EventInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventByID(tx, eventID)
		if err != nil {
			return err
		}
		if strings.TrimSpace(invitedByID) != event.HostID {
			return ErrNotHost
		}
		invite, err = inviteTx(tx, event, inviteeID, invitedByID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.MembershipTransitions.WithLabelValues("invite").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &invitedByID,
		Action:   "invite.create",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
		Metadata: map[string]any{"invitee_id": inviteeID},
	})
	return invite, nil
}

func inviteTx(tx *gorm.DB, event *models.Event, inviteeID, invitedByID string) (*models.EventInvite, error) {
	inviteeID = strings.TrimSpace(inviteeID)
	if inviteeID == "" {
		return nil, apperrors.NewBadRequest("invitee id is required")
	}
	if inviteeID == event.HostID {
		return nil, ErrAlreadyMember
	}

	var existingMembership models.EventMembership
	err := tx.Where("event_id = ? AND user_id = ?", event.ID, inviteeID).
		Take(&existingMembership).Error
	switch {
	case err == nil:
		if existingMembership.Role.Participates() {
			return nil, ErrAlreadyMember
		}
		return nil, ErrDuplicateInvite
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("membership service: check membership: %w", err)
	}

	var invitedBy *string
	if trimmed := strings.TrimSpace(invitedByID); trimmed != "" {
		invitedBy = &trimmed
	}

	var existingInvite models.EventInvite
	err = tx.Where("event_id = ? AND invitee_id = ?", event.ID, inviteeID).
		Take(&existingInvite).Error
	switch {
	case err == nil:
		switch existingInvite.Status {
		case models.InvitePending:
			return nil, ErrDuplicateInvite
		case models.InviteAccepted:
			return nil, ErrAlreadyMember
		}
		// Declined or expired invites are re-issued in place.
		existingInvite.Status = models.InvitePending
		existingInvite.RespondedAt = nil
		existingInvite.InvitedByID = invitedBy
		if err := tx.Save(&existingInvite).Error; err != nil {
			return nil, fmt.Errorf("membership service: reissue invite: %w", err)
		}
		if err := createInvitedMembershipTx(tx, event.ID, inviteeID); err != nil {
			return nil, err
		}
		return &existingInvite, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("membership service: check invite: %w", err)
	}

	invite := &models.EventInvite{
		EventID:     event.ID,
		InviteeID:   inviteeID,
		InvitedByID: invitedBy,
		Status:      models.InvitePending,
	}
	if err := tx.Create(invite).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("membership service: create invite: %w", err)
	}
	if err := createInvitedMembershipTx(tx, event.ID, inviteeID); err != nil {
		return nil, err
	}
	return invite, nil
}

func createInvitedMembershipTx(tx *gorm.DB, eventID int64, userID string) error {
	membership := models.EventMembership{
		EventID: eventID,
		UserID:  userID,
		Role:    models.RoleInvited,
	}
	if err := tx.Create(&membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateInvite
		}
		return fmt.Errorf("membership service: create invited membership: %w", err)
	}
	return nil
}

// AcceptInvite promotes a PENDING invite to ACCEPTED and the invitee's
// membership from INVITED to ATTENDEE in one transaction.
func (s *MembershipService) AcceptInvite(ctx context.Context, eventID int64, userID string) (*models.EventMembership, error) {
	ctx = ensureContext(ctx)

	var membership *models.EventMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEventByID(tx, eventID); err != nil {
			return err
		}

		invite, err := findInviteTx(tx, eventID, userID)
		if err != nil {
			return err
		}
		if !invite.Status.CanTransitionTo(models.InviteAccepted) {
			return ErrStaleState
		}

		now := time.Now()
		invite.Status = models.InviteAccepted
		invite.RespondedAt = &now
		if err := tx.Save(invite).Error; err != nil {
			return fmt.Errorf("membership service: accept invite: %w", err)
		}

		var row models.EventMembership
		err = tx.Where("event_id = ? AND user_id = ?", eventID, userID).Take(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.EventMembership{EventID: eventID, UserID: userID, Role: models.RoleAttendee}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("membership service: create attendee membership: %w", err)
			}
		case err != nil:
			return fmt.Errorf("membership service: load membership: %w", err)
		default:
			row.Role = models.RoleAttendee
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("membership service: promote membership: %w", err)
			}
		}
		membership = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MembershipTransitions.WithLabelValues("accept").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "invite.accept",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})
	return membership, nil
}

// DeclineInvite marks a PENDING invite DECLINED and removes the INVITED
// membership placeholder.
func (s *MembershipService) DeclineInvite(ctx context.Context, eventID int64, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEventByID(tx, eventID); err != nil {
			return err
		}

		invite, err := findInviteTx(tx, eventID, userID)
		if err != nil {
			return err
		}
		if !invite.Status.CanTransitionTo(models.InviteDeclined) {
			return ErrStaleState
		}

		now := time.Now()
		invite.Status = models.InviteDeclined
		invite.RespondedAt = &now
		if err := tx.Save(invite).Error; err != nil {
			return fmt.Errorf("membership service: decline invite: %w", err)
		}

		return tx.Where("event_id = ? AND user_id = ? AND role = ?", eventID, userID, models.RoleInvited).
			Delete(&models.EventMembership{}).Error
	})
	if err != nil {
		return err
	}

	metrics.MembershipTransitions.WithLabelValues("decline").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "invite.decline",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})
	return nil
}

// ExpireInvites sweeps PENDING invites issued before the cutoff into EXPIRED
// and removes their INVITED membership placeholders. It returns the number of
// invites expired.
func (s *MembershipService) ExpireInvites(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	var expired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []models.EventInvite
		if err := tx.Where("status = ? AND created_at < ?", models.InvitePending, cutoff).
			Find(&stale).Error; err != nil {
			return fmt.Errorf("membership service: load stale invites: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]string, 0, len(stale))
		for _, invite := range stale {
			ids = append(ids, invite.ID)
		}
		if err := tx.Model(&models.EventInvite{}).
			Where("id IN ?", ids).
			Update("status", models.InviteExpired).Error; err != nil {
			return fmt.Errorf("membership service: expire invites: %w", err)
		}

		for _, invite := range stale {
			if err := tx.Where("event_id = ? AND user_id = ? AND role = ?",
				invite.EventID, invite.InviteeID, models.RoleInvited).
				Delete(&models.EventMembership{}).Error; err != nil {
				return fmt.Errorf("membership service: remove invited membership: %w", err)
			}
		}

		expired = int64(len(stale))
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		metrics.MembershipTransitions.WithLabelValues("expire").Add(float64(expired))
	}
	return expired, nil
}

// JoinOpenEvent adds the user as an ATTENDEE of an OPEN event. The unique
// membership constraint decides races, not the pre-check.
func (s *MembershipService) JoinOpenEvent(ctx context.Context, eventID int64, userID string) (*models.EventMembership, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var membership *models.EventMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventByID(tx, eventID)
		if err != nil {
			return err
		}
		if event.Visibility != models.VisibilityOpen {
			return ErrEventNotJoinable
		}

		row := models.EventMembership{EventID: eventID, UserID: userID, Role: models.RoleAttendee}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicateMembership
			}
			return fmt.Errorf("membership service: join event: %w", err)
		}
		membership = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MembershipTransitions.WithLabelValues("join").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "event.join",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})
	return membership, nil
}

// LeaveEvent removes an attendee's membership. Hosts cannot leave; invited
// users respond to their invite instead.
func (s *MembershipService) LeaveEvent(ctx context.Context, eventID int64, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEventByID(tx, eventID); err != nil {
			return err
		}

		var membership models.EventMembership
		err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Take(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		if err != nil {
			return fmt.Errorf("membership service: load membership: %w", err)
		}

		switch membership.Role {
		case models.RoleHost:
			return ErrHostCannotLeave
		case models.RoleInvited:
			return ErrMembershipNotFound
		}

		return tx.Delete(&membership).Error
	})
	if err != nil {
		return err
	}

	metrics.MembershipTransitions.WithLabelValues("leave").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "event.leave",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})
	return nil
}

// RoleInEvent reports the user's membership role, or nil when no row exists.
func (s *MembershipService) RoleInEvent(ctx context.Context, eventID int64, userID string) (*models.MembershipRole, error) {
	ctx = ensureContext(ctx)

	var membership models.EventMembership
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Take(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("membership service: load role: %w", err)
	}
	role := membership.Role
	return &role, nil
}

// ListAttendees returns the participating members in join order, host first.
func (s *MembershipService) ListAttendees(ctx context.Context, eventID int64) ([]models.EventMembership, error) {
	ctx = ensureContext(ctx)

	var rows []models.EventMembership
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ? AND role IN ?", eventID, []models.MembershipRole{models.RoleHost, models.RoleAttendee}).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list attendees: %w", err)
	}
	return rows, nil
}

// ListInvitationsForUser returns the user's PENDING invites across live events.
func (s *MembershipService) ListInvitationsForUser(ctx context.Context, userID string) ([]models.EventInvite, error) {
	ctx = ensureContext(ctx)

	var invites []models.EventInvite
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("InvitedBy").
		Joins("JOIN events ON events.id = event_invites.event_id AND events.is_deleted = ?", false).
		Where("event_invites.invitee_id = ? AND event_invites.status = ?", userID, models.InvitePending).
		Order("event_invites.created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list invitations: %w", err)
	}
	return invites, nil
}

func findInviteTx(tx *gorm.DB, eventID int64, userID string) (*models.EventInvite, error) {
	var invite models.EventInvite
	err := tx.Where("event_id = ? AND invitee_id = ?", eventID, userID).Take(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("membership service: load invite: %w", err)
	}
	return &invite, nil
}
