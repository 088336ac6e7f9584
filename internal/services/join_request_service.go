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
	// ErrJoinRequestNotFound indicates the request id does not exist for the event.
	ErrJoinRequestNotFound = apperrors.New("JOIN_REQUEST_NOT_FOUND", "Join request not found", http.StatusNotFound)
	// ErrJoinRequestsClosed rejects requests on events that do not take them.
	ErrJoinRequestsClosed = apperrors.New("JOIN_REQUESTS_CLOSED", "This event does not accept join requests", http.StatusBadRequest)
)

// JoinRequestService manages the request-to-join workflow for INVITE events.
type JoinRequestService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewJoinRequestService constructs a JoinRequestService.
func NewJoinRequestService(db *gorm.DB, auditService *AuditService) (*JoinRequestService, error) {
	if db == nil {
		return nil, errors.New("join request service: db is required")
	}
	return &JoinRequestService{db: db, auditService: auditService}, nil
}

// Request records a visitor asking to join an INVITE event. Calling it again
// while a PENDING request exists returns that request unchanged. OPEN events
// take direct joins and PRIVATE events take invites only, so both reject.
func (s *JoinRequestService) Request(ctx context.Context, eventID int64, requesterID string) (*models.EventJoinRequest, error) {
	ctx = ensureContext(ctx)

	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, apperrors.NewBadRequest("requester id is required")
	}

	var request *models.EventJoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventByID(tx, eventID)
		if err != nil {
			return err
		}
		if event.Visibility != models.VisibilityInvite {
			return ErrJoinRequestsClosed
		}

		var membership models.EventMembership
		err = tx.Where("event_id = ? AND user_id = ?", eventID, requesterID).Take(&membership).Error
		switch {
		case err == nil:
			if membership.Role.Participates() {
				return ErrAlreadyMember
			}
			// An INVITED placeholder means an invite is already in flight.
			return ErrDuplicateInvite
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("join request service: check membership: %w", err)
		}

		var existing models.EventJoinRequest
		err = tx.Where("event_id = ? AND requester_id = ?", eventID, requesterID).Take(&existing).Error
		switch {
		case err == nil:
			if existing.Status == models.JoinRequestPending {
				request = &existing
				return nil
			}
			// A decided request may be re-opened.
			existing.Status = models.JoinRequestPending
			existing.DecidedAt = nil
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("join request service: reopen request: %w", err)
			}
			request = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("join request service: check request: %w", err)
		}

		row := models.EventJoinRequest{
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      models.JoinRequestPending,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewConflict("DUPLICATE_JOIN_REQUEST", "A join request already exists")
			}
			return fmt.Errorf("join request service: create request: %w", err)
		}
		request = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &requesterID,
		Action:   "join_request.create",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})
	return request, nil
}

// Approve moves a PENDING request to APPROVED and seats the requester as an
// ATTENDEE in one transaction. Only the host decides.
func (s *JoinRequestService) Approve(ctx context.Context, eventID int64, requestID, deciderID string) (*models.EventJoinRequest, error) {
	return s.decide(ctx, eventID, requestID, deciderID, models.JoinRequestApproved)
}

// Decline moves a PENDING request to DECLINED. Only the host decides.
func (s *JoinRequestService) Decline(ctx context.Context, eventID int64, requestID, deciderID string) (*models.EventJoinRequest, error) {
	return s.decide(ctx, eventID, requestID, deciderID, models.JoinRequestDeclined)
}

func (s *JoinRequestService) decide(ctx context.Context, eventID int64, requestID, deciderID string, verdict models.JoinRequestStatus) (*models.EventJoinRequest, error) {
	ctx = ensureContext(ctx)

	var request *models.EventJoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventByID(tx, eventID)
		if err != nil {
			return err
		}
		if event.HostID != deciderID {
			return ErrNotHost
		}

		var row models.EventJoinRequest
		err = tx.Where("id = ? AND event_id = ?", requestID, eventID).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJoinRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("join request service: load request: %w", err)
		}

		if !row.Status.CanTransitionTo(verdict) {
			return ErrStaleState
		}

		now := time.Now()
		row.Status = verdict
		row.DecidedAt = &now
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("join request service: decide request: %w", err)
		}

		if verdict == models.JoinRequestApproved {
			membership := models.EventMembership{
				EventID: eventID,
				UserID:  row.RequesterID,
				Role:    models.RoleAttendee,
			}
			if err := tx.Create(&membership).Error; err != nil && !isUniqueConstraintError(err) {
				return fmt.Errorf("join request service: seat requester: %w", err)
			}
		}

		request = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verdict == models.JoinRequestApproved {
		metrics.MembershipTransitions.WithLabelValues("approve").Inc()
	}
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &deciderID,
		Action:   "join_request." + strings.ToLower(string(verdict)),
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
		Metadata: map[string]any{"request_id": requestID},
	})
	return request, nil
}

// ListPending returns the host's queue of undecided requests, oldest first.
func (s *JoinRequestService) ListPending(ctx context.Context, eventID int64, viewerID string) ([]models.EventJoinRequest, error) {
	ctx = ensureContext(ctx)

	event, err := findEventByID(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}
	if event.HostID != viewerID {
		return nil, ErrNotHost
	}

	var requests []models.EventJoinRequest
	err = s.db.WithContext(ctx).
		Preload("Requester").
		Where("event_id = ? AND status = ?", eventID, models.JoinRequestPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("join request service: list pending: %w", err)
	}
	return requests, nil
}
