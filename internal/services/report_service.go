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
)

var (
	// ErrMessageNotFound indicates the reported message no longer exists.
	ErrMessageNotFound = apperrors.New("MESSAGE_NOT_FOUND", "Message not found", http.StatusNotFound)
	// ErrDuplicateReport blocks a second report of the same message by one user.
	ErrDuplicateReport = apperrors.New("DUPLICATE_REPORT", "You have already reported this message", http.StatusConflict)
	// ErrReportNotFound indicates the report id does not exist.
	ErrReportNotFound = apperrors.New("REPORT_NOT_FOUND", "Report not found", http.StatusNotFound)
	// ErrNotModerator guards the report queue and verdict surfaces.
	ErrNotModerator = apperrors.New("NOT_MODERATOR", "Moderator access required", http.StatusForbidden)
)

// MaxReportDescriptionLength bounds the free-form reporter note.
const MaxReportDescriptionLength = 500

// ReportService is the moderation intake queue for group chat messages.
type ReportService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB, auditService *AuditService) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("report service: db is required")
	}
	return &ReportService{db: db, auditService: auditService}, nil
}

// Report files a PENDING report against a retained chat message. The
// (message, reporter) pair is unique.
func (s *ReportService) Report(ctx context.Context, messageID int64, reporterID string, reason models.ReportReason, description string) (*models.MessageReport, error) {
	ctx = ensureContext(ctx)

	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return nil, apperrors.NewBadRequest("reporter id is required")
	}
	if !reason.Valid() {
		return nil, apperrors.NewBadRequest("reason must be one of SPAM, HARASSMENT, HATE_SPEECH, OTHER")
	}
	description = strings.TrimSpace(description)
	if len([]rune(description)) > MaxReportDescriptionLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("description must be at most %d characters", MaxReportDescriptionLength))
	}

	var message models.EventChatMessage
	err := s.db.WithContext(ctx).Take(&message, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report service: load message: %w", err)
	}

	report := &models.MessageReport{
		MessageID:   messageID,
		ReporterID:  reporterID,
		Reason:      reason,
		Description: description,
		Status:      models.ReportPending,
	}
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateReport
		}
		return nil, fmt.Errorf("report service: create report: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &reporterID,
		Action:   "report.create",
		Resource: fmt.Sprintf("message:%d", messageID),
		Result:   "success",
		Metadata: map[string]any{"reason": reason},
	})
	return report, nil
}

// Review records a moderation verdict. Only moderators may decide. The state
// machine admits PENDING→REVIEWING→RESOLVED|DISMISSED, with a direct
// PENDING→terminal move for one-step moderation.
func (s *ReportService) Review(ctx context.Context, reportID, reviewerID string, verdict models.ReportStatus) (*models.MessageReport, error) {
	ctx = ensureContext(ctx)

	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, apperrors.NewBadRequest("reviewer id is required")
	}

	var report *models.MessageReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireModeratorTx(tx, reviewerID); err != nil {
			return err
		}

		var row models.MessageReport
		err := tx.Take(&row, "id = ?", reportID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		if err != nil {
			return fmt.Errorf("report service: load report: %w", err)
		}

		if !row.Status.CanTransitionTo(verdict) {
			return ErrStaleState
		}

		now := time.Now()
		row.Status = verdict
		row.ReviewedByID = &reviewerID
		row.ReviewedAt = &now
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("report service: save verdict: %w", err)
		}

		report = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &reviewerID,
		Action:   "report.review",
		Resource: "report:" + reportID,
		Result:   strings.ToLower(string(verdict)),
	})
	return report, nil
}

// ListPending returns undecided reports oldest first for the moderation
// queue. Only moderators may read it.
func (s *ReportService) ListPending(ctx context.Context, viewerID string, limit int) ([]models.MessageReport, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if err := requireModeratorTx(s.db.WithContext(ctx), viewerID); err != nil {
		return nil, err
	}

	var reports []models.MessageReport
	err := s.db.WithContext(ctx).
		Preload("Message").
		Preload("Reporter").
		Where("status = ?", models.ReportPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("report service: list pending: %w", err)
	}
	return reports, nil
}

// requireModeratorTx enforces the moderator flag on report queue surfaces.
func requireModeratorTx(tx *gorm.DB, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNotModerator
	}

	var user models.User
	err := tx.Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotModerator
	}
	if err != nil {
		return fmt.Errorf("report service: check moderator: %w", err)
	}
	if !user.IsActive || !user.IsModerator {
		return ErrNotModerator
	}
	return nil
}
