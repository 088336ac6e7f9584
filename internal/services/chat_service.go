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

// ErrNotAMember rejects chat access from anyone without a participating role.
var ErrNotAMember = apperrors.New("NOT_A_MEMBER", "You are not a member of this event", http.StatusForbidden)

// ChatMessageView is the wire shape for one group chat row.
type ChatMessageView struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	IsHost    bool   `json:"is_host"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// ChatService owns the bounded per-event group chat log.
type ChatService struct {
	db *gorm.DB
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB) (*ChatService, error) {
	if db == nil {
		return nil, errors.New("chat service: db is required")
	}
	return &ChatService{db: db}, nil
}

// Post appends a message and trims the log back to the retention cap inside
// one transaction. Eviction orders by (created_at, id) so rows sharing a
// timestamp leave in insertion order.
func (s *ChatService) Post(ctx context.Context, eventID int64, authorID, body string) (*models.EventChatMessage, error) {
	ctx = ensureContext(ctx)

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewBadRequest("message body is required")
	}
	if len([]rune(body)) > models.MaxGroupChatBodyLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("message body must be at most %d characters", models.MaxGroupChatBodyLength))
	}

	var message *models.EventChatMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEventByID(tx, eventID); err != nil {
			return err
		}
		if err := requireParticipantTx(tx, eventID, authorID); err != nil {
			return err
		}

		row := models.EventChatMessage{
			EventID:  eventID,
			AuthorID: authorID,
			Body:     body,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("chat service: create message: %w", err)
		}

		var count int64
		if err := tx.Model(&models.EventChatMessage{}).
			Where("event_id = ?", eventID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("chat service: count messages: %w", err)
		}

		if excess := count - models.MaxGroupChatMessages; excess > 0 {
			var staleIDs []int64
			if err := tx.Model(&models.EventChatMessage{}).
				Where("event_id = ?", eventID).
				Order("created_at ASC, id ASC").
				Limit(int(excess)).
				Pluck("id", &staleIDs).Error; err != nil {
				return fmt.Errorf("chat service: find stale messages: %w", err)
			}
			if err := tx.Where("id IN ?", staleIDs).
				Delete(&models.EventChatMessage{}).Error; err != nil {
				return fmt.Errorf("chat service: trim messages: %w", err)
			}
		}

		message = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChatMessagesPosted.WithLabelValues("group").Inc()
	return message, nil
}

// List returns up to limit retained messages, oldest first. Group chat is a
// member-only surface even on OPEN events.
func (s *ChatService) List(ctx context.Context, eventID int64, viewerID string, limit int) ([]ChatMessageView, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > models.MaxGroupChatMessages {
		limit = models.MaxGroupChatMessages
	}

	db := s.db.WithContext(ctx)
	event, err := findEventByID(db, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipantTx(db, eventID, viewerID); err != nil {
		return nil, err
	}

	// Take the newest rows, then flip so the caller reads oldest first.
	var messages []models.EventChatMessage
	err = db.
		Preload("Author").
		Where("event_id = ?", eventID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("chat service: list messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	views := make([]ChatMessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, ChatMessageView{
			ID:        msg.ID,
			Author:    msg.Author.Name(),
			IsHost:    msg.AuthorID == event.HostID,
			Message:   msg.Body,
			CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views, nil
}

// requireParticipantTx enforces HOST/ATTENDEE standing for chat surfaces.
func requireParticipantTx(tx *gorm.DB, eventID int64, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNotAMember
	}

	var membership models.EventMembership
	err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Take(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotAMember
	}
	if err != nil {
		return fmt.Errorf("chat service: check membership: %w", err)
	}
	if !membership.Role.Participates() {
		return ErrNotAMember
	}
	return nil
}
