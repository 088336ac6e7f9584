package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/models"
	apperrors "github.com/gatherly/gatherly/pkg/errors"
	"github.com/gatherly/gatherly/pkg/metrics"
)

var (
	// ErrDirectChatNotFound indicates the chat does not exist.
	ErrDirectChatNotFound = apperrors.New("DIRECT_CHAT_NOT_FOUND", "Direct chat not found", http.StatusNotFound)
	// ErrNotParticipant rejects access from anyone outside the fixed pair.
	ErrNotParticipant = apperrors.New("NOT_PARTICIPANT", "You are not a participant in this chat", http.StatusForbidden)
	// ErrSelfChat rejects opening a chat with oneself.
	ErrSelfChat = apperrors.New("SELF_CHAT", "Cannot open a direct chat with yourself", http.StatusBadRequest)
)

// DirectChatSummary is one row in a user's chat list.
type DirectChatSummary struct {
	Chat             *models.DirectChat    `json:"chat"`
	OtherParticipant *models.User          `json:"other_participant"`
	LatestMessage    *models.DirectMessage `json:"latest_message,omitempty"`
	UnreadCount      int64                 `json:"unread_count"`
}

// DirectChatService owns pairwise event-scoped conversations with leave
// markers and auto-restore on incoming traffic.
type DirectChatService struct {
	db *gorm.DB
}

// NewDirectChatService constructs a DirectChatService.
func NewDirectChatService(db *gorm.DB) (*DirectChatService, error) {
	if db == nil {
		return nil, errors.New("direct chat service: db is required")
	}
	return &DirectChatService{db: db}, nil
}

// GetOrCreate returns the chat between two event members, creating it when it
// does not exist yet. The participant pair is stored in canonical order so the
// same chat answers regardless of who opens it.
func (s *DirectChatService) GetOrCreate(ctx context.Context, eventID int64, userID, otherUserID string) (*models.DirectChat, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	otherUserID = strings.TrimSpace(otherUserID)
	if userID == "" || otherUserID == "" {
		return nil, apperrors.NewBadRequest("both participant ids are required")
	}
	if userID == otherUserID {
		return nil, ErrSelfChat
	}

	low, high := canonicalPair(userID, otherUserID)

	var chat *models.DirectChat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEventByID(tx, eventID); err != nil {
			return err
		}
		for _, participant := range []string{userID, otherUserID} {
			if err := requireParticipantTx(tx, eventID, participant); err != nil {
				return err
			}
		}

		var existing models.DirectChat
		err := tx.Where("event_id = ? AND user_low_id = ? AND user_high_id = ?", eventID, low, high).
			Take(&existing).Error
		if err == nil {
			chat = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("direct chat service: load chat: %w", err)
		}

		row := models.DirectChat{
			EventID:    eventID,
			UserLowID:  low,
			UserHighID: high,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Lost the race; the winner's row is the chat.
				if err := tx.Where("event_id = ? AND user_low_id = ? AND user_high_id = ?", eventID, low, high).
					Take(&row).Error; err != nil {
					return fmt.Errorf("direct chat service: reload chat: %w", err)
				}
			} else {
				return fmt.Errorf("direct chat service: create chat: %w", err)
			}
		}
		chat = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Send stores a message from one participant. Any leave marker held by the
// other participant is removed in the same transaction so the chat reappears
// in their list.
func (s *DirectChatService) Send(ctx context.Context, chatID, senderID, content string) (*models.DirectMessage, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("message content is required")
	}
	if len([]rune(content)) > models.MaxDirectMessageLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("message content must be at most %d characters", models.MaxDirectMessageLength))
	}

	var message *models.DirectMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := findDirectChatTx(tx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(senderID) {
			return ErrNotParticipant
		}

		row := models.DirectMessage{
			ChatID:   chat.ID,
			SenderID: senderID,
			Content:  content,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("direct chat service: create message: %w", err)
		}

		other := chat.OtherParticipant(senderID)
		if err := tx.Where("chat_id = ? AND user_id = ?", chat.ID, other).
			Delete(&models.DirectChatLeave{}).Error; err != nil {
			return fmt.Errorf("direct chat service: restore chat: %w", err)
		}

		// Bump updated_at so the list orders by latest activity.
		if err := tx.Model(chat).Update("updated_at", row.CreatedAt).Error; err != nil {
			return fmt.Errorf("direct chat service: touch chat: %w", err)
		}

		message = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChatMessagesPosted.WithLabelValues("direct").Inc()
	return message, nil
}

// Leave hides the chat from the caller's list. Messages are retained and the
// marker clears when the other side writes again. Leaving twice is a no-op.
func (s *DirectChatService) Leave(ctx context.Context, chatID, userID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := findDirectChatTx(tx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(userID) {
			return ErrNotParticipant
		}

		marker := models.DirectChatLeave{ChatID: chat.ID, UserID: userID}
		if err := tx.Create(&marker).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil
			}
			return fmt.Errorf("direct chat service: create leave marker: %w", err)
		}
		return nil
	})
}

// ListForUser returns the chats the user participates in and has not left,
// newest activity first, annotated with the counterpart, a latest-message
// preview, and the count of unread incoming messages.
func (s *DirectChatService) ListForUser(ctx context.Context, userID string) ([]DirectChatSummary, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var chats []models.DirectChat
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("UserLow").
		Preload("UserHigh").
		Joins("JOIN events ON events.id = direct_chats.event_id AND events.is_deleted = ?", false).
		Where("direct_chats.user_low_id = ? OR direct_chats.user_high_id = ?", userID, userID).
		Where("NOT EXISTS (SELECT 1 FROM direct_chat_leaves WHERE direct_chat_leaves.chat_id = direct_chats.id AND direct_chat_leaves.user_id = ?)", userID).
		Order("direct_chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("direct chat service: list chats: %w", err)
	}

	summaries := make([]DirectChatSummary, 0, len(chats))
	for i := range chats {
		chat := &chats[i]

		var latest models.DirectMessage
		latestPtr := &latest
		err := s.db.WithContext(ctx).
			Where("chat_id = ?", chat.ID).
			Order("created_at DESC, id DESC").
			Take(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			latestPtr = nil
		} else if err != nil {
			return nil, fmt.Errorf("direct chat service: load latest message: %w", err)
		}

		var unread int64
		if err := s.db.WithContext(ctx).Model(&models.DirectMessage{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, userID, false).
			Count(&unread).Error; err != nil {
			return nil, fmt.Errorf("direct chat service: count unread: %w", err)
		}

		other := chat.UserLow
		if chat.UserLowID == userID {
			other = chat.UserHigh
		}

		summaries = append(summaries, DirectChatSummary{
			Chat:             chat,
			OtherParticipant: other,
			LatestMessage:    latestPtr,
			UnreadCount:      unread,
		})
	}
	return summaries, nil
}

// Messages returns the full conversation oldest first and marks the other
// side's messages as read in the same call.
func (s *DirectChatService) Messages(ctx context.Context, chatID, userID string) ([]models.DirectMessage, error) {
	ctx = ensureContext(ctx)

	var messages []models.DirectMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := findDirectChatTx(tx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(userID) {
			return ErrNotParticipant
		}

		if err := tx.Model(&models.DirectMessage{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, userID, false).
			Update("is_read", true).Error; err != nil {
			return fmt.Errorf("direct chat service: mark read: %w", err)
		}

		return tx.
			Preload("Sender").
			Where("chat_id = ?", chat.ID).
			Order("created_at ASC, id ASC").
			Find(&messages).Error
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Delete removes the chat with its messages and leave markers for both sides.
func (s *DirectChatService) Delete(ctx context.Context, chatID, userID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := findDirectChatTx(tx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(userID) {
			return ErrNotParticipant
		}

		if err := tx.Where("chat_id = ?", chat.ID).Delete(&models.DirectMessage{}).Error; err != nil {
			return fmt.Errorf("direct chat service: delete messages: %w", err)
		}
		if err := tx.Where("chat_id = ?", chat.ID).Delete(&models.DirectChatLeave{}).Error; err != nil {
			return fmt.Errorf("direct chat service: delete leave markers: %w", err)
		}
		return tx.Delete(chat).Error
	})
}

func findDirectChatTx(tx *gorm.DB, chatID string) (*models.DirectChat, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, ErrDirectChatNotFound
	}

	var chat models.DirectChat
	err := tx.Take(&chat, "id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDirectChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("direct chat service: load chat: %w", err)
	}
	return &chat, nil
}

// canonicalPair orders two user ids so the storage layer sees one ordering
// for either direction of the pair.
func canonicalPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}
