package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/models"
	apperrors "github.com/gatherly/gatherly/pkg/errors"
)

// FavoriteService manages per-user event bookmarks.
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(db *gorm.DB) (*FavoriteService, error) {
	if db == nil {
		return nil, errors.New("favorite service: db is required")
	}
	return &FavoriteService{db: db}, nil
}

// Favorite bookmarks a live event. Repeating the call is a no-op.
func (s *FavoriteService) Favorite(ctx context.Context, eventID int64, userID string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.NewBadRequest("user id is required")
	}

	if _, err := findEventByID(s.db.WithContext(ctx), eventID); err != nil {
		return err
	}

	row := models.EventFavorite{EventID: eventID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return fmt.Errorf("favorite service: create favorite: %w", err)
	}
	return nil
}

// Unfavorite removes a bookmark and reports whether one was present.
func (s *FavoriteService) Unfavorite(ctx context.Context, eventID int64, userID string) (bool, error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventFavorite{})
	if res.Error != nil {
		return false, fmt.Errorf("favorite service: delete favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListForUser returns the user's live favorited events, newest bookmark first.
func (s *FavoriteService) ListForUser(ctx context.Context, userID string) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	var favorites []models.EventFavorite
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Host").
		Preload("Event.StartLocation").
		Joins("JOIN events ON events.id = event_favorites.event_id AND events.is_deleted = ?", false).
		Where("event_favorites.user_id = ?", userID).
		Order("event_favorites.created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("favorite service: list favorites: %w", err)
	}

	events := make([]models.Event, 0, len(favorites))
	for _, favorite := range favorites {
		if favorite.Event != nil {
			events = append(events, *favorite.Event)
		}
	}
	return events, nil
}
