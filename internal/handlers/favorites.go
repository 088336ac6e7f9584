package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// FavoriteHandler exposes per-user event bookmarks.
type FavoriteHandler struct {
	events    *services.EventService
	favorites *services.FavoriteService
}

func NewFavoriteHandler(events *services.EventService, favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{events: events, favorites: favorites}
}

func (h *FavoriteHandler) resolveEventID(c *gin.Context, userID string) (int64, bool) {
	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	return event.ID, true
}

// PUT /api/events/:slug/favorite
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	if err := h.favorites.Favorite(requestContext(c), eventID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"favorited": true})
}

// DELETE /api/events/:slug/favorite
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	removed, err := h.favorites.Unfavorite(requestContext(c), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

// GET /api/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	events, err := h.favorites.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}
