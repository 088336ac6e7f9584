package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// ChatHandler exposes the bounded per-event group chat.
type ChatHandler struct {
	events *services.EventService
	chat   *services.ChatService
}

func NewChatHandler(events *services.EventService, chat *services.ChatService) *ChatHandler {
	return &ChatHandler{events: events, chat: chat}
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,max=300"`
}

func (h *ChatHandler) resolveEventID(c *gin.Context, userID string) (int64, bool) {
	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	return event.ID, true
}

// POST /api/events/:slug/chat
func (h *ChatHandler) Post(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req postMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	message, err := h.chat.Post(requestContext(c), eventID, userID, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": message})
}

// GET /api/events/:slug/chat
func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	messages, err := h.chat.List(requestContext(c), eventID, userID, parseIntQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}
