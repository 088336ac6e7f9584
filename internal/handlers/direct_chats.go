package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/services"
	appErrors "github.com/gatherly/gatherly/pkg/errors"
	"github.com/gatherly/gatherly/pkg/response"
)

// DirectChatHandler exposes pairwise chats between event participants.
type DirectChatHandler struct {
	events *services.EventService
	chats  *services.DirectChatService
}

func NewDirectChatHandler(events *services.EventService, chats *services.DirectChatService) *DirectChatHandler {
	return &DirectChatHandler{events: events, chats: chats}
}

type openDirectChatRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required,uuid4"`
}

type sendDirectMessageRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

func chatIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.NewBadRequest("chat id is required"))
		return "", false
	}
	return id, true
}

// POST /api/events/:slug/direct-chats
func (h *DirectChatHandler) Open(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req openDirectChatRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	chat, err := h.chats.GetOrCreate(requestContext(c), event.ID, userID, req.OtherUserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"chat": chat})
}

// GET /api/direct-chats
func (h *DirectChatHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	chats, err := h.chats.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"chats": chats})
}

// GET /api/direct-chats/:id/messages
func (h *DirectChatHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	messages, err := h.chats.Messages(requestContext(c), chatID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// POST /api/direct-chats/:id/messages
func (h *DirectChatHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req sendDirectMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.chats.Send(requestContext(c), chatID, userID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": message})
}

// POST /api/direct-chats/:id/leave
func (h *DirectChatHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	if err := h.chats.Leave(requestContext(c), chatID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"left": true})
}

// DELETE /api/direct-chats/:id
func (h *DirectChatHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	if err := h.chats.Delete(requestContext(c), chatID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
