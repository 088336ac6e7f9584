package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// JoinRequestHandler exposes the join request queue on invite-gated events.
type JoinRequestHandler struct {
	events   *services.EventService
	requests *services.JoinRequestService
}

func NewJoinRequestHandler(events *services.EventService, requests *services.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{events: events, requests: requests}
}

func (h *JoinRequestHandler) resolveEventID(c *gin.Context, userID string) (int64, bool) {
	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	return event.ID, true
}

// POST /api/events/:slug/join-requests
func (h *JoinRequestHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	request, err := h.requests.Request(requestContext(c), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"join_request": request})
}

// GET /api/events/:slug/join-requests
func (h *JoinRequestHandler) ListPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	requests, err := h.requests.ListPending(requestContext(c), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"join_requests": requests})
}

// POST /api/events/:slug/join-requests/:id/approve
func (h *JoinRequestHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// POST /api/events/:slug/join-requests/:id/decline
func (h *JoinRequestHandler) Decline(c *gin.Context) {
	h.decide(c, false)
}

func (h *JoinRequestHandler) decide(c *gin.Context, approve bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := h.resolveEventID(c, userID)
	if !ok {
		return
	}

	requestID := strings.TrimSpace(c.Param("id"))

	var err error
	var request *models.EventJoinRequest
	if approve {
		request, err = h.requests.Approve(requestContext(c), eventID, requestID, userID)
	} else {
		request, err = h.requests.Decline(requestContext(c), eventID, requestID, userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"join_request": request})
}
