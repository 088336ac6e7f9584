package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// InviteHandler exposes the invitation lifecycle: hosts issue invites against
// an event, invitees answer them from their inbox.
type InviteHandler struct {
	events      *services.EventService
	memberships *services.MembershipService
}

func NewInviteHandler(events *services.EventService, memberships *services.MembershipService) *InviteHandler {
	return &InviteHandler{events: events, memberships: memberships}
}

type createInviteRequest struct {
	InviteeID string `json:"invitee_id" validate:"required,uuid4"`
}

// POST /api/events/:slug/invites
func (h *InviteHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if event.HostID != userID {
		response.Error(c, services.ErrNotHost)
		return
	}

	invite, err := h.memberships.Invite(requestContext(c), event.ID, req.InviteeID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"invite": invite})
}

// GET /api/invitations
func (h *InviteHandler) Inbox(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invites, err := h.memberships.ListInvitationsForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"invitations": invites})
}

// POST /api/events/:slug/invites/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	membership, err := h.memberships.AcceptInvite(requestContext(c), event.ID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"membership": membership})
}

// POST /api/events/:slug/invites/decline
func (h *InviteHandler) Decline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.memberships.DeclineInvite(requestContext(c), event.ID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"declined": true})
}

// POST /api/events/:slug/join
func (h *InviteHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	membership, err := h.memberships.JoinOpenEvent(requestContext(c), event.ID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"membership": membership})
}

// POST /api/events/:slug/leave
func (h *InviteHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, err := h.events.GetBySlug(requestContext(c), strings.TrimSpace(c.Param("slug")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.memberships.LeaveEvent(requestContext(c), event.ID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"left": true})
}
