package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	appErrors "github.com/gatherly/gatherly/pkg/errors"
	"github.com/gatherly/gatherly/pkg/response"
)

// EventHandler exposes the event lifecycle over HTTP.
type EventHandler struct {
	events      *services.EventService
	memberships *services.MembershipService
}

func NewEventHandler(events *services.EventService, memberships *services.MembershipService) *EventHandler {
	return &EventHandler{events: events, memberships: memberships}
}

type eventStopRequest struct {
	LocationID int64  `json:"location_id" validate:"required,gt=0"`
	Note       string `json:"note" validate:"omitempty,max=100"`
}

type createEventRequest struct {
	Title           string             `json:"title" validate:"required,max=80"`
	Description     string             `json:"description" validate:"omitempty,max=2000"`
	Visibility      string             `json:"visibility" validate:"required,oneof=OPEN INVITE PRIVATE"`
	StartTime       time.Time          `json:"start_time" validate:"required"`
	StartLocationID int64              `json:"start_location_id" validate:"required,gt=0"`
	Stops           []eventStopRequest `json:"stops" validate:"omitempty,max=5,dive"`
	InviteeIDs      []string           `json:"invitee_ids" validate:"omitempty,dive,uuid4"`
}

type updateEventRequest struct {
	Title           *string             `json:"title" validate:"omitempty,max=80"`
	Description     *string             `json:"description" validate:"omitempty,max=2000"`
	Visibility      *string             `json:"visibility" validate:"omitempty,oneof=OPEN INVITE PRIVATE"`
	StartTime       *time.Time          `json:"start_time"`
	StartLocationID *int64              `json:"start_location_id" validate:"omitempty,gt=0"`
	Stops           *[]eventStopRequest `json:"stops" validate:"omitempty,dive"`
}

func stopInputs(stops []eventStopRequest) []services.EventStopInput {
	out := make([]services.EventStopInput, 0, len(stops))
	for _, stop := range stops {
		out = append(out, services.EventStopInput{
			LocationID: stop.LocationID,
			Note:       strings.TrimSpace(stop.Note),
		})
	}
	return out
}

// resolveEvent loads the event behind a slug path parameter with the viewer's
// standing applied. Hidden and missing events both answer 404.
func (h *EventHandler) resolveEvent(c *gin.Context, viewerID string) (*models.Event, bool) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		response.Error(c, appErrors.NewBadRequest("slug is required"))
		return nil, false
	}

	event, err := h.events.GetBySlug(requestContext(c), slug, viewerID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return event, true
}

// GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	opts := services.ListEventsOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Filters: services.EventFilters{
			Query:      strings.TrimSpace(c.Query("q")),
			Visibility: models.EventVisibility(strings.ToUpper(strings.TrimSpace(c.Query("visibility")))),
			HostID:     strings.TrimSpace(c.Query("host_id")),
		},
	}

	events, total, err := h.events.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := 0
	if opts.PageSize > 0 {
		totalPages = int((total + int64(opts.PageSize) - 1) / int64(opts.PageSize))
	}
	response.SuccessWithMeta(c, http.StatusOK, gin.H{"events": events}, &response.Meta{
		Page:       opts.Page,
		PerPage:    opts.PageSize,
		Total:      int(total),
		TotalPages: totalPages,
	})
}

// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Create(requestContext(c), userID, services.CreateEventInput{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Visibility:      models.EventVisibility(req.Visibility),
		StartTime:       req.StartTime,
		StartLocationID: req.StartLocationID,
		Stops:           stopInputs(req.Stops),
		InviteeIDs:      req.InviteeIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"event": event})
}

// GET /api/events/:slug
func (h *EventHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, ok := h.resolveEvent(c, userID)
	if !ok {
		return
	}

	payload := gin.H{"event": event}
	if code, err := h.events.ShareCode(event); err == nil {
		payload["share_code"] = code
	}
	response.Success(c, http.StatusOK, payload)
}

// PUT /api/events/:slug
func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		StartLocationID: req.StartLocationID,
	}
	if req.Visibility != nil {
		visibility := models.EventVisibility(*req.Visibility)
		input.Visibility = &visibility
	}
	if req.Stops != nil {
		stops := stopInputs(*req.Stops)
		input.Stops = &stops
	}

	event, err := h.events.Update(requestContext(c), strings.TrimSpace(c.Param("slug")), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event": event})
}

// DELETE /api/events/:slug
func (h *EventHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.events.SoftDelete(requestContext(c), strings.TrimSpace(c.Param("slug")), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/events/:slug/attendees
func (h *EventHandler) Attendees(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	event, ok := h.resolveEvent(c, userID)
	if !ok {
		return
	}

	memberships, err := h.memberships.ListAttendees(requestContext(c), event.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	attendees := make([]gin.H, 0, len(memberships))
	for _, m := range memberships {
		attendees = append(attendees, gin.H{
			"user_id": m.UserID,
			"name":    m.User.Name(),
			"role":    m.Role,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"attendees": attendees})
}

// GET /api/share/:code
func (h *EventHandler) ResolveShareCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	code := strings.TrimSpace(c.Param("code"))
	event, err := h.events.ResolveShareCode(requestContext(c), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Share codes do not bypass visibility: re-read through the viewer gate.
	event, err = h.events.GetBySlug(requestContext(c), event.Slug, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event": event})
}
