package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/locations"
	"github.com/gatherly/gatherly/internal/models"
	apperrors "github.com/gatherly/gatherly/pkg/errors"
	"github.com/gatherly/gatherly/pkg/metrics"
	"github.com/gatherly/gatherly/pkg/sharecode"
)

// MaxItineraryStops caps the ordered stops an event may carry beyond its
// starting location.
const MaxItineraryStops = 5

var (
	// ErrEventNotFound covers missing and tombstoned events alike.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrNotHost guards host-only operations.
	ErrNotHost = apperrors.New("NOT_HOST", "Only the host may perform this action", http.StatusForbidden)
	// ErrEventHidden is returned when a private event is viewed without standing.
	ErrEventHidden = apperrors.New("EVENT_HIDDEN", "Event not found", http.StatusNotFound)
)

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// EventStopInput describes one itinerary stop at creation or update time.
type EventStopInput struct {
	LocationID int64
	Note       string
}

// CreateEventInput carries the fields accepted when scheduling an event.
type CreateEventInput struct {
	Title           string
	Description     string
	Visibility      models.EventVisibility
	StartTime       time.Time
	StartLocationID int64
	Stops           []EventStopInput
	InviteeIDs      []string
}

// UpdateEventInput enumerates mutable event attributes. Nil pointers leave the
// field untouched; a non-nil Stops slice replaces the itinerary wholesale.
type UpdateEventInput struct {
	Title           *string
	Description     *string
	Visibility      *models.EventVisibility
	StartTime       *time.Time
	StartLocationID *int64
	Stops           *[]EventStopInput
}

// EventFilters captures listing filters.
type EventFilters struct {
	Query      string
	Visibility models.EventVisibility
	HostID     string
}

// ListEventsOptions controls pagination for event listing.
type ListEventsOptions struct {
	Page     int
	PageSize int
	Filters  EventFilters
}

// EventService manages the event lifecycle: creation with host membership and
// batch invites, host-only mutation, tombstone deletion, and discovery.
type EventService struct {
	db           *gorm.DB
	catalog      locations.Catalog
	auditService *AuditService
}

// NewEventService constructs an EventService.
func NewEventService(db *gorm.DB, catalog locations.Catalog, auditService *AuditService) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	if catalog == nil {
		return nil, errors.New("event service: location catalog is required")
	}
	return &EventService{db: db, catalog: catalog, auditService: auditService}, nil
}

// Create schedules an event. The host membership, itinerary stops, and any
// batch invites are written in the same transaction as the event row.
func (s *EventService) Create(ctx context.Context, hostID string, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, apperrors.NewBadRequest("host id is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if len([]rune(title)) > 80 {
		return nil, apperrors.NewBadRequest("title must be at most 80 characters")
	}
	if !input.Visibility.Valid() {
		return nil, apperrors.NewBadRequest("visibility must be one of OPEN, INVITE, PRIVATE")
	}
	if !input.StartTime.After(time.Now()) {
		return nil, apperrors.NewBadRequest("start time must be in the future")
	}
	if len(input.Stops) > MaxItineraryStops {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("at most %d itinerary stops are allowed", MaxItineraryStops))
	}

	if err := s.resolveLocations(ctx, input.StartLocationID, input.Stops); err != nil {
		return nil, err
	}

	invitees := normaliseIDs(input.InviteeIDs)

	event := &models.Event{
		Slug:            makeSlug(title),
		Title:           title,
		HostID:          hostID,
		Visibility:      input.Visibility,
		StartTime:       input.StartTime,
		Description:     strings.TrimSpace(input.Description),
		StartLocationID: input.StartLocationID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Slug collision; the random suffix makes a retry safe.
				event.Slug = makeSlug(title)
				if retryErr := tx.Create(event).Error; retryErr != nil {
					return fmt.Errorf("event service: create event: %w", retryErr)
				}
			} else {
				return fmt.Errorf("event service: create event: %w", err)
			}
		}

		if err := replaceStopsTx(tx, event.ID, input.Stops); err != nil {
			return err
		}

		if _, err := createHostMembershipTx(tx, event.ID, hostID); err != nil {
			return err
		}

		for _, inviteeID := range invitees {
			if inviteeID == hostID {
				continue
			}
			if _, err := inviteTx(tx, event, inviteeID, hostID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MembershipTransitions.WithLabelValues("host").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &hostID,
		Action:   "event.create",
		Resource: fmt.Sprintf("event:%d", event.ID),
		Result:   "success",
		Metadata: map[string]any{"slug": event.Slug, "visibility": event.Visibility},
	})

	return s.loadEventDetail(ctx, event.ID)
}

// Update applies host-only mutations. A supplied itinerary replaces the
// existing stops wholesale.
func (s *EventService) Update(ctx context.Context, slug, userID string, input UpdateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var eventID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventBySlug(tx, slug)
		if err != nil {
			return err
		}
		if event.HostID != userID {
			return ErrNotHost
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" || len([]rune(title)) > 80 {
				return apperrors.NewBadRequest("title must be between 1 and 80 characters")
			}
			event.Title = title
		}
		if input.Description != nil {
			event.Description = strings.TrimSpace(*input.Description)
		}
		if input.Visibility != nil {
			if !input.Visibility.Valid() {
				return apperrors.NewBadRequest("visibility must be one of OPEN, INVITE, PRIVATE")
			}
			event.Visibility = *input.Visibility
		}
		if input.StartTime != nil {
			if !input.StartTime.After(time.Now()) {
				return apperrors.NewBadRequest("start time must be in the future")
			}
			event.StartTime = *input.StartTime
		}
		if input.StartLocationID != nil {
			if err := s.resolveLocations(ctx, *input.StartLocationID, nil); err != nil {
				return err
			}
			event.StartLocationID = *input.StartLocationID
		}

		if input.Stops != nil {
			stops := *input.Stops
			if len(stops) > MaxItineraryStops {
				return apperrors.NewBadRequest(fmt.Sprintf("at most %d itinerary stops are allowed", MaxItineraryStops))
			}
			if err := s.resolveLocations(ctx, event.StartLocationID, stops); err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventStop{}).Error; err != nil {
				return fmt.Errorf("event service: clear stops: %w", err)
			}
			if err := replaceStopsTx(tx, event.ID, stops); err != nil {
				return err
			}
		}

		if err := tx.Save(event).Error; err != nil {
			return fmt.Errorf("event service: update event: %w", err)
		}
		eventID = event.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "event.update",
		Resource: fmt.Sprintf("event:%d", eventID),
		Result:   "success",
	})

	return s.loadEventDetail(ctx, eventID)
}

// SoftDelete tombstones the event. Rows stay behind for audit; every live
// query filters them out.
func (s *EventService) SoftDelete(ctx context.Context, slug, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := findEventBySlug(tx, slug)
		if err != nil {
			return err
		}
		if event.HostID != userID {
			return ErrNotHost
		}
		return tx.Model(event).Update("is_deleted", true).Error
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "event.delete",
		Resource: "event:" + slug,
		Result:   "success",
	})
	return nil
}

// GetBySlug loads an event for a viewer, enforcing the visibility table.
// Private events answer NotFound rather than Forbidden so their existence
// is not leaked.
func (s *EventService) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	event, err := findEventBySlug(s.db.WithContext(ctx), slug)
	if err != nil {
		return nil, err
	}

	role, err := s.viewerRole(ctx, event.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if !VisibilityCapabilities(event.Visibility, role).CanView {
		return nil, ErrEventHidden
	}

	return s.loadEventDetail(ctx, event.ID)
}

// List returns discoverable (OPEN and INVITE) live events, soonest first.
func (s *EventService) List(ctx context.Context, opts ListEventsOptions) ([]models.Event, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("is_deleted = ?", false).
		Where("visibility IN ?", []models.EventVisibility{models.VisibilityOpen, models.VisibilityInvite})

	if opts.Filters.Visibility != "" {
		if !opts.Filters.Visibility.Valid() || opts.Filters.Visibility == models.VisibilityPrivate {
			return nil, 0, apperrors.NewBadRequest("visibility filter must be OPEN or INVITE")
		}
		query = query.Where("visibility = ?", opts.Filters.Visibility)
	}
	if opts.Filters.HostID != "" {
		query = query.Where("host_id = ?", opts.Filters.HostID)
	}
	if term := strings.TrimSpace(opts.Filters.Query); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR host_id IN (?)",
			pattern,
			s.db.Model(&models.User{}).Select("id").Where("LOWER(username) LIKE ?", pattern),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: count events: %w", err)
	}

	var events []models.Event
	err := query.
		Preload("Host").
		Preload("StartLocation").
		Order("start_time ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("event service: list events: %w", err)
	}

	return events, total, nil
}

// ShareCode derives the short share code for an event row.
func (s *EventService) ShareCode(event *models.Event) (string, error) {
	if event == nil {
		return "", errors.New("event service: event is required")
	}
	return sharecode.Encode(event.ID)
}

// ResolveShareCode maps a base62 share code back to the live event it names.
func (s *EventService) ResolveShareCode(ctx context.Context, code string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	id, err := sharecode.Decode(code)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid share code")
	}
	event, err := findEventByID(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return s.loadEventDetail(ctx, event.ID)
}

func (s *EventService) viewerRole(ctx context.Context, eventID int64, viewerID string) (*models.MembershipRole, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, nil
	}

	var membership models.EventMembership
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, viewerID).
		Take(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load viewer role: %w", err)
	}
	role := membership.Role
	return &role, nil
}

func (s *EventService) loadEventDetail(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("Host").
		Preload("StartLocation").
		Preload("Locations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Locations.Location").
		Where("is_deleted = ?", false).
		First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

func (s *EventService) resolveLocations(ctx context.Context, startLocationID int64, stops []EventStopInput) error {
	ids := make([]int64, 0, len(stops)+1)
	if startLocationID > 0 {
		ids = append(ids, startLocationID)
	} else {
		return apperrors.NewBadRequest("start location is required")
	}
	for _, stop := range stops {
		ids = append(ids, stop.LocationID)
	}
	_, err := s.catalog.Resolve(ctx, ids)
	return err
}

func replaceStopsTx(tx *gorm.DB, eventID int64, stops []EventStopInput) error {
	for i, stop := range stops {
		note := strings.TrimSpace(stop.Note)
		if len([]rune(note)) > 100 {
			return apperrors.NewBadRequest("stop note must be at most 100 characters")
		}
		row := models.EventStop{
			EventID:    eventID,
			LocationID: stop.LocationID,
			Position:   i + 1,
			Note:       note,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewBadRequest("itinerary stops must reference distinct locations")
			}
			return fmt.Errorf("event service: create stop: %w", err)
		}
	}
	return nil
}

func findEventByID(tx *gorm.DB, id int64) (*models.Event, error) {
	var event models.Event
	err := tx.Where("is_deleted = ?", false).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

func findEventBySlug(tx *gorm.DB, slug string) (*models.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrEventNotFound
	}

	var event models.Event
	err := tx.Where("is_deleted = ?", false).First(&event, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

// makeSlug derives a URL-safe identifier from the title plus a short random
// suffix to keep repeated titles distinct.
func makeSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = slugStripPattern.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}
	if base == "" {
		base = "event"
	}
	return base + "-" + uuid.NewString()[:8]
}
