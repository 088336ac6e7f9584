package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/models"
)

func TestCreateEventWithStopsAndInvites(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	start := seedLocation(t, db, "Harbor Wall")
	stopA := seedLocation(t, db, "Canal Arch")
	stopB := seedLocation(t, db, "Old Mill")

	event, err := svc.Create(ctx, host.ID, CreateEventInput{
		Title:           "Saturday Walk",
		Description:     "A slow loop through the harbor",
		Visibility:      models.VisibilityInvite,
		StartTime:       time.Now().Add(72 * time.Hour),
		StartLocationID: start.ID,
		Stops: []EventStopInput{
			{LocationID: stopA.ID, Note: "coffee here"},
			{LocationID: stopB.ID},
		},
		InviteeIDs: []string{guest.ID, guest.ID, host.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, event.Slug)
	require.True(t, strings.HasPrefix(event.Slug, "saturday-walk-"))
	require.Len(t, event.Locations, 2)
	require.Equal(t, 1, event.Locations[0].Position)
	require.Equal(t, "coffee here", event.Locations[0].Note)

	// Host membership lands in the same transaction.
	var membership models.EventMembership
	require.NoError(t, db.Where("event_id = ? AND user_id = ?", event.ID, host.ID).Take(&membership).Error)
	require.Equal(t, models.RoleHost, membership.Role)

	// The duplicate and the host were dropped from the invite batch.
	var inviteCount int64
	require.NoError(t, db.Model(&models.EventInvite{}).Where("event_id = ?", event.ID).Count(&inviteCount).Error)
	require.Equal(t, int64(1), inviteCount)

	var invite models.EventInvite
	require.NoError(t, db.Where("event_id = ?", event.ID).Take(&invite).Error)
	require.Equal(t, guest.ID, invite.InviteeID)
	require.Equal(t, models.InvitePending, invite.Status)
}

func TestCreateEventValidation(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	start := seedLocation(t, db, "Harbor Wall")

	base := CreateEventInput{
		Title:           "Walk",
		Visibility:      models.VisibilityOpen,
		StartTime:       time.Now().Add(time.Hour),
		StartLocationID: start.ID,
	}

	past := base
	past.StartTime = time.Now().Add(-time.Hour)
	_, err := svc.Create(ctx, host.ID, past)
	require.Error(t, err)

	badVisibility := base
	badVisibility.Visibility = models.EventVisibility("SECRET")
	_, err = svc.Create(ctx, host.ID, badVisibility)
	require.Error(t, err)

	tooManyStops := base
	for i := 0; i < MaxItineraryStops+1; i++ {
		stop := seedLocation(t, db, "Stop")
		tooManyStops.Stops = append(tooManyStops.Stops, EventStopInput{LocationID: stop.ID})
	}
	_, err = svc.Create(ctx, host.ID, tooManyStops)
	require.Error(t, err)

	unknownLocation := base
	unknownLocation.StartLocationID = start.ID + 999
	_, err = svc.Create(ctx, host.ID, unknownLocation)
	require.Error(t, err)

	longTitle := base
	longTitle.Title = strings.Repeat("x", 81)
	_, err = svc.Create(ctx, host.ID, longTitle)
	require.Error(t, err)
}

func TestGetBySlugEnforcesVisibility(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	memberSvc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	visitor := seedUser(t, db, "visitor")
	invited := seedUser(t, db, "invited")
	private := seedEvent(t, db, host, models.VisibilityPrivate)
	open := seedEvent(t, db, host, models.VisibilityOpen)

	_, err = memberSvc.Invite(ctx, private.ID, invited.ID, host.ID)
	require.NoError(t, err)

	// Private events answer NotFound for strangers rather than Forbidden.
	_, err = svc.GetBySlug(ctx, private.Slug, visitor.ID)
	require.ErrorIs(t, err, ErrEventHidden)

	event, err := svc.GetBySlug(ctx, private.Slug, invited.ID)
	require.NoError(t, err)
	require.Equal(t, private.ID, event.ID)

	event, err = svc.GetBySlug(ctx, private.Slug, host.ID)
	require.NoError(t, err)
	require.NotNil(t, event.Host)

	_, err = svc.GetBySlug(ctx, open.Slug, visitor.ID)
	require.NoError(t, err)
}

func TestUpdateEventIsHostOnly(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	other := seedUser(t, db, "other")
	event := seedEvent(t, db, host, models.VisibilityOpen)

	title := "Renamed Walk"
	_, err := svc.Update(ctx, event.Slug, other.ID, UpdateEventInput{Title: &title})
	require.ErrorIs(t, err, ErrNotHost)

	updated, err := svc.Update(ctx, event.Slug, host.ID, UpdateEventInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
}

func TestUpdateReplacesStopsWholesale(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	start := seedLocation(t, db, "Start")
	first := seedLocation(t, db, "First")
	second := seedLocation(t, db, "Second")

	event, err := svc.Create(ctx, host.ID, CreateEventInput{
		Title:           "Walk",
		Visibility:      models.VisibilityOpen,
		StartTime:       time.Now().Add(time.Hour),
		StartLocationID: start.ID,
		Stops:           []EventStopInput{{LocationID: first.ID}},
	})
	require.NoError(t, err)
	require.Len(t, event.Locations, 1)

	stops := []EventStopInput{{LocationID: second.ID, Note: "new route"}}
	updated, err := svc.Update(ctx, event.Slug, host.ID, UpdateEventInput{Stops: &stops})
	require.NoError(t, err)
	require.Len(t, updated.Locations, 1)
	require.Equal(t, second.ID, updated.Locations[0].LocationID)
	require.Equal(t, "new route", updated.Locations[0].Note)
}

func TestSoftDeleteHidesEvent(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	other := seedUser(t, db, "other")
	event := seedEvent(t, db, host, models.VisibilityOpen)

	require.ErrorIs(t, svc.SoftDelete(ctx, event.Slug, other.ID), ErrNotHost)
	require.NoError(t, svc.SoftDelete(ctx, event.Slug, host.ID))

	_, err := svc.GetBySlug(ctx, event.Slug, host.ID)
	require.ErrorIs(t, err, ErrEventNotFound)

	// The tombstoned row survives in storage.
	var stored models.Event
	require.NoError(t, db.Take(&stored, "id = ?", event.ID).Error)
	require.True(t, stored.IsDeleted)

	events, _, err := svc.List(ctx, ListEventsOptions{})
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestListFiltersAndSearch(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	walker := seedUser(t, db, "walker")
	rider := seedUser(t, db, "rider")
	open := seedEvent(t, db, walker, models.VisibilityOpen)
	gated := seedEvent(t, db, rider, models.VisibilityInvite)
	seedEvent(t, db, rider, models.VisibilityPrivate)

	events, total, err := svc.List(ctx, ListEventsOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, events, 2)

	events, _, err = svc.List(ctx, ListEventsOptions{
		Filters: EventFilters{Visibility: models.VisibilityOpen},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, open.ID, events[0].ID)

	// Search matches host usernames as well as titles.
	events, _, err = svc.List(ctx, ListEventsOptions{
		Filters: EventFilters{Query: "rider"},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, gated.ID, events[0].ID)

	_, _, err = svc.List(ctx, ListEventsOptions{
		Filters: EventFilters{Visibility: models.VisibilityPrivate},
	})
	require.Error(t, err)
}

func TestShareCodeRoundTrip(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newEventService(t, db)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	event := seedEvent(t, db, host, models.VisibilityOpen)

	code, err := svc.ShareCode(event)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	resolved, err := svc.ResolveShareCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, event.ID, resolved.ID)

	_, err = svc.ResolveShareCode(ctx, "!!bad!!")
	require.Error(t, err)

	require.NoError(t, svc.SoftDelete(ctx, event.Slug, host.ID))
	_, err = svc.ResolveShareCode(ctx, code)
	require.ErrorIs(t, err, ErrEventNotFound)
}
