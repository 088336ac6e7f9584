package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/database/testutil"
	"github.com/gatherly/gatherly/internal/locations"
	"github.com/gatherly/gatherly/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedModerator(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := seedUser(t, db, username)
	user.IsModerator = true
	require.NoError(t, db.Model(user).Update("is_moderator", true).Error)
	return user
}

func seedLocation(t *testing.T, db *gorm.DB, title string) *models.Location {
	t.Helper()

	location := &models.Location{Title: title, Artist: "Test Artist"}
	require.NoError(t, db.Create(location).Error)
	return location
}

// seedEvent writes an event row plus its host membership directly, bypassing
// EventService, so workflow tests do not depend on the creation pipeline.
func seedEvent(t *testing.T, db *gorm.DB, host *models.User, visibility models.EventVisibility) *models.Event {
	t.Helper()

	location := seedLocation(t, db, "Start point for "+host.Username)
	event := &models.Event{
		Slug:            makeSlug("gathering by " + host.Username),
		Title:           "Gathering by " + host.Username,
		HostID:          host.ID,
		Visibility:      visibility,
		StartTime:       time.Now().Add(48 * time.Hour),
		StartLocationID: location.ID,
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, db.Create(&models.EventMembership{
		EventID: event.ID,
		UserID:  host.ID,
		Role:    models.RoleHost,
	}).Error)
	return event
}

func seedAttendee(t *testing.T, db *gorm.DB, event *models.Event, user *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.EventMembership{
		EventID: event.ID,
		UserID:  user.ID,
		Role:    models.RoleAttendee,
	}).Error)
}

func newEventService(t *testing.T, db *gorm.DB) *EventService {
	t.Helper()

	catalog, err := locations.NewGormCatalog(db)
	require.NoError(t, err)
	svc, err := NewEventService(db, catalog, nil)
	require.NoError(t, err)
	return svc
}
