package handlers

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/database/testutil"
	"github.com/gatherly/gatherly/internal/locations"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type handlerStack struct {
	db          *gorm.DB
	events      *services.EventService
	memberships *services.MembershipService
	chat        *services.ChatService
	users       *services.UserService
}

func newHandlerStack(t *testing.T) *handlerStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	catalog, err := locations.NewGormCatalog(db)
	require.NoError(t, err)
	events, err := services.NewEventService(db, catalog, nil)
	require.NoError(t, err)
	memberships, err := services.NewMembershipService(db, nil)
	require.NoError(t, err)
	chat, err := services.NewChatService(db)
	require.NoError(t, err)
	users, err := services.NewUserService(db, nil)
	require.NoError(t, err)

	return &handlerStack{db: db, events: events, memberships: memberships, chat: chat, users: users}
}

func (s *handlerStack) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func (s *handlerStack) seedLocation(t *testing.T, title string) *models.Location {
	t.Helper()
	loc := &models.Location{Title: title, Artist: "Test Artist"}
	require.NoError(t, s.db.Create(loc).Error)
	return loc
}

func (s *handlerStack) seedEvent(t *testing.T, host *models.User, visibility models.EventVisibility) *models.Event {
	t.Helper()
	loc := s.seedLocation(t, fmt.Sprintf("Seeded Stop %d", time.Now().UnixNano()))
	event, err := s.events.Create(nil, host.ID, services.CreateEventInput{
		Title:           "Gallery Walk",
		Visibility:      visibility,
		StartTime:       time.Now().Add(48 * time.Hour),
		StartLocationID: loc.ID,
	})
	require.NoError(t, err)
	return event
}

// asUser stamps the auth context keys the way the real middleware does.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserIDKey, user.ID)
		c.Set(middleware.CtxUsernameKey, user.Username)
		c.Next()
	}
}
