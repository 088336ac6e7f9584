package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/app"
	iauth "github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/cache"
	"github.com/gatherly/gatherly/internal/handlers"
	"github.com/gatherly/gatherly/internal/locations"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.RateLimit.Enabled && cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.Window > 0 {
		store := middleware.NewDatabaseRateStore(cache.NewDatabaseStore(db))
		r.Use(middleware.RateLimit(store, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
	}

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	catalog, err := locations.NewGormCatalog(db)
	if err != nil {
		return nil, err
	}
	eventSvc, err := services.NewEventService(db, catalog, auditSvc)
	if err != nil {
		return nil, err
	}
	membershipSvc, err := services.NewMembershipService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	joinRequestSvc, err := services.NewJoinRequestService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	chatSvc, err := services.NewChatService(db)
	if err != nil {
		return nil, err
	}
	directChatSvc, err := services.NewDirectChatService(db)
	if err != nil {
		return nil, err
	}
	favoriteSvc, err := services.NewFavoriteService(db)
	if err != nil {
		return nil, err
	}
	reportSvc, err := services.NewReportService(db, auditSvc)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(userSvc, jwt)
	eventHandler := handlers.NewEventHandler(eventSvc, membershipSvc)
	inviteHandler := handlers.NewInviteHandler(eventSvc, membershipSvc)
	joinRequestHandler := handlers.NewJoinRequestHandler(eventSvc, joinRequestSvc)
	chatHandler := handlers.NewChatHandler(eventSvc, chatSvc)
	directChatHandler := handlers.NewDirectChatHandler(eventSvc, directChatSvc)
	favoriteHandler := handlers.NewFavoriteHandler(eventSvc, favoriteSvc)
	reportHandler := handlers.NewReportHandler(reportSvc)
	searchHandler := handlers.NewSearchHandler(catalog, userSvc)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	events := api.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.POST("", eventHandler.Create)
		events.GET("/:slug", eventHandler.Get)
		events.PUT("/:slug", eventHandler.Update)
		events.DELETE("/:slug", eventHandler.Delete)
		events.GET("/:slug/attendees", eventHandler.Attendees)

		events.POST("/:slug/join", inviteHandler.Join)
		events.POST("/:slug/leave", inviteHandler.Leave)
		events.POST("/:slug/invites", inviteHandler.Create)
		events.POST("/:slug/invites/accept", inviteHandler.Accept)
		events.POST("/:slug/invites/decline", inviteHandler.Decline)

		events.GET("/:slug/join-requests", joinRequestHandler.ListPending)
		events.POST("/:slug/join-requests", joinRequestHandler.Create)
		events.POST("/:slug/join-requests/:id/approve", joinRequestHandler.Approve)
		events.POST("/:slug/join-requests/:id/decline", joinRequestHandler.Decline)

		events.GET("/:slug/chat", chatHandler.List)
		events.POST("/:slug/chat", chatHandler.Post)

		events.POST("/:slug/direct-chats", directChatHandler.Open)

		events.PUT("/:slug/favorite", favoriteHandler.Add)
		events.DELETE("/:slug/favorite", favoriteHandler.Remove)
	}

	api.GET("/share/:code", eventHandler.ResolveShareCode)
	api.GET("/invitations", inviteHandler.Inbox)
	api.GET("/favorites", favoriteHandler.List)

	chats := api.Group("/direct-chats")
	{
		chats.GET("", directChatHandler.List)
		chats.GET("/:id/messages", directChatHandler.Messages)
		chats.POST("/:id/messages", directChatHandler.Send)
		chats.POST("/:id/leave", directChatHandler.Leave)
		chats.DELETE("/:id", directChatHandler.Delete)
	}

	api.POST("/chat-messages/:id/reports", reportHandler.Create)
	api.GET("/reports", reportHandler.ListPending)
	api.POST("/reports/:id/review", reportHandler.Review)

	api.GET("/locations", searchHandler.Locations)
	api.GET("/users", searchHandler.Users)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
