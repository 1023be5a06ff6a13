package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"club-system/config"
	"club-system/handlers"
	_ "club-system/migrations"
	"club-system/monitoring"
	"club-system/security"
	"club-system/services"
	"club-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	store := services.NewRecordEventStore(app)
	eventCache := services.NewEventCache(redisClient, cfg.EventCacheTTL)
	notifier := services.NewNotifier(app, pn)
	reservationService := services.NewReservationService(store, eventCache, notifier, cfg.TransactionAttempts)
	eventService := services.NewEventService(store, eventCache)
	memberService := services.NewMemberService(app)
	presenceService := services.NewPresenceService(redisClient, cfg.PresenceTTL)

	// Initialize handlers
	reservationHandler := handlers.NewReservationHandler(reservationService, memberService)
	adminHandler := handlers.NewAdminHandler(reservationService, eventService, memberService)
	eventHandler := handlers.NewEventHandler(eventService)
	presenceHandler := handlers.NewPresenceHandler(presenceService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	if cfg.EnableMetrics {
		monitor := monitoring.NewMonitor(services.NewRosterStats(app), cfg.MetricsInterval)
		go monitor.Run(ctx)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Event endpoints
		e.Router.GET("/api/v1/events", eventHandler.ListOpen)
		e.Router.GET("/api/v1/events/{eventId}", eventHandler.Get)
		e.Router.POST("/api/v1/events/{eventId}/reviews", eventHandler.SaveReview)

		// Reservation endpoints
		e.Router.POST("/api/v1/events/{eventId}/reserve", reservationHandler.Reserve).
			BindFunc(rateLimiter.Middleware())
		e.Router.POST("/api/v1/events/{eventId}/cancel", reservationHandler.Cancel).
			BindFunc(rateLimiter.Middleware())

		// Presence endpoints
		e.Router.POST("/api/v1/presence/heartbeat", presenceHandler.Heartbeat)
		e.Router.DELETE("/api/v1/presence", presenceHandler.Offline)
		e.Router.GET("/api/v1/presence/online", presenceHandler.Online)

		// Admin endpoints
		e.Router.POST("/api/v1/admin/events", eventHandler.Create)
		e.Router.PATCH("/api/v1/admin/events/{eventId}", eventHandler.Update)
		e.Router.POST("/api/v1/admin/events/{eventId}/archive", eventHandler.Archive)
		e.Router.POST("/api/v1/admin/events/{eventId}/unarchive", eventHandler.Unarchive)
		e.Router.DELETE("/api/v1/admin/events/{eventId}", eventHandler.Delete)
		e.Router.POST("/api/v1/admin/events/{eventId}/participants", adminHandler.AddParticipant)
		e.Router.DELETE("/api/v1/admin/events/{eventId}/participants/{studentId}", adminHandler.RemoveParticipant)
		e.Router.GET("/api/v1/admin/roster-dashboard", adminHandler.RosterDashboard)

		// Monitoring
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app, eventCache)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// setupEventHooks keeps the redis cache honest when event records change
// through PocketBase's own REST or admin UI instead of our handlers.
func setupEventHooks(app *pocketbase.PocketBase, cache *services.EventCache) {
	app.OnRecordUpdateRequest("events").BindFunc(func(e *core.RecordRequestEvent) error {
		cache.Invalidate(e.Request.Context(), e.Record.Id)
		slog.Info("Invalidated event cache after record update", "eventID", e.Record.Id)
		return e.Next()
	})

	app.OnRecordDeleteRequest("events").BindFunc(func(e *core.RecordRequestEvent) error {
		cache.Invalidate(e.Request.Context(), e.Record.Id)
		slog.Info("Invalidated event cache after record delete", "eventID", e.Record.Id)
		return e.Next()
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
