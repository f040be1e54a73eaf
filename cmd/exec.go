package cmd

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"eventify-api/config"
	"eventify-api/internal/handlers"
	"eventify-api/internal/services"
	"eventify-api/internal/store"
	_ "eventify-api/migrations"
	"eventify-api/monitoring"
	"eventify-api/security"
	"eventify-api/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional: the organizer check-in feed is skipped
	// when no keys are configured)
	var publisher services.CheckinPublisher
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		publisher = services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
	}

	// Initialize stores
	registrations := store.NewRegistrations(app)
	tickets := store.NewTickets(app)
	events := store.NewEvents(app)
	users := store.NewUsers(app)

	// Initialize services
	notifier := services.NewMailNotifier(app)
	ticketService := services.NewTicketService(tickets, events, registrations, users)
	registrationService := services.NewRegistrationService(registrations, events, users, ticketService)
	validationService := services.NewValidationService(tickets, events, registrations, users, notifier, publisher)

	// Initialize handlers
	registrationHandler := handlers.NewRegistrationHandler(app, registrationService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService, validationService)
	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start metrics server
	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", monitoring.Handler())

			slog.Info("metrics server listening", "port", cfg.MetricsPort)
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Registration endpoints (auth optional: guests may register and
		// confirm with the registration id alone)
		e.Router.POST("/api/registrations", registrationHandler.CreateRegistration)
		e.Router.POST("/api/registrations/{id}/confirm-payment", registrationHandler.ConfirmPayment)
		e.Router.GET("/api/registrations/my", registrationHandler.GetMyRegistrations).Bind(apis.RequireAuth())
		e.Router.GET("/api/registrations/event/{eventId}", registrationHandler.GetEventRegistrations).Bind(apis.RequireAuth())

		// Ticket endpoints
		e.Router.GET("/api/tickets/my", ticketHandler.GetMyTickets).Bind(apis.RequireAuth())
		e.Router.GET("/api/tickets/{id}", ticketHandler.GetTicketDetails).Bind(apis.RequireAuth())
		e.Router.POST("/api/tickets/validate", ticketHandler.ValidateTicket).
			Bind(apis.RequireAuth()).
			BindFunc(rateLimiter.ScanRateLimit(cfg.ScanRateLimit, cfg.ScanRateWindow))

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}
