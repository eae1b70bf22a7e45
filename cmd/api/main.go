package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mentorconnect/mentorconnect-api/config"
	"github.com/mentorconnect/mentorconnect-api/internal/cache"
	"github.com/mentorconnect/mentorconnect-api/internal/handlers"
	"github.com/mentorconnect/mentorconnect-api/internal/identity"
	"github.com/mentorconnect/mentorconnect-api/internal/live"
	"github.com/mentorconnect/mentorconnect-api/internal/middleware"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	"github.com/mentorconnect/mentorconnect-api/internal/search"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	"github.com/mentorconnect/mentorconnect-api/pkg/db"
	"github.com/mentorconnect/mentorconnect-api/pkg/httpclient"
	"github.com/mentorconnect/mentorconnect-api/pkg/jwt"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/mentorconnect/mentorconnect-api/pkg/profiling"
	"github.com/mentorconnect/mentorconnect-api/pkg/storage"
	"github.com/mentorconnect/mentorconnect-api/pkg/tracing"
)

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:           cfg.Database.URL,
		MaxConns:      cfg.Database.MaxConns,
		MinConns:      cfg.Database.MinConns,
		CACertPath:    cfg.Database.CACertPath,
		TLSServerName: cfg.Database.TLSServerName,
	}
}

// registerAPIRoutes registers the authenticated /api/v1 routes
func registerAPIRoutes(
	group *gin.RouterGroup,
	cfg *config.Config,
	limiter *middleware.RateLimiter,
	h apiHandlers,
) {
	group.Use(limiter.Middleware())

	group.GET("/me", h.profile.Me)
	group.GET("/profile", h.profile.GetOwnProfile)
	group.POST("/profile", middleware.BodySizeLimitMiddleware(100*1024), h.profile.CreateProfile)
	group.PATCH("/profile", middleware.BodySizeLimitMiddleware(100*1024), h.profile.UpdateProfile)
	group.POST("/profile/avatar", middleware.BodySizeLimitMiddleware(cfg.Server.MaxBodyBytes), h.profile.UploadAvatar)
	group.GET("/profiles/:id", h.profile.GetProfile)
	group.GET("/mentors", h.profile.SearchMentors)

	group.GET("/mentorships", h.mentorships.ListRelationships)
	group.POST("/mentorships", h.mentorships.AddRelationship)
	group.POST("/mentorships/:id/status", h.mentorships.SetRelationshipStatus)
	group.POST("/mentorships/:id/messages", middleware.BodySizeLimitMiddleware(64*1024), h.messages.SendMessage)

	group.GET("/sessions", h.sessions.ListSessions)
	group.POST("/sessions", h.sessions.CreateSession)
	group.PATCH("/sessions/:id", h.sessions.UpdateSession)
	group.POST("/sessions/:id/rating", h.sessions.RateSession)

	group.GET("/messages", h.messages.ListMessages)
	group.POST("/messages/:id/read", h.messages.MarkAsRead)

	group.GET("/stats", h.stats.GetStats)
	group.POST("/logs", middleware.BodySizeLimitMiddleware(1024*1024), h.clientLogs.ReceiveClientLogs)

	group.GET("/live", h.live.Serve)
}

type apiHandlers struct {
	profile     *handlers.ProfileHandler
	mentorships *handlers.MentorshipHandler
	sessions    *handlers.SessionHandler
	messages    *handlers.MessageHandler
	stats       *handlers.StatsHandler
	clientLogs  *handlers.ClientLogsHandler
	live        *handlers.LiveHandler
}

// invalidateProfiles drops cached profiles whenever the change feed reports
// a profile write, including writes made by other instances
func invalidateProfiles(ctx context.Context, hub *realtime.Hub, profiles *cache.ProfileCache) {
	sub := hub.Subscribe(func(ev realtime.ChangeEvent) bool {
		return ev.Table == realtime.TableProfiles || ev.Op == realtime.OpResync
	})
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.Op == realtime.OpResync {
				profiles.Flush()
				continue
			}
			if id := ev.Field("id"); id != "" {
				profiles.Invalidate(id)
			}
		}
	}
}

// reindexMentors pushes every mentor profile to the search index at startup
func reindexMentors(ctx context.Context, profiles *repository.ProfileRepository, directory *search.Directory) {
	mentors, err := profiles.ListMentors(ctx)
	if err != nil {
		logger.Error("Failed to list mentors for reindex", zap.Error(err))
		return
	}
	if err := directory.Reindex(ctx, mentors); err != nil {
		logger.Error("Failed to rebuild search index", zap.Error(err))
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MentorConnect API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
		cfg.Observability.TraceSampleRatio,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, profiling.Labels{
		Service:     cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		Instance:    cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(poolConfig(cfg), cfg.Database.MigrationsPath, db.Up); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	profileRepo := repository.NewProfileRepository(pool)
	mentorshipRepo := repository.NewMentorshipRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	var profiles repository.ProfileStore = profileRepo
	profileCache := cache.NewProfileCache(profileRepo, cfg.Cache.ProfileTTLSeconds)
	if cfg.Cache.DisableProfileCache {
		logger.Warn("Profile cache is DISABLED - reading from database on every request")
	} else {
		profiles = profileCache
	}

	// Change feed
	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer)
	defer hub.Close()
	listener := realtime.NewListener(func(dialCtx context.Context) (realtime.NotificationConn, error) {
		conn, err := db.Connect(dialCtx, poolConfig(cfg))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, cfg.Realtime.NotifyChannel, hub)
	go listener.Run(ctx)
	go invalidateProfiles(ctx, hub, profileCache)

	// Notifications fan out through Redis when configured so every instance
	// can reach a principal's sockets
	var notifier realtime.Notifier = realtime.NewLocalNotifier()
	if cfg.Realtime.RedisURL != "" {
		broker, err := realtime.NewRedisPubSub(ctx, cfg.Realtime.RedisURL)
		if err != nil {
			logger.Error("Redis unavailable, notifications stay local to this instance", zap.Error(err))
		} else {
			defer broker.Close()
			notifier = realtime.NewRedisNotifier(broker, cfg.Realtime.NotificationPrefix)
		}
	}

	// Object storage for avatars
	var avatars services.AvatarStorage
	if cfg.Storage.BucketName != "" {
		client, err := storage.NewClient(storage.Config{
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.BucketName,
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			logger.Fatal("Failed to initialize object storage client", zap.Error(err))
		}
		avatars = client
	} else {
		logger.Warn("Avatar uploads disabled: STORAGE_BUCKET_NAME not configured")
	}

	// Mentor search: Meilisearch when configured, Postgres ILIKE otherwise
	var primarySearch search.Backend
	if cfg.Search.MeilisearchHost != "" {
		primarySearch = search.NewMeiliBackend(cfg.Search.MeilisearchHost, cfg.Search.MeilisearchAPIKey, cfg.Search.MentorsIndex)
	}
	directory := search.NewDirectory(primarySearch, search.NewPostgresBackend(profiles))
	if primarySearch != nil {
		go reindexMentors(ctx, profileRepo, directory)
	}

	// Services
	webhookTimeout := time.Duration(cfg.Webhooks.TimeoutSeconds) * time.Second
	announcer := services.NewAnnouncer(notifier, httpclient.NewStandardClient(webhookTimeout), cfg.Webhooks)
	profileService := services.NewProfileService(profiles, avatars, directory, announcer)
	mentorshipService := services.NewMentorshipService(mentorshipRepo, profiles, announcer, cfg.Features.MenteeSeesPending)
	sessionService := services.NewSessionService(sessionRepo, mentorshipRepo, ratingRepo, announcer)
	messageService := services.NewMessageService(messageRepo, mentorshipRepo, announcer, cfg.Features.MessagesPageSize)
	statsService := services.NewStatsService(statsRepo, profiles)

	// Handlers
	h := apiHandlers{
		profile:     handlers.NewProfileHandler(profileService),
		mentorships: handlers.NewMentorshipHandler(mentorshipService),
		sessions:    handlers.NewSessionHandler(sessionService),
		messages:    handlers.NewMessageHandler(messageService),
		stats:       handlers.NewStatsHandler(statsService),
		clientLogs:  handlers.NewClientLogsHandler(),
		live: handlers.NewLiveHandler(hub, live.Services{
			Mentorships: mentorshipService,
			Sessions:    sessionService,
			Messages:    messageService,
			Stats:       statsService,
		}, profileService, notifier, handlers.LiveConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			WriteTimeout:   cfg.Realtime.WSWriteTimeout,
			PingInterval:   cfg.Realtime.WSPingInterval,
			EnableFallback: cfg.Features.EnableFallbackData,
		}),
	}
	healthHandler := handlers.NewHealthHandler(pool.Ping, listener.State)

	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTLHours)
	resolver := identity.NewResolver(tokenManager, profiles, models.Role(cfg.Auth.DefaultPrincipalR), cfg.Auth.RequireVerified)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	generalRateLimiter := middleware.NewRateLimiter(ctx, rate.Limit(cfg.Server.RateLimitPerSecond), cfg.Server.RateLimitBurst)
	opsRateLimiter := middleware.NewRateLimiter(ctx, 10, 20)

	// Utility endpoints (not versioned)
	api := router.Group("/api")
	api.GET("/healthcheck", opsRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", opsRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequestTimeoutMiddleware(cfg.RequestTimeout()))
	v1.Use(middleware.PrincipalMiddleware(resolver, middleware.TokenSource{
		AllowQuery: cfg.Auth.AllowQueryToken,
		QueryParam: cfg.Auth.TokenQueryParam,
	}))
	registerAPIRoutes(v1, cfg, generalRateLimiter, h)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		// No Read/WriteTimeout: they would cut long-lived /live sockets.
		// REST handlers are bounded by RequestTimeoutMiddleware instead.
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
