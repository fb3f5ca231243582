// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/service"
	"inkwell/internal/session"
	"inkwell/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
)

// defaultOrigins is used when ALLOWED_ORIGINS is empty or a wildcard, which
// credentialed CORS does not allow.
const defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Options tune a Server beyond what Config carries.
type Options struct {
	// HashCost is the bcrypt cost for new passwords. Zero uses the bcrypt default.
	HashCost int
	// DisableRateLimits turns off the per-route limiters and the global limiter.
	DisableRateLimits bool
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config      *config.Config
	store       *store.Store
	app         *fiber.App
	prom        *fiberprometheus.FiberPrometheus
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	codec        *session.Codec
	auth         *middleware.Authenticator
	limiter      *middleware.RateLimiter
	featureFlags *featureflags.Manager
	hub          *notifications.Hub
	notifier     *notifications.Notifier
	tickets      *ticketStore
	globalLimit  bool

	authService    *service.AuthService
	postService    *service.PostService
	userService    *service.UserService
	followService  *service.FollowService
	messageService *service.MessageService
}

// NewServer builds a Server over an opened store.
func NewServer(cfg *config.Config, st *store.Store, opts Options) *Server {
	codec := session.NewCodec(cfg, st.Redis)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	hub := notifications.NewHub(st.Redis)
	notifier := notifications.NewNotifier(st.Redis, hub)

	policy := middleware.FailClosed
	if cfg.RateLimitFailOpen {
		policy = middleware.FailOpen
	}

	s := &Server{
		config:       cfg,
		store:        st,
		codec:        codec,
		auth:         middleware.NewAuthenticator(codec),
		limiter:      middleware.NewRateLimiter(st.Redis, policy, opts.DisableRateLimits),
		featureFlags: flags,
		hub:          hub,
		notifier:     notifier,
		tickets:      newTicketStore(st.Redis),
		globalLimit:  !opts.DisableRateLimits,
	}

	var messageNotifier service.MessageNotifier
	if flags.Global(featureflags.RealtimeMessages) {
		messageNotifier = notifier
	}

	s.authService = service.NewAuthService(st.Users, codec, opts.HashCost)
	s.postService = service.NewPostService(st.Posts, st.Users)
	s.userService = service.NewUserService(st.Users, st.Posts, st.Follows)
	s.followService = service.NewFollowService(st.Follows, st.Users)
	s.messageService = service.NewMessageService(st.Conversations, st.Users, messageNotifier)
	return s
}

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide HTTP collector. It registers with the
// default Prometheus registry, which only accepts each metric once.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(observability.ServiceName)
	})
	return prom
}

// App builds the Fiber application with middleware and routes. It is
// separate from Start so tests can drive it with app.Test.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Inkwell API",
		BodyLimit: 2 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.app = app
	s.prom = httpMetrics()

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(s.prom.Middleware)
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" || origins == "*" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if s.globalLimit {
		app.Use(limiter.New(limiter.Config{
			Max:        300,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests. Please try again later.",
					Code:  "RATE_LIMITED",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	s.prom.RegisterAt(app, "/metrics")

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Inkwell Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/topics", s.GetTopics)

	optional := s.auth.Optional()
	required := s.auth.Required()

	auth := api.Group("/auth")
	auth.Post("/check-email", s.CheckEmail)
	auth.Post("/register", s.limiter.Handler("register", 5, 10*time.Minute), s.Register)
	auth.Post("/login", s.limiter.Handler("login", 10, 5*time.Minute), s.Login)
	auth.Post("/logout", optional, s.Logout)
	auth.Get("/session", optional, s.Session)
	auth.Post("/password-strength", s.PasswordStrength)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Get("/id/:id", optional, s.GetPostByID)
	posts.Get("/:slug", optional, s.GetPost)
	posts.Post("/", required, s.limiter.Handler("create_post", 10, 10*time.Minute), s.CreatePost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	// Specific /users routes before the generic /:username
	users := api.Group("/users")
	users.Get("/search", s.SearchUsers)
	users.Get("/:username/posts", optional, s.GetUserPosts)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
	users.Get("/:username/follow", required, s.CheckFollowing)
	users.Post("/:username/follow", required, s.limiter.Handler("follow", 30, time.Minute), s.FollowUser)
	users.Delete("/:username/follow", required, s.UnfollowUser)
	users.Get("/:username", optional, s.GetUserProfile)

	me := api.Group("/me", required)
	me.Get("/", s.GetMyProfile)
	me.Get("/posts", s.GetMyPosts)
	me.Get("/stats", s.GetMyFollowStats)
	me.Put("/profile", s.UpdateMyProfile)
	me.Put("/avatar", s.limiter.Handler("avatar", 10, 10*time.Minute), s.UpdateMyAvatar)
	me.Delete("/avatar", s.DeleteMyAvatar)

	conversations := api.Group("/conversations", required)
	conversations.Get("/", s.GetConversations)
	conversations.Post("/", s.StartConversation)
	conversations.Get("/unread", s.GetUnreadCount)
	conversations.Post("/:id/messages", s.limiter.Handler("send_message", 30, time.Minute), s.SendMessage)
	conversations.Get("/:id", s.GetConversation)

	api.Get("/feature-flags", required, s.GetFeatureFlags)

	api.Post("/ws/ticket", required, s.requireRealtime, s.IssueWSTicket)
	api.Get("/ws", s.wsAuth(), s.requireRealtime, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only a configured but unreachable Redis makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.store.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.store.Redis != nil {
		redisStatus = "healthy"
		if err := s.store.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"connections": s.hub.ConnectionCount(),
		"time":        time.Now(),
	})
}

// Start wires realtime delivery and listens until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()
	if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
		observability.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
	}

	observability.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes websocket connections. The
// store is owned by the caller and closed separately.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	observability.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
