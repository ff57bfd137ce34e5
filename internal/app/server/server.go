package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/TrackDesk/internal/app/repository"
	"github.com/sifan077/TrackDesk/internal/app/service"
	inthttp "github.com/sifan077/TrackDesk/internal/http/handler"
	"github.com/sifan077/TrackDesk/internal/http/middleware"
	"github.com/sifan077/TrackDesk/internal/http/util"
	"go.uber.org/zap"
)

// Dependencies bundles the services and infrastructure required by the HTTP server.
type Dependencies struct {
	Logger   *zap.Logger
	AppTitle string
	Pages    service.PageService
	// Redis backs the rate limiter; nil falls back to an in-process limiter.
	Redis     *redis.Client
	RateLimit middleware.RateLimitConfig
	Sessions  *util.SessionSigner
	Cookie    middleware.SessionConfig
	Incidents middleware.IncidentCounter
	// History is optional; /api/history is only mounted when set.
	History repository.LookupEventRepository
	Checks  []inthttp.Check
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "TrackDesk",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	log := s.deps.Logger

	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(log, s.deps.Incidents),
		middleware.Logger(log),
	)

	inthttp.NewHealthHandler(log, s.deps.Checks...).Register(s.app)

	if s.deps.History != nil {
		api := s.app.Group("/api", middleware.CORS())
		inthttp.NewHistoryHandler(log, s.deps.History).Register(api)
	}

	// mounted last so health and api requests never reach the session cookie
	pages := s.app.Group("", middleware.Session(s.deps.Sessions, s.deps.Cookie, log))
	inthttp.NewPageHandler(inthttp.PageDeps{
		Logger:   log,
		Pages:    s.deps.Pages,
		AppTitle: s.deps.AppTitle,
		Submit:   middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, log),
	}).Register(pages)
}
