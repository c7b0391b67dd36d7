package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/LinkDesk/internal/app/service"
	inthttp "github.com/sifan077/LinkDesk/internal/http/handler"
	"github.com/sifan077/LinkDesk/internal/http/middleware"
	infraNATS "github.com/sifan077/LinkDesk/internal/infra/nats"
	infraRedis "github.com/sifan077/LinkDesk/internal/infra/redis"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	NATS     *nats.Conn

	Store        *service.ModerationStore
	Uploader     service.ImageUploader
	UploadFolder string
	Visits       inthttp.VisitPublisher
	// Themes enables /api/themes and /api/theme when set.
	Themes *service.ThemeStore

	// AllowedEmails gates /api; empty leaves it open.
	AllowedEmails []string
	CORSOrigins   []string
	RateLimit     middleware.RateLimitConfig
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:   "LinkDesk",
		BodyLimit: 32 << 20,
		// Handlers hand request values to the store cache and to goroutines.
		Immutable:    true,
		ErrorHandler: errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application, mainly for tests.
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

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS(s.deps.CORSOrigins...))
}

func (s *Server) registerRoutes() {
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger: s.deps.Logger,
		URLs:   s.deps.Store,
		Visits: s.deps.Visits,
		Checks: s.readyChecks(),
	})

	var observers []middleware.AuthObserver
	if s.deps.Themes != nil {
		observers = append(observers, s.deps.Themes)
	}

	api := s.app.Group("/api", middleware.AllowList(s.deps.AllowedEmails, s.deps.Logger, observers...))
	if s.deps.Redis != nil {
		api.Use(middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, s.deps.Logger))
	}

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:       s.deps.Logger,
		Store:        s.deps.Store,
		Uploader:     s.deps.Uploader,
		UploadFolder: s.deps.UploadFolder,
	})
	apiHandler.Register(api)

	if s.deps.Themes != nil {
		inthttp.NewThemeHandler(inthttp.ThemeDeps{
			Logger: s.deps.Logger,
			Themes: s.deps.Themes,
		}).Register(api)
	}

	redirectHandler.Register(s.app)
}

func (s *Server) readyChecks() map[string]inthttp.ReadyCheck {
	checks := make(map[string]inthttp.ReadyCheck)
	if s.deps.Postgres != nil {
		checks["postgres"] = s.deps.Postgres.Ping
	}
	if s.deps.Redis != nil {
		checks["redis"] = infraRedis.ReadyCheck(s.deps.Redis)
	}
	if s.deps.NATS != nil {
		checks["nats"] = infraNATS.ReadyCheck(s.deps.NATS)
	}
	return checks
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
