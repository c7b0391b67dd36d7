package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/metrics"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// URLLoader resolves a single URL record.
type URLLoader interface {
	Get(ctx context.Context, id string) (*model.URLRecord, error)
}

// VisitPublisher hands a visit off for asynchronous recording.
type VisitPublisher interface {
	Publish(urlID string, visitor *model.VisitorInfo) error
}

// ReadyCheck reports whether one backing dependency is reachable.
type ReadyCheck func(ctx context.Context) error

// RedirectDeps groups dependencies required by public handlers.
type RedirectDeps struct {
	Logger *zap.Logger
	URLs   URLLoader
	Visits VisitPublisher
	Checks map[string]ReadyCheck
}

// RedirectHandler serves health checks and the public redirect.
type RedirectHandler struct {
	logger *zap.Logger
	urls   URLLoader
	visits VisitPublisher
	checks map[string]ReadyCheck
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		urls:   deps.URLs,
		visits: deps.Visits,
		checks: deps.Checks,
	}
}

// Register wires public routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
	router.Get("/r/:id", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "LinkDesk",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready runs every registered dependency check.
func (h *RedirectHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := fiber.StatusOK
	results := make(fiber.Map, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	return c.Status(status).JSON(fiber.Map{
		"ready":  status == fiber.StatusOK,
		"checks": results,
	})
}

// Resolve handles GET /r/:id. Only approved records redirect.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "missing url id")
	}

	rec, err := h.urls.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if rec.Status != model.StatusApproved {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "url is not approved",
		})
	}

	if h.visits != nil {
		// fiber recycles the ctx and its buffers once the handler returns.
		info := visitorFromRequest(c)
		go h.publishVisit(utils.CopyString(id), info)
	}

	h.logger.Debug("redirecting", zap.String("id", id), zap.String("target", rec.Original))
	return c.Redirect(rec.Original, fiber.StatusFound)
}

func (h *RedirectHandler) publishVisit(id string, info *model.VisitorInfo) {
	if err := h.visits.Publish(id, info); err != nil {
		metrics.VisitEventsPublishedTotal.WithLabelValues("error").Inc()
		h.logger.Error("failed to publish visit event", zap.Error(err), zap.String("id", id))
		return
	}
	metrics.VisitEventsPublishedTotal.WithLabelValues("ok").Inc()
}

func visitorFromRequest(c *fiber.Ctx) *model.VisitorInfo {
	return &model.VisitorInfo{
		UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		Referrer:  utils.CopyString(c.Get(fiber.HeaderReferer)),
		IP:        utils.CopyString(c.IP()),
	}
}
