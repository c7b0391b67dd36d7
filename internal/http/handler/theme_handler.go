package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/sifan077/LinkDesk/internal/http/middleware"
	"go.uber.org/zap"
)

// ThemeDeps groups dependencies required by theme handlers.
type ThemeDeps struct {
	Logger *zap.Logger
	Themes *service.ThemeStore
}

// ThemeHandler serves the shared themes and the caller's own preference.
type ThemeHandler struct {
	logger *zap.Logger
	themes *service.ThemeStore
}

// NewThemeHandler creates a theme handler.
func NewThemeHandler(deps ThemeDeps) *ThemeHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThemeHandler{logger: logger, themes: deps.Themes}
}

// Register wires theme routes onto the provided router.
func (h *ThemeHandler) Register(router fiber.Router) {
	router.Get("/themes", h.ListThemes)
	router.Post("/themes", h.SaveTheme)
	router.Get("/theme", h.GetTheme)
	router.Put("/theme", h.ApplyTheme)
	router.Delete("/theme", h.ResetTheme)
}

// ListThemes handles GET /api/themes
func (h *ThemeHandler) ListThemes(c *fiber.Ctx) error {
	themes, err := h.themes.SavedThemes(c.UserContext(), userEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"themes": themes,
		"count":  len(themes),
	})
}

// SaveTheme handles POST /api/themes
func (h *ThemeHandler) SaveTheme(c *fiber.Ctx) error {
	var req SaveThemeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	theme, err := h.themes.SaveTheme(c.UserContext(), userEmail(c), utils.CopyString(req.Name))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(theme)
}

// GetTheme handles GET /api/theme
func (h *ThemeHandler) GetTheme(c *fiber.Ctx) error {
	pref, err := h.themes.Current(c.UserContext(), userEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pref)
}

// ApplyTheme handles PUT /api/theme
func (h *ThemeHandler) ApplyTheme(c *fiber.Ctx) error {
	email := userEmail(c)
	if email == "" {
		return unauthorized(c)
	}

	var req ApplyThemeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	palette := req.Palette
	for _, f := range palette.Fields() {
		*f.Value = utils.CopyString(*f.Value)
	}

	pref, err := h.themes.Apply(c.UserContext(), email, utils.CopyString(req.Name), palette)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pref)
}

// ResetTheme handles DELETE /api/theme
func (h *ThemeHandler) ResetTheme(c *fiber.Ctx) error {
	email := userEmail(c)
	if email == "" {
		return unauthorized(c)
	}

	pref, err := h.themes.Reset(c.UserContext(), email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pref)
}

func userEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(middleware.UserEmailKey).(string)
	return email
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "authentication required",
	})
}
