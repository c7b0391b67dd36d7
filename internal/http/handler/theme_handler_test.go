package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/repository"
	"github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/sifan077/LinkDesk/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type themeFixture struct {
	app  *fiber.App
	repo *repository.MemoryThemeRepository
}

func newThemeFixture(t *testing.T) *themeFixture {
	t.Helper()

	repo := repository.NewMemoryThemeRepository()
	themes := service.NewThemeStore(service.ThemeDeps{Repo: repo})

	app := fiber.New()
	api := app.Group("/api", middleware.AllowList(nil, zap.NewNop(), themes))
	NewThemeHandler(ThemeDeps{Themes: themes}).Register(api)

	return &themeFixture{app: app, repo: repo}
}

func (f *themeFixture) do(t *testing.T, req *http.Request, email string) (int, []byte) {
	t.Helper()
	if email != "" {
		req.Header.Set(middleware.UserEmailHeader, email)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	var body json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestGetThemeDefaultsForAnonymous(t *testing.T) {
	f := newThemeFixture(t)

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/theme", nil), "")
	require.Equal(t, fiber.StatusOK, status)

	var pref model.UserTheme
	require.NoError(t, json.Unmarshal(body, &pref))
	assert.Equal(t, model.DefaultThemeName, pref.Name)
	assert.Equal(t, service.DefaultPalette, pref.Palette)
}

func TestApplyThemeRequiresEmail(t *testing.T) {
	f := newThemeFixture(t)

	status, _ := f.do(t, jsonRequest(t, http.MethodPut, "/api/theme", ApplyThemeRequest{Name: "Night"}), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/theme", nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestApplyThemeRoundTrip(t *testing.T) {
	f := newThemeFixture(t)

	req := jsonRequest(t, http.MethodPut, "/api/theme", ApplyThemeRequest{
		Name:    "Night",
		Palette: model.Palette{Primary: "#000000", Text: "#ffffff"},
	})
	status, body := f.do(t, req, "Mod@Example.com")
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/theme", nil), "mod@example.com")
	require.Equal(t, fiber.StatusOK, status)

	var pref model.UserTheme
	require.NoError(t, json.Unmarshal(body, &pref))
	assert.Equal(t, "mod@example.com", pref.UserEmail)
	assert.Equal(t, "Night", pref.Name)
	assert.Equal(t, "#000000", pref.Primary)
	assert.Equal(t, "#ffffff", pref.Text)
	assert.Equal(t, service.DefaultPalette.Accent, pref.Accent)

	status, body = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/theme", nil), "mod@example.com")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &pref))
	assert.Equal(t, service.DefaultPalette, pref.Palette)

	stored, err := f.repo.GetUserTheme(context.Background(), "mod@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultThemeName, stored.Name)
}

func TestApplyThemeRejectsInvalidColor(t *testing.T) {
	f := newThemeFixture(t)

	req := jsonRequest(t, http.MethodPut, "/api/theme", ApplyThemeRequest{
		Palette: model.Palette{Background: "red"},
	})
	status, _ := f.do(t, req, "mod@example.com")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSaveAndListThemes(t *testing.T) {
	f := newThemeFixture(t)

	status, _ := f.do(t, jsonRequest(t, http.MethodPost, "/api/themes", SaveThemeRequest{Name: "   "}), "mod@example.com")
	assert.Equal(t, fiber.StatusBadRequest, status)

	req := jsonRequest(t, http.MethodPut, "/api/theme", ApplyThemeRequest{
		Name:    "Mine",
		Palette: model.Palette{Primary: "#336699"},
	})
	status, _ = f.do(t, req, "mod@example.com")
	require.Equal(t, fiber.StatusOK, status)

	status, body := f.do(t, jsonRequest(t, http.MethodPost, "/api/themes", SaveThemeRequest{Name: " Ocean "}), "mod@example.com")
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var saved model.Theme
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Ocean", saved.Name)
	assert.Equal(t, "#336699", saved.Primary)
	assert.Equal(t, "mod@example.com", saved.OwnerEmail)

	var list struct {
		Themes []model.Theme `json:"themes"`
		Count  int           `json:"count"`
	}

	status, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/themes", nil), "mod@example.com")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Ocean", list.Themes[0].Name)
	assert.Equal(t, "Mine", list.Themes[1].Name)
	assert.True(t, list.Themes[1].UserTheme)

	status, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/themes", nil), "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)
}

func TestSignInLoadsStoredTheme(t *testing.T) {
	f := newThemeFixture(t)
	require.NoError(t, f.repo.SaveUserTheme(context.Background(), &model.UserTheme{
		UserEmail: "mod@example.com",
		Name:      "Stored",
		Palette:   model.Palette{Primary: "#010203"},
	}))

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/theme", nil), "mod@example.com")
	require.Equal(t, fiber.StatusOK, status)

	var pref model.UserTheme
	require.NoError(t, json.Unmarshal(body, &pref))
	assert.Equal(t, "Stored", pref.Name)
	assert.Equal(t, "#010203", pref.Primary)
}
