package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/repository"
	"github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedVisit struct {
	id   string
	info *model.VisitorInfo
}

type mockVisitPublisher struct {
	PublishFunc func(urlID string, visitor *model.VisitorInfo) error
}

func (m *mockVisitPublisher) Publish(urlID string, visitor *model.VisitorInfo) error {
	return m.PublishFunc(urlID, visitor)
}

func newRedirectApp(t *testing.T, visits VisitPublisher, checks map[string]ReadyCheck) (*fiber.App, *repository.MemoryURLRepository) {
	t.Helper()

	urls := repository.NewMemoryURLRepository()
	store := service.NewModerationStore(service.StoreDeps{
		URLs:     urls,
		Settings: repository.NewMemorySettingRepository(),
	})

	app := fiber.New()
	NewRedirectHandler(RedirectDeps{
		URLs:   store,
		Visits: visits,
		Checks: checks,
	}).Register(app)
	return app, urls
}

func seedURL(t *testing.T, urls *repository.MemoryURLRepository, status model.Status) string {
	t.Helper()
	rec := &model.URLRecord{Original: "https://target.example.com/page", Status: status}
	require.NoError(t, urls.Create(context.Background(), rec))
	return rec.ID
}

func TestResolveRedirectsApprovedAndPublishes(t *testing.T) {
	published := make(chan publishedVisit, 1)
	app, urls := newRedirectApp(t, &mockVisitPublisher{
		PublishFunc: func(urlID string, visitor *model.VisitorInfo) error {
			published <- publishedVisit{id: urlID, info: visitor}
			return nil
		},
	}, nil)
	id := seedURL(t, urls, model.StatusApproved)

	req := httptest.NewRequest(http.MethodGet, "/r/"+id, nil)
	req.Header.Set(fiber.HeaderUserAgent, "test-agent")
	req.Header.Set(fiber.HeaderReferer, "https://ref.example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://target.example.com/page", resp.Header.Get(fiber.HeaderLocation))

	select {
	case got := <-published:
		assert.Equal(t, id, got.id)
		require.NotNil(t, got.info)
		assert.Equal(t, "test-agent", got.info.UserAgent)
		assert.Equal(t, "https://ref.example.com", got.info.Referrer)
	case <-time.After(time.Second):
		t.Fatal("visit was not published")
	}
}

func TestResolvePublishesOwnRequestValues(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)
	wg.Add(2)
	app, urls := newRedirectApp(t, &mockVisitPublisher{
		PublishFunc: func(urlID string, visitor *model.VisitorInfo) error {
			defer wg.Done()
			// Read only after later requests have reused the server buffers.
			time.Sleep(100 * time.Millisecond)
			mu.Lock()
			got = append(got, urlID+"|"+visitor.UserAgent)
			mu.Unlock()
			return nil
		},
	}, nil)

	first := seedURL(t, urls, model.StatusApproved)
	second := seedURL(t, urls, model.StatusApproved)
	want := []string{first + "|agent-one", second + "|agent-two-yyyyyy"}

	for _, r := range []struct{ id, agent string }{{first, "agent-one"}, {second, "agent-two-yyyyyy"}} {
		req := httptest.NewRequest(http.MethodGet, "/r/"+r.id, nil)
		req.Header.Set(fiber.HeaderUserAgent, r.agent)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
	}

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, want, got)
}

func TestResolveRefusesUnapproved(t *testing.T) {
	app, urls := newRedirectApp(t, nil, nil)

	for _, status := range []model.Status{model.StatusPending, model.StatusRejected} {
		id := seedURL(t, urls, status)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/r/"+id, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, string(status))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/r/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app, _ := newRedirectApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "LinkDesk", body["service"])
	assert.Equal(t, "ok", body["status"])
}

func TestReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	app, _ := newRedirectApp(t, nil, map[string]ReadyCheck{"postgres": healthy, "redis": healthy})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	app, _ = newRedirectApp(t, nil, map[string]ReadyCheck{"postgres": healthy, "redis": broken})
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ready":false,"checks":{"postgres":"ok","redis":"connection refused"}}`, string(data))
}
