package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/app/client"
	"github.com/sifan077/TrackDesk/internal/app/model"
	"github.com/sifan077/TrackDesk/internal/app/repository"
	"github.com/sifan077/TrackDesk/internal/app/service"
	"github.com/sifan077/TrackDesk/internal/app/session"
	"github.com/sifan077/TrackDesk/internal/http/middleware"
	"github.com/sifan077/TrackDesk/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cookieName = "trackdesk_session"

type pageApp struct {
	app    *fiber.App
	cookie *http.Cookie
}

func newPageApp(t *testing.T, backend http.HandlerFunc) *pageApp {
	t.Helper()
	return newPageAppWith(t, backend, nil)
}

func newPageAppWith(t *testing.T, backend http.HandlerFunc, wrap func(service.PageService) service.PageService) *pageApp {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api := client.New(client.Options{BaseURL: srv.URL, User: "admin", Password: "admin123", Timeout: time.Second})
	pages := service.NewPageService(service.PageDeps{
		Sessions: session.NewMemoryStore(time.Hour),
		API:      api,
	})

	if wrap != nil {
		pages = wrap(pages)
	}

	app := fiber.New()
	app.Use(
		middleware.Recovery(zap.NewNop(), nil),
		middleware.Session(util.NewSessionSigner([]byte("secret"), time.Hour),
			middleware.SessionConfig{CookieName: cookieName, TTL: time.Hour}, zap.NewNop()),
	)
	NewPageHandler(PageDeps{Pages: pages, AppTitle: "Universal Music Group Code Challenge"}).Register(app)

	return &pageApp{app: app}
}

func (p *pageApp) do(t *testing.T, method, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if p.cookie != nil {
		req.AddCookie(p.cookie)
	}

	resp, err := p.app.Test(req, 5000)
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == cookieName {
			p.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func trackBackend(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "admin123", pass)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("isrc") {
		case "MISSING":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Track not found"}`)
		case "PARTIAL":
			_, _ = io.WriteString(w, `{"name":"Only Title"}`)
		default:
			_, _ = io.WriteString(w, `{"name":"Test Song","artistName":"Test Artist","albumName":"Test Album","playbackSeconds":125,"isExplicit":true}`)
		}
	}
}

func TestPageHandler_ShowPages(t *testing.T) {
	p := newPageApp(t, trackBackend(t))

	resp, body := p.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Create Track")
	assert.Contains(t, body, "Enter a valid ISRC code")
	assert.Contains(t, body, "Universal Music Group Code Challenge")

	resp, body = p.do(t, http.MethodGet, "/retrieve", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Get Metadata")
}

func TestPageHandler_SubmitRetrieve(t *testing.T) {
	p := newPageApp(t, trackBackend(t))

	resp, body := p.do(t, http.MethodPost, "/retrieve", url.Values{"isrc": {"USRC17607839"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Test Song")
	assert.Contains(t, body, "Test Artist")
	assert.Contains(t, body, "Album: Test Album")
	assert.Contains(t, body, "Seconds: 125")
	assert.Contains(t, body, "Duration: 2:05")
	assert.Contains(t, body, "Explicit")
	assert.Contains(t, body, "/api/v1/tracks/cover?isrc=USRC17607839")

	// state survives a reload of the page but not a visit to the other one
	_, body = p.do(t, http.MethodGet, "/retrieve", nil)
	assert.Contains(t, body, "Test Song")
	_, body = p.do(t, http.MethodGet, "/", nil)
	assert.NotContains(t, body, "Test Song")
}

func TestPageHandler_SubmitErrors(t *testing.T) {
	p := newPageApp(t, trackBackend(t))

	resp, body := p.do(t, http.MethodPost, "/", url.Values{"isrc": {"  "}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please enter a valid ISRC")

	resp, body = p.do(t, http.MethodPost, "/retrieve", url.Values{"isrc": {"MISSING"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `role="alert">Track not found`)

	_, body = p.do(t, http.MethodPost, "/retrieve", url.Values{"isrc": {"PARTIAL"}})
	assert.Contains(t, body, "Error: Incomplete track data. Missing required fields.")
	assert.NotContains(t, body, "Only Title")
}

func TestPageHandler_Clear(t *testing.T) {
	p := newPageApp(t, trackBackend(t))

	p.do(t, http.MethodPost, "/", url.Values{"isrc": {"USRC17607839"}})

	resp, _ := p.do(t, http.MethodPost, "/clear/create", url.Values{})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := p.do(t, http.MethodGet, "/", nil)
	assert.NotContains(t, body, "Test Song")

	resp, _ = p.do(t, http.MethodPost, "/clear/unknown", url.Values{})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPageHandler_ToggleThemeAndReload(t *testing.T) {
	p := newPageApp(t, trackBackend(t))

	_, body := p.do(t, http.MethodGet, "/retrieve", nil)
	assert.Contains(t, body, `data-theme="light"`)

	resp, _ := p.do(t, http.MethodPost, "/theme/toggle", url.Values{"return": {"/retrieve"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/retrieve", resp.Header.Get("Location"))

	_, body = p.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, body, `data-theme="dark"`)

	resp, _ = p.do(t, http.MethodPost, "/theme/toggle", url.Values{"return": {"https://evil.example"}})
	assert.Equal(t, "/", resp.Header.Get("Location"))

	p.do(t, http.MethodPost, "/theme/toggle", url.Values{})
	resp, _ = p.do(t, http.MethodPost, "/reload", url.Values{})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = p.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, body, `data-theme="light"`)
}

// panickyPages blows up on the next View once armed.
type panickyPages struct {
	service.PageService
	armed bool
}

func (p *panickyPages) View(ctx context.Context, sessionID string) (*session.State, error) {
	if p.armed {
		p.armed = false
		panic("render blew up")
	}
	return p.PageService.View(ctx, sessionID)
}

func TestPageHandler_RetryAfterPanicKeepsState(t *testing.T) {
	flaky := &panickyPages{}
	p := newPageAppWith(t, trackBackend(t), func(s service.PageService) service.PageService {
		flaky.PageService = s
		return flaky
	})

	resp, _ := p.do(t, http.MethodPost, "/retrieve", url.Values{"isrc": {"USRC17607839"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	flaky.armed = true
	resp, body := p.do(t, http.MethodGet, "/retrieve", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Error ID:")
	assert.Contains(t, body, `href="/retrieve"`)

	// following Try Again renders the page with the earlier lookup intact
	resp, body = p.do(t, http.MethodGet, "/retrieve", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="USRC17607839"`)
	assert.Contains(t, body, "Test Song")
	assert.Contains(t, body, "Duration: 2:05")
}

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	NewHealthHandler(nil,
		Check{Name: "postgres", Ping: func(context.Context) error { return nil }},
	).Register(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	app = fiber.New()
	NewHealthHandler(nil,
		Check{Name: "redis", Ping: func(context.Context) error { return errors.New("down") }},
	).Register(app)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `"redis":"down"`)
}

type stubHistory struct {
	filter repository.LookupFilter
	events []model.LookupEvent
	err    error
}

func (s *stubHistory) Create(context.Context, *model.LookupEvent) error { return nil }

func (s *stubHistory) List(_ context.Context, f repository.LookupFilter) ([]model.LookupEvent, error) {
	s.filter = f
	return s.events, s.err
}

func TestHistoryHandler_List(t *testing.T) {
	repo := &stubHistory{events: []model.LookupEvent{
		{ID: "1", Operation: model.OperationRetrieve, ISRC: "USRC17607839", Outcome: model.OutcomeSuccess, FirstSeen: true},
	}}
	app := fiber.New()
	NewHistoryHandler(nil, repo).Register(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/history?isrc=USRC17607839&operation=retrieve&limit=5&offset=10", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, repository.LookupFilter{ISRC: "USRC17607839", Operation: "retrieve", Limit: 5, Offset: 10}, repo.filter)

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `"count":1`)
	assert.Contains(t, string(b), `"first_seen":true`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/history?operation=delete", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	repo.err = errors.New("db down")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
