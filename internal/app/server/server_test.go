package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sifan077/TrackDesk/internal/app/client"
	"github.com/sifan077/TrackDesk/internal/app/service"
	"github.com/sifan077/TrackDesk/internal/app/session"
	"github.com/sifan077/TrackDesk/internal/http/middleware"
	"github.com/sifan077/TrackDesk/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Dependencies{
		AppTitle: "TrackDesk",
		Pages: service.NewPageService(service.PageDeps{
			Sessions: session.NewMemoryStore(time.Hour),
			API:      client.New(client.Options{BaseURL: "http://127.0.0.1:1"}),
		}),
		RateLimit: middleware.DefaultRateLimitConfig(),
		Sessions:  util.NewSessionSigner([]byte("secret"), time.Hour),
		Cookie:    middleware.SessionConfig{CookieName: "sid", TTL: time.Hour},
	})
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	assert.Empty(t, resp.Cookies())

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Create Track")

	// history is not mounted without a repository
	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
