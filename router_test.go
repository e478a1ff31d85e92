package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/config"
	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.AppConfig) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	events := event.NewEmitter()
	svcs, err := service.New(gdb, events, "")
	require.NoError(t, err)
	_, err = svcs.Users.EnsureDefault(context.Background())
	require.NoError(t, err)

	return NewServer(cfg, svcs, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(s *Server, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.ginEngine.ServeHTTP(w, req)
	return w
}

func TestServer_HealthRuntimeAndMetrics(t *testing.T) {
	s := newTestServer(t, &config.AppConfig{})

	w := get(s, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(s, "/api/runtime", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.RuntimeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "http://127.0.0.1:8088", info.HTTPBaseURL)
	assert.Equal(t, "ws://127.0.0.1:8088", info.WSBaseURL)

	w = get(s, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = get(s, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `parley_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `parley_http_requests_total{method="GET",route="/api/conversations",status="200"} 1`)
}

func TestServer_ViewPages(t *testing.T) {
	s := newTestServer(t, &config.AppConfig{})

	w := get(s, "/view/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = get(s, "/view/c/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, &config.AppConfig{})

	w := get(s, "/api/conversations", map[string]string{"Origin": "http://localhost:5173"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(s, "/api/conversations", map[string]string{"Origin": "https://example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/conversations", nil)
	req.Header.Set("Origin", "http://127.0.0.1:8088")
	rec := httptest.NewRecorder()
	s.ginEngine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_StaticSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	s := newTestServer(t, &config.AppConfig{Server: config.ServerConfig{StaticDir: &dir}})

	w := get(s, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "spa")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = get(s, "/", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = get(s, "/conversations/12", map[string]string{"Accept": "text/html,application/xhtml+xml"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "spa")

	w = get(s, "/app.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = get(s, "/missing.js", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(s, "/api/runtime", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestAcceptHTML(t *testing.T) {
	assert.True(t, acceptHTML(""))
	assert.True(t, acceptHTML("text/html"))
	assert.True(t, acceptHTML("application/json, application/xhtml+xml;q=0.9"))
	assert.False(t, acceptHTML("application/json"))
}

func TestServer_StartAndShutdown(t *testing.T) {
	host, port := "127.0.0.1", 0
	s := newTestServer(t, &config.AppConfig{Server: config.ServerConfig{Host: &host, Port: &port}})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.NotZero(t, s.port)

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(s.port) + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	<-s.Done()
}
