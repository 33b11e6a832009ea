package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/internal/config"
	"labourpulse/internal/infrastructure"
)

const fixtureHeader = "Region,Date,Frequency,Estimated Unemployment Rate (%),Estimated Employed,Estimated Labour Participation Rate (%),Area"

func writeFixtureCSV(t *testing.T, path string, rows []string) {
	t.Helper()
	content := fixtureHeader + "\n"
	for _, row := range rows {
		content += row + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func fixtureRows() []string {
	return []string{
		"Alpha, 31-05-2019, Monthly, 4.00, 1000, 40.00,Rural",
		"Alpha, 30-04-2020, Monthly, 20.00, 700, 38.00,Rural",
		"Beta, 31-05-2019, Monthly, 8.00, 2000, 42.00,Urban",
	}
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	dir := t.TempDir()
	sourceFile := filepath.Join(dir, "unemployment.csv")
	writeFixtureCSV(t, sourceFile, fixtureRows())

	reportsDir := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reportsDir, 0755))

	cfg := config.Default()
	cfg.Data.SourceFile = sourceFile
	cfg.Data.ReportsDir = reportsDir
	cfg.Data.WatchInterval = 20 * time.Millisecond

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: &infrastructure.OTelProviders{Logger: logger},
		watcherDone:   make(chan struct{}),
		watcherQuit:   make(chan struct{}),
	}

	require.NoError(t, app.initializeServices())
	t.Cleanup(app.WebSocketHub.Stop)

	app.setupRouter()
	app.createServer()

	return app
}

func TestGenerateBuildID(t *testing.T) {
	id := generateBuildID()
	assert.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]+$", id)
}

func TestNewTestApplicationWiring(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
}

func TestRouterEndpoints(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "health", path: "/api/health", wantStatus: http.StatusOK},
		{name: "health liveness", path: "/api/health/live", wantStatus: http.StatusOK},
		{name: "health readiness", path: "/api/health/ready", wantStatus: http.StatusOK},
		{name: "version", path: "/api/version", wantStatus: http.StatusOK},
		{name: "dataset info", path: "/api/dataset/info", wantStatus: http.StatusOK},
		{name: "overall trend", path: "/api/trends/overall", wantStatus: http.StatusOK},
		{name: "regional means", path: "/api/regions/means", wantStatus: http.StatusOK},
		{name: "impact summary", path: "/api/impact/summary", wantStatus: http.StatusOK},
		{name: "websocket metrics", path: "/api/metrics/websocket", wantStatus: http.StatusOK},
		{name: "unknown route", path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouterDatasetInfoBody(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/dataset/info", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, float64(3), envelope.Data["records"])
}

func TestRouterSecurityHeaders(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWebSocketOriginRejected(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetCORSConfig(t *testing.T) {
	app := newTestApplication(t)
	app.Config.Security.AllowedOrigins = []string{"http://localhost:3000"}

	cfg := app.getCORSConfig()
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedMethods, http.MethodGet)
	assert.True(t, cfg.AllowCredentials)
}

func TestGetCORSConfigDisabled(t *testing.T) {
	app := newTestApplication(t)
	app.Config.Security.EnableCORS = false

	cfg := app.getCORSConfig()
	require.Len(t, cfg.AllowedOrigins, 1)
	assert.Contains(t, cfg.AllowedOrigins[0], "http://localhost:")
}

func TestCreateServer(t *testing.T) {
	app := newTestApplication(t)

	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
}

func TestWatchDatasetReloads(t *testing.T) {
	app := newTestApplication(t)
	go app.watchDataset()
	defer func() {
		close(app.watcherQuit)
		<-app.watcherDone
	}()

	ctx := context.Background()
	info, err := app.DashboardService.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, info.Records)

	rows := append(fixtureRows(), "Gamma, 30-06-2020, Monthly, 12.00, 500, 35.00,Urban")
	writeFixtureCSV(t, app.Config.Data.SourceFile, rows)
	// Bump the mtime past filesystem timestamp granularity.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(app.Config.Data.SourceFile, future, future))

	assert.Eventually(t, func() bool {
		info, err := app.DashboardService.Info(ctx)
		return err == nil && info.Records == 4
	}, 3*time.Second, 25*time.Millisecond)
}

func TestStopShutsDownWatcher(t *testing.T) {
	app := newTestApplication(t)
	go app.watchDataset()

	require.NoError(t, app.Stop(context.Background()))

	select {
	case <-app.watcherDone:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestPerformStartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)
	require.NoError(t, app.performStartupHealthCheck(context.Background()))
}

func TestPerformStartupHealthCheckMissingSource(t *testing.T) {
	app := newTestApplication(t)
	app.Config.Data.SourceFile = filepath.Join(t.TempDir(), "missing.csv")

	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file not found")
}
