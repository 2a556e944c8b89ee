package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proppant-cli/internal/config"
	"github.com/sells-group/proppant-cli/internal/engine"
	"github.com/sells-group/proppant-cli/internal/model"
	"github.com/sells-group/proppant-cli/internal/store"
)

var testServerConfig = config.ServerConfig{AllowedOrigins: []string{"*"}}

func seededStore(t *testing.T) (store.Store, string) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	q1 := model.Quarter{Year: 2024, Num: 1}
	id, err := st.SaveRun(context.Background(), model.Run{Input: "registry.zip"}, map[string][]model.QuarterlyAggregate{
		engine.TableQuarterly: {{Quarter: q1, TotalMass: 1000, TrackedEntityMass: 250, UniqueJobCount: 2, MarketShare: 0.25, AvgMassPerJob: 500}},
	})
	require.NoError(t, err)
	return st, id
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildRouter_Health(t *testing.T) {
	h := buildRouter(nil, testServerConfig)

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_NilStore(t *testing.T) {
	h := buildRouter(nil, testServerConfig)
	rr := get(t, h, "/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBuildRouter_ListRuns(t *testing.T) {
	st, id := seededStore(t)
	h := buildRouter(st, testServerConfig)

	rr := get(t, h, "/runs?limit=10")
	require.Equal(t, http.StatusOK, rr.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)

	rr = get(t, h, "/runs?status=failed")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestBuildRouter_ListRuns_BadParams(t *testing.T) {
	st, _ := seededStore(t)
	h := buildRouter(st, testServerConfig)

	for _, path := range []string{"/runs?limit=abc", "/runs?offset=-1"} {
		rr := get(t, h, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestBuildRouter_GetRun(t *testing.T) {
	st, id := seededStore(t)
	h := buildRouter(st, testServerConfig)

	rr := get(t, h, "/runs/"+id)
	require.Equal(t, http.StatusOK, rr.Code)
	var run model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "registry.zip", run.Input)

	rr = get(t, h, "/runs/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildRouter_GetTable(t *testing.T) {
	st, id := seededStore(t)
	h := buildRouter(st, testServerConfig)

	rr := get(t, h, fmt.Sprintf("/runs/%s/tables/quarterly", id))
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []model.QuarterlyAggregate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.InDelta(t, 1000, rows[0].TotalMass, 1e-9)

	rr = get(t, h, fmt.Sprintf("/runs/%s/tables/quarterly?format=csv", id))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2024Q1,1000.00,250.00"))
}

func TestBuildRouter_GetTable_NotFound(t *testing.T) {
	st, id := seededStore(t)
	h := buildRouter(st, testServerConfig)

	tests := []struct {
		name string
		path string
	}{
		{"unknown table name", fmt.Sprintf("/runs/%s/tables/bogus", id)},
		{"table not in run", fmt.Sprintf("/runs/%s/tables/quarterly_basin", id)},
		{"unknown run", "/runs/missing/tables/quarterly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, h, tt.path)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestBuildRouter_RateLimit(t *testing.T) {
	sc := config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimitRPS: 0.001, RateLimitBurst: 2}
	h := buildRouter(nil, sc)

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestBuildRouter_CORS(t *testing.T) {
	h := buildRouter(nil, config.ServerConfig{AllowedOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://dash.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
	assert.Equal(t, 0, resolvePort(0, 0))
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Find a free port.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close() //nolint:errcheck

	errCh := make(chan error, 1)
	go func() {
		errCh <- startServer(ctx, buildRouter(nil, testServerConfig), port)
	}()

	// Wait for server to be ready.
	var ready bool
	for range 30 {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err == nil {
			resp.Body.Close() //nolint:errcheck
			ready = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
