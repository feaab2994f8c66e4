package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/persistence/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRouter_Routes(t *testing.T) {
	logger := discardLogger()
	handlers := &Handlers{
		Health:      handler.NewHealthHandler(),
		Ready:       handler.NewReadyHandler(),
		Metrics:     handler.NewMetricsHandler(prometheus.NewRegistry(), logger),
		Invocations: handler.NewInvocationsHandler(memory.NewInvocationRepository(), logger),
	}
	router := NewRouter(handlers, nil, time.Second, logger)

	for _, path := range []string{"/", "/health", "/ready", "/metrics", "/invocations"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}

	// Reload is not registered without a config manager
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/-/reload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewRouter_LogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handlers := &Handlers{
		Health:      handler.NewHealthHandler(),
		Invocations: handler.NewInvocationsHandler(memory.NewInvocationRepository(), logger),
	}
	router := NewRouter(handlers, nil, time.Second, logger)

	req := httptest.NewRequest(http.MethodGet, "/invocations?limit=2", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "/invocations", line["route"])
}

func testServerConfig(port int) config.ServerConfig {
	return config.ServerConfig{
		Port:            port,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestServer_ServesUntilCancelled(t *testing.T) {
	srv := New(testServerConfig(0), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Listening():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not start listening")
	}

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	assert.NotEqual(t, "0", port, "Addr reports the bound port")

	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_BindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()

	srv := New(testServerConfig(taken.Addr().(*net.TCPAddr).Port), http.NotFoundHandler(), discardLogger())

	err = srv.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ops server listen")
}
