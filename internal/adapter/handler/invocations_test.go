package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

type stubLister struct {
	invocations []*entity.Invocation
	err         error
	limit       int
}

func (s *stubLister) Recent(_ context.Context, limit int) ([]*entity.Invocation, error) {
	s.limit = limit
	return s.invocations, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvocationsHandler_ServeHTTP(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	inv := &entity.Invocation{
		ID:          "id-1",
		Command:     "modlog",
		RequesterID: "U1",
		ChannelID:   "C1",
		Outcome:     entity.OutcomeOK,
		StartedAt:   started,
		Duration:    1500 * time.Millisecond,
	}
	lister := &stubLister{invocations: []*entity.Invocation{inv}}
	h := NewInvocationsHandler(lister, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/invocations?limit=10", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, lister.limit)

	var resp struct {
		Count       int                  `json:"count"`
		Invocations []invocationResponse `json:"invocations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "modlog", resp.Invocations[0].Command)
	assert.Equal(t, "2024-03-01T10:00:00Z", resp.Invocations[0].StartedAt)
	assert.Equal(t, int64(1500), resp.Invocations[0].DurationMS)
}

func TestInvocationsHandler_Limits(t *testing.T) {
	lister := &stubLister{}
	h := NewInvocationsHandler(lister, discardLogger())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invocations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultInvocationLimit, lister.limit)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invocations?limit=100000", nil))
	assert.Equal(t, maxInvocationLimit, lister.limit)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invocations?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvocationsHandler_RepositoryError(t *testing.T) {
	h := NewInvocationsHandler(&stubLister{err: errors.New("db down")}, discardLogger())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invocations", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type stubReloader struct{ err error }

func (s *stubReloader) TryReload() error { return s.err }

var errRestart = errors.New("restart")

func TestReloadHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name   string
		method string
		err    error
		status int
		body   string
	}{
		{name: "reloaded", method: http.MethodPost, status: http.StatusOK, body: "reloaded successfully"},
		{name: "restart needed", method: http.MethodPost, err: errRestart, status: http.StatusOK, body: "requires restart"},
		{name: "failure", method: http.MethodPost, err: errors.New("bad yaml"), status: http.StatusInternalServerError, body: "bad yaml"},
		{name: "wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReloadHandler(&stubReloader{err: tt.err}, errRestart, discardLogger())

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/-/reload", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Contains(t, w.Body.String(), tt.body)
			}
		})
	}
}
