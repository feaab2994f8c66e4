package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

const (
	defaultInvocationLimit = 50
	maxInvocationLimit     = 500
)

// InvocationLister reads the command audit trail.
type InvocationLister interface {
	Recent(ctx context.Context, limit int) ([]*entity.Invocation, error)
}

// InvocationsHandler serves the recent command audit trail.
type InvocationsHandler struct {
	repo   InvocationLister
	logger *slog.Logger
}

// NewInvocationsHandler creates a new audit trail handler.
func NewInvocationsHandler(repo InvocationLister, logger *slog.Logger) *InvocationsHandler {
	return &InvocationsHandler{repo: repo, logger: logger}
}

type invocationResponse struct {
	ID          string `json:"id"`
	Command     string `json:"command"`
	RequesterID string `json:"requester_id"`
	ChannelID   string `json:"channel_id"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
}

// ServeHTTP handles GET /invocations?limit=N
func (h *InvocationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultInvocationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxInvocationLimit)
	}

	invocations, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing invocations failed", "error", err)
		http.Error(w, "failed to list invocations", http.StatusInternalServerError)
		return
	}

	out := make([]invocationResponse, 0, len(invocations))
	for _, inv := range invocations {
		out = append(out, invocationResponse{
			ID:          inv.ID,
			Command:     inv.Command,
			RequesterID: inv.RequesterID,
			ChannelID:   inv.ChannelID,
			Outcome:     string(inv.Outcome),
			Error:       inv.Error,
			StartedAt:   inv.StartedAt.UTC().Format(time.RFC3339),
			DurationMS:  inv.Duration.Milliseconds(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(out),
		"invocations": out,
	})
}
