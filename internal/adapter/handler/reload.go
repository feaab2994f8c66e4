package handler

import (
	"errors"
	"log/slog"
	"net/http"
)

// Reloader re-reads configuration and applies what it can.
type Reloader interface {
	TryReload() error
}

// ReloadHandler handles configuration reload requests.
type ReloadHandler struct {
	reloader   Reloader
	restartErr error
	logger     *slog.Logger
}

// NewReloadHandler creates a new reload handler. restartErr is the error the
// reloader returns when a change only takes effect after a restart.
func NewReloadHandler(reloader Reloader, restartErr error, logger *slog.Logger) *ReloadHandler {
	return &ReloadHandler{
		reloader:   reloader,
		restartErr: restartErr,
		logger:     logger,
	}
}

// ServeHTTP handles POST /-/reload requests.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.reloader.TryReload(); err != nil {
		if h.restartErr != nil && errors.Is(err, h.restartErr) {
			// Reloadable keys were applied, the rest waits for a restart
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Configuration change requires restart\n"))
			return
		}

		h.logger.Error("manual reload failed", "error", err)
		http.Error(w, "Configuration reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Configuration reloaded successfully\n"))
}
