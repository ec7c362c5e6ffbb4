package handler

import "net/http"

// HealthHandler serves the unauthenticated liveness endpoint.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a HealthHandler reporting the given build
// version.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health reports process liveness and the running version.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"version": h.version,
	})
}
