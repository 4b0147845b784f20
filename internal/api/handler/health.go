package handler

import (
	"context"
	"net/http"

	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	dbPinger DBPinger
	version  string
}

// NewHealthHandler creates a new HealthHandler. A nil pinger means the server
// runs on the in-memory store.
func NewHealthHandler(pinger DBPinger, version string) *HealthHandler {
	return &HealthHandler{
		dbPinger: pinger,
		version:  version,
	}
}

type databaseStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	data := healthData{
		Status:   "healthy",
		Version:  h.version,
		Database: databaseStatus{Backend: "memory", Connected: true},
	}

	if h.dbPinger != nil {
		data.Database.Backend = "postgres"
		if err := h.dbPinger.Ping(r.Context()); err != nil {
			data.Status = "degraded"
			data.Database.Connected = false
		}
	}

	status := http.StatusOK
	if data.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	response.Success(w, status, data, requestID)
}
