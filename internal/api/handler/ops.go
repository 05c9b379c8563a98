package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/api/response"
	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
)

// Pinger checks connectivity to a backing store. *pgxpool.Pool satisfies
// this; nil means the service runs on in-memory storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	trackers  *tracking.Manager
	db        Pinger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, trackers *tracking.Manager, db Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		trackers:  trackers,
		db:        db,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails
// when the backing store is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}
	if h.trackers != nil {
		status.ActiveSessions = h.trackers.ActiveCount()
	}

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			provider := models.ProviderStatus{
				Provider: health.Name,
				Status:   models.HealthStatusOK,
			}
			switch {
			case health.IsUnhealthy():
				provider.Status = models.HealthStatusFail
				status.Status = models.HealthStatusDegraded
			case health.IsDegraded():
				provider.Status = models.HealthStatusDegraded
				status.Status = models.HealthStatusDegraded
			}
			if health.LastSuccessAt != nil {
				provider.LastSuccessAt = timestampPtr(*health.LastSuccessAt)
			}
			if health.LastFailureAt != nil {
				provider.LastFailureAt = timestampPtr(*health.LastFailureAt)
			}
			if health.LastError != "" {
				msg := health.LastError
				provider.Message = &msg
			}
			status.Providers = append(status.Providers, provider)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
