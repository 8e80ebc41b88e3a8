package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is anything with a pingable backing connection
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports the dashboard's dependency health
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a health handler. Nil checkers are skipped so
// optional dependencies (cache, report store) do not fail the probe.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck is one dependency's result
type HealthCheck struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Handle runs every registered check with a shared timeout
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheck),
	}

	for name, checker := range h.checks {
		if checker == nil {
			continue
		}
		start := time.Now()
		err := checker.Health(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = HealthCheck{
				Status:    "unhealthy",
				Message:   err.Error(),
				LatencyMS: latency,
			}
		} else {
			response.Checks[name] = HealthCheck{
				Status:    "healthy",
				LatencyMS: latency,
			}
		}
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
