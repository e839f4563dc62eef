package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/model"
)

const version = "1.0.0"

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := model.HealthResponse{
		Status:    "ok",
		Database:  "ok",
		Timestamp: time.Now(),
		Version:   version,
		Metrics:   make(map[string]string),
	}

	if h.db == nil {
		response.Database = "not configured"
	} else if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		response.Metrics["scheduler"] = "running"
		response.Metrics["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	response.Metrics["rate_limit_backend"] = h.rlCfg.Backend
	response.Metrics["rate_limit_strategy"] = h.rlCfg.Strategy

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
