package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/model"
	"inovacode-contact-api/internal/ratelimit"
	"inovacode-contact-api/internal/scheduler"
	"inovacode-contact-api/internal/service"
	"inovacode-contact-api/internal/validate"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db         *gorm.DB
	contacts   *service.ContactService
	validator  *validate.Validator
	limiter    ratelimit.Store
	rlCfg      config.RateLimitConfig
	scheduler  *scheduler.Scheduler
	metrics    *metrics.Metrics
	adminToken string
	production bool
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, contacts *service.ContactService, validator *validate.Validator, limiter ratelimit.Store, rlCfg config.RateLimitConfig, sched *scheduler.Scheduler, m *metrics.Metrics, adminToken string, production bool) *Handlers {
	return &Handlers{
		db:         db,
		contacts:   contacts,
		validator:  validator,
		limiter:    limiter,
		rlCfg:      rlCfg,
		scheduler:  sched,
		metrics:    m,
		adminToken: adminToken,
		production: production,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/contact", h.SubmitContact)

		admin := api.Group("", h.requireAdmin())
		{
			admin.GET("/contacts", h.ListContacts)
			admin.PATCH("/contacts/:id/status", h.UpdateContactStatus)
		}
	}
}

// requireAdmin guards the administrative endpoints with a bearer token.
// With no token configured the endpoints stay disabled.
func (h *Handlers) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("Unauthorized", "Acesso administrativo desabilitado"))
			return
		}

		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != h.adminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("Unauthorized", "Token de acesso inválido"))
			return
		}

		c.Next()
	}
}

// errorResponse builds the common error body shape
func errorResponse(errKind, message string) model.ErrorResponse {
	return model.ErrorResponse{
		Error:     errKind,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
