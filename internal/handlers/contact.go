package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/model"
	"inovacode-contact-api/internal/ratelimit"
	"inovacode-contact-api/internal/repository"
)

// SubmitContact handles POST /api/v1/contact.
//
// Pipeline order is fixed: decode → validate → rate limit → persist →
// detached notification. Validation and rate-limit rejections short-circuit
// before any write happens.
func (h *Handlers) SubmitContact(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	}()

	var req model.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.ValidationFailures.Inc()
		c.JSON(http.StatusBadRequest, errorResponse("Validation failed", "Dados inválidos"))
		return
	}

	sub, fieldErrs := h.validator.Validate(req)
	if fieldErrs != nil {
		h.metrics.ValidationFailures.Inc()
		resp := errorResponse("Validation failed", "Dados inválidos")
		resp.Errors = fieldErrs
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	key := h.clientKey(c, sub.Email)

	allowed, retryAfter, err := h.limiter.CheckAndRecord(c.Request.Context(), key, h.rlCfg.Cooldown())
	if err != nil {
		// Fail open: a broken rate-limit backend must not block
		// legitimate traffic.
		logrus.Warnf("Rate limit check failed, failing open: %v", err)
		allowed = true
	}
	if !allowed {
		h.metrics.RateLimited.Inc()
		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusTooManyRequests, errorResponse(
			"Too many requests",
			fmt.Sprintf("Você já enviou uma mensagem recentemente. Tente novamente em %s.", formatWait(seconds)),
		))
		return
	}

	receipt, err := h.contacts.Submit(c.Request.Context(), *sub)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			c.JSON(http.StatusBadRequest, errorResponse("Duplicate submission", "Esta mensagem já foi enviada recentemente."))
		case errors.Is(err, context.DeadlineExceeded):
			logrus.Errorf("Contact submission timed out: %v", err)
			c.JSON(http.StatusGatewayTimeout, errorResponse("Request timeout", "A requisição excedeu o tempo limite. Tente novamente."))
		default:
			// Detail stays in the server log; the client gets a
			// generic message.
			logrus.Errorf("Failed to process contact submission: %v", err)
			c.JSON(http.StatusInternalServerError, errorResponse("Internal server error", "Erro interno do servidor. Tente novamente mais tarde."))
		}
		return
	}

	c.JSON(http.StatusCreated, model.SubmissionResponse{
		ID:        receipt.ID,
		Message:   receipt.Message,
		Timestamp: receipt.Timestamp.UTC().Format(time.RFC3339),
	})
}

// clientKey derives the rate-limit identity for this request. The session
// strategy issues an opaque HttpOnly cookie; a missing or malformed cookie
// fails open with a fresh identity rather than rejecting the request.
func (h *Handlers) clientKey(c *gin.Context, email string) string {
	if h.rlCfg.Strategy == ratelimit.StrategyEmail {
		return ratelimit.EmailKey(email)
	}

	raw, _ := c.Cookie(h.rlCfg.CookieName)
	if token, ok := ratelimit.ParseSessionToken(raw); ok {
		return token
	}

	token := ratelimit.NewSessionToken()
	maxAge := h.rlCfg.SessionMaxAgeDays * 24 * 60 * 60
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.rlCfg.CookieName, token, maxAge, "/", "", h.production, true)
	return token
}

// ListContacts handles GET /api/v1/contacts (admin)
func (h *Handlers) ListContacts(c *gin.Context) {
	opts := model.ListOptions{
		Status: c.Query("status"),
		Limit:  50,
		Offset: 0,
	}

	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if o := c.Query("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	contacts, err := h.contacts.List(c.Request.Context(), opts)
	if err != nil {
		logrus.Errorf("Failed to list contacts: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error", "Erro interno do servidor. Tente novamente mais tarde."))
		return
	}

	responses := make([]model.ContactResponse, 0, len(contacts))
	for i := range contacts {
		responses = append(responses, model.NewContactResponse(&contacts[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// updateStatusRequest is the body for PATCH /api/v1/contacts/:id/status
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateContactStatus handles PATCH /api/v1/contacts/:id/status (admin)
func (h *Handlers) UpdateContactStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid ID", "Identificador de contato inválido"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !model.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, errorResponse("Validation failed", "Status deve ser pending, read ou archived"))
		return
	}

	if err := h.contacts.UpdateStatus(c.Request.Context(), uint(id), req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Not found", "Contato não encontrado"))
			return
		}
		logrus.Errorf("Failed to update contact status: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error", "Erro interno do servidor. Tente novamente mais tarde."))
		return
	}

	c.Status(http.StatusNoContent)
}

// formatWait renders a human wait time for the 429 message
func formatWait(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d segundos", seconds)
	}
	minutes := (seconds + 59) / 60
	if minutes == 1 {
		return "1 minuto"
	}
	return fmt.Sprintf("%d minutos", minutes)
}
