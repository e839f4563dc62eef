package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/handlers"
	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/model"
	"inovacode-contact-api/internal/notify"
	"inovacode-contact-api/internal/ratelimit"
	"inovacode-contact-api/internal/repository"
	"inovacode-contact-api/internal/server"
	"inovacode-contact-api/internal/service"
	"inovacode-contact-api/internal/validate"
)

var testMetrics = metrics.NewMetrics()

type fakeRepo struct {
	mu         sync.Mutex
	contacts   []model.Contact
	createErr  error
	blockOnCtx bool
	nextID     uint
}

func (f *fakeRepo) Create(ctx context.Context, contact *model.Contact) error {
	if f.blockOnCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	contact.ID = f.nextID
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	f.contacts = append(f.contacts, *contact)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ model.ListOptions) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Contact(nil), f.contacts...), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.contacts {
		if f.contacts[i].ID == id {
			f.contacts[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) CountByStatus(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeRepo) Count(context.Context) (int64, error) { return 0, nil }
func (f *fakeRepo) PurgeDeletedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type testEnv struct {
	router *gin.Engine
	repo   *fakeRepo
}

type envOptions struct {
	repo           *fakeRepo
	notifier       notify.Notifier
	strategy       string
	adminToken     string
	requestTimeout time.Duration
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	if opts.repo == nil {
		opts.repo = &fakeRepo{}
	}
	if opts.notifier == nil {
		opts.notifier = notify.Noop{}
	}
	if opts.strategy == "" {
		opts.strategy = ratelimit.StrategySession
	}

	rlCfg := config.RateLimitConfig{
		Strategy:             opts.strategy,
		Backend:              "memory",
		CooldownSeconds:      60,
		EmailCooldownMinutes: 30,
		CookieName:           "session_id",
		SessionMaxAgeDays:    7,
	}

	svc := service.NewContactService(opts.repo, opts.notifier, testMetrics, time.Second)
	h := handlers.NewHandlers(nil, svc, validate.Default(), ratelimit.NewMemoryStore(), rlCfg, nil, testMetrics, opts.adminToken, false)

	return &testEnv{
		router: server.SetupRouter(h, opts.requestTimeout),
		repo:   opts.repo,
	}
}

func (e *testEnv) submit(body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

const validBody = `{"name":"Jane Doe","email":"jane@example.com","message":"Hello"}`

func TestSubmitContactSuccess(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.submit(validBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp model.SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(1), resp.ID)
	assert.NotEmpty(t, resp.Message)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	// The admitted id matches a persisted record
	require.Len(t, env.repo.contacts, 1)
	assert.Equal(t, resp.ID, env.repo.contacts[0].ID)
	assert.Equal(t, model.StatusPending, env.repo.contacts[0].Status)

	// A session identity cookie is issued
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 7*24*60*60, cookies[0].MaxAge)
}

func TestSubmitContactRateLimitedWithinWindow(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	first := env.submit(validBody, nil)
	require.Equal(t, http.StatusCreated, first.Code)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	second := env.submit(validBody, cookies)
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "Too many requests", resp.Error)
	assert.Contains(t, resp.Message, "Tente novamente em")
	assert.NotEmpty(t, resp.Timestamp)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// The rejected attempt created no record
	assert.Len(t, env.repo.contacts, 1)
}

func TestSubmitContactNewSessionNotLimited(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	first := env.submit(validBody, nil)
	require.Equal(t, http.StatusCreated, first.Code)

	// Without the cookie the client is a fresh identity
	second := env.submit(validBody, nil)
	assert.Equal(t, http.StatusCreated, second.Code)
}

func TestSubmitContactMalformedCookieFailsOpen(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.submit(validBody, []*http.Cookie{{Name: "session_id", Value: "corrupted!!"}})
	assert.Equal(t, http.StatusCreated, w.Code)

	// A fresh valid cookie replaces the corrupted one
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	_, ok := ratelimit.ParseSessionToken(cookies[0].Value)
	assert.True(t, ok)
}

func TestSubmitContactEmailStrategy(t *testing.T) {
	env := newTestEnv(t, envOptions{strategy: ratelimit.StrategyEmail})

	first := env.submit(validBody, nil)
	require.Equal(t, http.StatusCreated, first.Code)

	// Same sender, no cookie involved: still limited
	second := env.submit(validBody, nil)
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	// A different sender is an independent identity
	third := env.submit(`{"name":"John","email":"john@example.com","message":"Oi"}`, nil)
	assert.Equal(t, http.StatusCreated, third.Code)
}

func TestSubmitContactValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed email", `{"name":"Jane","email":"not-an-email","message":"Hello"}`, "email"},
		{"empty message", `{"name":"Jane","email":"jane@example.com","message":""}`, "message"},
		{"empty name", `{"name":"","email":"jane@example.com","message":"Hello"}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{})

			w := env.submit(tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Validation failed", resp.Error)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.field, resp.Errors[0].Field)

			// Rejection is side-effect free
			assert.Empty(t, env.repo.contacts)
		})
	}
}

func TestSubmitContactRejectionDoesNotAdvanceRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{strategy: ratelimit.StrategyEmail})

	invalid := env.submit(`{"name":"","email":"jane@example.com","message":"Hello"}`, nil)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	// The failed attempt must not have started a cooldown for this sender
	valid := env.submit(validBody, nil)
	assert.Equal(t, http.StatusCreated, valid.Code)
}

func TestSubmitContactInvalidJSON(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.submit(`{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.repo.contacts)
}

func TestSubmitContactDuplicate(t *testing.T) {
	env := newTestEnv(t, envOptions{repo: &fakeRepo{createErr: repository.ErrDuplicate}})

	w := env.submit(validBody, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Duplicate submission", resp.Error)
}

func TestSubmitContactPersistenceError(t *testing.T) {
	env := newTestEnv(t, envOptions{repo: &fakeRepo{createErr: errors.New("connection refused")}})

	w := env.submit(validBody, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Internal server error", resp.Error)
	// Infra detail must not leak to the client
	assert.NotContains(t, resp.Message, "connection refused")
}

type failingNotifier struct{}

func (failingNotifier) SendContactNotification(context.Context, uint, model.Submission) error {
	return errors.New("mail provider unreachable")
}

func TestSubmitContactNotifierFailureInvisible(t *testing.T) {
	env := newTestEnv(t, envOptions{notifier: failingNotifier{}})

	w := env.submit(validBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp model.SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(1), resp.ID)
}

func TestSubmitContactRequestTimeout(t *testing.T) {
	env := newTestEnv(t, envOptions{
		repo:           &fakeRepo{blockOnCtx: true},
		requestTimeout: 30 * time.Millisecond,
	})

	w := env.submit(validBody, nil)
	require.Equal(t, http.StatusGatewayTimeout, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Request timeout", resp.Error)
}
