package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/api/http/handlers"
	"github.com/spec-kit/inquiry-service/internal/auth"
	"github.com/spec-kit/inquiry-service/internal/config"
	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/identity"
	"github.com/spec-kit/inquiry-service/internal/observability"
	"github.com/spec-kit/inquiry-service/internal/persistence"
	"github.com/spec-kit/inquiry-service/internal/ratelimit"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/service"
	"github.com/spec-kit/inquiry-service/internal/sms"
	"github.com/spec-kit/inquiry-service/internal/storage"
)

type memInquiryRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Inquiry
}

func newMemInquiryRepo() *memInquiryRepo {
	return &memInquiryRepo{items: make(map[string]*domain.Inquiry)}
}

func (r *memInquiryRepo) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	inquiry.CreatedAt = time.Now()
	clone := *inquiry
	r.items[inquiry.ID] = &clone
	return nil
}

func (r *memInquiryRepo) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r *memInquiryRepo) List(ctx context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Inquiry, 0, len(r.items))
	for _, item := range r.items {
		if filter.Confirmed != nil && item.Confirmed != *filter.Confirmed {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *memInquiryRepo) Update(ctx context.Context, id string, update domain.InquiryUpdate, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.Confirmed != nil {
		item.Confirmed = *update.Confirmed
	}
	item.UpdatedBy = &updatedBy
	return nil
}

func (r *memInquiryRepo) SetConfirmed(ctx context.Context, id string, confirmed bool, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Confirmed = confirmed
	return nil
}

func (r *memInquiryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type memCounter struct {
	mu    sync.Mutex
	value int64
}

func (c *memCounter) NextSequence(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value, nil
}

type staticAssessor struct{ score float64 }

func (a staticAssessor) Assess(ctx context.Context, token string) (float64, error) {
	return a.score, nil
}

type memObjectStore struct{}

func (memObjectStore) SignedURL(ctx context.Context, key string, method storage.Method, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}
func (memObjectStore) Exists(ctx context.Context, key string) (bool, error) { return true, nil }
func (memObjectStore) Delete(ctx context.Context, key string) error         { return nil }

type recordingSender struct {
	mu       sync.Mutex
	messages []sms.Message
}

func (s *recordingSender) Send(ctx context.Context, msg sms.Message) (*sms.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return &sms.Result{MessageID: "m-1", SuccessCount: 1}, nil
}

type testApp struct {
	app    *fiber.App
	repo   *memInquiryRepo
	sender *recordingSender
}

// googleTokenServer accepts any token and reports the given email as verified.
func googleTokenServer(t *testing.T, email string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email": email, "email_verified": "true", "sub": "sub-1",
		})
	}))
}

func newTestApp(t *testing.T, tokenInfoURL string, maxRequests int) *testApp {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	repo := newMemInquiryRepo()
	dispatcher := events.NewInMemoryDispatcher(logger)
	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: repo,
		CounterRepo: &memCounter{},
		Limiter:     ratelimit.NewInMemory(time.Minute),
		MaxRequests: maxRequests,
		Assessor:    staticAssessor{score: 0.9},
		ObjectStore: memObjectStore{},
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	sender := &recordingSender{}
	confirmationService := service.NewConfirmationService(repo, sender, dispatcher, logger)
	smsService := service.NewSMSService(sender, dispatcher, metrics, logger)

	authCfg := config.AuthConfig{
		AllowedEmails:      []string{"staff@example.com"},
		GoogleTokenInfoURL: tokenInfoURL,
		TimeoutSeconds:     2,
	}
	policy := auth.NewPolicy(authCfg.AllowedEmails, logger)
	middleware := auth.NewMiddleware(identity.NewRegistry(authCfg, logger), policy)
	exchanger := identity.NewTokenExchanger(authCfg, logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("inquiry-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Public:         handlers.NewPublicHandler(inquiryService, exchanger, policy, time.Minute),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService, confirmationService, time.Hour),
		SMS:            handlers.NewSMSHandler(smsService),
		AuthMiddleware: middleware,
		Gatherer:       registry,
	})
	return &testApp{app: app, repo: repo, sender: sender}
}

func submissionBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"name":           "Kim Minsu",
		"phone":          "010-1234-5678",
		"category":       "visa",
		"nationality":    "KR",
		"message":        "I would like to ask about an E-7 visa.",
		"recaptchaToken": "tok-abc",
	})
	return body
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body []byte, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestPublicSubmission(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	resp, body := doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	list, err := ta.repo.List(context.Background(), repository.InquiryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Number)
	assert.Equal(t, domain.StatusNew, list[0].Status)
}

func TestPublicSubmissionValidationError(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	payload, _ := json.Marshal(map[string]any{"name": "x"})
	resp, body := doJSON(t, ta.app, fiber.MethodPost, "/contact", payload, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(body))
	errObj := body["error"].(map[string]any)
	details := errObj["details"].(map[string]any)
	assert.NotEmpty(t, details["fields"])
}

func TestPublicSubmissionRateLimit(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 2)

	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(), headers)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(), headers)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", errorCode(body))

	resp, _ = doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(),
		map[string]string{"X-Forwarded-For": "198.51.100.2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "other clients are unaffected")
}

func TestUploadRequestSharesSubmissionWindow(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 2)

	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	uploadBody, _ := json.Marshal(map[string]any{
		"files": []map[string]string{{"name": "doc.pdf"}},
	})

	resp, body := doJSON(t, ta.app, fiber.MethodPost, "/upload-request", uploadBody, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["urls"])

	resp, _ = doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(), headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, ta.app, fiber.MethodPost, "/upload-request", uploadBody, headers)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", errorCode(body))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/inquiries", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(body))

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries", nil,
		map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(body))
}

func TestProtectedRoutesRejectUnlistedEmail(t *testing.T) {
	srv := googleTokenServer(t, "intruder@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/inquiries", nil,
		map[string]string{"Authorization": "Bearer tok"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", errorCode(body))
}

func TestStaffListAndConfirmFlow(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)
	authHeaders := map[string]string{"Authorization": "Bearer tok"}

	resp, _ := doJSON(t, ta.app, fiber.MethodPost, "/contact", submissionBody(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/inquiries", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
	data := body["data"].([]any)
	first := data[0].(map[string]any)
	id := first["id"].(string)
	assert.Equal(t, false, first["check"])

	resp, body = doJSON(t, ta.app, fiber.MethodPost, "/inquiries/"+id+"/confirm", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := body["data"].(map[string]any)
	assert.Equal(t, true, confirmed["check"])
	require.Len(t, ta.sender.messages, 1)
	assert.Equal(t, "010-1234-5678", ta.sender.messages[0].Receiver)

	resp, body = doJSON(t, ta.app, fiber.MethodPost, "/inquiries/"+id+"/confirm", nil, authHeaders)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(body))
}

func TestStaffListFilters(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)
	authHeaders := map[string]string{"Authorization": "Bearer tok"}

	visaBody := submissionBody()
	resp, _ := doJSON(t, ta.app, fiber.MethodPost, "/contact", visaBody, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stayBody, _ := json.Marshal(map[string]any{
		"name":           "Lee Jiwoo",
		"phone":          "010-9876-5432",
		"category":       "stay",
		"nationality":    "VN",
		"message":        "Extending my current stay permit.",
		"recaptchaToken": "tok-def",
	})
	resp, _ = doJSON(t, ta.app, fiber.MethodPost, "/contact", stayBody, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/inquiries?category=visa", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["count"])
	item := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "visa", item["category"])
	id := item["id"].(string)

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries?category=stay", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["count"])
	assert.Equal(t, "stay", body["data"].([]any)[0].(map[string]any)["category"])

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries?check=true", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])

	resp, _ = doJSON(t, ta.app, fiber.MethodPost, "/inquiries/"+id+"/confirm", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries?check=true", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["count"])
	assert.Equal(t, id, body["data"].([]any)[0].(map[string]any)["id"])

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries?check=false", nil, authHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["count"])
	assert.NotEqual(t, id, body["data"].([]any)[0].(map[string]any)["id"])

	resp, body = doJSON(t, ta.app, fiber.MethodGet, "/inquiries?check=maybe", nil, authHeaders)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(body))
}

func TestStaffGetUnknownInquiry(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/inquiries/"+uuid.NewString(), nil,
		map[string]string{"Authorization": "Bearer tok"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", errorCode(body))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	resp, body := doJSON(t, ta.app, fiber.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	metricsResp, err := ta.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestRequestMetricsCarryTranslatedStatus(t *testing.T) {
	srv := googleTokenServer(t, "staff@example.com")
	defer srv.Close()
	ta := newTestApp(t, srv.URL, 10)

	payload, _ := json.Marshal(map[string]any{"name": "x"})
	resp, _ := doJSON(t, ta.app, fiber.MethodPost, "/contact", payload, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	metricsResp, err := ta.app.Test(req, 5000)
	require.NoError(t, err)
	exposition, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(exposition),
		`http_requests_total{handler="/contact",method="POST",status="400"}`)
	assert.NotContains(t, string(exposition),
		`http_requests_total{handler="/contact",method="POST",status="200"}`)
}
