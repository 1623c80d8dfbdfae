package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store/memory"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{JWTSecret: testSecret, CORSOrigins: "*"}
	for _, opt := range opts {
		opt(cfg)
	}
	st := memory.NewStore()
	deps := services.Deps{
		Settings: services.Settings{ReviewDeadlineDays: 7, ExtensionDays: 3, Quorum: 3, AuditRetentionYears: 2},
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	escalation := services.NewEscalationService(st, deps)

	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewHealthHandler(func() error { return nil }),
		handlers.NewReportHandler(services.NewReportService(st, deps), escalation),
		handlers.NewReviewHandler(escalation, services.NewVotingService(st, deps), services.NewResolver(st, deps)),
		handlers.NewAuditHandler(services.NewAuditService(st, deps)),
	)
	return &testServer{app: app, store: st}
}

func token(t *testing.T, sub uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (s *testServer) image() uuid.UUID {
	id := uuid.New()
	s.store.PutImage(models.Image{ID: id, Visibility: models.VisibilityActive})
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DB)
}

func TestHealth_DatabaseDown(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handlers.NewHealthHandler(func() error { return errors.New("refused") }).Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthAndCapabilities(t *testing.T) {
	s := newTestServer(t)
	user := token(t, uuid.New(), "user")

	resp, body := s.do(t, http.MethodGet, "/api/admin/moderation/reviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "unauthorized", errResp.Code)

	resp, body = s.do(t, http.MethodGet, "/api/admin/moderation/reviews", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "forbidden", errResp.Code)

	resp, _ = s.do(t, http.MethodPost, "/api/admin/moderation/audit/prune", token(t, uuid.New(), "moderator"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/admin/moderation/audit/prune", token(t, uuid.New(), "admin"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfiguredModeratorIDs(t *testing.T) {
	moderatorID := uuid.New()
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.ModeratorUserIDs = "someone-else, " + moderatorID.String()
	})

	resp, _ := s.do(t, http.MethodGet, "/api/admin/moderation/reviews", token(t, moderatorID, ""), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/admin/moderation/audit/prune", token(t, moderatorID, ""), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)
	moderator := token(t, uuid.New(), "moderator")
	reporter := token(t, uuid.New(), "user")
	imageID := s.image()

	resp, body := s.do(t, http.MethodPost, "/api/reports", reporter, fiber.Map{
		"image_id": imageID, "category": "offensive", "reason": "hate symbol",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var report models.Report
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, models.ReportPending, report.Status)

	resp, body = s.do(t, http.MethodPost, "/api/admin/moderation/reports/"+report.ID.String()+"/escalate", moderator, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var review models.Review
	require.NoError(t, json.Unmarshal(body, &review))
	assert.Equal(t, models.ReviewOpen, review.Status)

	// A second review of the same image conflicts.
	resp, body = s.do(t, http.MethodPost, "/api/admin/moderation/reviews", moderator, fiber.Map{"image_id": imageID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "conflict", errResp.Code)

	reviewPath := "/api/admin/moderation/reviews/" + review.ID.String()
	resp, body = s.do(t, http.MethodPut, reviewPath+"/vote", moderator, fiber.Map{"value": "remove"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = s.do(t, http.MethodPut, reviewPath+"/vote", moderator, fiber.Map{"value": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, reviewPath+"/extend", moderator, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = s.do(t, http.MethodPost, reviewPath+"/extend", moderator, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "invalid_state", errResp.Code)

	resp, body = s.do(t, http.MethodPost, reviewPath+"/close", moderator, fiber.Map{"outcome": "remove"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodGet, reviewPath, moderator, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail services.ReviewDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, models.OutcomeRemove, detail.Review.Outcome)
	assert.Equal(t, models.Tally{Remove: 1}, detail.Tally)

	resp, body = s.do(t, http.MethodGet, "/api/admin/moderation/audit?review_id="+review.ID.String(), moderator, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &audit))
	// started, vote, extended, closed
	assert.EqualValues(t, 4, audit.Total)
}

func TestNotFoundAndBadIDs(t *testing.T) {
	s := newTestServer(t)
	moderator := token(t, uuid.New(), "moderator")

	resp, body := s.do(t, http.MethodGet, "/api/admin/moderation/reviews/"+uuid.New().String(), moderator, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "not_found", errResp.Code)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/moderation/reports/not-a-uuid", moderator, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/moderation/reports?status=bogus", moderator, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolveEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/api/admin/moderation/resolve", token(t, uuid.New(), "moderator"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary services.ResolveSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Zero(t, summary.Processed)
	assert.NotNil(t, summary.ErrorDetails)
}
