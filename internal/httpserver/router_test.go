package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"escrowhub/internal/clock"
	"escrowhub/internal/gateway"
	"escrowhub/internal/handler"
	"escrowhub/internal/model"
	"escrowhub/internal/service"
	"escrowhub/internal/store"
	"escrowhub/pkg/trace"
	"escrowhub/pkg/util"
)

const (
	testSecret   = "test-secret"
	testAdminKey = "let-me-in"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("store down") }

type testServer struct {
	router *Router
	gw     *gateway.MemoryGateway
	clock  *clock.Fake
}

func newTestServer(t *testing.T, limiter *RateLimiter, checks ...store.Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := gateway.NewMemoryGateway()
	clk := clock.NewFake(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	ledger, err := service.New(service.Options{
		Store:          store.NewMemoryStore(),
		Gateway:        gw,
		Clock:          clk,
		CustodyAddress: "custody",
		Logger:         logger,
	})
	require.NoError(t, err)

	hash, err := util.HashPassword(testAdminKey)
	require.NoError(t, err)

	r := NewRouter(Deps{
		Users:        handler.NewUserHandler(ledger, logger),
		Jobs:         handler.NewJobHandler(ledger, logger),
		Campaigns:    handler.NewCampaignHandler(ledger, logger),
		Payments:     handler.NewPaymentHandler(ledger, nil, logger),
		Admin:        handler.NewAdminHandler(ledger, logger),
		JWTSecret:    testSecret,
		AdminKeyHash: hash,
		Limiter:      limiter,
		ReadyChecks:  checks,
		Logger:       logger,
	})
	return &testServer{router: r, gw: gw, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := util.GenerateJWT(caller, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	return w
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))

	w = s.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestServer(t, nil, failingPinger{})
	w = down.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTraceHeaderIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderName, "abc-123")
	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(trace.HeaderName))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.gw.Mint("USD", "emp", decimal.NewFromInt(500))

	w := s.do(t, http.MethodPost, "/users", "emp", gin.H{"role": "employer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/users", "fl", gin.H{"role": "freelancer"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/users", "fl", gin.H{"role": "employer"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/jobs", "fl", gin.H{"title": "x", "budget": "10", "token": "USD"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/jobs", "emp", gin.H{"title": "x", "budget": "1000", "token": "USD"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = s.do(t, http.MethodPost, "/jobs", "emp", gin.H{"title": "Site", "description": "Build it", "budget": "200", "token": "USD"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var job model.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, model.JobOpen, job.Status)

	w = s.do(t, http.MethodGet, "/jobs?status=open", "fl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Jobs []model.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Jobs, 1)

	w = s.do(t, http.MethodPost, "/jobs/1/accept", "emp", gin.H{"freelancer": "fl"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/jobs/1/proposals", "fl", gin.H{"price": "180"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/jobs/1/accept", "emp", gin.H{"freelancer": "fl"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/jobs/1/proposals", "fl", gin.H{"price": "180"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPost, "/jobs/1/complete", "fl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/jobs/1/approve", "emp", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/addresses/fl/balance?token=USD", "fl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(200)))

	w = s.do(t, http.MethodGet, "/addresses/fl/transactions", "fl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), model.MessageJobPayment)

	w = s.do(t, http.MethodGet, "/jobs/abc", "fl", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/jobs/99", "fl", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCampaignDeadlinesOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.gw.Mint("USD", "backer", decimal.NewFromInt(100))

	w := s.do(t, http.MethodPost, "/campaigns", "creator", gin.H{
		"title": "Album", "goal": "1000", "duration_seconds": 3600, "token": "USD",
		"tiers": []gin.H{{"amount": "10", "reward": "sticker"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/campaigns/1/fund", "backer", gin.H{"amount": "60"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/campaigns/1/close", "anyone", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	s.clock.Advance(2 * time.Hour)
	w = s.do(t, http.MethodPost, "/campaigns/1/fund", "backer", gin.H{"amount": "10"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/campaigns/1/close", "anyone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c model.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, model.CampaignClosed, c.Status)

	w = s.do(t, http.MethodGet, "/campaigns?status=closed", "anyone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Album")

	w = s.do(t, http.MethodGet, "/campaigns?status=weird", "anyone", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDurationsOutOfRangeAreRejected(t *testing.T) {
	s := newTestServer(t, nil)
	for _, seconds := range []int64{0, -1, 9223372037, 18446744074} {
		w := s.do(t, http.MethodPost, "/campaigns", "creator", gin.H{
			"title": "Album", "goal": "1000", "duration_seconds": seconds, "token": "USD",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "duration_seconds=%d", seconds)
		assert.Contains(t, w.Body.String(), "invalid duration_seconds")

		w = s.do(t, http.MethodPost, "/payments", "payer", gin.H{
			"to": "b", "amount": "10", "interval_seconds": seconds, "message": "sub",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "interval_seconds=%d", seconds)
		assert.Contains(t, w.Body.String(), "invalid interval_seconds")
	}

	w := s.do(t, http.MethodGet, "/campaigns?status=active", "anyone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Album")
}

func TestPaymentsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.gw.Mint("USD", "payer", decimal.NewFromInt(100))

	w := s.do(t, http.MethodPost, "/transfers/batch", "payer", gin.H{
		"token": "USD", "message": "split",
		"recipients": []gin.H{{"to": "a", "amount": "60"}, {"to": "b", "amount": "60"}},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":1`)

	w = s.do(t, http.MethodPost, "/transactions", "payer", gin.H{"to": "a", "amount": "5", "message": "note"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/payments", "payer", gin.H{"to": "b", "amount": "10", "interval_seconds": 60, "message": "sub"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/addresses/a/feed", "a", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/admin/initialize", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/initialize", nil)
	req.Header.Set(AdminKeyHeader, "wrong")
	w = httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, want := range []string{`"already_initialized":false`, `"already_initialized":true`} {
		req = httptest.NewRequest(http.MethodPost, "/admin/initialize", nil)
		req.Header.Set(AdminKeyHeader, testAdminKey)
		w = httptest.NewRecorder()
		s.router.Engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), want)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/journal/rebuild", nil)
	req.Header.Set(AdminKeyHeader, testAdminKey)
	w = httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/payments/execute", bytes.NewBufferString(`{"token":"USD"}`))
	req.Header.Set(AdminKeyHeader, testAdminKey)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"executed":0`)
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(1, 2))

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodGet, "/jobs", "someone", nil)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health checks bypass the limiter
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
