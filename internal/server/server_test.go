package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/wingmate/wingmate/internal/cache"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	creditservice "github.com/wingmate/wingmate/internal/credit/service"
	"github.com/wingmate/wingmate/internal/gate"
	"github.com/wingmate/wingmate/internal/generator"
	"github.com/wingmate/wingmate/internal/identity"
	"github.com/wingmate/wingmate/internal/observability"
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	paymentservice "github.com/wingmate/wingmate/internal/payment/service"
	"github.com/wingmate/wingmate/internal/quota"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	usagelocal "github.com/wingmate/wingmate/internal/usage/local"
	usageremote "github.com/wingmate/wingmate/internal/usage/remote"
	usageservice "github.com/wingmate/wingmate/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type generatorStub struct {
	err   error
	calls int
}

func (g *generatorStub) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Result{
		MatchName: "Jordan",
		Openers:   []usagedomain.Opener{{Type: "question", Emoji: "🎯", Text: "hot take: cereal is soup"}},
		Analysis:  &usagedomain.Analysis{Vibe: "gym-and-brunch"},
	}, nil
}

type processorStub struct{}

func (processorStub) CreateCheckout(ctx context.Context, sessionID, email string) (string, error) {
	return "https://pay.example.com/c/" + sessionID, nil
}

type testEnv struct {
	engine   *gin.Engine
	clk      *clock.FakeClock
	gen      *generatorStub
	db       *gorm.DB
	credits  creditdomain.Service
	usage    usagedomain.Service
	sessions *identity.Sessions
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usagedomain.GenerationRecord{},
		&creditdomain.CreditBalance{},
		&paymentdomain.CheckoutSession{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		Quota: config.QuotaConfig{
			CooldownDays:       2,
			FreeLimitAnonymous: 5,
			FreeLimitSignedIn:  10,
			HistoryLimit:       50,
			MigrationLimit:     20,
		},
		Credits: config.CreditsConfig{PerPurchase: 25},
	}
	schedule := quota.NewSchedule(2)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	localLedger := usagelocal.NewLedger(client, schedule, clk, cfg.Quota.HistoryLimit, zap.NewNop())
	remoteLedger := usageremote.NewLedger(db, node, clk, zap.NewNop())
	usageSvc := usageservice.NewService(usageservice.Params{
		Config:   cfg,
		Schedule: schedule,
		Clock:    clk,
		Local:    localLedger,
		Remote:   remoteLedger,
		Counts:   cache.NewCountCache(),
		Log:      zap.NewNop(),
	})
	creditSvc := creditservice.NewService(creditservice.Params{DB: db, Clock: clk, Log: zap.NewNop()})
	paySvc := paymentservice.NewService(paymentservice.Params{
		DB:        db,
		Config:    cfg,
		Clock:     clk,
		Processor: processorStub{},
		Credits:   creditSvc,
		Metrics:   metrics,
		Log:       zap.NewNop(),
	})
	g := gate.New(gate.Params{Usage: usageSvc, Credits: creditSvc, Metrics: metrics, Log: zap.NewNop()})

	sessions := identity.NewSessions()
	sessions.Subscribe(func(old, next identity.Identity) {
		if old.IsSignedIn() || !next.IsSignedIn() {
			return
		}
		_, _ = usageSvc.MigrateHistory(context.Background(), next)
	})

	gen := &generatorStub{}
	engine := NewEngine()
	NewServer(Params{
		Engine:    engine,
		Config:    cfg,
		Sessions:  sessions,
		Usage:     usageSvc,
		Credits:   creditSvc,
		Gate:      g,
		Generator: gen,
		Payments:  paySvc,
		GenID:     node,
		Clock:     clk,
		Log:       zap.NewNop(),
	})

	return &testEnv{
		engine:   engine,
		clk:      clk,
		gen:      gen,
		db:       db,
		credits:  creditSvc,
		usage:    usageSvc,
		sessions: sessions,
	}
}

func (e *testEnv) do(t *testing.T, method, path, device string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if device != "" {
		req.Header.Set(headerDeviceID, device)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func generateBody() map[string]string {
	return map[string]string{"image": "aGVsbG8=", "mediaType": "image/png", "mode": "flirty"}
}

func TestGenerateRequiresDeviceHeader(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/generate", "", generateBody())
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHappyPathChargesFreeQuota(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entry usagedomain.HistoryEntry `json:"entry"`
		Unit  string                   `json:"unit"`
		Usage struct {
			RemainingFree int `json:"remainingFree"`
		} `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "free", resp.Unit)
	require.Equal(t, "Jordan", resp.Entry.MatchName)
	require.NotEmpty(t, resp.Entry.ID)
	require.Equal(t, 4, resp.Usage.RemainingFree)
}

func TestGenerateDeniedWhenExhausted(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 5; i++ {
		w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "resetAt")
	require.Equal(t, 5, env.gen.calls, "denied attempts never reach the generator")
}

func TestGenerateValidationBeforeQuota(t *testing.T) {
	env := setupEnv(t)

	body := generateBody()
	body["mode"] = "sonnet"
	w := env.do(t, http.MethodPost, "/api/generate", "device-1", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	usage := env.do(t, http.MethodGet, "/api/usage", "device-1", nil)
	require.Contains(t, usage.Body.String(), `"remainingFree":5`)
}

func TestGenerateFailureCostsNothing(t *testing.T) {
	env := setupEnv(t)
	env.gen.err = &generator.UpstreamError{Message: "generation failed, try again", Cause: errors.New("boom")}

	w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusBadGateway, w.Code)

	usage := env.do(t, http.MethodGet, "/api/usage", "device-1", nil)
	require.Contains(t, usage.Body.String(), `"remainingFree":5`)
}

func TestGenerateSpendsCreditWhenFreeExhausted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.sessions.SignIn("device-1", "user-1")
	user := identity.SignedIn("device-1", "user-1")
	require.NoError(t, env.credits.Add(ctx, user, 3))

	// Exhaust the signed-in free allowance.
	for i := 0; i < 10; i++ {
		w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"unit":"credit"`)

	balance, err := env.credits.Balance(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 2, balance)
}

func TestSignInMigratesLocalHistory(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/signin", "device-1", map[string]string{"userId": "user-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&usagedomain.GenerationRecord{}).
		Where("user_id = ?", "user-1").Count(&count).Error)
	require.Equal(t, int64(3), count)

	// A second sign-in after sign-out migrates nothing new.
	env.do(t, http.MethodPost, "/api/signout", "device-1", nil)
	env.do(t, http.MethodPost, "/api/signin", "device-1", map[string]string{"userId": "user-1"})
	require.NoError(t, env.db.Model(&usagedomain.GenerationRecord{}).
		Where("user_id = ?", "user-1").Count(&count).Error)
	require.Equal(t, int64(3), count)
}

func TestHistoryEndpoint(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 2; i++ {
		env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	}

	w := env.do(t, http.MethodGet, "/api/history?limit=1", "device-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []usagedomain.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 1)
}

func TestCheckoutAndConfirmFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.sessions.SignIn("device-1", "user-1")

	w := env.do(t, http.MethodPost, "/api/checkout", "device-1", map[string]string{"email": "a@b.c"})
	require.Equal(t, http.StatusOK, w.Code)

	var session paymentdomain.CheckoutSession
	require.NoError(t, env.db.First(&session).Error)

	confirmPath := fmt.Sprintf("/api/payment/confirm?session_id=%s&payment=success", session.ID)
	for i := 0; i < 2; i++ {
		w = env.do(t, http.MethodGet, confirmPath, "device-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	balance, err := env.credits.Balance(ctx, identity.SignedIn("device-1", "user-1"))
	require.NoError(t, err)
	require.Equal(t, 25, balance)
}

func TestCheckoutRequiresSignIn(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/checkout", "device-1", map[string]string{"email": "a@b.c"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuotaResetsAfterCooldown(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 5; i++ {
		env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	}
	w := env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	env.clk.Advance(48 * time.Hour)

	w = env.do(t, http.MethodPost, "/api/generate", "device-1", generateBody())
	require.Equal(t, http.StatusOK, w.Code)
}
