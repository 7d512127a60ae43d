package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raffle-hub/raffle-api/internal/config"
	"github.com/raffle-hub/raffle-api/internal/pkg/jwthelper"
	"github.com/raffle-hub/raffle-api/internal/pkg/mercadopago"
	"github.com/raffle-hub/raffle-api/internal/pkg/sandboxpay"
	"github.com/raffle-hub/raffle-api/internal/pkg/stripepay"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API:         &config.APIConfig{Port: "0", JWTSigningKey: "server-test-key", Environment: "development"},
		Gin:         &config.GinConfig{Mode: "test"},
		Postgres:    &config.PostgresConfig{},
		Payment:     &config.PaymentConfig{Provider: "sandbox"},
		Reservation: &config.ReservationConfig{},
		Redis:       &config.RedisConfig{},
		AMQP:        &config.AMQPConfig{},
	}
}

// offlineDB never dials, so only routes that stop before storage can be exercised.
func offlineDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	return db
}

func TestNewServer_Routes(t *testing.T) {
	conf := testConfig()
	s, err := NewServer(conf, offlineDB(t), nil)
	require.NoError(t, err)
	require.NotNil(t, s.Hub)
	require.NotNil(t, s.Sweeper)
	defer s.Close()

	userToken, err := jwthelper.GenerateToken([]byte(conf.API.JWTSigningKey), "u1", "user", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{name: "healthcheck", method: http.MethodGet, path: "/", wantCode: http.StatusOK},
		{name: "buying needs a token", method: http.MethodPost, path: "/api/v1/ticket/t1/buy-quota", wantCode: http.StatusUnauthorized},
		{name: "creating tickets needs a token", method: http.MethodPost, path: "/api/v1/ticket", wantCode: http.StatusUnauthorized},
		{name: "creating tickets needs an admin", method: http.MethodPost, path: "/api/v1/ticket", token: userToken, wantCode: http.StatusForbidden},
		{name: "listing users needs an admin", method: http.MethodGet, path: "/api/v1/user", token: userToken, wantCode: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", wantCode: http.StatusNotFound},
		{name: "sandbox status needs a body", method: http.MethodPost, path: "/api/v1/sandbox/payments/nope/status", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			s.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestNewPaymentGateway(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		environment string
		want        interface{}
		wantErr     error
	}{
		{name: "default in development", provider: "", environment: "development", want: &sandboxpay.Gateway{}},
		{name: "sandbox in development", provider: "sandbox", environment: "development", want: &sandboxpay.Gateway{}},
		{name: "default in production", provider: "", environment: "production", wantErr: errSandboxProvider},
		{name: "sandbox in production", provider: "sandbox", environment: "production", wantErr: errSandboxProvider},
		{name: "mercadopago", provider: "mercadopago", environment: "production", want: &mercadopago.Client{}},
		{name: "stripe", provider: "stripe", environment: "production", want: &stripepay.Client{}},
		{name: "unknown", provider: "paypal", environment: "development", wantErr: errUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway, err := newPaymentGateway(&config.PaymentConfig{
				Provider:    tt.provider,
				AccessToken: "TEST-token",
				Currency:    "brl",
			}, tt.environment)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, gateway)
		})
	}
}

func TestNewServer_SandboxRefusedOutsideDevelopment(t *testing.T) {
	conf := testConfig()
	conf.API.Environment = "production"

	_, err := NewServer(conf, offlineDB(t), nil)
	assert.ErrorIs(t, err, errSandboxProvider)
}

func TestNewServer_NoSandboxRoutesForRealProviders(t *testing.T) {
	conf := testConfig()
	conf.API.Environment = "production"
	conf.Payment = &config.PaymentConfig{Provider: "stripe", AccessToken: "sk_test_123", Currency: "brl"}

	s, err := NewServer(conf, offlineDB(t), nil)
	require.NoError(t, err)
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sandbox/payments/p1/status", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
