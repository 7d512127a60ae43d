package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

// redirectTransport sends every SDK request to a local server instead of api.mercadopago.com.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) Do(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host
	out.RequestURI = ""

	return http.DefaultClient.Do(out)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client, err := NewClient(Config{
		AccessToken:     "TEST-token",
		NotificationURL: "https://raffle.example/api/v1/",
		Requester:       redirectTransport{target: target},
	})
	require.NoError(t, err)

	return client
}

func TestClient_Create(t *testing.T) {
	expires := time.Date(2024, 3, 10, 12, 5, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))

		var body struct {
			PaymentMethodID   string  `json:"payment_method_id"`
			TransactionAmount float64 `json:"transaction_amount"`
			DateOfExpiration  string  `json:"date_of_expiration"`
			NotificationURL   string  `json:"notification_url"`
			ExternalReference string  `json:"external_reference"`
			Payer             struct {
				Email string `json:"email"`
			} `json:"payer"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pix", body.PaymentMethodID)
		assert.Equal(t, 12.5, body.TransactionAmount)
		assert.Equal(t, "ana@example.com", body.Payer.Email)
		assert.Equal(t, "https://raffle.example/api/v1/ticket/notify-payment/t1", body.NotificationURL)
		assert.Equal(t, "t1", body.ExternalReference)

		sentExpiry, err := time.Parse(time.RFC3339, body.DateOfExpiration)
		require.NoError(t, err)
		assert.True(t, expires.Equal(sentExpiry))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 1319418432,
			"status": "pending",
			"point_of_interaction": {"transaction_data": {
				"qr_code": "00020126580014br.gov.bcb.pix",
				"qr_code_base64": "iVBORw0KGgo=",
				"ticket_url": "https://www.mercadopago.com.br/payments/1319418432/ticket"
			}}
		}`))
	})

	intent, err := client.Create(context.Background(), domain.PaymentRequest{
		Amount:      12.5,
		PayerEmail:  "ana@example.com",
		Description: "Quota 01 of ticket t1",
		ExpiresAt:   expires,
		ReferenceID: "t1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentIntent{
		ExternalID:   "1319418432",
		Status:       domain.PaymentPending,
		CopyPaste:    "00020126580014br.gov.bcb.pix",
		ExternalURL:  "https://www.mercadopago.com.br/payments/1319418432/ticket",
		QRCodeBase64: "iVBORw0KGgo=",
	}, intent)
}

func TestClient_GetStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/1319418432", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1319418432, "status": "approved", "external_reference": "t1"}`))
	})

	info, err := client.GetStatus(context.Background(), "1319418432")
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentInfo{ExternalID: "1319418432", Status: domain.PaymentApproved, ReferenceID: "t1"}, info)
}

func TestClient_Cancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/payments/42", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cancelled", body["status"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "status": "cancelled"}`))
	})

	assert.NoError(t, client.Cancel(context.Background(), "42"))
}

func TestClient_Refund(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/42/refunds", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7, "payment_id": 42, "status": "approved"}`))
	})

	assert.NoError(t, client.Refund(context.Background(), "42"))
}

func TestClient_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Payment not found","status":404}`))
	})

	_, err := client.GetStatus(context.Background(), "404")
	assert.Error(t, err)
}

func TestClient_NonNumericID(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := client.GetStatus(context.Background(), "pay-1")
	assert.ErrorIs(t, err, ErrInvalidPaymentID)
	assert.ErrorIs(t, client.Cancel(context.Background(), "pay-1"), ErrInvalidPaymentID)
	assert.ErrorIs(t, client.Refund(context.Background(), "pay-1"), ErrInvalidPaymentID)
	assert.Zero(t, calls)
}
