// Package stripepay is a payment gateway backed by Stripe payment intents.
package stripepay

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

const referenceKey = "ticket_id"

type Config struct {
	SecretKey string
	Currency  string
	// BaseURL overrides the Stripe api endpoint, mostly for tests.
	BaseURL string
}

type Client struct {
	api      *client.API
	currency string
}

func NewClient(conf Config) *Client {
	var backends *stripe.Backends
	if conf.BaseURL != "" {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL: stripe.String(conf.BaseURL),
			}),
		}
	}

	api := &client.API{}
	api.Init(conf.SecretKey, backends)

	currency := strings.ToLower(conf.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyBRL)
	}

	return &Client{
		api:      api,
		currency: currency,
	}
}

func (c *Client) Create(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(toMinorUnits(req.Amount)),
		Currency:     stripe.String(c.currency),
		Description:  stripe.String(req.Description),
		ReceiptEmail: stripe.String(req.PayerEmail),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	params.AddMetadata(referenceKey, req.ReferenceID)
	params.AddMetadata("expires_at", req.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"))

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("c.api.PaymentIntents.New -> %w", err)
	}

	// the buyer confirms the intent client side with its secret
	intent := domain.PaymentIntent{
		ExternalID: pi.ID,
		Status:     mapStatus(pi.Status),
		CopyPaste:  pi.ClientSecret,
	}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		intent.ExternalURL = pi.NextAction.RedirectToURL.URL
	}

	return intent, nil
}

func (c *Client) GetStatus(ctx context.Context, paymentID string) (domain.PaymentInfo, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return domain.PaymentInfo{}, fmt.Errorf("c.api.PaymentIntents.Get -> %w", err)
	}

	return domain.PaymentInfo{
		ExternalID:  pi.ID,
		Status:      mapStatus(pi.Status),
		ReferenceID: pi.Metadata[referenceKey],
	}, nil
}

func (c *Client) Cancel(ctx context.Context, paymentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := c.api.PaymentIntents.Cancel(paymentID, params); err != nil {
		return fmt.Errorf("c.api.PaymentIntents.Cancel -> %w", err)
	}

	return nil
}

func (c *Client) Refund(ctx context.Context, paymentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())

	if _, err := c.api.Refunds.New(params); err != nil {
		return fmt.Errorf("c.api.Refunds.New -> %w", err)
	}

	return nil
}

func mapStatus(s stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentApproved
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentCancelled
	case stripe.PaymentIntentStatusProcessing:
		return domain.PaymentInProcess
	case stripe.PaymentIntentStatusRequiresCapture:
		return domain.PaymentAuthorized
	default:
		return domain.PaymentPending
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
