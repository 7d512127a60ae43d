// Package mercadopago is a PIX payment gateway backed by the Mercado Pago SDK.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/mercadopago/sdk-go/pkg/requester"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

const pixMethod = "pix"

var ErrInvalidPaymentID = errors.New("mercadopago: payment ids are numeric")

type Config struct {
	AccessToken string
	// NotificationURL is the public base url of this api. Each payment is told to
	// notify <NotificationURL>/ticket/notify-payment/<ticket id>.
	NotificationURL string
	Timeout         time.Duration
	// Requester replaces the SDK transport, mostly for tests.
	Requester requester.Requester
}

type Client struct {
	payments        payment.Client
	refunds         refund.Client
	notificationURL string
}

func NewClient(conf Config) (*Client, error) {
	transport := conf.Requester
	if transport == nil {
		timeout := conf.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		transport = &http.Client{Timeout: timeout}
	}

	cfg, err := mpconfig.New(conf.AccessToken, mpconfig.WithHTTPClient(transport))
	if err != nil {
		return nil, fmt.Errorf("mpconfig.New -> %w", err)
	}

	return &Client{
		payments:        payment.NewClient(cfg),
		refunds:         refund.NewClient(cfg),
		notificationURL: strings.TrimRight(conf.NotificationURL, "/"),
	}, nil
}

func (c *Client) Create(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	expiresAt := req.ExpiresAt
	request := payment.Request{
		TransactionAmount: req.Amount,
		PaymentMethodID:   pixMethod,
		Description:       req.Description,
		DateOfExpiration:  &expiresAt,
		ExternalReference: req.ReferenceID,
		Payer: &payment.PayerRequest{
			Email: req.PayerEmail,
		},
	}
	if c.notificationURL != "" {
		request.NotificationURL = fmt.Sprintf("%s/ticket/notify-payment/%s", c.notificationURL, req.ReferenceID)
	}

	resource, err := c.payments.Create(ctx, request)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("c.payments.Create -> %w", err)
	}

	data := resource.PointOfInteraction.TransactionData

	return domain.PaymentIntent{
		ExternalID:   strconv.Itoa(resource.ID),
		Status:       domain.PaymentStatus(resource.Status),
		CopyPaste:    data.QRCode,
		ExternalURL:  data.TicketURL,
		QRCodeBase64: data.QRCodeBase64,
	}, nil
}

func (c *Client) GetStatus(ctx context.Context, paymentID string) (domain.PaymentInfo, error) {
	id, err := parseID(paymentID)
	if err != nil {
		return domain.PaymentInfo{}, err
	}

	resource, err := c.payments.Get(ctx, id)
	if err != nil {
		return domain.PaymentInfo{}, fmt.Errorf("c.payments.Get -> %w", err)
	}
	if resource.Status == "" {
		return domain.PaymentInfo{}, fmt.Errorf("mercadopago: payment %s has no status", paymentID)
	}

	return domain.PaymentInfo{
		ExternalID:  strconv.Itoa(resource.ID),
		Status:      domain.PaymentStatus(resource.Status),
		ReferenceID: resource.ExternalReference,
	}, nil
}

func (c *Client) Cancel(ctx context.Context, paymentID string) error {
	id, err := parseID(paymentID)
	if err != nil {
		return err
	}

	if _, err := c.payments.Cancel(ctx, id); err != nil {
		return fmt.Errorf("c.payments.Cancel -> %w", err)
	}

	return nil
}

func (c *Client) Refund(ctx context.Context, paymentID string) error {
	id, err := parseID(paymentID)
	if err != nil {
		return err
	}

	if _, err := c.refunds.Create(ctx, id); err != nil {
		return fmt.Errorf("c.refunds.Create -> %w", err)
	}

	return nil
}

func parseID(paymentID string) (int, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPaymentID, paymentID)
	}

	return id, nil
}
