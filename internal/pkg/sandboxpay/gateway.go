// Package sandboxpay is an in-memory payment gateway for local runs. Payments start
// pending and only change when SetStatus is called.
package sandboxpay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

var ErrPaymentNotFound = errors.New("sandbox payment not found")

type Gateway struct {
	mu       sync.Mutex
	payments map[string]domain.PaymentInfo
}

func NewGateway() *Gateway {
	return &Gateway{
		payments: map[string]domain.PaymentInfo{},
	}
}

func (g *Gateway) Create(_ context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	id := uuid.NewString()

	g.mu.Lock()
	g.payments[id] = domain.PaymentInfo{ExternalID: id, Status: domain.PaymentPending, ReferenceID: req.ReferenceID}
	g.mu.Unlock()

	return domain.PaymentIntent{
		ExternalID:  id,
		Status:      domain.PaymentPending,
		CopyPaste:   fmt.Sprintf("sandbox-pix:%s:%.2f", id, req.Amount),
		ExternalURL: "https://sandbox.invalid/pay/" + id,
	}, nil
}

func (g *Gateway) GetStatus(_ context.Context, paymentID string) (domain.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.payments[paymentID]
	if !ok {
		return domain.PaymentInfo{}, ErrPaymentNotFound
	}

	return p, nil
}

func (g *Gateway) Cancel(_ context.Context, paymentID string) error {
	return g.SetStatus(paymentID, domain.PaymentCancelled)
}

func (g *Gateway) Refund(_ context.Context, paymentID string) error {
	return g.SetStatus(paymentID, domain.PaymentRefunded)
}

func (g *Gateway) SetStatus(paymentID string, status domain.PaymentStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.payments[paymentID]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	g.payments[paymentID] = p

	return nil
}
