package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

const DefaultPaymentExpiration = 5 * time.Minute

type PurchaseOption func(*PurchaseService)

// WithExpiration sets how long the buyer has to pay before the provider expires the payment.
func WithExpiration(d time.Duration) PurchaseOption {
	return func(s *PurchaseService) {
		if d > 0 {
			s.expiration = d
		}
	}
}

func WithPurchaseClock(now func() time.Time) PurchaseOption {
	return func(s *PurchaseService) {
		s.settler.now = now
	}
}

func WithPurchaseEvents(events EventPublisher) PurchaseOption {
	return func(s *PurchaseService) {
		if events != nil {
			s.settler.events = events
		}
	}
}

// PurchaseService reserves quotas against a freshly created payment.
type PurchaseService struct {
	tickets    TicketStore
	users      UserDirectory
	gateway    PaymentGateway
	settler    *quotaSettler
	expiration time.Duration
}

func NewPurchaseService(tickets TicketStore, users UserDirectory, gateway PaymentGateway, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		tickets: tickets,
		users:   users,
		gateway: gateway,
		settler: &quotaSettler{
			tickets: tickets,
			events:  discardEvents{},
			now:     time.Now,
		},
		expiration: DefaultPaymentExpiration,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// BuyQuota creates a payment for drawnNumber and reserves the quota for buyerID.
// The availability checks before the payment is created are advisory; the
// conditional reserve decides. A buyer who loses that race gets ErrQuotaUnavailable
// and their payment is cancelled.
func (s *PurchaseService) BuyQuota(ctx context.Context, ticketID, buyerID, drawnNumber string) (domain.PaymentRedirect, error) {
	buyerID = strings.TrimSpace(buyerID)
	drawnNumber = strings.TrimSpace(drawnNumber)
	if buyerID == "" || drawnNumber == "" {
		return domain.PaymentRedirect{}, fmt.Errorf("%w: userId and drawnNumber are required", ErrValidation)
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.PaymentRedirect{}, fmt.Errorf("s.tickets.GetTicket -> %w", err)
	}

	if ticket.Status == domain.TicketClosed {
		return domain.PaymentRedirect{}, ErrTicketClosed
	}

	quota, ok := ticket.FindQuota(drawnNumber)
	if !ok {
		return domain.PaymentRedirect{}, ErrQuotaNotFound
	}
	if quota.Status != domain.QuotaAvailable {
		return domain.PaymentRedirect{}, ErrQuotaUnavailable
	}

	if ticket.LimitByUser > 0 && ticket.HeldBy(buyerID) >= ticket.LimitByUser {
		return domain.PaymentRedirect{}, ErrPurchaseLimit
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return domain.PaymentRedirect{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	intent, err := s.gateway.Create(ctx, domain.PaymentRequest{
		Amount:      ticket.Price,
		PayerEmail:  buyer.Email,
		Description: fmt.Sprintf("Quota %s of ticket %s", drawnNumber, ticket.ID),
		ExpiresAt:   s.settler.now().Add(s.expiration),
		ReferenceID: ticket.ID,
	})
	if err != nil {
		return domain.PaymentRedirect{}, fmt.Errorf("s.gateway.Create -> %w: %w", ErrGateway, err)
	}
	if intent.Status.IsTerminalFailure() {
		return domain.PaymentRedirect{}, fmt.Errorf("%w: payment %s was %s at creation", ErrGateway, intent.ExternalID, intent.Status)
	}

	matched, err := s.tickets.ReserveQuota(ctx, ticket.ID, drawnNumber, domain.Sources(domain.QuotaPending), domain.QuotaPending, buyer.ID, intent.ExternalID)
	if err != nil {
		s.cancelPayment(ctx, ticket.ID, drawnNumber, intent.ExternalID)
		return domain.PaymentRedirect{}, fmt.Errorf("s.tickets.ReserveQuota -> %w", err)
	}
	if matched == 0 {
		s.cancelPayment(ctx, ticket.ID, drawnNumber, intent.ExternalID)
		return domain.PaymentRedirect{}, ErrQuotaUnavailable
	}

	s.settler.publish(ctx, ticket.ID, drawnNumber, domain.QuotaPending)

	return intent.Redirect(), nil
}

// cancelPayment voids a payment whose reservation did not land. It must outlive
// a caller that already went away.
func (s *PurchaseService) cancelPayment(ctx context.Context, ticketID, drawnNumber, paymentID string) {
	if err := s.gateway.Cancel(context.WithoutCancel(ctx), paymentID); err != nil {
		zap.L().Error("failed to cancel payment of a lost reservation",
			zap.String("ticket_id", ticketID),
			zap.String("drawn_number", drawnNumber),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}
}
