package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

var notificationActions = map[string]struct{}{
	"payment.created":               {},
	"payment.updated":               {},
	"payment_intent.created":        {},
	"payment_intent.processing":     {},
	"payment_intent.succeeded":      {},
	"payment_intent.payment_failed": {},
	"payment_intent.canceled":       {},
}

type ConfirmationOption func(*ConfirmationService)

func WithNotificationGuard(guard NotificationGuard) ConfirmationOption {
	return func(s *ConfirmationService) {
		s.guard = guard
	}
}

func WithConfirmationEvents(events EventPublisher) ConfirmationOption {
	return func(s *ConfirmationService) {
		if events != nil {
			s.settler.events = events
		}
	}
}

func WithConfirmationClock(now func() time.Time) ConfirmationOption {
	return func(s *ConfirmationService) {
		s.settler.now = now
	}
}

// ConfirmationService turns payment notifications into quota transitions.
// Every call may be a redelivery, so each branch is safe to repeat.
type ConfirmationService struct {
	tickets TicketStore
	gateway PaymentGateway
	guard   NotificationGuard
	settler *quotaSettler
}

func NewConfirmationService(tickets TicketStore, gateway PaymentGateway, opts ...ConfirmationOption) *ConfirmationService {
	s := &ConfirmationService{
		tickets: tickets,
		gateway: gateway,
		settler: &quotaSettler{
			tickets: tickets,
			events:  discardEvents{},
			now:     time.Now,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ConfirmBuyQuota applies the provider's current view of paymentID to the quota it holds.
// An empty ticketID is resolved from the payment's reference, for providers whose
// webhooks are not scoped to a ticket.
// A returned error means storage failed; the caller still acknowledges the notification.
func (s *ConfirmationService) ConfirmBuyQuota(ctx context.Context, ticketID, paymentID, action string) (domain.ConfirmationOutcome, error) {
	if _, ok := notificationActions[action]; !ok || paymentID == "" {
		return domain.OutcomeIgnored, nil
	}

	log := zap.L().With(
		zap.String("payment_id", paymentID),
		zap.String("action", action),
	)

	if ticketID != "" && s.seen(ctx, ticketID, paymentID, log) {
		return domain.OutcomeDuplicate, nil
	}

	payment, err := s.gateway.GetStatus(ctx, paymentID)
	if err != nil {
		log.Error("failed to fetch payment status, deferring", zap.Error(err))
		return domain.OutcomeDeferred, nil
	}

	if ticketID == "" {
		if payment.ReferenceID == "" {
			log.Warn("payment carries no ticket reference, ignoring")
			return domain.OutcomeIgnored, nil
		}
		ticketID = payment.ReferenceID
		if s.seen(ctx, ticketID, paymentID, log) {
			return domain.OutcomeDuplicate, nil
		}
	}
	log = log.With(zap.String("ticket_id", ticketID))

	outcome, held, err := s.apply(ctx, ticketID, paymentID, payment, log)
	if err != nil {
		return "", err
	}

	log.Info("payment notification processed",
		zap.String("payment_status", string(payment.Status)),
		zap.String("outcome", string(outcome)),
	)

	// a payment that never held a quota may still reserve one later
	if s.guard != nil && held && outcome.IsSettled() {
		if err := s.guard.Remember(ctx, ticketID, paymentID); err != nil {
			log.Warn("failed to remember settled notification", zap.Error(err))
		}
	}

	return outcome, nil
}

func (s *ConfirmationService) seen(ctx context.Context, ticketID, paymentID string, log *zap.Logger) bool {
	if s.guard == nil {
		return false
	}

	seen, err := s.guard.Seen(ctx, ticketID, paymentID)
	if err != nil {
		log.Warn("notification guard lookup failed", zap.Error(err))
		return false
	}

	return seen
}

// apply reports the outcome and whether a quota was held by paymentID.
func (s *ConfirmationService) apply(ctx context.Context, ticketID, paymentID string, payment domain.PaymentInfo, log *zap.Logger) (domain.ConfirmationOutcome, bool, error) {
	switch {
	case payment.Status.IsTerminalFailure():
		current, found, err := s.tickets.FindQuotaByPaymentID(ctx, ticketID, paymentID)
		if err != nil {
			return "", false, fmt.Errorf("s.tickets.FindQuotaByPaymentID -> %w", err)
		}

		matched, err := s.settler.release(ctx, ticketID, paymentID, current.DrawnNumber)
		if err != nil {
			return "", false, fmt.Errorf("s.settler.release -> %w", err)
		}
		if matched == 0 {
			return domain.OutcomeAlreadyReleased, found, nil
		}

		return domain.OutcomeReleased, true, nil

	case payment.Status.IsApproved():
		current, _, err := s.tickets.FindQuotaByPaymentID(ctx, ticketID, paymentID)
		if err != nil {
			return "", false, fmt.Errorf("s.tickets.FindQuotaByPaymentID -> %w", err)
		}

		matched, err := s.settler.confirm(ctx, ticketID, paymentID, current.DrawnNumber)
		if err != nil {
			return "", false, fmt.Errorf("s.settler.confirm -> %w", err)
		}
		if matched > 0 {
			return domain.OutcomeConfirmed, true, nil
		}

		// nothing pending: either a replay, or the quota was released before the money arrived
		after, found, err := s.tickets.FindQuotaByPaymentID(ctx, ticketID, paymentID)
		if err != nil {
			return "", false, fmt.Errorf("s.tickets.FindQuotaByPaymentID -> %w", err)
		}
		if found && after.Status == domain.QuotaSold {
			return domain.OutcomeAlreadyConfirmed, true, nil
		}
		if found {
			return domain.OutcomeDeferred, true, nil
		}

		return s.refundOrphan(ctx, ticketID, paymentID, payment.ReferenceID, log), false, nil

	default:
		return domain.OutcomeAwaiting, false, nil
	}
}

// refundOrphan returns money paid for a reservation that no longer exists. Payments
// referencing another ticket are left alone.
func (s *ConfirmationService) refundOrphan(ctx context.Context, ticketID, paymentID, referenceID string, log *zap.Logger) domain.ConfirmationOutcome {
	if referenceID != ticketID {
		log.Warn("approved payment references another ticket, ignoring",
			zap.String("reference_id", referenceID),
		)
		return domain.OutcomeIgnored
	}

	if err := s.gateway.Refund(ctx, paymentID); err != nil {
		log.Error("failed to refund orphan payment", zap.Error(err))
		return domain.OutcomeDeferred
	}

	log.Warn("refunded approved payment without a reservation")

	return domain.OutcomeRefunded
}
