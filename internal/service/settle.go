package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

// quotaSettler applies the payment-keyed transitions shared by notifications and the sweeper.
type quotaSettler struct {
	tickets TicketStore
	events  EventPublisher
	now     func() time.Time
}

func (q *quotaSettler) confirm(ctx context.Context, ticketID, paymentID, drawnNumber string) (int64, error) {
	return q.move(ctx, ticketID, paymentID, drawnNumber, domain.QuotaSold)
}

func (q *quotaSettler) release(ctx context.Context, ticketID, paymentID, drawnNumber string) (int64, error) {
	return q.move(ctx, ticketID, paymentID, drawnNumber, domain.QuotaAvailable)
}

func (q *quotaSettler) move(ctx context.Context, ticketID, paymentID, drawnNumber string, next domain.QuotaStatus) (int64, error) {
	matched, err := q.tickets.UpdateQuotaByPaymentID(ctx, ticketID, paymentID, domain.Sources(next), next)
	if err != nil {
		return 0, fmt.Errorf("q.tickets.UpdateQuotaByPaymentID -> %w", err)
	}

	if matched > 0 && drawnNumber != "" {
		q.publish(ctx, ticketID, drawnNumber, next)
	}

	return matched, nil
}

func (q *quotaSettler) publish(ctx context.Context, ticketID, drawnNumber string, status domain.QuotaStatus) {
	event := domain.QuotaEvent{
		TicketID:    ticketID,
		DrawnNumber: drawnNumber,
		Status:      status,
		OccurredAt:  q.now(),
	}

	if err := q.events.Publish(ctx, event); err != nil {
		zap.L().Warn("failed to publish quota event",
			zap.String("ticket_id", ticketID),
			zap.String("drawn_number", drawnNumber),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
