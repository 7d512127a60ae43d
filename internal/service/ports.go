package service

import (
	"context"
	"time"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

// TicketStore holds the ticket aggregate. Quota mutations are conditional single-row
// updates that return how many rows matched; zero is not an error.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	FindAllTickets(ctx context.Context) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	AddPrize(ctx context.Context, ticketID string, prize domain.Prize) (domain.Prize, error)
	RemovePrize(ctx context.Context, ticketID, prizeID string) error

	ReserveQuota(ctx context.Context, ticketID, drawnNumber string, expected []domain.QuotaStatus, next domain.QuotaStatus, buyerID, paymentID string) (int64, error)
	UpdateQuotaByPaymentID(ctx context.Context, ticketID, paymentID string, expected []domain.QuotaStatus, next domain.QuotaStatus) (int64, error)
	FindQuotaByPaymentID(ctx context.Context, ticketID, paymentID string) (domain.Quota, bool, error)
	FindStaleReservations(ctx context.Context, before time.Time, limit int) ([]domain.PendingQuota, error)
}

type PaymentGateway interface {
	Create(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error)
	GetStatus(ctx context.Context, paymentID string) (domain.PaymentInfo, error)
	Cancel(ctx context.Context, paymentID string) error
	Refund(ctx context.Context, paymentID string) error
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// EventPublisher receives committed quota transitions. Failures never roll anything back.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.QuotaEvent) error
}

// NotificationGuard remembers payments whose notifications were fully processed.
type NotificationGuard interface {
	Seen(ctx context.Context, ticketID, paymentID string) (bool, error)
	Remember(ctx context.Context, ticketID, paymentID string) error
}

type discardEvents struct{}

func (discardEvents) Publish(context.Context, domain.QuotaEvent) error { return nil }
