package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSweepInterval = time.Minute
	DefaultGracePeriod   = 15 * time.Minute
	sweepBatchSize       = 100
)

// ExpirySweeper settles reservations whose payment notification never arrived.
type ExpirySweeper struct {
	tickets  TicketStore
	gateway  PaymentGateway
	settler  *quotaSettler
	interval time.Duration
	grace    time.Duration
}

type SweeperOption func(*ExpirySweeper)

func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *ExpirySweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithGracePeriod(d time.Duration) SweeperOption {
	return func(s *ExpirySweeper) {
		if d > 0 {
			s.grace = d
		}
	}
}

func WithSweeperEvents(events EventPublisher) SweeperOption {
	return func(s *ExpirySweeper) {
		if events != nil {
			s.settler.events = events
		}
	}
}

func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *ExpirySweeper) {
		s.settler.now = now
	}
}

func NewExpirySweeper(tickets TicketStore, gateway PaymentGateway, opts ...SweeperOption) *ExpirySweeper {
	s := &ExpirySweeper{
		tickets: tickets,
		gateway: gateway,
		settler: &quotaSettler{
			tickets: tickets,
			events:  discardEvents{},
			now:     time.Now,
		},
		interval: DefaultSweepInterval,
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run sweeps on every tick until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	zap.L().Info("expiry sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("grace", s.grace),
	)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				zap.L().Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepResult counts what one pass did.
type SweepResult struct {
	Confirmed int
	Released  int
	Skipped   int
}

// Sweep handles one batch of reservations older than the grace period. Approved
// payments are confirmed, anything else is cancelled and its quota released.
// Quotas whose payment cannot be queried or cancelled are left for the next pass.
func (s *ExpirySweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	stale, err := s.tickets.FindStaleReservations(ctx, s.settler.now().Add(-s.grace), sweepBatchSize)
	if err != nil {
		return result, fmt.Errorf("s.tickets.FindStaleReservations -> %w", err)
	}

	for _, pending := range stale {
		if pending.Quota.PaymentID == nil {
			result.Skipped++
			continue
		}
		paymentID := *pending.Quota.PaymentID

		log := zap.L().With(
			zap.String("ticket_id", pending.TicketID),
			zap.String("drawn_number", pending.Quota.DrawnNumber),
			zap.String("payment_id", paymentID),
		)

		payment, err := s.gateway.GetStatus(ctx, paymentID)
		if err != nil {
			log.Warn("sweeper could not fetch payment status", zap.Error(err))
			result.Skipped++
			continue
		}

		if payment.Status.IsApproved() {
			matched, err := s.settler.confirm(ctx, pending.TicketID, paymentID, pending.Quota.DrawnNumber)
			if err != nil {
				return result, fmt.Errorf("s.settler.confirm -> %w", err)
			}
			if matched > 0 {
				result.Confirmed++
				log.Info("sweeper confirmed approved reservation")
			}
			continue
		}

		if !payment.Status.IsTerminalFailure() {
			if err := s.gateway.Cancel(ctx, paymentID); err != nil {
				log.Warn("sweeper could not cancel payment", zap.Error(err))
				result.Skipped++
				continue
			}
		}

		matched, err := s.settler.release(ctx, pending.TicketID, paymentID, pending.Quota.DrawnNumber)
		if err != nil {
			return result, fmt.Errorf("s.settler.release -> %w", err)
		}
		if matched > 0 {
			result.Released++
			log.Info("sweeper released expired reservation")
		}
	}

	return result, nil
}
