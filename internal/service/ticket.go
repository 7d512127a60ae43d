package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

type TicketService struct {
	repo TicketStore
	now  func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTicketService uses rng to draw prize numbers. Pass a seeded source for reproducible draws.
func NewTicketService(repo TicketStore, rng *rand.Rand) *TicketService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &TicketService{
		repo: repo,
		now:  time.Now,
		rng:  rng,
	}
}

// CreateTicket opens a running ticket with quantity available quotas. Prizes given
// up front are each bound to a random drawn number.
func (s *TicketService) CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	if ticket.Quantity < 1 {
		return domain.Ticket{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	ticket.ID = ""
	ticket.Status = domain.TicketRunning
	ticket.StartDate = s.now()
	ticket.Quotas = domain.NewQuotas(ticket.Quantity)

	numbers := ticket.DrawnNumbers()
	for i := range ticket.Prizes {
		ticket.Prizes[i].ID = ""
		ticket.Prizes[i].DrawnNumber = s.draw(numbers)
	}

	created, err := s.repo.CreateTicket(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.CreateTicket -> %w", err)
	}

	return created, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	ticket, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.GetTicket -> %w", err)
	}

	return ticket, nil
}

func (s *TicketService) GetTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.repo.FindAllTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAllTickets -> %w", err)
	}

	return tickets, nil
}

func (s *TicketService) UpdateTicket(ctx context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error) {
	if update.Status != nil && *update.Status != domain.TicketRunning && *update.Status != domain.TicketClosed {
		return domain.Ticket{}, fmt.Errorf("%w: unknown ticket status %q", ErrValidation, *update.Status)
	}

	ticket, err := s.repo.UpdateTicket(ctx, id, update)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.UpdateTicket -> %w", err)
	}

	return ticket, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if err := s.repo.DeleteTicket(ctx, id); err != nil {
		return fmt.Errorf("s.repo.DeleteTicket -> %w", err)
	}

	return nil
}

// AddPrize attaches a prize to the ticket and binds it to one of its drawn numbers.
func (s *TicketService) AddPrize(ctx context.Context, ticketID string, prize domain.Prize) (domain.Prize, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.Prize{}, fmt.Errorf("s.repo.GetTicket -> %w", err)
	}

	numbers := ticket.DrawnNumbers()
	if len(numbers) == 0 {
		return domain.Prize{}, fmt.Errorf("%w: ticket has no quotas", ErrValidation)
	}

	prize.ID = ""
	prize.DrawnNumber = s.draw(numbers)

	created, err := s.repo.AddPrize(ctx, ticket.ID, prize)
	if err != nil {
		return domain.Prize{}, fmt.Errorf("s.repo.AddPrize -> %w", err)
	}

	return created, nil
}

func (s *TicketService) RemovePrize(ctx context.Context, ticketID, prizeID string) error {
	if err := s.repo.RemovePrize(ctx, ticketID, prizeID); err != nil {
		return fmt.Errorf("s.repo.RemovePrize -> %w", err)
	}

	return nil
}

func (s *TicketService) draw(numbers []string) string {
	if len(numbers) == 0 {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return numbers[s.rng.Intn(len(numbers))]
}
