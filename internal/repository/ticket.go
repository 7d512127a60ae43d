package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/repository/dao"
)

var (
	ErrTicketNotFound = dao.ErrTicketNotFound
	ErrPrizeNotFound  = dao.ErrPrizeNotFound
)

type TicketDAO interface {
	Insert(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	FindByID(ctx context.Context, id string) (dao.Ticket, error)
	FindAll(ctx context.Context) ([]dao.Ticket, error)
	Update(ctx context.Context, id string, values map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	InsertPrize(ctx context.Context, prize dao.Prize) (dao.Prize, error)
	DeletePrize(ctx context.Context, ticketID, prizeID string) error
	UpdateQuotaByDrawnNumber(ctx context.Context, ticketID, drawnNumber string, expected []string, values map[string]interface{}) (int64, error)
	UpdateQuotaByPaymentID(ctx context.Context, ticketID, paymentID string, expected []string, values map[string]interface{}) (int64, error)
	FindQuotaByPaymentID(ctx context.Context, ticketID, paymentID string) (dao.Quota, bool, error)
	FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]dao.Quota, error)
}

type TicketRepository struct {
	dao TicketDAO
	now func() time.Time
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
		now: time.Now,
	}
}

func (r *TicketRepository) CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(ticket))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *TicketRepository) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *TicketRepository) FindAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	tickets := make([]domain.Ticket, len(found))
	for i, t := range found {
		tickets[i] = r.daoToDomain(t)
	}

	return tickets, nil
}

func (r *TicketRepository) UpdateTicket(ctx context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error) {
	values := map[string]interface{}{}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.Price != nil {
		values["price"] = *update.Price
	}
	if update.LimitByUser != nil {
		values["limit_by_user"] = *update.LimitByUser
	}
	if update.EndDate != nil {
		values["end_date"] = *update.EndDate
	}
	if update.Status != nil {
		values["status"] = string(*update.Status)
	}

	if len(values) > 0 {
		if err := r.dao.Update(ctx, id, values); err != nil {
			return domain.Ticket{}, fmt.Errorf("r.dao.Update -> %w", err)
		}
	}

	return r.GetTicket(ctx, id)
}

func (r *TicketRepository) DeleteTicket(ctx context.Context, id string) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *TicketRepository) AddPrize(ctx context.Context, ticketID string, prize domain.Prize) (domain.Prize, error) {
	p := r.prizeDomainToDao(prize)
	p.TicketID = ticketID

	created, err := r.dao.InsertPrize(ctx, p)
	if err != nil {
		return domain.Prize{}, fmt.Errorf("r.dao.InsertPrize -> %w", err)
	}

	return r.prizeDaoToDomain(created), nil
}

func (r *TicketRepository) RemovePrize(ctx context.Context, ticketID, prizeID string) error {
	if err := r.dao.DeletePrize(ctx, ticketID, prizeID); err != nil {
		return fmt.Errorf("r.dao.DeletePrize -> %w", err)
	}

	return nil
}

// ReserveQuota binds buyer and payment to the quota if its status is still one of expected.
func (r *TicketRepository) ReserveQuota(ctx context.Context, ticketID, drawnNumber string, expected []domain.QuotaStatus, next domain.QuotaStatus, buyerID, paymentID string) (int64, error) {
	matched, err := r.dao.UpdateQuotaByDrawnNumber(ctx, ticketID, drawnNumber, statusStrings(expected), map[string]interface{}{
		"status":      string(next),
		"buyer_id":    buyerID,
		"payment_id":  paymentID,
		"reserved_at": r.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("r.dao.UpdateQuotaByDrawnNumber -> %w", err)
	}

	return matched, nil
}

// UpdateQuotaByPaymentID moves the quota bound to paymentID to next. Moving back to
// available unbinds buyer and payment in the same statement.
func (r *TicketRepository) UpdateQuotaByPaymentID(ctx context.Context, ticketID, paymentID string, expected []domain.QuotaStatus, next domain.QuotaStatus) (int64, error) {
	values := map[string]interface{}{
		"status": string(next),
	}
	if next == domain.QuotaAvailable {
		values["buyer_id"] = nil
		values["payment_id"] = nil
		values["reserved_at"] = nil
	}

	matched, err := r.dao.UpdateQuotaByPaymentID(ctx, ticketID, paymentID, statusStrings(expected), values)
	if err != nil {
		return 0, fmt.Errorf("r.dao.UpdateQuotaByPaymentID -> %w", err)
	}

	return matched, nil
}

func (r *TicketRepository) FindQuotaByPaymentID(ctx context.Context, ticketID, paymentID string) (domain.Quota, bool, error) {
	found, ok, err := r.dao.FindQuotaByPaymentID(ctx, ticketID, paymentID)
	if err != nil {
		return domain.Quota{}, false, fmt.Errorf("r.dao.FindQuotaByPaymentID -> %w", err)
	}

	return r.quotaDaoToDomain(found), ok, nil
}

// FindStaleReservations lists pending quotas reserved before the given instant.
func (r *TicketRepository) FindStaleReservations(ctx context.Context, before time.Time, limit int) ([]domain.PendingQuota, error) {
	found, err := r.dao.FindPendingBefore(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPendingBefore -> %w", err)
	}

	pending := make([]domain.PendingQuota, len(found))
	for i, q := range found {
		pending[i] = domain.PendingQuota{
			TicketID: q.TicketID,
			Quota:    r.quotaDaoToDomain(q),
		}
	}

	return pending, nil
}

func statusStrings(statuses []domain.QuotaStatus) []string {
	s := make([]string, len(statuses))
	for i, status := range statuses {
		s[i] = string(status)
	}

	return s
}

func (r *TicketRepository) domainToDao(t domain.Ticket) dao.Ticket {
	quotas := make([]dao.Quota, len(t.Quotas))
	for i, q := range t.Quotas {
		quotas[i] = dao.Quota{
			DrawnNumber: q.DrawnNumber,
			Status:      string(q.Status),
			BuyerID:     q.BuyerID,
			PaymentID:   q.PaymentID,
			ReservedAt:  q.ReservedAt,
		}
	}

	prizes := make([]dao.Prize, len(t.Prizes))
	for i, p := range t.Prizes {
		prizes[i] = r.prizeDomainToDao(p)
	}

	return dao.Ticket{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Quantity:    t.Quantity,
		LimitByUser: t.LimitByUser,
		Status:      string(t.Status),
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Quotas:      quotas,
		Prizes:      prizes,
	}
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) domain.Ticket {
	quotas := make([]domain.Quota, len(t.Quotas))
	for i, q := range t.Quotas {
		quotas[i] = r.quotaDaoToDomain(q)
	}

	prizes := make([]domain.Prize, len(t.Prizes))
	for i, p := range t.Prizes {
		prizes[i] = r.prizeDaoToDomain(p)
	}

	return domain.Ticket{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Quantity:    t.Quantity,
		LimitByUser: t.LimitByUser,
		Status:      domain.TicketStatus(t.Status),
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Quotas:      quotas,
		Prizes:      prizes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *TicketRepository) quotaDaoToDomain(q dao.Quota) domain.Quota {
	return domain.Quota{
		DrawnNumber: q.DrawnNumber,
		Status:      domain.QuotaStatus(q.Status),
		BuyerID:     q.BuyerID,
		PaymentID:   q.PaymentID,
		ReservedAt:  q.ReservedAt,
	}
}

func (r *TicketRepository) prizeDomainToDao(p domain.Prize) dao.Prize {
	return dao.Prize{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Images:          p.Images,
		EquivalentPrice: p.EquivalentPrice,
		DrawnNumber:     p.DrawnNumber,
	}
}

func (r *TicketRepository) prizeDaoToDomain(p dao.Prize) domain.Prize {
	return domain.Prize{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Images:          p.Images,
		EquivalentPrice: p.EquivalentPrice,
		DrawnNumber:     p.DrawnNumber,
	}
}
