package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

var errStorage = errors.New("storage unavailable")

// memTicketStore keeps tickets in memory. Each conditional update runs under one lock,
// which gives the same single-quota compare-and-swap as the SQL store.
type memTicketStore struct {
	mu         sync.Mutex
	tickets    map[string]*domain.Ticket
	now        func() time.Time
	reserveErr error
	nextID     int
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{
		tickets: map[string]*domain.Ticket{},
		now:     time.Now,
	}
}

func (m *memTicketStore) put(ticket domain.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := cloneTicket(ticket)
	m.tickets[t.ID] = &t
}

func (m *memTicketStore) quota(ticketID, drawnNumber string) domain.Quota {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, _ := m.tickets[ticketID].FindQuota(drawnNumber)
	return q
}

func (m *memTicketStore) CreateTicket(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", m.nextID)
	for i := range ticket.Prizes {
		ticket.Prizes[i].ID = fmt.Sprintf("prize-%d-%d", m.nextID, i)
	}
	t := cloneTicket(ticket)
	m.tickets[t.ID] = &t

	return cloneTicket(t), nil
}

func (m *memTicketStore) GetTicket(_ context.Context, id string) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return domain.Ticket{}, ErrTicketNotFound
	}

	return cloneTicket(*t), nil
}

func (m *memTicketStore) FindAllTickets(_ context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tickets []domain.Ticket
	for _, t := range m.tickets {
		tickets = append(tickets, cloneTicket(*t))
	}

	return tickets, nil
}

func (m *memTicketStore) UpdateTicket(_ context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return domain.Ticket{}, ErrTicketNotFound
	}
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Status != nil {
		t.Status = *update.Status
	}
	if update.LimitByUser != nil {
		t.LimitByUser = *update.LimitByUser
	}

	return cloneTicket(*t), nil
}

func (m *memTicketStore) DeleteTicket(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[id]; !ok {
		return ErrTicketNotFound
	}
	delete(m.tickets, id)

	return nil
}

func (m *memTicketStore) AddPrize(_ context.Context, ticketID string, prize domain.Prize) (domain.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[ticketID]
	if !ok {
		return domain.Prize{}, ErrTicketNotFound
	}
	prize.ID = fmt.Sprintf("prize-%s-%d", ticketID, len(t.Prizes))
	t.Prizes = append(t.Prizes, prize)

	return prize, nil
}

func (m *memTicketStore) RemovePrize(_ context.Context, ticketID, prizeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[ticketID]
	if !ok {
		return ErrPrizeNotFound
	}
	for i, p := range t.Prizes {
		if p.ID == prizeID {
			t.Prizes = append(t.Prizes[:i], t.Prizes[i+1:]...)
			return nil
		}
	}

	return ErrPrizeNotFound
}

func (m *memTicketStore) ReserveQuota(_ context.Context, ticketID, drawnNumber string, expected []domain.QuotaStatus, next domain.QuotaStatus, buyerID, paymentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reserveErr != nil {
		return 0, m.reserveErr
	}

	t, ok := m.tickets[ticketID]
	if !ok {
		return 0, nil
	}
	for i := range t.Quotas {
		q := &t.Quotas[i]
		if q.DrawnNumber != drawnNumber || !statusIn(q.Status, expected) {
			continue
		}
		reservedAt := m.now()
		q.Status = next
		q.BuyerID = &buyerID
		q.PaymentID = &paymentID
		q.ReservedAt = &reservedAt
		return 1, nil
	}

	return 0, nil
}

func (m *memTicketStore) UpdateQuotaByPaymentID(_ context.Context, ticketID, paymentID string, expected []domain.QuotaStatus, next domain.QuotaStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[ticketID]
	if !ok {
		return 0, nil
	}
	for i := range t.Quotas {
		q := &t.Quotas[i]
		if q.PaymentID == nil || *q.PaymentID != paymentID || !statusIn(q.Status, expected) {
			continue
		}
		q.Status = next
		if next == domain.QuotaAvailable {
			q.BuyerID, q.PaymentID, q.ReservedAt = nil, nil, nil
		}
		return 1, nil
	}

	return 0, nil
}

func (m *memTicketStore) FindQuotaByPaymentID(_ context.Context, ticketID, paymentID string) (domain.Quota, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[ticketID]
	if !ok {
		return domain.Quota{}, false, nil
	}
	q, found := t.FindQuotaByPaymentID(paymentID)

	return q, found, nil
}

func (m *memTicketStore) FindStaleReservations(_ context.Context, before time.Time, limit int) ([]domain.PendingQuota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []domain.PendingQuota
	for id, t := range m.tickets {
		for _, q := range t.Quotas {
			if q.Status == domain.QuotaPending && q.ReservedAt != nil && q.ReservedAt.Before(before) {
				stale = append(stale, domain.PendingQuota{TicketID: id, Quota: q})
			}
			if len(stale) == limit {
				return stale, nil
			}
		}
	}

	return stale, nil
}

func statusIn(s domain.QuotaStatus, set []domain.QuotaStatus) bool {
	for _, e := range set {
		if s == e {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Quotas = append([]domain.Quota(nil), t.Quotas...)
	t.Prizes = append([]domain.Prize(nil), t.Prizes...)
	return t
}

// fakeGateway issues sequential payment ids and records every call.
type fakeGateway struct {
	mu          sync.Mutex
	next        int
	requests    []domain.PaymentRequest
	statuses    map[string]domain.PaymentInfo
	cancelled   []string
	refunded    []string
	statusCalls int

	// createStatus, when set, is the status every new payment starts in.
	createStatus domain.PaymentStatus

	createErr error
	statusErr error
	cancelErr error
	refundErr error

	// createBarrier, when set, holds every Create until all expected callers arrived.
	createBarrier *sync.WaitGroup
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statuses: map[string]domain.PaymentInfo{},
	}
}

func (g *fakeGateway) Create(_ context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	if g.createBarrier != nil {
		g.createBarrier.Done()
		g.createBarrier.Wait()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return domain.PaymentIntent{}, g.createErr
	}

	status := domain.PaymentPending
	if g.createStatus != "" {
		status = g.createStatus
	}

	g.next++
	id := fmt.Sprintf("pay-%d", g.next)
	g.requests = append(g.requests, req)
	g.statuses[id] = domain.PaymentInfo{ExternalID: id, Status: status, ReferenceID: req.ReferenceID}

	return domain.PaymentIntent{
		ExternalID:   id,
		Status:       status,
		CopyPaste:    "pix-" + id,
		ExternalURL:  "https://pay.example/" + id,
		QRCodeBase64: "qr-" + id,
	}, nil
}

func (g *fakeGateway) GetStatus(_ context.Context, paymentID string) (domain.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.statusCalls++
	if g.statusErr != nil {
		return domain.PaymentInfo{}, g.statusErr
	}
	info, ok := g.statuses[paymentID]
	if !ok {
		return domain.PaymentInfo{}, errors.New("payment not found")
	}

	return info, nil
}

func (g *fakeGateway) Cancel(_ context.Context, paymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, paymentID)
	if info, ok := g.statuses[paymentID]; ok {
		info.Status = domain.PaymentCancelled
		g.statuses[paymentID] = info
	}

	return nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunded = append(g.refunded, paymentID)

	return nil
}

func (g *fakeGateway) setStatus(paymentID string, status domain.PaymentStatus, referenceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.statuses[paymentID] = domain.PaymentInfo{ExternalID: paymentID, Status: status, ReferenceID: referenceID}
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.QuotaEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, event domain.QuotaEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEvents) all() []domain.QuotaEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.QuotaEvent(nil), r.events...)
}

type memGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *memGuard) Seen(_ context.Context, ticketID, paymentID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.seen[ticketID+":"+paymentID], nil
}

func (g *memGuard) Remember(_ context.Context, ticketID, paymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	g.seen[ticketID+":"+paymentID] = true
	return nil
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func runningTicket(id string, quantity int, price float64) domain.Ticket {
	return domain.Ticket{
		ID:          id,
		Name:        "Rifa da moto",
		Description: "uma moto zero km",
		Price:       price,
		Quantity:    quantity,
		LimitByUser: quantity,
		Status:      domain.TicketRunning,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Quotas:      domain.NewQuotas(quantity),
	}
}

func strPtr(s string) *string {
	return &s
}
