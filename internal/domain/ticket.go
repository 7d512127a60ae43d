package domain

import "time"

type TicketStatus string

const (
	TicketRunning TicketStatus = "running"
	TicketClosed  TicketStatus = "closed"
)

type Ticket struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Quantity    int          `json:"quantity"`
	LimitByUser int          `json:"limitByUser"`
	Status      TicketStatus `json:"status"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     *time.Time   `json:"endDate"`
	Quotas      []Quota      `json:"quotas"`
	Prizes      []Prize      `json:"prizes"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// FindQuota returns the quota holding drawnNumber, if any.
func (t *Ticket) FindQuota(drawnNumber string) (Quota, bool) {
	for _, q := range t.Quotas {
		if q.DrawnNumber == drawnNumber {
			return q, true
		}
	}

	return Quota{}, false
}

// FindQuotaByPaymentID returns the quota currently bound to paymentID, if any.
func (t *Ticket) FindQuotaByPaymentID(paymentID string) (Quota, bool) {
	for _, q := range t.Quotas {
		if q.PaymentID != nil && *q.PaymentID == paymentID {
			return q, true
		}
	}

	return Quota{}, false
}

// HeldBy counts the quotas reserved or sold to buyerID.
func (t *Ticket) HeldBy(buyerID string) int {
	n := 0
	for _, q := range t.Quotas {
		if q.Status != QuotaAvailable && q.BuyerID != nil && *q.BuyerID == buyerID {
			n++
		}
	}

	return n
}

func (t *Ticket) DrawnNumbers() []string {
	numbers := make([]string, len(t.Quotas))
	for i, q := range t.Quotas {
		numbers[i] = q.DrawnNumber
	}

	return numbers
}

// TicketUpdate carries the mutable ticket fields. Nil fields are left untouched.
type TicketUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	LimitByUser *int
	EndDate     *time.Time
	Status      *TicketStatus
}
