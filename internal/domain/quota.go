package domain

import (
	"fmt"
	"strconv"
	"time"
)

type QuotaStatus string

const (
	QuotaAvailable QuotaStatus = "available"
	QuotaPending   QuotaStatus = "pending"
	QuotaSold      QuotaStatus = "sold"
)

// quotaTransitions lists every legal move. sold has no outgoing edge.
var quotaTransitions = map[QuotaStatus][]QuotaStatus{
	QuotaAvailable: {QuotaPending},
	QuotaPending:   {QuotaSold, QuotaAvailable},
}

func (s QuotaStatus) IsValid() bool {
	switch s {
	case QuotaAvailable, QuotaPending, QuotaSold:
		return true
	}

	return false
}

func (s QuotaStatus) CanTransition(to QuotaStatus) bool {
	for _, next := range quotaTransitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// Sources returns the states from which to is reachable.
func Sources(to QuotaStatus) []QuotaStatus {
	var from []QuotaStatus
	for _, s := range []QuotaStatus{QuotaAvailable, QuotaPending, QuotaSold} {
		if s.CanTransition(to) {
			from = append(from, s)
		}
	}

	return from
}

type Quota struct {
	DrawnNumber string      `json:"drawnNumber"`
	Status      QuotaStatus `json:"status"`
	BuyerID     *string     `json:"buyer"`
	PaymentID   *string     `json:"paymentId,omitempty"`
	ReservedAt  *time.Time  `json:"reservedAt,omitempty"`
}

// CheckInvariant reports whether buyer and payment presence agree with the status.
func (q Quota) CheckInvariant() error {
	bound := q.BuyerID != nil && q.PaymentID != nil
	free := q.BuyerID == nil && q.PaymentID == nil

	switch q.Status {
	case QuotaAvailable:
		if !free {
			return fmt.Errorf("quota %s is available but still bound to a buyer or payment", q.DrawnNumber)
		}
	case QuotaPending, QuotaSold:
		if !bound {
			return fmt.Errorf("quota %s is %s without buyer and payment", q.DrawnNumber, q.Status)
		}
	default:
		return fmt.Errorf("quota %s has unknown status %q", q.DrawnNumber, q.Status)
	}

	return nil
}

// GenerateDrawnNumbers returns "1".."quantity" left padded with zeros to the width of quantity.
func GenerateDrawnNumbers(quantity int) []string {
	if quantity <= 0 {
		return nil
	}

	width := len(strconv.Itoa(quantity))
	numbers := make([]string, quantity)
	for i := 0; i < quantity; i++ {
		numbers[i] = fmt.Sprintf("%0*d", width, i+1)
	}

	return numbers
}

// NewQuotas builds the full available quota set for a ticket of the given size.
func NewQuotas(quantity int) []Quota {
	numbers := GenerateDrawnNumbers(quantity)
	quotas := make([]Quota, len(numbers))
	for i, n := range numbers {
		quotas[i] = Quota{DrawnNumber: n, Status: QuotaAvailable}
	}

	return quotas
}

// QuotaEvent is broadcast after a committed transition. It never carries buyer or payment data.
type QuotaEvent struct {
	TicketID    string      `json:"ticketId"`
	DrawnNumber string      `json:"drawnNumber"`
	Status      QuotaStatus `json:"status"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// PendingQuota is a reserved quota together with the ticket that owns it.
type PendingQuota struct {
	TicketID string
	Quota    Quota
}
