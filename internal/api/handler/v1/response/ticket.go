package response

import (
	"time"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

// Quota is the public view of a quota. The payment id never leaves the api.
type Quota struct {
	DrawnNumber string             `json:"drawnNumber"`
	Status      domain.QuotaStatus `json:"status"`
	Buyer       *string            `json:"buyer"`
}

// Prize is the public view of a prize. Its drawn number stays hidden until the draw.
type Prize struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	EquivalentPrice float64  `json:"equivalentPrice"`
}

type Ticket struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Quantity    int                 `json:"quantity"`
	LimitByUser int                 `json:"limitByUser"`
	Status      domain.TicketStatus `json:"status"`
	StartDate   time.Time           `json:"startDate"`
	EndDate     *time.Time          `json:"endDate"`
	Quotas      []Quota             `json:"quotas"`
	Prizes      []Prize             `json:"prizes"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func NewTicket(t domain.Ticket) Ticket {
	quotas := make([]Quota, len(t.Quotas))
	for i, q := range t.Quotas {
		quotas[i] = Quota{
			DrawnNumber: q.DrawnNumber,
			Status:      q.Status,
			Buyer:       q.BuyerID,
		}
	}

	prizes := make([]Prize, len(t.Prizes))
	for i, p := range t.Prizes {
		prizes[i] = NewPrize(p)
	}

	return Ticket{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Quantity:    t.Quantity,
		LimitByUser: t.LimitByUser,
		Status:      t.Status,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Quotas:      quotas,
		Prizes:      prizes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTickets(tickets []domain.Ticket) []Ticket {
	out := make([]Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = NewTicket(t)
	}

	return out
}

func NewPrize(p domain.Prize) Prize {
	images := p.Images
	if images == nil {
		images = []string{}
	}

	return Prize{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Images:          images,
		EquivalentPrice: p.EquivalentPrice,
	}
}

// NotificationAck is returned for every payment notification.
type NotificationAck struct {
	Outcome domain.ConfirmationOutcome `json:"outcome"`
}
