package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

var errEndBeforeNow = errors.New("endDate must be in the future")

type PrizeRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	EquivalentPrice float64  `json:"equivalentPrice"`
}

func (req PrizeRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.Name, validation.Required, validation.Length(3, 100)),
		validation.Field(&req.Description, validation.Required, validation.Length(10, 1000)),
		validation.Field(&req.Images, validation.By(validateImageURLs)),
		validation.Field(&req.EquivalentPrice, validation.Required, validation.Min(0.01)),
	)
}

func validateImageURLs(value interface{}) error {
	images, _ := value.([]string)
	for _, image := range images {
		if err := is.URL.Validate(image); err != nil {
			return err
		}
	}

	return nil
}

type CreateTicketRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Quantity    int            `json:"quantity"`
	LimitByUser int            `json:"limitByUser"`
	EndDate     *time.Time     `json:"endDate"`
	Prizes      []PrizeRequest `json:"prizes"`
}

func (req *CreateTicketRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(3, 100)),
		validation.Field(&req.Description, validation.Required, validation.Length(10, 1000)),
		validation.Field(&req.Price, validation.Required, validation.Min(0.01)),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1), validation.Max(100000)),
		validation.Field(&req.LimitByUser, validation.Required, validation.Min(1)),
		validation.Field(&req.Prizes),
	)
	if err != nil {
		return err
	}

	if req.EndDate != nil && !req.EndDate.After(time.Now()) {
		return errEndBeforeNow
	}

	return nil
}

type UpdateTicketRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	LimitByUser *int       `json:"limitByUser"`
	EndDate     *time.Time `json:"endDate"`
	Status      *string    `json:"status"`
}

func (req *UpdateTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(3, 100)),
		validation.Field(&req.Description, validation.NilOrNotEmpty, validation.Length(10, 1000)),
		validation.Field(&req.Price, validation.NilOrNotEmpty, validation.Min(0.01)),
		validation.Field(&req.LimitByUser, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In("running", "closed")),
	)
}

type BuyQuotaRequest struct {
	DrawnNumber string `json:"drawnNumber"`
	UserID      string `json:"userId"`
}

func (req *BuyQuotaRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.DrawnNumber, validation.Required),
		validation.Field(&req.UserID, validation.Required),
	)
}

// NotifyPaymentRequest is the provider's webhook body. It is never rejected.
// Mercado Pago sends action and data.id, Stripe sends type and data.object.id.
type NotifyPaymentRequest struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID     string `json:"id"`
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

func (req NotifyPaymentRequest) EventName() string {
	if req.Action != "" {
		return req.Action
	}
	return req.Type
}

func (req NotifyPaymentRequest) PaymentID() string {
	if req.Data.ID != "" {
		return req.Data.ID
	}
	return req.Data.Object.ID
}

type PaymentStatusRequest struct {
	Status string `json:"status"`
}

func (req PaymentStatusRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.Status, validation.Required, validation.In(
			string(domain.PaymentPending),
			string(domain.PaymentApproved),
			string(domain.PaymentAuthorized),
			string(domain.PaymentInProcess),
			string(domain.PaymentInMediation),
			string(domain.PaymentRejected),
			string(domain.PaymentCancelled),
			string(domain.PaymentRefunded),
			string(domain.PaymentChargedBack),
		)),
	)
}
