package domain

import "time"

// PaymentStatus is the provider-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "pending"
	PaymentApproved    PaymentStatus = "approved"
	PaymentAuthorized  PaymentStatus = "authorized"
	PaymentInProcess   PaymentStatus = "in_process"
	PaymentInMediation PaymentStatus = "in_mediation"
	PaymentRejected    PaymentStatus = "rejected"
	PaymentCancelled   PaymentStatus = "cancelled"
	PaymentRefunded    PaymentStatus = "refunded"
	PaymentChargedBack PaymentStatus = "charged_back"
)

// IsTerminalFailure reports statuses after which the payment can never be approved.
func (s PaymentStatus) IsTerminalFailure() bool {
	switch s {
	case PaymentRejected, PaymentCancelled, PaymentRefunded, PaymentChargedBack:
		return true
	}

	return false
}

func (s PaymentStatus) IsApproved() bool {
	return s == PaymentApproved
}

type PaymentRequest struct {
	Amount      float64
	PayerEmail  string
	Description string
	ExpiresAt   time.Time
	ReferenceID string
}

// PaymentInfo is the provider's current view of a payment.
type PaymentInfo struct {
	ExternalID  string
	Status      PaymentStatus
	ReferenceID string
}

// PaymentIntent is what a gateway returns when a payment is created.
type PaymentIntent struct {
	ExternalID   string
	Status       PaymentStatus
	CopyPaste    string
	ExternalURL  string
	QRCodeBase64 string
}

// Redirect strips the external id so it never reaches the buyer.
func (p PaymentIntent) Redirect() PaymentRedirect {
	return PaymentRedirect{
		Status:       p.Status,
		CopyPaste:    p.CopyPaste,
		ExternalURL:  p.ExternalURL,
		QRCodeBase64: p.QRCodeBase64,
	}
}

type PaymentRedirect struct {
	Status       PaymentStatus `json:"status"`
	CopyPaste    string        `json:"copyPaste"`
	ExternalURL  string        `json:"externalUrl"`
	QRCodeBase64 string        `json:"qrCodeBase64"`
}

// ConfirmationOutcome describes what a payment notification did to the quota it targets.
type ConfirmationOutcome string

const (
	OutcomeIgnored          ConfirmationOutcome = "ignored"
	OutcomeDuplicate        ConfirmationOutcome = "duplicate"
	OutcomeDeferred         ConfirmationOutcome = "deferred"
	OutcomeAwaiting         ConfirmationOutcome = "awaiting"
	OutcomeConfirmed        ConfirmationOutcome = "confirmed"
	OutcomeAlreadyConfirmed ConfirmationOutcome = "already_confirmed"
	OutcomeReleased         ConfirmationOutcome = "released"
	OutcomeAlreadyReleased  ConfirmationOutcome = "already_released"
	OutcomeRefunded         ConfirmationOutcome = "refunded"
)

// IsSettled reports outcomes after which later notifications for the same payment change nothing.
func (o ConfirmationOutcome) IsSettled() bool {
	switch o {
	case OutcomeConfirmed, OutcomeAlreadyConfirmed, OutcomeReleased, OutcomeAlreadyReleased, OutcomeRefunded:
		return true
	}

	return false
}
