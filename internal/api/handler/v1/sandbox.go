package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/request"
	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/response"
	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/pkg/sandboxpay"
)

type PaymentStatusSetter interface {
	SetStatus(paymentID string, status domain.PaymentStatus) error
}

// SandboxHandler is only mounted in development, with the sandbox gateway.
type SandboxHandler struct {
	payments PaymentStatusSetter
}

func NewSandboxHandler(payments PaymentStatusSetter) *SandboxHandler {
	return &SandboxHandler{
		payments: payments,
	}
}

// HandleSetPaymentStatus godoc
// @Summary      Settle a sandbox payment
// @Description  Development only. Changes a sandbox payment's status; send a notification afterwards to apply it.
// @Tags         sandbox
// @Accept       json
// @Produce      json
// @Param        paymentID  path  string                        true  "payment ID"
// @Param        request    body  request.PaymentStatusRequest  true  "new status"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /sandbox/payments/{paymentID}/status [post]
func (h *SandboxHandler) HandleSetPaymentStatus(ctx *gin.Context) {
	var req request.PaymentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	paymentID := ctx.Param("paymentID")
	if err := h.payments.SetStatus(paymentID, domain.PaymentStatus(req.Status)); err != nil {
		err = fmt.Errorf("v1.HandleSetPaymentStatus -> h.payments.SetStatus -> %w", err)

		if errors.Is(err, sandboxpay.ErrPaymentNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("payment", "ID", paymentID))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
