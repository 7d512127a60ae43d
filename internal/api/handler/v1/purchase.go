package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/request"
	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/response"
	"github.com/raffle-hub/raffle-api/internal/api/middleware"
	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/service"
)

var errBuyerMismatch = errors.New("quotas can only be bought for the caller's own account")

type PurchaseService interface {
	BuyQuota(ctx context.Context, ticketID, buyerID, drawnNumber string) (domain.PaymentRedirect, error)
}

type ConfirmationService interface {
	ConfirmBuyQuota(ctx context.Context, ticketID, paymentID, action string) (domain.ConfirmationOutcome, error)
}

type PurchaseHandler struct {
	purchases     PurchaseService
	confirmations ConfirmationService
}

func NewPurchaseHandler(purchases PurchaseService, confirmations ConfirmationService) *PurchaseHandler {
	return &PurchaseHandler{
		purchases:     purchases,
		confirmations: confirmations,
	}
}

// HandleBuyQuota godoc
// @Summary      Reserve a quota and start its payment
// @Description  Creates a payment for the quota and reserves it. The quota stays pending until the payment is confirmed.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        ticketID  path      string                   true  "ticket ID"
// @Param        request   body      request.BuyQuotaRequest  true  "quota to buy"
// @Success      200       {object}  domain.PaymentRedirect
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /ticket/{ticketID}/buy-quota [post]
// @Security BearerAuth
func (h *PurchaseHandler) HandleBuyQuota(ctx *gin.Context) {
	var req request.BuyQuotaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if req.UserID != ctx.GetString(middleware.ContextUserIDKey) {
		response.RenderErr(ctx, response.ErrPermissionDenied(errBuyerMismatch))
		return
	}

	ticketID := ctx.Param("ticketID")
	redirect, err := h.purchases.BuyQuota(ctx.Request.Context(), ticketID, req.UserID, req.DrawnNumber)
	if err != nil {
		err = fmt.Errorf("v1.HandleBuyQuota -> h.purchases.BuyQuota -> %w", err)

		switch {
		case errors.Is(err, service.ErrValidation):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
		case errors.Is(err, service.ErrQuotaNotFound):
			response.RenderErr(ctx, response.ErrNotFound("quota", "drawnNumber", req.DrawnNumber))
		case errors.Is(err, service.ErrUserNotFound):
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", req.UserID))
		case errors.Is(err, service.ErrQuotaUnavailable):
			response.RenderErr(ctx, response.ErrConflict(service.ErrQuotaUnavailable))
		case errors.Is(err, service.ErrTicketClosed):
			response.RenderErr(ctx, response.ErrConflict(service.ErrTicketClosed))
		case errors.Is(err, service.ErrPurchaseLimit):
			response.RenderErr(ctx, response.ErrConflict(service.ErrPurchaseLimit))
		default:
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, redirect)
}

// HandleNotifyPayment godoc
// @Summary      Payment provider notification
// @Description  Always acknowledged with 200 so the provider stops retrying. The body reports what the notification did.
// @Description  Without a ticket ID the ticket is taken from the payment's reference.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        ticketID  path      string                        false  "ticket ID"
// @Param        request   body      request.NotifyPaymentRequest  true   "provider notification"
// @Success      200       {object}  response.NotificationAck
// @Router       /ticket/notify-payment/{ticketID} [post]
// @Router       /ticket/notify-payment [post]
func (h *PurchaseHandler) HandleNotifyPayment(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")
	log := zap.L().With(
		zap.String("request_id", requestid.Get(ctx)),
		zap.String("ticket_id", ticketID),
	)

	var req request.NotifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn("unreadable payment notification", zap.Error(err))
		ctx.JSON(http.StatusOK, response.NotificationAck{Outcome: domain.OutcomeIgnored})
		return
	}

	paymentID := req.PaymentID()
	outcome, err := h.confirmations.ConfirmBuyQuota(ctx.Request.Context(), ticketID, paymentID, req.EventName())
	if err != nil {
		log.Error("payment notification failed, waiting for a redelivery",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		outcome = domain.OutcomeDeferred
	}

	ctx.JSON(http.StatusOK, response.NotificationAck{Outcome: outcome})
}
