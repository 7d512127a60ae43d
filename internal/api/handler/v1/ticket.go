package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/request"
	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/response"
	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/service"
)

type TicketService interface {
	CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	GetTickets(ctx context.Context) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	AddPrize(ctx context.Context, ticketID string, prize domain.Prize) (domain.Prize, error)
	RemovePrize(ctx context.Context, ticketID, prizeID string) error
}

type TicketHandler struct {
	svc TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{
		svc: svc,
	}
}

// HandleCreateTicket godoc
// @Summary      Create a ticket
// @Description  Opens a running ticket with quantity available quotas. Admin only.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateTicketRequest  true  "ticket details"
// @Success      201      {object}  response.Ticket
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /ticket [post]
// @Security BearerAuth
func (h *TicketHandler) HandleCreateTicket(ctx *gin.Context) {
	var req request.CreateTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	prizes := make([]domain.Prize, len(req.Prizes))
	for i, p := range req.Prizes {
		prizes[i] = newPrize(p)
	}

	ticket, err := h.svc.CreateTicket(ctx.Request.Context(), domain.Ticket{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		LimitByUser: req.LimitByUser,
		EndDate:     req.EndDate,
		Prizes:      prizes,
	})
	if err != nil {
		renderTicketErr(ctx, "", fmt.Errorf("v1.HandleCreateTicket -> h.svc.CreateTicket -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, response.NewTicket(ticket))
}

// HandleGetTickets godoc
// @Summary      List tickets
// @Tags         tickets
// @Produce      json
// @Success      200  {array}   response.Ticket
// @Failure      500  {object}  response.Err
// @Router       /ticket [get]
func (h *TicketHandler) HandleGetTickets(ctx *gin.Context) {
	tickets, err := h.svc.GetTickets(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetTickets -> h.svc.GetTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewTickets(tickets))
}

// HandleGetTicket godoc
// @Summary      Get a ticket by ID
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      string  true  "ticket ID"
// @Success      200       {object}  response.Ticket
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /ticket/{ticketID} [get]
func (h *TicketHandler) HandleGetTicket(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")

	ticket, err := h.svc.GetTicket(ctx.Request.Context(), ticketID)
	if err != nil {
		renderTicketErr(ctx, ticketID, fmt.Errorf("v1.HandleGetTicket -> h.svc.GetTicket -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewTicket(ticket))
}

// HandleUpdateTicket godoc
// @Summary      Update a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        ticketID  path      string                       true  "ticket ID"
// @Param        request   body      request.UpdateTicketRequest  true  "fields to change"
// @Success      200       {object}  response.Ticket
// @Failure      400       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /ticket/{ticketID} [put]
// @Security BearerAuth
func (h *TicketHandler) HandleUpdateTicket(ctx *gin.Context) {
	var req request.UpdateTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	update := domain.TicketUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		LimitByUser: req.LimitByUser,
		EndDate:     req.EndDate,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		update.Status = &status
	}

	ticketID := ctx.Param("ticketID")
	ticket, err := h.svc.UpdateTicket(ctx.Request.Context(), ticketID, update)
	if err != nil {
		renderTicketErr(ctx, ticketID, fmt.Errorf("v1.HandleUpdateTicket -> h.svc.UpdateTicket -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewTicket(ticket))
}

// HandleDeleteTicket godoc
// @Summary      Delete a ticket with its quotas and prizes
// @Tags         tickets
// @Param        ticketID  path  string  true  "ticket ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /ticket/{ticketID} [delete]
// @Security BearerAuth
func (h *TicketHandler) HandleDeleteTicket(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")
	if err := h.svc.DeleteTicket(ctx.Request.Context(), ticketID); err != nil {
		renderTicketErr(ctx, ticketID, fmt.Errorf("v1.HandleDeleteTicket -> h.svc.DeleteTicket -> %w", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleAddPrize godoc
// @Summary      Add a prize to a ticket
// @Description  The prize is bound to a random drawn number of the ticket.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        ticketID  path      string                true  "ticket ID"
// @Param        request   body      request.PrizeRequest  true  "prize details"
// @Success      201       {object}  response.Prize
// @Failure      400       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /ticket/{ticketID}/add-prize [post]
// @Security BearerAuth
func (h *TicketHandler) HandleAddPrize(ctx *gin.Context) {
	var req request.PrizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ticketID := ctx.Param("ticketID")
	prize, err := h.svc.AddPrize(ctx.Request.Context(), ticketID, newPrize(req))
	if err != nil {
		renderTicketErr(ctx, ticketID, fmt.Errorf("v1.HandleAddPrize -> h.svc.AddPrize -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, response.NewPrize(prize))
}

// HandleRemovePrize godoc
// @Summary      Remove a prize from a ticket
// @Tags         tickets
// @Param        ticketID  path  string  true  "ticket ID"
// @Param        prizeID   path  string  true  "prize ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /ticket/{ticketID}/remove-prize/{prizeID} [delete]
// @Security BearerAuth
func (h *TicketHandler) HandleRemovePrize(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")
	prizeID := ctx.Param("prizeID")

	err := h.svc.RemovePrize(ctx.Request.Context(), ticketID, prizeID)
	if err != nil {
		if errors.Is(err, service.ErrPrizeNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("prize", "ID", prizeID))
			return
		}

		renderTicketErr(ctx, ticketID, fmt.Errorf("v1.HandleRemovePrize -> h.svc.RemovePrize -> %w", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func renderTicketErr(ctx *gin.Context, ticketID string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrTicketNotFound):
		response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func newPrize(req request.PrizeRequest) domain.Prize {
	return domain.Prize{
		Name:            req.Name,
		Description:     req.Description,
		Images:          req.Images,
		EquivalentPrice: req.EquivalentPrice,
	}
}
