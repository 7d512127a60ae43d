package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/service"
)

func newTicketRouter(svc TicketService) *gin.Engine {
	h := NewTicketHandler(svc)

	r := gin.New()
	r.POST("/ticket", h.HandleCreateTicket)
	r.GET("/ticket", h.HandleGetTickets)
	r.GET("/ticket/:ticketID", h.HandleGetTicket)
	r.PUT("/ticket/:ticketID", h.HandleUpdateTicket)
	r.DELETE("/ticket/:ticketID", h.HandleDeleteTicket)
	r.POST("/ticket/:ticketID/add-prize", h.HandleAddPrize)
	r.DELETE("/ticket/:ticketID/remove-prize/:prizeID", h.HandleRemovePrize)

	return r
}

func TestTicketHandler_HandleGetTicket_HidesPaymentData(t *testing.T) {
	buyer, payment := "u1", "pay-1"
	svc := &mockTicketService{}
	svc.On("GetTicket", mock.Anything, "t1").Return(domain.Ticket{
		ID: "t1",
		Quotas: []domain.Quota{
			{DrawnNumber: "1", Status: domain.QuotaPending, BuyerID: &buyer, PaymentID: &payment},
		},
		Prizes: []domain.Prize{{ID: "p1", Name: "Bike", DrawnNumber: "1"}},
	}, nil)
	svc.On("GetTicket", mock.Anything, "missing").Return(domain.Ticket{}, service.ErrTicketNotFound)
	router := newTicketRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/ticket/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pay-1")
	assert.NotContains(t, rec.Body.String(), "paymentId")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	prize := got["prizes"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, prize, "drawnNumber")

	rec = doJSON(t, router, http.MethodGet, "/ticket/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketHandler_HandleCreateTicket(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("CreateTicket", mock.Anything, mock.MatchedBy(func(tk domain.Ticket) bool {
		return tk.Quantity == 10 && len(tk.Prizes) == 1
	})).Return(domain.Ticket{ID: "t1", Quantity: 10, Status: domain.TicketRunning}, nil)
	router := newTicketRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/ticket", map[string]interface{}{
		"name":        "Rifa",
		"description": "rifa beneficente da escola",
		"price":       5,
		"quantity":    10,
		"limitByUser": 2,
		"prizes": []map[string]interface{}{
			{"name": "Bike", "description": "bicicleta aro 29", "equivalentPrice": 900},
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/ticket", map[string]interface{}{"name": "Rifa"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "CreateTicket", 1)
}

func TestTicketHandler_HandleUpdateTicket(t *testing.T) {
	closed := domain.TicketClosed
	svc := &mockTicketService{}
	svc.On("UpdateTicket", mock.Anything, "t1", domain.TicketUpdate{Status: &closed}).
		Return(domain.Ticket{ID: "t1", Status: domain.TicketClosed}, nil)
	router := newTicketRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/ticket/t1", map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/ticket/t1", map[string]string{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketHandler_Prizes(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("AddPrize", mock.Anything, "t1", mock.Anything).Return(domain.Prize{ID: "p1", Name: "Bike", DrawnNumber: "3"}, nil)
	svc.On("RemovePrize", mock.Anything, "t1", "p1").Return(nil)
	svc.On("RemovePrize", mock.Anything, "t1", "p2").Return(service.ErrPrizeNotFound)
	router := newTicketRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/ticket/t1/add-prize", map[string]interface{}{
		"name": "Bike", "description": "bicicleta aro 29", "equivalentPrice": 900,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "drawnNumber")

	assert.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, "/ticket/t1/remove-prize/p1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodDelete, "/ticket/t1/remove-prize/p2", nil).Code)
}

func TestTicketHandler_HandleDeleteTicket(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("DeleteTicket", mock.Anything, "t1").Return(nil)
	svc.On("DeleteTicket", mock.Anything, "t2").Return(service.ErrTicketNotFound)
	router := newTicketRouter(svc)

	assert.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, "/ticket/t1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodDelete, "/ticket/t2", nil).Code)
}
