package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/response"
	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/events"
	"github.com/raffle-hub/raffle-api/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type FeedHub interface {
	Subscribe(ticketID string) (*events.Subscriber, error)
	Unsubscribe(s *events.Subscriber)
}

type TicketFinder interface {
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
}

type FeedHandler struct {
	hub      FeedHub
	tickets  TicketFinder
	upgrader websocket.Upgrader
}

func NewFeedHandler(hub FeedHub, tickets TicketFinder, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		hub:     hub,
		tickets: tickets,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// HandleFeed godoc
// @Summary      Live quota changes of a ticket
// @Description  Upgrades to a WebSocket that streams a domain.QuotaEvent for every reservation, sale and release of the ticket.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      string  true  "ticket ID"
// @Success      101       {string}  string  "Switching Protocols to WebSocket"
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /ticket/{ticketID}/feed [get]
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")
	if _, err := h.tickets.GetTicket(ctx.Request.Context(), ticketID); err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
			return
		}

		err = fmt.Errorf("v1.HandleFeed -> h.tickets.GetTicket -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	sub, err := h.hub.Subscribe(ticketID)
	if err != nil {
		err = fmt.Errorf("v1.HandleFeed -> h.hub.Subscribe -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.hub.Unsubscribe(sub)
		zap.L().Warn("feed upgrade failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}

	go writePump(conn, sub)
	readPump(conn)
	h.hub.Unsubscribe(sub)
}

// writePump owns all writes to conn. It ends when the subscriber channel closes.
func writePump(conn *websocket.Conn, sub *events.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and returns once the peer is gone.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("feed closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}

		return false
	}
}
