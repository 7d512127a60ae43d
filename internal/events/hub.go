// Package events fans committed quota transitions out to live subscribers and to a broker.
package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

var ErrHubStopped = errors.New("event hub stopped")

const subscriberBuffer = 64

// Subscriber receives the encoded events of one ticket.
type Subscriber struct {
	ticketID string
	send     chan []byte
}

// Messages is closed when the subscriber is dropped or the hub stops.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

type message struct {
	ticketID string
	payload  []byte
}

// Hub is an in-process broadcaster keyed by ticket. Subscribers that cannot keep
// up are dropped rather than slowing publishers down.
type Hub struct {
	subscribers map[*Subscriber]struct{}
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan message
	stopped     chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan message, subscriberBuffer),
		stopped:     make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for s := range h.subscribers {
			close(s.send)
			delete(h.subscribers, s)
		}
		close(h.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.subscribers[s] = struct{}{}
		case s := <-h.unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.send)
			}
		case msg := <-h.broadcast:
			for s := range h.subscribers {
				if s.ticketID != msg.ticketID {
					continue
				}
				select {
				case s.send <- msg.payload:
				default:
					delete(h.subscribers, s)
					close(s.send)
				}
			}
		}
	}
}

func (h *Hub) Subscribe(ticketID string) (*Subscriber, error) {
	s := &Subscriber{
		ticketID: ticketID,
		send:     make(chan []byte, subscriberBuffer),
	}

	select {
	case h.register <- s:
		return s, nil
	case <-h.stopped:
		return nil, ErrHubStopped
	}
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.stopped:
	}
}

func (h *Hub) Publish(ctx context.Context, event domain.QuotaEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- message{ticketID: event.TicketID, payload: payload}:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
