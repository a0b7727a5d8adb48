package service

import (
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

// Client is one dispatch stream subscriber.
type Client struct {
	Send chan model.DispatchTickResult
}

// Hub fans tick results out to stream subscribers. All client bookkeeping
// happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan model.DispatchTickResult
	Register   chan *Client
	Unregister chan *Client
	observer   metrics.HubObserver
	done       chan struct{}
}

func NewHub(observer metrics.HubObserver, backlog int) *Hub {
	if backlog <= 0 {
		backlog = 64
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan model.DispatchTickResult, backlog),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		observer:   observer,
		done:       make(chan struct{}),
	}
}

// Publish never blocks the dispatcher; results are dropped when the hub is backed up.
func (h *Hub) Publish(r model.DispatchTickResult) {
	select {
	case h.Broadcast <- r:
	default:
		logger.Warn("hub backlog full, dropping tick result", zap.Int64("seq", r.Seq))
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
				h.observer.DecOnline()
			}
			return
		case c := <-h.Register:
			h.clients[c] = true
			h.observer.IncOnline()
		case c := <-h.Unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
				h.observer.DecOnline()
			}
		case r := <-h.Broadcast:
			for c := range h.clients {
				select {
				case c.Send <- r:
					h.observer.RecordPush()
				default:
					logger.Warn("stream client too slow, disconnecting")
					close(c.Send)
					delete(h.clients, c)
					h.observer.DecOnline()
				}
			}
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Subscribe registers a new client. It returns false once the hub has stopped.
func (h *Hub) Subscribe(buffer int) (*Client, bool) {
	c := &Client{Send: make(chan model.DispatchTickResult, buffer)}
	select {
	case h.Register <- c:
		return c, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) Unsubscribe(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
