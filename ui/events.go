package ui

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal"
	"perfpulse/ports"
)

// keepAlive is how often an idle stream receives a ping
var keepAlive = 30 * time.Second

// ReportEvent announces a finished analysis to connected browsers
type ReportEvent struct {
	EventType   string     `json:"event_type"`
	RunID       core.RunID `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Patterns    int        `json:"patterns"`
	QuickWins   int        `json:"quick_wins"`
}

// ReportHub fans report events out to Server-Sent Event subscribers
type ReportHub struct {
	clients    map[chan ReportEvent]bool
	clientsMu  sync.RWMutex
	register   chan chan ReportEvent
	unregister chan chan ReportEvent
	broadcast  chan ReportEvent
	done       <-chan struct{}
	logger     *internal.Logger
}

// NewReportHub starts a hub that runs until ctx is cancelled
func NewReportHub(ctx context.Context, logger *internal.Logger) *ReportHub {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	hub := &ReportHub{
		clients:    make(map[chan ReportEvent]bool),
		register:   make(chan chan ReportEvent, 10),
		unregister: make(chan chan ReportEvent, 10),
		broadcast:  make(chan ReportEvent, 100),
		done:       ctx.Done(),
		logger:     logger,
	}

	go hub.run(ctx)
	return hub
}

func (h *ReportHub) run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.logger.Debug("[SSE] client registered (total clients: %d)", len(h.clients))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client)
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					h.logger.Warn("[SSE] client channel full, skipping %s", event.RunID)
				}
			}
			h.clientsMu.RUnlock()

		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client)
			}
			h.clients = map[chan ReportEvent]bool{}
			h.clientsMu.Unlock()
			return
		}
	}
}

// Subscribe registers a new listener. The returned func unregisters it.
// After the hub stops the listener channel is already closed.
func (h *ReportHub) Subscribe() (<-chan ReportEvent, func()) {
	client := make(chan ReportEvent, 10)
	select {
	case <-h.done:
		close(client)
		return client, func() {}
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client)
		return client, func() {}
	}

	var once sync.Once
	return client, func() {
		once.Do(func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		})
	}
}

// Broadcast queues an event for every subscriber. Events are dropped when
// the queue is full.
func (h *ReportHub) Broadcast(event ReportEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("[SSE] broadcast channel full, dropping %s", event.RunID)
	}
}

// ClientCount returns the number of connected subscribers
func (h *ReportHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams report events until the client disconnects
func (h *ReportHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("report", string(payload))
			return true

		case <-time.After(keepAlive):
			c.SSEvent("ping", `{"status":"alive"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// NotifyingStore announces every stored report on a hub
type NotifyingStore struct {
	ports.ReportStore
	hub *ReportHub
}

// NewNotifyingStore wraps store so that Put broadcasts a report_ready event
func NewNotifyingStore(store ports.ReportStore, hub *ReportHub) *NotifyingStore {
	return &NotifyingStore{ReportStore: store, hub: hub}
}

// Put stores the report, then announces it
func (s *NotifyingStore) Put(ctx context.Context, report insight.Report) error {
	if err := s.ReportStore.Put(ctx, report); err != nil {
		return err
	}
	summary := ports.Summarize(report)
	s.hub.Broadcast(ReportEvent{
		EventType:   "report_ready",
		RunID:       summary.RunID,
		GeneratedAt: summary.GeneratedAt,
		Patterns:    summary.Patterns,
		QuickWins:   summary.QuickWins,
	})
	return nil
}
