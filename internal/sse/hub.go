package sse

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/metrics"
)

const (
	heartbeatInterval     = 30 * time.Second
	backpressureFullLimit = 5
)

type Hub struct {
	clients  sync.Map
	eventBuf *RingBuffer

	logger *zap.Logger
	stopCh chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	hub := &Hub{
		eventBuf: NewRingBuffer(defaultRingBufferSize),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	go hub.startHeartbeat()

	return hub
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil || client.StaffID == "" {
		return
	}

	if current, loaded := h.clients.Load(client.StaffID); loaded {
		if oldClient, ok := current.(*Client); ok && oldClient != client {
			oldClient.Close()
		}
	}

	h.clients.Store(client.StaffID, client)
	metrics.SetSSEClients(h.ConnectedCount())
}

func (h *Hub) Unregister(staffID string) {
	if h == nil || staffID == "" {
		return
	}

	value, loaded := h.clients.LoadAndDelete(staffID)
	if !loaded {
		return
	}

	if client, ok := value.(*Client); ok {
		client.Close()
	}
	metrics.SetSSEClients(h.ConnectedCount())
}

func (h *Hub) Broadcast(event Event) {
	if h == nil {
		return
	}

	h.eventBuf.Push(event)
	h.clients.Range(func(_, value interface{}) bool {
		if client, ok := value.(*Client); ok {
			h.dispatch(client, event)
		}
		return true
	})
}

func (h *Hub) Since(lastID string) []Event {
	if h == nil {
		return nil
	}
	return h.eventBuf.Since(lastID)
}

func (h *Hub) Close() {
	if h == nil {
		return
	}

	select {
	case <-h.stopCh:
		return
	default:
		close(h.stopCh)
	}
}

func (h *Hub) ConnectedCount() int {
	if h == nil {
		return 0
	}

	count := 0
	h.clients.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (h *Hub) dispatch(client *Client, event Event) {
	if client == nil {
		return
	}

	select {
	case <-client.Done:
		return
	case client.Ch <- event:
		client.markDispatchSuccess()
		return
	default:
		streak := client.markDispatchFull()
		h.logger.Warn("drop sse event due to full buffer",
			zap.String("staff_id", client.StaffID),
			zap.String("type", event.Type),
			zap.Int32("full_streak", streak),
		)
		if streak >= backpressureFullLimit {
			h.logger.Warn("disconnect slow sse client due to backpressure",
				zap.String("staff_id", client.StaffID),
				zap.Int32("full_streak", streak),
			)
			h.Unregister(client.StaffID)
		}
	}
}

func (h *Hub) startHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case now := <-ticker.C:
			heartbeat := NewEvent(EventHeartbeat, map[string]interface{}{
				"ts": now.UTC().Format(time.RFC3339Nano),
			})
			h.Broadcast(heartbeat)
		}
	}
}
