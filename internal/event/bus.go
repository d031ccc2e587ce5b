package event

import (
	"strings"
	"sync"
	"time"

	"github.com/shatlykos/cafe-management-system/internal/model"
)

const (
	EventVisitRecorded = "visit.recorded"
	EventClientCreated = "client.created"
	EventCardSent      = "card.sent"
)

type VisitRecordedPayload struct {
	ClientID   int64               `json:"client_id"`
	ClientName string              `json:"client_name"`
	Category   model.VisitCategory `json:"category"`
	Ordinal    int64               `json:"ordinal"`
	Free       bool                `json:"free"`
	VisitedOn  time.Time           `json:"visited_on"`
}

type ClientCreatedPayload struct {
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
	Barcode  string `json:"barcode"`
}

type CardSentPayload struct {
	ClientID int64 `json:"client_id"`
	ChatID   int64 `json:"chat_id"`
}

type Bus struct {
	handlers sync.Map
	mu       sync.Mutex
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(event string, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := make([]func(payload any), 0, 1)
	if current, ok := b.handlers.Load(eventName); ok {
		if casted, valid := current.([]func(payload any)); valid {
			handlers = append(handlers, casted...)
		}
	}
	handlers = append(handlers, handler)
	b.handlers.Store(eventName, handlers)
}

func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	current, ok := b.handlers.Load(eventName)
	if !ok {
		return
	}

	handlers, ok := current.([]func(payload any))
	if !ok || len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		go handler(payload)
	}
}
