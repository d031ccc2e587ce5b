package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventCardIssued    = "card_issued"
	EventScanned       = "scanned"
	EventCoffeeScanned = "coffee_scanned"
	EventSentToBot     = "sent_to_bot"
	EventBotLinked     = "bot_linked"
	EventPortalViewed  = "portal_viewed"
)

type ClientEvent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClientID  int64     `db:"client_id" json:"client_id"`
	EventType string    `db:"event_type" json:"event_type"`
	Details   *string   `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
