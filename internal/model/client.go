package model

import "time"

type Client struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	Barcode        string    `db:"barcode" json:"barcode"`
	HistoryToken   string    `db:"history_token" json:"-"`
	TelegramChatID *int64    `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func (c *Client) TelegramLinked() bool {
	return c != nil && c.TelegramChatID != nil && *c.TelegramChatID != 0
}
