package model

import "time"

type VisitCategory string

const (
	CategoryBreakfast VisitCategory = "breakfast"
	CategoryCoffee    VisitCategory = "coffee"
)

func (c VisitCategory) Valid() bool {
	return c == CategoryBreakfast || c == CategoryCoffee
}

func (c VisitCategory) ScanEventType() string {
	if c == CategoryCoffee {
		return EventCoffeeScanned
	}
	return EventScanned
}

type Visit struct {
	ID        int64         `db:"id" json:"id"`
	ClientID  int64         `db:"client_id" json:"client_id"`
	Category  VisitCategory `db:"category" json:"category"`
	Ordinal   int64         `db:"ordinal" json:"ordinal"`
	Free      bool          `db:"is_free" json:"is_free"`
	VisitedOn time.Time     `db:"visited_on" json:"visited_on"`
}
