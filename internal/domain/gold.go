package domain

import (
	"time"

	"github.com/google/uuid"
)

// PriceQuote - one row from the gold price feed. Buy/Sell are nil when the
// feed gives no numeric value for that side.
type PriceQuote struct {
	Name string   `json:"name"`
	Key  string   `json:"key"`
	Buy  *float64 `json:"buy,omitempty"`
	Sell *float64 `json:"sell,omitempty"`
}

// PriceList - one set of quotes fetched atomically from the feed.
type PriceList struct {
	DateTime time.Time    `json:"dateTime"`
	Prices   []PriceQuote `json:"prices"`
}

// GoldPrices - the full feed response: currency bars plus jewelry.
type GoldPrices struct {
	Currency PriceList `json:"currency"`
	Jewelry  PriceList `json:"jewelry"`
}

// HistoryRecord - one persisted price side (buy or sell) per snapshot tick.
// Immutable once written; IDs are time-ordered (UUIDv7).
type HistoryRecord struct {
	ID        uuid.UUID `json:"id"`
	Price     float64   `json:"price"`
	IsSell    bool      `json:"isSell"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryPoint - buy and sell collapsed onto a single recorded timestamp,
// the shape the historical endpoint returns.
type HistoryPoint struct {
	Date time.Time `json:"date"`
	Buy  *float64  `json:"buy,omitempty"`
	Sell *float64  `json:"sell,omitempty"`
}

// Subscriber - a Telegram chat subscribed to daily updates. Unsubscribing is
// a soft delete: DeletedAt set, row kept.
type Subscriber struct {
	ChatID    int64
	Username  string
	Name      string
	DeletedAt *time.Time
}

// Subscribed reports whether the subscriber should receive broadcasts.
func (s Subscriber) Subscribed() bool { return s.DeletedAt == nil }
