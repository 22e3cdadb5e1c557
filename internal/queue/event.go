// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationReviewedEvent is published when an admin finishes reviewing
// a reservation (approve or reject) and when a buyer cancels one.  It
// contains enough information for downstream consumers to log and to
// notify the buyer over Telegram without querying the primary database.
type ReservationReviewedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	Code          string  `json:"code"`
	UserID        uint64  `json:"user_id"`
	BuyerTgID     int64   `json:"buyer_tg_id"`
	EventID       uint64  `json:"event_id"`
	EventTitle    string  `json:"event_title"`
	Status        string  `json:"status"`
	Quantity      int     `json:"quantity"`
	TotalPrice    float64 `json:"total_price"`
	AdminNote     string  `json:"admin_note,omitempty"`
	ReviewedAt    string  `json:"reviewed_at"`
}
