package model

import (
	"strings"
	"time"
)

// Reservation statuses.  A reservation is created pending review with
// its inventory hold already applied.  Approving keeps the hold (it is
// now a sale); rejecting or cancelling releases it exactly once.
const (
	StatusPendingReview = "pending_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusCancelled     = "cancelled"
)

// NormalizeStatus maps a raw status string, including legacy spellings
// left behind by earlier schema versions, onto the four canonical
// statuses.  Matching is case- and whitespace-insensitive.  Unknown
// values are returned trimmed and lower-cased so callers can still log
// them.
func NormalizeStatus(raw string) string {
	switch normalizeTag(raw) {
	case "pending_review", "pending", "reserved", "awaiting_review":
		return StatusPendingReview
	case "approved", "paid", "confirmed", "entered":
		// "entered" means the guest was checked in at the door; the
		// sale stays approved for inventory accounting.
		return StatusApproved
	case "rejected", "declined":
		return StatusRejected
	case "cancelled", "canceled":
		return StatusCancelled
	}
	return normalizeTag(raw)
}

// IsMutableStatus reports whether guest-level edits are allowed for a
// reservation in the given (possibly legacy) status.  Pending and
// approved reservations are editable; terminal-failure states are not.
func IsMutableStatus(raw string) bool {
	switch NormalizeStatus(raw) {
	case StatusPendingReview, StatusApproved:
		return true
	}
	return false
}

// normalizeTag lower-cases and strips whitespace from a loosely typed
// string tag before comparison.
func normalizeTag(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Reservation records one purchase: a group of attendees reserved on a
// single event by a single buyer, moving through the payment-review
// workflow.
//
// Fields:
//  ID             – primary key identifier.
//  Code           – generated human-readable code, unique per row.
//  UserID         – buyer (users.id).
//  EventID        – event being reserved.
//  PrimaryTier    – tier of the first allocated attendee.  Display
//                   only: per-attendee tiers are the accounting truth
//                   because a request can spill across tiers.
//  Quantity       – boys + girls, always equal to the attendee count.
//  Boys, Girls    – gender split.
//  TotalPrice     – sum of every attendee's unit price.
//  Status         – workflow state, see constants above.
//  CreatedAt      – creation timestamp (UTC).
//  PaymentFileID  – opaque payment-proof reference.
//  PaymentKind    – proof kind ("photo" or "document").
//  AdminNote      – reviewer's note, set on rejection.
//  ReviewedAt     – review timestamp (nil while pending).
//  ReviewedBy     – Telegram id of the reviewing admin (nil while
//                   pending).
//  HoldApplied    – true iff this reservation's attendees are currently
//                   subtracted from the event's tier counters.
type Reservation struct {
	ID            uint64     // reservations.id
	Code          string     // reservations.code
	UserID        uint64     // reservations.user_id
	EventID       uint64     // reservations.event_id
	PrimaryTier   TierKey    // reservations.ticket_type
	Quantity      int        // reservations.quantity
	Boys          int        // reservations.boys
	Girls         int        // reservations.girls
	TotalPrice    float64    // reservations.total_price
	Status        string     // reservations.status
	CreatedAt     time.Time  // reservations.created_at
	PaymentFileID string     // reservations.payment_file_id
	PaymentKind   string     // reservations.payment_file_type
	AdminNote     string     // reservations.admin_note
	ReviewedAt    *time.Time // reservations.reviewed_at (nullable)
	ReviewedBy    *int64     // reservations.reviewed_by_tg_id (nullable)
	HoldApplied   bool       // reservations.hold_applied
}
