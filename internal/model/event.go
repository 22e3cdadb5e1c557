package model

// Event represents a row in the `events` table.  An event carries three
// fixed price tiers, each with independent boy/girl prices and an
// independent remaining-quantity counter.  Tier counters are only
// mutated by hold-apply and hold-release statements; admin quantity
// edits go through SetEventFields which never touches held inventory.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – display title.
//  EventDatetime  – schedule string "YYYY-MM-DD HH:MM" (kept as text,
//                   the bot renders it verbatim).
//  Location       – venue display string.
//  Caption        – long description shown with the event photo.
//  PhotoFileID    – opaque reference to the promo image (Telegram file
//                   id); the store never inspects it.
//  EarlyBoyPrice / EarlyGirlPrice / EarlyQty      – early bird tier.
//  Tier1BoyPrice / Tier1GirlPrice / Tier1Qty      – regular tier-1.
//  Tier2BoyPrice / Tier2GirlPrice / Tier2Qty      – regular tier-2.
//  Status         – "open" or "closed"; only open events are listed.
type Event struct {
	ID             uint64  // events.id
	Title          string  // events.title
	EventDatetime  string  // events.event_datetime
	Location       string  // events.location
	Caption        string  // events.caption
	PhotoFileID    string  // events.photo_file_id
	EarlyBoyPrice  float64 // events.early_bird_price
	EarlyGirlPrice float64 // events.early_bird_price_girl
	EarlyQty       int     // events.early_bird_qty
	Tier1BoyPrice  float64 // events.regular_tier1_price
	Tier1GirlPrice float64 // events.regular_tier1_price_girl
	Tier1Qty       int     // events.regular_tier1_qty
	Tier2BoyPrice  float64 // events.regular_tier2_price
	Tier2GirlPrice float64 // events.regular_tier2_price_girl
	Tier2Qty       int     // events.regular_tier2_qty
	Status         string  // events.status
}

// EventStatusOpen marks an event visible to browsing users.
const EventStatusOpen = "open"

// Tiers returns the event's three tiers in fixed selling order.
func (e *Event) Tiers() [3]Tier {
	return [3]Tier{
		{Key: TierEarly, BoyPrice: e.EarlyBoyPrice, GirlPrice: e.EarlyGirlPrice, Remaining: e.EarlyQty},
		{Key: TierOne, BoyPrice: e.Tier1BoyPrice, GirlPrice: e.Tier1GirlPrice, Remaining: e.Tier1Qty},
		{Key: TierTwo, BoyPrice: e.Tier2BoyPrice, GirlPrice: e.Tier2GirlPrice, Remaining: e.Tier2Qty},
	}
}

// Tier returns the tier with the given key.  The bool is false for an
// unknown key.
func (e *Event) Tier(key TierKey) (Tier, bool) {
	for _, t := range e.Tiers() {
		if t.Key == key {
			return t, true
		}
	}
	return Tier{}, false
}

// ActiveTier returns the first tier in selling order with remaining
// capacity, which is the tier shown to a browsing user.  The bool is
// false when every tier is empty, i.e. the event is sold out.
func (e *Event) ActiveTier() (Tier, bool) {
	for _, t := range e.Tiers() {
		if t.Remaining > 0 {
			return t, true
		}
	}
	return Tier{}, false
}

// TotalRemaining is the event's total remaining capacity across all
// three tiers.
func (e *Event) TotalRemaining() int {
	return e.EarlyQty + e.Tier1Qty + e.Tier2Qty
}
