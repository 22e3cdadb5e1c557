package model

// TierKey identifies one of the three fixed price tiers of an event.
// Tiers are ordered: early bird sells first, then regular tier-1, then
// regular tier-2.  The order is a business rule (cheaper inventory is
// sold first) and is never configurable per call.
type TierKey string

const (
	TierEarly TierKey = "early"
	TierOne   TierKey = "tier1"
	TierTwo   TierKey = "tier2"
)

// TierOrder lists the tiers in their fixed selling order.  Allocation
// and hold release both iterate this slice; nothing else defines tier
// precedence.
var TierOrder = [3]TierKey{TierEarly, TierOne, TierTwo}

// ParseTierKey validates an externally supplied tier tag.  Legacy rows
// may carry arbitrary casing or padding.  Unknown values return false.
func ParseTierKey(raw string) (TierKey, bool) {
	switch normalizeTag(raw) {
	case "early", "early_bird", "earlybird":
		return TierEarly, true
	case "tier1", "regular_tier1", "regular":
		return TierOne, true
	case "tier2", "regular_tier2":
		return TierTwo, true
	}
	return "", false
}

// Label returns the human-readable tier name used in bot messages and
// the admin UI.
func (k TierKey) Label() string {
	switch k {
	case TierEarly:
		return "Early Bird"
	case TierOne:
		return "Regular Tier-1"
	case TierTwo:
		return "Regular Tier-2"
	}
	return string(k)
}

// Tier is one price band of an event: a boy price, a girl price and a
// remaining quantity.  Values are snapshots read from the events row;
// the counters themselves only ever change through hold-apply and
// hold-release statements in the repository layer.
type Tier struct {
	Key       TierKey // which band this is
	BoyPrice  float64 // price per boy ticket
	GirlPrice float64 // price per girl ticket
	Remaining int     // tickets left in this band
}

// Price returns the tier's unit price for the given gender.  Unknown
// gender falls back to the boy price, matching how legacy rows without
// a recorded gender are charged.
func (t Tier) Price(g Gender) float64 {
	if g == GenderGirl {
		return t.GirlPrice
	}
	return t.BoyPrice
}
