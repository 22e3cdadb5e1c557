// Package allocation implements the pure ticket allocation engine.  A
// quote assigns each requested ticket to the first tier with remaining
// capacity, in fixed tier order, and prices it by the attendee's
// gender.  Quotes never mutate anything: committing a plan (actually
// decrementing tier counters) is done atomically by the repository
// layer.
package allocation

import (
	"github.com/olzhasov/ticketbot/internal/model"
)

// Seat is one planned ticket: the tier the attendee landed in, the
// gender that picked the price, and the unit price itself.  Seats are
// ordered exactly as they were assigned.
type Seat struct {
	Tier      model.TierKey
	Gender    model.Gender
	UnitPrice float64
}

// TierUsage accumulates what one tier contributed to a plan.
type TierUsage struct {
	Tier     model.TierKey
	Boys     int
	Girls    int
	Count    int
	Subtotal float64
}

// Plan is the result of a quote.  HoldCounts, not the single
// PrimaryTier field, is the source of truth for how much inventory the
// plan consumes per tier: a request can spill across tiers when the
// first tier runs out mid-request.
type Plan struct {
	Quantity    int
	Boys        int
	Girls       int
	TotalPrice  float64
	PrimaryTier model.TierKey
	Seats       []Seat
	Usage       []TierUsage
	HoldCounts  map[model.TierKey]int
}

// Quote plans an allocation of boys+girls tickets against the event's
// current tier counters.  All boys are assigned before any girls; this
// ordering decides which gender crosses a tier boundary first and is a
// deliberate, documented policy.  It fails with
// model.ErrInsufficientInventory when the request exceeds the event's
// total remaining capacity, and with model.ErrSoldOut if the tier scan
// runs dry anyway (possible only when racing a concurrent writer; the
// caller must then abort its transaction).
func Quote(event *model.Event, boys, girls int) (*Plan, error) {
	quantity := boys + girls
	if boys < 0 || girls < 0 || quantity <= 0 {
		return nil, model.ErrAttendeeCountMismatch
	}
	if quantity > event.TotalRemaining() {
		return nil, model.ErrInsufficientInventory
	}

	// Local decrementing copy of the tier counters; the real counters
	// are untouched until the plan is committed.
	tiers := event.Tiers()
	remaining := [3]int{tiers[0].Remaining, tiers[1].Remaining, tiers[2].Remaining}

	// Flat ordered gender list: boys first, then girls.
	genders := make([]model.Gender, 0, quantity)
	for i := 0; i < boys; i++ {
		genders = append(genders, model.GenderBoy)
	}
	for i := 0; i < girls; i++ {
		genders = append(genders, model.GenderGirl)
	}

	plan := &Plan{
		Quantity:   quantity,
		Boys:       boys,
		Girls:      girls,
		Seats:      make([]Seat, 0, quantity),
		HoldCounts: make(map[model.TierKey]int),
	}
	usageIndex := make(map[model.TierKey]int)

	for _, g := range genders {
		assigned := false
		for i, tier := range tiers {
			if remaining[i] <= 0 {
				continue
			}
			remaining[i]--
			price := tier.Price(g)
			plan.Seats = append(plan.Seats, Seat{Tier: tier.Key, Gender: g, UnitPrice: price})
			plan.TotalPrice += price
			if plan.PrimaryTier == "" {
				plan.PrimaryTier = tier.Key
			}
			plan.HoldCounts[tier.Key]++
			idx, ok := usageIndex[tier.Key]
			if !ok {
				idx = len(plan.Usage)
				usageIndex[tier.Key] = idx
				plan.Usage = append(plan.Usage, TierUsage{Tier: tier.Key})
			}
			u := &plan.Usage[idx]
			u.Count++
			u.Subtotal += price
			if g == model.GenderGirl {
				u.Girls++
			} else {
				u.Boys++
			}
			assigned = true
			break
		}
		if !assigned {
			return nil, model.ErrSoldOut
		}
	}
	return plan, nil
}

// QuoteSingle plans one seat for one guest of the given gender.  Used
// by guest addition, which allocates seat by seat.
func QuoteSingle(event *model.Event, gender model.Gender) (*Plan, error) {
	if gender == model.GenderGirl {
		return Quote(event, 0, 1)
	}
	return Quote(event, 1, 0)
}
