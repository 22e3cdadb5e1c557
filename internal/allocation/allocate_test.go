package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olzhasov/ticketbot/internal/model"
)

func sampleEvent(earlyQty, t1Qty, t2Qty int) *model.Event {
	return &model.Event{
		ID:             1,
		Title:          "Sample Party",
		EarlyBoyPrice:  2500, EarlyGirlPrice: 2500, EarlyQty: earlyQty,
		Tier1BoyPrice: 3500, Tier1GirlPrice: 3500, Tier1Qty: t1Qty,
		Tier2BoyPrice: 4500, Tier2GirlPrice: 4500, Tier2Qty: t2Qty,
	}
}

func TestQuoteAssignsEveryRequestedTicket(t *testing.T) {
	event := sampleEvent(5, 5, 5)
	plan, err := Quote(event, 3, 4)
	require.NoError(t, err)

	assert.Equal(t, 7, plan.Quantity)
	assert.Len(t, plan.Seats, 7)

	total := 0
	for _, u := range plan.Usage {
		total += u.Count
	}
	assert.Equal(t, 7, total, "per-tier counts must sum to the request size")
}

func TestQuoteSpillsAcrossTiersInFixedOrder(t *testing.T) {
	// Early has 3 left, tier-1 has 5, tier-2 is empty.  Three boys fill
	// early bird, the two girls spill into tier-1.
	event := sampleEvent(3, 5, 0)
	plan, err := Quote(event, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, plan.Quantity)
	assert.Equal(t, model.TierEarly, plan.PrimaryTier)
	require.Len(t, plan.Usage, 2)
	assert.Equal(t, model.TierEarly, plan.Usage[0].Tier)
	assert.Equal(t, 3, plan.Usage[0].Count)
	assert.Equal(t, model.TierOne, plan.Usage[1].Tier)
	assert.Equal(t, 2, plan.Usage[1].Count)
	assert.InDelta(t, 3*2500+2*3500, plan.TotalPrice, 0.001)
	assert.Equal(t, map[model.TierKey]int{model.TierEarly: 3, model.TierOne: 2}, plan.HoldCounts)
}

func TestQuoteAllocatesBoysBeforeGirls(t *testing.T) {
	// One early seat left: the boy takes it, the girl lands in tier-1.
	event := sampleEvent(1, 5, 0)
	plan, err := Quote(event, 1, 1)
	require.NoError(t, err)

	require.Len(t, plan.Seats, 2)
	assert.Equal(t, model.GenderBoy, plan.Seats[0].Gender)
	assert.Equal(t, model.TierEarly, plan.Seats[0].Tier)
	assert.Equal(t, model.GenderGirl, plan.Seats[1].Gender)
	assert.Equal(t, model.TierOne, plan.Seats[1].Tier)
}

func TestQuoteUsesGenderPrices(t *testing.T) {
	event := sampleEvent(10, 0, 0)
	event.EarlyGirlPrice = 2600
	plan, err := Quote(event, 2, 1)
	require.NoError(t, err)

	assert.InDelta(t, 2*2500+2600, plan.TotalPrice, 0.001)
	assert.Equal(t, 2, plan.Usage[0].Boys)
	assert.Equal(t, 1, plan.Usage[0].Girls)
}

func TestQuoteOverRequestFails(t *testing.T) {
	event := sampleEvent(1, 1, 0)
	_, err := Quote(event, 3, 0)
	assert.ErrorIs(t, err, model.ErrInsufficientInventory)
}

func TestQuoteRejectsEmptyAndNegativeRequests(t *testing.T) {
	event := sampleEvent(5, 5, 5)
	_, err := Quote(event, 0, 0)
	assert.ErrorIs(t, err, model.ErrAttendeeCountMismatch)
	_, err = Quote(event, -1, 2)
	assert.ErrorIs(t, err, model.ErrAttendeeCountMismatch)
}

func TestQuoteDoesNotMutateEvent(t *testing.T) {
	event := sampleEvent(3, 3, 3)
	_, err := Quote(event, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, event.EarlyQty)
	assert.Equal(t, 3, event.Tier1Qty)
	assert.Equal(t, 3, event.Tier2Qty)
}

func TestQuoteSingleLandsInActiveTier(t *testing.T) {
	event := sampleEvent(0, 1, 4)
	plan, err := QuoteSingle(event, model.GenderGirl)
	require.NoError(t, err)

	require.Len(t, plan.Seats, 1)
	assert.Equal(t, model.TierOne, plan.Seats[0].Tier)
	assert.InDelta(t, 3500, plan.TotalPrice, 0.001)
}
