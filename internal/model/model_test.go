package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"pending_review":   StatusPendingReview,
		"pending":          StatusPendingReview,
		"reserved":         StatusPendingReview,
		"awaiting_review":  StatusPendingReview,
		" Pending_Review ": StatusPendingReview,
		"approved":         StatusApproved,
		"paid":             StatusApproved,
		"confirmed":        StatusApproved,
		"entered":          StatusApproved,
		"rejected":         StatusRejected,
		"declined":         StatusRejected,
		"cancelled":        StatusCancelled,
		"canceled":         StatusCancelled,
		"CANCELLED":        StatusCancelled,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeStatus(raw), "raw=%q", raw)
	}
	// Unknown values come back trimmed and lower-cased, not mapped.
	assert.Equal(t, "weird", NormalizeStatus(" WEIRD "))
}

func TestIsMutableStatus(t *testing.T) {
	assert.True(t, IsMutableStatus("pending"))
	assert.True(t, IsMutableStatus("reserved"))
	assert.True(t, IsMutableStatus("approved"))
	assert.True(t, IsMutableStatus("entered"))
	assert.False(t, IsMutableStatus("rejected"))
	assert.False(t, IsMutableStatus("cancelled"))
	assert.False(t, IsMutableStatus("canceled"))
	assert.False(t, IsMutableStatus(""))
}

func TestParseTierKey(t *testing.T) {
	for raw, want := range map[string]TierKey{
		"early":         TierEarly,
		"Early_Bird":    TierEarly,
		"tier1":         TierOne,
		"regular":       TierOne,
		"REGULAR_TIER2": TierTwo,
	} {
		got, ok := ParseTierKey(raw)
		assert.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, got, "raw=%q", raw)
	}
	_, ok := ParseTierKey("vip")
	assert.False(t, ok)
}

func TestParseGender(t *testing.T) {
	for raw, want := range map[string]Gender{
		"boy": GenderBoy, "Male": GenderBoy, "m": GenderBoy,
		"girl": GenderGirl, "FEMALE": GenderGirl, "f": GenderGirl,
		"unknown": GenderUnknown, "": GenderUnknown,
	} {
		got, ok := ParseGender(raw)
		assert.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, got, "raw=%q", raw)
	}
	_, ok := ParseGender("other")
	assert.False(t, ok)
}

func TestTierPrice(t *testing.T) {
	tier := Tier{Key: TierEarly, BoyPrice: 2500, GirlPrice: 2600}
	assert.Equal(t, 2500.0, tier.Price(GenderBoy))
	assert.Equal(t, 2600.0, tier.Price(GenderGirl))
	// Rows without a recorded gender are charged the boy price.
	assert.Equal(t, 2500.0, tier.Price(GenderUnknown))
}

func TestActiveTier(t *testing.T) {
	e := &Event{EarlyQty: 0, Tier1Qty: 3, Tier2Qty: 5}
	active, ok := e.ActiveTier()
	assert.True(t, ok)
	assert.Equal(t, TierOne, active.Key)

	e.Tier1Qty = 0
	active, ok = e.ActiveTier()
	assert.True(t, ok)
	assert.Equal(t, TierTwo, active.Key)

	e.Tier2Qty = 0
	_, ok = e.ActiveTier()
	assert.False(t, ok)

	assert.Equal(t, 0, e.TotalRemaining())
}

func TestSplitFullName(t *testing.T) {
	name, surname := SplitFullName("  Aisha  Nur  Bekova ")
	assert.Equal(t, "Aisha", name)
	assert.Equal(t, "Nur Bekova", surname)

	name, surname = SplitFullName("Madonna")
	assert.Equal(t, "Madonna", name)
	assert.Equal(t, "", surname)

	name, surname = SplitFullName("   ")
	assert.Equal(t, "", name)
	assert.Equal(t, "", surname)
}

func TestAttendeeFullName(t *testing.T) {
	a := &Attendee{Name: "Aisha", Surname: ""}
	assert.Equal(t, "Aisha", a.FullName())
	a.Surname = "Bekova"
	assert.Equal(t, "Aisha Bekova", a.FullName())
}
