package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 10, 0, 0)
	userID, _ := s.newTestUser(t)

	approved, err := s.reservations.CreatePending(ctx, userID, eventID, 2, 0,
		[]string{"A One", "B Two"}, "", "")
	require.NoError(t, err)
	_, err = s.reservations.Approve(ctx, approved.ID, 777)
	require.NoError(t, err)

	_, err = s.reservations.CreatePending(ctx, userID, eventID, 0, 1,
		[]string{"C Three"}, "", "")
	require.NoError(t, err)

	rejected, err := s.reservations.CreatePending(ctx, userID, eventID, 1, 0,
		[]string{"D Four"}, "", "")
	require.NoError(t, err)
	_, err = s.reservations.Reject(ctx, rejected.ID, 777, "no proof")
	require.NoError(t, err)

	stats, err := s.reports.EventStats(ctx, "date")
	require.NoError(t, err)
	var stat *EventStat
	for i := range stats {
		if stats[i].EventID == eventID {
			stat = &stats[i]
		}
	}
	require.NotNil(t, stat)

	assert.Equal(t, 2, stat.ApprovedTickets)
	assert.Equal(t, 1, stat.PendingTickets)
	assert.Equal(t, 1, stat.RejectedTickets)
	assert.Equal(t, 3, stat.HeldTickets, "approved and pending both hold inventory")
	assert.Equal(t, 2*2500.0, stat.ApprovedRevenue)
	assert.Equal(t, 2600.0, stat.PendingRevenue)
	assert.Equal(t, 7, stat.Remaining)
}

func TestSearchReservations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 10, 0, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 1, 0,
		[]string{"Arman Bekov"}, "", "")
	require.NoError(t, err)

	// Lookup by exact code.
	rows, err := s.reports.SearchReservations(ctx, res.Code, "newest", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, res.ID, rows[0].ID)
	assert.NotEmpty(t, rows[0].EventTitle)
	assert.Equal(t, "Test Buyer", rows[0].BuyerName)

	// Lookup by buyer name fragment, case-insensitive.
	rows, err = s.reports.SearchReservations(ctx, "test buyer", "amount", 50)
	require.NoError(t, err)
	found := false
	for _, r := range rows {
		if r.ID == res.ID {
			found = true
		}
	}
	assert.True(t, found)

	// Active listing includes the pending reservation until rejected.
	rows, err = s.reports.ListActiveReservations(ctx, res.Code, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = s.reservations.Reject(ctx, res.ID, 777, "")
	require.NoError(t, err)
	rows, err = s.reports.ListActiveReservations(ctx, res.Code, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGuestListingAndNamePairs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 10, 0, 0)
	userID, _ := s.newTestUser(t)

	_, err := s.reservations.CreatePending(ctx, userID, eventID, 1, 1,
		[]string{"Arman Bekov", "Aisha Nur"}, "", "")
	require.NoError(t, err)

	guests, err := s.reports.ListGuests(ctx, eventID, "name", "", 0)
	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.Equal(t, "Bekov", guests[0].Surname)
	assert.Equal(t, "Nur", guests[1].Surname)

	// Search narrows by attendee name.
	guests, err = s.reports.ListGuests(ctx, eventID, "name", "aisha", 0)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "Aisha", guests[0].Name)

	pairs, err := s.reports.GuestNamePairs(ctx, eventID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []NamePair{
		{Name: "Arman", Surname: "Bekov"},
		{Name: "Aisha", Surname: "Nur"},
	}, pairs)
}
