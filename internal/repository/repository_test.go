package repository

// Integration tests against a real MySQL instance.  Set TEST_DB_DSN to
// a DSN with parseTime=true (e.g. "user:pass@tcp(localhost:3306)/ticketbot_test?parseTime=true")
// to run them; they skip otherwise.  Each test creates its own event
// and users and removes them via the cascading delete.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olzhasov/ticketbot/internal/database"
	"github.com/olzhasov/ticketbot/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database integration tests")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	mctx, mcancel := context.WithTimeout(context.Background(), time.Minute)
	defer mcancel()
	require.NoError(t, database.Migrate(mctx, db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type testStore struct {
	db           *sql.DB
	users        *UserRepo
	events       *EventRepo
	reservations *ReservationRepo
	guests       *GuestRepo
	reports      *ReportRepo
}

func newTestStore(t *testing.T) *testStore {
	db := testDB(t)
	events := NewEventRepo(db)
	return &testStore{
		db:           db,
		users:        NewUserRepo(db),
		events:       events,
		reservations: NewReservationRepo(db, events),
		guests:       NewGuestRepo(db, events),
		reports:      NewReportRepo(db),
	}
}

// newTestEvent creates an event with the standard test tier ladder:
// early 2500/2600, tier1 3500/3600, tier2 4500/4600, with the given
// quantities.  The event and everything booked on it is removed at
// cleanup.
func (s *testStore) newTestEvent(t *testing.T, earlyQty, tier1Qty, tier2Qty int) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.events.Create(ctx, &model.Event{
		Title:          fmt.Sprintf("test event %d", time.Now().UnixNano()),
		EventDatetime:  "2026-09-01 20:00",
		Location:       "Test Hall",
		EarlyBoyPrice:  2500, EarlyGirlPrice: 2600, EarlyQty: earlyQty,
		Tier1BoyPrice:  3500, Tier1GirlPrice: 3600, Tier1Qty: tier1Qty,
		Tier2BoyPrice:  4500, Tier2GirlPrice: 4600, Tier2Qty: tier2Qty,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.events.DeleteCascade(context.Background(), id)
	})
	return id
}

func (s *testStore) newTestUser(t *testing.T) (uint64, int64) {
	t.Helper()
	ctx := context.Background()
	tgID := time.Now().UnixNano()
	require.NoError(t, s.users.Upsert(ctx, tgID, "Test", "Buyer", "+100000"))
	user, err := s.users.GetByTgID(ctx, tgID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.Exec("DELETE FROM users WHERE tg_id = ?", tgID)
	})
	return user.ID, tgID
}

func (s *testStore) remaining(t *testing.T, eventID uint64) (early, tier1, tier2 int) {
	t.Helper()
	event, err := s.events.GetByID(context.Background(), eventID)
	require.NoError(t, err)
	return event.EarlyQty, event.Tier1Qty, event.Tier2Qty
}

func TestCreatePendingAppliesHold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 3, 5, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 2, 1,
		[]string{"Arman Bekov", "Daniyar Li", "Aisha Nur"}, "proof-1", "photo")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingReview, res.Status)
	assert.True(t, res.HoldApplied)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, 2, res.Boys)
	assert.Equal(t, 1, res.Girls)
	assert.Equal(t, 2*2500.0+2600.0, res.TotalPrice)
	assert.Equal(t, model.TierEarly, res.PrimaryTier)
	assert.NotEmpty(t, res.Code)

	early, tier1, _ := s.remaining(t, eventID)
	assert.Equal(t, 0, early)
	assert.Equal(t, 5, tier1)

	attendees, err := s.reservations.ListAttendees(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 3)
	// Boys are allocated first; the order of the names follows the
	// gender split, not the submission order of genders.
	assert.Equal(t, model.GenderBoy, attendees[0].Gender)
	assert.Equal(t, model.GenderBoy, attendees[1].Gender)
	assert.Equal(t, model.GenderGirl, attendees[2].Gender)
	for _, a := range attendees {
		assert.Equal(t, model.TierEarly, a.Tier)
	}
}

func TestCreatePendingSpillsAcrossTiers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 3, 5, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 3, 2,
		[]string{"A One", "B Two", "C Three", "D Four", "E Five"}, "proof-2", "photo")
	require.NoError(t, err)

	// 3 boys fill the early tier, 2 girls spill into tier-1.
	assert.Equal(t, 3*2500.0+2*3600.0, res.TotalPrice)
	assert.Equal(t, model.TierEarly, res.PrimaryTier)

	early, tier1, _ := s.remaining(t, eventID)
	assert.Equal(t, 0, early)
	assert.Equal(t, 3, tier1)

	attendees, err := s.reservations.ListAttendees(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 5)
	tiers := map[model.TierKey]int{}
	for _, a := range attendees {
		tiers[a.Tier]++
	}
	assert.Equal(t, map[model.TierKey]int{model.TierEarly: 3, model.TierOne: 2}, tiers)
}

func TestCreatePendingInsufficientInventory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 1, 0, 0)
	userID, _ := s.newTestUser(t)

	_, err := s.reservations.CreatePending(ctx, userID, eventID, 2, 0,
		[]string{"A One", "B Two"}, "", "")
	assert.ErrorIs(t, err, model.ErrInsufficientInventory)

	// Nothing may be held after the failed attempt.
	early, _, _ := s.remaining(t, eventID)
	assert.Equal(t, 1, early)
}

func TestRejectReleasesHoldExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 3, 0, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 2, 0,
		[]string{"A One", "B Two"}, "", "")
	require.NoError(t, err)
	early, _, _ := s.remaining(t, eventID)
	require.Equal(t, 1, early)

	result, err := s.reservations.Reject(ctx, res.ID, 777, "blurry screenshot")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.StatusRejected, model.NormalizeStatus(result.Reservation.Status))
	assert.False(t, result.Reservation.HoldApplied)
	assert.Equal(t, "blurry screenshot", result.Reservation.AdminNote)
	require.NotNil(t, result.Reservation.ReviewedBy)
	assert.Equal(t, int64(777), *result.Reservation.ReviewedBy)

	early, _, _ = s.remaining(t, eventID)
	assert.Equal(t, 3, early)

	// A second reject is a recognized no-op and must not credit again.
	result, err = s.reservations.Reject(ctx, res.ID, 777, "again")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	early, _, _ = s.remaining(t, eventID)
	assert.Equal(t, 3, early)
}

func TestApproveKeepsHold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 3, 0, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 1, 1,
		[]string{"A One", "B Two"}, "", "")
	require.NoError(t, err)

	result, err := s.reservations.Approve(ctx, res.ID, 777)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.StatusApproved, model.NormalizeStatus(result.Reservation.Status))
	assert.True(t, result.Reservation.HoldApplied)

	early, _, _ := s.remaining(t, eventID)
	assert.Equal(t, 1, early, "approval converts the hold into a sale, nothing is released")

	// Approving again, or rejecting after approval, is a no-op.
	result, err = s.reservations.Approve(ctx, res.ID, 777)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	result, err = s.reservations.Reject(ctx, res.ID, 777, "too late")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	early, _, _ = s.remaining(t, eventID)
	assert.Equal(t, 1, early)
}

func TestCancelForUserReleasesHold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 2, 0, 0)
	userID, _ := s.newTestUser(t)

	res, err := s.reservations.CreatePending(ctx, userID, eventID, 2, 0,
		[]string{"A One", "B Two"}, "", "")
	require.NoError(t, err)

	result, err := s.reservations.CancelForUser(ctx, userID, res.Code)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.StatusCancelled, model.NormalizeStatus(result.Reservation.Status))

	early, _, _ := s.remaining(t, eventID)
	assert.Equal(t, 2, early)

	// Cancelling twice must not double-credit.
	result, err = s.reservations.CancelForUser(ctx, userID, res.Code)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	early, _, _ = s.remaining(t, eventID)
	assert.Equal(t, 2, early)

	// A different user cannot cancel by this code.
	otherID, _ := s.newTestUser(t)
	_, err = s.reservations.CancelForUser(ctx, otherID, res.Code)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	s := newTestStore(t)
	eventID := s.newTestEvent(t, 1, 0, 0)
	userA, _ := s.newTestUser(t)
	time.Sleep(time.Millisecond) // distinct tg ids for the second user
	userB, _ := s.newTestUser(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uint64{userA, userB} {
		wg.Add(1)
		go func(i int, uid uint64) {
			defer wg.Done()
			_, errs[i] = s.reservations.CreatePending(context.Background(), uid, eventID,
				1, 0, []string{"Race Runner"}, "", "")
		}(i, uid)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, model.ErrInsufficientInventory)
		}
	}
	assert.Equal(t, 1, successes, "the last ticket must be sold exactly once")

	early, _, _ := s.remaining(t, eventID)
	assert.Equal(t, 0, early)
}

func TestUserBlocking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, tgID := s.newTestUser(t)

	blocked, err := s.users.IsBlocked(ctx, tgID)
	require.NoError(t, err)
	assert.False(t, blocked)

	reason := "chargeback on previous event"
	require.NoError(t, s.users.SetBlocked(ctx, tgID, true, &reason))
	blocked, err = s.users.IsBlocked(ctx, tgID)
	require.NoError(t, err)
	assert.True(t, blocked)

	list, err := s.users.ListBlocked(ctx)
	require.NoError(t, err)
	found := false
	for _, u := range list {
		if u.TgID == tgID {
			found = true
			require.NotNil(t, u.BlockedReason)
			assert.Equal(t, reason, *u.BlockedReason)
		}
	}
	assert.True(t, found)

	require.NoError(t, s.users.SetBlocked(ctx, tgID, false, nil))
	blocked, err = s.users.IsBlocked(ctx, tgID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Unknown users are simply not blocked.
	blocked, err = s.users.IsBlocked(ctx, -1)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.ErrorIs(t, s.users.SetBlocked(ctx, -1, true, nil), model.ErrUserNotFound)
}

func TestSetEventFieldsValidatesAllFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	eventID := s.newTestEvent(t, 3, 5, 0)

	// One invalid value rejects the whole update.
	_, err := s.events.SetFields(ctx, eventID, map[string]string{
		"title":     "New Title",
		"early_boy": "-5",
	})
	assert.ErrorIs(t, err, model.ErrInvalidFieldValue)
	event, err := s.events.GetByID(ctx, eventID)
	require.NoError(t, err)
	assert.NotEqual(t, "New Title", event.Title)

	// Unknown fields are rejected the same way.
	_, err = s.events.SetFields(ctx, eventID, map[string]string{"vip_price": "9000"})
	assert.ErrorIs(t, err, model.ErrInvalidFieldValue)

	updated, err := s.events.SetFields(ctx, eventID, map[string]string{
		"title":      "New Title",
		"early_girl": "2750",
		"tier2_qty":  "10",
		"datetime":   "2026-10-01 21:30",
		"status":     "closed",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, 2750.0, updated.EarlyGirlPrice)
	assert.Equal(t, 10, updated.Tier2Qty)
	assert.Equal(t, "2026-10-01 21:30", updated.EventDatetime)
	assert.Equal(t, "closed", updated.Status)

	_, err = s.events.SetFields(ctx, eventID, map[string]string{"datetime": "next friday"})
	assert.ErrorIs(t, err, model.ErrInvalidFieldValue)
}
