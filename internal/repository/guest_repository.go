package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/olzhasov/ticketbot/internal/allocation"
	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/utils"
)

// GuestRepo mutates the attendee list of existing reservations.  Every
// add holds one more seat and every remove releases one, so a
// reservation's hold always mirrors its attendee rows, tier by tier.
// Only pending and approved reservations are mutable; finalized ones
// return model.ErrImmutableReservation.
type GuestRepo struct {
	db     *sql.DB
	events *EventRepo
}

// NewGuestRepo returns a new GuestRepo bound to the given database.
func NewGuestRepo(db *sql.DB, events *EventRepo) *GuestRepo {
	return &GuestRepo{db: db, events: events}
}

// AddGuest appends one guest to the reservation with the given code.
// The seat is taken from the event's current active tier at the current
// price for the guest's gender, which may differ from what the original
// buyers paid.  Fails with model.ErrSoldOut when no tier has seats
// left.
func (r *GuestRepo) AddGuest(ctx context.Context, code, fullName, genderRaw string) (*model.Reservation, error) {
	gender, ok := model.ParseGender(genderRaw)
	if !ok || gender == model.GenderUnknown {
		return nil, model.ErrInvalidGender
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, model.ErrAttendeeCountMismatch
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := getReservationTx(ctx, tx, `code = ?`, code)
	if err != nil {
		return nil, err
	}
	if !model.IsMutableStatus(res.Status) {
		return nil, model.ErrImmutableReservation
	}

	event, err := r.events.GetByIDTx(ctx, tx, res.EventID)
	if err != nil {
		return nil, err
	}
	plan, err := allocation.QuoteSingle(event, gender)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientInventory) {
			return nil, model.ErrSoldOut
		}
		return nil, err
	}
	seat := plan.Seats[0]
	// Legacy rows predating hold tracking never applied a hold, so
	// their guests must not decrement counters either; the remove
	// side skips the release the same way.
	if res.HoldApplied {
		if err := r.events.holdTiersTx(ctx, tx, res.EventID, map[model.TierKey]int{seat.Tier: 1}); err != nil {
			if errors.Is(err, model.ErrInsufficientInventory) {
				return nil, model.ErrSoldOut
			}
			return nil, err
		}
	}

	name, surname := model.SplitFullName(fullName)
	const insertGuest = `INSERT INTO attendees (reservation_id, name, surname, full_name, gender, ticket_tier, status, created_at)
	                     VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertGuest,
		res.ID, name, surname, fullName, string(gender), string(seat.Tier), res.Status, time.Now().UTC(),
	); err != nil {
		return nil, err
	}

	boys, girls := 0, 0
	if gender == model.GenderGirl {
		girls = 1
	} else {
		boys = 1
	}
	const bump = `UPDATE reservations SET quantity = quantity + 1, boys = boys + ?, girls = girls + ?,
	              total_price = total_price + ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, bump, boys, girls, seat.UnitPrice, res.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return getReservation(ctx, r.db, res.ID)
}

// AddGuestByEvent sells a single walk-in ticket at the door: it creates
// a brand-new, already-approved single-guest reservation owned by the
// admin's user record.  Inventory is held exactly as for a normal
// booking.
func (r *GuestRepo) AddGuestByEvent(ctx context.Context, adminTgID int64, eventID uint64, name, surname, genderRaw string) (*model.Reservation, error) {
	gender, ok := model.ParseGender(genderRaw)
	if !ok || gender == model.GenderUnknown {
		return nil, model.ErrInvalidGender
	}
	fullName := strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(surname))
	if fullName == "" {
		return nil, model.ErrAttendeeCountMismatch
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Walk-in sales book under the admin's own user row.
	const upsertAdmin = `INSERT INTO users (tg_id, name, surname, phone) VALUES (?, 'Door', 'Sale', '')
	                     ON DUPLICATE KEY UPDATE tg_id = tg_id`
	if _, err := tx.ExecContext(ctx, upsertAdmin, adminTgID); err != nil {
		return nil, err
	}
	var ownerID uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE tg_id = ?`, adminTgID).Scan(&ownerID); err != nil {
		return nil, err
	}

	event, err := r.events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	plan, err := allocation.QuoteSingle(event, gender)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientInventory) {
			return nil, model.ErrSoldOut
		}
		return nil, err
	}
	seat := plan.Seats[0]
	if err := r.events.holdTiersTx(ctx, tx, eventID, map[model.TierKey]int{seat.Tier: 1}); err != nil {
		if errors.Is(err, model.ErrInsufficientInventory) {
			return nil, model.ErrSoldOut
		}
		return nil, err
	}

	boys, girls := 1, 0
	if gender == model.GenderGirl {
		boys, girls = 0, 1
	}
	now := time.Now().UTC()
	code := utils.NewReservationCode(eventID, ownerID)
	const insertRes = `INSERT INTO reservations
		(code, user_id, event_id, ticket_type, quantity, boys, girls, total_price,
		 status, created_at, payment_file_id, payment_file_type, reviewed_at, reviewed_by_tg_id, hold_applied)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?, '', '', ?, ?, 1)`
	ins, err := tx.ExecContext(ctx, insertRes,
		code, ownerID, eventID, string(seat.Tier), boys, girls, seat.UnitPrice,
		model.StatusApproved, now, now, adminTgID,
	)
	if err != nil {
		return nil, err
	}
	resID, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}

	const insertGuest = `INSERT INTO attendees (reservation_id, name, surname, full_name, gender, ticket_tier, status, created_at)
	                     VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertGuest,
		resID, strings.TrimSpace(name), strings.TrimSpace(surname), fullName,
		string(gender), string(seat.Tier), model.StatusApproved, now,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return getReservation(ctx, r.db, uint64(resID))
}

// RemoveGuest deletes one attendee and releases their seat back to the
// tier it was actually held in.  The refund uses the event's current
// price for that tier and gender; the total never goes below zero.
// Removing the last attendee cancels the whole reservation.
func (r *GuestRepo) RemoveGuest(ctx context.Context, attendeeID uint64) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	attendee, err := getAttendeeTx(ctx, tx, attendeeID)
	if err != nil {
		return nil, err
	}
	resID, err := r.removeGuestTx(ctx, tx, attendee)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return getReservation(ctx, r.db, resID)
}

// RemoveGuestByName removes the most recently added guest matching the
// given name on any mutable reservation of the event.  Matching is
// case-insensitive and ignores surrounding whitespace, because the
// names arrive retyped by hand at the door.
func (r *GuestRepo) RemoveGuestByName(ctx context.Context, eventID uint64, name, surname string) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const find = `SELECT a.id FROM attendees a
	              JOIN reservations r ON r.id = a.reservation_id
	              WHERE r.event_id = ?
	                AND LOWER(TRIM(r.status)) IN ('pending_review','pending','reserved','awaiting_review',
	                                              'approved','paid','confirmed','entered')
	                AND LOWER(TRIM(a.name)) = ? AND LOWER(TRIM(a.surname)) = ?
	              ORDER BY a.id DESC LIMIT 1 FOR UPDATE`
	var attendeeID uint64
	err = tx.QueryRowContext(ctx, find, eventID,
		strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(surname)),
	).Scan(&attendeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}

	attendee, err := getAttendeeTx(ctx, tx, attendeeID)
	if err != nil {
		return nil, err
	}
	resID, err := r.removeGuestTx(ctx, tx, attendee)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return getReservation(ctx, r.db, resID)
}

// removeGuestTx does the shared removal work inside the caller's
// transaction: lock the reservation, delete the attendee row, release
// the seat, shrink the totals, cancel when empty.
func (r *GuestRepo) removeGuestTx(ctx context.Context, tx *sql.Tx, attendee *model.Attendee) (uint64, error) {
	res, err := getReservationTx(ctx, tx, `id = ?`, attendee.ReservationID)
	if err != nil {
		return 0, err
	}
	if !model.IsMutableStatus(res.Status) {
		return 0, model.ErrImmutableReservation
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendees WHERE id = ?`, attendee.ID); err != nil {
		return 0, err
	}

	tier := attendee.Tier
	if tier == "" {
		tier = res.PrimaryTier
	}
	if res.HoldApplied {
		if err := r.events.releaseTiersTx(ctx, tx, res.EventID, map[model.TierKey]int{tier: 1}); err != nil {
			return 0, err
		}
	}

	// Refund at the event's current price for the seat that was held.
	var refund float64
	event, err := r.events.GetByIDTx(ctx, tx, res.EventID)
	if err == nil {
		if t, ok := event.Tier(tier); ok {
			refund = t.Price(attendee.Gender)
		}
	} else if !errors.Is(err, model.ErrEventNotFound) {
		return 0, err
	}

	boys, girls := 0, 0
	if attendee.Gender == model.GenderGirl {
		girls = 1
	} else {
		boys = 1
	}

	if res.Quantity <= 1 {
		const cancel = `UPDATE reservations SET quantity = 0, boys = 0, girls = 0, total_price = 0,
		                status = ?, hold_applied = 0 WHERE id = ?`
		if _, err := tx.ExecContext(ctx, cancel, model.StatusCancelled, res.ID); err != nil {
			return 0, err
		}
		return res.ID, nil
	}

	const shrink = `UPDATE reservations SET quantity = quantity - 1,
	                boys = GREATEST(boys - ?, 0), girls = GREATEST(girls - ?, 0),
	                total_price = GREATEST(total_price - ?, 0) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, shrink, boys, girls, refund, res.ID); err != nil {
		return 0, err
	}
	return res.ID, nil
}

// RenameGuest changes an attendee's name in place.  Tier, gender and
// pricing are untouched.
func (r *GuestRepo) RenameGuest(ctx context.Context, attendeeID uint64, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return model.ErrAttendeeCountMismatch
	}
	name, surname := model.SplitFullName(fullName)
	const q = `UPDATE reservations r JOIN attendees a ON a.reservation_id = r.id
	           SET a.name = ?, a.surname = ?, a.full_name = ?
	           WHERE a.id = ? AND LOWER(TRIM(r.status)) IN ('pending_review','pending','reserved','awaiting_review',
	                                                        'approved','paid','confirmed','entered')`
	res, err := r.db.ExecContext(ctx, q, name, surname, fullName, attendeeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var resID uint64
		err := r.db.QueryRowContext(ctx, `SELECT reservation_id FROM attendees WHERE id = ?`, attendeeID).Scan(&resID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrGuestNotFound
		}
		if err != nil {
			return err
		}
		// The row exists but did not match the status filter, or the name
		// was already identical; only the former is an error.
		r2, err := getReservation(ctx, r.db, resID)
		if err != nil {
			return err
		}
		if !model.IsMutableStatus(r2.Status) {
			return model.ErrImmutableReservation
		}
	}
	return nil
}

// getAttendeeTx loads and locks one attendee row.
func getAttendeeTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Attendee, error) {
	const q = `SELECT id, reservation_id, name, surname, gender, ticket_tier, status, created_at
	           FROM attendees WHERE id = ? FOR UPDATE`
	var a model.Attendee
	var gender, tier string
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.ReservationID, &a.Name, &a.Surname, &gender, &tier, &a.Status, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	if g, ok := model.ParseGender(gender); ok {
		a.Gender = g
	} else {
		a.Gender = model.GenderUnknown
	}
	if k, ok := model.ParseTierKey(tier); ok {
		a.Tier = k
	}
	return &a, nil
}

// getReservation is a package-internal fetch used after commits, when
// the caller has an id but no repo instance of the right type.
func getReservation(ctx context.Context, db *sql.DB, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(db.QueryRowContext(ctx, q, id))
}
