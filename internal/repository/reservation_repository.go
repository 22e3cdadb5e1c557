package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/olzhasov/ticketbot/internal/allocation"
	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/utils"
)

// ReservationRepo owns the reservation lifecycle: creation with the
// inventory hold applied, the review transitions (approve / reject)
// and user cancellation.  Each operation is one transaction; the hold
// is released at most once because the counter credits and the
// hold_applied flip happen in the same transaction and release is only
// entered while the flag is still true.
type ReservationRepo struct {
	db     *sql.DB
	events *EventRepo
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB, events *EventRepo) *ReservationRepo {
	return &ReservationRepo{db: db, events: events}
}

// DB exposes the underlying handle.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, code, user_id, event_id, ticket_type, quantity, boys, girls,
	total_price, status, created_at, payment_file_id, payment_file_type,
	COALESCE(admin_note, ''), reviewed_at, reviewed_by_tg_id, hold_applied`

// CreatePending quotes the requested split against current inventory
// and commits the plan atomically: tier counters are decremented with
// guarded updates, the reservation row is inserted pending review with
// hold_applied set, and one attendee row is written per allocated
// seat.  A lost race on any counter aborts the whole transaction with
// model.ErrInsufficientInventory, leaving no partial state.
func (r *ReservationRepo) CreatePending(ctx context.Context, userID, eventID uint64, boys, girls int, attendeeNames []string, proofRef, proofKind string) (*model.Reservation, error) {
	if len(attendeeNames) != boys+girls {
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

	event, err := r.events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	plan, err := allocation.Quote(event, boys, girls)
	if err != nil {
		return nil, err
	}

	// Re-validated inside the transaction: the quote above used the
	// locked row, and the guarded decrements below are the final word.
	if err := r.events.holdTiersTx(ctx, tx, eventID, plan.HoldCounts); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	code := utils.NewReservationCode(eventID, userID)
	const insertRes = `INSERT INTO reservations
		(code, user_id, event_id, ticket_type, quantity, boys, girls, total_price,
		 status, created_at, payment_file_id, payment_file_type, hold_applied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`
	res, err := tx.ExecContext(ctx, insertRes,
		code, userID, eventID, string(plan.PrimaryTier), plan.Quantity, boys, girls,
		plan.TotalPrice, model.StatusPendingReview, now, proofRef, proofKind,
	)
	if err != nil {
		return nil, err
	}
	resID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := insertAttendeesTx(ctx, tx, uint64(resID), attendeeNames, plan.Seats, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, uint64(resID))
}

// insertAttendeesTx writes one attendee row per allocated seat.  The
// i-th name is paired with the i-th planned seat, so the boys-first
// allocation order also decides which names land in which tier.
func insertAttendeesTx(ctx context.Context, tx *sql.Tx, reservationID uint64, names []string, seats []allocation.Seat, now time.Time) error {
	const q = `INSERT INTO attendees (reservation_id, name, surname, full_name, gender, ticket_tier, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i, full := range names {
		name, surname := model.SplitFullName(full)
		seat := seats[i]
		if _, err := tx.ExecContext(ctx, q,
			reservationID, name, surname, full, string(seat.Gender), string(seat.Tier),
			model.StatusPendingReview, now,
		); err != nil {
			return err
		}
	}
	return nil
}

// Approve moves a pending reservation to approved.  The hold stays
// applied: approval converts held inventory into a committed sale.
// Approving a reservation in any other state is a recognized no-op
// reported through the TransitionResult, not an error.
func (r *ReservationRepo) Approve(ctx context.Context, reservationID uint64, adminTgID int64) (TransitionResult, error) {
	return r.review(ctx, reservationID, adminTgID, "", true)
}

// Reject moves a pending reservation to rejected and releases its
// hold.  The note is stored for the buyer-facing rejection message.
func (r *ReservationRepo) Reject(ctx context.Context, reservationID uint64, adminTgID int64, note string) (TransitionResult, error) {
	return r.review(ctx, reservationID, adminTgID, note, false)
}

func (r *ReservationRepo) review(ctx context.Context, reservationID uint64, adminTgID int64, note string, approve bool) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := getReservationTx(ctx, tx, `id = ?`, reservationID)
	if err != nil {
		return TransitionResult{}, err
	}
	if model.NormalizeStatus(res.Status) != model.StatusPendingReview {
		return skipped(res, "Reservation was already reviewed."), nil
	}

	now := time.Now().UTC()
	if approve {
		const q = `UPDATE reservations SET status = ?, reviewed_at = ?, reviewed_by_tg_id = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, model.StatusApproved, now, adminTgID, res.ID); err != nil {
			return TransitionResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE attendees SET status = ? WHERE reservation_id = ?`, model.StatusApproved, res.ID); err != nil {
			return TransitionResult{}, err
		}
	} else {
		if err := r.releaseHoldTx(ctx, tx, res); err != nil {
			return TransitionResult{}, err
		}
		const q = `UPDATE reservations SET status = ?, admin_note = ?, reviewed_at = ?, reviewed_by_tg_id = ?, hold_applied = 0 WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, model.StatusRejected, note, now, adminTgID, res.ID); err != nil {
			return TransitionResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE attendees SET status = ? WHERE reservation_id = ?`, model.StatusRejected, res.ID); err != nil {
			return TransitionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TransitionResult{}, err
	}
	committed = true

	updated, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return TransitionResult{}, err
	}
	if approve {
		return applied(updated, "Reservation approved."), nil
	}
	return applied(updated, "Reservation rejected; tickets returned to sale."), nil
}

// CancelForUser cancels the reservation with the given code if it
// belongs to the user and is still active (pending or approved, legacy
// aliases included).  There is no cutoff window.  Cancelling an
// already-finalized reservation is a no-op TransitionResult.
func (r *ReservationRepo) CancelForUser(ctx context.Context, userID uint64, code string) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := getReservationTx(ctx, tx, `code = ? AND user_id = ?`, code, userID)
	if err != nil {
		return TransitionResult{}, err
	}
	switch model.NormalizeStatus(res.Status) {
	case model.StatusPendingReview, model.StatusApproved:
	default:
		return skipped(res, "Reservation is no longer active."), nil
	}

	if err := r.releaseHoldTx(ctx, tx, res); err != nil {
		return TransitionResult{}, err
	}
	const q = `UPDATE reservations SET status = ?, hold_applied = 0 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, model.StatusCancelled, res.ID); err != nil {
		return TransitionResult{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE attendees SET status = ? WHERE reservation_id = ?`, model.StatusCancelled, res.ID); err != nil {
		return TransitionResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return TransitionResult{}, err
	}
	committed = true

	updated, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return TransitionResult{}, err
	}
	return applied(updated, "Reservation cancelled; tickets returned to sale."), nil
}

// MarkEntered flags an approved reservation and its attendees as
// checked in at the door.  "entered" normalizes back to approved, so
// inventory accounting is untouched.
func (r *ReservationRepo) MarkEntered(ctx context.Context, reservationID uint64) (TransitionResult, error) {
	res, err := r.GetByID(ctx, reservationID)
	if err != nil {
		return TransitionResult{}, err
	}
	if model.NormalizeStatus(res.Status) != model.StatusApproved {
		return skipped(res, "Only approved reservations can be marked entered."), nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = 'entered' WHERE id = ?`, res.ID); err != nil {
		return TransitionResult{}, err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE attendees SET status = 'entered' WHERE reservation_id = ?`, res.ID); err != nil {
		return TransitionResult{}, err
	}
	updated, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return TransitionResult{}, err
	}
	return applied(updated, "Reservation marked as entered."), nil
}

// releaseHoldTx credits held inventory back to the event.  The
// tier->count map is recomputed from the reservation's current
// attendee rows, not from its original display tier: guest mutation
// may have changed which tiers are actually held since creation, and
// releasing against stale counts would corrupt inventory.  Callers
// only invoke this while hold_applied is still true and flip the flag
// in the same transaction.
func (r *ReservationRepo) releaseHoldTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	if !res.HoldApplied {
		return nil
	}
	counts, err := attendeeTierCountsTx(ctx, tx, res)
	if err != nil {
		return err
	}
	return r.events.releaseTiersTx(ctx, tx, res.EventID, counts)
}

// attendeeTierCountsTx groups the reservation's current attendees by
// tier.  Legacy attendee rows without a tier tag fall back to the
// reservation's display tier, the only tier such rows can have been
// allocated to.
func attendeeTierCountsTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) (map[model.TierKey]int, error) {
	const q = `SELECT ticket_tier, COUNT(*) FROM attendees WHERE reservation_id = ? GROUP BY ticket_tier`
	rows, err := tx.QueryContext(ctx, q, res.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.TierKey]int)
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		key, ok := model.ParseTierKey(raw)
		if !ok {
			key = res.PrimaryTier
		}
		counts[key] += n
	}
	return counts, rows.Err()
}

// GetByID returns a reservation or model.ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

// GetByCode returns a reservation by its human-readable code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, code))
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// ListAttendees returns the attendees of a reservation in insertion
// order.
func (r *ReservationRepo) ListAttendees(ctx context.Context, reservationID uint64) ([]model.Attendee, error) {
	const q = `SELECT id, reservation_id, name, surname, gender, ticket_tier, status, created_at
	           FROM attendees WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Attendee, 0)
	for rows.Next() {
		var a model.Attendee
		var gender, tier string
		if err := rows.Scan(&a.ID, &a.ReservationID, &a.Name, &a.Surname, &gender, &tier, &a.Status, &a.CreatedAt); err != nil {
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
		out = append(out, a)
	}
	return out, rows.Err()
}

// getReservationTx loads a reservation inside a transaction with a row
// lock, so concurrent transitions serialize on the same row.  The
// where clause must select at most one row.
func getReservationTx(ctx context.Context, tx *sql.Tx, where string, args ...any) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + where + ` FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, args...))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationFrom(s rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var tier string
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullInt64
	err := s.Scan(
		&res.ID, &res.Code, &res.UserID, &res.EventID, &tier, &res.Quantity, &res.Boys, &res.Girls,
		&res.TotalPrice, &res.Status, &res.CreatedAt, &res.PaymentFileID, &res.PaymentKind,
		&res.AdminNote, &reviewedAt, &reviewedBy, &res.HoldApplied,
	)
	if err != nil {
		return nil, err
	}
	if k, ok := model.ParseTierKey(tier); ok {
		res.PrimaryTier = k
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		res.ReviewedAt = &t
	}
	if reviewedBy.Valid {
		v := reviewedBy.Int64
		res.ReviewedBy = &v
	}
	return &res, nil
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	res, err := scanReservationFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrReservationNotFound
	}
	return res, err
}

func scanReservationRows(rows *sql.Rows) (*model.Reservation, error) {
	return scanReservationFrom(rows)
}
