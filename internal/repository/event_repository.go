package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olzhasov/ticketbot/internal/model"
)

// EventRepo provides CRUD operations for events and owns the tier
// counter statements.  Tier quantities are never written directly by
// callers: they change only through holdTiersTx / releaseTiersTx,
// invoked inside the reservation and guest transactions, and through
// the explicit admin quantity edit in SetFields (which never touches
// inventory already held by reservations).
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for callers that open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, title, event_datetime, location, caption, photo_file_id,
	early_bird_price, early_bird_price_girl, early_bird_qty,
	regular_tier1_price, regular_tier1_price_girl, regular_tier1_qty,
	regular_tier2_price, regular_tier2_price_girl, regular_tier2_qty, status`

// Create inserts a new event with the full tier matrix and returns its id.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) (uint64, error) {
	const q = `INSERT INTO events (title, event_datetime, location, caption, photo_file_id,
	             early_bird_price, early_bird_price_girl, early_bird_qty,
	             regular_tier1_price, regular_tier1_price_girl, regular_tier1_qty,
	             regular_tier2_price, regular_tier2_price_girl, regular_tier2_qty, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	status := e.Status
	if status == "" {
		status = model.EventStatusOpen
	}
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.EventDatetime, e.Location, e.Caption, e.PhotoFileID,
		e.EarlyBoyPrice, e.EarlyGirlPrice, e.EarlyQty,
		e.Tier1BoyPrice, e.Tier1GirlPrice, e.Tier1Qty,
		e.Tier2BoyPrice, e.Tier2GirlPrice, e.Tier2Qty, status,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns an event or model.ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID inside an existing transaction.  The row is
// locked so tier counters read here stay stable until commit.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	return scanEvent(tx.QueryRowContext(ctx, q, id))
}

// ListOpen returns all open events ordered by schedule.
func (r *EventRepo) ListOpen(ctx context.Context) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE status = ? ORDER BY event_datetime`
	rows, err := r.db.QueryContext(ctx, q, model.EventStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// tierQtyColumn maps a tier key onto its counter column.  Keys come
// from the closed TierKey enumeration, never from external input, so
// interpolating the column name is safe.
func tierQtyColumn(key model.TierKey) (string, error) {
	switch key {
	case model.TierEarly:
		return "early_bird_qty", nil
	case model.TierOne:
		return "regular_tier1_qty", nil
	case model.TierTwo:
		return "regular_tier2_qty", nil
	}
	return "", fmt.Errorf("unknown tier %q", key)
}

// holdTiersTx decrements tier counters by the given per-tier counts
// inside a transaction.  Each decrement is conditional: it only
// applies when the counter would stay non-negative.  A failed
// decrement returns model.ErrInsufficientInventory and the caller must
// roll back the whole transaction so no partial hold persists.
func (r *EventRepo) holdTiersTx(ctx context.Context, tx *sql.Tx, eventID uint64, counts map[model.TierKey]int) error {
	for _, key := range model.TierOrder {
		n := counts[key]
		if n <= 0 {
			continue
		}
		col, err := tierQtyColumn(key)
		if err != nil {
			return err
		}
		q := fmt.Sprintf(`UPDATE events SET %s = %s - ? WHERE id = ? AND %s >= ?`, col, col, col)
		res, err := tx.ExecContext(ctx, q, n, eventID, n)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return model.ErrInsufficientInventory
		}
	}
	return nil
}

// releaseTiersTx credits tier counters back inside a transaction.  It
// is only ever called from the single statement path that also flips
// hold_applied to false, which is what makes release exactly-once.
func (r *EventRepo) releaseTiersTx(ctx context.Context, tx *sql.Tx, eventID uint64, counts map[model.TierKey]int) error {
	for _, key := range model.TierOrder {
		n := counts[key]
		if n <= 0 {
			continue
		}
		col, err := tierQtyColumn(key)
		if err != nil {
			return err
		}
		q := fmt.Sprintf(`UPDATE events SET %s = %s + ? WHERE id = ?`, col, col)
		if _, err := tx.ExecContext(ctx, q, n, eventID); err != nil {
			return err
		}
	}
	return nil
}

// eventField describes one admin-editable field: the column it maps to
// and a validator that converts the raw string value.  Quantity edits
// write the counter directly and deliberately do not touch inventory
// already held by reservations.
type eventField struct {
	column   string
	validate func(string) (any, error)
}

var eventFields = map[string]eventField{
	"title":      {"title", nonEmptyString},
	"caption":    {"caption", anyString},
	"location":   {"location", nonEmptyString},
	"photo":      {"photo_file_id", anyString},
	"datetime":   {"event_datetime", scheduleString},
	"status":     {"status", eventStatus},
	"early_boy":  {"early_bird_price", nonNegativePrice},
	"early_girl": {"early_bird_price_girl", nonNegativePrice},
	"early_qty":  {"early_bird_qty", nonNegativeCount},
	"tier1_boy":  {"regular_tier1_price", nonNegativePrice},
	"tier1_girl": {"regular_tier1_price_girl", nonNegativePrice},
	"tier1_qty":  {"regular_tier1_qty", nonNegativeCount},
	"tier2_boy":  {"regular_tier2_price", nonNegativePrice},
	"tier2_girl": {"regular_tier2_price_girl", nonNegativePrice},
	"tier2_qty":  {"regular_tier2_qty", nonNegativeCount},
}

// ScheduleLayout is the canonical schedule string format.
const ScheduleLayout = "2006-01-02 15:04"

func anyString(raw string) (any, error) { return strings.TrimSpace(raw), nil }

func nonEmptyString(raw string) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, fmt.Errorf("%w: empty value", model.ErrInvalidFieldValue)
	}
	return v, nil
}

func scheduleString(raw string) (any, error) {
	v := strings.TrimSpace(raw)
	if _, err := time.Parse(ScheduleLayout, v); err != nil {
		return nil, fmt.Errorf("%w: schedule must be YYYY-MM-DD HH:MM", model.ErrInvalidFieldValue)
	}
	return v, nil
}

func eventStatus(raw string) (any, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v != "open" && v != "closed" {
		return nil, fmt.Errorf("%w: status must be open or closed", model.ErrInvalidFieldValue)
	}
	return v, nil
}

func nonNegativePrice(raw string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: price must be a non-negative number", model.ErrInvalidFieldValue)
	}
	return v, nil
}

func nonNegativeCount(raw string) (any, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: quantity must be a non-negative integer", model.ErrInvalidFieldValue)
	}
	return v, nil
}

// SetFields applies a map of field edits to an event.  Every value is
// validated before anything is written; one invalid value rejects the
// whole update with model.ErrInvalidFieldValue.  Unknown field names
// are rejected the same way.
func (r *EventRepo) SetFields(ctx context.Context, eventID uint64, updates map[string]string) (*model.Event, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrInvalidFieldValue)
	}
	assignments := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for field, raw := range updates {
		spec, ok := eventFields[strings.ToLower(strings.TrimSpace(field))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", model.ErrInvalidFieldValue, field)
		}
		val, err := spec.validate(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		assignments = append(assignments, spec.column+" = ?")
		args = append(args, val)
	}
	args = append(args, eventID)
	q := `UPDATE events SET ` + strings.Join(assignments, ", ") + ` WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// Either missing or unchanged; existence check decides which.
		if _, err := r.GetByID(ctx, eventID); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, eventID)
}

// DeleteCounts reports what a cascading event delete removed.
type DeleteCounts struct {
	Reservations int64
	Attendees    int64
}

// DeleteCascade hard-deletes an event together with all of its
// reservations and attendees, atomically, and returns the number of
// rows removed.  Returns model.ErrEventNotFound when the event does
// not exist.
func (r *EventRepo) DeleteCascade(ctx context.Context, eventID uint64) (DeleteCounts, error) {
	var counts DeleteCounts
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ? FOR UPDATE`, eventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return counts, model.ErrEventNotFound
	}
	if err != nil {
		return counts, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE a FROM attendees a JOIN reservations r ON r.id = a.reservation_id WHERE r.event_id = ?`, eventID)
	if err != nil {
		return counts, err
	}
	counts.Attendees, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM reservations WHERE event_id = ?`, eventID)
	if err != nil {
		return counts, err
	}
	counts.Reservations, _ = res.RowsAffected()

	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID); err != nil {
		return counts, err
	}
	if err := tx.Commit(); err != nil {
		return counts, err
	}
	committed = true
	return counts, nil
}

func scanEvent(row *sql.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.EventDatetime, &e.Location, &e.Caption, &e.PhotoFileID,
		&e.EarlyBoyPrice, &e.EarlyGirlPrice, &e.EarlyQty,
		&e.Tier1BoyPrice, &e.Tier1GirlPrice, &e.Tier1Qty,
		&e.Tier2BoyPrice, &e.Tier2GirlPrice, &e.Tier2Qty, &e.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEventRows(rows *sql.Rows) (*model.Event, error) {
	var e model.Event
	err := rows.Scan(
		&e.ID, &e.Title, &e.EventDatetime, &e.Location, &e.Caption, &e.PhotoFileID,
		&e.EarlyBoyPrice, &e.EarlyGirlPrice, &e.EarlyQty,
		&e.Tier1BoyPrice, &e.Tier1GirlPrice, &e.Tier1Qty,
		&e.Tier2BoyPrice, &e.Tier2GirlPrice, &e.Tier2Qty, &e.Status,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
