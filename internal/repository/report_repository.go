package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/olzhasov/ticketbot/internal/model"
)

// Status alias sets used inside aggregate SQL.  Legacy rows may still
// carry old spellings; aggregating on the raw column would silently
// drop them from every report.
const (
	pendingAliasesSQL   = `('pending_review','pending','reserved','awaiting_review')`
	approvedAliasesSQL  = `('approved','paid','confirmed','entered')`
	rejectedAliasesSQL  = `('rejected','declined')`
	cancelledAliasesSQL = `('cancelled','canceled')`
	activeAliasesSQL    = `('pending_review','pending','reserved','awaiting_review','approved','paid','confirmed','entered')`
)

// ReportRepo serves the admin read models: per-event sales statistics,
// reservation search and the guest listings behind the door list and
// the CSV export.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// EventStat is one row of the per-event sales report.
type EventStat struct {
	EventID          uint64  `json:"event_id"`
	Title            string  `json:"title"`
	EventDatetime    string  `json:"event_datetime"`
	Status           string  `json:"status"`
	Remaining        int     `json:"remaining"`
	ApprovedTickets  int     `json:"approved_tickets"`
	PendingTickets   int     `json:"pending_tickets"`
	RejectedTickets  int     `json:"rejected_tickets"`
	CancelledTickets int     `json:"cancelled_tickets"`
	HeldTickets      int     `json:"held_tickets"`
	ApprovedRevenue  float64 `json:"approved_revenue"`
	PendingRevenue   float64 `json:"pending_revenue"`
}

// EventStats aggregates ticket and revenue counts per event.  sortBy is
// one of "date" (default), "revenue" or "sold".
func (r *ReportRepo) EventStats(ctx context.Context, sortBy string) ([]EventStat, error) {
	order := "e.event_datetime, e.id"
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "revenue":
		order = "approved_revenue DESC, e.id"
	case "sold":
		order = "approved_tickets DESC, e.id"
	}
	q := `SELECT e.id, e.title, e.event_datetime, e.status,
	             e.early_bird_qty + e.regular_tier1_qty + e.regular_tier2_qty AS remaining,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + approvedAliasesSQL + ` THEN r.quantity END), 0)  AS approved_tickets,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + pendingAliasesSQL + ` THEN r.quantity END), 0)   AS pending_tickets,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + rejectedAliasesSQL + ` THEN r.quantity END), 0)  AS rejected_tickets,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + cancelledAliasesSQL + ` THEN r.quantity END), 0) AS cancelled_tickets,
	             COALESCE(SUM(CASE WHEN r.hold_applied = 1 THEN r.quantity END), 0)                                   AS held_tickets,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + approvedAliasesSQL + ` THEN r.total_price END), 0) AS approved_revenue,
	             COALESCE(SUM(CASE WHEN LOWER(TRIM(r.status)) IN ` + pendingAliasesSQL + ` THEN r.total_price END), 0)  AS pending_revenue
	      FROM events e
	      LEFT JOIN reservations r ON r.event_id = e.id
	      GROUP BY e.id, e.title, e.event_datetime, e.status, remaining
	      ORDER BY ` + order
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]EventStat, 0)
	for rows.Next() {
		var s EventStat
		if err := rows.Scan(&s.EventID, &s.Title, &s.EventDatetime, &s.Status, &s.Remaining,
			&s.ApprovedTickets, &s.PendingTickets, &s.RejectedTickets, &s.CancelledTickets,
			&s.HeldTickets, &s.ApprovedRevenue, &s.PendingRevenue,
		); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ReservationSummary is a reservation joined with its event and buyer
// for the admin search views.
type ReservationSummary struct {
	model.Reservation
	EventTitle string `json:"event_title"`
	BuyerName  string `json:"buyer_name"`
	BuyerTgID  int64  `json:"buyer_tg_id"`
	BuyerPhone string `json:"buyer_phone"`
}

const summaryColumns = `r.id, r.code, r.user_id, r.event_id, r.ticket_type, r.quantity, r.boys, r.girls,
	r.total_price, r.status, r.created_at, r.payment_file_id, r.payment_file_type,
	COALESCE(r.admin_note, ''), r.reviewed_at, r.reviewed_by_tg_id, r.hold_applied,
	e.title, TRIM(CONCAT(u.name, ' ', u.surname)), u.tg_id, u.phone`

// SearchReservations looks a query string up across reservation codes,
// event titles and buyer names.  An empty query lists everything.
// sortBy is one of "newest" (default), "amount" or "status".
func (r *ReportRepo) SearchReservations(ctx context.Context, query, sortBy string, limit int) ([]ReservationSummary, error) {
	where, args := summaryFilter(query, "")
	return r.querySummaries(ctx, where, summaryOrder(sortBy), limit, args...)
}

// ListActiveReservations lists pending and approved reservations,
// optionally filtered by the same query matching as SearchReservations.
func (r *ReportRepo) ListActiveReservations(ctx context.Context, query string, limit int) ([]ReservationSummary, error) {
	where, args := summaryFilter(query, `LOWER(TRIM(r.status)) IN `+activeAliasesSQL)
	return r.querySummaries(ctx, where, summaryOrder("newest"), limit, args...)
}

// ListPendingReservations lists the review queue, oldest first so the
// longest-waiting buyer is reviewed next.
func (r *ReportRepo) ListPendingReservations(ctx context.Context, limit int) ([]ReservationSummary, error) {
	where, args := summaryFilter("", `LOWER(TRIM(r.status)) IN `+pendingAliasesSQL)
	return r.querySummaries(ctx, where, "r.created_at, r.id", limit, args...)
}

func summaryFilter(query, extra string) (string, []any) {
	conds := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if extra != "" {
		conds = append(conds, extra)
	}
	q := strings.TrimSpace(query)
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `(LOWER(r.code) LIKE ? OR LOWER(e.title) LIKE ?
			OR LOWER(CONCAT(u.name, ' ', u.surname)) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "1 = 1", args
	}
	return strings.Join(conds, " AND "), args
}

func summaryOrder(sortBy string) string {
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "amount":
		return "r.total_price DESC, r.id DESC"
	case "status":
		return "r.status, r.created_at DESC"
	}
	return "r.created_at DESC, r.id DESC"
}

func (r *ReportRepo) querySummaries(ctx context.Context, where, order string, limit int, args ...any) ([]ReservationSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + summaryColumns + `
	      FROM reservations r
	      JOIN events e ON e.id = r.event_id
	      JOIN users u ON u.id = r.user_id
	      WHERE ` + where + `
	      ORDER BY ` + order + `
	      LIMIT ?`
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationSummary, 0)
	for rows.Next() {
		var s ReservationSummary
		var tier string
		var reviewedAt sql.NullTime
		var reviewedBy sql.NullInt64
		if err := rows.Scan(
			&s.ID, &s.Code, &s.UserID, &s.EventID, &tier, &s.Quantity, &s.Boys, &s.Girls,
			&s.TotalPrice, &s.Status, &s.CreatedAt, &s.PaymentFileID, &s.PaymentKind,
			&s.AdminNote, &reviewedAt, &reviewedBy, &s.HoldApplied,
			&s.EventTitle, &s.BuyerName, &s.BuyerTgID, &s.BuyerPhone,
		); err != nil {
			return nil, err
		}
		if k, ok := model.ParseTierKey(tier); ok {
			s.PrimaryTier = k
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time
			s.ReviewedAt = &t
		}
		if reviewedBy.Valid {
			v := reviewedBy.Int64
			s.ReviewedBy = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GuestRow is one attendee joined with their reservation, buyer and
// event, as shown on the door list and in the CSV export.
type GuestRow struct {
	AttendeeID      uint64  `json:"attendee_id"`
	Name            string  `json:"name"`
	Surname         string  `json:"surname"`
	Gender          string  `json:"gender"`
	Tier            string  `json:"tier"`
	Status          string  `json:"status"`
	ReservationID   uint64  `json:"reservation_id"`
	ReservationCode string  `json:"reservation_code"`
	TotalPrice      float64 `json:"total_price"`
	EventID         uint64  `json:"event_id"`
	EventTitle      string  `json:"event_title"`
	BuyerName       string  `json:"buyer_name"`
	BuyerTgID       int64   `json:"buyer_tg_id"`
	BuyerPhone      string  `json:"buyer_phone"`
}

// ListGuests lists attendees across all events.  sortBy is one of
// "name" (default), "event" or "newest"; search matches attendee names
// case-insensitively; eventID filters to one event when non-zero.
func (r *ReportRepo) ListGuests(ctx context.Context, eventID uint64, sortBy, search string, limit int) ([]GuestRow, error) {
	if limit <= 0 {
		limit = 500
	}
	order := "a.surname, a.name, a.id"
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "event":
		order = "e.event_datetime, e.id, a.surname, a.name"
	case "newest":
		order = "a.id DESC"
	}
	conds := []string{`LOWER(TRIM(r.status)) IN ` + activeAliasesSQL}
	args := make([]any, 0, 4)
	if eventID != 0 {
		conds = append(conds, "r.event_id = ?")
		args = append(args, eventID)
	}
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		conds = append(conds, `(LOWER(CONCAT(a.name, ' ', a.surname)) LIKE ? OR LOWER(a.full_name) LIKE ?)`)
		args = append(args, like, like)
	}
	q := `SELECT a.id, a.name, a.surname, a.gender, a.ticket_tier, a.status,
	             r.id, r.code, r.total_price,
	             e.id, e.title,
	             TRIM(CONCAT(u.name, ' ', u.surname)), u.tg_id, u.phone
	      FROM attendees a
	      JOIN reservations r ON r.id = a.reservation_id
	      JOIN events e ON e.id = r.event_id
	      JOIN users u ON u.id = r.user_id
	      WHERE ` + strings.Join(conds, " AND ") + `
	      ORDER BY ` + order + `
	      LIMIT ?`
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]GuestRow, 0)
	for rows.Next() {
		var g GuestRow
		if err := rows.Scan(&g.AttendeeID, &g.Name, &g.Surname, &g.Gender, &g.Tier, &g.Status,
			&g.ReservationID, &g.ReservationCode, &g.TotalPrice,
			&g.EventID, &g.EventTitle, &g.BuyerName, &g.BuyerTgID, &g.BuyerPhone,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// NamePair is a normalized (name, surname) tuple.
type NamePair struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// GuestNamePairs returns the distinct (name, surname) pairs of every
// active attendee of an event.  Rows whose split columns are empty are
// re-split from full_name, covering data imported before the split
// columns existed.
func (r *ReportRepo) GuestNamePairs(ctx context.Context, eventID uint64) ([]NamePair, error) {
	const q = `SELECT a.name, a.surname, a.full_name
	           FROM attendees a
	           JOIN reservations r ON r.id = a.reservation_id
	           WHERE r.event_id = ? AND LOWER(TRIM(r.status)) IN ` + activeAliasesSQL + `
	           ORDER BY a.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := make(map[string]bool)
	out := make([]NamePair, 0)
	for rows.Next() {
		var name, surname, full string
		if err := rows.Scan(&name, &surname, &full); err != nil {
			return nil, err
		}
		name, surname = strings.TrimSpace(name), strings.TrimSpace(surname)
		if name == "" && surname == "" {
			name, surname = model.SplitFullName(full)
		}
		key := strings.ToLower(name) + "\x00" + strings.ToLower(surname)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, NamePair{Name: name, Surname: surname})
	}
	return out, rows.Err()
}
