package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/olzhasov/ticketbot/internal/model"
)

// UserRepo provides CRUD operations for bot users.  Users are keyed by
// their Telegram id; the bot upserts the profile on every onboarding
// pass.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *UserRepo) DB() *sql.DB { return r.db }

// Upsert inserts or refreshes a user profile keyed by Telegram id.
func (r *UserRepo) Upsert(ctx context.Context, tgID int64, name, surname, phone string) error {
	const q = `INSERT INTO users (tg_id, name, surname, phone)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), surname = VALUES(surname), phone = VALUES(phone)`
	_, err := r.db.ExecContext(ctx, q, tgID, name, surname, phone)
	return err
}

// GetByTgID returns the user with the given Telegram id or
// model.ErrUserNotFound.
func (r *UserRepo) GetByTgID(ctx context.Context, tgID int64) (*model.User, error) {
	const q = `SELECT id, tg_id, name, surname, phone, blocked, blocked_reason FROM users WHERE tg_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tgID))
}

// GetByID returns the user with the given primary key or
// model.ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, tg_id, name, surname, phone, blocked, blocked_reason FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// IsBlocked reports whether the user with the given Telegram id is
// blocked.  Unknown users are not blocked.
func (r *UserRepo) IsBlocked(ctx context.Context, tgID int64) (bool, error) {
	const q = `SELECT blocked FROM users WHERE tg_id = ?`
	var blocked bool
	err := r.db.QueryRowContext(ctx, q, tgID).Scan(&blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return blocked, nil
}

// SetBlocked flips the block gate for a user, optionally recording a
// reason.  Returns model.ErrUserNotFound when the Telegram id is
// unknown.
func (r *UserRepo) SetBlocked(ctx context.Context, tgID int64, blocked bool, reason *string) error {
	const q = `UPDATE users SET blocked = ?, blocked_reason = ? WHERE tg_id = ?`
	res, err := r.db.ExecContext(ctx, q, blocked, reason, tgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 when the flag already had the desired
		// value; distinguish by checking existence.
		if _, err := r.GetByTgID(ctx, tgID); err != nil {
			return err
		}
	}
	return nil
}

// ListBlocked returns every blocked user.
func (r *UserRepo) ListBlocked(ctx context.Context) ([]model.User, error) {
	const q = `SELECT id, tg_id, name, surname, phone, blocked, blocked_reason FROM users WHERE blocked = 1`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		var reason sql.NullString
		if err := rows.Scan(&u.ID, &u.TgID, &u.Name, &u.Surname, &u.Phone, &u.Blocked, &reason); err != nil {
			return nil, err
		}
		if reason.Valid {
			v := reason.String
			u.BlockedReason = &v
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var u model.User
	var reason sql.NullString
	err := row.Scan(&u.ID, &u.TgID, &u.Name, &u.Surname, &u.Phone, &u.Blocked, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		v := reason.String
		u.BlockedReason = &v
	}
	return &u, nil
}
