package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campus-portal/internal/model"
)

// LedgerRepo is the append-only points ledger stored in `activities`.
// Balances are always computed as SUM(delta); there is no balance column
// that could drift from the history.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to db.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Apply appends one ledger entry and returns the resulting balance.  The
// owner row is locked for the duration of the transaction so that two
// concurrent redemptions cannot both pass the floor check.  When the entry
// would make the balance negative ErrInsufficientPoints is returned and
// nothing is written.
func (r *LedgerRepo) Apply(ctx context.Context, a model.Activity) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var owner string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", a.UserID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM activities WHERE user_id=?", a.UserID).Scan(&balance); err != nil {
		return 0, err
	}
	if balance+a.Delta < 0 {
		return balance, ErrInsufficientPoints
	}

	const ins = `INSERT INTO activities (id, user_id, activity, description, delta, category, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		a.ID, a.UserID, a.Activity, a.Description, a.Delta, string(a.Category), a.CreatedAt); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return balance + a.Delta, nil
}

// History returns a user's ledger entries, oldest first.
func (r *LedgerRepo) History(ctx context.Context, userID string) ([]model.Activity, error) {
	const q = `SELECT id, user_id, activity, description, delta, category, created_at
        FROM activities WHERE user_id = ? ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Activity{}
	for rows.Next() {
		var (
			a   model.Activity
			cat string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Activity, &a.Description, &a.Delta, &cat, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Category = model.Category(cat)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Balance returns the derived balance of a user.
func (r *LedgerRepo) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM activities WHERE user_id=?", userID).Scan(&balance)
	return balance, err
}

// Leaderboard ranks students by derived balance, highest first.  Ties are
// broken by name so the order is stable between requests.
func (r *LedgerRepo) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	const q = `SELECT u.id, u.name, u.department, COALESCE(SUM(a.delta), 0) AS points
        FROM users u
        LEFT JOIN activities a ON a.user_id = u.id
        WHERE u.role = 'student'
        GROUP BY u.id, u.name, u.department
        ORDER BY points DESC, u.name ASC
        LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.LeaderboardEntry{}
	for rows.Next() {
		var (
			e    model.LeaderboardEntry
			dept sql.NullString
		)
		if err := rows.Scan(&e.UserID, &e.Name, &dept, &e.Points); err != nil {
			return nil, err
		}
		e.Department = stringPtr(dept)
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}
