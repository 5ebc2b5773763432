package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
)

// UserRepo persists the roster in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,role,department,study_year,profile_image,created_at"

// Create inserts u.  The caller supplies the id and the password hash.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		nullString(u.Department), nullString(u.Year), nullString(u.ProfileImage), u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns every user with the balance derived from their activities,
// oldest signup first.
func (r *UserRepo) List(ctx context.Context) ([]model.RosterEntry, error) {
	const q = `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.department, u.study_year,
        u.profile_image, u.created_at, COALESCE(SUM(a.delta), 0)
        FROM users u
        LEFT JOIN activities a ON a.user_id = u.id
        GROUP BY u.id, u.name, u.email, u.password_hash, u.role, u.department, u.study_year, u.profile_image, u.created_at
        ORDER BY u.created_at ASC, u.id ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RosterEntry{}
	for rows.Next() {
		var (
			e                   model.RosterEntry
			role                string
			dept, year, picture sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &role, &dept, &year,
			&picture, &e.CreatedAt, &e.Points); err != nil {
			return nil, err
		}
		e.Role = model.Role(role)
		e.Department = stringPtr(dept)
		e.Year = stringPtr(year)
		e.ProfileImage = stringPtr(picture)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a user.  Activities, bookings, refresh tokens, read
// receipts and recipient entries go with the row through ON DELETE
// CASCADE.  Notifications addressed to this user alone are deleted first so
// that losing their only recipient cannot turn them into broadcasts.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	const orphaned = `DELETE n FROM notifications n
        JOIN notification_targets t ON t.notification_id = n.id
        WHERE t.user_id = ?
          AND NOT EXISTS (SELECT 1 FROM notification_targets o WHERE o.notification_id = n.id AND o.user_id <> ?)`
	if _, err := tx.ExecContext(ctx, orphaned, id, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateProfileImage replaces the profile image reference of a user.
func (r *UserRepo) UpdateProfileImage(ctx context.Context, id, image string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET profile_image=? WHERE id=?", image, id)
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when the value is unchanged, so a
	// zero count needs an existence check before it means "missing".
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var found string
		err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u                   model.User
		role                string
		dept, year, picture sql.NullString
		created             time.Time
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &dept, &year, &picture, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.Department = stringPtr(dept)
	u.Year = stringPtr(year)
	u.ProfileImage = stringPtr(picture)
	u.CreatedAt = created
	return u, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
