package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
)

// NotificationRepo stores the global notification list, the explicit
// recipients of each notification and per-user read receipts.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to db.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = "id, title, body, sender, sender_id, type, target_department, target_year, created_at"

// Create inserts a notification together with its recipient list.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var senderID sql.NullString
	if n.SenderID != "" {
		senderID = sql.NullString{String: n.SenderID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO notifications ("+notificationColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		n.ID, n.Title, n.Body, n.Sender, senderID, string(n.Type),
		nullString(n.TargetDepartment), nullString(n.TargetYear), n.CreatedAt); err != nil {
		return err
	}
	if len(n.TargetUsers) > 0 {
		q := "INSERT INTO notification_targets (notification_id, user_id) VALUES " +
			strings.TrimSuffix(strings.Repeat("(?, ?),", len(n.TargetUsers)), ",")
		args := make([]any, 0, len(n.TargetUsers)*2)
		for _, uid := range n.TargetUsers {
			args = append(args, n.ID, uid)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns every notification, newest first, with recipients filled in.
func (r *NotificationRepo) List(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	var (
		out   []model.Notification
		index = map[string]int{}
	)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[n.ID] = len(out)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 {
		return []model.Notification{}, nil
	}

	trows, err := r.db.QueryContext(ctx,
		"SELECT notification_id, user_id FROM notification_targets ORDER BY notification_id, user_id")
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var nid, uid string
		if err := trows.Scan(&nid, &uid); err != nil {
			return nil, err
		}
		if i, ok := index[nid]; ok {
			out[i].TargetUsers = append(out[i].TargetUsers, uid)
		}
	}
	return out, trows.Err()
}

// GetByID returns one notification with its recipients.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (model.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, ErrNotFound
	}
	if err != nil {
		return model.Notification{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM notification_targets WHERE notification_id=? ORDER BY user_id", id)
	if err != nil {
		return model.Notification{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return model.Notification{}, err
		}
		n.TargetUsers = append(n.TargetUsers, uid)
	}
	return n, rows.Err()
}

// MarkRead records read receipts for userID.  Receipts that already exist
// keep their original timestamp.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := "INSERT IGNORE INTO notification_reads (notification_id, user_id, read_at) VALUES " +
		strings.TrimSuffix(strings.Repeat("(?, ?, ?),", len(ids)), ",")
	args := make([]any, 0, len(ids)*3)
	for _, id := range ids {
		args = append(args, id, userID, at)
	}
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// Receipts returns the read receipts of one user keyed by notification id.
func (r *NotificationRepo) Receipts(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT notification_id, read_at FROM notification_reads WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]time.Time{}
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		out[id] = at
	}
	return out, rows.Err()
}

func scanNotification(s rowScanner) (model.Notification, error) {
	var (
		n          model.Notification
		typ        string
		senderID   sql.NullString
		dept, year sql.NullString
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &n.Sender, &senderID, &typ, &dept, &year, &n.CreatedAt); err != nil {
		return model.Notification{}, err
	}
	n.SenderID = senderID.String
	n.Type = model.NotificationType(typ)
	n.TargetDepartment = stringPtr(dept)
	n.TargetYear = stringPtr(year)
	return n, nil
}
