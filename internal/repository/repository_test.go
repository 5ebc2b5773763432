package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-portal/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var lockUser = q("SELECT id FROM users WHERE id=? FOR UPDATE")

func TestLedgerApply(t *testing.T) {
	ctx := context.Background()
	a := model.Activity{ID: "a1", UserID: "u1", Activity: "Redeemed mug", Delta: -50, Category: model.CategoryStore, CreatedAt: time.Now().UTC()}

	t.Run("within balance", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectQuery(q("SELECT COALESCE(SUM(delta), 0) FROM activities")).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(80))
		mock.ExpectExec(q("INSERT INTO activities")).
			WithArgs("a1", "u1", "Redeemed mug", "", int64(-50), "store", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		balance, err := NewLedgerRepo(db).Apply(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, int64(30), balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("below floor", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectQuery(q("SELECT COALESCE(SUM(delta), 0) FROM activities")).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(30))
		mock.ExpectRollback()

		balance, err := NewLedgerRepo(db).Apply(ctx, a)
		assert.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Equal(t, int64(30), balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := NewLedgerRepo(db).Apply(ctx, a)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerLeaderboardRanks(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(q("WHERE u.role = 'student'")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "department", "points"}).
			AddRow("u2", "Bea", "CS", 120).
			AddRow("u1", "Ali", nil, 40))

	rows, err := NewLedgerRepo(db).Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "CS", *rows[0].Department)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Nil(t, rows[1].Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateAfterCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	b := model.FacilityBooking{
		ID: "b2", UserID: "u1", ResourceID: "room-7", ResourceName: "Room 7",
		ResourceType: model.ResourceStudyRoom, Date: "2026-04-01", TimeSlot: "09:00-10:00",
		BookedAt: now, CooldownUntil: now.Add(time.Hour),
	}
	latest := q("SELECT cooldown_until FROM facility_bookings")

	t.Run("cooldown active", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectQuery(latest).WithArgs("u1", "room-7").
			WillReturnRows(sqlmock.NewRows([]string{"cooldown_until"}).AddRow(now.Add(time.Minute)))
		mock.ExpectRollback()

		err := NewBookingRepo(db).CreateAfterCooldown(ctx, b, now)
		require.ErrorIs(t, err, ErrCooldownActive)
		var ce *CooldownError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, time.Minute, ce.Remaining)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first booking", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectQuery(latest).WithArgs("u1", "room-7").WillReturnRows(sqlmock.NewRows([]string{"cooldown_until"}))
		mock.ExpectExec(q("INSERT INTO facility_bookings")).
			WithArgs("b2", "u1", "room-7", "Room 7", "study_room", "2026-04-01", "09:00-10:00", now, now.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewBookingRepo(db).CreateAfterCooldown(ctx, b, now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired cooldown", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectQuery(latest).WithArgs("u1", "room-7").
			WillReturnRows(sqlmock.NewRows([]string{"cooldown_until"}).AddRow(now))
		mock.ExpectExec(q("INSERT INTO facility_bookings")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewBookingRepo(db).CreateAfterCooldown(ctx, b, now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingLatestNone(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(q("FROM facility_bookings WHERE user_id=? AND resource_id=?")).WithArgs("u1", "lab-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	b, err := NewBookingRepo(db).Latest(context.Background(), "u1", "lab-1")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewUserRepo(db).Create(context.Background(), model.User{ID: "u1", Email: "a@campus.edu", Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(q("FROM users WHERE id=?")).WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	t.Run("drops orphaned notifications then the user", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectExec(q("DELETE n FROM notifications n")).WithArgs("u1", "u1").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(q("DELETE FROM users WHERE id=?")).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewUserRepo(db).Delete(context.Background(), "u1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockUser).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewUserRepo(db).Delete(context.Background(), "u1"), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserUpdateProfileImageUnchangedValue(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(q("UPDATE users SET profile_image=?")).WithArgs("pic.png", "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT id FROM users WHERE id=?")).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))

	require.NoError(t, NewUserRepo(db).UpdateProfileImage(context.Background(), "u1", "pic.png"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreateWithTargets(t *testing.T) {
	db, mock := setupMockDB(t)
	n := model.Notification{ID: "n1", Title: "Hi", Type: model.NotificationMessage, SenderID: "u1", TargetUsers: []string{"u5", "u6"}}

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO notifications")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO notification_targets (notification_id, user_id) VALUES (?, ?),(?, ?)")).
		WithArgs("n1", "u5", "n1", "u6").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewNotificationRepo(db).Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationListAttachesTargets(t *testing.T) {
	db, mock := setupMockDB(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cols := []string{"id", "title", "body", "sender", "sender_id", "type", "target_department", "target_year", "created_at"}

	mock.ExpectQuery(q("FROM notifications ORDER BY created_at DESC")).WillReturnRows(sqlmock.NewRows(cols).
		AddRow("n2", "Direct", "", "Bea", "u2", "message", nil, nil, at).
		AddRow("n1", "CS only", "", "Admin", nil, "info", "CS", nil, at))
	mock.ExpectQuery(q("FROM notification_targets ORDER BY")).WillReturnRows(sqlmock.NewRows([]string{"notification_id", "user_id"}).
		AddRow("n2", "u5").AddRow("n2", "u6"))

	list, err := NewNotificationRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"u5", "u6"}, list[0].TargetUsers)
	assert.Empty(t, list[1].TargetUsers)
	assert.Equal(t, "CS", *list[1].TargetDepartment)
	assert.Empty(t, list[1].SenderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	require.NoError(t, NewNotificationRepo(db).MarkRead(context.Background(), "u1", nil, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenValidateRefresh(t *testing.T) {
	sel := q("SELECT user_id, expires_at, revoked_at FROM refresh_tokens")
	cols := []string{"user_id", "expires_at", "revoked_at"}

	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{"valid", sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), nil), nil},
		{"expired", sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(-time.Hour), nil), ErrNotFound},
		{"revoked", sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), time.Now()), ErrNotFound},
		{"unknown", sqlmock.NewRows(cols), ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			mock.ExpectQuery(sel).WithArgs("hash").WillReturnRows(c.rows)
			uid, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "hash")
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", uid)
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicateKey(errors.New("1062")))
}
