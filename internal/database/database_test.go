package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tables = []string{
	"users",
	"refresh_tokens",
	"activities",
	"facility_bookings",
	"notifications",
	"notification_targets",
	"notification_reads",
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, len(tables))
	for i, name := range tables {
		assert.True(t, strings.HasPrefix(stmts[i], "CREATE TABLE IF NOT EXISTS "+name+" "), stmts[i])
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, name := range tables {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + name + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users ").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS refresh_tokens ").WillReturnError(errors.New("boom"))

	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DSN("campus", "pw", "db.local", "3306", "portal")
	assert.True(t, strings.HasPrefix(dsn, "campus:pw@tcp(db.local:3306)/portal?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
