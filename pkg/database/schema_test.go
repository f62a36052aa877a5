package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMigrateKeepsUniqueViewConstraint(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	mock.ExpectBegin()
	for range schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())

	views := schema[len(schema)-1]
	assert.Contains(t, views, "announcement_views")
	assert.Contains(t, views, "CONSTRAINT unique_view UNIQUE (announcement_id, student_id)")
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS landlords`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSkipsPopulatedDatabase(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	seeded, err := Seed(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedPopulatesEmptyDatabase(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO students`).WillReturnResult(sqlmock.NewResult(3, 3))
	mock.ExpectExec(`INSERT INTO announcements`).WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectCommit()

	seeded, err := Seed(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
