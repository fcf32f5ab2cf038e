package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	return &Database{DB: db}, mock, sqlDB
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("reachable database", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectPing()

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unreachable database", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		assert.Error(t, db.Ping(context.Background()))
	})
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "sequence_counters"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Exec(`UPDATE "sequence_counters" SET value = value + 1`).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_WithTenant(t *testing.T) {
	t.Run("scopes queries to the office", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		office := uuid.New()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "dossiers" WHERE tenant_id = \$1`).
			WithArgs(office).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		var n int64
		require.NoError(t, db.WithTenant(office).Table("dossiers").Count(&n).Error)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("panics on nil office", func(t *testing.T) {
		db, _, _ := newMockDatabase(t)
		assert.Panics(t, func() { db.WithTenant(uuid.Nil) })
	})
}

func TestDatabase_StatsAndClose(t *testing.T) {
	db, mock, sqlDB := newMockDatabase(t)
	sqlDB.SetMaxOpenConns(7)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 7, stats.MaxOpenConnections)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	assert.Equal(t, time.Duration(0), stats.WaitDuration)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllModels(t *testing.T) {
	db := newTestDB(t)
	for _, m := range AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}
