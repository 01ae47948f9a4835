package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
	require.NoError(t, Ping(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gatepass.sqlite")

	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestAutoMigrateEnforcesUniqueness(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	registrant := models.Registrant{ExternalID: "PRN001", Name: "Asha"}
	require.NoError(t, db.Create(&registrant).Error)

	err := db.Create(&models.Registrant{ExternalID: "PRN001", Name: "Other"}).Error
	require.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)

	first := models.ValidationRecord{RegistrantID: registrant.ID, ValidatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&first).Error)

	err = db.Create(&models.ValidationRecord{RegistrantID: registrant.ID, ValidatedAt: time.Now().UTC()}).Error
	require.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}

func TestIsUniqueViolationVendorErrors(t *testing.T) {
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503", Message: "foreign key"}))
	require.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452, Message: "cannot add row"}))
}
