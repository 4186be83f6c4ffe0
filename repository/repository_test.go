package repository

import (
	"testing"

	"github.com/appditto/capture-server/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDb, err := database.NewConnection(&database.Config{
		Driver: database.DriverSqlite,
		DBName: ":memory:",
	})
	require.Nil(t, err)
	require.Nil(t, database.DropAndCreateTables(mockDb))
	t.Cleanup(func() {
		if sqlDB, err := mockDb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return mockDb
}
