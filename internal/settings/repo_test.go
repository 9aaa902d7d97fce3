package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS store_settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT 'admin',
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	db := setupSettingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	key := "orders_enabled_upsert"

	require.NoError(t, repo.Upsert(ctx, &models.StoreSetting{
		Key:    key,
		Value:  "true",
		Source: enums.SettingSourceSchedule,
	}))

	require.NoError(t, repo.Upsert(ctx, &models.StoreSetting{
		Key:    key,
		Value:  "false",
		Source: enums.SettingSourceAdmin,
	}))

	setting, err := repo.Find(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "false", setting.Value)
	assert.Equal(t, enums.SettingSourceAdmin, setting.Source)

	var count int64
	require.NoError(t, db.Model(&models.StoreSetting{}).Where("key = ?", key).Count(&count).Error)
	assert.Equal(t, int64(1), count, "upsert must keep one row per key")
}

func TestFindMissingKey(t *testing.T) {
	db := setupSettingsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Find(context.Background(), "never_written")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
