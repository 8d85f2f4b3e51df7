package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nadlan/internal/cache"
	"nadlan/internal/models"
	"nadlan/internal/testutil"
)

func newTestCache(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute), mr
}

func TestListSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSettingService(db, nil)

	settings, err := svc.ListSettings()
	testutil.AssertNoError(t, err)
	require.Len(t, settings, len(testutil.DefaultSettings))
	for i := 1; i < len(settings); i++ {
		assert.Less(t, settings[i-1].Key, settings[i].Key)
	}
}

func TestUpdateSetting(t *testing.T) {
	t.Run("overwrites_value_keeps_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSettingService(db, nil)

		setting, err := svc.UpdateSetting(models.SettingVATRate, "17", nil)
		testutil.AssertNoError(t, err)
		assert.Equal(t, "17", setting.Value)
		assert.Equal(t, "VAT rate in percent", setting.Description)
	})

	t.Run("inserts_new_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSettingService(db, nil)

		desc := "Shown on the login page"
		setting, err := svc.UpdateSetting("welcomeText", "Shalom", &desc)
		testutil.AssertNoError(t, err)
		assert.Equal(t, desc, setting.Description)

		got, err := svc.GetSetting("welcomeText")
		testutil.AssertNoError(t, err)
		assert.Equal(t, "Shalom", got.Value)
	})

	t.Run("numeric_key_rejects_text", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSettingService(db, nil)

		_, err := svc.UpdateSetting(models.SettingExchangeRate, "high", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalidates_cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store, mr := newTestCache(t)
		svc := NewSettingService(db, store)

		before, err := svc.GetSetting(models.SettingExchangeRate)
		testutil.AssertNoError(t, err)
		assert.Equal(t, "3.95", before.Value)
		_, err = svc.ListSettings()
		testutil.AssertNoError(t, err)
		assert.True(t, mr.Exists(cache.SettingKey(models.SettingExchangeRate)))
		assert.True(t, mr.Exists(cache.KeySettingsAll))

		_, err = svc.UpdateSetting(models.SettingExchangeRate, "4.02", nil)
		testutil.AssertNoError(t, err)
		assert.False(t, mr.Exists(cache.SettingKey(models.SettingExchangeRate)))
		assert.False(t, mr.Exists(cache.KeySettingsAll))

		after, err := svc.GetSetting(models.SettingExchangeRate)
		testutil.AssertNoError(t, err)
		assert.Equal(t, "4.02", after.Value)
	})
}

func TestGetSetting_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSettingService(db, nil)

	_, err := svc.GetSetting("nope")
	testutil.AssertAppError(t, err, "SETTING_NOT_FOUND")
}
