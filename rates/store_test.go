package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestReplaceSwapsTable(t *testing.T) {
	db := openTestDB(t)

	n, err := Replace(db, []Row{
		{CurrencyCode: "USD", CashBuy: ptr(24550)},
		{CurrencyCode: "EUR", Sell: ptr(27000)},
	}, Notice{Date: "05/03/2024"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Replace(db, []Row{{CurrencyCode: "JPY", TransferBuy: ptr(160)}}, Notice{Date: "06/03/2024", Number: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var stored []models.ExchangeRate
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "JPY", stored[0].CurrencyCode)
	assert.Equal(t, 3, stored[0].NotificationNumber)
	assert.Equal(t, "06/03/2024", stored[0].NotificationDate)
	assert.True(t, stored[0].IsActive)
	assert.Nil(t, stored[0].CashBuyRate)
	assert.Equal(t, 160.0, *stored[0].TransferBuyRate)
}

func TestReplaceDefaultsNumberAndRejectsEmpty(t *testing.T) {
	db := openTestDB(t)
	_, err := Replace(db, []Row{{CurrencyCode: "USD", Sell: ptr(1)}}, Notice{})
	require.NoError(t, err)

	var r models.ExchangeRate
	require.NoError(t, db.First(&r).Error)
	assert.Equal(t, 1, r.NotificationNumber)

	_, err = Replace(db, nil, Notice{})
	assert.ErrorIs(t, err, ErrNoRates)

	var count int64
	require.NoError(t, db.Model(&models.ExchangeRate{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	_, err := Replace(db, []Row{{CurrencyCode: "USD", Sell: ptr(1)}}, Notice{})
	require.NoError(t, err)
	require.NoError(t, Clear(db))

	var count int64
	require.NoError(t, db.Model(&models.ExchangeRate{}).Count(&count).Error)
	assert.Zero(t, count)
}
