package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func (widget) TableName() string { return "widgets" }

type widgetV2 struct {
	ID    uint `gorm:"primaryKey"`
	Name  string
	Color string `gorm:"size:16;index"`
}

func (widgetV2) TableName() string { return "widgets" }

func TestMigrateAddsColumnsAndIndexes(t *testing.T) {
	db, err := OpenDatabase(DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "silent")
	require.NoError(t, err)

	require.NoError(t, Migrate(db, &widget{}))
	require.NoError(t, db.Create(&widget{Name: "a"}).Error)

	require.NoError(t, Migrate(db, &widgetV2{}))
	m := db.Migrator()
	assert.True(t, m.HasColumn(&widgetV2{}, "color"))
	assert.True(t, m.HasIndex(&widgetV2{}, "idx_widgets_color"))

	var rows []widgetV2
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Name)
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	d, err := dialectorFor(DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "h", Port: "3306", Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
	assert.Equal(t, logger.Warn, toGormLogLevel("verbose"))
}
