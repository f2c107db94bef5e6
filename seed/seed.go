// Package seed creates the rows a fresh portal needs: the bootstrap
// administrator, the announcement setting and the default categories.
package seed

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// DefaultCategories are inserted only when the categories table is empty.
var DefaultCategories = []models.Category{
	{Name: "Thông báo lãi suất", Icon: "💰"},
	{Name: "Thông báo nội bộ", Icon: "📢"},
	{Name: "Thông báo tỷ giá", Icon: "💱"},
	{Name: "Thông báo các khoản vay", Icon: "🏦"},
	{Name: "Tổ chức nhân sự", Icon: "👥"},
	{Name: "Lịch công tác của BGĐ", Icon: "📅"},
	{Name: "Quyết định", Icon: "⚖️"},
	{Name: "Biểu phí", Icon: "💳"},
	{Name: "Cơ chế động lực", Icon: "🎯"},
	{Name: "Hoạt động chi nhánh", Icon: "🏢"},
	{Name: "Vinh danh", Icon: "🏆"},
}

// Bootstrap is idempotent and safe to run on every start.
func Bootstrap(db *gorm.DB, admin config.BootstrapConfig) error {
	if err := EnsureAdmin(db, admin); err != nil {
		return err
	}
	if err := EnsureSetting(db, models.SettingAnnouncement, ""); err != nil {
		return err
	}
	if _, err := DedupeCategories(db); err != nil {
		return err
	}
	n, err := SeedCategories(db)
	if err != nil {
		return err
	}
	if n > 0 && utils.Sugar != nil {
		utils.Sugar.Infof("seeded %d default categories", n)
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the username is taken.
func EnsureAdmin(db *gorm.DB, admin config.BootstrapConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return errors.Wrap(err, "look up admin user")
	}
	if count > 0 {
		return nil
	}
	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	user := models.User{
		Username:     admin.Username,
		PasswordHash: hash,
		FullName:     admin.FullName,
		Avatar:       admin.Avatar,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		CanPost:      true,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return errors.Wrap(err, "create admin user")
	}
	return nil
}

// EnsureSetting inserts key with value only when the key is missing.
func EnsureSetting(db *gorm.DB, key, value string) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Setting{Key: key, Value: value}).Error
	return errors.Wrapf(err, "ensure setting %s", key)
}

// DedupeCategories keeps the lowest id per category name.
func DedupeCategories(db *gorm.DB) (int64, error) {
	res := db.Exec("DELETE FROM categories WHERE id NOT IN (SELECT id FROM (SELECT MIN(id) AS id FROM categories GROUP BY name) AS keep_ids)")
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "dedupe categories")
	}
	return res.RowsAffected, nil
}

// SeedCategories inserts DefaultCategories into an empty table and returns how many rows it wrote.
func SeedCategories(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count categories")
	}
	if count > 0 {
		return 0, nil
	}
	rows := make([]models.Category, len(DefaultCategories))
	for i, c := range DefaultCategories {
		rows[i] = models.Category{Name: c.Name, Icon: c.Icon, Color: models.DefaultCategoryColor}
	}
	if err := db.Create(&rows).Error; err != nil {
		return 0, errors.Wrap(err, "insert default categories")
	}
	return len(rows), nil
}
