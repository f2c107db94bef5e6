package controllers

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

const postSummaryColumns = `p.id, p.title, p.content, p.user_id, p.category_id, p.view_count, p.type, p.created_at, p.updated_at,
COALESCE(u.full_name, '') AS author_name,
COALESCE(c.name, '') AS category_name,
COALESCE(c.icon, '') AS category_icon,
COALESCE(c.color, '') AS category_color,
(SELECT COUNT(*) FROM post_files pf2 WHERE pf2.post_id = p.id) AS file_count`

// postSummaries starts a fresh posts query joined with author and category.
func postSummaries(db *gorm.DB) *gorm.DB {
	return db.Table("posts AS p").
		Select(postSummaryColumns).
		Joins("LEFT JOIN users u ON u.id = p.user_id").
		Joins("LEFT JOIN categories c ON c.id = p.category_id")
}

// categoriesWithCounts lists every category with its post count, zero-filled.
func categoriesWithCounts(db *gorm.DB) ([]models.CategoryWithCount, error) {
	var out []models.CategoryWithCount
	if utils.CacheGetJSON(utils.CacheKeyCategories, &out) {
		return out, nil
	}
	err := db.Table("categories AS c").
		Select("c.id, c.name, c.icon, c.color, COALESCE(pc.post_count, 0) AS post_count").
		Joins("LEFT JOIN (SELECT category_id, COUNT(*) AS post_count FROM posts GROUP BY category_id) pc ON pc.category_id = c.id").
		Order("c.name").
		Scan(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	utils.CacheSetJSON(utils.CacheKeyCategories, out, 0)
	return out, nil
}

// activeBanners returns banners that are enabled and inside their date window.
func activeBanners(db *gorm.DB, now time.Time) ([]models.Banner, error) {
	var out []models.Banner
	if utils.CacheGetJSON(utils.CacheKeyActiveBanners, &out) {
		return out, nil
	}
	err := db.Where("is_active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("expired_date IS NULL OR expired_date >= ?", now).
		Order("display_order ASC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "list active banners")
	}
	utils.CacheSetJSON(utils.CacheKeyActiveBanners, out, time.Minute)
	return out, nil
}

// activeRates returns the exchange rates currently shown on the home page.
func activeRates(db *gorm.DB) ([]models.ExchangeRate, error) {
	var out []models.ExchangeRate
	if utils.CacheGetJSON(utils.CacheKeyActiveRates, &out) {
		return out, nil
	}
	if err := db.Where("is_active = ?", true).Order("id ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list active exchange rates")
	}
	utils.CacheSetJSON(utils.CacheKeyActiveRates, out, 0)
	return out, nil
}

// announcement returns the announcement text, empty when unset.
func announcement(db *gorm.DB) (string, error) {
	var text string
	if utils.CacheGetJSON(utils.CacheKeyAnnouncement, &text) {
		return text, nil
	}
	var s models.Setting
	err := db.Where(&models.Setting{Key: models.SettingAnnouncement}).First(&s).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.Wrap(err, "load announcement")
	}
	utils.CacheSetJSON(utils.CacheKeyAnnouncement, s.Value, 0)
	return s.Value, nil
}

func loadCategory(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "look up category")
	}
	return count > 0, nil
}
