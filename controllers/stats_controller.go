package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// StatsController renders the admin dashboard counters.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// DashboardStats is the set of counters on the admin landing page.
type DashboardStats struct {
	UserCount         int64 `json:"user_count"`
	ActiveUserCount   int64 `json:"active_user_count"`
	PostCount         int64 `json:"post_count"`
	FileCount         int64 `json:"file_count"`
	DeletedFileCount  int64 `json:"deleted_file_count"`
	CategoryCount     int64 `json:"category_count"`
	ActiveBannerCount int64 `json:"active_banner_count"`
	ActiveRateCount   int64 `json:"active_rate_count"`
	TotalViews        int64 `json:"total_views"`
	PostsToday        int64 `json:"posts_today"`
}

// Dashboard shows aggregate counters and the latest posts.
func (s *StatsController) Dashboard(ctx *gin.Context) {
	var st DashboardStats
	count := func(model interface{}, dst *int64, where ...interface{}) {
		q := s.db.Model(model)
		if len(where) > 0 {
			q = q.Where(where[0], where[1:]...)
		}
		if err := q.Count(dst).Error; err != nil {
			// Fallback to 0 instead of failing the whole page
			utils.Sugar.Warnw("dashboard count failed", "model", model, "error", err)
			*dst = 0
		}
	}
	count(&models.User{}, &st.UserCount)
	count(&models.User{}, &st.ActiveUserCount, "status = ?", models.StatusActive)
	count(&models.Post{}, &st.PostCount)
	count(&models.PostFile{}, &st.FileCount)
	count(&models.DeletedFile{}, &st.DeletedFileCount)
	count(&models.Category{}, &st.CategoryCount)
	count(&models.Banner{}, &st.ActiveBannerCount, "is_active = ?", true)
	count(&models.ExchangeRate{}, &st.ActiveRateCount, "is_active = ?", true)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count(&models.Post{}, &st.PostsToday, "created_at >= ?", startOfDay)

	if err := s.db.Model(&models.Post{}).
		Select("COALESCE(SUM(view_count),0)").
		Scan(&st.TotalViews).Error; err != nil {
		st.TotalViews = 0
	}

	var recent []models.PostSummary
	if err := postSummaries(s.db).Order("p.created_at DESC, p.id DESC").Limit(5).Scan(&recent).Error; err != nil {
		utils.Sugar.Warnw("dashboard recent posts failed", "error", err)
	}

	utils.Render(ctx, http.StatusOK, "admin.html", page(ctx, "Quản trị", gin.H{
		"Stats":       st,
		"RecentPosts": recent,
	}))
}
