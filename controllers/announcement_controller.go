package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// AnnouncementController edits the announcement shown on the home page.
type AnnouncementController struct {
	db *gorm.DB
}

func NewAnnouncementController(db *gorm.DB) *AnnouncementController {
	return &AnnouncementController{db: db}
}

// Show renders the announcement editor.
func (a *AnnouncementController) Show(ctx *gin.Context) {
	text, err := announcement(a.db)
	if err != nil {
		utils.Sugar.Errorw("load announcement failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50060, "Lỗi khi tải thông báo!")
		return
	}
	utils.Render(ctx, http.StatusOK, "admin_announcement.html", page(ctx, "Thông báo", gin.H{
		"Announcement": text,
	}))
}

// Update stores the announcement text, creating the setting when missing.
func (a *AnnouncementController) Update(ctx *gin.Context) {
	setting := models.Setting{Key: models.SettingAnnouncement, Value: ctx.PostForm("announcement")}
	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		utils.Sugar.Errorw("update announcement failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50061, "Lỗi khi cập nhật thông báo!")
		return
	}
	utils.InvalidateByPrefix(utils.CacheKeyAnnouncement)
	utils.Redirect(ctx, "/admin/announcement", nil)
}
