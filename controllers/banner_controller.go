package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

// bannerDateLayout matches the browser's datetime-local input.
const bannerDateLayout = "2006-01-02T15:04"

const msgBannerRequired = "Vui lòng điền đầy đủ thông tin bắt buộc!"

// BannerController manages the home page slides.
type BannerController struct {
	db    *gorm.DB
	store *storage.Manager
}

func NewBannerController(db *gorm.DB, store *storage.Manager) *BannerController {
	return &BannerController{db: db, store: store}
}

type bannerForm struct {
	Title        string `form:"title"`
	LinkURL      string `form:"link_url"`
	Note         string `form:"note"`
	StartDate    string `form:"start_date"`
	ExpiredDate  string `form:"expired_date"`
	DisplayOrder string `form:"display_order"`
	IsActive     string `form:"is_active"`
}

func parseBannerDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(bannerDateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func (f bannerForm) order() int {
	n, _ := strconv.Atoi(strings.TrimSpace(f.DisplayOrder))
	return n
}

// List renders every banner in display order.
func (b *BannerController) List(ctx *gin.Context) {
	var banners []models.Banner
	if err := b.db.Order("display_order ASC, created_at DESC").Find(&banners).Error; err != nil {
		utils.Sugar.Errorw("list banners failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50070, "Lỗi khi tải banner!")
		return
	}
	utils.Render(ctx, http.StatusOK, "admin_banners.html", page(ctx, "Quản lý banner", gin.H{
		"Banners":    banners,
		"DateLayout": bannerDateLayout,
		"Now":        time.Now(),
	}))
}

// saveImage stores an optional banner_image upload; only images are accepted.
func (b *BannerController) saveImage(ctx *gin.Context) (*storage.SavedFile, error) {
	fh, err := ctx.FormFile("banner_image")
	if err != nil {
		return nil, nil
	}
	saved, err := b.store.Save(fh)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(storage.ContentTypeFor(saved.Name), "image/") {
		b.store.Discard([]storage.SavedFile{saved})
		return nil, &storage.UnsupportedFileError{Name: saved.Name, MIME: fh.Header.Get("Content-Type")}
	}
	return &saved, nil
}

// Add creates a banner; title and image are required.
func (b *BannerController) Add(ctx *gin.Context) {
	var form bannerForm
	_ = ctx.ShouldBind(&form)
	form.Title = strings.TrimSpace(form.Title)
	image, err := b.saveImage(ctx)
	if err != nil {
		respondUploadError(ctx, b.store, err)
		return
	}
	if form.Title == "" || image == nil {
		if image != nil {
			b.store.Discard([]storage.SavedFile{*image})
		}
		utils.Error(ctx, http.StatusBadRequest, 40070, msgBannerRequired)
		return
	}
	banner := models.Banner{
		Title:        form.Title,
		ImagePath:    image.Path,
		LinkURL:      strings.TrimSpace(form.LinkURL),
		Note:         form.Note,
		StartDate:    parseBannerDate(form.StartDate),
		ExpiredDate:  parseBannerDate(form.ExpiredDate),
		IsActive:     true,
		DisplayOrder: form.order(),
	}
	if err := b.db.Create(&banner).Error; err != nil {
		b.store.Discard([]storage.SavedFile{*image})
		utils.Sugar.Errorw("create banner failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50071, "Lỗi khi thêm banner!")
		return
	}
	utils.InvalidateByPrefix(utils.CacheKeyActiveBanners)
	utils.Redirect(ctx, "/admin/banners", gin.H{"banner_id": banner.ID})
}

// Edit updates a banner. The stored image is kept unless a new one is uploaded.
func (b *BannerController) Edit(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40470, "Banner không tồn tại!")
		return
	}
	var form bannerForm
	_ = ctx.ShouldBind(&form)
	form.Title = strings.TrimSpace(form.Title)
	if form.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, msgBannerRequired)
		return
	}
	prev, ok := b.load(ctx, id)
	if !ok {
		return
	}
	image, err := b.saveImage(ctx)
	if err != nil {
		respondUploadError(ctx, b.store, err)
		return
	}

	updates := map[string]interface{}{
		"title":         form.Title,
		"link_url":      strings.TrimSpace(form.LinkURL),
		"note":          form.Note,
		"start_date":    parseBannerDate(form.StartDate),
		"expired_date":  parseBannerDate(form.ExpiredDate),
		"display_order": form.order(),
		"is_active":     form.IsActive != "" && form.IsActive != "0" && form.IsActive != "false",
	}
	if image != nil {
		updates["image_path"] = image.Path
	}
	res := b.db.Model(&models.Banner{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil || res.RowsAffected == 0 {
		if image != nil {
			b.store.Discard([]storage.SavedFile{*image})
		}
		if res.Error == nil {
			utils.Error(ctx, http.StatusNotFound, 40470, "Banner không tồn tại!")
			return
		}
		utils.Sugar.Errorw("update banner failed", "banner_id", id, "error", res.Error)
		utils.Error(ctx, http.StatusInternalServerError, 50072, "Lỗi khi cập nhật banner!")
		return
	}
	if image != nil && prev.ImagePath != image.Path {
		b.removeImage(prev)
	}
	utils.InvalidateByPrefix(utils.CacheKeyActiveBanners)
	utils.Redirect(ctx, "/admin/banners", gin.H{"banner_id": id})
}

// Delete drops the banner row and its image file.
func (b *BannerController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40470, "Banner không tồn tại!")
		return
	}
	banner, ok := b.load(ctx, id)
	if !ok {
		return
	}
	if err := b.db.Delete(&models.Banner{}, id).Error; err != nil {
		utils.Sugar.Errorw("delete banner failed", "banner_id", id, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50073, "Lỗi khi xóa banner!")
		return
	}
	b.removeImage(banner)
	utils.InvalidateByPrefix(utils.CacheKeyActiveBanners)
	utils.Redirect(ctx, "/admin/banners", nil)
}

// load fetches the banner's image path and answers 404 or 500 on failure.
func (b *BannerController) load(ctx *gin.Context, id uint) (models.Banner, bool) {
	var banner models.Banner
	err := b.db.Select("id", "image_path").First(&banner, id).Error
	switch {
	case err == nil:
		return banner, true
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40470, "Banner không tồn tại!")
	default:
		utils.Sugar.Errorw("banner lookup failed", "banner_id", id, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50074, "Lỗi khi tải banner!")
	}
	return banner, false
}

func (b *BannerController) removeImage(banner models.Banner) {
	if banner.ImagePath == "" {
		return
	}
	if err := b.store.Remove(banner.ImagePath); err != nil {
		utils.Sugar.Warnw("remove banner image failed", "banner_id", banner.ID, "path", banner.ImagePath, "error", err)
	}
}

// Image serves a banner picture to signed-in users.
func (b *BannerController) Image(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40471, msgFileNotFound)
		return
	}
	var banner models.Banner
	if err := b.db.Select("id", "image_path").First(&banner, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorw("banner lookup failed", "banner_id", id, "error", err)
		}
		utils.Error(ctx, http.StatusNotFound, 40471, msgFileNotFound)
		return
	}
	path, err := b.store.Resolve(banner.ImagePath)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40471, msgFileNotFound)
		return
	}
	ctx.Header("Content-Type", storage.ContentTypeFor(path))
	ctx.Header("Cache-Control", "private, max-age=3600")
	ctx.File(path)
}
