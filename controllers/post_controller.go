package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/middleware"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

const (
	msgTitleRequired    = "Tiêu đề không được để trống!"
	msgCategoryRequired = "Vui lòng chọn danh mục!"
	msgCategoryMissing  = "Danh mục không tồn tại!"
	msgPostNotFound     = "Bài đăng không tồn tại!"
	msgNoEditPermission = "Bạn không có quyền chỉnh sửa bài đăng này!"
	msgNoDelPermission  = "Bạn không có quyền xóa bài đăng này!"
	msgEditConflict     = "Bài đăng đã được người khác chỉnh sửa. Vui lòng tải lại trang."
)

// PostController manages documents and their attachments.
type PostController struct {
	db    *gorm.DB
	store *storage.Manager
	cfg   config.AppSection
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, store *storage.Manager, cfg config.AppSection) *PostController {
	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = 5
	}
	if cfg.TitleSnippet <= 0 {
		cfg.TitleSnippet = 100
	}
	if cfg.ContentSnippet <= 0 {
		cfg.ContentSnippet = 300
	}
	return &PostController{db: db, store: store, cfg: cfg}
}

type postForm struct {
	Title      string `form:"title" binding:"required"`
	Content    string `form:"content"`
	CategoryID uint   `form:"category_id" binding:"required"`
	UpdatedAt  string `form:"updated_at"`
}

// bindPost validates the shared post fields and answers the request on failure.
func (p *PostController) bindPost(ctx *gin.Context) (postForm, bool) {
	var form postForm
	field, ok := bindForm(ctx, &form)
	form.Title = strings.TrimSpace(form.Title)
	if form.Title == "" || field == "Title" {
		utils.Error(ctx, http.StatusBadRequest, 40020, msgTitleRequired)
		return form, false
	}
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, msgCategoryRequired)
		return form, false
	}
	exists, err := loadCategory(p.db, form.CategoryID)
	if err != nil {
		utils.Sugar.Errorw("category lookup failed", "category_id", form.CategoryID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50027, "Lỗi hệ thống, vui lòng thử lại sau!")
		return form, false
	}
	if !exists {
		utils.Error(ctx, http.StatusBadRequest, 40022, msgCategoryMissing)
		return form, false
	}
	return form, true
}

func uploadedFiles(ctx *gin.Context, field string) []*multipart.FileHeader {
	form, err := ctx.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

// UploadPage renders the new-document form.
func (p *PostController) UploadPage(ctx *gin.Context) {
	categories, err := categoriesWithCounts(p.db)
	if err != nil {
		utils.Sugar.Errorw("load categories failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50028, "Lỗi khi tải danh mục!")
		return
	}
	utils.Render(ctx, http.StatusOK, "upload.html", page(ctx, "Đăng tài liệu", gin.H{
		"Categories": categories,
		"MaxFiles":   p.store.MaxFiles(),
		"MaxSizeMB":  p.store.MaxSize() / (1024 * 1024),
	}))
}

// CreatePost stores a new post with its attachments. Files and rows are
// committed together; a failed insert removes the written files.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}
	form, ok := p.bindPost(ctx)
	if !ok {
		return
	}
	saved, err := p.store.SaveAll(uploadedFiles(ctx, "files"))
	if err != nil {
		respondUploadError(ctx, p.store, err)
		return
	}

	post := models.Post{
		Title:      form.Title,
		Content:    form.Content,
		UserID:     &userID,
		CategoryID: form.CategoryID,
	}
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return errors.Wrap(err, "insert post")
		}
		return insertFiles(tx, post.ID, saved, 0)
	})
	if err != nil {
		p.store.Discard(saved)
		utils.Sugar.Errorw("create post failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50029, "Lỗi khi đăng tài liệu!")
		return
	}
	middleware.UploadedFiles.Add(float64(len(saved)))
	utils.InvalidateByPrefix(utils.CacheKeyCategories)
	utils.Sugar.Infow("post created", "post_id", post.ID, "user_id", userID, "files", len(saved))
	utils.Redirect(ctx, "/", gin.H{"post_id": post.ID})
}

func insertFiles(tx *gorm.DB, postID uint, saved []storage.SavedFile, firstOrder int) error {
	if len(saved) == 0 {
		return nil
	}
	rows := make([]models.PostFile, len(saved))
	for i, f := range saved {
		rows[i] = models.PostFile{
			PostID:    postID,
			FilePath:  f.Path,
			FileName:  f.Name,
			FileSize:  f.Size,
			FileOrder: firstOrder + i,
		}
	}
	return errors.Wrap(tx.Create(&rows).Error, "insert post files")
}

// loadEditable fetches a post and checks that the session may change it.
func (p *PostController) loadEditable(ctx *gin.Context) (*models.Post, error) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return nil, ErrNotFound
	}
	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load post")
	}
	userID, _ := getUserID(ctx)
	if !post.OwnedBy(userID) && !isAdmin(ctx) {
		return nil, ErrForbidden
	}
	return &post, nil
}

func (p *PostController) respondLoadError(ctx *gin.Context, err error, forbidden string) {
	switch statusFor(err) {
	case http.StatusNotFound:
		utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
	case http.StatusForbidden:
		utils.Error(ctx, http.StatusForbidden, 40320, forbidden)
	default:
		utils.Sugar.Errorw("load post failed", "id", ctx.Param("id"), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "Lỗi khi tải bài đăng!")
	}
}

// EditPage renders the edit form with the current attachments.
func (p *PostController) EditPage(ctx *gin.Context) {
	post, err := p.loadEditable(ctx)
	if err != nil {
		p.respondLoadError(ctx, err, msgNoEditPermission)
		return
	}
	var files []models.PostFile
	if err := p.db.Where("post_id = ?", post.ID).Order("file_order ASC, id ASC").Find(&files).Error; err != nil {
		p.respondLoadError(ctx, errors.Wrap(err, "load files"), msgNoEditPermission)
		return
	}
	categories, err := categoriesWithCounts(p.db)
	if err != nil {
		p.respondLoadError(ctx, err, msgNoEditPermission)
		return
	}
	utils.Render(ctx, http.StatusOK, "edit.html", page(ctx, "Chỉnh sửa: "+post.Title, gin.H{
		"Post":       post,
		"Files":      files,
		"Categories": categories,
		"UpdatedAt":  post.UpdatedAt.Format(time.RFC3339Nano),
		"MaxFiles":   p.store.MaxFiles(),
		"MaxSizeMB":  p.store.MaxSize() / (1024 * 1024),
	}))
}

// UpdatePost applies an edit: the prior title and content go to history,
// selected attachments move to the recovery directory, new ones are appended.
// When the form carries updated_at, a post changed since then is rejected.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, err := p.loadEditable(ctx)
	if err != nil {
		p.respondLoadError(ctx, err, msgNoEditPermission)
		return
	}
	form, ok := p.bindPost(ctx)
	if !ok {
		return
	}
	var expected *time.Time
	if form.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, form.UpdatedAt); err == nil {
			expected = &t
		}
	}
	removeIDs := utils.Unique(utils.ParseUintList(formValues(ctx, "remove_files", "remove_files[]")))

	saved, err := p.store.SaveAll(uploadedFiles(ctx, "new_files"))
	if err != nil {
		respondUploadError(ctx, p.store, err)
		return
	}

	editorID, _ := getUserID(ctx)
	now := time.Now()
	var detached []models.PostFile
	err = p.db.Transaction(func(tx *gorm.DB) error {
		var current models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, post.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "reload post")
		}
		if expected != nil && current.UpdatedAt.UnixMilli() != expected.UnixMilli() {
			return ErrConflict
		}

		history := models.PostHistory{
			PostID:     current.ID,
			OldTitle:   current.Title,
			OldContent: current.Content,
			NewTitle:   form.Title,
			NewContent: form.Content,
			EditedBy:   &editorID,
			EditedAt:   now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return errors.Wrap(err, "insert history")
		}

		if len(removeIDs) > 0 {
			if err := tx.Where("post_id = ? AND id IN ?", current.ID, removeIDs).Find(&detached).Error; err != nil {
				return errors.Wrap(err, "load removed files")
			}
			if err := detachFiles(tx, detached); err != nil {
				return err
			}
		}

		var next struct{ N int }
		if err := tx.Model(&models.PostFile{}).
			Select("COALESCE(MAX(file_order), -1) + 1 AS n").
			Where("post_id = ?", current.ID).
			Scan(&next).Error; err != nil {
			return errors.Wrap(err, "next file order")
		}
		if err := insertFiles(tx, current.ID, saved, next.N); err != nil {
			return err
		}

		return errors.Wrap(tx.Model(&models.Post{}).Where("id = ?", current.ID).Updates(map[string]interface{}{
			"title":       form.Title,
			"content":     form.Content,
			"category_id": form.CategoryID,
			"updated_at":  now,
		}).Error, "update post")
	})
	if err != nil {
		p.store.Discard(saved)
		switch statusFor(err) {
		case http.StatusConflict:
			utils.Error(ctx, http.StatusConflict, 40920, msgEditConflict)
		case http.StatusNotFound:
			utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
		default:
			utils.Sugar.Errorw("update post failed", "post_id", post.ID, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50041, "Lỗi khi cập nhật bài đăng!")
		}
		return
	}
	moved := p.archive(detached)
	middleware.UploadedFiles.Add(float64(len(saved)))
	utils.InvalidateByPrefix(utils.CacheKeyCategories)
	utils.Sugar.Infow("post updated", "post_id", post.ID, "editor_id", editorID, "added", len(saved), "removed", moved)
	utils.Redirect(ctx, "/post/"+ctx.Param("id"), gin.H{"post_id": post.ID})
}

// detachFiles drops the attachment rows. Their files are moved by archive once
// the transaction has committed.
func detachFiles(tx *gorm.DB, files []models.PostFile) error {
	if len(files) == 0 {
		return nil
	}
	ids := make([]uint, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return errors.Wrap(tx.Where("id IN ?", ids).Delete(&models.PostFile{}).Error, "delete file rows")
}

// archive moves detached attachments into the recovery directory and records
// each move. Failures are logged and skipped. It returns the number moved.
func (p *PostController) archive(files []models.PostFile) int {
	moved := 0
	for _, f := range files {
		meta, err := p.store.MoveToDeleted(f.FilePath, f.PostID, f.ID, f.FileName)
		if err != nil {
			middleware.SoftDeletedFiles.WithLabelValues("failed").Inc()
			utils.Sugar.Warnw("move attachment to recovery failed", "file_id", f.ID, "path", f.FilePath, "error", err)
			continue
		}
		middleware.SoftDeletedFiles.WithLabelValues("moved").Inc()
		moved++
		row := models.DeletedFile{
			StoredName:   meta.StoredName,
			OriginalName: meta.OriginalName,
			PostID:       meta.PostID,
			FileID:       meta.FileID,
			FileSize:     meta.Size,
			RemovedAt:    meta.RemovedAt,
		}
		if err := p.db.Create(&row).Error; err != nil {
			utils.Sugar.Warnw("record deleted file failed", "stored_name", meta.StoredName, "error", err)
		}
	}
	return moved
}

// DeletePost removes a post; its attachments go to the recovery directory and
// its history rows are kept.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, err := p.loadEditable(ctx)
	if err != nil {
		p.respondLoadError(ctx, err, msgNoDelPermission)
		return
	}
	var files []models.PostFile
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Order("file_order ASC").Find(&files).Error; err != nil {
			return errors.Wrap(err, "load files")
		}
		if err := detachFiles(tx, files); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(&models.Post{}, post.ID).Error, "delete post")
	})
	if err != nil {
		utils.Sugar.Errorw("delete post failed", "post_id", post.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50042, "Lỗi khi xóa bài đăng!")
		return
	}
	moved := p.archive(files)
	utils.InvalidateByPrefix(utils.CacheKeyCategories)
	userID, _ := getUserID(ctx)
	utils.Sugar.Infow("post deleted", "post_id", post.ID, "user_id", userID, "moved", moved)
	utils.Redirect(ctx, "/", gin.H{"post_id": post.ID})
}

// ViewPost counts a view and shows the post with rendered Markdown.
func (p *PostController) ViewPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
		return
	}
	if err := p.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		utils.Sugar.Warnw("increment view count failed", "post_id", id, "error", err)
	}

	var post models.PostSummary
	res := postSummaries(p.db).Where("p.id = ?", id).Limit(1).Scan(&post)
	if res.Error != nil {
		p.respondLoadError(ctx, errors.Wrap(res.Error, "load post"), "")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
		return
	}
	var files []models.PostFile
	if err := p.db.Where("post_id = ?", id).Order("file_order ASC, id ASC").Find(&files).Error; err != nil {
		p.respondLoadError(ctx, errors.Wrap(err, "load files"), "")
		return
	}
	userID, _ := getUserID(ctx)
	canEdit := (post.UserID != nil && *post.UserID == userID) || isAdmin(ctx)
	utils.Render(ctx, http.StatusOK, "post.html", page(ctx, post.Title, gin.H{
		"Post":        post,
		"Files":       files,
		"ContentHTML": utils.RenderMarkdown(post.Content),
		"CanEdit":     canEdit,
	}))
}

// History lists the edits of a post, newest first.
func (p *PostController) History(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
		return
	}
	var post models.Post
	if err := p.db.Select("id", "title").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, msgPostNotFound)
			return
		}
		p.respondLoadError(ctx, errors.Wrap(err, "load post"), "")
		return
	}
	var entries []models.HistoryEntry
	if err := p.db.Table("post_history AS h").
		Select("h.*, COALESCE(u.full_name, '') AS editor_name").
		Joins("LEFT JOIN users u ON u.id = h.edited_by").
		Where("h.post_id = ?", id).
		Order("h.edited_at DESC, h.id DESC").
		Scan(&entries).Error; err != nil {
		p.respondLoadError(ctx, errors.Wrap(err, "load history"), "")
		return
	}
	utils.Render(ctx, http.StatusOK, "history.html", page(ctx, "Lịch sử chỉnh sửa: "+post.Title, gin.H{
		"Post":    post,
		"History": entries,
	}))
}
