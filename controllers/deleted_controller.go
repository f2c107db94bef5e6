package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

const msgDeletedNotFound = "File đã xóa không tồn tại!"

// DeletedFileController exposes the recovery directory to administrators.
type DeletedFileController struct {
	db    *gorm.DB
	store *storage.Manager
}

func NewDeletedFileController(db *gorm.DB, store *storage.Manager) *DeletedFileController {
	return &DeletedFileController{db: db, store: store}
}

func (d *DeletedFileController) known() ([]storage.DeletedMeta, error) {
	var rows []models.DeletedFile
	if err := d.db.Order("removed_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list deleted files")
	}
	out := make([]storage.DeletedMeta, len(rows))
	for i, r := range rows {
		out[i] = storage.DeletedMeta{
			StoredName:   r.StoredName,
			OriginalName: r.OriginalName,
			PostID:       r.PostID,
			FileID:       r.FileID,
			Size:         r.FileSize,
			RemovedAt:    r.RemovedAt,
		}
	}
	return out, nil
}

// List shows every recoverable file, newest first.
func (d *DeletedFileController) List(ctx *gin.Context) {
	known, err := d.known()
	if err != nil {
		utils.Sugar.Errorw("load deleted file records failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50090, "Lỗi khi tải danh sách file đã xóa!")
		return
	}
	files, err := d.store.ListDeleted(known)
	if err != nil {
		utils.Sugar.Errorw("read recovery directory failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50091, "Lỗi khi tải danh sách file đã xóa!")
		return
	}
	utils.Render(ctx, http.StatusOK, "admin_deleted.html", page(ctx, "File đã xóa", gin.H{
		"Files": files,
	}))
}

// Download sends a recovered file under its original name.
func (d *DeletedFileController) Download(ctx *gin.Context) {
	name := ctx.Param("fileName")
	path, err := d.store.DeletedPath(name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			utils.Error(ctx, http.StatusBadRequest, 40090, "Tên file không hợp lệ!")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40490, msgDeletedNotFound)
		return
	}
	original := name
	var row models.DeletedFile
	if err := d.db.Where("stored_name = ?", name).First(&row).Error; err == nil && row.OriginalName != "" {
		original = row.OriginalName
	} else if meta, ok := storage.ParseDeletedName(name); ok {
		original = meta.OriginalName
	}
	sendFile(ctx, path, original, true)
}

// Purge unlinks a recovered file for good and drops its record.
func (d *DeletedFileController) Purge(ctx *gin.Context) {
	name := ctx.Param("fileName")
	err := d.store.RemoveDeleted(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		utils.Error(ctx, http.StatusBadRequest, 40090, "Tên file không hợp lệ!")
		return
	case err != nil:
		utils.Sugar.Warnw("permanent delete failed", "file", name, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50092, "Lỗi khi xóa file vĩnh viễn")
		return
	}
	if err := d.db.Where("stored_name = ?", name).Delete(&models.DeletedFile{}).Error; err != nil {
		utils.Sugar.Warnw("drop deleted file record failed", "file", name, "error", err)
	}
	utils.Sugar.Infow("deleted file purged", "file", name)
	if utils.WantsJSON(ctx) {
		utils.Success(ctx, gin.H{"file": name})
		return
	}
	ctx.String(http.StatusOK, "File đã được xóa vĩnh viễn")
}
