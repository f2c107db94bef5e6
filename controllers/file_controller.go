package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

const msgFileNotFound = "File không tìm thấy!"

// FileController streams post attachments.
type FileController struct {
	db    *gorm.DB
	store *storage.Manager
}

// NewFileController creates a new FileController instance.
func NewFileController(db *gorm.DB, store *storage.Manager) *FileController {
	return &FileController{db: db, store: store}
}

// DownloadFirst serves the first attachment of a post.
func (f *FileController) DownloadFirst(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, msgFileNotFound)
		return
	}
	var file models.PostFile
	err := f.db.Where("post_id = ?", id).Order("file_order ASC, id ASC").First(&file).Error
	f.serve(ctx, &file, err)
}

// DownloadFile serves one attachment by id.
func (f *FileController) DownloadFile(ctx *gin.Context) {
	id, ok := parseID(ctx, "fileId")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, msgFileNotFound)
		return
	}
	var file models.PostFile
	err := f.db.First(&file, id).Error
	f.serve(ctx, &file, err)
}

func (f *FileController) serve(ctx *gin.Context, file *models.PostFile, lookupErr error) {
	if lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, msgFileNotFound)
			return
		}
		utils.Sugar.Errorw("file lookup failed", "error", lookupErr)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "Lỗi khi tải file!")
		return
	}
	path, err := f.store.Resolve(file.FilePath)
	if err != nil {
		utils.Sugar.Warnw("attachment missing on disk", "file_id", file.ID, "path", file.FilePath)
		utils.Error(ctx, http.StatusNotFound, 40431, msgFileNotFound)
		return
	}
	sendFile(ctx, path, file.FileName, ctx.Query("download") == "true")
}

// sendFile writes a stored file with its display name. Inline disposition lets
// the browser preview it; attachment forces a download.
func sendFile(ctx *gin.Context, path, name string, attachment bool) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	ctx.Header("Content-Type", storage.ContentTypeFor(name))
	ctx.Header("Content-Disposition", contentDisposition(disposition, name))
	ctx.File(path)
}

// contentDisposition carries an ASCII fallback plus the RFC 5987 UTF-8 name.
func contentDisposition(kind, name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return kind + `; filename="` + fallback + `"; filename*=UTF-8''` + url.PathEscape(name)
}
