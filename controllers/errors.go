package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("edit conflict")
)

// errorStatus maps sentinel errors to HTTP status codes.
var errorStatus = map[error]int{
	ErrNotFound:                http.StatusNotFound,
	ErrForbidden:               http.StatusForbidden,
	ErrConflict:                http.StatusConflict,
	storage.ErrUnsupportedFile: http.StatusBadRequest,
	storage.ErrFileTooLarge:    http.StatusBadRequest,
	storage.ErrTooManyFiles:    http.StatusBadRequest,
	storage.ErrInvalidName:     http.StatusBadRequest,
	storage.ErrNotFound:        http.StatusNotFound,
}

func statusFor(err error) int {
	for target, status := range errorStatus {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// respondUploadError answers a failed upload with the localized reason.
func respondUploadError(ctx *gin.Context, store *storage.Manager, err error) {
	var unsupported *storage.UnsupportedFileError
	switch {
	case errors.As(err, &unsupported):
		utils.Error(ctx, http.StatusBadRequest, 40030, unsupported.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		utils.Error(ctx, http.StatusBadRequest, 40031, fmt.Sprintf("File quá lớn! Dung lượng tối đa là %dMB.", store.MaxSize()/(1024*1024)))
	case errors.Is(err, storage.ErrTooManyFiles):
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("Chỉ được tải lên tối đa %d file.", store.MaxFiles()))
	default:
		utils.Sugar.Errorw("saving upload failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "Lỗi khi lưu file!")
	}
}
