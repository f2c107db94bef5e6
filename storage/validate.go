package storage

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
)

var allowedExt = regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|txt|jpg|jpeg|png|gif|zip|rar|mp4|mp3|wav|webm|ogg|webp)$`)

var allowedMIME = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"text/plain":                   {},
	"image/jpeg":                   {},
	"image/jpg":                    {},
	"image/png":                    {},
	"image/gif":                    {},
	"image/webp":                   {},
	"video/mp4":                    {},
	"video/webm":                   {},
	"audio/mpeg":                   {},
	"audio/wav":                    {},
	"audio/ogg":                    {},
	"application/zip":              {},
	"application/x-rar-compressed": {},
	"application/x-zip-compressed": {},
}

// UnsupportedFileError is returned for files outside the extension or MIME allow-list.
type UnsupportedFileError struct {
	Name string
	MIME string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("File không được hỗ trợ! File: %s (%s). Chỉ chấp nhận: PDF, DOC, DOCX, Excel (XLS/XLSX), TXT, hình ảnh, video, audio và file nén.", e.Name, e.MIME)
}

func (e *UnsupportedFileError) Is(target error) bool { return target == ErrUnsupportedFile }

// NormalizeMIME lower-cases a declared content type and drops its parameters.
func NormalizeMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Validate accepts a file only when both its extension and declared MIME type are allowed.
func Validate(name, contentType string) error {
	mt := NormalizeMIME(contentType)
	_, mimeOK := allowedMIME[mt]
	if !allowedExt.MatchString(name) || !mimeOK {
		return &UnsupportedFileError{Name: name, MIME: mt}
	}
	return nil
}
