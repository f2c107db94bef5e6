// Package storage keeps post attachments on disk: upload validation, unique
// naming, the recovery directory for soft-deleted files and temp uploads.
package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/cppla/docportal/config"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files")
	ErrInvalidName     = errors.New("invalid file name")
	ErrNotFound        = errors.New("file not found")
)

// SavedFile is an upload written under the upload directory.
type SavedFile struct {
	Path string // path recorded in the database
	Name string // recovered original name for display
	Size int64
}

// Manager owns the upload, recovery and temp directories.
type Manager struct {
	uploadDir  string
	deletedDir string
	tempDir    string
	maxSize    int64
	maxFiles   int
	now        func() time.Time
}

// NewManager creates the directories it manages.
func NewManager(cfg config.StorageConfig) (*Manager, error) {
	m := &Manager{
		uploadDir:  cfg.UploadDir,
		deletedDir: cfg.DeletedDir,
		tempDir:    cfg.TempDir,
		maxSize:    cfg.MaxUploadBytes(),
		maxFiles:   cfg.MaxFilesPerPost,
		now:        time.Now,
	}
	for _, dir := range []string{m.uploadDir, m.deletedDir, m.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create storage directory %s", dir)
		}
	}
	return m, nil
}

func (m *Manager) MaxFiles() int      { return m.maxFiles }
func (m *Manager) MaxSize() int64     { return m.maxSize }
func (m *Manager) DeletedDir() string { return m.deletedDir }
func (m *Manager) TempDir() string    { return m.tempDir }
func (m *Manager) UploadDir() string  { return m.uploadDir }

// check recovers the display name and validates type and size.
func (m *Manager) check(fh *multipart.FileHeader) (string, error) {
	name := RecoverUTF8Name(filepath.Base(fh.Filename))
	if err := Validate(name, fh.Header.Get("Content-Type")); err != nil {
		return name, err
	}
	if m.maxSize > 0 && fh.Size > m.maxSize {
		return name, errors.Wrapf(ErrFileTooLarge, "%s", name)
	}
	return name, nil
}

// SaveAll validates every file before writing any of them. On failure nothing
// is left on disk.
func (m *Manager) SaveAll(fhs []*multipart.FileHeader) ([]SavedFile, error) {
	if m.maxFiles > 0 && len(fhs) > m.maxFiles {
		return nil, ErrTooManyFiles
	}
	names := make([]string, len(fhs))
	for i, fh := range fhs {
		name, err := m.check(fh)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}

	saved := make([]SavedFile, 0, len(fhs))
	for i, fh := range fhs {
		sf, err := m.write(fh, m.uploadDir, names[i])
		if err != nil {
			m.Discard(saved)
			return nil, err
		}
		saved = append(saved, sf)
	}
	return saved, nil
}

// Save validates and writes a single upload.
func (m *Manager) Save(fh *multipart.FileHeader) (SavedFile, error) {
	name, err := m.check(fh)
	if err != nil {
		return SavedFile{}, err
	}
	return m.write(fh, m.uploadDir, name)
}

// SaveTemp validates and writes an upload into the temp directory, for files
// that are processed and then dropped.
func (m *Manager) SaveTemp(fh *multipart.FileHeader) (SavedFile, error) {
	name, err := m.check(fh)
	if err != nil {
		return SavedFile{}, err
	}
	return m.write(fh, m.tempDir, name)
}

func (m *Manager) write(fh *multipart.FileHeader, dir, name string) (SavedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, errors.Wrap(err, "open upload")
	}
	defer src.Close()

	dst := filepath.Join(dir, StoredName(m.now(), name))
	out, err := os.Create(dst)
	if err != nil {
		return SavedFile{}, errors.Wrap(err, "create upload file")
	}

	limit := m.maxSize
	if limit <= 0 {
		limit = 1 << 62
	}
	written, err := io.Copy(out, &io.LimitedReader{R: src, N: limit + 1})
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return SavedFile{}, errors.Wrap(err, "write upload file")
	}
	if written > limit {
		_ = os.Remove(dst)
		return SavedFile{}, errors.Wrapf(ErrFileTooLarge, "%s", name)
	}
	return SavedFile{Path: filepath.ToSlash(dst), Name: name, Size: written}, nil
}

// Discard removes files written by a request that failed afterwards.
func (m *Manager) Discard(files []SavedFile) {
	for _, f := range files {
		_ = os.Remove(filepath.FromSlash(f.Path))
	}
}

// Remove deletes a single stored file, ignoring a missing one.
func (m *Manager) Remove(path string) error {
	err := os.Remove(filepath.FromSlash(path))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}

// Resolve returns the filesystem path of a stored file, or ErrNotFound.
func (m *Manager) Resolve(path string) (string, error) {
	p := filepath.FromSlash(path)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}

// CleanTemp removes temp files older than maxAge and reports how many went.
func (m *Manager) CleanTemp(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read temp directory")
	}
	cutoff := m.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.tempDir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
