package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	stampLayout = "2006-01-02T15:04:05.000Z"
	postIDTag   = "postId-"
	fileIDTag   = "fileId-"
)

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// DeletedMeta describes a file in the recovery directory.
type DeletedMeta struct {
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	PostID       uint      `json:"post_id"`
	FileID       uint      `json:"file_id"`
	Size         int64     `json:"size"`
	RemovedAt    time.Time `json:"removed_at"`
}

// DeletedName encodes the recovery name
// {ISO timestamp with ':' and '.' as '-'}_postId-{id}_fileId-{id}_{basename}.
func DeletedName(ts time.Time, postID, fileID uint, base string) string {
	stamp := stampReplacer.Replace(ts.UTC().Format(stampLayout))
	return fmt.Sprintf("%s_%s%d_%s%d_%s", stamp, postIDTag, postID, fileIDTag, fileID, base)
}

// ParseDeletedName decodes a name produced by DeletedName. The basename may
// itself contain underscores.
func ParseDeletedName(name string) (DeletedMeta, bool) {
	parts := strings.SplitN(name, "_", 4)
	if len(parts) != 4 || !strings.HasPrefix(parts[1], postIDTag) || !strings.HasPrefix(parts[2], fileIDTag) {
		return DeletedMeta{}, false
	}
	postID, err := strconv.ParseUint(strings.TrimPrefix(parts[1], postIDTag), 10, 64)
	if err != nil {
		return DeletedMeta{}, false
	}
	fileID, err := strconv.ParseUint(strings.TrimPrefix(parts[2], fileIDTag), 10, 64)
	if err != nil {
		return DeletedMeta{}, false
	}
	ts, err := parseStamp(parts[0])
	if err != nil {
		return DeletedMeta{}, false
	}
	return DeletedMeta{
		StoredName:   name,
		OriginalName: DisplayNameFromStored(parts[3]),
		PostID:       uint(postID),
		FileID:       uint(fileID),
		RemovedAt:    ts,
	}, true
}

// parseStamp reverses the separator replacement done by DeletedName.
func parseStamp(stamp string) (time.Time, error) {
	if len(stamp) != len(stampLayout) {
		return time.Time{}, errors.Errorf("bad stamp %q", stamp)
	}
	b := []byte(stamp)
	b[13], b[16], b[19] = ':', ':', '.'
	return time.Parse(stampLayout, string(b))
}

// MoveToDeleted relocates an attachment into the recovery directory.
func (m *Manager) MoveToDeleted(path string, postID, fileID uint, originalName string) (DeletedMeta, error) {
	src := filepath.FromSlash(path)
	info, err := os.Stat(src)
	if err != nil {
		return DeletedMeta{}, errors.Wrapf(ErrNotFound, "%s", path)
	}
	now := m.now()
	base := filepath.Base(src)
	name := DeletedName(now, postID, fileID, base)
	if err := moveFile(src, filepath.Join(m.deletedDir, name)); err != nil {
		return DeletedMeta{}, errors.Wrapf(err, "move %s to recovery directory", path)
	}
	if originalName == "" {
		originalName = DisplayNameFromStored(base)
	}
	return DeletedMeta{
		StoredName:   name,
		OriginalName: originalName,
		PostID:       postID,
		FileID:       fileID,
		Size:         info.Size(),
		RemovedAt:    now.UTC().Truncate(time.Millisecond),
	}, nil
}

// moveFile renames, falling back to copy and remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// ListDeleted lists the recovery directory newest first. Known records take
// precedence; other entries are decoded from their names.
func (m *Manager) ListDeleted(known []DeletedMeta) ([]DeletedMeta, error) {
	entries, err := os.ReadDir(m.deletedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read recovery directory")
	}
	byName := make(map[string]DeletedMeta, len(known))
	for _, k := range known {
		byName[k.StoredName] = k
	}

	out := make([]DeletedMeta, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		meta, ok := byName[e.Name()]
		if !ok {
			if meta, ok = ParseDeletedName(e.Name()); !ok {
				meta = DeletedMeta{StoredName: e.Name(), OriginalName: e.Name()}
			}
		}
		meta.Size = info.Size()
		if meta.RemovedAt.IsZero() {
			meta.RemovedAt = info.ModTime()
		}
		out = append(out, meta)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RemovedAt.After(out[j].RemovedAt) })
	return out, nil
}

// DeletedPath resolves a name inside the recovery directory. Names that could
// escape the directory are rejected with ErrInvalidName.
func (m *Manager) DeletedPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	p := filepath.Join(m.deletedDir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}

// RemoveDeleted permanently unlinks a file from the recovery directory.
func (m *Manager) RemoveDeleted(name string) error {
	p, err := m.DeletedPath(name)
	if err != nil {
		return err
	}
	return errors.Wrap(os.Remove(p), "remove deleted file")
}
