package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletedNameRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 20, 30, 123_000_000, time.UTC)
	name := DeletedName(ts, 12, 34, "1709633000000-42-Biểu_phí_2024.pdf")
	assert.Equal(t, "2024-03-05T10-20-30-123Z_postId-12_fileId-34_1709633000000-42-Biểu_phí_2024.pdf", name)

	meta, ok := ParseDeletedName(name)
	require.True(t, ok)
	assert.Equal(t, uint(12), meta.PostID)
	assert.Equal(t, uint(34), meta.FileID)
	assert.Equal(t, "Biểu_phí_2024.pdf", meta.OriginalName)
	assert.True(t, ts.Equal(meta.RemovedAt))
}

func TestParseDeletedNameRejects(t *testing.T) {
	for _, name := range []string{
		"random.pdf",
		"2024-03-05T10-20-30-123Z_post-1_fileId-2_a.pdf",
		"2024-03-05T10-20-30-123Z_postId-x_fileId-2_a.pdf",
		"yesterday_postId-1_fileId-2_a.pdf",
	} {
		_, ok := ParseDeletedName(name)
		assert.False(t, ok, name)
	}
}

func TestMoveToDeletedAndList(t *testing.T) {
	m := newTestManager(t, 1, 10)
	saved, err := m.SaveAll(fileHeaders(t,
		upload{"first.txt", "text/plain", "one"},
		upload{"second.txt", "text/plain", "second"},
	))
	require.NoError(t, err)

	m.now = func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) }
	first, err := m.MoveToDeleted(saved[0].Path, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, "first.txt", first.OriginalName)
	assert.Equal(t, int64(3), first.Size)

	m.now = func() time.Time { return time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC) }
	second, err := m.MoveToDeleted(saved[1].Path, 1, 11, "Bản gốc.txt")
	require.NoError(t, err)

	_, err = m.Resolve(saved[0].Path)
	assert.ErrorIs(t, err, ErrNotFound)

	// a stray file without an encoded name still shows up
	require.NoError(t, os.WriteFile(filepath.Join(m.DeletedDir(), "stray.bin"), []byte("z"), 0o644))

	list, err := m.ListDeleted([]DeletedMeta{second})
	require.NoError(t, err)
	require.Len(t, list, 3)

	byName := map[string]DeletedMeta{}
	for _, d := range list {
		byName[d.StoredName] = d
	}
	assert.Equal(t, "Bản gốc.txt", byName[second.StoredName].OriginalName)
	assert.Equal(t, "first.txt", byName[first.StoredName].OriginalName)
	assert.Equal(t, uint(10), byName[first.StoredName].FileID)
	assert.Equal(t, "stray.bin", byName["stray.bin"].OriginalName)

	// encoded files are ordered newest first
	var encoded []string
	for _, d := range list {
		if d.PostID != 0 {
			encoded = append(encoded, d.StoredName)
		}
	}
	assert.Equal(t, []string{second.StoredName, first.StoredName}, encoded)
}

func TestMoveToDeletedMissingSource(t *testing.T) {
	m := newTestManager(t, 1, 10)
	_, err := m.MoveToDeleted(filepath.Join(m.UploadDir(), "gone.pdf"), 1, 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletedPathAndRemove(t *testing.T) {
	m := newTestManager(t, 1, 10)
	require.NoError(t, os.WriteFile(filepath.Join(m.DeletedDir(), "x.pdf"), []byte("x"), 0o644))

	for _, bad := range []string{"", ".", "..", "../config.json", `..\secret`, "a/b"} {
		_, err := m.DeletedPath(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
	_, err := m.DeletedPath("missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := m.DeletedPath("x.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.DeletedDir(), "x.pdf"), p)

	require.NoError(t, m.RemoveDeleted("x.pdf"))
	assert.ErrorIs(t, m.RemoveDeleted("x.pdf"), ErrNotFound)
}

func TestListDeletedMissingDir(t *testing.T) {
	m := newTestManager(t, 1, 10)
	require.NoError(t, os.RemoveAll(m.DeletedDir()))
	list, err := m.ListDeleted(nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}
