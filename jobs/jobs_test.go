package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/storage"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newStore(t *testing.T) *storage.Manager {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewManager(config.StorageConfig{
		UploadDir:       filepath.Join(root, "uploads"),
		DeletedDir:      filepath.Join(root, "deleted"),
		TempDir:         filepath.Join(root, "tmp"),
		MaxUploadSizeMB: 1,
		MaxFilesPerPost: 10,
	})
	require.NoError(t, err)
	return store
}

func TestBannerExpiry(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	banners := []models.Banner{
		{Title: "expired", ImagePath: "a.png", IsActive: true, ExpiredDate: &past},
		{Title: "running", ImagePath: "b.png", IsActive: true, ExpiredDate: &future},
		{Title: "open", ImagePath: "c.png", IsActive: true},
	}
	require.NoError(t, db.Create(&banners).Error)

	job := NewBannerExpiryJob(db)
	job.now = func() time.Time { return now }

	n, err := job.Expire()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var active []string
	require.NoError(t, db.Model(&models.Banner{}).Where("is_active = ?", true).Order("id").Pluck("title", &active).Error)
	assert.Equal(t, []string{"running", "open"}, active)

	n, err = job.Expire()
	require.NoError(t, err)
	assert.Zero(t, n)

	job.Run()
}

func TestTempCleanupJob(t *testing.T) {
	store := newStore(t)
	stale := filepath.Join(store.TempDir(), "old.xlsx")
	fresh := filepath.Join(store.TempDir(), "new.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	NewTempCleanupJob(store, 0).Run()

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestManagerRegistersConfiguredJobs(t *testing.T) {
	db := openTestDB(t)
	store := newStore(t)

	m := NewManager(config.JobsConfig{
		BannerExpirySpec: "0 */10 * * * *",
		TempCleanupSpec:  "",
		DBOptimizeSpec:   "@daily",
	}, "sqlite", db, store)
	require.Len(t, m.jobs, 2)
	require.NoError(t, m.RegisterJobs())
	assert.Len(t, m.engine.Entries(), 2)

	m.Start()
	m.Stop()

	mysql := NewManager(config.JobsConfig{DBOptimizeSpec: "@daily"}, "mysql", db, store)
	assert.Empty(t, mysql.jobs)
}

func TestManagerRejectsBadSpec(t *testing.T) {
	m := NewManager(config.JobsConfig{BannerExpirySpec: "every ten minutes"}, "sqlite", openTestDB(t), newStore(t))
	assert.Error(t, m.RegisterJobs())
}

func TestDBOptimizeJob(t *testing.T) {
	NewDBOptimizeJob(openTestDB(t)).Run()
}
