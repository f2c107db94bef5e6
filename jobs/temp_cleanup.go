package jobs

import (
	"time"

	"github.com/cppla/docportal/storage"
	"github.com/cppla/docportal/utils"
)

// TempCleanupJob deletes leftover rate-sheet uploads from the temp directory.
// It is best-effort and logs failures.
type TempCleanupJob struct {
	store  *storage.Manager
	maxAge time.Duration
}

func NewTempCleanupJob(store *storage.Manager, maxAgeMinutes int) *TempCleanupJob {
	if maxAgeMinutes <= 0 {
		maxAgeMinutes = 60
	}
	return &TempCleanupJob{store: store, maxAge: time.Duration(maxAgeMinutes) * time.Minute}
}

func (j *TempCleanupJob) Run() {
	n, err := j.store.CleanTemp(j.maxAge)
	if err != nil {
		utils.Sugar.Warnw("temp cleanup failed", "dir", j.store.TempDir(), "error", err)
		return
	}
	if n > 0 {
		utils.Sugar.Infow("temp files removed", "count", n)
	}
}
