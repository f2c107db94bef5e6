package jobs

import (
	"gorm.io/gorm"

	"github.com/cppla/docportal/utils"
)

// DBOptimizeJob lets SQLite refresh its query planner statistics.
type DBOptimizeJob struct {
	db *gorm.DB
}

func NewDBOptimizeJob(db *gorm.DB) *DBOptimizeJob {
	return &DBOptimizeJob{db: db}
}

func (j *DBOptimizeJob) Run() {
	if err := j.db.Exec("PRAGMA optimize").Error; err != nil {
		utils.Sugar.Warnw("sqlite optimize failed", "error", err)
		return
	}
	utils.Sugar.Debug("sqlite optimize done")
}
