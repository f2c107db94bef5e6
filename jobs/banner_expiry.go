package jobs

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/utils"
)

// BannerExpiryJob switches off banners whose expiry has passed, so the admin
// list matches what the home page shows.
type BannerExpiryJob struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBannerExpiryJob(db *gorm.DB) *BannerExpiryJob {
	return &BannerExpiryJob{db: db, now: time.Now}
}

func (j *BannerExpiryJob) Run() {
	n, err := j.Expire()
	if err != nil {
		utils.Sugar.Errorw("banner expiry failed", "error", err)
		return
	}
	if n > 0 {
		utils.Sugar.Infow("banners expired", "count", n)
	}
}

// Expire deactivates expired banners and reports how many changed.
func (j *BannerExpiryJob) Expire() (int64, error) {
	res := j.db.Model(&models.Banner{}).
		Where("is_active = ? AND expired_date IS NOT NULL AND expired_date < ?", true, j.now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deactivate expired banners")
	}
	if res.RowsAffected > 0 {
		utils.InvalidateByPrefix(utils.CacheKeyActiveBanners)
	}
	return res.RowsAffected, nil
}
