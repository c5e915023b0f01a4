package job

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"aggregate-news/config"
	"aggregate-news/entity"
	"aggregate-news/misc"
)

// UpdateCTR recomputes the click through ratio of posts with traffic and
// zeroes it for posts that aged out of the active window, so stale posts
// stop outranking fresh ones in a popularity ordering
func UpdateCTR(params *config.Params) error {
	dbConnect := params.DB

	lock, err := acquire(dbConnect, Analyze)
	if err != nil {
		if errors.Is(err, ErrAlreadyLocked) {
			misc.Info("ctr processing still in progress, skipping")
			return nil
		}
		return err
	}

	offset := time.Now().UTC().Add(-config.CTRActiveWindow)

	result := dbConnect.Model(&entity.PostAction{}).
		Where("post_id IN (?)", dbConnect.Model(&entity.Post{}).Select("id").Where("published_at >= ?", offset)).
		Where("impressions > 0").
		Where("clicks > 0").
		Update("ctr", gorm.Expr("CAST(clicks AS REAL) / impressions"))
	if result.Error != nil {
		releaseQuietly(dbConnect, lock)
		return result.Error
	}
	if result.RowsAffected > 0 {
		misc.Info(fmt.Sprintf("updated ctr for %d posts", result.RowsAffected))
	}

	result = dbConnect.Model(&entity.PostAction{}).
		Where("post_id IN (?)", dbConnect.Model(&entity.Post{}).Select("id").Where("published_at < ?", offset)).
		Where("impressions > 0").
		Where("clicks > 0").
		Where("ctr <> 0").
		Update("ctr", 0)
	if result.Error != nil {
		releaseQuietly(dbConnect, lock)
		return result.Error
	}
	if result.RowsAffected > 0 {
		misc.Info(fmt.Sprintf("expired ctr for %d posts", result.RowsAffected))
	}

	misc.Info("unlocking analyzer")
	return ReleaseLock(dbConnect, lock)
}
