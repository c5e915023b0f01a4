package entity

import (
	"time"

	"gorm.io/gorm"
)

// GetDueStatuses returns statuses of feeds whose backoff interval elapsed
func GetDueStatuses(dbConnect *gorm.DB, now time.Time) ([]FeedStatus, error) {
	var statuses []FeedStatus
	result := dbConnect.Order("id").Find(&statuses)
	if result.Error != nil {
		return nil, result.Error
	}
	due := make([]FeedStatus, 0, len(statuses))
	for _, status := range statuses {
		if status.Due(now) {
			due = append(due, status)
		}
	}
	return due, nil
}

// GetFeedByID returns one feed with its source and category
func GetFeedByID(dbConnect *gorm.DB, feedID int) (*Feed, error) {
	var feed Feed
	result := dbConnect.Preload("Source").Preload("Category").First(&feed, feedID)
	if result.Error != nil {
		return nil, result.Error
	}
	return &feed, nil
}

// GetSourceLinks returns canonical links of a source's posts published
// after the offset, the dedup set for one collection run
func GetSourceLinks(dbConnect *gorm.DB, sourceID int, offset time.Time) (map[string]bool, error) {
	var links []string
	result := dbConnect.Model(&Post{}).
		Joins("JOIN feeds ON feeds.id = posts.feed_id").
		Where("feeds.source_id = ?", sourceID).
		Where("posts.published_at >= ?", offset).
		Pluck("posts.link", &links)
	if result.Error != nil {
		return nil, result.Error
	}
	linkSet := make(map[string]bool, len(links))
	for _, link := range links {
		linkSet[link] = true
	}
	return linkSet, nil
}

// StampStatus records a poll attempt and its adjusted frequency
func StampStatus(dbConnect *gorm.DB, statusID, frequency int, now time.Time) error {
	result := dbConnect.Model(&FeedStatus{}).Where("id = ?", statusID).
		Updates(map[string]interface{}{"update_frequency": frequency, "update_datetime": now})
	return result.Error
}
