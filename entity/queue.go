package entity

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetEntityQueueBatch returns the oldest queued extraction entries
func GetEntityQueueBatch(dbConnect *gorm.DB, limit int) ([]EntityQueueEntry, error) {
	var entries []EntityQueueEntry
	result := dbConnect.Order("id").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// CountEntityQueue returns the extraction backlog size
func CountEntityQueue(dbConnect *gorm.DB) (int64, error) {
	var count int64
	result := dbConnect.Model(&EntityQueueEntry{}).Count(&count)
	return count, result.Error
}

// DeleteEntityQueueEntries dequeues processed posts
func DeleteEntityQueueEntries(dbConnect *gorm.DB, postIDs []int) error {
	if len(postIDs) == 0 {
		return nil
	}
	result := dbConnect.Where("post_id IN ?", postIDs).Delete(&EntityQueueEntry{})
	return result.Error
}

// EnqueueRelation marks a post as pending similarity linking
func EnqueueRelation(dbConnect *gorm.DB, postID int) error {
	result := dbConnect.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&RelationQueueEntry{PostID: postID})
	return result.Error
}

// GetRelationQueueByCategory returns queued posts whose feed belongs to a category
func GetRelationQueueByCategory(dbConnect *gorm.DB, categoryID int) ([]RelationQueueEntry, error) {
	var entries []RelationQueueEntry
	result := dbConnect.
		Joins("JOIN posts ON posts.id = relation_queue_entries.post_id").
		Joins("JOIN feeds ON feeds.id = posts.feed_id").
		Where("feeds.category_id = ?", categoryID).
		Order("relation_queue_entries.id").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// CountRelationQueue returns the relation backlog size
func CountRelationQueue(dbConnect *gorm.DB) (int64, error) {
	var count int64
	result := dbConnect.Model(&RelationQueueEntry{}).Count(&count)
	return count, result.Error
}

// DeleteRelationQueueEntries dequeues related posts
func DeleteRelationQueueEntries(dbConnect *gorm.DB, postIDs []int) error {
	if len(postIDs) == 0 {
		return nil
	}
	result := dbConnect.Where("post_id IN ?", postIDs).Delete(&RelationQueueEntry{})
	return result.Error
}
