package entity

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPostsByID returns posts for a set of keys
func GetPostsByID(dbConnect *gorm.DB, postIDs []int) ([]Post, error) {
	var posts []Post
	if len(postIDs) == 0 {
		return posts, nil
	}
	result := dbConnect.Where("id IN ?", postIDs).Find(&posts)
	if result.Error != nil {
		return nil, result.Error
	}
	return posts, nil
}

// GetRecentPostEntities returns the (post, term) rows of a category's
// posts published after the offset, the raw material of the relater's
// inverted index
func GetRecentPostEntities(dbConnect *gorm.DB, categoryID int, offset time.Time) ([]PostEntity, error) {
	var rows []PostEntity
	result := dbConnect.
		Joins("JOIN posts ON posts.id = post_entities.post_id").
		Joins("JOIN feeds ON feeds.id = posts.feed_id").
		Where("feeds.category_id = ?", categoryID).
		Where("posts.published_at >= ?", offset).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// GetPostEntities returns the normalized terms of one post
func GetPostEntities(dbConnect *gorm.DB, postID int) ([]string, error) {
	var terms []string
	result := dbConnect.Model(&PostEntity{}).Where("post_id = ?", postID).Pluck("entity", &terms)
	if result.Error != nil {
		return nil, result.Error
	}
	return terms, nil
}

// AddPostEntities inserts terms for a post, ignoring terms already present
// so reprocessing after a crash stays idempotent
func AddPostEntities(dbConnect *gorm.DB, postID int, terms []string) (int, error) {
	if len(terms) == 0 {
		return 0, nil
	}
	rows := make([]PostEntity, 0, len(terms))
	for _, term := range terms {
		rows = append(rows, PostEntity{PostID: postID, Entity: term})
	}
	result := dbConnect.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// AddSimilarityPair inserts both directions of one accepted pair
func AddSimilarityPair(dbConnect *gorm.DB, postID, relatedID int) error {
	pair := []Similarity{
		{SourceID: postID, RelatedID: relatedID},
		{SourceID: relatedID, RelatedID: postID},
	}
	result := dbConnect.Create(&pair)
	return result.Error
}
