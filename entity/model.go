// Package entity describes the data models and queries over them
package entity

import (
	"fmt"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// Source is a content origin, e.g. one publisher
type Source struct {
	ID    int    `gorm:"primaryKey"`
	Slug  string `gorm:"size:32;uniqueIndex"`
	Title string `gorm:"size:140"`
}

// Category is a content vertical shared across sources
type Category struct {
	ID    int    `gorm:"primaryKey"`
	Slug  string `gorm:"size:32;uniqueIndex"`
	Title string `gorm:"size:140"`
}

// Feed is a polling configuration pointing at one external origin
type Feed struct {
	ID         int `gorm:"primaryKey"`
	SourceID   int `gorm:"index"`
	CategoryID int `gorm:"index"`
	URL        string
	Source     Source   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Category   Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FeedStatus tracks the adaptive polling state of one feed
type FeedStatus struct {
	ID              int  `gorm:"primaryKey"`
	FeedID          int  `gorm:"uniqueIndex"`
	Feed            Feed `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UpdateDatetime  time.Time
	UpdateFrequency int
}

// Due reports whether the backoff interval has elapsed
func (s FeedStatus) Due(now time.Time) bool {
	offset := time.Duration(1<<uint(s.UpdateFrequency)) * time.Minute
	return !s.UpdateDatetime.After(now.Add(-offset))
}

// Post is one ingested content unit
type Post struct {
	ID          int       `gorm:"primaryKey"`
	FeedID      int       `gorm:"index"`
	Feed        Feed      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Title       string    `gorm:"size:255"`
	Description string
	Link        string    `gorm:"size:255"`
	PublishedAt time.Time `gorm:"index"`
	IngestedAt  time.Time
}

// PostAction holds the engagement counters of one post
type PostAction struct {
	ID          int  `gorm:"primaryKey"`
	PostID      int  `gorm:"uniqueIndex"`
	Post        Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Clicks      int
	Impressions int
	CTR         float64
}

// EntityQueueEntry marks a post pending entity extraction
type EntityQueueEntry struct {
	ID     int  `gorm:"primaryKey"`
	PostID int  `gorm:"uniqueIndex"`
	Post   Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// PostEntity is one normalized term extracted from a post
type PostEntity struct {
	ID     int    `gorm:"primaryKey"`
	PostID int    `gorm:"index;uniqueIndex:post_entity_unique"`
	Post   Post   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Entity string `gorm:"size:40;uniqueIndex:post_entity_unique"`
}

// RelationQueueEntry marks a post pending similarity linking
type RelationQueueEntry struct {
	ID     int  `gorm:"primaryKey"`
	PostID int  `gorm:"uniqueIndex"`
	Post   Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Similarity is a directed edge between two related posts,
// always written as a matched pair in one transaction
type Similarity struct {
	ID        int `gorm:"primaryKey"`
	SourceID  int `gorm:"index"`
	RelatedID int `gorm:"index"`
}

// JobLock is at most one live record per job kind
type JobLock struct {
	ID           int    `gorm:"primaryKey"`
	Job          string `gorm:"size:40;uniqueIndex"`
	LockDatetime time.Time
}

var hashID, _ = hashids.NewWithData(&hashids.HashIDData{
	Alphabet:  hashids.DefaultAlphabet,
	MinLength: 6,
	Salt:      "aggregate-news",
})

// UID is a reversible short identifier derived from the post key
func (p Post) UID() string {
	uid, _ := hashID.Encode([]int{p.ID})
	return uid
}

// PostIDFromUID decodes a short identifier back to the post key
func PostIDFromUID(uid string) (int, error) {
	ids, err := hashID.DecodeWithError(uid)
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("malformed uid %s", uid)
	}
	return ids[0], nil
}
