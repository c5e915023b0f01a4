package service

import (
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"aggregate-news/config"
)

// ErrSkipEntry marks a feed entry that failed validation
var ErrSkipEntry = errors.New("entry skipped")

var stripMarkup = bluemonday.StrictPolicy()

// Entry is one normalized feed entry ready for ingestion
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

// ParseEntry validates one raw feed item. Entries without a title, link or
// parseable published time are skipped, as are entries published outside
// the collection window or with over-long fields.
func ParseEntry(item *gofeed.Item, offset, now time.Time) (*Entry, error) {
	if item.Title == "" || item.Link == "" {
		return nil, ErrSkipEntry
	}
	if item.PublishedParsed == nil {
		return nil, ErrSkipEntry
	}
	published := item.PublishedParsed.UTC()
	if published.After(now) || published.Before(offset) {
		return nil, ErrSkipEntry
	}
	if len(item.Title) > config.MaxFieldLength || len(item.Link) > config.MaxFieldLength {
		return nil, ErrSkipEntry
	}
	description := item.Description
	if description == "" {
		description = item.Content
	}
	return &Entry{
		Title:       item.Title,
		Link:        item.Link,
		Description: Clean(stripMarkup.Sanitize(description)),
		Published:   published,
	}, nil
}
