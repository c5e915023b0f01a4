package job

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"aggregate-news/config"
	"aggregate-news/entity"
	"aggregate-news/misc"
	"aggregate-news/service"
)

// collectRun is the per run state of one collection pass: the window
// bounds and the per source dedup sets, shared across feeds of the same
// source and discarded when the run ends
type collectRun struct {
	db               *gorm.DB
	collectionOffset time.Time
	archivalOffset   time.Time
	sourceLinks      map[int]map[string]bool
}

func newCollectRun(dbConnect *gorm.DB, windowDays int, now time.Time) *collectRun {
	return &collectRun{
		db:               dbConnect,
		collectionOffset: now.AddDate(0, 0, -windowDays),
		archivalOffset:   now.AddDate(0, 0, -(windowDays + 1)),
		sourceLinks:      make(map[int]map[string]bool),
	}
}

func (r *collectRun) links(sourceID int) (map[string]bool, error) {
	if links, ok := r.sourceLinks[sourceID]; ok {
		return links, nil
	}
	links, err := entity.GetSourceLinks(r.db, sourceID, r.archivalOffset)
	if err != nil {
		return nil, err
	}
	r.sourceLinks[sourceID] = links
	return links, nil
}

type feedResult struct {
	status  entity.FeedStatus
	feed    *entity.Feed
	entries []service.Entry
	err     error
}

// fetchFeed fetches and filters one due feed. Only network and parsing
// happen here, the dedup set is read but never written.
func fetchFeed(status entity.FeedStatus, feed *entity.Feed, links map[string]bool, offset, now time.Time) feedResult {
	result := feedResult{status: status, feed: feed}
	parsed, err := service.GetFeed(feed.URL)
	if err != nil {
		result.err = err
		return result
	}
	for _, item := range parsed.Items {
		parsedEntry, err := service.ParseEntry(item, offset, now)
		if err != nil {
			continue
		}
		if links[parsedEntry.Link] {
			continue
		}
		if meta, err := service.GetMeta(parsedEntry.Link); err == nil {
			if meta.Title != "" && len(meta.Title) <= config.MaxFieldLength {
				parsedEntry.Title = meta.Title
			}
			if meta.Description != "" {
				parsedEntry.Description = service.Clean(meta.Description)
			}
		}
		result.entries = append(result.entries, *parsedEntry)
	}
	return result
}

// adaptFrequency moves the polling exponent one step toward the observed
// activity and clamps it to the configured bounds
func adaptFrequency(current, newPosts int) int {
	if newPosts > 0 {
		current--
	} else {
		current++
	}
	if current < config.MinUpdateFreq {
		current = config.MinUpdateFreq
	}
	if current > config.MaxUpdateFreq {
		current = config.MaxUpdateFreq
	}
	return current
}

// persistFeed writes one feed's surviving entries and its status stamp in
// a single transaction, so a failure loses only this feed's work
func (r *collectRun) persistFeed(result feedResult, now time.Time) (int, error) {
	links, err := r.links(result.feed.SourceID)
	if err != nil {
		return 0, err
	}
	created := 0
	err = r.db.Transaction(func(tx *gorm.DB) error {
		for _, parsedEntry := range result.entries {
			if links[parsedEntry.Link] {
				continue
			}
			post := entity.Post{
				FeedID:      result.feed.ID,
				Title:       parsedEntry.Title,
				Description: parsedEntry.Description,
				Link:        parsedEntry.Link,
				PublishedAt: parsedEntry.Published,
				IngestedAt:  now,
			}
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
			if err := tx.Create(&entity.PostAction{PostID: post.ID}).Error; err != nil {
				return err
			}
			if err := tx.Create(&entity.EntityQueueEntry{PostID: post.ID}).Error; err != nil {
				return err
			}
			links[parsedEntry.Link] = true
			created++
		}
		frequency := adaptFrequency(result.status.UpdateFrequency, created)
		return entity.StampStatus(tx, result.status.ID, frequency, now)
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// lockAlive re-checks cooperative cancellation between batches: the run
// stops starting new work once its lock is gone or expired
func lockAlive(dbConnect *gorm.DB, lock *entity.JobLock, timeoutMinutes int) bool {
	var count int64
	if err := dbConnect.Model(&entity.JobLock{}).Where("id = ?", lock.ID).Count(&count).Error; err != nil || count == 0 {
		return false
	}
	deadline := time.Now().UTC().Add(-time.Duration(timeoutMinutes) * time.Minute)
	return !lock.LockDatetime.Before(deadline)
}

// CollectPosts polls due feeds, dedupes and persists new posts and adapts
// each feed's polling frequency
func CollectPosts(params *config.Params, windowDays int) error {
	dbConnect := params.DB
	now := time.Now().UTC()

	lock, err := acquire(dbConnect, Collect)
	if err != nil {
		if errors.Is(err, ErrAlreadyLocked) {
			misc.Info("collection still in progress, skipping")
			return nil
		}
		return err
	}

	statuses, err := entity.GetDueStatuses(dbConnect, now)
	if err != nil {
		releaseQuietly(dbConnect, lock)
		return err
	}
	if len(statuses) == 0 {
		misc.Info("no due feeds to collect, skipping")
		releaseQuietly(dbConnect, lock)
		return nil
	}
	misc.Info(fmt.Sprintf("collecting new posts from %d due feeds", len(statuses)))

	run := newCollectRun(dbConnect, windowDays, now)
	collected := 0
	for start := 0; start < len(statuses); start += config.CollectBatchSize {
		if start > 0 && !lockAlive(dbConnect, lock, config.CollectLockTimeout) {
			misc.Info("collect lock lost, stopping early")
			return nil
		}
		end := start + config.CollectBatchSize
		if end > len(statuses) {
			end = len(statuses)
		}
		batch := statuses[start:end]
		results := make([]feedResult, len(batch))

		var group errgroup.Group
		group.SetLimit(config.CollectWorkers)
		for i, status := range batch {
			feed, err := entity.GetFeedByID(dbConnect, status.FeedID)
			if err != nil {
				results[i] = feedResult{status: status, err: err}
				continue
			}
			links, err := run.links(feed.SourceID)
			if err != nil {
				releaseQuietly(dbConnect, lock)
				return err
			}
			i, status, feed := i, status, feed
			group.Go(func() error {
				results[i] = fetchFeed(status, feed, links, run.collectionOffset, now)
				return nil
			})
		}
		_ = group.Wait()

		for _, result := range results {
			if result.err != nil {
				misc.Error("feed_fetch", fmt.Sprintf("feed %d fetch", result.status.FeedID), result.err)
				// stamp anyway so the feed does not stay due in a hot loop
				frequency := adaptFrequency(result.status.UpdateFrequency, 0)
				if err := entity.StampStatus(dbConnect, result.status.ID, frequency, now); err != nil {
					releaseQuietly(dbConnect, lock)
					return err
				}
				continue
			}
			created, err := run.persistFeed(result, now)
			if err != nil {
				releaseQuietly(dbConnect, lock)
				return err
			}
			collected += created
		}
	}

	misc.Info("unlocking collector")
	if err := ReleaseLock(dbConnect, lock); err != nil {
		return err
	}
	if collected > 0 {
		misc.PostsCollected.Add(float64(collected))
		misc.Info(fmt.Sprintf("collected %d posts", collected))
	}
	return nil
}

func releaseQuietly(dbConnect *gorm.DB, lock *entity.JobLock) {
	if err := ReleaseLock(dbConnect, lock); err != nil {
		misc.Error("lock_release", "lock release", err)
	}
}
