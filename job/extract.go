package job

import (
	"errors"
	"fmt"

	"github.com/thoas/go-funk"
	"gorm.io/gorm"

	"aggregate-news/config"
	"aggregate-news/entity"
	"aggregate-news/misc"
	"aggregate-news/service"
)

// processBatch extracts entities for one queue batch. The queue rows are
// deleted in the same transaction as the entity inserts, so a crash before
// commit re-runs the whole batch instead of losing it.
func processBatch(params *config.Params, batch []entity.EntityQueueEntry) (int, error) {
	postIDs := funk.Map(batch, func(queued entity.EntityQueueEntry) int {
		return queued.PostID
	}).([]int)

	newEntities := 0
	err := params.DB.Transaction(func(tx *gorm.DB) error {
		posts, err := entity.GetPostsByID(tx, postIDs)
		if err != nil {
			return err
		}
		for _, post := range posts {
			if post.Description == "" {
				continue
			}
			text := service.Clean(fmt.Sprintf("%s. %s", post.Title, post.Description))
			spans, err := params.Recognizer.Recognize(text)
			if err != nil {
				return err
			}
			terms := service.NormalizeSpans(spans)
			added, err := entity.AddPostEntities(tx, post.ID, terms)
			if err != nil {
				return err
			}
			newEntities += added
			if len(terms) > 0 {
				if err := entity.EnqueueRelation(tx, post.ID); err != nil {
					return err
				}
			}
		}
		return entity.DeleteEntityQueueEntries(tx, postIDs)
	})
	if err != nil {
		return 0, err
	}
	return newEntities, nil
}

// ProcessEntities drains the extraction queue, persisting normalized
// entities and enqueueing posts for relation
func ProcessEntities(params *config.Params) error {
	dbConnect := params.DB

	lock, err := acquire(dbConnect, Process)
	if err != nil {
		if errors.Is(err, ErrAlreadyLocked) {
			misc.Info("entity processing still in progress, skipping")
			return nil
		}
		return err
	}

	queued, err := entity.CountEntityQueue(dbConnect)
	if err != nil {
		releaseQuietly(dbConnect, lock)
		return err
	}
	if queued == 0 {
		misc.Info("no posts in entity queue, skipping")
		releaseQuietly(dbConnect, lock)
		return nil
	}
	misc.Info(fmt.Sprintf("processing %d posts in entity queue", queued))

	newEntities := 0
	for {
		batch, err := entity.GetEntityQueueBatch(dbConnect, config.ExtractBatchSize)
		if err != nil {
			releaseQuietly(dbConnect, lock)
			return err
		}
		if len(batch) == 0 {
			break
		}
		added, err := processBatch(params, batch)
		if err != nil {
			releaseQuietly(dbConnect, lock)
			return err
		}
		newEntities += added
	}

	misc.Info("unlocking processor")
	if err := ReleaseLock(dbConnect, lock); err != nil {
		return err
	}
	if newEntities > 0 {
		misc.EntitiesExtracted.Add(float64(newEntities))
		misc.Info(fmt.Sprintf("added %d entities", newEntities))
	}
	return nil
}
