package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/thoas/go-funk"
	"gorm.io/gorm"

	"aggregate-news/config"
	"aggregate-news/entity"
	"aggregate-news/misc"
)

// overlap is the overlap coefficient |A∩B| / min(|A|,|B|), biased toward
// containment so a short, focused entity set fully contained in a longer
// one still scores high
func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}
	shared := 0
	for term := range smaller {
		if larger[term] {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}

// relateRun is the per run state of one relation pass: the inverted index
// of the current category, cached entity sets and the pairs already
// compared, so a pair seen from both sides yields one edge pair
type relateRun struct {
	db         *gorm.DB
	index      map[string][]int
	entitySets map[int]map[string]bool
	seenPairs  map[[2]int]bool
}

func newRelateRun(dbConnect *gorm.DB) *relateRun {
	return &relateRun{
		db:         dbConnect,
		entitySets: make(map[int]map[string]bool),
		seenPairs:  make(map[[2]int]bool),
	}
}

// buildIndex maps each entity term to the posts of the category that
// contain it, over the recency window. Built once per category, not once
// per candidate.
func (r *relateRun) buildIndex(categoryID int, offset time.Time) error {
	rows, err := entity.GetRecentPostEntities(r.db, categoryID, offset)
	if err != nil {
		return err
	}
	r.index = make(map[string][]int)
	for _, row := range rows {
		r.index[row.Entity] = append(r.index[row.Entity], row.PostID)
		set, ok := r.entitySets[row.PostID]
		if !ok {
			set = make(map[string]bool)
			r.entitySets[row.PostID] = set
		}
		set[row.Entity] = true
	}
	return nil
}

func (r *relateRun) entities(tx *gorm.DB, postID int) (map[string]bool, error) {
	if set, ok := r.entitySets[postID]; ok {
		return set, nil
	}
	terms, err := entity.GetPostEntities(tx, postID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(terms))
	for _, term := range terms {
		set[term] = true
	}
	r.entitySets[postID] = set
	return set, nil
}

func pairKey(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

// relateBatch scores one queue batch against the index and writes accepted
// edges; the queue rows are dequeued with the same commit
func (r *relateRun) relateBatch(batch []entity.RelationQueueEntry) (int, error) {
	postIDs := funk.Map(batch, func(queued entity.RelationQueueEntry) int {
		return queued.PostID
	}).([]int)

	newSimilarities := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, queued := range batch {
			set, err := r.entities(tx, queued.PostID)
			if err != nil {
				return err
			}
			if len(set) == 0 {
				continue
			}
			candidates := make(map[int]bool)
			for term := range set {
				for _, candidateID := range r.index[term] {
					if candidateID != queued.PostID {
						candidates[candidateID] = true
					}
				}
			}
			for candidateID := range candidates {
				key := pairKey(queued.PostID, candidateID)
				if r.seenPairs[key] {
					continue
				}
				r.seenPairs[key] = true
				candidateSet, err := r.entities(tx, candidateID)
				if err != nil {
					return err
				}
				if overlap(set, candidateSet) >= config.SimilarityThreshold {
					if err := entity.AddSimilarityPair(tx, queued.PostID, candidateID); err != nil {
						return err
					}
					newSimilarities += 2
				}
			}
		}
		return entity.DeleteRelationQueueEntries(tx, postIDs)
	})
	if err != nil {
		return 0, err
	}
	return newSimilarities, nil
}

// RelatePosts links near duplicate posts across sources by entity overlap
func RelatePosts(params *config.Params) error {
	dbConnect := params.DB

	lock, err := acquire(dbConnect, Relate)
	if err != nil {
		if errors.Is(err, ErrAlreadyLocked) {
			misc.Info("similarity processing still in progress, skipping")
			return nil
		}
		return err
	}

	queued, err := entity.CountRelationQueue(dbConnect)
	if err != nil {
		releaseQuietly(dbConnect, lock)
		return err
	}
	if queued == 0 {
		misc.Info("no posts in relation queue, skipping")
		releaseQuietly(dbConnect, lock)
		return nil
	}
	misc.Info(fmt.Sprintf("processing %d posts in relation queue", queued))

	var categories []entity.Category
	if err := dbConnect.Find(&categories).Error; err != nil {
		releaseQuietly(dbConnect, lock)
		return err
	}

	offset := time.Now().UTC().AddDate(0, 0, -config.RelateWindowDays)
	newSimilarities := 0
	for _, category := range categories {
		entries, err := entity.GetRelationQueueByCategory(dbConnect, category.ID)
		if err != nil {
			releaseQuietly(dbConnect, lock)
			return err
		}
		if len(entries) == 0 {
			continue
		}
		run := newRelateRun(dbConnect)
		if err := run.buildIndex(category.ID, offset); err != nil {
			releaseQuietly(dbConnect, lock)
			return err
		}
		for start := 0; start < len(entries); start += config.RelateBatchSize {
			end := start + config.RelateBatchSize
			if end > len(entries) {
				end = len(entries)
			}
			added, err := run.relateBatch(entries[start:end])
			if err != nil {
				releaseQuietly(dbConnect, lock)
				return err
			}
			newSimilarities += added
		}
	}

	misc.Info("unlocking relater")
	if err := ReleaseLock(dbConnect, lock); err != nil {
		return err
	}
	if newSimilarities > 0 {
		misc.SimilaritiesCreated.Add(float64(newSimilarities))
		misc.Info(fmt.Sprintf("added %d similarities", newSimilarities))
	}
	return nil
}
