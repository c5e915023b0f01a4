package job

import (
	"time"

	"aggregate-news/config"
	"aggregate-news/entity"
)

func termSet(terms ...string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, term := range terms {
		set[term] = true
	}
	return set
}

func (t *SuiteTest) Test_Relate_OverlapProperties() {
	a := termSet("fed", "interest", "rate")
	b := termSet("fed", "interest", "rate", "hike")
	c := termSet("sports", "football")

	t.Equal(1.0, overlap(a, a))
	t.Equal(overlap(a, b), overlap(b, a))
	t.GreaterOrEqual(overlap(a, b), 0.0)
	t.LessOrEqual(overlap(a, b), 1.0)
	t.Equal(1.0, overlap(a, b)) // containment scores full
	t.Equal(0.0, overlap(a, c))
	t.Equal(0.0, overlap(a, map[string]bool{}))
}

func (t *SuiteTest) relatePost(feed entity.Feed, title, link string, terms []string) entity.Post {
	post := t.createPost(feed, title, link, time.Now().UTC().Add(-time.Hour))
	_, err := entity.AddPostEntities(t.db, post.ID, terms)
	t.Require().NoError(err)
	t.Require().NoError(entity.EnqueueRelation(t.db, post.ID))
	return post
}

func (t *SuiteTest) Test_Relate_LinksMatchingPostsBothWays() {
	feed := t.createFeed("err", "business")
	other := t.createFeed("postimees", "business")

	first := t.relatePost(feed, "Fed raises interest rates", "https://err.example.com/1", []string{"fed", "interest", "rate"})
	second := t.relatePost(other, "Federal Reserve hikes interest rates", "https://postimees.example.com/1", []string{"fed", "interest", "rate", "hike"})
	unrelated := t.relatePost(feed, "Football season opens", "https://err.example.com/2", []string{"football", "season"})

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges []entity.Similarity
	t.NoError(t.db.Order("source_id, related_id").Find(&edges).Error)
	if t.Len(edges, 2) {
		t.Equal(first.ID, edges[0].SourceID)
		t.Equal(second.ID, edges[0].RelatedID)
		t.Equal(second.ID, edges[1].SourceID)
		t.Equal(first.ID, edges[1].RelatedID)
	}

	var unrelatedEdges int64
	t.NoError(t.db.Model(&entity.Similarity{}).
		Where("source_id = ? OR related_id = ?", unrelated.ID, unrelated.ID).
		Count(&unrelatedEdges).Error)
	t.Zero(unrelatedEdges)

	var queueCount int64
	t.NoError(t.db.Model(&entity.RelationQueueEntry{}).Count(&queueCount).Error)
	t.Zero(queueCount)

	locked, err := IsLocked(t.db, Relate)
	t.NoError(err)
	t.False(locked)
}

func (t *SuiteTest) Test_Relate_NoSelfEdges() {
	feed := t.createFeed("err", "news")
	post := t.relatePost(feed, "Fed raises interest rates", "https://err.example.com/1", []string{"fed", "interest", "rate"})

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges int64
	t.NoError(t.db.Model(&entity.Similarity{}).
		Where("source_id = ? OR related_id = ?", post.ID, post.ID).
		Count(&edges).Error)
	t.Zero(edges)
}

func (t *SuiteTest) Test_Relate_PairSeenFromBothSidesYieldsOnePairOfEdges() {
	feed := t.createFeed("err", "news")
	t.relatePost(feed, "Fed raises interest rates", "https://err.example.com/1", []string{"fed", "interest", "rate"})
	t.relatePost(feed, "Federal Reserve hikes rates", "https://err.example.com/2", []string{"fed", "interest", "rate"})

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges int64
	t.NoError(t.db.Model(&entity.Similarity{}).Count(&edges).Error)
	t.EqualValues(2, edges)
}

func (t *SuiteTest) Test_Relate_BelowThresholdIsNotLinked() {
	feed := t.createFeed("err", "news")
	t.relatePost(feed, "Fed raises interest rates", "https://err.example.com/1", []string{"fed", "interest", "rate", "economy"})
	t.relatePost(feed, "Weather and one rate", "https://err.example.com/2", []string{"rate", "weather", "storm", "coast"})

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges int64
	t.NoError(t.db.Model(&entity.Similarity{}).Count(&edges).Error)
	t.Zero(edges)
}

func (t *SuiteTest) Test_Relate_EmptyEntitySetIsJustDequeued() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "no entities", "https://err.example.com/1", time.Now().UTC())
	t.Require().NoError(entity.EnqueueRelation(t.db, post.ID))

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges int64
	t.NoError(t.db.Model(&entity.Similarity{}).Count(&edges).Error)
	t.Zero(edges)

	var queueCount int64
	t.NoError(t.db.Model(&entity.RelationQueueEntry{}).Count(&queueCount).Error)
	t.Zero(queueCount)
}

func (t *SuiteTest) Test_Relate_CategoriesDoNotCrossMatch() {
	business := t.createFeed("err", "business")
	sports := t.createFeed("err", "sports")

	t.relatePost(business, "Fed raises interest rates", "https://err.example.com/1", []string{"fed", "interest", "rate"})
	t.relatePost(sports, "Fed rate chatter in locker room", "https://err.example.com/2", []string{"fed", "interest", "rate"})

	t.NoError(RelatePosts(&config.Params{DB: t.db}))

	var edges int64
	t.NoError(t.db.Model(&entity.Similarity{}).Count(&edges).Error)
	t.Zero(edges)
}
