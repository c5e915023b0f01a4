package job

import (
	"errors"
	"strings"
	"time"

	"aggregate-news/config"
	"aggregate-news/entity"
)

type recognizerFunc func(text string) ([]config.Span, error)

func (f recognizerFunc) Recognize(text string) ([]config.Span, error) {
	return f(text)
}

func wordSpans(text string) []config.Span {
	var spans []config.Span
	for _, word := range strings.Fields(text) {
		spans = append(spans, config.Span{Text: word, Label: "NOUN"})
	}
	return spans
}

func (t *SuiteTest) enqueueExtraction(post entity.Post) {
	t.Require().NoError(t.db.Create(&entity.EntityQueueEntry{PostID: post.ID}).Error)
}

func (t *SuiteTest) Test_Extract_PersistsEntitiesAndEnqueuesRelation() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "Fed raises interest rates", "https://err.example.com/1", time.Now().UTC())
	t.enqueueExtraction(post)

	params := &config.Params{DB: t.db, Recognizer: recognizerFunc(func(text string) ([]config.Span, error) {
		return []config.Span{
			{Text: "Fed", Label: "ORG", Lemma: "fed"},
			{Text: "interest", Label: "NOUN", Lemma: "interest"},
			{Text: "rates", Label: "NOUN", Lemma: "rate"},
			{Text: "2024", Label: "DATE", Lemma: "2024"},
		}, nil
	})}
	t.NoError(ProcessEntities(params))

	terms, err := entity.GetPostEntities(t.db, post.ID)
	t.NoError(err)
	t.ElementsMatch([]string{"fed", "interest", "rate"}, terms)

	var relationCount int64
	t.NoError(t.db.Model(&entity.RelationQueueEntry{}).Where("post_id = ?", post.ID).Count(&relationCount).Error)
	t.EqualValues(1, relationCount)

	var queueCount int64
	t.NoError(t.db.Model(&entity.EntityQueueEntry{}).Count(&queueCount).Error)
	t.Zero(queueCount)

	locked, err := IsLocked(t.db, Process)
	t.NoError(err)
	t.False(locked)
}

func (t *SuiteTest) Test_Extract_EmptyDescriptionIsDequeuedWithoutEntities() {
	feed := t.createFeed("err", "news")
	post := entity.Post{FeedID: feed.ID, Title: "title only", Link: "https://err.example.com/1", PublishedAt: time.Now().UTC()}
	t.Require().NoError(t.db.Create(&post).Error)
	t.enqueueExtraction(post)

	params := &config.Params{DB: t.db, Recognizer: recognizerFunc(func(text string) ([]config.Span, error) {
		t.Fail("recognizer must not run for empty descriptions")
		return nil, nil
	})}
	t.NoError(ProcessEntities(params))

	var entityCount int64
	t.NoError(t.db.Model(&entity.PostEntity{}).Count(&entityCount).Error)
	t.Zero(entityCount)

	var relationCount int64
	t.NoError(t.db.Model(&entity.RelationQueueEntry{}).Count(&relationCount).Error)
	t.Zero(relationCount)

	var queueCount int64
	t.NoError(t.db.Model(&entity.EntityQueueEntry{}).Count(&queueCount).Error)
	t.Zero(queueCount)
}

func (t *SuiteTest) Test_Extract_NoRelationEntryWhenNothingKept() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "the and of", "https://err.example.com/1", time.Now().UTC())
	t.enqueueExtraction(post)

	params := &config.Params{DB: t.db, Recognizer: recognizerFunc(func(text string) ([]config.Span, error) {
		return wordSpans("the and of"), nil
	})}
	t.NoError(ProcessEntities(params))

	var relationCount int64
	t.NoError(t.db.Model(&entity.RelationQueueEntry{}).Count(&relationCount).Error)
	t.Zero(relationCount)

	var queueCount int64
	t.NoError(t.db.Model(&entity.EntityQueueEntry{}).Count(&queueCount).Error)
	t.Zero(queueCount)
}

func (t *SuiteTest) Test_Extract_RecognitionFailureRollsBackBatch() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "some story", "https://err.example.com/1", time.Now().UTC())
	t.enqueueExtraction(post)

	params := &config.Params{DB: t.db, Recognizer: recognizerFunc(func(text string) ([]config.Span, error) {
		return nil, errors.New("model unavailable")
	})}
	t.Error(ProcessEntities(params))

	// nothing committed, queue entry still pending for the next run
	var entityCount int64
	t.NoError(t.db.Model(&entity.PostEntity{}).Count(&entityCount).Error)
	t.Zero(entityCount)

	var queueCount int64
	t.NoError(t.db.Model(&entity.EntityQueueEntry{}).Count(&queueCount).Error)
	t.EqualValues(1, queueCount)

	locked, err := IsLocked(t.db, Process)
	t.NoError(err)
	t.False(locked)
}

func (t *SuiteTest) Test_Extract_ReprocessingIsIdempotent() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "Fed raises interest rates", "https://err.example.com/1", time.Now().UTC())

	recognizer := recognizerFunc(func(text string) ([]config.Span, error) {
		return []config.Span{{Text: "Fed", Label: "ORG", Lemma: "fed"}}, nil
	})
	params := &config.Params{DB: t.db, Recognizer: recognizer}

	t.enqueueExtraction(post)
	t.NoError(ProcessEntities(params))
	t.enqueueExtraction(post)
	t.NoError(ProcessEntities(params))

	var entityCount int64
	t.NoError(t.db.Model(&entity.PostEntity{}).Where("post_id = ?", post.ID).Count(&entityCount).Error)
	t.EqualValues(1, entityCount)
}
