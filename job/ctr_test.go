package job

import (
	"time"

	"aggregate-news/config"
	"aggregate-news/entity"
)

func (t *SuiteTest) createAction(post entity.Post, clicks, impressions int, ctr float64) entity.PostAction {
	action := entity.PostAction{PostID: post.ID, Clicks: clicks, Impressions: impressions, CTR: ctr}
	t.Require().NoError(t.db.Create(&action).Error)
	return action
}

func (t *SuiteTest) Test_CTR_ComputesRatioForActivePosts() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "fresh", "https://err.example.com/1", time.Now().UTC().Add(-time.Hour))
	action := t.createAction(post, 5, 20, 0)

	t.NoError(UpdateCTR(&config.Params{DB: t.db}))

	var updated entity.PostAction
	t.NoError(t.db.First(&updated, action.ID).Error)
	t.InDelta(0.25, updated.CTR, 0.0001)

	locked, err := IsLocked(t.db, Analyze)
	t.NoError(err)
	t.False(locked)
}

func (t *SuiteTest) Test_CTR_LeavesUntouchedWithoutImpressions() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "fresh", "https://err.example.com/1", time.Now().UTC().Add(-time.Hour))
	action := t.createAction(post, 0, 0, 0)

	t.NoError(UpdateCTR(&config.Params{DB: t.db}))

	var updated entity.PostAction
	t.NoError(t.db.First(&updated, action.ID).Error)
	t.Zero(updated.CTR)
}

func (t *SuiteTest) Test_CTR_ZeroesAgedOutPosts() {
	feed := t.createFeed("err", "news")
	post := t.createPost(feed, "stale", "https://err.example.com/1", time.Now().UTC().Add(-48*time.Hour))
	action := t.createAction(post, 5, 20, 0.25)

	t.NoError(UpdateCTR(&config.Params{DB: t.db}))

	var updated entity.PostAction
	t.NoError(t.db.First(&updated, action.ID).Error)
	t.Zero(updated.CTR)
}
