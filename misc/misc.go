// Package misc holds logging and metrics helpers
package misc

import (
	"github.com/go-pkgz/lgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var pusher *push.Pusher

// L is logger
var L = lgr.New(lgr.Msec, lgr.Debug, lgr.CallerFile, lgr.CallerFunc)

var taskErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "aggregate_news_errors",
}, []string{"error"})

// PostsCollected counts posts persisted by the collector
var PostsCollected = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "aggregate_news_posts_collected",
})

// EntitiesExtracted counts entities persisted by the processor
var EntitiesExtracted = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "aggregate_news_entities_extracted",
})

// SimilaritiesCreated counts similarity edges persisted by the relater
var SimilaritiesCreated = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "aggregate_news_similarities_created",
})

// InitMetrics initializes the metrics
func InitMetrics(url, job string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(taskErrors, PostsCollected, EntitiesExtracted, SimilaritiesCreated)
	pusher = push.New(url, job).Gatherer(registry)
}

// PushMetrics push metrics
func PushMetrics() {
	if pusher == nil {
		return
	}
	if err := pusher.Push(); err != nil {
		L.Logf("ERROR could not push to Pushgateway, %v", err)
	}
	taskErrors.Reset()
}
