// Package config keeps tunable constants and runtime settings
package config

import (
	"os"
	"time"
)

// MinUpdateFreq is the lower bound of the adaptive polling exponent, 2**3 minutes (8)
var MinUpdateFreq = 3

// MaxUpdateFreq is the upper bound of the adaptive polling exponent, 2**7 minutes (128)
var MaxUpdateFreq = 7

// SimilarityThreshold is the minimal overlap score for linking two posts
var SimilarityThreshold = 0.75

// RelateWindowDays is how far back the relater indexes entities
var RelateWindowDays = 2

// CTRActiveWindow is how long a post keeps its click through rate
var CTRActiveWindow = 24 * time.Hour

// CollectBatchSize is the number of due feeds fetched per pass
var CollectBatchSize = 10

// CollectWorkers is the parallel fetch limit within a batch
var CollectWorkers = 5

// ExtractBatchSize is the number of queued posts per extraction transaction
var ExtractBatchSize = 250

// RelateBatchSize is the number of queued posts per relation transaction
var RelateBatchSize = 100

// MaxEntitiesPerPost caps kept terms so boilerplate does not dominate scoring
var MaxEntitiesPerPost = 8

// MaxFieldLength is the column limit for post titles and links
var MaxFieldLength = 255

// CollectLockTimeout is the collect lock staleness bound in minutes
var CollectLockTimeout = 8

// ProcessLockTimeout is the process lock staleness bound in minutes
var ProcessLockTimeout = 8

// RelateLockTimeout is the relate lock staleness bound in minutes
var RelateLockTimeout = 8

// AnalyzeLockTimeout is the analyze lock staleness bound in minutes
var AnalyzeLockTimeout = 4

// Config is environment derived settings
type Config struct {
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	NerEndpoint    string
	PushGatewayURL string
}

// Load reads settings from the environment
func Load() *Config {
	return &Config{
		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "postgres"),
		NerEndpoint:    os.Getenv("NER_ENDPOINT"),
		PushGatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
