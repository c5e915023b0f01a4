// Package db handle work with db
package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aggregate-news/entity"
	"aggregate-news/misc"
)

// Connect - connection to a db
func Connect(dbHost, dbUser, dbPassword, dbName string) *gorm.DB {
	dbConnect, err := gorm.Open(postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s", dbHost, dbUser, dbPassword, dbName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		misc.Fatal("db_connect", "failed to connect database", err)
	}
	if err := Migrate(dbConnect); err != nil {
		misc.Fatal("db_migration", "db migration", err)
	}
	return dbConnect
}

// Migrate creates or updates the schema
func Migrate(dbConnect *gorm.DB) error {
	return dbConnect.AutoMigrate(
		&entity.Source{},
		&entity.Category{},
		&entity.Feed{},
		&entity.FeedStatus{},
		&entity.Post{},
		&entity.PostAction{},
		&entity.EntityQueueEntry{},
		&entity.PostEntity{},
		&entity.RelationQueueEntry{},
		&entity.Similarity{},
		&entity.JobLock{},
	)
}
