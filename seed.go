package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm"

	"aggregate-news/config"
	"aggregate-news/entity"
	"aggregate-news/misc"
)

// seed loads source/category/feed rows from a csv file with a
// "source,category,url" header, skipping urls that already exist. New
// feeds start due, with a status stamped one day in the past.
func seed(dbConnect *gorm.DB, filepath string) error {
	file, err := os.Open(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{"source", "category", "url"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("feeds file is missing a %q column", required)
		}
	}

	var feeds []entity.Feed
	if err := dbConnect.Find(&feeds).Error; err != nil {
		return err
	}
	known := make(map[string]bool, len(feeds))
	for _, feed := range feeds {
		known[feed.URL] = true
	}

	statusOffset := time.Now().UTC().AddDate(0, 0, -1)
	added := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		url := row[columns["url"]]
		if known[url] {
			continue
		}
		source, err := upsertSource(dbConnect, row[columns["source"]])
		if err != nil {
			return err
		}
		category, err := upsertCategory(dbConnect, row[columns["category"]])
		if err != nil {
			return err
		}
		feed := entity.Feed{SourceID: source.ID, CategoryID: category.ID, URL: url}
		if err := dbConnect.Create(&feed).Error; err != nil {
			return err
		}
		status := entity.FeedStatus{
			FeedID:          feed.ID,
			UpdateDatetime:  statusOffset,
			UpdateFrequency: config.MinUpdateFreq,
		}
		if err := dbConnect.Create(&status).Error; err != nil {
			return err
		}
		known[url] = true
		added++
	}
	misc.Info(fmt.Sprintf("seeded %d feeds", added))
	return nil
}

func upsertSource(dbConnect *gorm.DB, title string) (*entity.Source, error) {
	source := entity.Source{Slug: misc.Slugify(title), Title: title}
	result := dbConnect.Where("slug = ?", source.Slug).FirstOrCreate(&source)
	if result.Error != nil {
		return nil, result.Error
	}
	return &source, nil
}

func upsertCategory(dbConnect *gorm.DB, title string) (*entity.Category, error) {
	category := entity.Category{Slug: misc.Slugify(title), Title: title}
	result := dbConnect.Where("slug = ?", category.Slug).FirstOrCreate(&category)
	if result.Error != nil {
		return nil, result.Error
	}
	return &category, nil
}
