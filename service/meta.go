package service

import (
	"bytes"
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/lafin/http"
)

// Meta is page metadata resolved from a post link
type Meta struct {
	Title       string
	Description string
}

// GetMeta return meta info by url. Enrichment is best effort, any error
// leaves the caller with the original feed values.
func GetMeta(link string) (*Meta, error) {
	body, _, err := http.Get(link, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var meta Meta
	meta.Title = findMeta(doc, "og:title")
	meta.Description = findMeta(doc, "og:description")
	if meta.Title == "" && meta.Description == "" {
		return nil, errors.New("meta is empty")
	}
	return &meta, nil
}

func findMeta(doc *goquery.Document, property string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if prop, _ := node.Attr("property"); prop == property {
			content, _ = node.Attr("content")
			return false
		}
		return true
	})
	return content
}
