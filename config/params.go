package config

import (
	"gorm.io/gorm"
)

// Recognizer returns labeled spans for an input text
type Recognizer interface {
	Recognize(text string) ([]Span, error)
}

// Span is one labeled span produced by the recognizer
type Span struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Lemma string `json:"lemma"`
}

// Params carries per run dependencies into the jobs
type Params struct {
	DB         *gorm.DB
	Recognizer Recognizer
}
