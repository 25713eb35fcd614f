package models

import (
	"sort"
	"time"
)

// VocabularyItem is a seeded word with one translation per target language.
// The engine never mutates it.
type VocabularyItem struct {
	ID           int64             `json:"id" db:"id"`
	Term         string            `json:"term" db:"term"`
	Translations map[string]string `json:"translations" db:"-"`
	Difficulty   int               `json:"difficulty" db:"difficulty"` // tier, lower is easier
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// Translation returns the translation for lang, falling back to the first
// language in alphabetical order when lang is missing.
func (w VocabularyItem) Translation(lang string) string {
	if t, ok := w.Translations[lang]; ok {
		return t
	}
	if len(w.Translations) == 0 {
		return ""
	}
	langs := make([]string, 0, len(w.Translations))
	for l := range w.Translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return w.Translations[langs[0]]
}
