package text

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

// thaiStopWords is a bleve token map: one word per line, | or # comments.
//
//go:embed stop_words_th.txt
var thaiStopWords []byte

// DefaultStopWords returns bleve's English stop word list and the bundled
// Thai list covering function words and query fillers.
func DefaultStopWords() (map[Language][]string, error) {
	enWords, err := loadTokenMap(en.EnglishStopWords)
	if err != nil {
		return nil, fmt.Errorf("load english stop words: %w", err)
	}
	thWords, err := loadTokenMap(thaiStopWords)
	if err != nil {
		return nil, fmt.Errorf("load thai stop words: %w", err)
	}
	return map[Language][]string{
		LanguageEnglish: enWords,
		LanguageThai:    thWords,
	}, nil
}

// NewDefaultNormalizer creates a Normalizer with DefaultStopWords.
func NewDefaultNormalizer() (*Normalizer, error) {
	words, err := DefaultStopWords()
	if err != nil {
		return nil, err
	}
	return NewNormalizer(words), nil
}

func loadTokenMap(data []byte) ([]string, error) {
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(data); err != nil {
		return nil, err
	}
	words := make([]string, 0, len(tm))
	for w := range tm {
		words = append(words, w)
	}
	sort.Strings(words)
	return words, nil
}
