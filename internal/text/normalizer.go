// Package text normalizes Thai and English search text.
package text

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Language is a normalization language.
type Language string

// Supported languages. LanguageAuto infers the language from the script.
const (
	LanguageAuto    Language = ""
	LanguageThai    Language = "th"
	LanguageEnglish Language = "en"
)

// ParseLanguage converts a raw hint into a Language.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case LanguageAuto, LanguageThai, LanguageEnglish:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Thai Unicode block bounds.
const (
	thaiFirst = '\u0E00'
	thaiLast  = '\u0E7F'
)

// IsThai reports whether r belongs to the Thai block.
func IsThai(r rune) bool { return r >= thaiFirst && r <= thaiLast }

// ContainsThai reports whether s has at least one Thai rune.
func ContainsThai(s string) bool {
	return strings.IndexFunc(s, IsThai) >= 0
}

// DetectLanguage infers the language from the script of s.
func DetectLanguage(s string) Language {
	if ContainsThai(s) {
		return LanguageThai
	}
	return LanguageEnglish
}

// Result is a normalized query.
type Result struct {
	Tokens   []string
	Joined   string
	Language Language
}

// IsEmpty reports whether nothing survived normalization.
func (r Result) IsEmpty() bool { return r.Joined == "" }

// Normalizer lowercases, strips punctuation and diacritics, and removes stop words.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopWords map[Language]map[string]struct{}
}

// NewNormalizer creates a Normalizer with the given per-language stop words.
// Stop words are folded the same way as input text.
func NewNormalizer(stopWords map[Language][]string) *Normalizer {
	n := &Normalizer{stopWords: make(map[Language]map[string]struct{}, len(stopWords))}
	for lang, words := range stopWords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			for _, tok := range strings.Fields(Fold(w)) {
				set[tok] = struct{}{}
			}
		}
		n.stopWords[lang] = set
	}
	return n
}

// Normalize folds s, tokenizes it and drops stop words.
//
// With LanguageAuto each token is checked against the stop list of its own
// script; with an explicit hint every token uses the hint's list. If every
// token is a stop word the unfiltered tokens are kept, so non-empty input
// never yields an empty match target.
func (n *Normalizer) Normalize(s string, hint Language) Result {
	raw := strings.Fields(Fold(s))

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !n.isStopWord(tok, hint) {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		tokens = raw
	}

	joined := strings.Join(tokens, " ")
	lang := hint
	if lang == LanguageAuto {
		lang = DetectLanguage(joined)
	}
	return Result{Tokens: tokens, Joined: joined, Language: lang}
}

// IsStopWord reports whether a folded token is a stop word for lang.
func (n *Normalizer) IsStopWord(token string, lang Language) bool {
	return n.isStopWord(token, lang)
}

func (n *Normalizer) isStopWord(token string, hint Language) bool {
	lang := hint
	if lang == LanguageAuto {
		lang = DetectLanguage(token)
	}
	_, ok := n.stopWords[lang][token]
	return ok
}

// Fold lowercases s, removes diacritics outside the Thai block, replaces
// punctuation and symbols with spaces and collapses whitespace.
// Fold is idempotent.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	// Transformer chains are stateful, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isForeignMark)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		if IsThai(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

func isForeignMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) && !IsThai(r)
}
