// Package similarity scores documents against normalized query terms.
package similarity

import (
	"math"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/text"
)

// Tier scores.
const (
	ScoreExact    = 1.0
	ScoreContains = 0.8
	ScoreWord     = 0.6
	// fuzzy scores never reach an exact match
	maxFuzzy = 0.99
)

// DefaultThreshold is the minimum score for a document to be eligible.
const DefaultThreshold = 0.35

// Field is a searchable document field.
type Field string

// Searchable fields.
const (
	FieldName     Field = "name"
	FieldCaption  Field = "caption"
	FieldTags     Field = "tags"
	FieldProvince Field = "province"
	FieldAliases  Field = "aliases"
)

// DefaultFields are scored in this order; earlier fields win ties.
var DefaultFields = []Field{FieldName, FieldCaption, FieldTags, FieldProvince}

// Term is a normalized candidate term.
type Term struct {
	Text  string
	Words []string
	Thai  bool

	runes []rune
	grams map[string]struct{}
}

// NewTerm prepares a normalized string for scoring.
func NewTerm(s string) Term {
	t := Term{
		Text:  s,
		Words: strings.Fields(s),
		Thai:  text.ContainsThai(s),
		runes: []rune(s),
	}
	if t.Thai {
		t.grams = trigramSet(s)
	}
	return t
}

// Terms builds the candidate term list: the normalized query first, then the
// folded raw query (which keeps stop words, so a query equal to a field that
// contains one still reaches the exact tier), then each expansion. Empty and
// duplicate terms are dropped.
func Terms(raw string, q text.Result, expansions []string) []Term {
	terms := make([]Term, 0, len(expansions)+2)
	seen := make(map[string]struct{}, len(expansions)+2)
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		terms = append(terms, NewTerm(s))
	}
	add(q.Joined)
	add(text.Fold(raw))
	for _, e := range expansions {
		add(e)
	}
	return terms
}

// Query is a similarity request.
type Query struct {
	Terms     []Term
	Threshold float64
	// Fields defaults to DefaultFields.
	Fields []Field
}

func (q Query) fields() []Field {
	if len(q.Fields) == 0 {
		return DefaultFields
	}
	return q.Fields
}

type fieldValue struct {
	field Field
	value string
	words []string
	runes int
}

func fieldValues(e *corpus.Entry, fields []Field) []fieldValue {
	out := make([]fieldValue, 0, len(fields)+len(e.Tags)+len(e.Aliases))
	add := func(f Field, v string) {
		if v == "" {
			return
		}
		out = append(out, fieldValue{field: f, value: v, words: strings.Fields(v), runes: runeLen(v)})
	}
	for _, f := range fields {
		switch f {
		case FieldName:
			add(f, e.Name)
		case FieldCaption:
			add(f, e.Caption)
		case FieldProvince:
			add(f, e.Province)
		case FieldTags:
			for _, tag := range e.Tags {
				add(f, tag)
			}
		case FieldAliases:
			for _, a := range e.Aliases {
				add(f, a)
			}
		}
	}
	return out
}

// ScoreEntry returns the best match of e over all terms and fields, and whether
// it reaches the threshold. Ties keep the earlier term, then the earlier field.
func ScoreEntry(e *corpus.Entry, q Query) (result.Match, bool) {
	best := result.Match{DocumentID: e.Doc.ID()}
	found := false

	values := fieldValues(e, q.fields())
	for ti := range q.Terms {
		term := &q.Terms[ti]
		for vi := range values {
			fv := &values[vi]
			score, tier := scoreValue(term, fv, math.Max(q.Threshold, best.Score))
			if score > best.Score {
				best.Score = score
				best.Field = string(fv.field)
				best.Term = term.Text
				best.Tier = tier
				found = true
			}
			if best.Score >= ScoreExact {
				return best, true
			}
		}
	}
	return best, found && best.Score >= q.Threshold
}

// Score returns the similarity of a normalized term against a normalized field value.
func Score(term, value string) (float64, result.Tier) {
	t := NewTerm(term)
	fv := fieldValue{value: value, words: strings.Fields(value), runes: runeLen(value)}
	return scoreValue(&t, &fv, 0)
}

// scoreValue applies the tiers in order. Fuzzy candidates whose length bound
// is below floor are skipped.
func scoreValue(t *Term, fv *fieldValue, floor float64) (float64, result.Tier) {
	if t.Text == "" || fv.value == "" {
		return 0, ""
	}
	if fv.value == t.Text {
		return ScoreExact, result.TierExact
	}
	if strings.Contains(fv.value, t.Text) {
		return ScoreContains, result.TierContains
	}
	if !t.Thai && len(t.Words) > 1 && allWords(t.Words, fv.words) {
		return ScoreWord, result.TierWord
	}
	return fuzzy(t, fv, floor), result.TierFuzzy
}

func allWords(terms, words []string) bool {
	for _, t := range terms {
		found := false
		for _, w := range words {
			if w == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fuzzy compares the term with the whole value and with every window of the
// value's words that has as many words as the term.
func fuzzy(t *Term, fv *fieldValue, floor float64) float64 {
	best := 0.0
	consider := func(s string, n int) {
		bound := lengthBound(len(t.runes), n)
		need := math.Max(floor, best)
		if bound < need || bound == 0 {
			return
		}
		if r := EditRatio(t.runes, s); r > best {
			best = r
		}
		// Jaccard on trigrams is bounded by the length ratio only loosely,
		// so very unequal lengths are not compared.
		if t.Thai && bound >= need/2 {
			if j := jaccard(t.grams, s); j > best {
				best = j
			}
		}
	}

	consider(fv.value, fv.runes)

	k := len(t.Words)
	if k > 0 && len(fv.words) > k {
		for i := 0; i+k <= len(fv.words); i++ {
			if k == 1 {
				consider(fv.words[i], runeLen(fv.words[i]))
				continue
			}
			n := k - 1
			for _, w := range fv.words[i : i+k] {
				n += runeLen(w)
			}
			if lengthBound(len(t.runes), n) < math.Max(floor, best) {
				continue
			}
			consider(strings.Join(fv.words[i:i+k], " "), n)
		}
	}
	return math.Min(best, maxFuzzy)
}
