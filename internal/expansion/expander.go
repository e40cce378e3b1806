package expansion

import (
	"strings"

	"github.com/kailas-cloud/tourdex/internal/text"
)

// DefaultMaxTerms caps the number of expansion terms per query.
const DefaultMaxTerms = 10

// Expander performs direct, deterministic lookups against a Table.
type Expander struct {
	table    *Table
	maxTerms int
	degraded bool
}

// NewExpander creates an Expander. maxTerms <= 0 means DefaultMaxTerms.
func NewExpander(table *Table, maxTerms int) *Expander {
	if table == nil {
		table = Empty()
	}
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}
	return &Expander{table: table, maxTerms: maxTerms}
}

// WithDegraded marks the expander as running on a fallback table.
func (e *Expander) WithDegraded(degraded bool) *Expander {
	e.degraded = degraded
	return e
}

// Degraded reports whether the configured table failed to load.
func (e *Expander) Degraded() bool { return e.degraded }

// Expand returns related terms for a normalized query.
//
// The joined query is looked up first, then each token. For every key the
// provinces, categories and synonyms groups are consulted in that order and
// terms keep their table order. Duplicates and the query itself are dropped.
func (e *Expander) Expand(q text.Result) []string {
	if q.IsEmpty() {
		return nil
	}

	keys := make([]string, 0, len(q.Tokens)+1)
	keys = append(keys, q.Joined)
	for _, tok := range q.Tokens {
		if !contains(keys, tok) {
			keys = append(keys, tok)
		}
	}

	seen := map[string]struct{}{q.Joined: {}}
	out := make([]string, 0, e.maxTerms)
	for _, key := range keys {
		for _, g := range groupOrder {
			for _, term := range e.table.Lookup(g, key) {
				if _, dup := seen[term]; dup {
					continue
				}
				seen[term] = struct{}{}
				out = append(out, term)
				if len(out) == e.maxTerms {
					return out
				}
			}
		}
	}
	return out
}

// Provinces returns province names related to the query.
func (e *Expander) Provinces(q text.Result) []string {
	return e.table.Match(GroupProvinces, q.Joined)
}

// Categories returns category names containing the query.
func (e *Expander) Categories(q text.Result) []string {
	if q.IsEmpty() {
		return nil
	}
	var out []string
	for _, k := range e.table.keys[GroupCategories] {
		if strings.Contains(k, q.Joined) {
			out = append(out, e.table.groups[GroupCategories][k].display)
		}
	}
	return out
}
