// Package expansion maps normalized query terms to related search terms.
package expansion

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/text"
)

// MaxTermsPerKey bounds the related terms kept for a single key.
const MaxTermsPerKey = 32

// Group is a section of the expansion table.
type Group string

// Table groups, in lookup order.
const (
	GroupProvinces  Group = "provinces"
	GroupCategories Group = "categories"
	GroupSynonyms   Group = "synonyms"
)

var groupOrder = []Group{GroupProvinces, GroupCategories, GroupSynonyms}

// Source is the on-disk representation of an expansion table.
type Source struct {
	Provinces  map[string][]string `yaml:"provinces" json:"provinces"`
	Categories map[string][]string `yaml:"categories" json:"categories"`
	Synonyms   map[string][]string `yaml:"synonyms" json:"synonyms"`
}

func (s Source) group(g Group) map[string][]string {
	switch g {
	case GroupProvinces:
		return s.Provinces
	case GroupCategories:
		return s.Categories
	default:
		return s.Synonyms
	}
}

type entry struct {
	key     string
	display string
	terms   []string
}

// Table is an immutable expansion table with normalized keys and terms.
type Table struct {
	groups map[Group]map[string]*entry
	// sorted keys per group for deterministic scans
	keys map[Group][]string
}

// NewTable normalizes keys and terms of src. Keys that normalize to the same
// string are merged in sorted source-key order.
func NewTable(src Source, n *text.Normalizer) *Table {
	t := &Table{
		groups: make(map[Group]map[string]*entry, len(groupOrder)),
		keys:   make(map[Group][]string, len(groupOrder)),
	}
	for _, g := range groupOrder {
		raw := src.group(g)
		rawKeys := make([]string, 0, len(raw))
		for k := range raw {
			rawKeys = append(rawKeys, k)
		}
		sort.Strings(rawKeys)

		entries := make(map[string]*entry, len(raw))
		for _, rk := range rawKeys {
			key := n.Normalize(rk, text.LanguageAuto).Joined
			if key == "" {
				continue
			}
			e, ok := entries[key]
			if !ok {
				e = &entry{key: key, display: strings.TrimSpace(rk)}
				entries[key] = e
			}
			e.terms = appendTerms(e.terms, key, raw[rk], n)
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.groups[g] = entries
		t.keys[g] = keys
	}
	return t
}

func appendTerms(dst []string, key string, terms []string, n *text.Normalizer) []string {
	for _, raw := range terms {
		if len(dst) >= MaxTermsPerKey {
			break
		}
		term := n.Normalize(raw, text.LanguageAuto).Joined
		if term == "" || term == key || contains(dst, term) {
			continue
		}
		dst = append(dst, term)
	}
	return dst
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Empty returns a table with no entries.
func Empty() *Table {
	return NewTable(Source{}, text.NewNormalizer(nil))
}

// Len returns the total number of keys across groups.
func (t *Table) Len() int {
	total := 0
	for _, g := range groupOrder {
		total += len(t.keys[g])
	}
	return total
}

// Lookup returns the related terms of key in group g.
func (t *Table) Lookup(g Group, key string) []string {
	if e, ok := t.groups[g][key]; ok {
		return e.terms
	}
	return nil
}

// Match returns display names of keys in group g that contain the query or are
// contained in it, in key order.
func (t *Table) Match(g Group, query string) []string {
	if query == "" {
		return nil
	}
	var out []string
	for _, k := range t.keys[g] {
		if strings.Contains(k, query) || strings.Contains(query, k) {
			out = append(out, t.groups[g][k].display)
		}
	}
	return out
}
