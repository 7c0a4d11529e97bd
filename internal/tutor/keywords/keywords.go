// Package keywords matches fixed keyword vocabularies against free text.
package keywords

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Set is an immutable keyword vocabulary. A keyword (single word or phrase)
// matches only on word boundaries, so "now" does not match "know".
type Set struct {
	words []string
	re    *regexp.Regexp
}

// NewSet compiles the vocabulary. Keywords are lower-cased and de-duplicated.
func NewSet(words ...string) *Set {
	norm := lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	}))
	if len(norm) == 0 {
		return &Set{}
	}
	// longest first so overlapping phrases report the most specific keyword
	sorted := append([]string(nil), norm...)
	sort.SliceStable(sorted, func(a, b int) bool { return len(sorted[a]) > len(sorted[b]) })
	quoted := lo.Map(sorted, func(w string, _ int) string { return regexp.QuoteMeta(w) })
	return &Set{
		words: norm,
		re:    regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Match returns the first keyword found in text.
func (s *Set) Match(text string) (string, bool) {
	if s == nil || s.re == nil {
		return "", false
	}
	m := s.re.FindString(strings.ToLower(text))
	return m, m != ""
}

// Contains reports whether any keyword occurs in text.
func (s *Set) Contains(text string) bool {
	_, ok := s.Match(text)
	return ok
}

// Words returns a copy of the vocabulary.
func (s *Set) Words() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.words...)
}
